package factory

import (
	"time"

	"github.com/mcoot/sandbag/internal/dependencies/mocks"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/storage"
	"github.com/mcoot/sandbag/internal/storage/memory"
	"github.com/mcoot/sandbag/internal/testutil"
)

// TestApp extends App with test-specific helpers
type TestApp struct {
	*App

	// Mocks for test control
	MockClock  *mocks.MockClock
	MockRandom *mocks.MockRandom
	MockIDs    *mocks.MockIDs
}

// TestRetryConfig retries quickly and often enough for heavily contended tests
var TestRetryConfig = retry.Config{
	MaxAttempts:     50,
	InitialInterval: time.Millisecond,
	MaxInterval:     5 * time.Millisecond,
}

// NewTestApp creates an App on in-memory storage with mocked dependencies
func NewTestApp() *TestApp {
	return NewTestAppWithStorage(memory.New(), StorageTypeMemory)
}

// NewTestAppWithStorage creates an App on the given store with mocked
// dependencies. Confirmers are drawn from MockRandom.
func NewTestAppWithStorage(store storage.Storage, storageType string) *TestApp {
	mockClock := mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	mockRandom := mocks.NewMockRandom()
	mockIDs := mocks.NewMockIDs("id")

	app := newWithDependencies(store, mockClock, mockRandom, mockIDs,
		round.NewRandomSelector(mockRandom), TestRetryConfig, testutil.NopLogger())
	app.StorageType = storageType

	return &TestApp{
		App:        app,
		MockClock:  mockClock,
		MockRandom: mockRandom,
		MockIDs:    mockIDs,
	}
}
