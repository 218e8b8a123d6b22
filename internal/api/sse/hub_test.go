package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sandbag/internal/dependencies/mocks"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/services/scoring"
	"github.com/mcoot/sandbag/internal/storage/memory"
	"github.com/mcoot/sandbag/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			eventName: "game_updated",
			data:      `{"version":1}`,
			expected:  "event: game_updated\ndata: {\"version\":1}\n\n",
		},
		{
			name:      "multi-line data",
			eventName: "test",
			data:      "{\n  \"a\": 1\n}",
			expected:  "event: test\ndata: {\ndata:   \"a\": 1\ndata: }\n\n",
		},
		{
			name:      "empty data",
			eventName: "ping",
			data:      "",
			expected:  "event: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "event: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, string(formatSSEMessage(tt.eventName, tt.data)))
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single line", input: "hello", expected: []string{"hello"}},
		{name: "two lines", input: "line1\nline2", expected: []string{"line1", "line2"}},
		{name: "trailing newline", input: "line1\n", expected: []string{"line1"}},
		{name: "empty string", input: "", expected: []string{""}},
		{name: "crlf line endings", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, splitLines(tt.input))
		})
	}
}

func TestClientOfferDropsOldest(t *testing.T) {
	hub := NewHub("g1", mocks.NewMockClock(time.Now()), testutil.NopLogger())
	client := NewClient(hub, "c1", time.Now())

	for v := int64(1); v <= sendBufferSize; v++ {
		assert.True(t, client.offer(model.Event{Version: v}))
	}
	assert.False(t, client.offer(model.Event{Version: sendBufferSize + 1}))

	first := <-client.Events()
	assert.Equal(t, int64(2), first.Version)
}

func TestHubRegisterAfterCloseFails(t *testing.T) {
	hub := NewHub("g1", mocks.NewMockClock(time.Now()), testutil.NopLogger())
	go hub.Run()
	hub.Close()

	assert.False(t, hub.Register(NewClient(hub, "c1", time.Now())))
}

type fixture struct {
	controller *game.Controller
	manager    *HubManager
	game       *model.Game
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := mocks.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	idGen := mocks.NewMockIDs("id")
	machine := round.NewMachine(scoring.New(), round.FirstMemberSelector, clock, idGen)
	controller := game.NewController(memory.New(), machine, clock, idGen, retry.DefaultConfig(), testutil.NopLogger())

	g, err := controller.CreateGame(context.Background(), "", []model.Player{
		{ID: "r1"}, {ID: "b1"}, {ID: "r2"}, {ID: "b2"},
	}, nil, 500)
	require.NoError(t, err)

	manager := NewHubManager(controller, clock, testutil.NopLogger())
	t.Cleanup(manager.Close)
	return &fixture{controller: controller, manager: manager, game: g}
}

func receive(t *testing.T, client *Client) model.Event {
	t.Helper()
	select {
	case event, ok := <-client.Events():
		require.True(t, ok, "client channel closed")
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("no event received")
		return model.Event{}
	}
}

func TestHubManagerDeliversSnapshots(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	client, err := f.manager.Join(f.game.ID, "c1")
	require.NoError(t, err)

	initial := receive(t, client)
	assert.Equal(t, model.EventGameUpdated, initial.Type)
	assert.Equal(t, f.game.Version, initial.Version)

	_, err = f.controller.AssignPlayerToTeam(ctx, f.game.ID, "r1", model.TeamRed)
	require.NoError(t, err)

	update := receive(t, client)
	assert.Greater(t, update.Version, initial.Version)
	assert.Equal(t, model.TeamRed, update.Game.GetPlayer("r1").Team)
}

func TestHubManagerSharesHubAndReplaysLatest(t *testing.T) {
	f := newFixture(t)

	first, err := f.manager.Join(f.game.ID, "c1")
	require.NoError(t, err)
	receive(t, first)

	second, err := f.manager.Join(f.game.ID, "c2")
	require.NoError(t, err)
	assert.Equal(t, 1, f.manager.HubCount())

	replayed := receive(t, second)
	assert.Equal(t, f.game.Version, replayed.Version)
}

func TestHubManagerClosesHubWithLastClient(t *testing.T) {
	f := newFixture(t)

	first, err := f.manager.Join(f.game.ID, "c1")
	require.NoError(t, err)
	second, err := f.manager.Join(f.game.ID, "c2")
	require.NoError(t, err)

	f.manager.Leave(first)
	assert.Equal(t, 1, f.manager.HubCount())

	f.manager.Leave(second)
	assert.Equal(t, 0, f.manager.HubCount())
}

func TestHubManagerUnknownGame(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.Join("missing", "c1")
	assert.ErrorIs(t, err, model.ErrGameNotFound)
	assert.Equal(t, 0, f.manager.HubCount())
}

func TestServeSSEWritesConnectedThenSnapshot(t *testing.T) {
	f := newFixture(t)

	client, err := f.manager.Join(f.game.ID, "c1")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		ServeSSE(rec, req, client)
	}()

	// The recorder is only safe to read once ServeSSE has returned
	time.Sleep(100 * time.Millisecond)
	cancel()
	<-done

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	connectedAt := strings.Index(body, "event: connected")
	updatedAt := strings.Index(body, "event: game_updated")
	require.GreaterOrEqual(t, connectedAt, 0)
	require.Greater(t, updatedAt, connectedAt)
}
