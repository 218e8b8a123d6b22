package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/sandbag/internal/api/sse"
	"github.com/mcoot/sandbag/internal/dependencies/mocks"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/services/scoring"
	"github.com/mcoot/sandbag/internal/storage/memory"
	"github.com/mcoot/sandbag/internal/testutil"
)

func TestServeStreamsSnapshots(t *testing.T) {
	ctx := context.Background()
	clock := mocks.NewMockClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	idGen := mocks.NewMockIDs("id")
	machine := round.NewMachine(scoring.New(), round.FirstMemberSelector, clock, idGen)
	controller := game.NewController(memory.New(), machine, clock, idGen, retry.DefaultConfig(), testutil.NopLogger())
	manager := sse.NewHubManager(controller, clock, testutil.NopLogger())
	defer manager.Close()

	g, err := controller.CreateGame(ctx, "", []model.Player{{ID: "r1"}, {ID: "b1"}}, nil, 500)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client, err := manager.Join(g.ID, r.RemoteAddr)
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		defer manager.Leave(client)
		Serve(w, r, client, testutil.NopLogger())
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	var connected model.Event
	require.NoError(t, conn.ReadJSON(&connected))
	assert.Equal(t, model.EventConnected, connected.Type)
	assert.Equal(t, g.ID, connected.GameID)

	var initial model.Event
	require.NoError(t, conn.ReadJSON(&initial))
	assert.Equal(t, model.EventGameUpdated, initial.Type)
	assert.Equal(t, int64(1), initial.Version)

	_, err = controller.AssignPlayerToTeam(ctx, g.ID, "b1", model.TeamBlue)
	require.NoError(t, err)

	var update model.Event
	require.NoError(t, conn.ReadJSON(&update))
	assert.Equal(t, int64(2), update.Version)
	require.NotNil(t, update.Game)
	assert.Equal(t, model.TeamBlue, update.Game.GetPlayer("b1").Team)
}
