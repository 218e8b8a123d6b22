// Package storagetest holds the behaviour every storage backend must share.
package storagetest

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/storage"
)

// ConformanceSuite runs against any storage.Storage. Backends embed it and
// set NewStorage in their SetupTest.
type ConformanceSuite struct {
	suite.Suite
	NewStorage func() storage.Storage

	Storage storage.Storage
	Ctx     context.Context
}

func (s *ConformanceSuite) SetupTest() {
	s.Require().NotNil(s.NewStorage, "NewStorage must be set")
	s.Storage = s.NewStorage()
	s.Ctx = context.Background()
}

func (s *ConformanceSuite) newGame(id model.GameID) *model.Game {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &model.Game{
		ID:       id,
		RoomCode: "ROOM01",
		Players: []model.Player{
			{ID: "p1", DisplayName: "Ann", Team: model.TeamRed, JoinedAt: now},
			{ID: "p2", DisplayName: "Bo", Team: model.TeamBlue, JoinedAt: now},
		},
		Teams:       model.NewTeams(),
		TargetScore: 500,
		PlayerBooks: map[model.PlayerID]int{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func (s *ConformanceSuite) receive(sub storage.Subscription) *model.Game {
	select {
	case u, ok := <-sub.Updates():
		s.Require().True(ok, "subscription closed")
		s.Require().NoError(u.Err)
		return u.Game
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for update")
		return nil
	}
}

func (s *ConformanceSuite) awaitClosed(sub storage.Subscription) {
	timeout := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-sub.Updates():
			if !ok {
				return
			}
		case <-timeout:
			s.FailNow("subscription was not closed")
		}
	}
}

// Game tests

func (s *ConformanceSuite) TestCreateAndGetGame() {
	game := s.newGame("game-1")

	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))
	s.Equal(int64(1), game.Version)

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game, retrieved)
}

func (s *ConformanceSuite) TestCreateGameTwiceConflicts() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	err := s.Storage.CreateGame(s.Ctx, s.newGame("game-1"))
	s.ErrorIs(err, model.ErrGameExists)
	s.ErrorIs(err, model.ErrConflict)
}

func (s *ConformanceSuite) TestGetGameNotFound() {
	_, err := s.Storage.GetGame(s.Ctx, "missing")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ConformanceSuite) TestSaveGameBumpsVersion() {
	game := s.newGame("game-1")
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))

	game.IsActive = true
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))
	s.Equal(int64(2), game.Version)

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.True(retrieved.IsActive)
	s.Equal(int64(2), retrieved.Version)
}

func (s *ConformanceSuite) TestSaveGameStaleVersionConflicts() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	first, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	second, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)

	first.TargetScore = 300
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, first))

	second.TargetScore = 700
	err = s.Storage.SaveGame(s.Ctx, second)
	s.ErrorIs(err, model.ErrVersionConflict)
	s.Equal(int64(1), second.Version)

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(300, retrieved.TargetScore)
}

func (s *ConformanceSuite) TestSaveMissingGame() {
	err := s.Storage.SaveGame(s.Ctx, s.newGame("missing"))
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ConformanceSuite) TestConcurrentSavesOnlyOneWins() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	const writers = 8
	results := make([]error, writers)
	var g errgroup.Group
	for i := 0; i < writers; i++ {
		g.Go(func() error {
			game, err := s.Storage.GetGame(s.Ctx, "game-1")
			if err != nil {
				return err
			}
			if game.Version != 1 {
				// Another writer already landed; the read is valid but late
				results[i] = model.ErrVersionConflict
				return nil
			}
			game.TargetScore = 100 + i
			results[i] = s.Storage.SaveGame(s.Ctx, game)
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			s.ErrorIs(err, model.ErrVersionConflict)
		}
	}
	s.Equal(1, wins)

	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(int64(2), retrieved.Version)
}

func (s *ConformanceSuite) TestDeleteGame() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	s.Require().NoError(s.Storage.DeleteGame(s.Ctx, "game-1"))

	_, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ConformanceSuite) TestReturnedGamesAreIsolated() {
	game := s.newGame("game-1")
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))

	game.Players[0].DisplayName = "changed"
	retrieved, err := s.Storage.GetGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	s.Equal("Ann", retrieved.Players[0].DisplayName)
}

// Subscription tests

func (s *ConformanceSuite) TestSubscribeReceivesWrites() {
	game := s.newGame("game-1")
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, game))

	sub, err := s.Storage.SubscribeGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	defer sub.Close()

	game.IsActive = true
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))
	game.TargetScore = 250
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, game))

	first := s.receive(sub)
	s.Equal(int64(2), first.Version)
	s.True(first.IsActive)

	second := s.receive(sub)
	s.Equal(int64(3), second.Version)
	s.Equal(250, second.TargetScore)
}

func (s *ConformanceSuite) TestSubscriptionIgnoresOtherGames() {
	other := s.newGame("game-2")
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, other))

	sub, err := s.Storage.SubscribeGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	defer sub.Close()

	other.IsActive = true
	s.Require().NoError(s.Storage.SaveGame(s.Ctx, other))

	select {
	case u := <-sub.Updates():
		s.Failf("unexpected update", "%+v", u)
	case <-time.After(100 * time.Millisecond):
	}
}

func (s *ConformanceSuite) TestCloseEndsSubscription() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	sub, err := s.Storage.SubscribeGame(s.Ctx, "game-1")
	s.Require().NoError(err)

	s.Require().NoError(sub.Close())
	s.Require().NoError(sub.Close())

	s.awaitClosed(sub)
}

func (s *ConformanceSuite) TestDeleteGameEndsSubscription() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	sub, err := s.Storage.SubscribeGame(s.Ctx, "game-1")
	s.Require().NoError(err)
	defer sub.Close()

	s.Require().NoError(s.Storage.DeleteGame(s.Ctx, "game-1"))

	s.awaitClosed(sub)
	s.Require().NoError(sub.Close())
}

func (s *ConformanceSuite) TestContextCancelEndsSubscription() {
	s.Require().NoError(s.Storage.CreateGame(s.Ctx, s.newGame("game-1")))

	ctx, cancel := context.WithCancel(s.Ctx)
	sub, err := s.Storage.SubscribeGame(ctx, "game-1")
	s.Require().NoError(err)

	cancel()

	s.awaitClosed(sub)
}

// Room tests

func (s *ConformanceSuite) newRoom(code model.RoomCode) *model.Room {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return &model.Room{
		Code:      code,
		HostID:    "p1",
		Players:   []model.Player{{ID: "p1", DisplayName: "Ann", Team: model.TeamNone, JoinedAt: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *ConformanceSuite) TestCreateAndGetRoom() {
	room := s.newRoom("ABC123")
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, room))
	s.Equal(int64(1), room.Version)

	retrieved, err := s.Storage.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(room, retrieved)

	exists, err := s.Storage.RoomExists(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *ConformanceSuite) TestCreateRoomTwiceConflicts() {
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, s.newRoom("ABC123")))
	s.ErrorIs(s.Storage.CreateRoom(s.Ctx, s.newRoom("ABC123")), model.ErrRoomExists)
}

func (s *ConformanceSuite) TestSaveRoomStaleVersionConflicts() {
	room := s.newRoom("ABC123")
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, room))

	stale := *room
	room.HostID = "p2"
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	s.ErrorIs(s.Storage.SaveRoom(s.Ctx, &stale), model.ErrVersionConflict)
}

func (s *ConformanceSuite) TestRoomNotFound() {
	_, err := s.Storage.GetRoom(s.Ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)

	exists, err := s.Storage.RoomExists(s.Ctx, "NOPE00")
	s.Require().NoError(err)
	s.False(exists)
}

func (s *ConformanceSuite) TestDeleteRoom() {
	room := s.newRoom("ABC123")
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, room))
	s.Require().NoError(s.Storage.DeleteRoom(s.Ctx, "ABC123", room.Version))

	_, err := s.Storage.GetRoom(s.Ctx, "ABC123")
	s.ErrorIs(err, model.ErrRoomNotFound)

	s.NoError(s.Storage.DeleteRoom(s.Ctx, "ABC123", room.Version))
}

func (s *ConformanceSuite) TestDeleteRoomStaleVersion() {
	room := s.newRoom("ABC123")
	s.Require().NoError(s.Storage.CreateRoom(s.Ctx, room))
	stale := room.Version

	room.HostID = "p2"
	s.Require().NoError(s.Storage.SaveRoom(s.Ctx, room))

	s.ErrorIs(s.Storage.DeleteRoom(s.Ctx, "ABC123", stale), model.ErrVersionConflict)

	retrieved, err := s.Storage.GetRoom(s.Ctx, "ABC123")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), retrieved.HostID)
}
