package room

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/sandbag/internal/dependencies/mocks"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/game"
	"github.com/mcoot/sandbag/internal/services/retry"
	"github.com/mcoot/sandbag/internal/services/round"
	"github.com/mcoot/sandbag/internal/services/scoring"
	"github.com/mcoot/sandbag/internal/storage"
	"github.com/mcoot/sandbag/internal/storage/memory"
	"github.com/mcoot/sandbag/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage        *memory.Storage
	gameController *game.Controller
	clock          *mocks.MockClock
	random         *mocks.MockRandom
	controller     *Controller
	ctx            context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	logger := testutil.NopLogger()
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	idGen := mocks.NewMockIDs("id")
	retryConfig := retry.Config{MaxAttempts: 50, InitialInterval: time.Millisecond, MaxInterval: 5 * time.Millisecond}
	machine := round.NewMachine(scoring.New(), round.NewRandomSelector(s.random), s.clock, idGen)
	s.gameController = game.NewController(s.storage, machine, s.clock, idGen, retryConfig, logger)
	s.controller = NewController(s.storage, s.gameController, s.clock, s.random, idGen, retryConfig, logger)
	s.ctx = context.Background()
}

func (s *ControllerSuite) createPlayer(id string, name string) model.Player {
	return model.Player{
		ID:          model.PlayerID(id),
		DisplayName: name,
	}
}

func (s *ControllerSuite) createRoom(code string) *model.Room {
	s.random.QueueString(code)
	room, err := s.controller.CreateRoom(s.ctx, s.createPlayer("host", "Host"))
	s.Require().NoError(err)
	return room
}

func (s *ControllerSuite) fillRoom(code model.RoomCode) {
	for _, id := range []string{"p2", "p3", "p4"} {
		_, err := s.controller.JoinRoom(s.ctx, code, s.createPlayer(id, id))
		s.Require().NoError(err)
	}
}

func (s *ControllerSuite) pair(code model.RoomCode, a, b model.PlayerID) {
	_, err := s.controller.SetPartner(s.ctx, code, a, &b)
	s.Require().NoError(err)
}

// CreateRoom tests

func (s *ControllerSuite) TestCreateRoomSucceeds() {
	room := s.createRoom("ABC123")

	s.Equal(model.RoomCode("ABC123"), room.Code)
	s.Equal(model.PlayerID("host"), room.HostID)
	s.Require().Len(room.Players, 1)
	s.Equal(model.TeamNone, room.Players[0].Team)
	s.Equal(s.clock.Now(), room.Players[0].JoinedAt)
	s.Nil(room.GameID)
}

func (s *ControllerSuite) TestCreateRoomSkipsTakenCode() {
	s.createRoom("ABC123")
	s.random.QueueString("ABC123", "XYZ789")

	room, err := s.controller.CreateRoom(s.ctx, s.createPlayer("other", "Other"))
	s.Require().NoError(err)
	s.Equal(model.RoomCode("XYZ789"), room.Code)
}

func (s *ControllerSuite) TestCreateRoomGeneratesHostID() {
	s.random.QueueString("ABC123")

	room, err := s.controller.CreateRoom(s.ctx, model.Player{DisplayName: "Anon"})
	s.Require().NoError(err)
	s.Equal(model.PlayerID("id-1"), room.HostID)
}

func (s *ControllerSuite) TestGetRoomNotFound() {
	_, err := s.controller.GetRoom(s.ctx, "NOPE00")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// JoinRoom tests

func (s *ControllerSuite) TestJoinRoom() {
	room := s.createRoom("ABC123")

	room, err := s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer("p2", "Bo"))
	s.Require().NoError(err)
	s.Len(room.Players, 2)
	s.NotNil(room.GetPlayer("p2"))
}

func (s *ControllerSuite) TestJoinRoomTwice() {
	room := s.createRoom("ABC123")

	_, err := s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer("host", "Host"))
	s.ErrorIs(err, model.ErrAlreadyInRoom)
}

func (s *ControllerSuite) TestJoinFullRoom() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)

	_, err := s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer("p5", "Late"))
	s.ErrorIs(err, model.ErrRoomFull)
	s.ErrorIs(err, model.ErrValidation)
}

func (s *ControllerSuite) TestConcurrentJoinsRespectCapacity() {
	room := s.createRoom("ABC123")

	var g errgroup.Group
	results := make([]error, 6)
	for i := range results {
		g.Go(func() error {
			_, results[i] = s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer(string(rune('a'+i)), "p"))
			return nil
		})
	}
	s.Require().NoError(g.Wait())

	joined := 0
	for _, err := range results {
		if err == nil {
			joined++
		} else {
			s.ErrorIs(err, model.ErrRoomFull)
		}
	}
	s.Equal(3, joined)

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Len(stored.Players, model.MaxRoomPlayers)
}

// LeaveRoom tests

func (s *ControllerSuite) TestLeaveRoomTransfersHost() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, room.Code, "host"))

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), stored.HostID)
	s.Len(stored.Players, 3)
}

func (s *ControllerSuite) TestLeaveRoomClearsPartner() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)
	s.pair(room.Code, "host", "p3")

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, room.Code, "p3"))

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Nil(stored.GetPlayer("host").PartnerID)
}

func (s *ControllerSuite) TestLastPlayerLeavingDeletesRoom() {
	room := s.createRoom("ABC123")

	s.Require().NoError(s.controller.LeaveRoom(s.ctx, room.Code, "host"))

	_, err := s.controller.GetRoom(s.ctx, room.Code)
	s.ErrorIs(err, model.ErrRoomNotFound)
}

// joinBeforeDelete runs join ahead of every DeleteRoom it forwards
type joinBeforeDelete struct {
	storage.Storage
	join func()
}

func (j *joinBeforeDelete) DeleteRoom(ctx context.Context, code model.RoomCode, version int64) error {
	j.join()
	return j.Storage.DeleteRoom(ctx, code, version)
}

func (s *ControllerSuite) TestJoinDuringLastLeaveKeepsRoom() {
	room := s.createRoom("ABC123")

	var joinErr error
	racing := &joinBeforeDelete{
		Storage: s.storage,
		join: func() {
			_, joinErr = s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer("late", "Late"))
		},
	}
	retryConfig := retry.Config{MaxAttempts: 5, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	leaving := NewController(racing, s.gameController, s.clock, s.random, mocks.NewMockIDs("leave"), retryConfig, testutil.NopLogger())

	s.Require().NoError(leaving.LeaveRoom(s.ctx, room.Code, "host"))
	s.Require().NoError(joinErr)

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Require().Len(stored.Players, 1)
	s.Equal(model.PlayerID("late"), stored.Players[0].ID)
}

func (s *ControllerSuite) TestLeaveRoomNotMember() {
	room := s.createRoom("ABC123")
	s.ErrorIs(s.controller.LeaveRoom(s.ctx, room.Code, "ghost"), model.ErrNotInRoom)
}

// SetPartner tests

func (s *ControllerSuite) TestSetPartnerIsMutual() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)

	s.pair(room.Code, "host", "p2")

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p2"), *stored.GetPlayer("host").PartnerID)
	s.Equal(model.PlayerID("host"), *stored.GetPlayer("p2").PartnerID)
}

func (s *ControllerSuite) TestRepairingBreaksOldPairs() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)
	s.pair(room.Code, "host", "p2")
	s.pair(room.Code, "p3", "p4")

	s.pair(room.Code, "host", "p3")

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p3"), *stored.GetPlayer("host").PartnerID)
	s.Equal(model.PlayerID("host"), *stored.GetPlayer("p3").PartnerID)
	s.Nil(stored.GetPlayer("p2").PartnerID)
	s.Nil(stored.GetPlayer("p4").PartnerID)
}

func (s *ControllerSuite) TestClearPartner() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)
	s.pair(room.Code, "host", "p2")

	stored, err := s.controller.SetPartner(s.ctx, room.Code, "p2", nil)
	s.Require().NoError(err)
	s.Nil(stored.GetPlayer("host").PartnerID)
	s.Nil(stored.GetPlayer("p2").PartnerID)
}

func (s *ControllerSuite) TestSetPartnerErrors() {
	room := s.createRoom("ABC123")
	self := model.PlayerID("host")
	ghost := model.PlayerID("ghost")

	_, err := s.controller.SetPartner(s.ctx, room.Code, "host", &self)
	s.ErrorIs(err, model.ErrSelfPartner)

	_, err = s.controller.SetPartner(s.ctx, room.Code, "host", &ghost)
	s.ErrorIs(err, model.ErrNotInRoom)

	_, err = s.controller.SetPartner(s.ctx, room.Code, "ghost", nil)
	s.ErrorIs(err, model.ErrNotInRoom)
}

// PromoteToGame tests

func (s *ControllerSuite) TestPromoteSeatsPartnersOnTeams() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)
	s.pair(room.Code, "host", "p3")
	s.pair(room.Code, "p2", "p4")

	g, err := s.controller.PromoteToGame(s.ctx, room.Code, "host", 0)
	s.Require().NoError(err)

	s.Equal(model.DefaultTargetScore, g.TargetScore)
	s.Equal(room.Code, g.RoomCode)
	s.Equal([]model.PlayerID{"host", "p3"}, g.TeamMembers(model.TeamIDRed))
	s.Equal([]model.PlayerID{"p2", "p4"}, g.TeamMembers(model.TeamIDBlue))

	stored, err := s.controller.GetRoom(s.ctx, room.Code)
	s.Require().NoError(err)
	s.Require().NotNil(stored.GameID)
	s.Equal(g.ID, *stored.GameID)

	// The promoted game starts without further assignment
	_, err = s.gameController.StartGame(s.ctx, g.ID)
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestPromoteRequiresHost() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)

	_, err := s.controller.PromoteToGame(s.ctx, room.Code, "p2", 500)
	s.ErrorIs(err, model.ErrUnauthorized)
}

func (s *ControllerSuite) TestPromoteTwice() {
	room := s.createRoom("ABC123")
	s.fillRoom(room.Code)

	_, err := s.controller.PromoteToGame(s.ctx, room.Code, "host", 300)
	s.Require().NoError(err)

	_, err = s.controller.PromoteToGame(s.ctx, room.Code, "host", 300)
	s.ErrorIs(err, model.ErrRoomHasGame)

	_, err = s.controller.JoinRoom(s.ctx, room.Code, s.createPlayer("p5", "Late"))
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *ControllerSuite) TestPromoteAloneFails() {
	room := s.createRoom("ABC123")

	_, err := s.controller.PromoteToGame(s.ctx, room.Code, "host", 500)
	s.ErrorIs(err, model.ErrInvalidPlayerCount)
}

func (s *ControllerSuite) TestSeatPartnersLeavesUnpairedUnassigned() {
	a, b := model.PlayerID("a"), model.PlayerID("b")
	players := []model.Player{
		{ID: "a", PartnerID: &b},
		{ID: "c"},
		{ID: "b", PartnerID: &a},
	}

	seated := SeatPartners(players)

	s.Equal(model.TeamRed, seated[0].Team)
	s.Equal(model.TeamNone, seated[1].Team)
	s.Equal(model.TeamRed, seated[2].Team)
	s.Equal(model.TeamAssignment(""), players[0].Team)
}
