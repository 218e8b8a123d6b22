package round

import (
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mcoot/sandbag/internal/dependencies/mocks"
	"github.com/mcoot/sandbag/internal/model"
	"github.com/mcoot/sandbag/internal/services/scoring"
)

type MachineSuite struct {
	suite.Suite
	clock   *mocks.MockClock
	random  *mocks.MockRandom
	machine *Machine
	game    *model.Game
}

func TestMachineSuite(t *testing.T) {
	suite.Run(t, new(MachineSuite))
}

func (s *MachineSuite) SetupTest() {
	s.clock = mocks.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	s.machine = NewMachine(scoring.New(), NewRandomSelector(s.random), s.clock, mocks.NewMockIDs("round"))
	s.game = &model.Game{
		ID: "game-1",
		Players: []model.Player{
			{ID: "r1", Team: model.TeamRed},
			{ID: "b1", Team: model.TeamBlue},
			{ID: "r2", Team: model.TeamRed},
			{ID: "b2", Team: model.TeamBlue},
		},
		Teams:       model.NewTeams(),
		TargetScore: 500,
		IsActive:    true,
		PlayerBooks: map[model.PlayerID]int{},
	}
	s.machine.AppendRound(s.game, false)
}

func (s *MachineSuite) bidAll(bids map[model.PlayerID]int) {
	for _, p := range s.game.Players {
		s.Require().NoError(s.machine.SubmitBid(s.game, p.ID, bids[p.ID]))
	}
}

func (s *MachineSuite) toPlaying() {
	s.bidAll(map[model.PlayerID]int{"r1": 3, "r2": 3, "b1": 2, "b2": 2})
	round := s.game.CurrentRound()
	s.Require().NoError(s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 6, round.Confirmers[model.TeamIDRed]))
	s.Require().NoError(s.machine.ConfirmTeamBid(s.game, model.TeamIDBlue, 4, round.Confirmers[model.TeamIDBlue]))
	s.Require().Equal(model.PhasePlaying, round.Phase)
}

func (s *MachineSuite) toScoring() {
	s.toPlaying()
	s.Require().NoError(s.machine.FinishRound(s.game))
}

// Bidding tests

func (s *MachineSuite) TestAppendRoundStartsInBidding() {
	round := s.game.CurrentRound()
	s.Require().NotNil(round)
	s.Equal(model.RoundID("round-1"), round.ID)
	s.Equal(1, round.Number)
	s.Equal(model.PhaseBidding, round.Phase)
	s.Empty(round.Bids)
	s.Empty(round.Confirmers)
}

func (s *MachineSuite) TestSubmitBidRecordsAndWaits() {
	s.Require().NoError(s.machine.SubmitBid(s.game, "r1", 4))

	round := s.game.CurrentRound()
	s.Equal(4, round.Bids["r1"])
	s.Equal(model.PhaseBidding, round.Phase)
}

func (s *MachineSuite) TestSubmitBidOverwritesBeforeTransition() {
	s.Require().NoError(s.machine.SubmitBid(s.game, "r1", 4))
	s.Require().NoError(s.machine.SubmitBid(s.game, "r1", 2))

	s.Equal(2, s.game.CurrentRound().Bids["r1"])
	s.Len(s.game.CurrentRound().Bids, 1)
}

func (s *MachineSuite) TestLastBidAssignsConfirmers() {
	// Second red member, first blue member
	s.random.QueueIntn(1, 0)

	s.bidAll(map[model.PlayerID]int{"r1": 3, "r2": 2, "b1": 4, "b2": 1})

	round := s.game.CurrentRound()
	s.Equal(model.PhaseTeamConfirmation, round.Phase)
	s.Equal(model.PlayerID("r2"), round.Confirmers[model.TeamIDRed])
	s.Equal(model.PlayerID("b1"), round.Confirmers[model.TeamIDBlue])
	s.Equal([]int{2, 2}, s.random.Calls)
}

func (s *MachineSuite) TestSubmitBidValidation() {
	s.ErrorIs(s.machine.SubmitBid(s.game, "r1", -1), model.ErrInvalidBid)
	s.ErrorIs(s.machine.SubmitBid(s.game, "r1", 14), model.ErrInvalidBid)
	s.ErrorIs(s.machine.SubmitBid(s.game, "r1", 14), model.ErrValidation)
	s.ErrorIs(s.machine.SubmitBid(s.game, "ghost", 3), model.ErrNotFound)

	s.Require().NoError(s.machine.SubmitBid(s.game, "r1", 0))
	s.Require().NoError(s.machine.SubmitBid(s.game, "r2", 13))
	s.Empty(s.game.CurrentRound().Confirmers)
}

func (s *MachineSuite) TestSubmitBidAfterTransitionFails() {
	s.bidAll(map[model.PlayerID]int{"r1": 3, "r2": 3, "b1": 2, "b2": 2})

	err := s.machine.SubmitBid(s.game, "r1", 5)

	s.ErrorIs(err, model.ErrInvalidPhase)
	s.Equal(3, s.game.CurrentRound().Bids["r1"])
}

func (s *MachineSuite) TestSubmitBidWithoutRound() {
	s.game.Rounds = nil
	s.ErrorIs(s.machine.SubmitBid(s.game, "r1", 3), model.ErrNoActiveRound)
}

func (s *MachineSuite) TestSubmitBidOnInactiveGame() {
	s.game.IsActive = false
	s.ErrorIs(s.machine.SubmitBid(s.game, "r1", 3), model.ErrGameNotActive)
}

// Confirmation tests

func (s *MachineSuite) TestConfirmByNonConfirmerIsUnauthorized() {
	s.bidAll(map[model.PlayerID]int{"r1": 3, "r2": 3, "b1": 2, "b2": 2})
	round := s.game.CurrentRound()
	s.Require().Equal(model.PlayerID("r1"), round.Confirmers[model.TeamIDRed])

	err := s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 6, "r2")

	s.ErrorIs(err, model.ErrUnauthorized)
	s.Empty(round.TeamBids)
	s.Equal(model.PhaseTeamConfirmation, round.Phase)
}

func (s *MachineSuite) TestConfirmUnknownTeam() {
	s.bidAll(map[model.PlayerID]int{})
	s.ErrorIs(s.machine.ConfirmTeamBid(s.game, "green", 3, "r1"), model.ErrNotFound)
}

func (s *MachineSuite) TestConfirmTwiceFails() {
	s.bidAll(map[model.PlayerID]int{})
	s.Require().NoError(s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 6, "r1"))

	err := s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 7, "r1")

	s.ErrorIs(err, model.ErrInvalidPhase)
	s.Equal(6, s.game.CurrentRound().TeamBids[model.TeamIDRed])
}

func (s *MachineSuite) TestConfirmRejectsOutOfRangeBid() {
	s.bidAll(map[model.PlayerID]int{})
	s.ErrorIs(s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 14, "r1"), model.ErrInvalidBid)
}

func (s *MachineSuite) TestBothConfirmationsStartPlay() {
	s.toPlaying()

	round := s.game.CurrentRound()
	s.Equal(6, round.TeamBids[model.TeamIDRed])
	s.Equal(4, round.TeamBids[model.TeamIDBlue])
}

func (s *MachineSuite) TestConfirmDuringBiddingFails() {
	s.ErrorIs(s.machine.ConfirmTeamBid(s.game, model.TeamIDRed, 3, "r1"), model.ErrInvalidPhase)
}

// Finish and books tests

func (s *MachineSuite) TestFinishRound() {
	s.toPlaying()

	s.Require().NoError(s.machine.FinishRound(s.game))
	s.Equal(model.PhaseScoring, s.game.CurrentRound().Phase)

	s.ErrorIs(s.machine.FinishRound(s.game), model.ErrInvalidPhase)
}

func (s *MachineSuite) TestFinishRoundOutsidePlaying() {
	s.ErrorIs(s.machine.FinishRound(s.game), model.ErrInvalidPhase)
}

func (s *MachineSuite) TestSubmitBooksOutsideScoring() {
	s.toPlaying()
	_, err := s.machine.SubmitBooks(s.game, "r1", 3)
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *MachineSuite) TestSubmitBooksValidation() {
	s.toScoring()

	_, err := s.machine.SubmitBooks(s.game, "r1", 14)
	s.ErrorIs(err, model.ErrInvalidBooks)
	_, err = s.machine.SubmitBooks(s.game, "ghost", 1)
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *MachineSuite) TestLastBooksScoresImmediately() {
	s.toScoring()

	books := map[model.PlayerID]int{"r1": 5, "r2": 4, "b1": 2, "b2": 2}
	scoredCount := 0
	for _, p := range s.game.Players {
		scored, err := s.machine.SubmitBooks(s.game, p.ID, books[p.ID])
		s.Require().NoError(err)
		if scored {
			scoredCount++
		}
	}

	round := s.game.CurrentRound()
	s.Equal(1, scoredCount)
	s.Equal(model.PhaseScored, round.Phase)
	s.Equal(63, round.RoundScore[model.TeamIDRed])
	s.Equal(40, round.RoundScore[model.TeamIDBlue])
	s.Equal(63, s.game.GetTeam(model.TeamIDRed).Score)
	s.Equal(3, s.game.GetTeam(model.TeamIDRed).Bags)
	s.Equal(5, s.game.PlayerBooks["r1"])

	_, err := s.machine.SubmitBooks(s.game, "r1", 5)
	s.ErrorIs(err, model.ErrInvalidPhase)
}

func (s *MachineSuite) TestStartNextRound() {
	s.ErrorIs(s.machine.StartNextRound(s.game), model.ErrInvalidPhase)

	s.toScoring()
	for _, p := range s.game.Players {
		_, err := s.machine.SubmitBooks(s.game, p.ID, 3)
		s.Require().NoError(err)
	}
	s.clock.Advance(time.Minute)

	s.Require().NoError(s.machine.StartNextRound(s.game))

	s.Len(s.game.Rounds, 2)
	next := s.game.CurrentRound()
	s.Equal(2, next.Number)
	s.Equal(model.PhaseBidding, next.Phase)
	s.False(next.TieBreaker)
	s.Empty(next.Bids)
	s.Empty(next.Confirmers)
	s.Equal(s.clock.Now(), next.CreatedAt)
	s.Equal(model.PhaseScored, s.game.Rounds[0].Phase)
}

func (s *MachineSuite) TestFirstMemberSelector() {
	s.machine = NewMachine(scoring.New(), FirstMemberSelector, s.clock, mocks.NewMockIDs("round"))
	s.bidAll(map[model.PlayerID]int{})

	round := s.game.CurrentRound()
	s.Equal(model.PlayerID("r1"), round.Confirmers[model.TeamIDRed])
	s.Equal(model.PlayerID("b1"), round.Confirmers[model.TeamIDBlue])
}
