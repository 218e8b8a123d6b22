package round

import (
	"github.com/mcoot/sandbag/internal/dependencies/random"
	"github.com/mcoot/sandbag/internal/model"
)

// ConfirmerSelector picks which member of a team confirms its combined bid
type ConfirmerSelector interface {
	SelectConfirmer(team model.TeamID, members []model.PlayerID) model.PlayerID
}

// SelectorFunc adapts a function to ConfirmerSelector
type SelectorFunc func(team model.TeamID, members []model.PlayerID) model.PlayerID

// SelectConfirmer calls f
func (f SelectorFunc) SelectConfirmer(team model.TeamID, members []model.PlayerID) model.PlayerID {
	return f(team, members)
}

// RandomSelector chooses uniformly among team members
type RandomSelector struct {
	random random.Random
}

// NewRandomSelector creates a RandomSelector drawing from r
func NewRandomSelector(r random.Random) *RandomSelector {
	return &RandomSelector{random: r}
}

// SelectConfirmer returns a uniformly chosen member
func (s *RandomSelector) SelectConfirmer(_ model.TeamID, members []model.PlayerID) model.PlayerID {
	return random.Pick(s.random, members)
}

// FirstMemberSelector always picks the first member in player order
var FirstMemberSelector = SelectorFunc(func(_ model.TeamID, members []model.PlayerID) model.PlayerID {
	if len(members) == 0 {
		return ""
	}
	return members[0]
})
