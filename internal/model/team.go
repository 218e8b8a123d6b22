package model

// TeamID identifies one of the two partnerships
type TeamID string

const (
	TeamIDRed  TeamID = "red"
	TeamIDBlue TeamID = "blue"
)

// AllTeams lists the teams of a game in a stable order
var AllTeams = []TeamID{TeamIDRed, TeamIDBlue}

// Valid reports whether the id names a known team
func (t TeamID) Valid() bool {
	return t == TeamIDRed || t == TeamIDBlue
}

// Opponent returns the other team
func (t TeamID) Opponent() TeamID {
	if t == TeamIDRed {
		return TeamIDBlue
	}
	return TeamIDRed
}

// Assignment returns the player-side team value for this team
func (t TeamID) Assignment() TeamAssignment {
	return TeamAssignment(t)
}

// BagPenaltyThreshold is the accumulated bag count that triggers a penalty
const BagPenaltyThreshold = 10

// BagPenalty is subtracted from a team's score when its bags reach the threshold
const BagPenalty = 100

// Team holds a partnership's running score.
// Members are derived from Player.Team and never stored here.
type Team struct {
	ID    TeamID `json:"id"`
	Score int    `json:"score"`
	Bags  int    `json:"bags"`
}

// NewTeams returns fresh red and blue teams with zero score and bags
func NewTeams() []Team {
	teams := make([]Team, len(AllTeams))
	for i, id := range AllTeams {
		teams[i] = Team{ID: id}
	}
	return teams
}
