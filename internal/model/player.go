package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// TeamAssignment is the team a player has been placed on, or none
type TeamAssignment string

const (
	TeamNone TeamAssignment = "none"
	TeamRed  TeamAssignment = "red"
	TeamBlue TeamAssignment = "blue"
)

// Valid reports whether the assignment is one of the known values
func (t TeamAssignment) Valid() bool {
	switch t {
	case TeamNone, TeamRed, TeamBlue:
		return true
	}
	return false
}

// TeamID returns the team this assignment refers to and false for none
func (t TeamAssignment) TeamID() (TeamID, bool) {
	switch t {
	case TeamRed:
		return TeamIDRed, true
	case TeamBlue:
		return TeamIDBlue, true
	}
	return "", false
}

// Player represents a game participant.
// Team is the only record of team membership.
type Player struct {
	ID          PlayerID       `json:"id"`
	DisplayName string         `json:"display_name"`
	Team        TeamAssignment `json:"team"`
	PartnerID   *PlayerID      `json:"partner_id,omitempty"`
	JoinedAt    time.Time      `json:"joined_at"`
}

// OnTeam reports whether the player is assigned to the given team
func (p *Player) OnTeam(team TeamID) bool {
	id, ok := p.Team.TeamID()
	return ok && id == team
}

func (p Player) clone() Player {
	if p.PartnerID != nil {
		partner := *p.PartnerID
		p.PartnerID = &partner
	}
	return p
}
