package request

// JoinRoomRequest is the request body for creating or joining a room
type JoinRoomRequest struct {
	DisplayName string `json:"display_name"`
}

// SetPartnerRequest is the request body for pairing with another room member.
// A null partner clears the pairing.
type SetPartnerRequest struct {
	PartnerID *string `json:"partner_id"`
}

// PromoteRoomRequest is the request body for turning a room into a game
type PromoteRoomRequest struct {
	TargetScore int `json:"target_score,omitempty"`
}

// GamePlayer is one seat in a CreateGameRequest
type GamePlayer struct {
	ID          string `json:"id,omitempty"`
	DisplayName string `json:"display_name"`
	Team        string `json:"team,omitempty"`
}

// CreateGameRequest is the request body for creating a game directly
type CreateGameRequest struct {
	RoomCode    string       `json:"room_code,omitempty"`
	Players     []GamePlayer `json:"players"`
	TargetScore int          `json:"target_score,omitempty"`
}

// AssignTeamRequest is the request body for moving a player between teams
type AssignTeamRequest struct {
	PlayerID string `json:"player_id"`
	Team     string `json:"team"`
}

// BidRequest is the request body for an individual bid
type BidRequest struct {
	Bid *int `json:"bid"`
}

// TeamBidRequest is the request body for confirming a team's combined bid
type TeamBidRequest struct {
	TeamID string `json:"team_id"`
	Bid    *int   `json:"bid"`
}

// BooksRequest is the request body for reporting books won
type BooksRequest struct {
	Books *int `json:"books"`
}

// EndGameRequest is the request body for force-ending a game
type EndGameRequest struct {
	WinnerTeamID string `json:"winner_team_id"`
}
