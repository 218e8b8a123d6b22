package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/mcoot/sandbag/internal/api/response"
	"github.com/mcoot/sandbag/internal/model"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		o.printJSON(map[string]string{"message": msg})
	} else {
		fmt.Fprintln(o.w, msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.JoinRoomResponse:
		fmt.Fprintf(o.w, "You are: %s\n", v.PlayerID)
		o.printRoom(v.Room)
	case response.Room:
		o.printRoom(v)
	case response.Game:
		o.printGame(v)
	case response.Health:
		fmt.Fprintf(o.w, "Status: %s\n", v.Status)
		fmt.Fprintf(o.w, "Storage: %s\n", v.Storage)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

func (o *Output) printRoom(r response.Room) {
	fmt.Fprintf(o.w, "Room: %s\n", r.Code)
	if r.GameID != nil {
		fmt.Fprintf(o.w, "Game: %s\n", *r.GameID)
	}
	fmt.Fprintf(o.w, "Players (%d/4):\n", len(r.Players))
	for _, p := range r.Players {
		extra := ""
		if p.ID == r.HostID {
			extra += " [host]"
		}
		if p.PartnerID != nil {
			extra += " partner=" + *p.PartnerID
		}
		fmt.Fprintf(o.w, "  - %s (%s)%s\n", p.DisplayName, p.ID, extra)
	}
}

func (o *Output) printGame(g response.Game) {
	fmt.Fprintf(o.w, "Game: %s\n", g.ID)
	if g.CurrentRound != nil {
		fmt.Fprintf(o.w, "Round: %d (%s)\n", *g.CurrentRound, g.Phase)
	} else {
		fmt.Fprintln(o.w, "Round: not started")
	}
	fmt.Fprintf(o.w, "Target: %d\n", g.TargetScore)

	for _, t := range g.Teams {
		fmt.Fprintf(o.w, "Team %s: %d points, %d bags\n", t.ID, t.Score, t.Bags)
		for _, p := range g.Players {
			if p.Team == t.ID {
				fmt.Fprintf(o.w, "  - %s (%s)\n", p.DisplayName, p.ID)
			}
		}
	}

	var unassigned []string
	for _, p := range g.Players {
		if p.Team == "" || p.Team == string(model.TeamNone) {
			unassigned = append(unassigned, p.ID)
		}
	}
	if len(unassigned) > 0 {
		fmt.Fprintf(o.w, "Unassigned: %s\n", strings.Join(unassigned, ", "))
	}

	if len(g.Rounds) > 0 {
		r := g.Rounds[len(g.Rounds)-1]
		o.printCounts("Bids", r.Bids)
		o.printCounts("Team bids", r.TeamBids)
		o.printCounts("Books", r.BooksWon)
		o.printCounts("Round score", r.RoundScore)
	}

	switch {
	case g.WinnerTeamID != nil:
		fmt.Fprintf(o.w, "Winner: %s\n", *g.WinnerTeamID)
	case !g.IsActive:
		fmt.Fprintln(o.w, "Game over")
	}
}

func (o *Output) printCounts(label string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%d", k, counts[k])
	}
	fmt.Fprintf(o.w, "%s: %s\n", label, strings.Join(parts, " "))
}
