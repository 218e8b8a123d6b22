package cli

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mcoot/sandbag/internal/api/request"
	"github.com/mcoot/sandbag/internal/api/response"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameAssignCmd())
	cmd.AddCommand(newGameDeleteCmd())
	cmd.AddCommand(newGameBidCmd())
	cmd.AddCommand(newGameConfirmCmd())
	cmd.AddCommand(newGameBooksCmd())
	cmd.AddCommand(newGameEndCmd())

	cmd.AddCommand(gameActionCmd("start <id>", "Start the first round", "start"))
	cmd.AddCommand(gameActionCmd("finish <id>", "Finish play and move to book reporting", "finish-round"))
	cmd.AddCommand(gameActionCmd("next <id>", "Start the next round after scoring", "rounds"))
	cmd.AddCommand(gameActionCmd("forfeit <id>", "Forfeit the game for your team", "forfeit"))

	return cmd
}

func gamePath(id string, parts ...string) string {
	path := "/api/v1/games/" + url.PathEscape(id)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// postGame sends a game command and prints the resulting snapshot
func postGame(cmd *cobra.Command, path string, body any) error {
	var result response.Game
	if err := client.Post(path, body, &result); err != nil {
		return err
	}

	NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
	return nil
}

// gameActionCmd builds a command that posts to a body-less game endpoint
func gameActionCmd(use, short, endpoint string) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postGame(cmd, gamePath(args[0], endpoint), nil)
		},
	}
}

func parseCount(name, value string) (int, error) {
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return n, nil
}

// parseSeat parses "<player-id>[:<team>]"
func parseSeat(seat string) (request.GamePlayer, error) {
	id, team, _ := strings.Cut(seat, ":")
	if id == "" {
		return request.GamePlayer{}, fmt.Errorf("invalid seat %q: player id is required", seat)
	}
	return request.GamePlayer{ID: id, DisplayName: id, Team: team}, nil
}

func newGameCreateCmd() *cobra.Command {
	var seats []string
	var target int
	var roomCode string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a game directly from a list of seats",
		Example: `  sandbag game create --seat alice:red --seat bob:red --seat carol:blue --seat dave:blue
  sandbag game create --seat alice --seat bob --target 300`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.CreateGameRequest{RoomCode: roomCode, TargetScore: target}
			for _, s := range seats {
				p, err := parseSeat(s)
				if err != nil {
					return err
				}
				req.Players = append(req.Players, p)
			}

			var result response.Game
			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&seats, "seat", nil, "Seat as <player-id>[:<team>], repeatable")
	cmd.Flags().IntVar(&target, "target", 0, "Target score (default: server default)")
	cmd.Flags().StringVar(&roomCode, "room", "", "Room code to associate with the game")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Get the current game state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game
			if err := client.Get(gamePath(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newGameAssignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assign <id> <player-id> <team>",
		Short: "Move a player onto red, blue or none",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			req := request.AssignTeamRequest{PlayerID: args[1], Team: args[2]}
			return postGame(cmd, gamePath(args[0], "teams"), req)
		},
	}
}

func newGameDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Delete(gamePath(args[0])); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Game deleted")
			return nil
		},
	}
}

func newGameBidCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bid <id> <books>",
		Short: "Submit your individual bid for the current round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bid, err := parseCount("bid", args[1])
			if err != nil {
				return err
			}
			return postGame(cmd, gamePath(args[0], "bids"), request.BidRequest{Bid: &bid})
		},
	}
}

func newGameConfirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id> <team> <books>",
		Short: "Confirm your team's combined bid (confirmer only)",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			bid, err := parseCount("bid", args[2])
			if err != nil {
				return err
			}
			req := request.TeamBidRequest{TeamID: args[1], Bid: &bid}
			return postGame(cmd, gamePath(args[0], "team-bids"), req)
		},
	}
}

func newGameBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "books <id> <books>",
		Short: "Report how many books you won this round",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			books, err := parseCount("books", args[1])
			if err != nil {
				return err
			}
			return postGame(cmd, gamePath(args[0], "books"), request.BooksRequest{Books: &books})
		},
	}
}

func newGameEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <id> <winner-team>",
		Short: "End the game and declare a winner",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return postGame(cmd, gamePath(args[0], "end"), request.EndGameRequest{WinnerTeamID: args[1]})
		},
	}
}
