package cli

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"

	"github.com/mcoot/sandbag/internal/api/request"
	"github.com/mcoot/sandbag/internal/api/response"
)

func newRoomCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "room",
		Short: "Room management commands",
	}

	cmd.AddCommand(newRoomCreateCmd())
	cmd.AddCommand(newRoomGetCmd())
	cmd.AddCommand(newRoomJoinCmd())
	cmd.AddCommand(newRoomLeaveCmd())
	cmd.AddCommand(newRoomPartnerCmd())
	cmd.AddCommand(newRoomPromoteCmd())

	return cmd
}

func roomPath(code string, parts ...string) string {
	path := "/api/v1/rooms/" + url.PathEscape(code)
	for _, p := range parts {
		path += "/" + p
	}
	return path
}

// rememberJoin saves the identity the server handed back
func rememberJoin(result response.JoinRoomResponse) error {
	if err := cfg.SaveIdentity(Identity{PlayerID: result.PlayerID, RoomCode: result.Room.Code}); err != nil {
		return fmt.Errorf("failed to save identity: %w", err)
	}
	client.SetPlayerID(result.PlayerID)
	return nil
}

func newRoomCreateCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new room and become its host",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.JoinRoomResponse
			if err := client.Post("/api/v1/rooms", request.JoinRoomRequest{DisplayName: name}, &result); err != nil {
				return err
			}
			if err := rememberJoin(result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func newRoomGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <code>",
		Short: "Get room details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Room
			if err := client.Get(roomPath(args[0]), &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomJoinCmd() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "join <code>",
		Short: "Join a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.JoinRoomResponse
			if err := client.Post(roomPath(args[0], "join"), request.JoinRoomRequest{DisplayName: name}, &result); err != nil {
				return err
			}
			if err := rememberJoin(result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")

	return cmd
}

func newRoomLeaveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leave <code>",
		Short: "Leave a room",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := client.Post(roomPath(args[0], "leave"), nil, nil); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).PrintMessage("Left room " + args[0])
			return nil
		},
	}
}

func newRoomPartnerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "partner <code> [partner-id]",
		Short: "Pair with another room member, or clear your pairing",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var req request.SetPartnerRequest
			if len(args) == 2 {
				req.PartnerID = &args[1]
			}

			var result response.Room
			if err := client.Post(roomPath(args[0], "partner"), req, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}
}

func newRoomPromoteCmd() *cobra.Command {
	var target int

	cmd := &cobra.Command{
		Use:   "promote <code>",
		Short: "Turn a full room into a game (host only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var result response.Game
			if err := client.Post(roomPath(args[0], "game"), request.PromoteRoomRequest{TargetScore: target}, &result); err != nil {
				return err
			}

			NewOutput(cfg.Output, cmd.OutOrStdout()).Print(result)
			return nil
		},
	}

	cmd.Flags().IntVar(&target, "target", 0, "Target score (default: server default)")

	return cmd
}
