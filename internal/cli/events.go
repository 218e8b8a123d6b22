package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mcoot/sandbag/internal/model"
)

// maxEventSize bounds a single SSE data payload
const maxEventSize = 1 << 20

func newEventsCmd() *cobra.Command {
	var jsonOutput bool
	var limit int

	cmd := &cobra.Command{
		Use:   "events <game-id>",
		Short: "Stream SSE events from a game",
		Long: `Connect to the game's SSE endpoint and stream events in real-time.

Events include:
  - connected: The stream is attached
  - game_updated: A new game snapshot was committed
  - stream_error: The server lost its change feed

Press Ctrl+C to disconnect.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return streamEvents(ctx, cmd.OutOrStdout(), args[0], jsonOutput, limit)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output events as JSON lines")
	cmd.Flags().IntVar(&limit, "limit", 0, "Disconnect after this many game updates (0 streams forever)")

	return cmd
}

func streamEvents(ctx context.Context, w io.Writer, gameID string, jsonOutput bool, limit int) error {
	body, err := client.Stream(ctx, gamePath(gameID, "events"))
	if err != nil {
		return err
	}
	defer func() { _ = body.Close() }()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var currentEvent string
	var dataLines []string
	updates := 0

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.HasPrefix(line, "event: "):
			currentEvent = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			dataLines = append(dataLines, strings.TrimPrefix(line, "data: "))
		case line == "":
			if currentEvent != "" {
				printEvent(w, currentEvent, strings.Join(dataLines, "\n"), jsonOutput)
				if currentEvent == string(model.EventGameUpdated) {
					updates++
				}
			}
			currentEvent = ""
			dataLines = nil
			if limit > 0 && updates >= limit {
				return nil
			}
		}
	}

	if err := scanner.Err(); err != nil {
		// Interrupts cancel the request body mid-read
		if ctx.Err() != nil {
			if !jsonOutput {
				fmt.Fprintln(w, "\nDisconnected")
			}
			return nil
		}
		return fmt.Errorf("stream error: %w", err)
	}

	if !jsonOutput {
		fmt.Fprintln(w, "Disconnected")
	}
	return nil
}

func printEvent(w io.Writer, name, data string, jsonOutput bool) {
	if jsonOutput {
		// data is already a JSON event
		fmt.Fprintln(w, data)
		return
	}

	var event model.Event
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		fmt.Fprintf(w, "[%s] %s: %s\n", time.Now().Format(time.DateTime), name, data)
		return
	}

	timestamp := event.Timestamp.Local().Format(time.DateTime)
	switch {
	case event.Game != nil:
		phase := "not started"
		if r := event.Game.CurrentRound(); r != nil {
			phase = fmt.Sprintf("round %d %s", r.Number, r.Phase)
		}
		fmt.Fprintf(w, "[%s] %s: version %d, %s\n", timestamp, name, event.Version, phase)
	case event.Message != "":
		fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, name, event.Message)
	default:
		fmt.Fprintf(w, "[%s] %s: %s\n", timestamp, name, event.GameID)
	}
}
