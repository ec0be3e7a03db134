package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mcoot/towerduel/internal/protocol"
)

const playHelp = `Commands:
  /name <name>   set your display name
  /begin         find an opponent in the lobby
  /play <unit>   play a unit from your hand
  /dmg <amount>  damage your opponent's tower
  /quit          leave
Anything else is sent as chat.`

// errQuit ends a play session without reporting an error
var errQuit = errors.New("quit")

// errUnknownInput is returned for unrecognised slash commands
var errUnknownInput = errors.New("unknown command")

func newPlayCmd() *cobra.Command {
	var name string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "play",
		Short: "Join the lobby over websocket",
		Long: `Connect to the server's websocket endpoint, then read commands from stdin
and print every frame the server sends.

` + playHelp + `

Press Ctrl+C to disconnect.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return play(ctx, cfg.WebSocketURL(), name, jsonOutput, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name to set on connect")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output frames as JSON lines")

	return cmd
}

// PlayEvent is a server frame as printed with --json
type PlayEvent struct {
	Time    time.Time       `json:"time"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

func play(ctx context.Context, url, name string, jsonOutput bool, in io.Reader, out io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("connection failed: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if !jsonOutput {
		fmt.Fprintf(out, "Connected to %s\n%s\n", url, playHelp)
	}

	send := func(t protocol.CommandType, data string) error {
		frame, err := protocol.EncodeCommand(t, data)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, frame)
	}

	if name != "" {
		if err := send(protocol.CmdSetName, name); err != nil {
			return fmt.Errorf("set name: %w", err)
		}
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	g, ctx := errgroup.WithContext(ctx)

	// Server frames
	g.Go(func() error {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					return errQuit
				}
				return fmt.Errorf("stream error: %w", err)
			}
			msg, err := protocol.DecodeMessage(data)
			if err != nil {
				continue
			}
			printFrame(out, msg, jsonOutput)
		}
	})

	// User input
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					_ = send(protocol.CmdDisconnect, "")
					return errQuit
				}
				t, data, err := parseInput(line)
				if errors.Is(err, errUnknownInput) {
					fmt.Fprintln(out, playHelp)
					continue
				}
				if err != nil {
					continue
				}
				if err := send(t, data); err != nil {
					return fmt.Errorf("send %s: %w", t, err)
				}
				if t == protocol.CmdDisconnect {
					return errQuit
				}
			}
		}
	})

	// Unblock the reader once either side stops
	g.Go(func() error {
		<-ctx.Done()
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
		return nil
	})

	err = g.Wait()
	if !jsonOutput {
		fmt.Fprintln(out, "Disconnected")
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

// parseInput turns a line typed by the user into a command. Blank lines
// yield an error so they are skipped.
func parseInput(line string) (protocol.CommandType, string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", "", errors.New("empty input")
	}
	if !strings.HasPrefix(line, "/") {
		return protocol.CmdChat, line, nil
	}

	verb, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	switch verb {
	case "/name":
		return protocol.CmdSetName, arg, nil
	case "/begin":
		return protocol.CmdBeginGame, "", nil
	case "/play":
		return protocol.CmdPlayUnit, arg, nil
	case "/dmg":
		return protocol.CmdDamageTick, arg, nil
	case "/quit":
		return protocol.CmdDisconnect, "", nil
	default:
		return "", "", fmt.Errorf("%w: %s", errUnknownInput, verb)
	}
}

func printFrame(out io.Writer, msg protocol.Message, jsonOutput bool) {
	now := time.Now()

	if jsonOutput {
		data, _ := json.Marshal(PlayEvent{Time: now, Kind: msg.Kind, Payload: msg.Payload})
		fmt.Fprintln(out, string(data))
		return
	}
	fmt.Fprintf(out, "[%s] %s\n", now.Format(time.TimeOnly), describeFrame(msg))
}

// describeFrame renders a server frame for humans
func describeFrame(msg protocol.Message) string {
	switch msg.Kind {
	case protocol.KindChat:
		var line [2]string
		if json.Unmarshal(msg.Payload, &line) == nil {
			return fmt.Sprintf("%s: %s", line[0], line[1])
		}
	case protocol.KindUserJoin, protocol.KindUserLeave, protocol.KindStartGame,
		protocol.KindWin, protocol.KindLose, protocol.KindWinByDisconnect:
		var s string
		if json.Unmarshal(msg.Payload, &s) == nil {
			return describeText(msg.Kind, s)
		}
	case protocol.KindDrawnHand:
		var hand []Unit
		if json.Unmarshal(msg.Payload, &hand) == nil {
			names := make([]string, len(hand))
			for i, u := range hand {
				names[i] = fmt.Sprintf("%s %s (%d)", u.Emoji, u.Name, u.Cost)
			}
			return "Your hand: " + strings.Join(names, ", ")
		}
	case protocol.KindUnitSpawned:
		var isLocal bool
		var unit Unit
		if json.Unmarshal(msg.Payload, &[]any{&isLocal, &unit}) == nil {
			who := "Opponent"
			if isLocal {
				who = "You"
			}
			return fmt.Sprintf("%s played %s %s", who, unit.Emoji, unit.Name)
		}
	case protocol.KindNewTowerHealth:
		var isOpponent bool
		var value int
		if json.Unmarshal(msg.Payload, &[]any{&isOpponent, &value}) == nil {
			whose := "Your"
			if isOpponent {
				whose = "Opponent's"
			}
			return fmt.Sprintf("%s tower: %d", whose, value)
		}
	case protocol.KindError:
		var body protocol.ErrorBody
		if json.Unmarshal(msg.Payload, &body) == nil {
			return fmt.Sprintf("Error: %s (%s)", body.Message, body.Code)
		}
	}
	return fmt.Sprintf("%s: %s", msg.Kind, string(msg.Payload))
}

func describeText(kind, s string) string {
	switch kind {
	case protocol.KindUserJoin:
		return "* " + s + " joined"
	case protocol.KindUserLeave:
		return "* " + s + " left"
	case protocol.KindStartGame:
		return "Battle started against " + s
	case protocol.KindWin:
		return "You won battle " + s
	case protocol.KindLose:
		return "You lost battle " + s
	default:
		return "Opponent disconnected, you won battle " + s
	}
}
