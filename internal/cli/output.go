package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to stdout
func NewOutput(format string) *Output {
	return &Output{format: format, w: os.Stdout}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Fprintln(o.w, string(data))
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
	case HealthResult:
		o.printHealthResult(v)
	case Catalog:
		o.printCatalog(v)
	case Status:
		o.printStatus(v)
	case History:
		o.printHistory(v)
	case BattleSummary:
		o.printBattleSummary(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Unit response type (matches API)
type Unit struct {
	Name       string  `json:"name"`
	Emoji      string  `json:"emoji"`
	Cost       int     `json:"cost"`
	Health     int     `json:"health"`
	Power      int     `json:"power"`
	Size       float64 `json:"size"`
	Speed      float64 `json:"speed"`
	AttackType string  `json:"attack_type"`
}

// Catalog response type
type Catalog struct {
	HandSize int    `json:"hand_size"`
	Units    []Unit `json:"units"`
}

// Status response type
type Status struct {
	Connected int `json:"connected"`
	InLobby   int `json:"in_lobby"`
	InGame    int `json:"in_game"`
	Battles   int `json:"battles"`
}

// BattleSummary response type
type BattleSummary struct {
	ID         string    `json:"id"`
	Winner     string    `json:"winner"`
	WinnerName string    `json:"winner_name"`
	Loser      string    `json:"loser"`
	LoserName  string    `json:"loser_name"`
	Reason     string    `json:"reason"`
	StartedAt  time.Time `json:"started_at"`
	EndedAt    time.Time `json:"ended_at"`
	Duration   string    `json:"duration"`
}

// History response type
type History struct {
	Battles []BattleSummary `json:"battles"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Fprintf(o.w, "Status: %s\n", h.Status)
}

func (o *Output) printCatalog(c Catalog) {
	fmt.Fprintf(o.w, "Hand Size: %d\n", c.HandSize)
	fmt.Fprintf(o.w, "Units (%d):\n", len(c.Units))
	for _, u := range c.Units {
		fmt.Fprintf(o.w, "  %s %-12s cost %4d  hp %4d  power %4d  %s\n",
			u.Emoji, u.Name, u.Cost, u.Health, u.Power, u.AttackType)
	}
}

func (o *Output) printStatus(s Status) {
	fmt.Fprintf(o.w, "Connected: %d\n", s.Connected)
	fmt.Fprintf(o.w, "In Lobby: %d\n", s.InLobby)
	fmt.Fprintf(o.w, "In Game: %d\n", s.InGame)
	fmt.Fprintf(o.w, "Battles: %d\n", s.Battles)
}

func (o *Output) printHistory(h History) {
	if len(h.Battles) == 0 {
		fmt.Fprintln(o.w, "No finished battles")
		return
	}
	for _, b := range h.Battles {
		fmt.Fprintf(o.w, "%s  %s beat %s (%s, %s)\n",
			b.EndedAt.Format(time.DateTime), displayName(b.WinnerName, b.Winner),
			displayName(b.LoserName, b.Loser), b.Reason, b.Duration)
	}
}

func (o *Output) printBattleSummary(b BattleSummary) {
	fmt.Fprintf(o.w, "Battle: %s\n", b.ID)
	fmt.Fprintf(o.w, "Winner: %s\n", displayName(b.WinnerName, b.Winner))
	fmt.Fprintf(o.w, "Loser: %s\n", displayName(b.LoserName, b.Loser))
	fmt.Fprintf(o.w, "Reason: %s\n", b.Reason)
	fmt.Fprintf(o.w, "Started: %s\n", b.StartedAt.Format(time.DateTime))
	fmt.Fprintf(o.w, "Duration: %s\n", b.Duration)
}

func displayName(name, id string) string {
	if name == "" {
		return id
	}
	return name
}
