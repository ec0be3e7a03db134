package response

import (
	"time"

	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/services/session"
)

// Unit represents a catalog unit in API responses
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

// UnitFromModel converts a model.Unit to a response Unit
func UnitFromModel(u model.Unit) Unit {
	return Unit{
		Name:       u.Name,
		Emoji:      u.Glyph,
		Cost:       u.Cost,
		Health:     u.Health,
		Power:      u.Power,
		Size:       u.Size,
		Speed:      u.Speed,
		AttackType: string(u.AttackType),
	}
}

// Catalog is the response for the catalog endpoint
type Catalog struct {
	HandSize int    `json:"hand_size"`
	Units    []Unit `json:"units"`
}

// CatalogFromModel converts a list of units
func CatalogFromModel(units []model.Unit, handSize int) Catalog {
	out := make([]Unit, len(units))
	for i, u := range units {
		out[i] = UnitFromModel(u)
	}
	return Catalog{HandSize: handSize, Units: out}
}

// Status is the response for the status endpoint
type Status struct {
	Connected int `json:"connected"`
	InLobby   int `json:"in_lobby"`
	InGame    int `json:"in_game"`
	Battles   int `json:"battles"`
}

// StatusFromStats converts registry stats
func StatusFromStats(s session.Stats) Status {
	return Status{
		Connected: s.Connected,
		InLobby:   s.InLobby,
		InGame:    s.InGame,
		Battles:   s.Battles,
	}
}

// BattleSummary represents a finished battle
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

// BattleSummaryFromModel converts model.BattleSummary
func BattleSummaryFromModel(s *model.BattleSummary) BattleSummary {
	return BattleSummary{
		ID:         string(s.ID),
		Winner:     string(s.Winner),
		WinnerName: s.WinnerName,
		Loser:      string(s.Loser),
		LoserName:  s.LoserName,
		Reason:     string(s.Reason),
		StartedAt:  s.StartedAt,
		EndedAt:    s.EndedAt,
		Duration:   s.EndedAt.Sub(s.StartedAt).Round(time.Second).String(),
	}
}

// History is the response for the battle history endpoint
type History struct {
	Battles []BattleSummary `json:"battles"`
}

// HistoryFromModel converts a list of summaries, most recent first
func HistoryFromModel(summaries []*model.BattleSummary) History {
	out := make([]BattleSummary, len(summaries))
	for i, s := range summaries {
		out[i] = BattleSummaryFromModel(s)
	}
	return History{Battles: out}
}

// Health is the response for the health endpoint
type Health struct {
	Status string `json:"status"`
}
