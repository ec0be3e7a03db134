package model

import "time"

// StartingTowerHealth is the health every tower starts a battle with
const StartingTowerHealth = 1500

// Tower is a participant's defendable health pool
type Tower struct {
	Health int
}

// NewTower returns a tower at full health
func NewTower() Tower {
	return Tower{Health: StartingTowerHealth}
}

// Damage reduces the tower's health, clamping at zero.
// It returns the remaining health and false once the tower is destroyed.
func (t *Tower) Damage(amount int) (int, bool) {
	if amount < 0 {
		amount = 0
	}
	if amount >= t.Health {
		t.Health = 0
		return 0, false
	}
	t.Health -= amount
	return t.Health, true
}

// Destroyed returns true once health has reached zero
func (t Tower) Destroyed() bool {
	return t.Health == 0
}

// Team pairs a participant with the tower they defend
type Team struct {
	Player UserID
	Tower  Tower
}

// Battle is a paired match between two participants
type Battle struct {
	ID        BattleID
	TeamA     Team
	TeamB     Team
	StartedAt time.Time
}

// StartBattle creates a battle between a and b with both towers at full health
func StartBattle(a, b UserID) Battle {
	return Battle{
		TeamA: Team{Player: a, Tower: NewTower()},
		TeamB: Team{Player: b, Tower: NewTower()},
	}
}

// Participates returns true if id is one of the two participants
func (b *Battle) Participates(id UserID) bool {
	return b.TeamA.Player == id || b.TeamB.Player == id
}

// Enemy returns the other participant
func (b *Battle) Enemy(id UserID) (UserID, bool) {
	switch id {
	case b.TeamA.Player:
		return b.TeamB.Player, true
	case b.TeamB.Player:
		return b.TeamA.Player, true
	default:
		return "", false
	}
}

// TowerOf returns the tower owned by id
func (b *Battle) TowerOf(id UserID) (*Tower, bool) {
	switch id {
	case b.TeamA.Player:
		return &b.TeamA.Tower, true
	case b.TeamB.Player:
		return &b.TeamB.Tower, true
	default:
		return nil, false
	}
}

// DamageTick applies amount to the tower owned by target.
// A false result means the tower was destroyed: the target has lost.
func (b *Battle) DamageTick(target UserID, amount int) (int, bool) {
	tower, ok := b.TowerOf(target)
	if !ok {
		return 0, false
	}
	return tower.Damage(amount)
}

// BattleEndReason explains why a battle ended
type BattleEndReason string

const (
	EndTowerDestroyed BattleEndReason = "tower_destroyed"
	EndDisconnect     BattleEndReason = "disconnect"
)

// BattleSummary is a lightweight record of a finished battle
type BattleSummary struct {
	ID         BattleID        `json:"id"`
	Winner     UserID          `json:"winner"`
	WinnerName string          `json:"winner_name"`
	Loser      UserID          `json:"loser"`
	LoserName  string          `json:"loser_name"`
	Reason     BattleEndReason `json:"reason"`
	StartedAt  time.Time       `json:"started_at"`
	EndedAt    time.Time       `json:"ended_at"`
}
