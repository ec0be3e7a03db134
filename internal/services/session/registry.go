// Package session holds the shared lobby and battle state and the event
// dispatcher that mutates it.
package session

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/mcoot/towerduel/internal/dependencies/clock"
	"github.com/mcoot/towerduel/internal/dependencies/random"
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/services/catalog"
)

const (
	// DefaultHandSize is the number of units dealt to each participant
	DefaultHandSize = 5
	// MaxNameLength is the longest display name accepted, in characters
	MaxNameLength = 32
)

// Registry is the shared set of connected users and running battles.
// Lookups take the read lock; mutations take the write lock. Neither is held
// while delivering to outboxes.
type Registry struct {
	mu      sync.RWMutex
	users   map[model.UserID]*model.User
	battles map[model.BattleID]*model.Battle

	catalog  *catalog.Catalog
	handSize int
	clock    clock.Clock
	random   random.Random
	logger   *slog.Logger
}

// NewRegistry creates an empty registry dealing hands of handSize from cat
func NewRegistry(
	cat *catalog.Catalog,
	handSize int,
	clock clock.Clock,
	random random.Random,
	logger *slog.Logger,
) *Registry {
	if handSize <= 0 {
		handSize = DefaultHandSize
	}
	return &Registry{
		users:    make(map[model.UserID]*model.User),
		battles:  make(map[model.BattleID]*model.Battle),
		catalog:  cat,
		handSize: handSize,
		clock:    clock,
		random:   random,
		logger:   logger.With(slog.String("component", "registry")),
	}
}

// Catalog returns the catalog hands are drawn from
func (r *Registry) Catalog() *catalog.Catalog {
	return r.catalog
}

// HandSize returns the number of units dealt per participant
func (r *Registry) HandSize() int {
	return r.handSize
}

// DisconnectResult describes what a disconnect left behind
type DisconnectResult struct {
	User model.UserID
	// Name is the departed user's display name, if one was set
	Name    string
	HadName bool
	// Ended is set when the user left a running battle
	Ended *model.BattleSummary
}

// DamageResult describes the outcome of a damage tick
type DamageResult struct {
	Battle    model.BattleID
	Attacker  model.UserID
	Target    model.UserID
	Remaining int
	Destroyed bool
	// Ended is set when the tick destroyed the target's tower
	Ended *model.BattleSummary
}

// Stats is a point-in-time count of registry contents
type Stats struct {
	Connected int `json:"connected"`
	InLobby   int `json:"in_lobby"`
	InGame    int `json:"in_game"`
	Battles   int `json:"battles"`
}

// Connect inserts user into the lobby, assigning an id if it has none
func (r *Registry) Connect(user *model.User) model.UserID {
	if user.ID == "" {
		user.ID = model.UserID(r.random.UUID())
	}
	user.ReturnToLobby()

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.users[user.ID]; exists {
		r.logger.Warn("replacing user with duplicate id", slog.String("user_id", string(user.ID)))
	}
	r.users[user.ID] = user
	return user.ID
}

// Disconnect removes a user. If they were in a battle, the battle ends and the
// opponent wins. Returns false if the user was not connected.
func (r *Registry) Disconnect(id model.UserID) (DisconnectResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return DisconnectResult{}, false
	}
	delete(r.users, id)

	result := DisconnectResult{User: id}
	result.Name, result.HadName = user.Name()

	if battleID, inGame := user.BattleID(); inGame {
		if battle, exists := r.battles[battleID]; exists {
			enemyID, _ := battle.Enemy(id)
			result.Ended = r.endBattleLocked(battle, r.users[enemyID], user, model.EndDisconnect)
		}
	}
	return result, true
}

// SetName validates and sets a user's display name, returning the stored form
func (r *Registry) SetName(id model.UserID, name string) (string, error) {
	name = strings.TrimSpace(name)
	if n := utf8.RuneCountInString(name); n == 0 || n > MaxNameLength {
		return "", model.ErrInvalidName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return "", model.ErrUserNotFound
	}
	user.SetName(name)
	return name, nil
}

// Name returns a user's display name if they have set one
func (r *Registry) Name(id model.UserID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return "", false
	}
	return user.Name()
}

// DisplayName returns a user's name, or the anonymous placeholder
func (r *Registry) DisplayName(id model.UserID) string {
	if name, ok := r.Name(id); ok {
		return name
	}
	return model.AnonymousName
}

// Status returns a user's current status
func (r *Registry) Status(id model.UserID) (model.Status, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, false
	}
	return user.Status(), true
}

// Hand returns a copy of the hand dealt to a user in a battle
func (r *Registry) Hand(id model.UserID) ([]model.Unit, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return nil, false
	}
	return user.Hand()
}

// Battle returns a copy of a running battle
func (r *Registry) Battle(id model.BattleID) (model.Battle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	battle, ok := r.battles[id]
	if !ok {
		return model.Battle{}, false
	}
	return *battle, true
}

// Opponent returns the other participant in the user's battle
func (r *Registry) Opponent(id model.UserID) (model.UserID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	battle, ok := r.battleOfLocked(id)
	if !ok {
		return "", false
	}
	return battle.Enemy(id)
}

// AvailableUsers returns every lobby user except exclude, sorted by id
func (r *Registry) AvailableUsers(exclude model.UserID) []model.UserID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.availableLocked(exclude)
}

// Stats counts connected users and running battles
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := Stats{Connected: len(r.users), Battles: len(r.battles)}
	for _, user := range r.users {
		if user.InLobby() {
			stats.InLobby++
		} else {
			stats.InGame++
		}
	}
	return stats
}

// NewRandom pairs id with a lobby user chosen uniformly at random
func (r *Registry) NewRandom(id model.UserID) (model.BattleID, model.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	available := r.availableLocked(id)
	if len(available) == 0 {
		return "", "", model.ErrNotEnoughInLobby
	}
	opponent := available[r.random.Intn(len(available))]
	return r.newBattleLocked(id, opponent)
}

// NewBattle starts a battle between a and b. Both must be in the lobby.
// On failure the registry is left unchanged.
func (r *Registry) NewBattle(a, b model.UserID) (model.BattleID, model.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.newBattleLocked(a, b)
}

func (r *Registry) newBattleLocked(a, b model.UserID) (model.BattleID, model.UserID, error) {
	userA, okA := r.users[a]
	userB, okB := r.users[b]
	if !okA || !okB {
		return "", "", model.ErrUserNotFound
	}
	if a == b {
		return "", "", model.ErrSelfMatch
	}
	if !userA.InLobby() || !userB.InLobby() {
		return "", "", model.ErrNotInLobby
	}

	handA, ok := r.catalog.DrawHand(r.random, r.handSize)
	if !ok {
		return "", "", fmt.Errorf("%w: catalog has %d units, need %d", model.ErrNoHandAvailable, r.catalog.Len(), r.handSize)
	}
	handB, _ := r.catalog.DrawHand(r.random, r.handSize)

	battle := model.StartBattle(a, b)
	battle.ID = model.BattleID(r.random.UUID())
	battle.StartedAt = r.clock.Now()
	r.battles[battle.ID] = &battle

	userA.EnterBattle(battle.ID, handA)
	userB.EnterBattle(battle.ID, handB)

	r.logger.Info("battle started",
		slog.String("battle_id", string(battle.ID)),
		slog.String("team_a", string(a)),
		slog.String("team_b", string(b)))
	return battle.ID, b, nil
}

// Damage applies amount to the tower owned by to. Returns false if to is not
// in a battle. A destroyed tower ends the battle and returns both
// participants to the lobby.
func (r *Registry) Damage(to model.UserID, amount int) (DamageResult, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	battle, ok := r.battleOfLocked(to)
	if !ok {
		return DamageResult{}, false
	}
	attacker, _ := battle.Enemy(to)

	remaining, alive := battle.DamageTick(to, amount)
	result := DamageResult{
		Battle:    battle.ID,
		Attacker:  attacker,
		Target:    to,
		Remaining: remaining,
		Destroyed: !alive,
	}
	if !alive {
		result.Ended = r.endBattleLocked(battle, r.users[attacker], r.users[to], model.EndTowerDestroyed)
	}
	return result, true
}

func (r *Registry) battleOfLocked(id model.UserID) (*model.Battle, bool) {
	user, ok := r.users[id]
	if !ok {
		return nil, false
	}
	battleID, ok := user.BattleID()
	if !ok {
		return nil, false
	}
	battle, ok := r.battles[battleID]
	if !ok || !battle.Participates(id) {
		return nil, false
	}
	return battle, true
}

func (r *Registry) availableLocked(exclude model.UserID) []model.UserID {
	ids := make([]model.UserID, 0, len(r.users))
	for id, user := range r.users {
		if id != exclude && user.InLobby() {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// endBattleLocked removes the battle and returns any remaining participants
// to the lobby. winner or loser may be nil if already removed.
func (r *Registry) endBattleLocked(battle *model.Battle, winner, loser *model.User, reason model.BattleEndReason) *model.BattleSummary {
	delete(r.battles, battle.ID)

	summary := &model.BattleSummary{
		ID:        battle.ID,
		Reason:    reason,
		StartedAt: battle.StartedAt,
		EndedAt:   r.clock.Now(),
	}
	if winner != nil {
		winner.ReturnToLobby()
		summary.Winner = winner.ID
		summary.WinnerName = winner.DisplayName()
	}
	if loser != nil {
		loser.ReturnToLobby()
		summary.Loser = loser.ID
		summary.LoserName = loser.DisplayName()
	}

	r.logger.Info("battle ended",
		slog.String("battle_id", string(battle.ID)),
		slog.String("winner", string(summary.Winner)),
		slog.String("reason", string(reason)),
		slog.Duration("duration", r.clock.Since(battle.StartedAt)))
	return summary
}

// Delivery

type recipient struct {
	id     model.UserID
	outbox model.Outbox
}

// SendTo delivers resp to a single user
func (r *Registry) SendTo(id model.UserID, resp protocol.Response) error {
	payload, err := protocol.Encode(resp)
	if err != nil {
		return err
	}

	r.mu.RLock()
	user, ok := r.users[id]
	var outbox model.Outbox
	if ok {
		outbox = user.Outbox()
	}
	r.mu.RUnlock()

	if !ok {
		return fmt.Errorf("send %s to %s: %w", resp.Kind(), id, model.ErrUserNotFound)
	}
	return r.deliver(recipient{id, outbox}, resp.Kind(), payload)
}

// Broadcast delivers resp to every connected user
func (r *Registry) Broadcast(resp protocol.Response) error {
	return r.fanOut(resp, func(model.UserID) bool { return true })
}

// BroadcastTo delivers resp to the given users. Ids that are not connected are skipped.
func (r *Registry) BroadcastTo(resp protocol.Response, ids ...model.UserID) error {
	return r.fanOut(resp, func(id model.UserID) bool { return slices.Contains(ids, id) })
}

// BroadcastToAllBut delivers resp to every connected user except those excluded
func (r *Registry) BroadcastToAllBut(resp protocol.Response, excluded ...model.UserID) error {
	return r.fanOut(resp, func(id model.UserID) bool { return !slices.Contains(excluded, id) })
}

// fanOut snapshots matching outboxes under the read lock, then delivers to
// each independently. Failures are combined into one error.
func (r *Registry) fanOut(resp protocol.Response, include func(model.UserID) bool) error {
	payload, err := protocol.Encode(resp)
	if err != nil {
		return err
	}

	r.mu.RLock()
	targets := make([]recipient, 0, len(r.users))
	for id, user := range r.users {
		if include(id) {
			targets = append(targets, recipient{id, user.Outbox()})
		}
	}
	r.mu.RUnlock()

	var errs error
	for _, target := range targets {
		errs = multierr.Append(errs, r.deliver(target, resp.Kind(), payload))
	}
	return errs
}

func (r *Registry) deliver(to recipient, kind string, payload []byte) error {
	if to.outbox == nil {
		err := fmt.Errorf("send %s to %s: %w", kind, to.id, model.ErrNoActiveConnection)
		r.logger.Debug("delivery skipped", slog.String("user_id", string(to.id)), slog.Any("error", err))
		return err
	}
	if err := to.outbox.Deliver(payload); err != nil {
		r.logger.Warn("delivery failed",
			slog.String("user_id", string(to.id)),
			slog.String("kind", kind),
			slog.Any("error", err))
		return fmt.Errorf("send %s to %s: %w", kind, to.id, err)
	}
	return nil
}
