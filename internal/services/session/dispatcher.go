package session

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/multierr"

	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
	"github.com/mcoot/towerduel/internal/storage"
)

// MaxChatLength is the longest chat line relayed, in characters
const MaxChatLength = 500

// ArchiveTimeout bounds a single battle summary write
const ArchiveTimeout = 5 * time.Second

// Dispatcher consumes events from every connection in arrival order and
// applies them to the registry
type Dispatcher struct {
	registry *Registry
	storage  storage.Storage
	logger   *slog.Logger
	queue    *queue

	// Summaries are written off the dispatch goroutine
	archives       sync.WaitGroup
	archiveTimeout time.Duration
}

// NewDispatcher creates a dispatcher over registry, archiving finished
// battles to store
func NewDispatcher(registry *Registry, store storage.Storage, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		storage:  store,
		logger:   logger.With(slog.String("component", "dispatcher")),
		queue:    newQueue(),

		archiveTimeout: ArchiveTimeout,
	}
}

// Submit enqueues an event. It never blocks.
func (d *Dispatcher) Submit(e Event) {
	if e == nil {
		return
	}
	d.queue.push(e)
}

// Pending returns the number of events waiting to be handled
func (d *Dispatcher) Pending() int {
	return d.queue.len()
}

// Run handles events until ctx is cancelled. Events already queued at
// cancellation are handled, and pending archive writes finish, before returning.
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("dispatcher started")
	for {
		for _, e := range d.queue.drain() {
			d.Handle(ctx, e)
		}

		select {
		case <-d.queue.notify:
		case <-ctx.Done():
			drained := d.queue.drain()
			for _, e := range drained {
				d.Handle(context.WithoutCancel(ctx), e)
			}
			d.WaitArchived()
			d.logger.Info("dispatcher stopped", slog.Int("drained", len(drained)))
			return nil
		}
	}
}

// Handle applies a single event. A panic while handling is logged and
// does not propagate.
func (d *Dispatcher) Handle(ctx context.Context, e Event) {
	defer func() {
		if err := recover(); err != nil {
			d.logger.Error("panic recovered",
				slog.Any("error", err),
				slog.String("stack", string(debug.Stack())),
				slog.String("event", fmt.Sprintf("%T", e)),
				slog.String("user_id", string(e.Source())),
			)
		}
	}()

	switch ev := e.(type) {
	case Connect:
		d.handleConnect(ev)
	case Disconnect:
		d.handleDisconnect(ctx, ev)
	case SetName:
		d.handleSetName(ev)
	case Chat:
		d.handleChat(ev)
	case BeginGame:
		d.handleBeginGame(ev)
	case PlayUnit:
		d.handlePlayUnit(ev)
	case DamageTick:
		d.handleDamageTick(ctx, ev)
	default:
		d.logger.Warn("unhandled event", slog.String("event", fmt.Sprintf("%T", e)))
	}
}

func (d *Dispatcher) handleConnect(ev Connect) {
	id := d.registry.Connect(model.NewUser(ev.User, ev.Outbox))
	d.logger.Info("user connected", slog.String("user_id", string(id)))
}

func (d *Dispatcher) handleDisconnect(ctx context.Context, ev Disconnect) {
	result, ok := d.registry.Disconnect(ev.User)
	if !ok {
		return
	}
	d.logger.Info("user disconnected", slog.String("user_id", string(ev.User)))

	if result.Ended != nil {
		if result.Ended.Winner != "" {
			d.send(result.Ended.Winner, protocol.WinByDisconnect(result.Ended.ID))
		}
		d.archive(ctx, result.Ended)
	}
	if result.HadName {
		d.broadcast(protocol.UserLeave(result.Name))
	}
}

func (d *Dispatcher) handleSetName(ev SetName) {
	name, err := d.registry.SetName(ev.User, ev.Name)
	if err != nil {
		d.reject(ev.User, err)
		return
	}
	d.broadcast(protocol.UserJoin(name))
}

func (d *Dispatcher) handleChat(ev Chat) {
	if strings.TrimSpace(ev.Text) == "" {
		return
	}
	text := ev.Text
	if utf8.RuneCountInString(text) > MaxChatLength {
		text = string([]rune(text)[:MaxChatLength])
	}
	d.broadcast(protocol.Chat(d.registry.DisplayName(ev.User), text))
}

func (d *Dispatcher) handleBeginGame(ev BeginGame) {
	battleID, opponent, err := d.registry.NewRandom(ev.User)
	if err != nil {
		d.reject(ev.User, err)
		return
	}
	d.logger.Info("matched",
		slog.String("battle_id", string(battleID)),
		slog.String("user_id", string(ev.User)),
		slog.String("opponent_id", string(opponent)))

	d.send(ev.User, protocol.StartGame(d.registry.DisplayName(opponent)))
	d.send(opponent, protocol.StartGame(d.registry.DisplayName(ev.User)))

	for _, id := range []model.UserID{ev.User, opponent} {
		if hand, ok := d.registry.Hand(id); ok {
			d.send(id, protocol.DrawnHand(hand))
		}
	}
}

func (d *Dispatcher) handlePlayUnit(ev PlayUnit) {
	opponent, ok := d.registry.Opponent(ev.User)
	if !ok {
		d.reject(ev.User, model.ErrNotInBattle)
		return
	}
	unit, ok := d.registry.Catalog().Lookup(ev.Unit)
	if !ok {
		d.reject(ev.User, fmt.Errorf("%w: %q", model.ErrUnknownUnit, ev.Unit))
		return
	}

	d.send(ev.User, protocol.UnitSpawned(true, unit))
	d.send(opponent, protocol.UnitSpawned(false, unit))
}

func (d *Dispatcher) handleDamageTick(ctx context.Context, ev DamageTick) {
	opponent, ok := d.registry.Opponent(ev.User)
	if !ok {
		d.reject(ev.User, model.ErrNotInBattle)
		return
	}
	result, ok := d.registry.Damage(opponent, ev.Amount)
	if !ok {
		d.reject(ev.User, model.ErrNotInBattle)
		return
	}

	d.send(ev.User, protocol.NewTowerHealth(true, result.Remaining))
	d.send(opponent, protocol.NewTowerHealth(false, result.Remaining))

	if result.Destroyed {
		d.send(ev.User, protocol.Win(result.Battle))
		d.send(opponent, protocol.Lose(result.Battle))
		if result.Ended != nil {
			d.archive(ctx, result.Ended)
		}
	}
}

// reject tells the sender why their command failed
func (d *Dispatcher) reject(id model.UserID, err error) {
	resp := protocol.ErrorFor(err)
	if resp.Payload().(protocol.ErrorBody).Code == protocol.CodeInternalError {
		d.logger.Error("command failed", slog.String("user_id", string(id)), slog.Any("error", err))
	} else {
		d.logger.Info("command rejected", slog.String("user_id", string(id)), slog.Any("error", err))
	}
	d.send(id, resp)
}

// send delivers to one user; the failure itself is logged by the registry
func (d *Dispatcher) send(id model.UserID, resp protocol.Response) {
	if err := d.registry.SendTo(id, resp); err != nil {
		d.logger.Debug("send failed",
			slog.String("user_id", string(id)),
			slog.String("kind", resp.Kind()))
	}
}

// broadcast delivers to every connected user and reports how many missed it
func (d *Dispatcher) broadcast(resp protocol.Response) {
	if err := d.registry.Broadcast(resp); err != nil {
		d.logger.Warn("broadcast incomplete",
			slog.String("kind", resp.Kind()),
			slog.Int("failed", len(multierr.Errors(err))))
	}
}

// archive saves summary in the background so slow storage never holds up
// other events. The write outlives ctx cancellation but not archiveTimeout.
func (d *Dispatcher) archive(ctx context.Context, summary *model.BattleSummary) {
	ctx = context.WithoutCancel(ctx)
	d.archives.Add(1)
	go func() {
		defer d.archives.Done()
		ctx, cancel := context.WithTimeout(ctx, d.archiveTimeout)
		defer cancel()

		if err := d.storage.SaveBattleSummary(ctx, summary); err != nil {
			d.logger.Error("failed to archive battle",
				slog.String("battle_id", string(summary.ID)),
				slog.Any("error", err))
		}
	}()
}

// WaitArchived blocks until every started archive write has finished
func (d *Dispatcher) WaitArchived() {
	d.archives.Wait()
}
