package session

import (
	"github.com/mcoot/towerduel/internal/model"
	"github.com/mcoot/towerduel/internal/protocol"
)

// Event is something a connection asked the dispatcher to do
type Event interface {
	// Source is the user the event came from
	Source() model.UserID
}

// Connect registers a freshly upgraded connection
type Connect struct {
	User   model.UserID
	Outbox model.Outbox
}

// Disconnect removes a user whose connection closed
type Disconnect struct {
	User model.UserID
}

// SetName sets the sender's display name
type SetName struct {
	User model.UserID
	Name string
}

// Chat broadcasts a chat line from the sender
type Chat struct {
	User model.UserID
	Text string
}

// BeginGame enters the sender into matchmaking
type BeginGame struct {
	User model.UserID
}

// PlayUnit announces a unit play to both participants of the sender's battle
type PlayUnit struct {
	User model.UserID
	Unit string
}

// DamageTick applies damage to the sender's opponent's tower
type DamageTick struct {
	User   model.UserID
	Amount int
}

func (e Connect) Source() model.UserID    { return e.User }
func (e Disconnect) Source() model.UserID { return e.User }
func (e SetName) Source() model.UserID    { return e.User }
func (e Chat) Source() model.UserID       { return e.User }
func (e BeginGame) Source() model.UserID  { return e.User }
func (e PlayUnit) Source() model.UserID   { return e.User }
func (e DamageTick) Source() model.UserID { return e.User }

// EventFromCommand converts a decoded client command into an event
func EventFromCommand(user model.UserID, cmd protocol.Command) (Event, bool) {
	switch cmd.Type {
	case protocol.CmdSetName:
		return SetName{User: user, Name: cmd.Data}, true
	case protocol.CmdChat:
		return Chat{User: user, Text: cmd.Data}, true
	case protocol.CmdBeginGame:
		return BeginGame{User: user}, true
	case protocol.CmdPlayUnit:
		return PlayUnit{User: user, Unit: cmd.Data}, true
	case protocol.CmdDamageTick:
		return DamageTick{User: user, Amount: cmd.Amount}, true
	case protocol.CmdDisconnect:
		return Disconnect{User: user}, true
	default:
		return nil, false
	}
}
