package model

import "slices"

// UserID uniquely identifies a connected user
type UserID string

// BattleID uniquely identifies a battle
type BattleID string

// AnonymousName is shown for users who have not set a display name
const AnonymousName = "Anonymous"

// Outbox is the addressable delivery handle for a user's connection.
// It accepts already-serialized frames and never blocks.
type Outbox interface {
	Deliver(payload []byte) error
}

// Status is either Lobby or InGame
type Status interface {
	isStatus()
}

// Lobby is the status of a user waiting to be matched
type Lobby struct{}

// InGame is the status of a user in a battle. The drawn hand only exists here.
type InGame struct {
	Battle BattleID
	Hand   []Unit
}

func (Lobby) isStatus()  {}
func (InGame) isStatus() {}

// User is a connected participant
type User struct {
	ID     UserID
	name   *string
	status Status
	outbox Outbox
}

// NewUser creates a user in the lobby with the given delivery handle (may be nil)
func NewUser(id UserID, outbox Outbox) *User {
	return &User{
		ID:     id,
		status: Lobby{},
		outbox: outbox,
	}
}

// Name returns the display name if one has been set
func (u *User) Name() (string, bool) {
	if u.name == nil {
		return "", false
	}
	return *u.name, true
}

// DisplayName returns the display name, or AnonymousName if unset
func (u *User) DisplayName() string {
	if name, ok := u.Name(); ok {
		return name
	}
	return AnonymousName
}

// SetName sets the display name
func (u *User) SetName(name string) {
	u.name = &name
}

// Status returns the current status
func (u *User) Status() Status {
	if u.status == nil {
		return Lobby{}
	}
	return u.status
}

// InLobby returns true if the user is waiting in the lobby
func (u *User) InLobby() bool {
	_, ok := u.Status().(Lobby)
	return ok
}

// BattleID returns the battle the user is in, if any
func (u *User) BattleID() (BattleID, bool) {
	if g, ok := u.Status().(InGame); ok {
		return g.Battle, true
	}
	return "", false
}

// Hand returns a copy of the user's drawn hand; only present while in a battle
func (u *User) Hand() ([]Unit, bool) {
	if g, ok := u.Status().(InGame); ok {
		return slices.Clone(g.Hand), true
	}
	return nil, false
}

// EnterBattle moves the user into a battle with the given hand
func (u *User) EnterBattle(battle BattleID, hand []Unit) {
	u.status = InGame{Battle: battle, Hand: slices.Clone(hand)}
}

// ReturnToLobby moves the user back to the lobby, discarding their hand
func (u *User) ReturnToLobby() {
	u.status = Lobby{}
}

// Outbox returns the delivery handle, or nil if none is attached
func (u *User) Outbox() Outbox {
	return u.outbox
}

// AttachOutbox sets the delivery handle
func (u *User) AttachOutbox(outbox Outbox) {
	u.outbox = outbox
}
