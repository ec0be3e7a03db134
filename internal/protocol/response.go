package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/mcoot/towerduel/internal/model"
)

// Response kinds
const (
	KindChat            = "Chat"
	KindUserJoin        = "UserJoin"
	KindUserLeave       = "UserLeave"
	KindStartGame       = "StartGame"
	KindDrawnHand       = "DrawnHand"
	KindUnitSpawned     = "UnitSpawned"
	KindNewTowerHealth  = "NewTowerHealth"
	KindWin             = "Win"
	KindLose            = "Lose"
	KindWinByDisconnect = "WinByDisconnect"
	KindError           = "Error"
)

// Response is a server message. Build one with the constructors below.
type Response struct {
	kind    string
	payload any
}

// Kind returns the response tag
func (r Response) Kind() string {
	return r.kind
}

// Payload returns the value serialized under the tag
func (r Response) Payload() any {
	return r.payload
}

// Chat is a chat line attributed to name
func Chat(name, text string) Response {
	return Response{KindChat, [2]string{name, text}}
}

// UserJoin announces a user who set their name
func UserJoin(name string) Response {
	return Response{KindUserJoin, name}
}

// UserLeave announces a named user who disconnected
func UserLeave(name string) Response {
	return Response{KindUserLeave, name}
}

// StartGame tells a participant who they were paired with
func StartGame(opponentName string) Response {
	return Response{KindStartGame, opponentName}
}

// DrawnHand carries the participant's hand for the battle
func DrawnHand(hand []model.Unit) Response {
	if hand == nil {
		hand = []model.Unit{}
	}
	return Response{KindDrawnHand, hand}
}

// UnitSpawned reports a unit play; isLocal is true for the player who played it
func UnitSpawned(isLocal bool, unit model.Unit) Response {
	return Response{KindUnitSpawned, [2]any{isLocal, unit}}
}

// NewTowerHealth reports a tower's health; isOpponent is true when the tower
// belongs to the recipient's opponent
func NewTowerHealth(isOpponent bool, value int) Response {
	return Response{KindNewTowerHealth, [2]any{isOpponent, value}}
}

// Win tells the recipient they destroyed the enemy tower
func Win(id model.BattleID) Response {
	return Response{KindWin, id}
}

// Lose tells the recipient their tower was destroyed
func Lose(id model.BattleID) Response {
	return Response{KindLose, id}
}

// WinByDisconnect tells the recipient their opponent left the battle
func WinByDisconnect(id model.BattleID) Response {
	return Response{KindWinByDisconnect, id}
}

// ErrorBody is the payload of an Error response
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse reports a failed command to the requesting user
func ErrorResponse(code, message string) Response {
	return Response{KindError, ErrorBody{Code: code, Message: message}}
}

// Encode serializes r as {"message": {"<Kind>": <payload>}}.
// Failures wrap model.ErrEncodeFailed.
func Encode(r Response) ([]byte, error) {
	if r.kind == "" {
		return nil, fmt.Errorf("%w: empty response", model.ErrEncodeFailed)
	}
	data, err := json.Marshal(envelope{Message: map[string]any{r.kind: r.payload}})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", model.ErrEncodeFailed, r.kind, err)
	}
	return data, nil
}

type envelope struct {
	Message map[string]any `json:"message"`
}

// Message is a decoded server frame with its payload left raw
type Message struct {
	Kind    string
	Payload json.RawMessage
}

// DecodeMessage parses a server frame
func DecodeMessage(data []byte) (Message, error) {
	var env struct {
		Message map[string]json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return Message{}, fmt.Errorf("%w: %v", model.ErrDecodeFailed, err)
	}
	if len(env.Message) != 1 {
		return Message{}, fmt.Errorf("%w: expected exactly one message tag", model.ErrDecodeFailed)
	}
	for kind, payload := range env.Message {
		return Message{Kind: kind, Payload: payload}, nil
	}
	return Message{}, nil
}
