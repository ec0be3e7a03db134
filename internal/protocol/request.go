// Package protocol defines the JSON frames exchanged over the websocket.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/mcoot/towerduel/internal/model"
)

// CommandType identifies a client command
type CommandType string

const (
	CmdSetName    CommandType = "SetName"
	CmdChat       CommandType = "Chat"
	CmdBeginGame  CommandType = "BeginGame"
	CmdPlayUnit   CommandType = "PlayUnit"
	CmdDamageTick CommandType = "DamageTick"
	CmdDisconnect CommandType = "Disconnect"
)

// Tags still sent by older browser clients
var legacyTags = map[string]CommandType{
	"ConnectReq": CmdSetName,
	"Text":       CmdChat,
	"SpawnUnit":  CmdPlayUnit,
	"DmgPing":    CmdDamageTick,
}

// Command is a decoded client frame
type Command struct {
	Type CommandType
	Data string

	// Amount is the parsed payload of a DamageTick
	Amount int
}

// frame is the wire shape of a client command
type frame struct {
	Type string      `json:"type"`
	Data payloadText `json:"data"`
}

// payloadText accepts a JSON string or number and keeps its text
type payloadText string

func (p *payloadText) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*p = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*p = payloadText(s)
	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*p = payloadText(n.String())
	}
	return nil
}

// ParseCommandType resolves a tag, including legacy aliases
func ParseCommandType(tag string) (CommandType, bool) {
	switch t := CommandType(tag); t {
	case CmdSetName, CmdChat, CmdBeginGame, CmdPlayUnit, CmdDamageTick, CmdDisconnect:
		return t, true
	}
	t, ok := legacyTags[tag]
	return t, ok
}

// DecodeCommand parses a client text frame. All failures wrap model.ErrDecodeFailed.
func DecodeCommand(raw []byte) (Command, error) {
	var f frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return Command{}, fmt.Errorf("%w: %v", model.ErrDecodeFailed, err)
	}

	t, ok := ParseCommandType(f.Type)
	if !ok {
		return Command{}, fmt.Errorf("%w: unknown command %q", model.ErrDecodeFailed, f.Type)
	}

	cmd := Command{Type: t, Data: string(f.Data)}
	if t == CmdDamageTick {
		amount, err := strconv.Atoi(strings.TrimSpace(cmd.Data))
		if err != nil || amount < 0 {
			return Command{}, fmt.Errorf("%w: invalid damage amount %q", model.ErrDecodeFailed, cmd.Data)
		}
		cmd.Amount = amount
	}
	return cmd, nil
}

// EncodeCommand serializes a command as a client frame
func EncodeCommand(t CommandType, data string) ([]byte, error) {
	return json.Marshal(struct {
		Type CommandType `json:"type"`
		Data string      `json:"data"`
	}{t, data})
}
