package model

import (
	"encoding/json"
	"fmt"
)

// AttackType describes how a unit deals damage
type AttackType string

const (
	AttackSingle AttackType = "Single"
	AttackArea   AttackType = "Area"
)

// Valid reports whether the attack type is one of the known values
func (a AttackType) Valid() bool {
	return a == AttackSingle || a == AttackArea
}

// UnmarshalJSON rejects unknown attack types
func (a *AttackType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if !AttackType(s).Valid() {
		return fmt.Errorf("unknown attack type %q", s)
	}
	*a = AttackType(s)
	return nil
}

// Unit is an immutable catalog entry describing a playable unit
type Unit struct {
	Name       string     `json:"name"`
	Glyph      string     `json:"emoji"`
	Cost       int        `json:"cost"`
	Health     int        `json:"health"`
	Power      int        `json:"power"`
	Size       float64    `json:"size"`
	Speed      float64    `json:"speed"`
	AttackType AttackType `json:"attack_type"`
}

// IsZero reports whether u is the default, empty unit
func (u Unit) IsZero() bool {
	return u == Unit{}
}
