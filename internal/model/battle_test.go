package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartBattleInitializesBothTowers(t *testing.T) {
	b := StartBattle("a", "b")

	assert.Equal(t, UserID("a"), b.TeamA.Player)
	assert.Equal(t, UserID("b"), b.TeamB.Player)
	assert.Equal(t, StartingTowerHealth, b.TeamA.Tower.Health)
	assert.Equal(t, StartingTowerHealth, b.TeamB.Tower.Health)
}

func TestEnemyReturnsOtherParticipant(t *testing.T) {
	b := StartBattle("a", "b")

	enemy, ok := b.Enemy("a")
	require.True(t, ok)
	assert.Equal(t, UserID("b"), enemy)

	enemy, ok = b.Enemy("b")
	require.True(t, ok)
	assert.Equal(t, UserID("a"), enemy)

	_, ok = b.Enemy("stranger")
	assert.False(t, ok)
}

func TestDamageTick(t *testing.T) {
	tests := []struct {
		name      string
		amounts   []int
		remaining int
		alive     bool
	}{
		{name: "exact health destroys", amounts: []int{1500}, remaining: 0, alive: false},
		{name: "overkill destroys", amounts: []int{9999}, remaining: 0, alive: false},
		{name: "one short survives", amounts: []int{1499}, remaining: 1, alive: true},
		{name: "ticks accumulate", amounts: []int{500, 500}, remaining: 500, alive: true},
		{name: "zero is a no-op", amounts: []int{0}, remaining: 1500, alive: true},
		{name: "negative never heals", amounts: []int{-300}, remaining: 1500, alive: true},
		{name: "accumulated ticks destroy", amounts: []int{1000, 600}, remaining: 0, alive: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := StartBattle("a", "b")
			var remaining int
			var alive bool
			for _, amount := range tt.amounts {
				remaining, alive = b.DamageTick("b", amount)
			}
			assert.Equal(t, tt.remaining, remaining)
			assert.Equal(t, tt.alive, alive)
			assert.Equal(t, tt.remaining, b.TeamB.Tower.Health)
			assert.Equal(t, StartingTowerHealth, b.TeamA.Tower.Health, "attacker tower untouched")
		})
	}
}

func TestDamageTickOnlyDecreases(t *testing.T) {
	b := StartBattle("a", "b")
	last := b.TeamA.Tower.Health
	for _, amount := range []int{10, -5, 0, 200, -1000, 3} {
		b.DamageTick("a", amount)
		require.LessOrEqual(t, b.TeamA.Tower.Health, last)
		last = b.TeamA.Tower.Health
	}
}

func TestDamageTickUnknownTarget(t *testing.T) {
	b := StartBattle("a", "b")
	remaining, alive := b.DamageTick("stranger", 10)
	assert.Equal(t, 0, remaining)
	assert.False(t, alive)
	assert.Equal(t, StartingTowerHealth, b.TeamA.Tower.Health)
	assert.Equal(t, StartingTowerHealth, b.TeamB.Tower.Health)
}

func TestDestroyedTowerStaysAtZero(t *testing.T) {
	tower := NewTower()
	_, alive := tower.Damage(2000)
	require.False(t, alive)
	assert.True(t, tower.Destroyed())

	remaining, alive := tower.Damage(1)
	assert.Equal(t, 0, remaining)
	assert.False(t, alive)
}
