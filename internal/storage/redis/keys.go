package redis

import (
	"fmt"

	"github.com/mcoot/towerduel/internal/model"
)

// Key prefix for all server data
const keyPrefix = "towerduel"

// catalogKey returns the Redis key for the published unit catalog
func catalogKey() string {
	return fmt.Sprintf("%s:catalog", keyPrefix)
}

// battleKey returns the Redis key for a finished battle summary
func battleKey(id model.BattleID) string {
	return fmt.Sprintf("%s:battle:%s", keyPrefix, id)
}

// battleIndexKey returns the Redis key for the LIST of battle ids, newest first
func battleIndexKey() string {
	return fmt.Sprintf("%s:idx:battles", keyPrefix)
}
