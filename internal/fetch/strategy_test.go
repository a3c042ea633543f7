package fetch

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStrategy_NextEscalatesInOrder(t *testing.T) {
	next, ok := StrategyFast.Next()
	assert.True(t, ok)
	assert.Equal(t, StrategyStandard, next)

	next, ok = StrategyStandard.Next()
	assert.True(t, ok)
	assert.Equal(t, StrategyRobust, next)

	next, ok = StrategyRobust.Next()
	assert.True(t, ok)
	assert.Equal(t, StrategyAggressive, next)
}

func TestStrategy_AggressiveHasNoNext(t *testing.T) {
	_, ok := StrategyAggressive.Next()
	assert.False(t, ok)
}

func TestStrategy_Valid(t *testing.T) {
	assert.True(t, StrategyFast.Valid())
	assert.True(t, StrategyAggressive.Valid())
	assert.False(t, Strategy("bogus").Valid())
	assert.False(t, Strategy("").Valid())
}
