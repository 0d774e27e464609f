package game

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fzj270452746/MJSort/internal/game/table"
)

func TestSimulateTalliesEveryGame(t *testing.T) {
	result, err := Simulate(7, 20, table.DefaultConfig(), nil)
	require.NoError(t, err)

	assert.Equal(t, 20, result.Games)
	assert.Equal(t, 20, result.PlayerWins+result.ComputerWins+result.Ties)
	assert.LessOrEqual(t, result.HandEmptied, result.Games)
	assert.Greater(t, result.TotalRounds, 0)
}

func TestSimulateIsReproducible(t *testing.T) {
	var first, second bytes.Buffer

	r1, err := Simulate(3, 2, table.DefaultConfig(), &first)
	require.NoError(t, err)
	r2, err := Simulate(3, 2, table.DefaultConfig(), &second)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)

	// 快照时间戳不在事件中，输出应逐字节相同
	assert.Equal(t, first.String(), second.String())
}

func TestSimulateEventLog(t *testing.T) {
	var out bytes.Buffer
	_, err := Simulate(5, 1, table.DefaultConfig(), &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.NotEmpty(t, lines)
	assert.True(t, strings.HasPrefix(lines[0], "sim-1 game_started "))
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "sim-1 game_ended "))
}
