package session

import (
	"encoding/json"
	"testing"

	"github.com/hangoutx/hangoutx-server/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRulesFor(t *testing.T) {
	_, ok := RulesFor(types.ModeLudo)
	assert.True(t, ok)
	_, ok = RulesFor(types.ModeChess)
	assert.True(t, ok)
	_, ok = RulesFor(types.ModeMovie)
	assert.False(t, ok)
}

func TestChessRules(t *testing.T) {
	rules, _ := RulesFor(types.ModeChess)
	state := rules.Start([]int{1, 2})

	t.Run("first player in join order moves first", func(t *testing.T) {
		assert.Equal(t, 1, state.TurnId)
	})

	t.Run("legal move advances the turn", func(t *testing.T) {
		next, err := rules.ApplyMove(state, 1, json.RawMessage(`{"from":"e2","to":"e4"}`))
		require.NoError(t, err)
		assert.Equal(t, 2, next.TurnId)
		// prior state is untouched
		assert.Equal(t, 1, state.TurnId)
	})

	t.Run("turn rotates back to the first player", func(t *testing.T) {
		next, err := rules.ApplyMove(state, 1, json.RawMessage(`{"from":"e2","to":"e4"}`))
		require.NoError(t, err)
		next, err = rules.ApplyMove(next, 2, json.RawMessage(`{"from":"e7","to":"e5"}`))
		require.NoError(t, err)
		assert.Equal(t, 1, next.TurnId)
	})

	t.Run("bad squares are illegal", func(t *testing.T) {
		_, err := rules.ApplyMove(state, 1, json.RawMessage(`{"from":"z9","to":"e4"}`))
		assert.ErrorIs(t, err, ErrIllegalMove)
	})

	t.Run("move must change square", func(t *testing.T) {
		_, err := rules.ApplyMove(state, 1, json.RawMessage(`{"from":"e2","to":"e2"}`))
		assert.ErrorIs(t, err, ErrIllegalMove)
	})

	t.Run("malformed payload is illegal", func(t *testing.T) {
		_, err := rules.ApplyMove(state, 1, json.RawMessage(`"e2e4"`))
		assert.ErrorIs(t, err, ErrIllegalMove)
	})
}

func TestLudoRules(t *testing.T) {
	rules, _ := RulesFor(types.ModeLudo)
	state := rules.Start([]int{10, 20, 30})

	t.Run("turn rotates through join order", func(t *testing.T) {
		next, err := rules.ApplyMove(state, 10, json.RawMessage(`{"token":0,"roll":3}`))
		require.NoError(t, err)
		assert.Equal(t, 20, next.TurnId)

		next, err = rules.ApplyMove(next, 20, json.RawMessage(`{"token":1,"roll":2}`))
		require.NoError(t, err)
		assert.Equal(t, 30, next.TurnId)

		next, err = rules.ApplyMove(next, 30, json.RawMessage(`{"token":2,"roll":4}`))
		require.NoError(t, err)
		assert.Equal(t, 10, next.TurnId)
	})

	t.Run("rolling a six grants another turn", func(t *testing.T) {
		next, err := rules.ApplyMove(state, 10, json.RawMessage(`{"token":0,"roll":6}`))
		require.NoError(t, err)
		assert.Equal(t, 10, next.TurnId)
	})

	t.Run("token out of range is illegal", func(t *testing.T) {
		_, err := rules.ApplyMove(state, 10, json.RawMessage(`{"token":4,"roll":3}`))
		assert.ErrorIs(t, err, ErrIllegalMove)
	})

	t.Run("roll out of range is illegal", func(t *testing.T) {
		_, err := rules.ApplyMove(state, 10, json.RawMessage(`{"token":0,"roll":7}`))
		assert.ErrorIs(t, err, ErrIllegalMove)
	})
}
