package session

import (
	"encoding/json"
	"fmt"

	"github.com/hangoutx/hangoutx-server/internal/types"
)

// Rules is the per-mode game capability. The session core only enforces
// turn identity; what a legal move looks like is the rule set's business.
type Rules interface {
	// MinPlayers and MaxPlayers bound how many participants take part.
	// The game starts with the first MaxPlayers participants in join
	// order, once at least MinPlayers are present.
	MinPlayers() int
	MaxPlayers() int

	// Start builds the initial board for the given players. The first
	// player in join order moves first.
	Start(players []int) *types.GameState

	// ApplyMove validates the move payload against the board and returns
	// the updated state with the turn advanced, or ErrIllegalMove.
	ApplyMove(state *types.GameState, player int, move json.RawMessage) (*types.GameState, error)
}

// RulesFor returns the rule set for a mode, or false for modes without
// board games.
func RulesFor(mode types.Mode) (Rules, bool) {
	switch mode {
	case types.ModeLudo:
		return ludoRules{}, true
	case types.ModeChess:
		return chessRules{}, true
	}
	return nil, false
}

// nextTurn rotates the turn to the next player in the fixed join order.
func nextTurn(state *types.GameState) int {
	for i, p := range state.Players {
		if p == state.TurnId {
			return state.Players[(i+1)%len(state.Players)]
		}
	}
	return state.Players[0]
}

type ludoRules struct{}

func (ludoRules) MinPlayers() int { return 2 }
func (ludoRules) MaxPlayers() int { return 4 }

func (ludoRules) Start(players []int) *types.GameState {
	return &types.GameState{
		Mode:    types.ModeLudo,
		Players: players,
		TurnId:  players[0],
		Board: map[string]any{
			"moves": 0,
		},
	}
}

type ludoMove struct {
	Token int `json:"token"`
	Roll  int `json:"roll"`
}

func (ludoRules) ApplyMove(state *types.GameState, player int, move json.RawMessage) (*types.GameState, error) {
	var m ludoMove
	if err := json.Unmarshal(move, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if m.Token < 0 || m.Token > 3 {
		return nil, fmt.Errorf("%w: token %d out of range", ErrIllegalMove, m.Token)
	}
	if m.Roll < 1 || m.Roll > 6 {
		return nil, fmt.Errorf("%w: roll %d out of range", ErrIllegalMove, m.Roll)
	}

	next := *state
	next.Board = map[string]any{
		"moves": boardMoves(state) + 1,
		"last_move": map[string]any{
			"player": player,
			"token":  m.Token,
			"roll":   m.Roll,
		},
	}
	// rolling a six grants another turn
	if m.Roll != 6 {
		next.TurnId = nextTurn(state)
	}

	return &next, nil
}

type chessRules struct{}

func (chessRules) MinPlayers() int { return 2 }
func (chessRules) MaxPlayers() int { return 2 }

func (chessRules) Start(players []int) *types.GameState {
	return &types.GameState{
		Mode:    types.ModeChess,
		Players: players,
		TurnId:  players[0],
		Board: map[string]any{
			"moves": 0,
		},
	}
}

type chessMove struct {
	From string `json:"from"`
	To   string `json:"to"`
}

func (chessRules) ApplyMove(state *types.GameState, player int, move json.RawMessage) (*types.GameState, error) {
	var m chessMove
	if err := json.Unmarshal(move, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	if !validSquare(m.From) || !validSquare(m.To) {
		return nil, fmt.Errorf("%w: bad square %q-%q", ErrIllegalMove, m.From, m.To)
	}
	if m.From == m.To {
		return nil, fmt.Errorf("%w: move must change square", ErrIllegalMove)
	}

	next := *state
	next.Board = map[string]any{
		"moves": boardMoves(state) + 1,
		"last_move": map[string]any{
			"player": player,
			"from":   m.From,
			"to":     m.To,
		},
	}
	next.TurnId = nextTurn(state)

	return &next, nil
}

func validSquare(sq string) bool {
	return len(sq) == 2 &&
		sq[0] >= 'a' && sq[0] <= 'h' &&
		sq[1] >= '1' && sq[1] <= '8'
}

func boardMoves(state *types.GameState) int {
	if n, ok := state.Board["moves"].(int); ok {
		return n
	}
	return 0
}
