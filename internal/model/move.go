package model

import (
	"fmt"

	"github.com/kollin78/chess/internal/chess"
)

// WSMove is a move submitted by a client, in UCI form ("e2e4", "e7e8q").
type WSMove struct {
	Move string `json:"move"`
}

func (m WSMove) Parse() (chess.Move, error) {
	move, err := chess.ParseMove(m.Move)
	if err != nil {
		return chess.Move{}, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	return move, nil
}

// SimpleMove is a move as sent back to clients.
type SimpleMove struct {
	From      string          `json:"from"`
	To        string          `json:"to"`
	Promotion chess.PieceType `json:"promotion,omitempty"`
	UCI       string          `json:"uci"`
}

func NewSimpleMove(m chess.Move) SimpleMove {
	return SimpleMove{
		From:      m.From.String(),
		To:        m.To.String(),
		Promotion: m.Promotion,
		UCI:       m.String(),
	}
}

func NewSimpleMoves(moves []chess.Move) []SimpleMove {
	out := make([]SimpleMove, 0, len(moves))
	for _, m := range moves {
		out = append(out, NewSimpleMove(m))
	}
	return out
}
