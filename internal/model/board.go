package model

import "github.com/kollin78/chess/internal/chess"

// PieceView is a piece as the client sees it.
type PieceView struct {
	Type     chess.PieceType `json:"type"`
	Color    chess.Color     `json:"color"`
	Position string          `json:"position"`
	HasMoved bool            `json:"hasMoved"`
}

// BoardState is the board as sent to clients. Board[0] is rank 8 and
// Board[0][0] is a8, so the grid reads top-down from White's side.
type BoardState struct {
	Board             [8][8]*PieceView `json:"board"`
	BlackKingPosition string           `json:"blackKingPosition,omitempty"`
	WhiteKingPosition string           `json:"whiteKingPosition,omitempty"`
}

func newBoardState(b *chess.Board) *BoardState {
	state := &BoardState{}
	b.Each(func(pos chess.Position, p *chess.Piece) {
		state.Board[8-pos.Row][pos.Col-1] = &PieceView{
			Type:     p.Type(),
			Color:    p.Color(),
			Position: pos.String(),
			HasMoved: p.HasMoved(),
		}
		if p.Type() == chess.King {
			switch p.Color() {
			case chess.White:
				state.WhiteKingPosition = pos.String()
			case chess.Black:
				state.BlackKingPosition = pos.String()
			}
		}
	})
	return state
}
