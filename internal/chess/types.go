package chess

import (
	"fmt"
	"strings"
)

type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Opponent returns the other side.
func (c Color) Opponent() Color {
	if c == White {
		return Black
	}
	return White
}

// homeRow is the back rank of the color.
func (c Color) homeRow() int {
	if c == White {
		return 1
	}
	return 8
}

// forward is the row direction pawns of the color advance in.
func (c Color) forward() int {
	if c == White {
		return 1
	}
	return -1
}

type PieceType string

const (
	NoPieceType PieceType = ""
	King        PieceType = "king"
	Queen       PieceType = "queen"
	Rook        PieceType = "rook"
	Bishop      PieceType = "bishop"
	Knight      PieceType = "knight"
	Pawn        PieceType = "pawn"
)

// promotionTypes lists the pieces a pawn may become, in the order moves are generated.
var promotionTypes = []PieceType{Queen, Rook, Bishop, Knight}

func (p PieceType) notation() string {
	switch p {
	case King:
		return "k"
	case Queen:
		return "q"
	case Rook:
		return "r"
	case Bishop:
		return "b"
	case Knight:
		return "n"
	case Pawn:
		return "p"
	}
	return ""
}

func pieceTypeFromNotation(c byte) PieceType {
	switch c {
	case 'k', 'K':
		return King
	case 'q', 'Q':
		return Queen
	case 'r', 'R':
		return Rook
	case 'b', 'B':
		return Bishop
	case 'n', 'N':
		return Knight
	case 'p', 'P':
		return Pawn
	}
	return NoPieceType
}

// Position is a square on the board. Row is the rank and Col the file, both 1-8.
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) Valid() bool {
	return p.Row >= 1 && p.Row <= 8 && p.Col >= 1 && p.Col <= 8
}

func (p Position) offset(dRow, dCol int) Position {
	return Position{Row: p.Row + dRow, Col: p.Col + dCol}
}

// String returns the algebraic name of the square, e.g. "e4".
func (p Position) String() string {
	if !p.Valid() {
		return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col-1, p.Row)
}

// ParseSquare parses an algebraic square name such as "e4".
func ParseSquare(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 || s[0] < 'a' || s[0] > 'h' || s[1] < '1' || s[1] > '8' {
		return Position{}, fmt.Errorf("invalid square %q", s)
	}
	return Position{Row: int(s[1]-'1') + 1, Col: int(s[0]-'a') + 1}, nil
}

// Move is a single move. Promotion is NoPieceType unless a pawn reaches the last rank.
type Move struct {
	From      Position  `json:"from"`
	To        Position  `json:"to"`
	Promotion PieceType `json:"promotion,omitempty"`
}

// String returns the move in UCI long algebraic form, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	return m.From.String() + m.To.String() + m.Promotion.notation()
}

// ParseMove parses a move in UCI long algebraic form.
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 && len(s) != 5 {
		return Move{}, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return Move{}, fmt.Errorf("invalid move %q: %w", s, err)
	}
	m := Move{From: from, To: to}
	if len(s) == 5 {
		m.Promotion = pieceTypeFromNotation(s[4])
		if m.Promotion == NoPieceType || m.Promotion == King || m.Promotion == Pawn {
			return Move{}, fmt.Errorf("invalid promotion in move %q", s)
		}
	}
	return m, nil
}
