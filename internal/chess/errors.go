package chess

import (
	"errors"
	"fmt"
)

// ErrInvalidMove matches every rejected MakeMove.
var ErrInvalidMove = errors.New("invalid move")

var (
	ErrNoPiece     = errors.New("no piece at from square")
	ErrWrongTurn   = errors.New("not your turn")
	ErrIllegalMove = errors.New("move is not legal")
)

// InvalidMoveError is returned by Game.MakeMove. The game is left untouched.
type InvalidMoveError struct {
	Move   Move
	Reason error
}

func (e *InvalidMoveError) Error() string {
	return fmt.Sprintf("invalid move %s: %v", e.Move, e.Reason)
}

func (e *InvalidMoveError) Unwrap() error {
	return e.Reason
}

func (e *InvalidMoveError) Is(target error) bool {
	return target == ErrInvalidMove
}
