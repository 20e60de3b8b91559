package model

import (
	"errors"

	"github.com/kollin78/chess/internal/chess"
)

var (
	ErrGameFull      = errors.New("game is full")
	ErrNotInGame     = errors.New("player not in game")
	ErrNotYourColor  = errors.New("not your turn")
	ErrGameOver      = errors.New("game is over")
	ErrAlreadyQueued = errors.New("player already in queue")
	ErrBadInput      = errors.New("bad input")
	ErrUnauthorized  = errors.New("not authorized to join this game")
	ErrConnected     = errors.New("connection already exists")
)

type Player struct {
	ID    string
	Color chess.Color
}

type ClientPlayer struct {
	ID        string      `json:"name"`
	Color     chess.Color `json:"color"`
	Connected bool        `json:"connected"`
}

type Players struct {
	White ClientPlayer `json:"white"`
	Black ClientPlayer `json:"black"`
}

func (p *Players) seat(color chess.Color) *ClientPlayer {
	if color == chess.White {
		return &p.White
	}
	return &p.Black
}
