package service

import (
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/kollin78/chess/internal/chess"
	"github.com/kollin78/chess/internal/model"
	"github.com/kollin78/chess/internal/render"
	"github.com/kollin78/chess/internal/storage"
)

type GameService struct {
	gameManager *GameManager
}

func NewGameService(gameManager *GameManager) *GameService {
	return &GameService{
		gameManager: gameManager,
	}
}

// CreateGame starts a new game, from the standard position when fen is empty.
func (gs *GameService) CreateGame(fen string) (string, error) {
	gameID := uuid.New().String()

	match := model.NewMatch(gameID)
	if fen != "" {
		var err error
		if match, err = model.NewMatchFromFEN(gameID, fen); err != nil {
			return "", err
		}
	}
	if err := gs.gameManager.AddGame(match); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	log.Infow("game created", "game", gameID, "fen", fen)
	return gameID, nil
}

func (gs *GameService) JoinGame(gameID string, playerID string) (chess.Color, error) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return "", err
	}
	return match.AddPlayer(playerID)
}

func (gs *GameService) JoinMatchmaking(playerID string) error {
	return gs.gameManager.JoinMatchmaking(playerID)
}

func (gs *GameService) LeaveMatchmaking(playerID string) bool {
	return gs.gameManager.LeaveMatchmaking(playerID)
}

func (gs *GameService) GetGameState(gameID string) (model.State, error) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.State{}, err
	}
	return match.State(), nil
}

// ValidMoves lists the legal moves of the piece on square, e.g. "e2".
func (gs *GameService) ValidMoves(gameID string, square string) ([]model.SimpleMove, error) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	pos, err := chess.ParseSquare(square)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrBadInput, err)
	}
	return model.NewSimpleMoves(match.ValidMoves(pos)), nil
}

// HandleMove plays a move and returns the resulting state.
func (gs *GameService) HandleMove(gameID string, playerID string, move model.WSMove) (model.State, error) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return model.State{}, err
	}
	m, err := move.Parse()
	if err != nil {
		return model.State{}, err
	}
	if err := match.MakeMove(playerID, m); err != nil {
		return model.State{}, err
	}
	return match.State(), nil
}

// RenderBoard writes the game's board as SVG, seen from Black's side when flip is set.
func (gs *GameService) RenderBoard(gameID string, w io.Writer, flip bool) error {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return err
	}
	snap := match.Snapshot()
	return render.Board(w, snap.Board, render.Options{
		Flip:        flip,
		LastMove:    snap.LastMove,
		Check:       snap.Check,
		Coordinates: true,
	})
}

func (gs *GameService) Results() ([]storage.Result, error) {
	return gs.gameManager.Results()
}

func (gs *GameService) Result(gameID string) (storage.Result, error) {
	return gs.gameManager.Result(gameID)
}

func (gs *GameService) Stats() (storage.Stats, error) {
	return gs.gameManager.Stats()
}

func (gs *GameService) RegisterConnection(gameID string, playerID string, conn model.Conn) (*model.Client, error) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return nil, err
	}
	return match.RegisterConnection(playerID, conn)
}

func (gs *GameService) UnregisterConnection(gameID string, playerID string, client *model.Client) {
	match, err := gs.gameManager.GetGame(gameID)
	if err != nil {
		return
	}
	match.UnregisterConnection(playerID, client)
}

// StartMatchmaking queues the player for a websocket wait. See GameManager.StartMatchmaking.
func (gs *GameService) StartMatchmaking(playerID string) (<-chan model.MatchFoundEvent, func(), error) {
	return gs.gameManager.StartMatchmaking(playerID)
}
