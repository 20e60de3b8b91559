package controller

import (
	"bytes"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/kollin78/chess/internal/chess"
	"github.com/kollin78/chess/internal/middleware"
	"github.com/kollin78/chess/internal/model"
	"github.com/kollin78/chess/internal/service"
)

type GameController struct {
	gameService *service.GameService
}

func NewGameController(gameService *service.GameService) *GameController {
	return &GameController{gameService: gameService}
}

type createGameRequest struct {
	FEN string `json:"fen"`
}

func (gc *GameController) CreateGame(c *fiber.Ctx) error {
	var req createGameRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return sendError(c, model.ErrBadInput)
		}
	}

	gameID, err := gc.gameService.CreateGame(req.FEN)
	if err != nil {
		return sendError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Game created",
		"game_id": gameID,
	})
}

func (gc *GameController) JoinGame(c *fiber.Ctx) error {
	color, err := gc.gameService.JoinGame(c.Params("gameId"), middleware.PlayerID(c))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Game joined",
		"color":   color,
	})
}

func (gc *GameController) GetGameState(c *fiber.Ctx) error {
	gameState, err := gc.gameService.GetGameState(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(gameState)
}

func (gc *GameController) ValidMoves(c *fiber.Ctx) error {
	square := c.Query("square")
	moves, err := gc.gameService.ValidMoves(c.Params("gameId"), square)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"square": square,
		"moves":  moves,
	})
}

func (gc *GameController) MakeMove(c *fiber.Ctx) error {
	var move model.WSMove
	if err := c.BodyParser(&move); err != nil {
		return sendError(c, model.ErrBadInput)
	}

	gameState, err := gc.gameService.HandleMove(c.Params("gameId"), middleware.PlayerID(c), move)
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(gameState)
}

// BoardSVG draws the board; ?flip=true shows it from Black's side.
func (gc *GameController) BoardSVG(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := gc.gameService.RenderBoard(c.Params("gameId"), &buf, c.QueryBool("flip")); err != nil {
		return sendError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/svg+xml")
	return c.Send(buf.Bytes())
}

func (gc *GameController) Stats(c *fiber.Ctx) error {
	stats, err := gc.gameService.Stats()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(stats)
}

func (gc *GameController) Results(c *fiber.Ctx) error {
	results, err := gc.gameService.Results()
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(results)
}

func (gc *GameController) Result(c *fiber.Ctx) error {
	result, err := gc.gameService.Result(c.Params("gameId"))
	if err != nil {
		return sendError(c, err)
	}
	return c.JSON(result)
}

func (gc *GameController) JoinMatchmaking(c *fiber.Ctx) error {
	if err := gc.gameService.JoinMatchmaking(middleware.PlayerID(c)); err != nil {
		return sendError(c, err)
	}
	return c.JSON(fiber.Map{
		"status": "queued",
	})
}

func (gc *GameController) LeaveMatchmaking(c *fiber.Ctx) error {
	if !gc.gameService.LeaveMatchmaking(middleware.PlayerID(c)) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "player not in queue",
		})
	}
	return c.JSON(fiber.Map{
		"status": "left",
	})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrGameNotFound), errors.Is(err, service.ErrResultNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, chess.ErrIllegalMove):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, chess.ErrInvalidMove), errors.Is(err, model.ErrBadInput):
		return fiber.StatusBadRequest
	case errors.Is(err, model.ErrNotInGame), errors.Is(err, model.ErrNotYourColor), errors.Is(err, model.ErrUnauthorized):
		return fiber.StatusForbidden
	case errors.Is(err, model.ErrGameFull), errors.Is(err, model.ErrGameOver),
		errors.Is(err, model.ErrAlreadyQueued), errors.Is(err, model.ErrConnected), errors.Is(err, service.ErrGameExists):
		return fiber.StatusConflict
	}
	return fiber.StatusInternalServerError
}

func sendError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return c.Status(status).JSON(fiber.Map{
			"error": "internal error",
		})
	}
	return c.Status(status).JSON(fiber.Map{
		"error": err.Error(),
	})
}
