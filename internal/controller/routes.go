package controller

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/kollin78/chess/internal/middleware"
)

// Routes mounts the REST API under /api and the websocket endpoints under /ws.
// origins limits which pages may open websockets; empty allows all.
func Routes(app *fiber.App, gc *GameController, wsc *WebSocketController, origins []string) {
	wsConfig := websocket.Config{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		Origins:         origins,
	}
	wsGroup := app.Group("/ws", middleware.EnsurePlayerID(), middleware.WebSocketUpgrade())
	wsGroup.Get("/game/:gameId", websocket.New(wsc.HandleConnection, wsConfig))
	wsGroup.Get("/matchmaking", websocket.New(wsc.HandleMatchmaking, wsConfig))

	api := app.Group("/api", middleware.EnsurePlayerID())
	api.Get("/stats", gc.Stats)
	api.Get("/results", gc.Results)
	api.Get("/results/:gameId", gc.Result)

	gameRoutes := api.Group("/game")
	gameRoutes.Post("/matchmaking/join", gc.JoinMatchmaking)
	gameRoutes.Post("/matchmaking/leave", gc.LeaveMatchmaking)
	gameRoutes.Post("/create", gc.CreateGame)
	gameRoutes.Post("/join/:gameId", gc.JoinGame)
	gameRoutes.Get("/:gameId", gc.GetGameState)
	gameRoutes.Get("/:gameId/moves", gc.ValidMoves)
	gameRoutes.Post("/:gameId/move", gc.MakeMove)
	gameRoutes.Get("/:gameId/board.svg", gc.BoardSVG)
}
