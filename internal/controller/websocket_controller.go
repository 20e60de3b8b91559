package controller

import (
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/kollin78/chess/internal/middleware"
	"github.com/kollin78/chess/internal/model"
	"github.com/kollin78/chess/internal/service"
	"github.com/kollin78/chess/internal/ws"
)

type WebSocketController struct {
	gameService *service.GameService
}

func NewWebSocketController(gameService *service.GameService) *WebSocketController {
	return &WebSocketController{
		gameService: gameService,
	}
}

func playerIDOf(c *websocket.Conn) string {
	id, _ := c.Locals(middleware.PlayerIDKey).(string)
	return id
}

// HandleConnection serves one player's connection to a game until it closes.
func (wsc *WebSocketController) HandleConnection(c *websocket.Conn) {
	gameID := c.Params("gameId")
	playerID := playerIDOf(c)

	client, err := wsc.gameService.RegisterConnection(gameID, playerID, c)
	if err != nil {
		log.Warnw("failed to register connection", "game", gameID, "player", playerID, "error", err)
		c.WriteJSON(ws.ErrorMessage(err))
		c.Close()
		return
	}
	defer wsc.gameService.UnregisterConnection(gameID, playerID, client)

	for {
		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Warnw("read error", "game", gameID, "player", playerID, "error", err)
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}

		var msg ws.Message
		if err := json.Unmarshal(message, &msg); err != nil {
			client.Send(ws.ErrorMessage(fmt.Errorf("%w: %v", model.ErrBadInput, err)))
			continue
		}
		reply, err := wsc.handleMessage(gameID, playerID, msg)
		if err != nil {
			log.Debugf("message %s from %s in %s failed: %v", msg.Type, playerID, gameID, err)
			reply = ws.ErrorMessage(err)
		}
		if reply.Type == "" {
			continue
		}
		if err := client.Send(reply); err != nil {
			log.Warnw("write error", "game", gameID, "player", playerID, "error", err)
			return
		}
	}
}

// handleMessage returns the reply for the sender, if any. Moves get none:
// the new state reaches every connection by broadcast.
func (wsc *WebSocketController) handleMessage(gameID, playerID string, msg ws.Message) (ws.Message, error) {
	switch msg.Type {
	case ws.MessageTypeMove:
		var move model.WSMove
		if err := json.Unmarshal(msg.Payload, &move); err != nil {
			return ws.Message{}, fmt.Errorf("%w: %v", model.ErrBadInput, err)
		}
		_, err := wsc.gameService.HandleMove(gameID, playerID, move)
		return ws.Message{}, err

	case ws.MessageTypeValidMoves:
		var req ws.ValidMovesRequest
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			return ws.Message{}, fmt.Errorf("%w: %v", model.ErrBadInput, err)
		}
		moves, err := wsc.gameService.ValidMoves(gameID, req.Square)
		if err != nil {
			return ws.Message{}, err
		}
		return ws.NewMessage(ws.MessageTypeValidMoves, validMovesReply{Square: req.Square, Moves: moves})

	case ws.MessageTypeGameState:
		state, err := wsc.gameService.GetGameState(gameID)
		if err != nil {
			return ws.Message{}, err
		}
		return ws.NewMessage(ws.MessageTypeGameState, state)

	default:
		return ws.Message{}, fmt.Errorf("%w: unknown message type %q", model.ErrBadInput, msg.Type)
	}
}

type validMovesReply struct {
	Square string             `json:"square"`
	Moves  []model.SimpleMove `json:"moves"`
}

// HandleMatchmaking queues the player and holds the connection open until a
// match is found or the client goes away.
func (wsc *WebSocketController) HandleMatchmaking(c *websocket.Conn) {
	playerID := playerIDOf(c)
	ch, leave, err := wsc.gameService.StartMatchmaking(playerID)
	if err != nil {
		log.Warnw("failed to join matchmaking", "player", playerID, "error", err)
		c.WriteJSON(ws.ErrorMessage(err))
		return
	}
	defer leave()

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	select {
	case event, ok := <-ch:
		if !ok {
			// Closed without a match.
			return
		}
		msg, err := ws.NewMessage(ws.MessageTypeMatchFound, event)
		if err != nil {
			log.Errorw("failed to marshal match event", "player", playerID, "error", err)
			return
		}
		if err := c.WriteJSON(msg); err != nil {
			log.Warnw("failed to send match event", "player", playerID, "game", event.GameID, "error", err)
		}
	case <-gone:
		log.Infow("player left matchmaking", "player", playerID)
	}
}
