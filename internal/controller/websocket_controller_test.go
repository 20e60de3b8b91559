package controller

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/kollin78/chess/internal/chess"
	"github.com/kollin78/chess/internal/model"
	"github.com/kollin78/chess/internal/service"
	"github.com/kollin78/chess/internal/ws"
)

func newWSController(t *testing.T) (*WebSocketController, string) {
	t.Helper()
	gs := service.NewGameService(service.NewGameManager(nil))
	id, err := gs.CreateGame("")
	if err != nil {
		t.Fatal(err)
	}
	gs.JoinGame(id, "alice")
	gs.JoinGame(id, "bob")
	return NewWebSocketController(gs), id
}

func message(t *testing.T, typ ws.MessageType, payload any) ws.Message {
	t.Helper()
	msg, err := ws.NewMessage(typ, payload)
	if err != nil {
		t.Fatal(err)
	}
	return msg
}

func TestHandleMessage(t *testing.T) {
	wsc, id := newWSController(t)

	reply, err := wsc.handleMessage(id, "alice", message(t, ws.MessageTypeValidMoves, ws.ValidMovesRequest{Square: "e2"}))
	if err != nil {
		t.Fatal(err)
	}
	if reply.Type != ws.MessageTypeValidMoves {
		t.Fatalf("reply type = %q", reply.Type)
	}
	var vm validMovesReply
	if err := json.Unmarshal(reply.Payload, &vm); err != nil {
		t.Fatal(err)
	}
	if vm.Square != "e2" || len(vm.Moves) != 2 {
		t.Errorf("valid moves = %+v", vm)
	}

	reply, err = wsc.handleMessage(id, "alice", message(t, ws.MessageTypeMove, model.WSMove{Move: "e2e4"}))
	if err != nil || reply.Type != "" {
		t.Fatalf("move reply = %+v, %v", reply, err)
	}

	reply, err = wsc.handleMessage(id, "bob", message(t, ws.MessageTypeGameState, nil))
	if err != nil {
		t.Fatal(err)
	}
	var state model.State
	json.Unmarshal(reply.Payload, &state)
	if state.ToMove != chess.Black || state.Moves != 1 {
		t.Errorf("state = %+v", state)
	}
}

func TestHandleMessageErrors(t *testing.T) {
	wsc, id := newWSController(t)

	tests := []struct {
		name   string
		player string
		msg    ws.Message
		want   error
	}{
		{"unknown type", "alice", ws.Message{Type: "resign", Payload: json.RawMessage(`{}`)}, model.ErrBadInput},
		{"bad payload", "alice", ws.Message{Type: ws.MessageTypeMove, Payload: json.RawMessage(`"e2e4"`)}, model.ErrBadInput},
		{"bad square", "alice", message(t, ws.MessageTypeValidMoves, ws.ValidMovesRequest{Square: "i1"}), model.ErrBadInput},
		{"out of turn", "bob", message(t, ws.MessageTypeMove, model.WSMove{Move: "e7e5"}), model.ErrNotYourColor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := wsc.handleMessage(id, tt.player, tt.msg); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	if _, err := wsc.handleMessage("missing", "alice", message(t, ws.MessageTypeGameState, nil)); !errors.Is(err, service.ErrGameNotFound) {
		t.Errorf("missing game err = %v", err)
	}
}

func TestErrorMessage(t *testing.T) {
	msg := ws.ErrorMessage(model.ErrGameOver)
	if msg.Type != ws.MessageTypeError || string(msg.Payload) != `{"error":"game is over"}` {
		t.Errorf("error message = %s %s", msg.Type, msg.Payload)
	}
}
