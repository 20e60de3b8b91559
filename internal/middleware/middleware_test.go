package middleware

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func newApp() *fiber.App {
	app := fiber.New()
	app.Use(EnsurePlayerID())
	app.Get("/whoami", func(c *fiber.Ctx) error {
		return c.SendString(PlayerID(c))
	})
	app.Get("/ws", WebSocketUpgrade(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	return app
}

func TestEnsurePlayerID(t *testing.T) {
	app := newApp()
	tests := []struct {
		name   string
		target string
		header string
		status int
		body   string
	}{
		{"header", "/whoami", "alice", fiber.StatusOK, "alice"},
		{"query", "/whoami?playerId=bob", "", fiber.StatusOK, "bob"},
		{"header wins", "/whoami?playerId=bob", "alice", fiber.StatusOK, "alice"},
		{"missing", "/whoami", "", fiber.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.target, nil)
			if tt.header != "" {
				req.Header.Set("X-Player-ID", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatal(err)
			}
			if resp.StatusCode != tt.status {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			if tt.body != "" {
				body, _ := io.ReadAll(resp.Body)
				if string(body) != tt.body {
					t.Errorf("body = %q, want %q", body, tt.body)
				}
			}
		})
	}
}

func TestPlayerIDOutlivesRequest(t *testing.T) {
	var kept []string
	app := fiber.New()
	app.Use(EnsurePlayerID())
	app.Get("/seat", func(c *fiber.Ctx) error {
		kept = append(kept, PlayerID(c))
		return c.SendStatus(fiber.StatusNoContent)
	})

	ids := []string{"alice", "bob", "zzzzz", "yyyyy"}
	for i, id := range ids {
		req := httptest.NewRequest("GET", "/seat", nil)
		if i%2 == 0 {
			req.Header.Set("X-Player-ID", id)
		} else {
			req = httptest.NewRequest("GET", "/seat?playerId="+id, nil)
		}
		if _, err := app.Test(req); err != nil {
			t.Fatal(err)
		}
	}
	for i, id := range ids {
		if kept[i] != id {
			t.Errorf("kept[%d] = %q, want %q", i, kept[i], id)
		}
	}
}

func TestWebSocketUpgradeRequiresUpgrade(t *testing.T) {
	req := httptest.NewRequest("GET", "/ws?playerId=alice", nil)
	resp, err := newApp().Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want %d", resp.StatusCode, fiber.StatusUpgradeRequired)
	}
}
