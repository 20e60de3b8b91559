package render

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/kollin78/chess/internal/chess"
)

func TestBoard(t *testing.T) {
	var buf bytes.Buffer
	if err := Board(&buf, chess.NewStartingBoard(), Options{}); err != nil {
		t.Fatal(err)
	}
	out := buf.String()

	if !strings.HasPrefix(strings.TrimSpace(out), "<?xml") || !strings.HasSuffix(strings.TrimSpace(out), "</svg>") {
		t.Errorf("not an SVG document:\n%s", out)
	}
	if n := strings.Count(out, "<rect"); n != 64 {
		t.Errorf("rects = %d, want 64", n)
	}
	if n := strings.Count(out, "♙"); n != 8 {
		t.Errorf("white pawns = %d, want 8", n)
	}
	if n := strings.Count(out, "♚"); n != 1 {
		t.Errorf("black kings = %d, want 1", n)
	}
	if !strings.Contains(out, `width="480"`) {
		t.Error("default size not applied")
	}
}

func TestBoardHighlights(t *testing.T) {
	move, _ := chess.ParseMove("e2e4")
	king := chess.Position{Row: 1, Col: 5}
	var buf bytes.Buffer
	err := Board(&buf, chess.NewStartingBoard(), Options{
		SquareSize:  40,
		LastMove:    &move,
		Check:       &king,
		Coordinates: true,
		Flip:        true,
	})
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if n := strings.Count(out, "<rect"); n != 67 {
		t.Errorf("rects = %d, want 67", n)
	}
	if !strings.Contains(out, checkMark) || !strings.Contains(out, highlight) {
		t.Error("missing highlight styles")
	}
	// Flipped, e1 is in the top row: x = (8-5)*40, y = 0.
	if !strings.Contains(out, `<rect x="120" y="0" width="40" height="40" style="`+checkMark+`"`) {
		t.Errorf("check square misplaced:\n%s", out)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestBoardWriteError(t *testing.T) {
	if err := Board(brokenWriter{}, chess.NewBoard(), Options{}); err == nil {
		t.Error("expected write error")
	}
}
