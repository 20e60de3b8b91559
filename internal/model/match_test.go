package model

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/kollin78/chess/internal/chess"
	"github.com/kollin78/chess/internal/ws"
)

type fakeConn struct {
	mu     sync.Mutex
	sent   chan ws.Message
	closed bool
	fail   bool
}

func newFakeConn() *fakeConn {
	return &fakeConn{sent: make(chan ws.Message, 16)}
}

func (c *fakeConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.fail {
		return errors.New("broken pipe")
	}
	c.sent <- v.(ws.Message)
	return nil
}

func (c *fakeConn) WriteMessage(int, []byte) error { return nil }

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) next(t *testing.T) State {
	t.Helper()
	select {
	case msg := <-c.sent:
		if msg.Type != ws.MessageTypeGameState {
			t.Fatalf("message type = %q, want %q", msg.Type, ws.MessageTypeGameState)
		}
		var s State
		if err := json.Unmarshal(msg.Payload, &s); err != nil {
			t.Fatalf("decode state: %v", err)
		}
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("no state broadcast")
		return State{}
	}
}

// quiet fails if anything is sent within d.
func (c *fakeConn) quiet(t *testing.T, d time.Duration) {
	t.Helper()
	select {
	case msg := <-c.sent:
		t.Fatalf("unexpected message %s %s", msg.Type, msg.Payload)
	case <-time.After(d):
	}
}

func move(t *testing.T, s string) chess.Move {
	t.Helper()
	m, err := chess.ParseMove(s)
	if err != nil {
		t.Fatalf("ParseMove(%q): %v", s, err)
	}
	return m
}

func seated(t *testing.T) *Match {
	t.Helper()
	m := NewMatch("g1")
	if c, err := m.AddPlayer("alice"); err != nil || c != chess.White {
		t.Fatalf("AddPlayer(alice) = %v, %v", c, err)
	}
	if c, err := m.AddPlayer("bob"); err != nil || c != chess.Black {
		t.Fatalf("AddPlayer(bob) = %v, %v", c, err)
	}
	return m
}

func TestAddPlayer(t *testing.T) {
	m := seated(t)

	if c, err := m.AddPlayer("alice"); err != nil || c != chess.White {
		t.Errorf("rejoin = %v, %v; want white", c, err)
	}
	if _, err := m.AddPlayer("carol"); !errors.Is(err, ErrGameFull) {
		t.Errorf("third player err = %v, want ErrGameFull", err)
	}
	if c, ok := m.ColorOf("bob"); !ok || c != chess.Black {
		t.Errorf("ColorOf(bob) = %v, %v", c, ok)
	}
	if _, ok := m.ColorOf(""); ok {
		t.Error("empty ID should not be seated")
	}
}

func TestMakeMoveErrors(t *testing.T) {
	m := seated(t)

	tests := []struct {
		name   string
		player string
		move   string
		want   error
	}{
		{"stranger", "carol", "e2e4", ErrNotInGame},
		{"out of turn", "bob", "e7e5", ErrNotYourColor},
		{"empty square", "alice", "e4e5", chess.ErrNoPiece},
		{"opponent piece", "alice", "e7e5", chess.ErrWrongTurn},
		{"illegal", "alice", "e2e5", chess.ErrIllegalMove},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.MakeMove(tt.player, move(t, tt.move))
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if s := m.State(); s.Moves != 0 || s.ToMove != chess.White {
		t.Errorf("rejected moves changed state: %+v", s)
	}
}

func TestMakeMoveFinishes(t *testing.T) {
	m := seated(t)
	var results []Result
	m.OnFinish(func(_ *Match, r Result) { results = append(results, r) })

	for i, s := range []string{"f2f3", "e7e5", "g2g4", "d8h4"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if err := m.MakeMove(player, move(t, s)); err != nil {
			t.Fatalf("move %s: %v", s, err)
		}
	}

	if len(results) != 1 {
		t.Fatalf("OnFinish called %d times, want 1", len(results))
	}
	want := Result{Winner: chess.Black, Method: chess.StatusCheckmate, Moves: 4}
	if results[0] != want {
		t.Errorf("result = %+v, want %+v", results[0], want)
	}

	s := m.State()
	if s.Status != chess.StatusCheckmate || !s.IsCheck || s.Result == nil {
		t.Errorf("state = %+v", s)
	}
	if s.LastMove == nil || s.LastMove.UCI != "d8h4" {
		t.Errorf("last move = %+v", s.LastMove)
	}
	if err := m.MakeMove("alice", move(t, "a2a3")); !errors.Is(err, ErrGameOver) {
		t.Errorf("move after mate err = %v, want ErrGameOver", err)
	}
}

func TestNewMatchFromFEN(t *testing.T) {
	if _, err := NewMatchFromFEN("g", "not a fen"); !errors.Is(err, ErrBadInput) {
		t.Errorf("bad FEN err = %v, want ErrBadInput", err)
	}

	m, err := NewMatchFromFEN("g", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	s := m.State()
	if s.Result == nil || s.Result.Method != chess.StatusStalemate || s.Result.Winner != "" {
		t.Errorf("result = %+v, want stalemate", s.Result)
	}
	if s.Board.WhiteKingPosition != "g6" || s.Board.BlackKingPosition != "h8" {
		t.Errorf("kings = %s %s", s.Board.WhiteKingPosition, s.Board.BlackKingPosition)
	}
	if p := s.Board.Board[1][5]; p == nil || p.Type != chess.Queen || p.Position != "f7" {
		t.Errorf("f7 = %+v", p)
	}
	if s.CreatedAt.IsZero() || !s.CreatedAt.Equal(m.CreatedAt) {
		t.Errorf("createdAt = %v, match created %v", s.CreatedAt, m.CreatedAt)
	}
}

func TestValidMoves(t *testing.T) {
	m := NewMatch("g")
	got := NewSimpleMoves(m.ValidMoves(chess.Position{Row: 1, Col: 7}))
	if len(got) != 2 {
		t.Fatalf("knight moves = %v", got)
	}
	for _, sm := range got {
		if sm.From != "g1" || (sm.To != "f3" && sm.To != "h3") {
			t.Errorf("unexpected move %+v", sm)
		}
	}
}

func TestConnections(t *testing.T) {
	m := seated(t)

	alice := newFakeConn()
	client, err := m.RegisterConnection("alice", alice)
	if err != nil {
		t.Fatal(err)
	}
	if s := alice.next(t); !s.Players.White.Connected || s.Players.Black.Connected {
		t.Errorf("players = %+v", s.Players)
	}

	dup := newFakeConn()
	if _, err := m.RegisterConnection("alice", dup); !errors.Is(err, ErrConnected) {
		t.Errorf("duplicate err = %v, want ErrConnected", err)
	}
	if !dup.closed {
		t.Error("duplicate connection left open")
	}

	if _, err := m.RegisterConnection("carol", newFakeConn()); !errors.Is(err, ErrUnauthorized) {
		t.Errorf("stranger err = %v, want ErrUnauthorized", err)
	}

	if err := m.MakeMove("alice", move(t, "e2e4")); err != nil {
		t.Fatal(err)
	}
	if s := alice.next(t); s.LastMove == nil || s.LastMove.UCI != "e2e4" || s.ToMove != chess.Black {
		t.Errorf("broadcast after move = %+v", s)
	}

	m.UnregisterConnection("alice", client)
	if s := m.State(); s.Players.White.Connected {
		t.Error("alice still connected")
	}
}

func TestBroadcastDropsBrokenConnection(t *testing.T) {
	m := seated(t)
	conn := newFakeConn()
	if _, err := m.RegisterConnection("bob", conn); err != nil {
		t.Fatal(err)
	}
	conn.next(t)

	conn.mu.Lock()
	conn.fail = true
	conn.mu.Unlock()
	m.mu.Lock()
	state, seq := m.broadcastSnapshot()
	m.mu.Unlock()
	m.broadcastState(state, seq)

	if s := m.State(); s.Players.Black.Connected {
		t.Error("broken connection kept")
	}
}

func TestBroadcastSkipsStaleState(t *testing.T) {
	m := seated(t)
	conn := newFakeConn()
	if _, err := m.RegisterConnection("bob", conn); err != nil {
		t.Fatal(err)
	}
	conn.next(t)

	m.mu.Lock()
	stale, staleSeq := m.broadcastSnapshot()
	m.mu.Unlock()

	if err := m.MakeMove("alice", move(t, "e2e4")); err != nil {
		t.Fatal(err)
	}
	if s := conn.next(t); s.Moves != 1 {
		t.Fatalf("moves = %d, want 1", s.Moves)
	}

	// Delivered late, after the move's broadcast went out.
	m.broadcastState(stale, staleSeq)
	conn.quiet(t, 100*time.Millisecond)
}

func TestBroadcastEndsOnLatestState(t *testing.T) {
	m := seated(t)
	conn := newFakeConn()
	if _, err := m.RegisterConnection("alice", conn); err != nil {
		t.Fatal(err)
	}
	conn.next(t)

	if err := m.MakeMove("alice", move(t, "e2e4")); err != nil {
		t.Fatal(err)
	}
	if err := m.MakeMove("bob", move(t, "e7e5")); err != nil {
		t.Fatal(err)
	}

	last := -1
	for last != 2 {
		s := conn.next(t)
		if s.Moves < last {
			t.Fatalf("state with %d moves arrived after %d", s.Moves, last)
		}
		last = s.Moves
	}
	conn.quiet(t, 100*time.Millisecond)
	if s := m.State(); s.Moves != 2 || s.ToMove != chess.White {
		t.Errorf("state = %+v", s)
	}
}

func TestSnapshot(t *testing.T) {
	m := seated(t)
	for i, s := range []string{"e2e4", "f7f5", "d1h5"} {
		player := "alice"
		if i%2 == 1 {
			player = "bob"
		}
		if err := m.MakeMove(player, move(t, s)); err != nil {
			t.Fatalf("move %s: %v", s, err)
		}
	}

	snap := m.Snapshot()
	if snap.ToMove != chess.Black {
		t.Errorf("to move = %v", snap.ToMove)
	}
	if snap.LastMove == nil || snap.LastMove.String() != "d1h5" {
		t.Errorf("last move = %v", snap.LastMove)
	}
	if snap.Check == nil || snap.Check.String() != "e8" {
		t.Errorf("check = %v, want e8", snap.Check)
	}

	snap.Board.SetPiece(chess.Position{Row: 5, Col: 8}, nil)
	if s := m.State(); s.Status != chess.StatusCheck {
		t.Error("snapshot board shares state with the match")
	}
}
