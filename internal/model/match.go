package model

import (
	"fmt"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/websocket/v2"
	"github.com/kollin78/chess/internal/chess"
	"github.com/kollin78/chess/internal/ws"
)

// Conn is the part of a websocket connection a match writes to.
type Conn interface {
	WriteJSON(v interface{}) error
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client serializes writes to one connection; broadcasts and replies may race.
type Client struct {
	conn Conn
	mu   sync.Mutex
	seq  uint64 // newest state sent
}

func (c *Client) Send(msg ws.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(msg)
}

// sendState writes a state broadcast unless a newer one already went out.
func (c *Client) sendState(msg ws.Message, seq uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq <= c.seq {
		return nil
	}
	c.seq = seq
	return c.conn.WriteJSON(msg)
}

// The connections for a specific match
type GameConnections struct {
	connections map[string]*Client // playerID -> client
	mu          sync.RWMutex
}

func NewGameConnections() *GameConnections {
	return &GameConnections{
		connections: make(map[string]*Client),
	}
}

// Result is how a finished match ended. Winner is empty for a stalemate.
type Result struct {
	Winner chess.Color  `json:"winner,omitempty"`
	Method chess.Status `json:"method"`
	Moves  int          `json:"moves"`
}

// State is a snapshot of a match for clients.
type State struct {
	ID        string       `json:"id"`
	Board     *BoardState  `json:"boardState"`
	ToMove    chess.Color  `json:"toMove"`
	Status    chess.Status `json:"status"`
	IsCheck   bool         `json:"isCheck"`
	LastMove  *SimpleMove  `json:"lastMove"`
	Moves     int          `json:"moves"`
	Players   Players      `json:"players"`
	Result    *Result      `json:"result"`
	FEN       string       `json:"fen"`
	CreatedAt time.Time    `json:"createdAt"`
}

// Match is one game played over the network. The rules engine rearranges its
// board while checking legality, so every access to it goes through mu.
type Match struct {
	ID          string
	CreatedAt   time.Time
	mu          sync.Mutex
	game        *chess.Game
	players     Players
	moves       int
	result      *Result
	seq         uint64 // bumped for every broadcast snapshot
	onFinish    func(*Match, Result)
	connections *GameConnections
}

func NewMatch(id string) *Match {
	return newMatch(id, chess.NewGame())
}

// NewMatchFromFEN starts a match from a custom position.
func NewMatchFromFEN(id, fen string) (*Match, error) {
	game, err := chess.ParseFEN(fen)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadInput, err)
	}
	m := newMatch(id, game)
	if status := game.Status(); status.Over() {
		m.result = resultFor(game, status, 0)
	}
	return m, nil
}

func newMatch(id string, game *chess.Game) *Match {
	return &Match{
		ID:          id,
		CreatedAt:   time.Now(),
		game:        game,
		connections: NewGameConnections(),
	}
}

// OnFinish registers a callback run once, outside the match lock, when a move ends the game.
func (m *Match) OnFinish(fn func(*Match, Result)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onFinish = fn
}

func (m *Match) AddPlayer(playerID string) (chess.Color, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if color, ok := m.colorOf(playerID); ok {
		return color, nil
	}
	for _, color := range []chess.Color{chess.White, chess.Black} {
		if seat := m.players.seat(color); seat.ID == "" {
			*seat = ClientPlayer{ID: playerID, Color: color}
			log.Infow("player seated", "game", m.ID, "player", playerID, "color", color)
			return color, nil
		}
	}
	return "", ErrGameFull
}

func (m *Match) ColorOf(playerID string) (chess.Color, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.colorOf(playerID)
}

func (m *Match) colorOf(playerID string) (chess.Color, bool) {
	switch {
	case playerID == "":
		return "", false
	case m.players.White.ID == playerID:
		return chess.White, true
	case m.players.Black.ID == playerID:
		return chess.Black, true
	}
	return "", false
}

func (m *Match) hasOpenSeat() bool {
	return m.players.White.ID == "" || m.players.Black.ID == ""
}

// ValidMoves returns the legal moves of the piece on the square.
func (m *Match) ValidMoves(pos chess.Position) []chess.Move {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.game.ValidMoves(pos)
}

// MakeMove plays a move for the player. Rule violations come back as
// *chess.InvalidMoveError; seat and turn problems as the model errors.
func (m *Match) MakeMove(playerID string, move chess.Move) error {
	m.mu.Lock()

	color, ok := m.colorOf(playerID)
	if !ok {
		m.mu.Unlock()
		return ErrNotInGame
	}
	if m.result != nil {
		m.mu.Unlock()
		return ErrGameOver
	}
	if color != m.game.Turn() {
		m.mu.Unlock()
		return ErrNotYourColor
	}
	if err := m.game.MakeMove(move); err != nil {
		m.mu.Unlock()
		return err
	}
	m.moves++
	log.Debugw("move played", "game", m.ID, "player", playerID, "move", move.String())

	var finished *Result
	if status := m.game.Status(); status.Over() {
		m.result = resultFor(m.game, status, m.moves)
		finished = m.result
		log.Infow("game finished", "game", m.ID, "method", status, "winner", m.result.Winner)
	}
	onFinish := m.onFinish
	state, seq := m.broadcastSnapshot()
	m.mu.Unlock()

	if finished != nil && onFinish != nil {
		onFinish(m, *finished)
	}
	go m.broadcastState(state, seq)
	return nil
}

func resultFor(game *chess.Game, status chess.Status, moves int) *Result {
	r := &Result{Method: status, Moves: moves}
	if status == chess.StatusCheckmate {
		r.Winner = game.Turn().Opponent()
	}
	return r
}

// State returns a snapshot of the match.
func (m *Match) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state()
}

// broadcastSnapshot numbers a state for broadcasting. Callers hold m.mu.
func (m *Match) broadcastSnapshot() (State, uint64) {
	m.seq++
	return m.state(), m.seq
}

func (m *Match) state() State {
	status := m.game.Status()
	s := State{
		ID:        m.ID,
		Board:     newBoardState(m.game.Board()),
		ToMove:    m.game.Turn(),
		Status:    status,
		IsCheck:   status == chess.StatusCheck || status == chess.StatusCheckmate,
		Moves:     m.moves,
		Players:   m.players,
		FEN:       m.game.FEN(),
		CreatedAt: m.CreatedAt,
	}
	if last, ok := m.game.LastMove(); ok {
		lm := NewSimpleMove(last)
		s.LastMove = &lm
	}
	if m.result != nil {
		r := *m.result
		s.Result = &r
	}
	m.connections.mu.RLock()
	for _, color := range []chess.Color{chess.White, chess.Black} {
		seat := s.Players.seat(color)
		_, seat.Connected = m.connections.connections[seat.ID]
	}
	m.connections.mu.RUnlock()
	return s
}

// Snapshot is a copy of the board with what a drawing needs to mark on it.
type Snapshot struct {
	Board    *chess.Board
	ToMove   chess.Color
	LastMove *chess.Move
	// Check is the square of the side to move's king when it is in check.
	Check *chess.Position
}

func (m *Match) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Snapshot{Board: m.game.Board().Clone(), ToMove: m.game.Turn()}
	if lm, ok := m.game.LastMove(); ok {
		s.LastMove = &lm
	}
	if m.game.IsInCheck(s.ToMove) {
		s.Board.Each(func(pos chess.Position, p *chess.Piece) {
			if p.Type() == chess.King && p.Color() == s.ToMove {
				king := pos
				s.Check = &king
			}
		})
	}
	return s
}

// RegisterConnection attaches a websocket connection for the player. Seated
// players and, while a seat is open, newcomers may connect. A second
// connection for the same player is closed with ErrConnected and the first one kept.
func (m *Match) RegisterConnection(playerID string, conn Conn) (*Client, error) {
	connID := fmt.Sprintf("%p", conn)

	m.mu.Lock()
	_, seated := m.colorOf(playerID)
	isAuthorized := seated || m.hasOpenSeat()
	m.mu.Unlock()

	if !isAuthorized {
		return nil, ErrUnauthorized
	}

	m.connections.mu.Lock()
	if _, exists := m.connections.connections[playerID]; exists {
		m.connections.mu.Unlock()
		conn.WriteMessage(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ErrConnected.Error()),
		)
		conn.Close()
		log.Warnw("duplicate connection rejected", "game", m.ID, "player", playerID, "conn", connID)
		return nil, ErrConnected
	}
	client := &Client{conn: conn}
	m.connections.connections[playerID] = client
	m.connections.mu.Unlock()
	log.Infow("connection registered", "game", m.ID, "player", playerID, "conn", connID)

	m.mu.Lock()
	state, seq := m.broadcastSnapshot()
	m.mu.Unlock()
	go m.broadcastState(state, seq)
	return client, nil
}

// UnregisterConnection drops the player's connection if client is still the current one.
func (m *Match) UnregisterConnection(playerID string, client *Client) {
	m.connections.mu.Lock()
	defer m.connections.mu.Unlock()

	if current, exists := m.connections.connections[playerID]; exists && current == client {
		delete(m.connections.connections, playerID)
		log.Infow("connection unregistered", "game", m.ID, "player", playerID)
	}
}

// broadcastState sends state to every connection. Goroutines may deliver
// snapshots out of order; clients drop any older than the last one sent.
func (m *Match) broadcastState(state State, seq uint64) {
	msg, err := ws.NewMessage(ws.MessageTypeGameState, state)
	if err != nil {
		log.Errorw("failed to marshal state", "game", m.ID, "error", err)
		return
	}

	// Snapshot so no lock is held while writing.
	m.connections.mu.RLock()
	active := make(map[string]*Client, len(m.connections.connections))
	for playerID, client := range m.connections.connections {
		active[playerID] = client
	}
	m.connections.mu.RUnlock()

	for playerID, client := range active {
		if err := client.sendState(msg, seq); err != nil {
			log.Warnw("failed to send state, dropping connection", "game", m.ID, "player", playerID, "error", err)
			m.UnregisterConnection(playerID, client)
		}
	}
}
