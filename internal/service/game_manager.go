// service/game_manager.go
package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/kollin78/chess/internal/model"
	"github.com/kollin78/chess/internal/storage"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrGameExists     = errors.New("game already exists")
	ErrResultNotFound = errors.New("result not found")
)

// Results is where finished games are recorded.
type Results interface {
	SaveResult(storage.Result) error
	Result(gameID string) (storage.Result, bool, error)
	Results() ([]storage.Result, error)
	Stats() (storage.Stats, error)
}

type GameManager struct {
	games            map[string]*model.Match
	queue            *model.Queue
	matchingChannels map[string]chan model.MatchFoundEvent
	results          Results
	mu               sync.RWMutex
}

// NewGameManager creates a manager. results may be nil, in which case
// finished games are not recorded.
func NewGameManager(results Results) *GameManager {
	return &GameManager{
		games:            make(map[string]*model.Match),
		queue:            model.NewQueue(),
		matchingChannels: make(map[string]chan model.MatchFoundEvent),
		results:          results,
	}
}

// RunMatchmaking pairs queued players every interval until ctx is done.
func (gm *GameManager) RunMatchmaking(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for gm.matchNextPair() {
			}
		}
	}
}

// matchNextPair starts a game for the two longest waiting players and
// reports whether it found a pair.
func (gm *GameManager) matchNextPair() bool {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	player1, player2, ok := gm.queue.NextPair()
	if !ok {
		return false
	}

	match := gm.addMatch(model.NewMatch(uuid.New().String()))
	for _, p := range []model.Player{player1, player2} {
		color, err := match.AddPlayer(p.ID)
		if err != nil {
			log.Errorw("failed to seat matched player", "game", match.ID, "player", p.ID, "error", err)
			continue
		}
		gm.notifyMatch(p.ID, model.MatchFoundEvent{GameID: match.ID, Color: color})
	}
	log.Infow("players matched", "game", match.ID, "white", player1.ID, "black", player2.ID)
	return true
}

// notifyMatch hands the event to the player's waiting channel, then closes it.
// Callers hold gm.mu.
func (gm *GameManager) notifyMatch(playerID string, event model.MatchFoundEvent) {
	ch, ok := gm.matchingChannels[playerID]
	if !ok {
		log.Warnw("matched player has no matchmaking channel", "player", playerID, "game", event.GameID)
		return
	}
	delete(gm.matchingChannels, playerID)
	select {
	case ch <- event:
	default:
		log.Warnw("matchmaking channel full", "player", playerID, "game", event.GameID)
	}
	close(ch)
}

// RegisterMatchmakingChannel sets where the player's match will be announced.
// An earlier channel for the same player is closed without an event.
func (gm *GameManager) RegisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()
	gm.setMatchmakingChannel(playerID, ch)
}

// setMatchmakingChannel does the work of RegisterMatchmakingChannel. Callers hold gm.mu.
func (gm *GameManager) setMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	if existing, exists := gm.matchingChannels[playerID]; exists {
		delete(gm.matchingChannels, playerID)
		close(existing)
	}
	gm.matchingChannels[playerID] = ch
}

// UnregisterMatchmakingChannel forgets the player's channel if it is still ch,
// and takes the player out of the queue.
func (gm *GameManager) UnregisterMatchmakingChannel(playerID string, ch chan model.MatchFoundEvent) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if current, exists := gm.matchingChannels[playerID]; exists && current == ch {
		delete(gm.matchingChannels, playerID)
		gm.queue.RemovePlayer(playerID)
	}
}

// StartMatchmaking queues the player and returns the channel their match is
// announced on. leave takes them back out unless they were matched first.
// A player already in the queue gets ErrAlreadyQueued and stays queued.
func (gm *GameManager) StartMatchmaking(playerID string) (events <-chan model.MatchFoundEvent, leave func(), err error) {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	// Under gm.mu the matcher cannot pair the player before the channel is set.
	if err := gm.queue.AddPlayer(model.Player{ID: playerID}); err != nil {
		return nil, nil, err
	}
	ch := make(chan model.MatchFoundEvent, 1)
	gm.setMatchmakingChannel(playerID, ch)
	return ch, func() { gm.UnregisterMatchmakingChannel(playerID, ch) }, nil
}

func (gm *GameManager) JoinMatchmaking(playerID string) error {
	return gm.queue.AddPlayer(model.Player{ID: playerID})
}

func (gm *GameManager) LeaveMatchmaking(playerID string) bool {
	return gm.queue.RemovePlayer(playerID)
}

// AddGame registers a new match under its ID.
func (gm *GameManager) AddGame(match *model.Match) error {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if _, exists := gm.games[match.ID]; exists {
		return ErrGameExists
	}
	gm.addMatch(match)
	return nil
}

// addMatch stores the match and hooks result recording. Callers hold gm.mu.
func (gm *GameManager) addMatch(match *model.Match) *model.Match {
	match.OnFinish(gm.recordResult)
	gm.games[match.ID] = match
	return match
}

func (gm *GameManager) recordResult(match *model.Match, r model.Result) {
	if gm.results == nil {
		return
	}
	err := gm.results.SaveResult(storage.Result{
		GameID:     match.ID,
		Winner:     r.Winner,
		Method:     r.Method,
		Moves:      r.Moves,
		FinishedAt: time.Now(),
	})
	if err != nil {
		log.Errorw("failed to record result", "game", match.ID, "error", err)
	}
}

func (gm *GameManager) GetGame(gameID string) (*model.Match, error) {
	gm.mu.RLock()
	defer gm.mu.RUnlock()

	match, exists := gm.games[gameID]
	if !exists {
		return nil, ErrGameNotFound
	}
	return match, nil
}

// Results lists recorded games, newest first.
func (gm *GameManager) Results() ([]storage.Result, error) {
	if gm.results == nil {
		return []storage.Result{}, nil
	}
	results, err := gm.results.Results()
	if results == nil {
		results = []storage.Result{}
	}
	return results, err
}

func (gm *GameManager) Result(gameID string) (storage.Result, error) {
	if gm.results == nil {
		return storage.Result{}, ErrResultNotFound
	}
	r, ok, err := gm.results.Result(gameID)
	if err != nil {
		return storage.Result{}, err
	}
	if !ok {
		return storage.Result{}, ErrResultNotFound
	}
	return r, nil
}

func (gm *GameManager) Stats() (storage.Stats, error) {
	if gm.results == nil {
		return storage.Stats{}, nil
	}
	return gm.results.Stats()
}
