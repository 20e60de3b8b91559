// Package storage keeps finished game results and running totals in BadgerDB.
package storage

import (
	"encoding/json"
	"errors"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/kollin78/chess/internal/chess"
)

const (
	keyStats     = "stats"
	resultPrefix = "result/"
)

// Result is the outcome of one finished game. Winner is empty for a draw.
type Result struct {
	GameID     string       `json:"gameId"`
	Winner     chess.Color  `json:"winner,omitempty"`
	Method     chess.Status `json:"method"`
	Moves      int          `json:"moves"`
	FinishedAt time.Time    `json:"finishedAt"`
}

// Stats counts finished games by outcome.
type Stats struct {
	Games     int `json:"games"`
	WhiteWins int `json:"whiteWins"`
	BlackWins int `json:"blackWins"`
	Draws     int `json:"draws"`
}

func (s *Stats) add(r Result) {
	s.Games++
	switch r.Winner {
	case chess.White:
		s.WhiteWins++
	case chess.Black:
		s.BlackWins++
	default:
		s.Draws++
	}
}

// Store wraps BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens or creates the database in dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	return open(opts)
}

// OpenInMemory opens a database that lives only as long as the process.
func OpenInMemory() (*Store, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil
	return open(opts)
}

func open(opts badger.Options) (*Store, error) {
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveResult records a finished game and folds it into the totals in one
// transaction. Saving the same game twice is a no-op.
func (s *Store) SaveResult(r Result) error {
	if r.GameID == "" {
		return errors.New("storage: result without game id")
	}
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(resultPrefix + r.GameID)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}

		stats, err := loadStats(txn)
		if err != nil {
			return err
		}
		stats.add(r)
		statsData, err := json.Marshal(stats)
		if err != nil {
			return err
		}

		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(keyStats), statsData)
	})
}

// Result loads one game's result. ok is false if the game was never recorded.
func (s *Store) Result(gameID string) (r Result, ok bool, err error) {
	err = s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(resultPrefix + gameID))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		ok = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &r)
		})
	})
	return r, ok, err
}

// Results returns every recorded result, most recent first.
func (s *Store) Results() ([]Result, error) {
	var results []Result
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(resultPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var r Result
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &r)
			}); err != nil {
				return err
			}
			results = append(results, r)
		}
		return nil
	})
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinishedAt.After(results[j].FinishedAt)
	})
	return results, err
}

// Stats returns the running totals, zero if nothing was recorded yet.
func (s *Store) Stats() (Stats, error) {
	var stats Stats
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		stats, err = loadStats(txn)
		return err
	})
	return stats, err
}

func loadStats(txn *badger.Txn) (Stats, error) {
	var stats Stats
	item, err := txn.Get([]byte(keyStats))
	if err == badger.ErrKeyNotFound {
		return stats, nil
	}
	if err != nil {
		return stats, err
	}
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &stats)
	})
	return stats, err
}
