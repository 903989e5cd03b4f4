package preference

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"

	"github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// BadgerStore 以 Badger 持久化評分與收藏
// 鍵格式：rating/<user>/<recipeID> 與 favorite/<user>
type BadgerStore struct {
	db       *badger.DB
	inMemory bool
	stop     chan struct{}
	wg       sync.WaitGroup
	once     sync.Once
}

// NewBadgerStore 開啟 Badger 資料庫，非記憶體模式時啟動 GC 協程
func NewBadgerStore(cfg config.BadgerConfig) (*BadgerStore, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		absPath, err := filepath.Abs(cfg.Dir)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path: %w", err)
		}
		opts = badger.DefaultOptions(absPath)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB: %w", err)
	}

	s := &BadgerStore{db: db, inMemory: cfg.InMemory, stop: make(chan struct{})}
	if !cfg.InMemory && cfg.GCInterval > 0 {
		s.startGC(cfg.GCInterval)
	}

	common.LogInfo("BadgerDB opened", zap.String("dir", cfg.Dir), zap.Bool("in_memory", cfg.InMemory))
	return s, nil
}

func ratingPrefix(userID string) []byte {
	return []byte("rating/" + userID + "/")
}

func favoriteKey(userID string) []byte {
	return []byte("favorite/" + userID)
}

func (s *BadgerStore) SetRating(_ context.Context, userID string, recipeID, rating int) error {
	key := append(ratingPrefix(userID), strconv.Itoa(recipeID)...)
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, []byte(strconv.Itoa(rating)))
	})
	observe(s.Driver(), "set_rating", err)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

func (s *BadgerStore) Ratings(_ context.Context, userID string) (map[int]int, error) {
	prefix := ratingPrefix(userID)
	out := make(map[int]int)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			id, err := strconv.Atoi(string(item.Key()[len(prefix):]))
			if err != nil {
				continue
			}
			err = item.Value(func(val []byte) error {
				r, err := strconv.Atoi(string(val))
				if err != nil {
					return err
				}
				out[id] = r
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	observe(s.Driver(), "ratings", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}
	return out, nil
}

func readFavorites(txn *badger.Txn, userID string) ([]int, error) {
	item, err := txn.Get(favoriteKey(userID))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return []int{}, nil
	}
	if err != nil {
		return nil, err
	}

	var ids []int
	err = item.Value(func(val []byte) error {
		return common.ParseJSONBytes(val, &ids)
	})
	if ids == nil {
		ids = []int{}
	}
	return ids, err
}

func (s *BadgerStore) ToggleFavorite(_ context.Context, userID string, recipeID int) (bool, error) {
	var added bool
	toggle := func(txn *badger.Txn) error {
		ids, err := readFavorites(txn, userID)
		if err != nil {
			return err
		}

		added = true
		for i, id := range ids {
			if id == recipeID {
				ids = append(ids[:i], ids[i+1:]...)
				added = false
				break
			}
		}
		if added {
			ids = append(ids, recipeID)
		}

		data, err := common.ToJSON(ids)
		if err != nil {
			return err
		}
		return txn.Set(favoriteKey(userID), []byte(data))
	}

	var err error
	for i := 0; i < maxToggleRetries; i++ {
		err = s.db.Update(toggle)
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
	}
	observe(s.Driver(), "toggle_favorite", err)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return added, nil
}

func (s *BadgerStore) Favorites(_ context.Context, userID string) ([]int, error) {
	var ids []int
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		ids, err = readFavorites(txn, userID)
		return err
	})
	observe(s.Driver(), "favorites", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}
	return ids, nil
}

func (s *BadgerStore) Ping(context.Context) error {
	if s.db.IsClosed() {
		return errors.New("badger is closed")
	}
	return nil
}

// startGC 定期回收 value log
func (s *BadgerStore) startGC(interval time.Duration) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.db.RunValueLogGC(0.5); err != nil && !errors.Is(err, badger.ErrNoRewrite) {
					common.LogError("BadgerDB GC error", zap.Error(err))
				}
			case <-s.stop:
				return
			}
		}
	}()
	common.LogInfo("Started BadgerDB GC routine", zap.Duration("interval", interval))
}

func (s *BadgerStore) Close() error {
	var err error
	s.once.Do(func() {
		close(s.stop)
		s.wg.Wait()
		err = s.db.Close()
	})
	return err
}

func (s *BadgerStore) Driver() string { return config.StoreBadger }
