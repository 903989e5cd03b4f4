package preference

import (
	"context"
	"sync"

	"recipe-finder/internal/infrastructure/config"
)

type userPrefs struct {
	ratings   map[int]int
	favorites []int
}

// MemoryStore 行程內儲存，重啟後資料消失
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*userPrefs
}

// NewMemoryStore 建立記憶體儲存
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{users: make(map[string]*userPrefs)}
}

func (s *MemoryStore) user(userID string) *userPrefs {
	p, ok := s.users[userID]
	if !ok {
		p = &userPrefs{ratings: make(map[int]int)}
		s.users[userID] = p
	}
	return p
}

func (s *MemoryStore) SetRating(_ context.Context, userID string, recipeID, rating int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user(userID).ratings[recipeID] = rating
	observe(s.Driver(), "set_rating", nil)
	return nil
}

func (s *MemoryStore) Ratings(_ context.Context, userID string) (map[int]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[int]int)
	if p, ok := s.users[userID]; ok {
		for id, r := range p.ratings {
			out[id] = r
		}
	}
	return out, nil
}

func (s *MemoryStore) ToggleFavorite(_ context.Context, userID string, recipeID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := s.user(userID)
	for i, id := range p.favorites {
		if id == recipeID {
			p.favorites = append(p.favorites[:i], p.favorites[i+1:]...)
			observe(s.Driver(), "toggle_favorite", nil)
			return false, nil
		}
	}
	p.favorites = append(p.favorites, recipeID)
	observe(s.Driver(), "toggle_favorite", nil)
	return true, nil
}

func (s *MemoryStore) Favorites(_ context.Context, userID string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []int{}
	if p, ok := s.users[userID]; ok {
		out = append(out, p.favorites...)
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

func (s *MemoryStore) Driver() string { return config.StoreMemory }
