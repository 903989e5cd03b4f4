package preference

import (
	"context"
	"os"
	"reflect"
	"sync"
	"testing"

	"recipe-finder/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

func testStoreContract(t *testing.T, s Store) {
	ctx := context.Background()

	t.Run("ratings overwrite", func(t *testing.T) {
		if err := s.SetRating(ctx, "alice", 1, 3); err != nil {
			t.Fatalf("SetRating: %v", err)
		}
		if err := s.SetRating(ctx, "alice", 1, 5); err != nil {
			t.Fatalf("SetRating: %v", err)
		}
		if err := s.SetRating(ctx, "alice", 2, 2); err != nil {
			t.Fatalf("SetRating: %v", err)
		}

		got, err := s.Ratings(ctx, "alice")
		if err != nil {
			t.Fatalf("Ratings: %v", err)
		}
		if !reflect.DeepEqual(got, map[int]int{1: 5, 2: 2}) {
			t.Fatalf("Ratings = %v", got)
		}
	})

	t.Run("users are isolated", func(t *testing.T) {
		got, err := s.Ratings(ctx, "bob")
		if err != nil {
			t.Fatalf("Ratings: %v", err)
		}
		if len(got) != 0 {
			t.Fatalf("bob should have no ratings, got %v", got)
		}
	})

	t.Run("favorites toggle and keep order", func(t *testing.T) {
		for _, id := range []int{3, 1, 2} {
			added, err := s.ToggleFavorite(ctx, "carol", id)
			if err != nil || !added {
				t.Fatalf("ToggleFavorite(%d) = %v, %v", id, added, err)
			}
		}

		added, err := s.ToggleFavorite(ctx, "carol", 1)
		if err != nil || added {
			t.Fatalf("second toggle should remove, got %v, %v", added, err)
		}

		got, err := s.Favorites(ctx, "carol")
		if err != nil {
			t.Fatalf("Favorites: %v", err)
		}
		if !reflect.DeepEqual(got, []int{3, 2}) {
			t.Fatalf("Favorites = %v, want [3 2]", got)
		}
	})

	t.Run("empty favorites is not nil", func(t *testing.T) {
		got, err := s.Favorites(ctx, "nobody")
		if err != nil {
			t.Fatalf("Favorites: %v", err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("Favorites = %#v", got)
		}
	})

	t.Run("ping", func(t *testing.T) {
		if err := s.Ping(ctx); err != nil {
			t.Fatalf("Ping: %v", err)
		}
	})
}

func TestMemoryStore(t *testing.T) {
	testStoreContract(t, NewMemoryStore())
}

func TestMemoryStore_ConcurrentToggle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			_, _ = s.ToggleFavorite(ctx, "u", id)
		}(i)
	}
	wg.Wait()

	got, _ := s.Favorites(ctx, "u")
	if len(got) != 50 {
		t.Fatalf("len(Favorites) = %d, want 50", len(got))
	}
}

func TestBadgerStore_InMemory(t *testing.T) {
	s, err := NewBadgerStore(config.BadgerConfig{InMemory: true})
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestBadgerStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	cfg := config.BadgerConfig{Dir: dir}
	ctx := context.Background()

	s, err := NewBadgerStore(cfg)
	if err != nil {
		t.Fatalf("NewBadgerStore: %v", err)
	}
	_ = s.SetRating(ctx, "u", 7, 4)
	_, _ = s.ToggleFavorite(ctx, "u", 7)
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	s, err = NewBadgerStore(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	ratings, _ := s.Ratings(ctx, "u")
	favs, _ := s.Favorites(ctx, "u")
	if ratings[7] != 4 || !reflect.DeepEqual(favs, []int{7}) {
		t.Fatalf("data not persisted: ratings=%v favorites=%v", ratings, favs)
	}
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis unavailable: %v", err)
	}

	prefix := "recipe-finder-test:" + t.Name()
	s := newRedisStore(client, prefix)
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
		_ = s.Close()
	})

	testStoreContract(t, s)
}

func TestNew_UnknownDriver(t *testing.T) {
	cfg := &config.Config{Store: config.StoreConfig{Driver: "sqlite"}}
	if _, err := New(context.Background(), cfg); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
