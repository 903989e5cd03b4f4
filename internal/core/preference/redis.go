package preference

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"recipe-finder/internal/infrastructure/config"

	"github.com/go-redis/redis/v8"
)

// 收藏切換遇到並行修改時的重試次數
const maxToggleRetries = 5

// RedisStore 以 Redis hash 存評分、sorted set 存收藏
// 收藏的 score 為加入時間，因此 ZRANGE 即為加入順序
type RedisStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

// NewRedisStore 建立 Redis 儲存並測試連線
func NewRedisStore(ctx context.Context, cfg config.RedisConfig) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return newRedisStore(client, cfg.KeyPrefix), nil
}

func newRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "recipe-finder"
	}
	return &RedisStore{client: client, prefix: prefix, now: time.Now}
}

func (s *RedisStore) ratingsKey(userID string) string {
	return fmt.Sprintf("%s:ratings:%s", s.prefix, userID)
}

func (s *RedisStore) favoritesKey(userID string) string {
	return fmt.Sprintf("%s:favorites:%s", s.prefix, userID)
}

func (s *RedisStore) SetRating(ctx context.Context, userID string, recipeID, rating int) error {
	err := s.client.HSet(ctx, s.ratingsKey(userID), strconv.Itoa(recipeID), rating).Err()
	observe(s.Driver(), "set_rating", err)
	if err != nil {
		return fmt.Errorf("failed to set rating: %w", err)
	}
	return nil
}

func (s *RedisStore) Ratings(ctx context.Context, userID string) (map[int]int, error) {
	raw, err := s.client.HGetAll(ctx, s.ratingsKey(userID)).Result()
	observe(s.Driver(), "ratings", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get ratings: %w", err)
	}

	out := make(map[int]int, len(raw))
	for field, value := range raw {
		id, err := strconv.Atoi(field)
		if err != nil {
			continue
		}
		r, err := strconv.Atoi(value)
		if err != nil {
			continue
		}
		out[id] = r
	}
	return out, nil
}

func (s *RedisStore) ToggleFavorite(ctx context.Context, userID string, recipeID int) (bool, error) {
	key := s.favoritesKey(userID)
	member := strconv.Itoa(recipeID)

	var added bool
	toggle := func(tx *redis.Tx) error {
		err := tx.ZScore(ctx, key, member).Err()
		exists := err == nil
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}

		// score 必須嚴格遞增，同一微秒內加入也能保持順序
		score := float64(s.now().UnixMicro())
		if !exists {
			last, err := tx.ZRevRangeWithScores(ctx, key, 0, 0).Result()
			if err != nil {
				return err
			}
			if len(last) > 0 && last[0].Score >= score {
				score = last[0].Score + 1
			}
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if exists {
				pipe.ZRem(ctx, key, member)
			} else {
				pipe.ZAdd(ctx, key, &redis.Z{Score: score, Member: member})
			}
			return nil
		})
		if err == nil {
			added = !exists
		}
		return err
	}

	var err error
	for i := 0; i < maxToggleRetries; i++ {
		err = s.client.Watch(ctx, toggle, key)
		if !errors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	observe(s.Driver(), "toggle_favorite", err)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite: %w", err)
	}
	return added, nil
}

func (s *RedisStore) Favorites(ctx context.Context, userID string) ([]int, error) {
	members, err := s.client.ZRange(ctx, s.favoritesKey(userID), 0, -1).Result()
	observe(s.Driver(), "favorites", err)
	if err != nil {
		return nil, fmt.Errorf("failed to get favorites: %w", err)
	}

	out := make([]int, 0, len(members))
	for _, m := range members {
		if id, err := strconv.Atoi(m); err == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Driver() string { return config.StoreRedis }
