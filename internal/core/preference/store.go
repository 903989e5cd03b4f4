package preference

import (
	"context"
	"fmt"

	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"

	"go.uber.org/zap"
)

// Store 使用者評分與收藏的儲存介面
type Store interface {
	// SetRating 寫入評分，同一食譜重複評分會覆蓋
	SetRating(ctx context.Context, userID string, recipeID, rating int) error
	// Ratings 回傳 recipeID -> rating
	Ratings(ctx context.Context, userID string) (map[int]int, error)
	// ToggleFavorite 切換收藏狀態，回傳切換後是否為收藏
	ToggleFavorite(ctx context.Context, userID string, recipeID int) (bool, error)
	// Favorites 依加入順序回傳收藏的食譜 ID
	Favorites(ctx context.Context, userID string) ([]int, error)
	Ping(ctx context.Context) error
	Close() error
	Driver() string
}

// New 依設定建立儲存後端
func New(ctx context.Context, cfg *config.Config) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Store.Driver {
	case config.StoreMemory, "":
		store = NewMemoryStore()
	case config.StoreRedis:
		store, err = NewRedisStore(ctx, cfg.Redis)
	case config.StoreBadger:
		store, err = NewBadgerStore(cfg.Badger)
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}

	common.LogInfo("偏好儲存已初始化", zap.String("driver", store.Driver()))
	return store, nil
}

// observe 記錄儲存操作結果
func observe(driver, op string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
		common.LogError("Preference store operation failed",
			zap.String("driver", driver),
			zap.String("operation", op),
			zap.Error(err),
		)
	}
	metrics.PreferenceOps.WithLabelValues(driver, op, status).Inc()
}
