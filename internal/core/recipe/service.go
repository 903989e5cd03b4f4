package recipe

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"recipe-finder/internal/core/cache"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/core/preference"
	"recipe-finder/internal/pkg/common"

	"go.uber.org/zap"
)

// 推薦規則
const (
	likedRatingMin      = 4
	defaultRecommendLen = 5
	maxRecommendations  = 8

	sameCuisineScore = 2.0
	sharedDietScore  = 1.0
	easyScore        = 0.5
)

// CommonIngredients 常用食材，提供給前端快速選取
var CommonIngredients = []string{
	"chicken", "beef", "pork", "fish", "eggs", "milk", "cheese", "butter",
	"tomato", "onion", "garlic", "potato", "carrot", "broccoli", "spinach",
	"rice", "pasta", "bread", "flour", "olive oil", "salt", "pepper",
	"basil", "oregano", "lemon", "lime", "bell pepper", "mushroom",
}

// Service 食譜查詢、評分、收藏與推薦
type Service struct {
	catalog    *catalog.Catalog
	matcher    *matching.Matcher
	store      preference.Store
	cache      *cache.Manager[[]common.ScoredRecipe]
	vocabulary []string
}

// NewService 建立食譜服務，cache 可為 nil
func NewService(c *catalog.Catalog, m *matching.Matcher, store preference.Store, searchCache *cache.Manager[[]common.ScoredRecipe]) *Service {
	return &Service{
		catalog:    c,
		matcher:    m,
		store:      store,
		cache:      searchCache,
		vocabulary: mergeVocabulary(c.Vocabulary(), CommonIngredients),
	}
}

// Search 依食材搜尋並排序，再套用篩選條件
func (s *Service) Search(ctx context.Context, q common.SearchQuery) ([]common.ScoredRecipe, error) {
	key := s.searchKey(q)
	if cached, err := s.cache.Get(key); err == nil {
		return cached, nil
	}

	ranked, err := s.matcher.Rank(s.catalog.All(), q.Ingredients)
	if err != nil {
		return nil, err
	}
	results := matching.ApplyFilters(ranked, q)

	if err := s.cache.Set(key, results); err != nil {
		common.LogWarn("Failed to cache search results", zap.Error(err))
	}

	common.LogDebug("Recipe search completed",
		zap.Int("ingredients", len(q.Ingredients)),
		zap.Int("results", len(results)),
	)
	return results, nil
}

// searchKey 以標準化後排序的食材與篩選條件組成快取鍵，食材順序不影響結果
func (s *Service) searchKey(q common.SearchQuery) string {
	ings := make([]string, 0, len(q.Ingredients))
	for _, ing := range q.Ingredients {
		if n := matching.Normalize(ing); n != "" {
			ings = append(ings, n)
		}
	}
	sort.Strings(ings)

	dietary := make([]string, 0, len(q.Dietary))
	for _, d := range q.Dietary {
		dietary = append(dietary, strings.ToLower(strings.TrimSpace(d)))
	}
	sort.Strings(dietary)

	maxTime := "-"
	if q.MaxTime != nil {
		maxTime = strconv.Itoa(*q.MaxTime)
	}

	return cache.Key(
		strings.Join(ings, ","),
		strings.Join(dietary, ","),
		strings.ToLower(strings.TrimSpace(q.Difficulty)),
		maxTime,
		strings.ToLower(strings.TrimSpace(q.Cuisine)),
	)
}

// Get 取得食譜，servings > 0 時依份量調整營養資訊
func (s *Service) Get(id, servings int) (common.Recipe, error) {
	r, err := s.catalog.Get(id)
	if err != nil {
		return common.Recipe{}, err
	}
	if servings == 0 {
		return r, nil
	}
	return catalog.ScaleServings(r, servings)
}

// Rate 為食譜評分 (1–5)
func (s *Service) Rate(ctx context.Context, userID string, id, rating int) error {
	if rating < 1 || rating > 5 {
		return common.ErrInvalidRating
	}
	if !s.catalog.Has(id) {
		return common.ErrRecipeNotFound
	}
	if err := s.store.SetRating(ctx, common.UserOrDefault(userID), id, rating); err != nil {
		return common.ErrStoreUnavailable.Wrap(err)
	}
	return nil
}

// ToggleFavorite 切換收藏，回傳切換後的狀態
func (s *Service) ToggleFavorite(ctx context.Context, userID string, id int) (bool, error) {
	if !s.catalog.Has(id) {
		return false, common.ErrRecipeNotFound
	}
	fav, err := s.store.ToggleFavorite(ctx, common.UserOrDefault(userID), id)
	if err != nil {
		return false, common.ErrStoreUnavailable.Wrap(err)
	}
	return fav, nil
}

// Favorites 依目錄順序回傳收藏的食譜
func (s *Service) Favorites(ctx context.Context, userID string) ([]common.Recipe, error) {
	ids, err := s.store.Favorites(ctx, common.UserOrDefault(userID))
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}

	fav := make(map[int]bool, len(ids))
	for _, id := range ids {
		fav[id] = true
	}

	out := []common.Recipe{}
	for _, r := range s.catalog.All() {
		if fav[r.ID] {
			out = append(out, r)
		}
	}
	return out, nil
}

// Recommend 依使用者喜歡的食譜推薦相似料理
// 沒有任何偏好時回傳目錄前幾筆
func (s *Service) Recommend(ctx context.Context, userID string) ([]common.RecommendedRecipe, error) {
	user := common.UserOrDefault(userID)

	ratings, err := s.store.Ratings(ctx, user)
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}
	favIDs, err := s.store.Favorites(ctx, user)
	if err != nil {
		return nil, common.ErrStoreUnavailable.Wrap(err)
	}

	liked := make(map[int]bool)
	for id, r := range ratings {
		if r >= likedRatingMin {
			liked[id] = true
		}
	}
	for _, id := range favIDs {
		liked[id] = true
	}

	all := s.catalog.All()
	cuisines := make(map[string]bool)
	diets := make(map[string]bool)
	for _, r := range all {
		if !liked[r.ID] {
			continue
		}
		cuisines[r.Cuisine] = true
		for _, d := range r.Dietary {
			diets[d] = true
		}
	}

	if len(cuisines) == 0 {
		n := min(defaultRecommendLen, len(all))
		out := make([]common.RecommendedRecipe, 0, n)
		for _, r := range all[:n] {
			out = append(out, common.RecommendedRecipe{Recipe: r})
		}
		return out, nil
	}

	out := make([]common.RecommendedRecipe, 0, len(all))
	for _, r := range all {
		if liked[r.ID] {
			continue
		}
		score := 0.0
		if cuisines[r.Cuisine] {
			score += sameCuisineScore
		}
		for _, d := range r.Dietary {
			if diets[d] {
				score += sharedDietScore
				break
			}
		}
		if r.Difficulty == "Easy" {
			score += easyScore
		}
		out = append(out, common.RecommendedRecipe{Recipe: r, RecommendationScore: score})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecommendationScore > out[j].RecommendationScore
	})
	if len(out) > maxRecommendations {
		out = out[:maxRecommendations]
	}
	return out, nil
}

// Substitutions 查詢食材替代品，名稱會先轉為標準名稱
func (s *Service) Substitutions(ingredient string) []string {
	return s.catalog.Substitutions(ingredient, s.matcher.Canonical)
}

// Suggest 食材名稱提示
func (s *Service) Suggest(query string, limit int) []string {
	return matching.Suggest(query, s.vocabulary, limit)
}

// Vocabulary 可提示的所有食材
func (s *Service) Vocabulary() []string {
	out := make([]string, len(s.vocabulary))
	copy(out, s.vocabulary)
	return out
}

// CacheStats 搜尋快取統計
func (s *Service) CacheStats() cache.Stats {
	return s.cache.GetStats()
}

// Ping 檢查儲存後端
func (s *Service) Ping(ctx context.Context) error {
	if err := s.store.Ping(ctx); err != nil {
		return fmt.Errorf("%s store: %w", s.store.Driver(), err)
	}
	return nil
}

func mergeVocabulary(lists ...[]string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, list := range lists {
		for _, s := range list {
			s = strings.ToLower(strings.TrimSpace(s))
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}
