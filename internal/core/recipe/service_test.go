package recipe

import (
	"context"
	"errors"
	"testing"
	"time"

	"recipe-finder/internal/core/cache"
	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/core/preference"
	"recipe-finder/internal/infrastructure/config"
	"recipe-finder/internal/pkg/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	searchCache := cache.NewManager[[]common.ScoredRecipe]("search", config.CacheConfig{
		Enabled: true,
		MaxSize: 16,
		TTL:     time.Minute,
	})
	t.Cleanup(func() { _ = searchCache.Close() })
	return NewService(c, matching.DefaultMatcher(), preference.NewMemoryStore(), searchCache)
}

func recipeIDs(rs []common.Recipe) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func recommendedIDs(rs []common.RecommendedRecipe) []int {
	out := make([]int, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID)
	}
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestService_Search(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	got, err := s.Search(ctx, common.SearchQuery{Ingredients: []string{"tomato", "pasta", "garlic"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) == 0 || got[0].ID != 1 || got[0].MatchScore != 65 {
		t.Fatalf("top result = %+v", got[0])
	}

	again, err := s.Search(ctx, common.SearchQuery{Ingredients: []string{"Garlic", "tomatoes", "pasta"}})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(again) != len(got) {
		t.Fatalf("cached result differs")
	}
	if hits := s.CacheStats().Hits; hits != 1 {
		t.Fatalf("cache hits = %d, want 1", hits)
	}
}

func TestService_Search_Filters(t *testing.T) {
	s := newTestService(t)

	got, err := s.Search(context.Background(), common.SearchQuery{
		Ingredients: []string{"tomato", "pasta", "garlic"},
		Difficulty:  "hard",
	})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 1 || got[0].ID != 13 {
		t.Fatalf("hard recipes = %+v", got)
	}
}

func TestService_Search_ZeroMaxTime(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	ings := []string{"tomato", "pasta", "garlic"}

	all, err := s.Search(ctx, common.SearchQuery{Ingredients: ings})
	if err != nil || len(all) == 0 {
		t.Fatalf("Search = %d results, %v", len(all), err)
	}

	zero := 0
	got, err := s.Search(ctx, common.SearchQuery{Ingredients: ings, MaxTime: &zero})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("maxTime=0 returned %d recipes, want none", len(got))
	}
	if hits := s.CacheStats().Hits; hits != 0 {
		t.Fatalf("unset and zero maxTime share a cache entry")
	}
}

func TestService_Search_NoIngredients(t *testing.T) {
	s := newTestService(t)
	_, err := s.Search(context.Background(), common.SearchQuery{Ingredients: []string{" "}})
	if !errors.Is(err, common.ErrNoIngredients) {
		t.Fatalf("err = %v, want ErrNoIngredients", err)
	}
}

func TestService_Get(t *testing.T) {
	s := newTestService(t)

	r, err := s.Get(1, 2)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if r.Servings != 2 || r.NutritionalInfo.Calories != 225 {
		t.Fatalf("scaled recipe = %+v", r)
	}

	if _, err := s.Get(99, 0); !errors.Is(err, common.ErrRecipeNotFound) {
		t.Fatalf("err = %v, want ErrRecipeNotFound", err)
	}
	if _, err := s.Get(1, -1); !errors.Is(err, common.ErrInvalidServings) {
		t.Fatalf("err = %v, want ErrInvalidServings", err)
	}
}

func TestService_Rate(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name   string
		id     int
		rating int
		want   error
	}{
		{name: "valid", id: 1, rating: 5},
		{name: "too low", id: 1, rating: 0, want: common.ErrInvalidRating},
		{name: "too high", id: 1, rating: 6, want: common.ErrInvalidRating},
		{name: "unknown recipe", id: 99, rating: 3, want: common.ErrRecipeNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := s.Rate(ctx, "", tc.id, tc.rating)
			if tc.want == nil && err != nil {
				t.Fatalf("Rate: %v", err)
			}
			if tc.want != nil && !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestService_Favorites(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for _, id := range []int{5, 2, 9} {
		if fav, err := s.ToggleFavorite(ctx, "u", id); err != nil || !fav {
			t.Fatalf("ToggleFavorite(%d) = %v, %v", id, fav, err)
		}
	}
	if fav, _ := s.ToggleFavorite(ctx, "u", 9); fav {
		t.Fatalf("second toggle should unfavorite")
	}
	if _, err := s.ToggleFavorite(ctx, "u", 99); !errors.Is(err, common.ErrRecipeNotFound) {
		t.Fatalf("err = %v, want ErrRecipeNotFound", err)
	}

	got, err := s.Favorites(ctx, "u")
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	if !equalInts(recipeIDs(got), []int{2, 5}) {
		t.Fatalf("favorites = %v, want catalog order [2 5]", recipeIDs(got))
	}
}

func TestService_Recommend(t *testing.T) {
	ctx := context.Background()

	t.Run("no preferences", func(t *testing.T) {
		s := newTestService(t)
		_ = s.Rate(ctx, "u", 3, 3)

		got, err := s.Recommend(ctx, "u")
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if !equalInts(recommendedIDs(got), []int{1, 2, 3, 4, 5}) {
			t.Fatalf("got %v", recommendedIDs(got))
		}
	})

	t.Run("same cuisine first", func(t *testing.T) {
		s := newTestService(t)
		_ = s.Rate(ctx, "u", 5, 5)

		got, err := s.Recommend(ctx, "u")
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		want := []int{11, 1, 2, 3, 4, 7, 8, 10}
		if !equalInts(recommendedIDs(got), want) {
			t.Fatalf("got %v, want %v", recommendedIDs(got), want)
		}
		if got[0].RecommendationScore != 2.5 || got[1].RecommendationScore != 0.5 {
			t.Fatalf("scores = %v, %v", got[0].RecommendationScore, got[1].RecommendationScore)
		}
	})

	t.Run("favorites count as liked", func(t *testing.T) {
		s := newTestService(t)
		_, _ = s.ToggleFavorite(ctx, "u", 4)

		got, err := s.Recommend(ctx, "u")
		if err != nil {
			t.Fatalf("Recommend: %v", err)
		}
		if len(got) != 8 {
			t.Fatalf("len = %d, want 8", len(got))
		}
		for _, r := range got {
			if r.ID == 4 {
				t.Fatalf("liked recipe should not be recommended")
			}
		}
		if got[0].ID != 1 || got[0].RecommendationScore != 1.5 {
			t.Fatalf("first = %d (%v)", got[0].ID, got[0].RecommendationScore)
		}
	})
}

func TestService_Substitutions(t *testing.T) {
	s := newTestService(t)

	if got := s.Substitutions("Capsicum"); len(got) == 0 {
		t.Fatalf("synonym lookup returned nothing")
	}

	spinach := s.Substitutions("spinach")
	seen := map[string]bool{}
	for _, sub := range spinach {
		if seen[sub] {
			t.Fatalf("duplicate substitution %q", sub)
		}
		seen[sub] = true
	}
	if len(spinach) == 0 {
		t.Fatalf("spinach substitutions empty")
	}

	if got := s.Substitutions("unobtainium"); got == nil || len(got) != 0 {
		t.Fatalf("unknown ingredient = %#v", got)
	}
}

func TestService_Suggest(t *testing.T) {
	s := newTestService(t)

	found := false
	for _, name := range s.Suggest("tom", 5) {
		if name == "tomato" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tomato not suggested")
	}

	vocab := s.Vocabulary()
	for i := 1; i < len(vocab); i++ {
		if vocab[i-1] >= vocab[i] {
			t.Fatalf("vocabulary not sorted/unique at %d", i)
		}
	}
}
