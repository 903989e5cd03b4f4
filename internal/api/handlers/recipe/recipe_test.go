package recipe

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"recipe-finder/internal/core/catalog"
	"recipe-finder/internal/core/matching"
	"recipe-finder/internal/core/preference"
	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	c, err := catalog.Load("")
	if err != nil {
		t.Fatalf("catalog.Load: %v", err)
	}
	svc := recipeService.NewService(c, matching.DefaultMatcher(), preference.NewMemoryStore(), nil)

	r := gin.New()
	NewHandler(svc).Register(r.Group("/api"))
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := common.ParseJSONBytes(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, message string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("status = %d, want %d (body %s)", w.Code, status, w.Body.String())
	}
	var resp common.ErrorResponse
	decode(t, w, &resp)
	if resp.Message != message {
		t.Fatalf("message = %q, want %q", resp.Message, message)
	}
}

func TestHandleSearch(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/recipes?ingredients=tomato,pasta,garlic", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var results []common.ScoredRecipe
	decode(t, w, &results)
	if len(results) == 0 || results[0].ID != 1 || results[0].MatchScore != 65 {
		t.Fatalf("unexpected top result %+v", results)
	}
	for i := 1; i < len(results); i++ {
		if results[i-1].MatchScore < results[i].MatchScore {
			t.Fatalf("results not sorted at %d", i)
		}
	}
}

func TestHandleSearch_Errors(t *testing.T) {
	r := newTestRouter(t)

	expectError(t, do(r, http.MethodGet, "/api/recipes", ""), http.StatusBadRequest, "Please provide ingredients.")
	expectError(t, do(r, http.MethodGet, "/api/recipes?ingredients=,%20,", ""), http.StatusBadRequest, "Please provide ingredients.")
	expectError(t, do(r, http.MethodGet, "/api/recipes?ingredients=rice&maxTime=soon", ""),
		http.StatusBadRequest, "maxTime must be a non-negative integer.")
}

func TestHandleSearch_Filters(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/recipes?ingredients=tomato,pasta,garlic&difficulty=Hard", "")
	var results []common.ScoredRecipe
	decode(t, w, &results)
	if len(results) != 1 || results[0].ID != 13 {
		t.Fatalf("hard filter = %+v", results)
	}

	w = do(r, http.MethodGet, "/api/recipes?ingredients=tomato&maxTime=15", "")
	decode(t, w, &results)
	for _, res := range results {
		if res.CookingTime > 15 {
			t.Fatalf("recipe %d exceeds maxTime", res.ID)
		}
	}

	w = do(r, http.MethodGet, "/api/recipes?ingredients=tomato&maxTime=0", "")
	if w.Code != http.StatusOK || strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("maxTime=0 = %d %s, want empty list", w.Code, w.Body.String())
	}
}

func TestHandleDetail(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/recipes/1?servings=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var got common.Recipe
	decode(t, w, &got)
	if got.ID != 1 || got.Servings != 2 {
		t.Fatalf("recipe = %+v", got)
	}

	expectError(t, do(r, http.MethodGet, "/api/recipes/999", ""), http.StatusNotFound, "Recipe not found.")
	expectError(t, do(r, http.MethodGet, "/api/recipes/abc", ""), http.StatusNotFound, "Recipe not found.")
	expectError(t, do(r, http.MethodGet, "/api/recipes/1?servings=0", ""), http.StatusBadRequest, "Servings must be a positive integer.")
}

func TestHandleRate(t *testing.T) {
	r := newTestRouter(t)

	cases := []struct {
		name    string
		path    string
		body    string
		status  int
		message string
	}{
		{"valid", "/api/recipes/1/rate", `{"rating":5,"userId":"u"}`, http.StatusOK, "Rating saved successfully."},
		{"default user", "/api/recipes/2/rate", `{"rating":1}`, http.StatusOK, "Rating saved successfully."},
		{"missing rating", "/api/recipes/1/rate", `{"userId":"u"}`, http.StatusBadRequest, "Rating must be between 1 and 5."},
		{"zero", "/api/recipes/1/rate", `{"rating":0}`, http.StatusBadRequest, "Rating must be between 1 and 5."},
		{"too high", "/api/recipes/1/rate", `{"rating":6}`, http.StatusBadRequest, "Rating must be between 1 and 5."},
		{"fraction", "/api/recipes/1/rate", `{"rating":4.5}`, http.StatusBadRequest, "Rating must be between 1 and 5."},
		{"string", "/api/recipes/1/rate", `{"rating":"5"}`, http.StatusBadRequest, "Rating must be between 1 and 5."},
		{"unknown recipe", "/api/recipes/99/rate", `{"rating":3}`, http.StatusNotFound, "Recipe not found."},
		{"malformed", "/api/recipes/1/rate", `{"rating":`, http.StatusBadRequest, "Invalid request."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := do(r, http.MethodPost, tc.path, tc.body)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d (body %s)", w.Code, tc.status, w.Body.String())
			}
			var resp struct {
				Message string `json:"message"`
			}
			decode(t, w, &resp)
			if resp.Message != tc.message {
				t.Fatalf("message = %q, want %q", resp.Message, tc.message)
			}
		})
	}
}

func TestHandleFavorite(t *testing.T) {
	r := newTestRouter(t)

	toggle := func(id string) FavoriteResponse {
		t.Helper()
		w := do(r, http.MethodPost, "/api/recipes/"+id+"/favorite", `{"userId":"u"}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", w.Code, w.Body.String())
		}
		var resp FavoriteResponse
		decode(t, w, &resp)
		return resp
	}

	if resp := toggle("3"); !resp.IsFavorite || resp.Message != "Favorite updated." {
		t.Fatalf("first toggle = %+v", resp)
	}
	toggle("1")
	if resp := toggle("3"); resp.IsFavorite {
		t.Fatalf("second toggle should unfavorite")
	}
	toggle("3")

	w := do(r, http.MethodGet, "/api/favorites?userId=u", "")
	var favs []common.Recipe
	decode(t, w, &favs)
	if len(favs) != 2 || favs[0].ID != 1 || favs[1].ID != 3 {
		t.Fatalf("favorites = %+v", favs)
	}

	w = do(r, http.MethodGet, "/api/favorites", "")
	if strings.TrimSpace(w.Body.String()) != "[]" {
		t.Fatalf("default user favorites = %s", w.Body.String())
	}

	expectError(t, do(r, http.MethodPost, "/api/recipes/42/favorite", ""), http.StatusNotFound, "Recipe not found.")
}

func TestHandleRecommendations(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/recommendations", "")
	var recs []common.RecommendedRecipe
	decode(t, w, &recs)
	if len(recs) != 5 || recs[0].ID != 1 {
		t.Fatalf("default recommendations = %+v", recs)
	}

	do(r, http.MethodPost, "/api/recipes/5/rate", `{"rating":5,"userId":"fan"}`)
	w = do(r, http.MethodGet, "/api/recommendations?userId=fan", "")
	decode(t, w, &recs)
	if len(recs) != 8 || recs[0].ID != 11 || recs[0].RecommendationScore != 2.5 {
		t.Fatalf("recommendations = %+v", recs)
	}
	if !strings.Contains(w.Body.String(), `"recommendationScore"`) {
		t.Fatalf("missing recommendationScore field")
	}
}

func TestHandleSubstitutions(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/substitutions/spinach", "")
	var resp SubstitutionsResponse
	decode(t, w, &resp)
	if len(resp.Substitutions) == 0 {
		t.Fatalf("no substitutions for spinach")
	}

	w = do(r, http.MethodGet, "/api/substitutions/unobtainium", "")
	if strings.TrimSpace(w.Body.String()) != `{"substitutions":[]}` {
		t.Fatalf("unknown ingredient body = %s", w.Body.String())
	}
}

func TestHandleIngredients(t *testing.T) {
	r := newTestRouter(t)

	w := do(r, http.MethodGet, "/api/ingredients", "")
	var all IngredientsResponse
	decode(t, w, &all)
	if len(all.Ingredients) < len(recipeService.CommonIngredients) {
		t.Fatalf("vocabulary too small: %d", len(all.Ingredients))
	}

	w = do(r, http.MethodGet, "/api/ingredients?q=tom&limit=3", "")
	var some IngredientsResponse
	decode(t, w, &some)
	if len(some.Ingredients) == 0 || len(some.Ingredients) > 3 {
		t.Fatalf("suggestions = %v", some.Ingredients)
	}
	found := false
	for _, name := range some.Ingredients {
		if name == "tomato" {
			found = true
		}
	}
	if !found {
		t.Fatalf("tomato not suggested: %v", some.Ingredients)
	}

	expectError(t, do(r, http.MethodGet, "/api/ingredients?limit=x", ""), http.StatusBadRequest, "limit must be a positive integer.")
}

func TestUserIDLength(t *testing.T) {
	r := newTestRouter(t)

	long := strings.Repeat("u", maxUserIDLength+1)
	expectError(t, do(r, http.MethodGet, "/api/favorites?userId="+long, ""),
		http.StatusBadRequest, "userId must be at most 64 characters.")
	expectError(t, do(r, http.MethodPost, "/api/recipes/1/rate", `{"rating":3,"userId":"`+long+`"}`),
		http.StatusBadRequest, "userId must be at most 64 characters.")
}
