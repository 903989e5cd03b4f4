package matching

import (
	"strings"

	"recipe-finder/internal/pkg/common"
)

// ApplyFilters 依飲食、難度、時間與料理類型篩選搜尋結果
func ApplyFilters(results []common.ScoredRecipe, q common.SearchQuery) []common.ScoredRecipe {
	out := make([]common.ScoredRecipe, 0, len(results))
	for _, r := range results {
		if KeepRecipe(r.Recipe, q) {
			out = append(out, r)
		}
	}
	return out
}

// KeepRecipe 判斷單一食譜是否符合篩選條件
func KeepRecipe(r common.Recipe, q common.SearchQuery) bool {
	if len(q.Dietary) > 0 && !matchesDietary(r.Dietary, q.Dietary) {
		return false
	}
	if q.Difficulty != "" && !strings.EqualFold(r.Difficulty, strings.TrimSpace(q.Difficulty)) {
		return false
	}
	if q.MaxTime != nil && r.CookingTime > *q.MaxTime {
		return false
	}
	if q.Cuisine != "" && !strings.Contains(strings.ToLower(r.Cuisine), strings.ToLower(strings.TrimSpace(q.Cuisine))) {
		return false
	}
	return true
}

// matchesDietary 任一飲食標籤包含任一篩選值即符合
func matchesDietary(tags, filters []string) bool {
	for _, f := range filters {
		f = strings.ToLower(strings.TrimSpace(f))
		if f == "" {
			continue
		}
		for _, tag := range tags {
			if strings.Contains(strings.ToLower(tag), f) {
				return true
			}
		}
	}
	return false
}
