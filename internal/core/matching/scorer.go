package matching

import (
	"math"
	"sort"

	"recipe-finder/internal/pkg/common"
)

// 加分規則
const (
	matchCountBonusMin = 3    // 至少命中幾項食材才加分
	matchCountBonus    = 10.0 // 命中數加分
	percentBonusMin    = 50.0 // 命中比例達標門檻
	percentBonus       = 5.0  // 命中比例加分
	maxScore           = 100.0
)

// term 預先正規化的食材
type term struct {
	norm  string
	canon string
}

// Matcher 食材比對器
type Matcher struct {
	aliases map[string]string
}

// NewMatcher 以同義詞表建立比對器
func NewMatcher(synonyms map[string][]string) *Matcher {
	m := &Matcher{aliases: make(map[string]string)}
	for canonical, alts := range synonyms {
		c := Normalize(canonical)
		m.aliases[c] = c
		for _, alt := range alts {
			m.aliases[Normalize(alt)] = c
		}
	}
	return m
}

// DefaultMatcher 使用內建同義詞表
func DefaultMatcher() *Matcher {
	return NewMatcher(DefaultSynonyms)
}

// Canonical 取得食材的標準名稱，未知食材回傳正規化結果
func (m *Matcher) Canonical(s string) string {
	n := Normalize(s)
	if c, ok := m.aliases[n]; ok {
		return c
	}
	return n
}

func (m *Matcher) newTerm(s string) term {
	n := Normalize(s)
	c := n
	if canon, ok := m.aliases[n]; ok {
		c = canon
	}
	return term{norm: n, canon: c}
}

func (m *Matcher) matchTerms(recipeIng, userIng term) bool {
	if recipeIng.norm == "" || userIng.norm == "" {
		return false
	}
	if recipeIng.canon == userIng.canon {
		return true
	}
	return contains(recipeIng.norm, userIng.norm) || contains(recipeIng.canon, userIng.canon)
}

// Matches 判斷食譜食材是否被使用者食材涵蓋
func (m *Matcher) Matches(recipeIngredient, userIngredient string) bool {
	return m.matchTerms(m.newTerm(recipeIngredient), m.newTerm(userIngredient))
}

// userTerms 正規化並去重使用者食材
func (m *Matcher) userTerms(ingredients []string) []term {
	seen := make(map[string]bool, len(ingredients))
	out := make([]term, 0, len(ingredients))
	for _, ing := range ingredients {
		t := m.newTerm(ing)
		if t.norm == "" || seen[t.norm] {
			continue
		}
		seen[t.norm] = true
		out = append(out, t)
	}
	return out
}

// Score 計算單一食譜的匹配分數
func (m *Matcher) Score(recipe common.Recipe, userIngredients []string) common.ScoredRecipe {
	return m.score(recipe, m.userTerms(userIngredients))
}

func (m *Matcher) score(recipe common.Recipe, users []term) common.ScoredRecipe {
	result := common.ScoredRecipe{
		Recipe:             recipe,
		MatchedIngredients: []string{},
		MissingIngredients: []string{},
	}

	for _, ing := range recipe.Ingredients {
		rt := m.newTerm(ing)
		found := false
		for _, ut := range users {
			if m.matchTerms(rt, ut) {
				found = true
				break
			}
		}
		if found {
			result.MatchedIngredients = append(result.MatchedIngredients, ing)
		} else {
			result.MissingIngredients = append(result.MissingIngredients, ing)
		}
	}

	result.MatchCount = len(result.MatchedIngredients)
	if len(recipe.Ingredients) == 0 || result.MatchCount == 0 {
		return result
	}

	base := float64(result.MatchCount) / float64(len(recipe.Ingredients)) * 100
	score := base
	if result.MatchCount >= matchCountBonusMin {
		score += matchCountBonus
	}
	if base >= percentBonusMin {
		score += percentBonus
	}
	if score > maxScore {
		score = maxScore
	}
	result.MatchScore = math.Round(score*10) / 10

	return result
}

// Rank 為所有食譜評分，保留分數大於 0 的結果並排序
func (m *Matcher) Rank(recipes []common.Recipe, userIngredients []string) ([]common.ScoredRecipe, error) {
	users := m.userTerms(userIngredients)
	if len(users) == 0 {
		return nil, common.ErrNoIngredients
	}

	results := make([]common.ScoredRecipe, 0, len(recipes))
	for _, r := range recipes {
		scored := m.score(r, users)
		if scored.MatchScore > 0 {
			results = append(results, scored)
		}
	}

	// 分數高者優先，其次命中數多、缺少食材少，最後以 ID 排序
	sort.SliceStable(results, func(i, j int) bool {
		a, b := results[i], results[j]
		if a.MatchScore != b.MatchScore {
			return a.MatchScore > b.MatchScore
		}
		if a.MatchCount != b.MatchCount {
			return a.MatchCount > b.MatchCount
		}
		if len(a.MissingIngredients) != len(b.MissingIngredients) {
			return len(a.MissingIngredients) < len(b.MissingIngredients)
		}
		return a.ID < b.ID
	})

	return results, nil
}
