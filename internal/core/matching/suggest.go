package matching

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"
)

// minSimilarity 拼字容錯的最低相似度
const minSimilarity = 0.6

// Suggest 依輸入提示食材名稱：先做模糊子序列比對，沒有結果時改用編輯距離
func Suggest(query string, vocabulary []string, limit int) []string {
	if limit <= 0 {
		limit = 10
	}

	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return head(vocabulary, limit)
	}

	matches := fuzzy.Find(q, vocabulary)
	if len(matches) > 0 {
		out := make([]string, 0, min(limit, len(matches)))
		for _, m := range matches {
			if len(out) == limit {
				break
			}
			out = append(out, m.Str)
		}
		return out
	}

	return closest(q, vocabulary, limit)
}

type candidate struct {
	name  string
	score float64
}

// closest 以編輯距離找出最接近的名稱
func closest(q string, vocabulary []string, limit int) []string {
	candidates := make([]candidate, 0)
	for _, name := range vocabulary {
		if s := similarity(q, name); s >= minSimilarity {
			candidates = append(candidates, candidate{name: name, score: s})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].name < candidates[j].name
	})

	out := make([]string, 0, min(limit, len(candidates)))
	for _, c := range candidates {
		if len(out) == limit {
			break
		}
		out = append(out, c.name)
	}
	return out
}

// similarity 回傳 0.0–1.0 的相似度：1 - distance/max(len)
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	maxLen := len([]rune(a))
	if lb := len([]rune(b)); lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein.ComputeDistance(a, b))/float64(maxLen)
}

func head(items []string, limit int) []string {
	if len(items) < limit {
		limit = len(items)
	}
	out := make([]string, limit)
	copy(out, items[:limit])
	return out
}
