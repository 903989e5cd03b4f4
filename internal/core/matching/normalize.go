package matching

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// minContainLen 子字串比對時，被包含的一方至少要有的長度
const minContainLen = 3

// Normalize 正規化食材名稱：小寫、去除重音、合併空白、最後一個字轉單數
func Normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}

	// transform.Chain 帶狀態，每次呼叫都要建立新的
	stripAccents := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(stripAccents, s); err == nil {
		s = folded
	}

	words := strings.Fields(s)
	if len(words) == 0 {
		return ""
	}
	words[len(words)-1] = singular(words[len(words)-1])
	return strings.Join(words, " ")
}

// singular 去除常見英文複數字尾
// ies/oes 只處理長度大於 4 的字，以 us 結尾的字不去 s (asparagus, hummus)
func singular(w string) string {
	switch {
	case len(w) > 4 && strings.HasSuffix(w, "ies"):
		return w[:len(w)-3] + "y"
	case len(w) > 4 && strings.HasSuffix(w, "oes"):
		return w[:len(w)-2]
	case len(w) > 4 && (strings.HasSuffix(w, "ches") || strings.HasSuffix(w, "shes") ||
		strings.HasSuffix(w, "xes") || strings.HasSuffix(w, "sses")):
		return w[:len(w)-2]
	case len(w) > 3 && strings.HasSuffix(w, "s") &&
		!strings.HasSuffix(w, "ss") && !strings.HasSuffix(w, "us"):
		return w[:len(w)-1]
	}
	return w
}

// contains 雙向子字串比對
func contains(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}
	if len(b) >= minContainLen && strings.Contains(a, b) {
		return true
	}
	return len(a) >= minContainLen && strings.Contains(b, a)
}
