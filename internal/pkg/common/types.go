package common

// NutritionalInfo 每份食譜的營養資訊
type NutritionalInfo struct {
	Calories int `json:"calories" yaml:"calories"`
	Protein  int `json:"protein" yaml:"protein"`
	Carbs    int `json:"carbs" yaml:"carbs"`
	Fat      int `json:"fat" yaml:"fat"`
}

// Recipe 食譜
// 欄位名稱沿用前端使用的 camelCase
type Recipe struct {
	ID              int                 `json:"id" yaml:"id"`
	Name            string              `json:"name" yaml:"name"`
	Ingredients     []string            `json:"ingredients" yaml:"ingredients"`
	Instructions    []string            `json:"instructions" yaml:"instructions"`
	CookingTime     int                 `json:"cookingTime" yaml:"cookingTime"`
	Difficulty      string              `json:"difficulty" yaml:"difficulty"`
	Dietary         []string            `json:"dietary" yaml:"dietary"`
	Cuisine         string              `json:"cuisine" yaml:"cuisine"`
	Servings        int                 `json:"servings" yaml:"servings"`
	NutritionalInfo NutritionalInfo     `json:"nutritionalInfo" yaml:"nutritionalInfo"`
	Substitutions   map[string][]string `json:"substitutions,omitempty" yaml:"substitutions"`
}

// ScoredRecipe 食材搜尋結果
type ScoredRecipe struct {
	Recipe
	MatchScore         float64  `json:"matchScore"`
	MatchCount         int      `json:"matchCount"`
	MatchedIngredients []string `json:"matchedIngredients"`
	MissingIngredients []string `json:"missingIngredients"`
}

// RecommendedRecipe 推薦結果
type RecommendedRecipe struct {
	Recipe
	RecommendationScore float64 `json:"recommendationScore"`
}

// SearchQuery 食材搜尋條件
type SearchQuery struct {
	Ingredients []string
	Dietary     []string
	Difficulty  string
	MaxTime     *int // nil 代表不限制
	Cuisine     string
}

// RecognitionResult 食材辨識結果
type RecognitionResult struct {
	Ingredients []string `json:"ingredients"`
	Confidence  float64  `json:"confidence"`
	Message     string   `json:"message"`
	Provider    string   `json:"provider,omitempty"`
}

// DefaultUserID 未提供 userId 時使用
const DefaultUserID = "default"

// UserOrDefault 回傳 userID，空白時使用預設值
func UserOrDefault(userID string) string {
	if userID == "" {
		return DefaultUserID
	}
	return userID
}
