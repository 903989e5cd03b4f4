package catalog

import (
	_ "embed"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"recipe-finder/internal/pkg/common"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed recipes.json
var embeddedRecipes []byte

// Catalog 唯讀的食譜目錄
type Catalog struct {
	recipes []common.Recipe
	byID    map[int]int
}

// Load 載入食譜目錄，path 為空時使用內嵌資料
func Load(path string) (*Catalog, error) {
	if path == "" {
		c, err := Parse(embeddedRecipes, ".json")
		if err != nil {
			return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
		}
		common.LogInfo("Recipe catalog loaded",
			zap.String("source", "embedded"),
			zap.Int("recipes", c.Len()),
		)
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}

	c, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}

	common.LogInfo("Recipe catalog loaded",
		zap.String("source", path),
		zap.Int("recipes", c.Len()),
	)
	return c, nil
}

// Parse 依副檔名解析 JSON 或 YAML
func Parse(data []byte, ext string) (*Catalog, error) {
	var recipes []common.Recipe

	switch strings.ToLower(ext) {
	case ".json", "":
		if err := json.Unmarshal(data, &recipes); err != nil {
			return nil, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &recipes); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", ext)
	}

	return New(recipes)
}

// New 驗證並建立目錄
func New(recipes []common.Recipe) (*Catalog, error) {
	if len(recipes) == 0 {
		return nil, fmt.Errorf("catalog is empty")
	}

	c := &Catalog{
		recipes: make([]common.Recipe, 0, len(recipes)),
		byID:    make(map[int]int, len(recipes)),
	}

	for i, r := range recipes {
		if r.ID <= 0 {
			return nil, fmt.Errorf("recipe #%d: id must be positive", i)
		}
		if _, dup := c.byID[r.ID]; dup {
			return nil, fmt.Errorf("recipe #%d: duplicate id %d", i, r.ID)
		}
		if strings.TrimSpace(r.Name) == "" {
			return nil, fmt.Errorf("recipe %d: name is required", r.ID)
		}
		if len(r.Ingredients) == 0 {
			return nil, fmt.Errorf("recipe %d: ingredients are required", r.ID)
		}
		if r.Servings <= 0 {
			return nil, fmt.Errorf("recipe %d: servings must be positive", r.ID)
		}
		if r.Dietary == nil {
			r.Dietary = []string{}
		}
		c.byID[r.ID] = len(c.recipes)
		c.recipes = append(c.recipes, r)
	}

	return c, nil
}

// Len 食譜數量
func (c *Catalog) Len() int {
	return len(c.recipes)
}

// All 依目錄順序回傳所有食譜
func (c *Catalog) All() []common.Recipe {
	out := make([]common.Recipe, len(c.recipes))
	copy(out, c.recipes)
	return out
}

// Get 依 ID 取得食譜
func (c *Catalog) Get(id int) (common.Recipe, error) {
	idx, ok := c.byID[id]
	if !ok {
		return common.Recipe{}, common.ErrRecipeNotFound
	}
	return c.recipes[idx], nil
}

// Has 檢查食譜是否存在
func (c *Catalog) Has(id int) bool {
	_, ok := c.byID[id]
	return ok
}

// Substitutions 合併所有食譜中對應食材的替代品，key 以 normalize 比對
func (c *Catalog) Substitutions(ingredient string, normalize func(string) string) []string {
	want := normalize(ingredient)
	seen := make(map[string]bool)
	out := []string{}

	for _, r := range c.recipes {
		for key, subs := range r.Substitutions {
			if normalize(key) != want {
				continue
			}
			for _, s := range subs {
				if !seen[s] {
					seen[s] = true
					out = append(out, s)
				}
			}
		}
	}
	return out
}

// Vocabulary 目錄中出現的所有食材名稱（排序、去重）
func (c *Catalog) Vocabulary() []string {
	seen := make(map[string]bool)
	for _, r := range c.recipes {
		for _, ing := range r.Ingredients {
			seen[strings.ToLower(strings.TrimSpace(ing))] = true
		}
	}
	out := make([]string, 0, len(seen))
	for ing := range seen {
		out = append(out, ing)
	}
	sort.Strings(out)
	return out
}

// ScaleServings 依份量等比例調整營養資訊
func ScaleServings(r common.Recipe, servings int) (common.Recipe, error) {
	if servings <= 0 {
		return common.Recipe{}, common.ErrInvalidServings
	}
	if servings == r.Servings {
		return r, nil
	}

	ratio := float64(servings) / float64(r.Servings)
	scaled := r
	scaled.Servings = servings
	scaled.NutritionalInfo = common.NutritionalInfo{
		Calories: int(math.Round(float64(r.NutritionalInfo.Calories) * ratio)),
		Protein:  int(math.Round(float64(r.NutritionalInfo.Protein) * ratio)),
		Carbs:    int(math.Round(float64(r.NutritionalInfo.Carbs) * ratio)),
		Fat:      int(math.Round(float64(r.NutritionalInfo.Fat) * ratio)),
	}
	return scaled, nil
}
