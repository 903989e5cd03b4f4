package recipe

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"recipe-finder/internal/api/handlers"
	recipeService "recipe-finder/internal/core/recipe"
	"recipe-finder/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// 食材提示的預設與上限數量
const (
	defaultSuggestLimit = 10
	maxSuggestLimit     = 50

	maxUserIDLength = 64
)

// RateRequest 評分請求
type RateRequest struct {
	Rating interface{} `json:"rating"`
	UserID string      `json:"userId"`
}

// FavoriteRequest 收藏請求
type FavoriteRequest struct {
	UserID string `json:"userId"`
}

// FavoriteResponse 收藏結果
type FavoriteResponse struct {
	Message    string `json:"message"`
	IsFavorite bool   `json:"isFavorite"`
}

// SubstitutionsResponse 替代食材
type SubstitutionsResponse struct {
	Substitutions []string `json:"substitutions"`
}

// IngredientsResponse 食材提示
type IngredientsResponse struct {
	Ingredients []string `json:"ingredients"`
}

// Handler 食譜處理程序
type Handler struct {
	service *recipeService.Service
}

// NewHandler 創建新的食譜處理程序
func NewHandler(service *recipeService.Service) *Handler {
	return &Handler{service: service}
}

// Register 註冊食譜相關路由
func (h *Handler) Register(api *gin.RouterGroup) {
	api.GET("/recipes", h.HandleSearch)
	api.GET("/recipes/:id", h.HandleDetail)
	api.POST("/recipes/:id/rate", h.HandleRate)
	api.POST("/recipes/:id/favorite", h.HandleFavorite)
	api.GET("/favorites", h.HandleFavorites)
	api.GET("/recommendations", h.HandleRecommendations)
	api.GET("/substitutions/:ingredient", h.HandleSubstitutions)
	api.GET("/ingredients", h.HandleIngredients)
}

// HandleSearch 依食材搜尋食譜
func (h *Handler) HandleSearch(c *gin.Context) {
	q := common.SearchQuery{
		Ingredients: common.SplitList(c.Query("ingredients")),
		Dietary:     common.SplitList(c.Query("dietary")),
		Difficulty:  c.Query("difficulty"),
		Cuisine:     c.Query("cuisine"),
	}
	if raw := c.Query("maxTime"); raw != "" {
		maxTime, err := strconv.Atoi(raw)
		if err != nil || maxTime < 0 {
			handlers.RespondError(c, common.ErrInvalidFilter.WithMessage("maxTime must be a non-negative integer."))
			return
		}
		q.MaxTime = &maxTime
	}

	results, err := h.service.Search(c.Request.Context(), q)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogDebug("食譜搜尋完成",
		zap.String("request_id", handlers.RequestID(c)),
		zap.Strings("ingredients", q.Ingredients),
		zap.Int("results", len(results)),
	)
	c.JSON(http.StatusOK, results)
}

// HandleDetail 取得食譜詳情，可指定份量
func (h *Handler) HandleDetail(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	servings := 0
	if raw := c.Query("servings"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handlers.RespondError(c, common.ErrInvalidServings)
			return
		}
		servings = n
	}

	r, err := h.service.Get(id, servings)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// HandleRate 為食譜評分
func (h *Handler) HandleRate(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req RateRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	if !validUserID(c, req.UserID) {
		return
	}
	rating, ok := integerRating(req.Rating)
	if !ok {
		handlers.RespondError(c, common.ErrInvalidRating)
		return
	}

	if err := h.service.Rate(c.Request.Context(), req.UserID, id, rating); err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("評分已儲存",
		zap.String("request_id", handlers.RequestID(c)),
		zap.Int("recipe_id", id),
		zap.Int("rating", rating),
	)
	c.JSON(http.StatusOK, handlers.Message{Message: "Rating saved successfully."})
}

// HandleFavorite 切換收藏
func (h *Handler) HandleFavorite(c *gin.Context) {
	id, ok := recipeID(c)
	if !ok {
		return
	}

	var req FavoriteRequest
	if !bindOptionalJSON(c, &req) || !validUserID(c, req.UserID) {
		return
	}

	fav, err := h.service.ToggleFavorite(c.Request.Context(), req.UserID, id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{Message: "Favorite updated.", IsFavorite: fav})
}

// HandleFavorites 取得收藏清單
func (h *Handler) HandleFavorites(c *gin.Context) {
	userID := c.Query("userId")
	if !validUserID(c, userID) {
		return
	}
	recipes, err := h.service.Favorites(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recipes)
}

// HandleRecommendations 取得推薦食譜
func (h *Handler) HandleRecommendations(c *gin.Context) {
	userID := c.Query("userId")
	if !validUserID(c, userID) {
		return
	}
	recs, err := h.service.Recommend(c.Request.Context(), userID)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, recs)
}

// HandleSubstitutions 查詢替代食材
func (h *Handler) HandleSubstitutions(c *gin.Context) {
	c.JSON(http.StatusOK, SubstitutionsResponse{
		Substitutions: h.service.Substitutions(c.Param("ingredient")),
	})
}

// HandleIngredients 食材提示，未帶 q 時回傳完整清單
func (h *Handler) HandleIngredients(c *gin.Context) {
	query := c.Query("q")
	limit := defaultSuggestLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			handlers.RespondError(c, common.ErrInvalidRequest.WithMessage("limit must be a positive integer."))
			return
		}
		limit = min(n, maxSuggestLimit)
	}

	if query == "" && c.Query("limit") == "" {
		c.JSON(http.StatusOK, IngredientsResponse{Ingredients: h.service.Vocabulary()})
		return
	}
	c.JSON(http.StatusOK, IngredientsResponse{Ingredients: h.service.Suggest(query, limit)})
}

// integerRating 評分必須是整數，字串或小數一律無效
func integerRating(v interface{}) (int, bool) {
	f, ok := v.(float64)
	if !ok || f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

func validUserID(c *gin.Context, userID string) bool {
	if len(userID) > maxUserIDLength {
		handlers.RespondError(c, common.NewValidationError(
			fmt.Sprintf("userId must be at most %d characters.", maxUserIDLength)))
		return false
	}
	return true
}

// recipeID 解析路徑中的食譜 ID，非數字視為找不到
func recipeID(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		handlers.RespondError(c, common.ErrRecipeNotFound)
		return 0, false
	}
	return id, true
}

// bindOptionalJSON 解析 JSON 請求體，允許空白請求體
func bindOptionalJSON(c *gin.Context, v interface{}) bool {
	if c.Request.Body == nil || c.Request.ContentLength == 0 {
		return true
	}
	if err := common.DecodeJSON(c.Request.Body, v); err != nil && !errors.Is(err, io.EOF) {
		common.LogWarn("請求格式無效",
			zap.String("request_id", handlers.RequestID(c)),
			zap.Error(err),
		)
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(err))
		return false
	}
	return true
}
