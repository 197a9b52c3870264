package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"sitevis/internal/models"
	"sitevis/internal/prompts"
)

// ListPresets godoc
// @Summary     List edit presets
// @Description Presets grouped by category in display order
// @Tags        catalog
// @Produce     json
// @Success     200 {object} models.PresetListResponse
// @Router      /presets [get]
func ListPresets(c *gin.Context) {
	var categories []models.PresetCategoryResponse
	index := map[prompts.Category]int{}
	for _, p := range prompts.Presets() {
		i, ok := index[p.Category]
		if !ok {
			i = len(categories)
			index[p.Category] = i
			categories = append(categories, models.PresetCategoryResponse{Category: string(p.Category)})
		}
		categories[i].Presets = append(categories[i].Presets, models.PresetResponse{
			ID:       p.ID,
			Name:     p.Name,
			Category: string(p.Category),
		})
	}
	c.JSON(http.StatusOK, models.PresetListResponse{Categories: categories})
}

// ListOptions godoc
// @Summary     List project creation options
// @Tags        catalog
// @Produce     json
// @Success     200 {object} models.OptionListResponse
// @Router      /options [get]
func ListOptions(c *gin.Context) {
	all := prompts.Options()
	out := make([]models.OptionResponse, len(all))
	for i, o := range all {
		out[i] = models.OptionResponse{
			ID:          string(o.ID),
			Group:       string(o.Group),
			Title:       o.Title,
			Description: o.Description,
		}
	}
	c.JSON(http.StatusOK, models.OptionListResponse{Options: out})
}

// SuggestProjectName godoc
// @Summary     Suggest a project name
// @Tags        catalog
// @Produce     json
// @Success     200 {object} models.NameSuggestionResponse
// @Router      /names/suggestion [get]
func SuggestProjectName(c *gin.Context) {
	c.JSON(http.StatusOK, models.NameSuggestionResponse{Name: prompts.SuggestName()})
}
