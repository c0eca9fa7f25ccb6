package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sectionscope/cache"
	"github.com/use-agent/sectionscope/extractor"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/pipeline"
	"github.com/use-agent/sectionscope/validate"
)

// Scraper runs the extraction pipeline for one validated URL.
type Scraper interface {
	Run(ctx context.Context, pageURL string, opts pipeline.Options) *models.ScrapeResult
}

// Scrape returns a handler for POST /scrape.
//
//  1. Bind and validate the request (400 with a validate-phase error).
//  2. Serve from cache when maxAge allows it.
//  3. Run the pipeline; every outcome past validation is a 200.
//  4. Cache clean results.
func Scrape(sc Scraper, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidation(c, fmt.Sprintf("Invalid request body: %v", err))
			return
		}

		pageURL, err := validate.URL(req.URL)
		if err != nil {
			respondValidation(c, err.Error())
			return
		}
		if err := extractor.ValidateScope(req.Scope); err != nil {
			respondValidation(c, fmt.Sprintf("Invalid scope selector: %v", err))
			return
		}

		key := cache.Key(pageURL, req.IncludeMarkdown, req.Scope, req.ForceRender)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(key, req.MaxAge); hit {
				slog.Debug("scrape served from cache", "url", pageURL)
				c.JSON(http.StatusOK, models.ScrapeResponse{Result: cached})
				return
			}
		}

		result := sc.Run(c.Request.Context(), pageURL, pipeline.Options{
			ForceRender: req.ForceRender,
			Extract: extractor.Options{
				Markdown: req.IncludeMarkdown,
				Scope:    req.Scope,
			},
		})

		if cc != nil && req.MaxAge > 0 && len(result.Errors) == 0 {
			cc.Set(key, result)
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{Result: result})
	}
}

// respondValidation writes the 400 body: a null result and one
// validate-phase error.
func respondValidation(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ScrapeResponse{
		Result: nil,
		Errors: []models.PhaseError{{Message: message, Phase: models.PhaseValidate}},
	})
}

// respondServer writes the 500 body used for request-layer faults.
func respondServer(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ScrapeResponse{
		Result: nil,
		Errors: []models.PhaseError{{Message: message, Phase: models.PhaseServer}},
	})
}

// Recovery converts a panic in any handler into the 500 server-phase body.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, err any) {
		slog.Error("request panic recovered",
			"path", c.Request.URL.Path,
			"panic", err,
		)
		respondServer(c, fmt.Sprintf("%v", err))
	})
}
