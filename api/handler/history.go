package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sectionscope/models"
	"github.com/use-agent/sectionscope/validate"
)

// History lists persisted summaries, newest first.
type History interface {
	Recent(ctx context.Context, url string, limit int) ([]models.Summary, error)
}

// Scrapes returns a handler for GET /api/v1/scrapes?url=&limit=.
//
// The url filter is normalised the same way scrape requests are, so it
// matches stored summaries. A nil history yields an empty list.
func Scrapes(h History) gin.HandlerFunc {
	return func(c *gin.Context) {
		var pageURL string
		if raw := c.Query("url"); raw != "" {
			u, err := validate.URL(raw)
			if err != nil {
				respondValidation(c, err.Error())
				return
			}
			pageURL = u
		}

		limit := 0
		if raw := c.Query("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 0 {
				respondValidation(c, "limit must be a non-negative integer")
				return
			}
			limit = n
		}

		summaries := []models.Summary{}
		if h != nil {
			got, err := h.Recent(c.Request.Context(), pageURL, limit)
			if err != nil {
				slog.Error("history lookup failed", "url", pageURL, "error", err)
				respondServer(c, "failed to read scrape history")
				return
			}
			summaries = got
		}

		c.JSON(http.StatusOK, models.HistoryResponse{
			URL:       pageURL,
			Summaries: summaries,
		})
	}
}
