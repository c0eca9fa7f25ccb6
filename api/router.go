package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/sectionscope/api/handler"
	"github.com/use-agent/sectionscope/api/middleware"
	"github.com/use-agent/sectionscope/cache"
	"github.com/use-agent/sectionscope/config"
)

// Services are the collaborators the routes depend on. Browser and
// History may be nil.
type Services struct {
	Scraper   handler.Scraper
	Browser   handler.BrowserStats
	History   handler.History
	StoreName string
	Cache     *cache.Cache
	StartTime time.Time
}

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	Scrape:  Auth (if enabled)
//
// Health endpoints are outside auth so monitoring probes always work.
func NewRouter(cfg *config.Config, svc Services) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(handler.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.CORS(cfg.Server.CORSOrigins))

	health := handler.Health(svc.Browser, svc.StoreName, svc.StartTime)
	r.GET("/healthz", health)

	v1 := r.Group("/api/v1")
	v1.GET("/health", health)

	var auth []gin.HandlerFunc
	if cfg.Auth.Enabled {
		auth = append(auth, middleware.Auth(cfg.Auth.APIKeys))
	}

	scrape := handler.Scrape(svc.Scraper, svc.Cache)
	r.POST("/scrape", append(auth, scrape)...)
	v1.POST("/scrape", append(auth, scrape)...)
	v1.GET("/scrapes", append(auth, handler.Scrapes(svc.History))...)

	return r
}
