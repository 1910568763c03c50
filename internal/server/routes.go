package server

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
	slogGin "github.com/samber/slog-gin"

	authHandler "github.com/openmined/syftbox/internal/server/handlers/auth"
	syncHandler "github.com/openmined/syftbox/internal/server/handlers/sync"
	"github.com/openmined/syftbox/internal/server/middlewares"
	"github.com/openmined/syftbox/internal/version"
)

func SetupRoutes(svc *Services) http.Handler {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20 // 8 MiB

	syncH := syncHandler.New(svc.Datasite)
	authH := authHandler.New(svc.Auth)

	httpLogger := slog.Default().WithGroup("http")
	r.Use(slogGin.NewWithConfig(httpLogger, slogGin.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
		WithRequestID:    true,
	}))
	r.Use(gin.Recovery())
	r.Use(gzip.Gzip(gzip.BestSpeed))
	r.Use(cors.Default())
	r.Use(secure.New(secure.Config{
		ContentTypeNosniff: true,
		FrameDeny:          true,
	}))

	r.GET("/", IndexHandler)
	r.GET("/healthz", HealthHandler)

	r.POST("/auth/request_email_token", middlewares.RateLimiter("5-M"), authH.RequestEmailToken)
	r.POST("/auth/validate_email_token", middlewares.RateLimiter("10-M"), authH.ValidateEmailToken)

	sync := r.Group("/sync")
	sync.Use(middlewares.JWTAuth(svc.Auth))
	{
		sync.POST("/datasite_states", syncH.DatasiteStates)
		sync.POST("/dir_state", syncH.DirState)
		sync.POST("/get_metadata", syncH.GetMetadata)
		sync.POST("/get_diff", syncH.GetDiff)
		sync.POST("/apply_diff", syncH.ApplyDiff)
		sync.POST("/create", syncH.Create)
		sync.POST("/delete", syncH.Delete)
		sync.POST("/download", syncH.Download)
		sync.POST("/download_bulk", syncH.DownloadBulk)
	}

	r.NoRoute(func(c *gin.Context) {
		c.PureJSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.PureJSON(http.StatusMethodNotAllowed, gin.H{"error": "method not allowed"})
	})

	return r.Handler()
}

func IndexHandler(ctx *gin.Context) {
	ctx.String(http.StatusOK, version.Detailed())
}

func HealthHandler(ctx *gin.Context) {
	ctx.PureJSON(http.StatusOK, gin.H{"status": "ok"})
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
