package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/tutorhive/scheduling-backend/internal/auth"
	"github.com/tutorhive/scheduling-backend/internal/schedule"
	scheduleHttp "github.com/tutorhive/scheduling-backend/internal/schedule/http"
	"github.com/tutorhive/scheduling-backend/internal/user"
	userHttp "github.com/tutorhive/scheduling-backend/internal/user/http"
)

// Config holds the services and settings the router needs.
type Config struct {
	IsProduction    bool
	ProdOrigins     []string
	UserService     user.Service
	ScheduleService schedule.Service
	JWTManager      *auth.JWTManager
}

// NewRouter initializes the HTTP router engine: middleware (CORS, logging,
// recovery) plus the user and schedule routes.
func NewRouter(cfg Config) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	if cfg.IsProduction {
		corsConfig.AllowOrigins = cfg.ProdOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization"}
	r.Use(cors.New(corsConfig))

	authMiddleware := auth.AuthRequired(cfg.JWTManager)

	userHandler := userHttp.NewUserHandler(cfg.UserService, cfg.JWTManager)
	scheduleHandler := scheduleHttp.NewHandler(cfg.ScheduleService)

	v1 := r.Group("/v1")
	{
		userHttp.RegisterRoutes(v1, userHandler, authMiddleware)
		scheduleHttp.RegisterRoutes(v1, scheduleHandler, authMiddleware)
	}

	return r
}
