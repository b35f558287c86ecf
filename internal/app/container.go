package app

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/tutorhive/scheduling-backend/internal/api"
	"github.com/tutorhive/scheduling-backend/internal/auth"
	"github.com/tutorhive/scheduling-backend/internal/notify"
	"github.com/tutorhive/scheduling-backend/internal/schedule"
	"github.com/tutorhive/scheduling-backend/internal/user"
)

// Config holds the dependencies and settings required to start the application.
type Config struct {
	IsProduction bool
	ProdOrigins  []string
	DBPool       *pgxpool.Pool
	JWTSecret    string
	JWTTTL       time.Duration
	BcryptCost   int
	Logger       *zap.Logger
}

// Container holds the initialized components that are needed externally.
type Container struct {
	Router     *gin.Engine
	JWTManager *auth.JWTManager
}

// NewContainer initializes all modules and returns the container.
func NewContainer(cfg Config) *Container {
	passwordHasher := auth.NewBcryptPasswordHasherWithCost(cfg.BcryptCost)
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL)

	// User module
	userRepo := user.NewPgxRepository(cfg.DBPool)
	userService := user.NewService(userRepo, passwordHasher)

	// Schedule module
	dispatcher := notify.NewLogDispatcher(cfg.Logger)
	store := schedule.NewPgStore(cfg.DBPool)
	allocator := schedule.NewAllocator(store, dispatcher, cfg.Logger)
	scheduleService := schedule.NewService(store, allocator, userService, dispatcher, cfg.Logger)

	router := api.NewRouter(api.Config{
		IsProduction:    cfg.IsProduction,
		ProdOrigins:     cfg.ProdOrigins,
		UserService:     userService,
		ScheduleService: scheduleService,
		JWTManager:      jwtManager,
	})

	return &Container{
		Router:     router,
		JWTManager: jwtManager,
	}
}
