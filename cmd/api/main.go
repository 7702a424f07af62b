package main

import (
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"campusshuttle/internal/config"
	"campusshuttle/internal/database"
	"campusshuttle/internal/middleware"
	"campusshuttle/internal/modules/booking"
	"campusshuttle/internal/modules/notification"
	"campusshuttle/internal/modules/shuttle"
	jwtsvc "campusshuttle/internal/pkg/jwt"
	"campusshuttle/internal/realtime"
	"campusshuttle/internal/repository"
)

func main() {
	// .env is for local development only; missing file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	userRepo := repository.NewUserRepository(db)
	shuttleRepo := repository.NewShuttleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTAccessTTL)

	hub := realtime.NewHub()

	notificationService := notification.NewService(notificationRepo, hub)
	notificationHandler := notification.NewHandler(notificationService)

	bookingService := booking.NewService(
		db,
		shuttleRepo,
		bookingRepo,
		userRepo,
		notificationService,
		hub,
		cfg.UserCacheTTL,
	)
	bookingHandler := booking.NewHandler(bookingService)

	shuttleService := shuttle.NewService(shuttleRepo, userRepo, hub, cfg.ShuttleCacheTTL)
	shuttleHandler := shuttle.NewHandler(shuttleService)

	realtimeHandler := realtime.NewHandler(hub, j)

	r := gin.Default()
	r.Use(middleware.ErrorLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSAllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	realtimeHandler.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	{
		protected := v1.Group("/")
		protected.Use(middleware.Auth(j))
		{
			bookingHandler.RegisterRoutes(protected)
			notificationHandler.RegisterRoutes(protected)
		}

		// shuttle reads are public; writes sit behind auth
		shuttleHandler.RegisterRoutes(v1, protected)
	}

	if err := r.Run(cfg.AppAddr); err != nil {
		log.Fatal(err)
	}
}
