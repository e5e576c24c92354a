package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"masterclass.link/configs"
	"masterclass.link/configs/configsdatabase"
	"masterclass.link/configs/configslog"
	"masterclass.link/pkg/places"
	"masterclass.link/pkg/queue"
	"masterclass.link/repositories"
	"masterclass.link/routes"
	"masterclass.link/services"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	configslog.InitLogger()
	defer configslog.SyncLogger()

	cfg := configs.Load()
	configsdatabase.InitDB(cfg)
	defer configsdatabase.CloseDB()
	db := configsdatabase.GetDB()

	var storage fiber.Storage
	if client := configs.NewRedisClient(cfg.Redis); client != nil {
		redisStorage := configs.NewRedisStorage(client, "masterclass:")
		defer redisStorage.Close()
		storage = redisStorage
	}

	var lookup services.PlaceLookup
	if cfg.Places.APIKey != "" {
		client, err := places.NewClient(cfg.Places.APIKey, cfg.Places.Timeout)
		if err != nil {
			configslog.Log.Fatal("Places client could not be created", zap.Error(err))
		}
		lookup = client
	} else {
		configslog.SLog.Warn("GOOGLE_MAPS_API_KEY not set, location search uses stored locations only")
	}

	var publisher services.BookingEventPublisher
	if cfg.RabbitMQURL != "" {
		p, err := queue.NewPublisher(cfg.RabbitMQURL)
		if err != nil {
			configslog.Log.Fatal("Booking publisher could not be created", zap.Error(err))
		}
		defer func() {
			if err := p.Close(); err != nil {
				configslog.Log.Warn("Booking publisher close failed", zap.Error(err))
			}
		}()
		publisher = p
	}

	userRepo := repositories.NewUserRepository(db)
	contentRepo := repositories.NewMasterclassContentRepository(db)
	locationRepo := repositories.NewLocationRepository(db)
	masterclassRepo := repositories.NewMasterclassRepository(db)
	attendeeRepo := repositories.NewMasterclassAttendeeRepository(db)

	masterclassService := services.NewMasterclassService(masterclassRepo, contentRepo, locationRepo)
	resolver := services.NewLocationResolver(locationRepo, lookup)

	app := routes.NewApp(routes.Dependencies{
		Auth:           services.NewAuthService(userRepo, cfg.BcryptCost),
		Masterclasses:  masterclassService,
		Bookings:       services.NewBookingService(masterclassRepo, attendeeRepo, publisher),
		Wizard:         services.NewWizardService(masterclassService, resolver),
		SessionStore:   configs.SetupSession(cfg.Session, storage),
		Storage:        storage,
		CookieKey:      cfg.Session.Secret,
		LoginRateLimit: cfg.LoginRateLimit,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		configslog.SLog.Info("Shutting down server...")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			configslog.Log.Error("Server shutdown failed", zap.Error(err))
		}
	}()

	configslog.SLog.Infof("Listening on :%s (env=%s)", cfg.Port, cfg.Env)
	if err := app.Listen(":" + cfg.Port); err != nil {
		configslog.Log.Error("Server stopped", zap.Error(err))
	}
}
