package cmd

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"profile-sync/core/config"
	"profile-sync/core/database"
	"profile-sync/core/eventbus"
	"profile-sync/core/loader"
	"profile-sync/core/logger"
	"profile-sync/core/middleware/auth"
	"profile-sync/core/middleware/rayid"
	"profile-sync/core/storage"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// startCmd represents the start command
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the profile sync server",
	Long:  `Starts the HTTP server, the event listeners and the audit schedule.`,
	Run: func(cmd *cobra.Command, args []string) {
		// 1. Load Configuration
		cfg, err := config.LoadConfig(".")
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		// 2. Initialize Logger
		logg, err := logger.New(&cfg.Log)
		if err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
		defer logg.Sync()
		zap.ReplaceGlobals(logg)

		// 3. Connect to Database (required)
		db, err := database.Connect(cfg.Database)
		if err != nil {
			logg.Fatal("Failed to connect to database", zap.Error(err))
		}
		if err := db.AutoMigrate(&models.User{}, &models.UserProfile{}, &models.OAuthAccount{}); err != nil {
			logg.Fatal("Failed to migrate schema", zap.Error(err))
		}

		// Both tables must carry every mirrored column, or sync writes
		// would silently drop fields.
		for _, table := range []string{models.User{}.TableName(), models.UserProfile{}.TableName()} {
			missing, err := database.MissingColumns(db, table, mirror.Fields())
			if err != nil {
				logg.Fatal("Failed to inspect table", zap.String("table", table), zap.Error(err))
			}
			if len(missing) > 0 {
				logg.Fatal("Mirrored columns missing",
					zap.String("table", table),
					zap.Strings("columns", missing))
			}
		}

		// 4. Initialize Storage
		store, err := storage.NewClient(cfg.Storage)
		if err != nil {
			logg.Fatal("Failed to create storage client", zap.Error(err))
		}

		// 5. Event Bus
		bus := eventbus.New(cfg.Events, logg)

		// 6. Initialize Fiber App
		app := fiber.New(fiber.Config{
			DisableStartupMessage: true, // We log our own startup message
		})

		// 7. Feature Loader
		mgr := loader.NewManager()
		feat := profile.NewFeature(cfg.Audit, db, store, cfg.Storage.Bucket, bus, logg, telemetry.NewZapSink(logg))
		mgr.Register(feat)

		// Middleware Registration
		// RayID must be first to trace everything.
		app.Use(rayid.New())

		app.Use(func(c *fiber.Ctx) error {
			l := logger.WithRayID(logg, c)
			l.Info("Request started",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("ip", c.IP()),
			)
			err := c.Next()
			if err != nil {
				l.Error("Request error", zap.Error(err))
			}
			return err
		})

		app.Use(auth.New(auth.Config{ApiKey: cfg.Server.ApiKey}))

		if err := mgr.LoadAll(app); err != nil {
			logg.Fatal("Failed to load features", zap.Error(err))
		}

		// 8. Start Server
		go func() {
			logg.Info("Starting server", zap.String("port", cfg.Server.Port))
			if err := app.Listen(":" + cfg.Server.Port); err != nil {
				logg.Fatal("Server failed to start", zap.Error(err))
			}
		}()

		// 9. Graceful Shutdown
		c := make(chan os.Signal, 1)
		signal.Notify(c, os.Interrupt, syscall.SIGTERM)
		<-c
		logg.Info("Shutting down server...")
		_ = app.Shutdown()
		feat.Stop()
		bus.Close()
	},
}

func init() {
	RootCmd.AddCommand(startCmd)
}
