package profile

import (
	"profile-sync/core/eventbus"
	"profile-sync/core/storage"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/audit"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/sync"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Feature implements the loader.Feature interface. It owns the sync engine,
// its event listener, the auditor and the profile service.
type Feature struct {
	service   *Service
	handler   *Handler
	engine    *sync.Engine
	auditor   *audit.Auditor
	scheduler *audit.Scheduler
}

// NewFeature wires the profile feature and subscribes the sync listener to
// the event bus.
func NewFeature(auditCfg audit.Config, db *gorm.DB, client storage.Client, bucket string, bus *eventbus.Bus, logger *zap.Logger, sink telemetry.Sink) *Feature {
	users := store.NewUserStore(db)
	profiles := store.NewProfileStore(db)
	accounts := store.NewOAuthAccountStore(db)

	engine := sync.NewEngine(users, profiles, accounts, bus, logger, sink)
	sync.NewListener(engine, logger).Register(bus)

	auditor := audit.NewAuditor(auditCfg, users, profiles, engine, logger, sink)
	svc := NewService(users, profiles, engine, client, bucket, db, bus, logger)
	h := NewHandler(svc, engine, auditor, logger)

	return &Feature{
		service:   svc,
		handler:   h,
		engine:    engine,
		auditor:   auditor,
		scheduler: audit.NewScheduler(auditor, logger),
	}
}

// Name returns the name of the feature.
func (f *Feature) Name() string {
	return "profile"
}

// IsEnabled checks if the feature is enabled.
func (f *Feature) IsEnabled() bool {
	return true
}

// Load registers the feature's routes and starts the audit schedule.
func (f *Feature) Load(app fiber.Router) error {
	f.handler.RegisterRoutes(app)
	return f.scheduler.Start()
}

// Stop halts the audit schedule.
func (f *Feature) Stop() {
	f.scheduler.Stop()
}

// Engine exposes the sync engine for CLI use.
func (f *Feature) Engine() *sync.Engine { return f.engine }

// Auditor exposes the auditor for CLI use.
func (f *Feature) Auditor() *audit.Auditor { return f.auditor }

// Service exposes the profile service for CLI use.
func (f *Feature) Service() *Service { return f.service }
