package cmd

import (
	"fmt"

	"profile-sync/core/config"
	"profile-sync/core/database"
	"profile-sync/core/eventbus"
	"profile-sync/core/logger"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/audit"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/sync"

	"go.uber.org/zap"
)

// ops carries the wiring shared by the audit and sync subcommands. They run
// against the database directly, without the HTTP server.
type ops struct {
	logger  *zap.Logger
	bus     *eventbus.Bus
	engine  *sync.Engine
	auditor *audit.Auditor
}

func newOps() (*ops, error) {
	cfg, err := config.LoadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}

	bus := eventbus.New(cfg.Events, logg)
	users := store.NewUserStore(db)
	profiles := store.NewProfileStore(db)
	accounts := store.NewOAuthAccountStore(db)

	engine := sync.NewEngine(users, profiles, accounts, bus, logg, telemetry.NewZapSink(logg))
	// CLI audits run on demand, so the enabled gate does not apply here.
	auditCfg := cfg.Audit
	auditCfg.Enabled = true
	auditor := audit.NewAuditor(auditCfg, users, profiles, engine, logg, telemetry.NewZapSink(logg))

	return &ops{logger: logg, bus: bus, engine: engine, auditor: auditor}, nil
}

// close drains pending event deliveries before the process exits.
func (o *ops) close() {
	o.bus.Close()
	_ = o.logger.Sync()
}
