package audit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/sync"

	"go.uber.org/zap"
)

// mismatchTypes maps a mirrored field name to its issue classification.
var mismatchTypes = map[string]IssueType{
	mirror.FieldEmail:         EmailMismatch,
	mirror.FieldEmailVerified: VerificationMismatch,
	mirror.FieldGrade:         GradeMismatch,
	mirror.FieldGoal:          GoalMismatch,
}

// Auditor walks the identity records and classifies divergences from the
// profile projection. Audits are read-mostly: the only automatic repair is
// re-creating a missing profile. Field-level mismatches are reported and
// left alone until ValidateAndSyncConsistency is called for that user.
type Auditor struct {
	cfg      Config
	users    store.UserStore
	profiles store.ProfileStore
	engine   *sync.Engine
	logger   *zap.Logger
	sink     telemetry.Sink
}

func NewAuditor(cfg Config, users store.UserStore, profiles store.ProfileStore, engine *sync.Engine, logger *zap.Logger, sink telemetry.Sink) *Auditor {
	return &Auditor{
		cfg:      cfg,
		users:    users,
		profiles: profiles,
		engine:   engine,
		logger:   logger,
		sink:     sink,
	}
}

// AuditBounded audits users mutated within the configured window, capped at
// the configured scan limit. Missing profiles are healed in place. When any
// issue is found the run finishes with a full integrity scan to size the
// damage. Disabled audits return an empty report.
func (a *Auditor) AuditBounded(ctx context.Context) (*Report, error) {
	report := &Report{Timestamp: time.Now()}
	if !a.cfg.Enabled {
		a.logger.Debug("bounded audit disabled")
		return report, nil
	}

	start := time.Now()
	since := start.Add(-time.Duration(a.cfg.WindowMinutes) * time.Minute)
	users, err := a.users.FindRecentlyUpdated(ctx, since, a.cfg.MaxScan)
	if err != nil {
		return nil, fmt.Errorf("loading recently updated users: %w", err)
	}

	for i := range users {
		issues := a.checkUser(ctx, &users[i])
		issues = a.healMissing(ctx, &users[i], issues)
		report.Issues = append(report.Issues, issues...)
	}
	report.Scanned = len(users)
	a.sink.PerformanceMetrics("audit_bounded", report.Scanned, time.Since(start))

	if report.HasIssues() {
		a.logger.Warn("bounded audit found inconsistencies",
			zap.Int("scanned", report.Scanned),
			zap.Int("issues", report.Count()))
		if res, err := a.CheckIntegrity(ctx); err != nil {
			a.logger.Error("integrity scan after bounded audit failed", zap.Error(err))
		} else {
			a.logger.Info("integrity scan after bounded audit",
				zap.Int("total_scanned", res.TotalScanned),
				zap.Int("mismatch_count", res.MismatchCount))
		}
	}
	return report, nil
}

// AuditFull audits the whole population in batches. Report only, no repairs.
func (a *Auditor) AuditFull(ctx context.Context) (*Report, error) {
	report := &Report{Timestamp: time.Now()}
	start := time.Now()

	err := a.users.ForEachBatch(ctx, a.batchSize(), func(users []models.User) error {
		for i := range users {
			report.Issues = append(report.Issues, a.checkUser(ctx, &users[i])...)
		}
		report.Scanned += len(users)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}

	a.sink.PerformanceMetrics("audit_full", report.Scanned, time.Since(start))
	return report, nil
}

// AuditOne audits a single user.
func (a *Auditor) AuditOne(ctx context.Context, userID uint) (*Report, error) {
	user, err := a.users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}
	report := &Report{Timestamp: time.Now(), Scanned: 1}
	report.Issues = a.checkUser(ctx, user)
	a.sink.ConsistencyCheck(userID, !report.HasIssues(), report.Count())
	return report, nil
}

// ValidateAndSyncConsistency recomputes the mirrored fields for one user and
// copies the identity value over every mismatch in a single write. A missing
// profile is re-created. Returns the field names that were corrected.
func (a *Auditor) ValidateAndSyncConsistency(ctx context.Context, userID uint) ([]string, error) {
	user, err := a.users.Find(ctx, userID)
	if err != nil {
		return nil, err
	}

	profile, err := a.profiles.Find(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		if err := a.engine.FullSync(ctx, user); err != nil {
			return nil, err
		}
		return mirror.Fields(), nil
	}
	if err != nil {
		return nil, err
	}

	changed, _ := mirror.Apply(profile, user, mirror.Diff(user, profile))
	if len(changed) == 0 {
		return nil, nil
	}
	if err := a.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("persisting reconciled profile %d: %w", userID, err)
	}
	a.logger.Info("profile reconciled",
		zap.Uint("user_id", userID),
		zap.Strings("fields", changed))
	return changed, nil
}

// CheckIntegrity counts mirrored-field mismatches across the whole
// population without repairing anything.
func (a *Auditor) CheckIntegrity(ctx context.Context) (*IntegrityResult, error) {
	res := &IntegrityResult{}
	start := time.Now()

	err := a.users.ForEachBatch(ctx, a.batchSize(), func(users []models.User) error {
		for i := range users {
			res.TotalScanned++
			profile, err := a.profiles.Find(ctx, users[i].ID)
			if err != nil {
				res.MismatchCount++
				continue
			}
			if len(mirror.Diff(&users[i], profile)) > 0 {
				res.MismatchCount++
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}

	a.sink.PerformanceMetrics("check_integrity", res.TotalScanned, time.Since(start))
	return res, nil
}

// FindOrphanProfiles returns profile ids whose owning user no longer exists.
// Orphans are surfaced, never deleted automatically.
func (a *Auditor) FindOrphanProfiles(ctx context.Context) ([]uint, error) {
	ids, err := a.profiles.OrphanIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("finding orphan profiles: %w", err)
	}
	if len(ids) > 0 {
		a.logger.Warn("orphan profiles detected", zap.Int("count", len(ids)))
	}
	return ids, nil
}

// BulkSync forces a full resynchronization of every user. Individual
// failures are counted and logged, not fatal to the run.
func (a *Auditor) BulkSync(ctx context.Context) (*BulkSyncResult, error) {
	res := &BulkSyncResult{}
	err := a.users.ForEachBatch(ctx, a.batchSize(), func(users []models.User) error {
		for i := range users {
			res.Attempted++
			if err := a.engine.FullSync(ctx, &users[i]); err != nil {
				res.Failed++
				a.logger.Error("bulk sync failed for user",
					zap.Uint("user_id", users[i].ID),
					zap.Error(err))
				continue
			}
			res.Succeeded++
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning users: %w", err)
	}
	return res, nil
}

// checkUser classifies every divergence for one user. A failing check never
// aborts the audit: it becomes a SYSTEM_ERROR issue instead.
func (a *Auditor) checkUser(ctx context.Context, user *models.User) []Issue {
	exists, err := a.profiles.Exists(ctx, user.ID)
	if err != nil {
		return []Issue{{Type: SystemError, UserID: user.ID, Error: err.Error()}}
	}
	if !exists {
		return []Issue{{Type: MissingProfile, UserID: user.ID}}
	}

	profile, err := a.profiles.Find(ctx, user.ID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return []Issue{{Type: ProfileNotFound, UserID: user.ID}}
	}
	if err != nil {
		return []Issue{{Type: SystemError, UserID: user.ID, Error: err.Error()}}
	}

	var issues []Issue
	for _, field := range mirror.Diff(user, profile) {
		uv, pv := mirror.Values(field, user, profile)
		issues = append(issues, Issue{
			Type:         mismatchTypes[field],
			UserID:       user.ID,
			Field:        field,
			UserValue:    uv,
			ProfileValue: pv,
		})
	}
	return issues
}

// healMissing re-creates the profile for MISSING_PROFILE issues only. Other
// issue types pass through untouched.
func (a *Auditor) healMissing(ctx context.Context, user *models.User, issues []Issue) []Issue {
	for i, issue := range issues {
		if issue.Type != MissingProfile {
			continue
		}
		if err := a.engine.FullSync(ctx, user); err != nil {
			a.logger.Error("auto-heal failed",
				zap.Uint("user_id", user.ID),
				zap.Error(err))
			issues[i].Error = err.Error()
			continue
		}
		a.logger.Info("missing profile healed", zap.Uint("user_id", user.ID))
	}
	return issues
}

func (a *Auditor) batchSize() int {
	if a.cfg.BatchSize <= 0 {
		return 200
	}
	return a.cfg.BatchSize
}
