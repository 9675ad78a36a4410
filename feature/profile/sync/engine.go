package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"profile-sync/core/eventbus"
	"profile-sync/core/telemetry"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Engine keeps the profile projection consistent with the identity record.
// Every operation re-reads fresh state before merging and is safe to call
// concurrently for the same id; creation races are resolved through the
// store's uniqueness constraint, never through locks.
type Engine struct {
	users    store.UserStore
	profiles store.ProfileStore
	accounts store.OAuthAccountStore
	bus      *eventbus.Bus
	logger   *zap.Logger
	sink     telemetry.Sink
}

// NewEngine creates a sync engine.
func NewEngine(users store.UserStore, profiles store.ProfileStore, accounts store.OAuthAccountStore, bus *eventbus.Bus, logger *zap.Logger, sink telemetry.Sink) *Engine {
	return &Engine{
		users:    users,
		profiles: profiles,
		accounts: accounts,
		bus:      bus,
		logger:   logger,
		sink:     sink,
	}
}

// HandleUserCreated materializes the profile for a newly committed identity.
// If the profile already exists (an earlier attempt may have partially
// succeeded, or a concurrent creator won) it performs a full mirrored-subset
// catch-up instead of a no-op.
func (e *Engine) HandleUserCreated(ctx context.Context, userID uint) error {
	start := time.Now()
	e.sink.SyncStart("create", userID)

	user, err := e.users.Find(ctx, userID)
	if err != nil {
		e.sink.SyncFailure("create", userID, nil, time.Since(start), err)
		return err
	}

	fields, err := e.createOrCatchUp(ctx, user)
	if err != nil {
		e.sink.SyncFailure("create", userID, fields, time.Since(start), err)
		return err
	}

	e.sink.SyncSuccess("create", userID, fields, time.Since(start))
	return nil
}

// HandleUserUpdated applies the changed identity fields to the profile. Only
// the intersection of changedFields with the mirrored set is applied, and
// the profile is persisted only if at least one value actually changed.
// A missing profile falls back to full creation.
func (e *Engine) HandleUserUpdated(ctx context.Context, userID uint, changedFields []string) error {
	start := time.Now()
	e.sink.SyncStart("update", userID)

	user, err := e.users.Find(ctx, userID)
	if err != nil {
		e.sink.SyncFailure("update", userID, changedFields, time.Since(start), err)
		return err
	}

	profile, err := e.profiles.Find(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		fields, cerr := e.createOrCatchUp(ctx, user)
		if cerr != nil {
			e.sink.SyncFailure("update", userID, fields, time.Since(start), cerr)
			return cerr
		}
		e.sink.SyncSuccess("update", userID, fields, time.Since(start))
		return nil
	}
	if err != nil {
		e.sink.SyncFailure("update", userID, changedFields, time.Since(start), err)
		return err
	}

	changed, unknown := mirror.Apply(profile, user, changedFields)
	if len(unknown) > 0 {
		e.logger.Warn("ignoring unknown mirrored fields",
			zap.Uint("user_id", userID),
			zap.Strings("fields", unknown))
	}

	if len(changed) > 0 {
		if err := e.profiles.Save(ctx, profile); err != nil {
			e.sink.SyncFailure("update", userID, changed, time.Since(start), err)
			return err
		}
	}

	e.sink.SyncSuccess("update", userID, changed, time.Since(start))
	return nil
}

// FullSync unconditionally synchronizes the mirrored subset for the given
// identity, creating the profile if absent. Used by administrative
// remediation and the auditor's auto-heal.
func (e *Engine) FullSync(ctx context.Context, user *models.User) error {
	_, err := e.createOrCatchUp(ctx, user)
	return err
}

// SyncOne is FullSync addressed by id.
func (e *Engine) SyncOne(ctx context.Context, userID uint) error {
	user, err := e.users.Find(ctx, userID)
	if err != nil {
		return err
	}
	return e.FullSync(ctx, user)
}

// ReverseSync propagates the mirrored subset from the profile back onto the
// identity record. It is for administrative correction only, when an
// operator edit made the profile authoritative; the default event flow never
// triggers it. When anything differs the identity is persisted and an update
// event is re-published so future consumers of identity changes are not
// bypassed.
func (e *Engine) ReverseSync(ctx context.Context, userID uint) error {
	user, err := e.users.Find(ctx, userID)
	if err != nil {
		return err
	}
	profile, err := e.profiles.Find(ctx, userID)
	if err != nil {
		return err
	}

	diff := mirror.Diff(user, profile)
	if len(diff) == 0 {
		return nil
	}

	changed := mirror.Reverse(user, profile, diff)
	if err := e.users.Save(ctx, user); err != nil {
		return fmt.Errorf("reverse sync user %d: %w", userID, err)
	}

	e.logger.Info("reverse sync applied",
		zap.Uint("user_id", userID),
		zap.Strings("fields", changed))
	e.bus.Publish(ctx, NewUserUpdatedEvent(userID, changed))
	return nil
}

// IsConsistent recomputes the mirrored comparisons without mutating
// anything. A missing profile is reported as inconsistent, not as an error.
func (e *Engine) IsConsistent(ctx context.Context, userID uint) (bool, error) {
	user, err := e.users.Find(ctx, userID)
	if err != nil {
		return false, err
	}
	profile, err := e.profiles.Find(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return len(mirror.Diff(user, profile)) == 0, nil
}

// createOrCatchUp is the shared create-or-merge core. It returns the field
// names it wrote for telemetry.
func (e *Engine) createOrCatchUp(ctx context.Context, user *models.User) ([]string, error) {
	profile, err := e.profiles.Find(ctx, user.ID)
	if err == nil {
		return e.mergeMirrored(ctx, profile, user)
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, err
	}

	fresh, err := e.buildProfile(ctx, user)
	if err != nil {
		return nil, err
	}

	if err := e.profiles.Create(ctx, fresh); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("create profile %d: %w", user.ID, err)
		}
		// A concurrent creator won the insert race. That is not a failure:
		// reload the winning row and merge the mirrored subset onto it.
		existing, ferr := e.profiles.Find(ctx, user.ID)
		if ferr != nil {
			return nil, fmt.Errorf("reload profile %d after creation race: %w", user.ID, ferr)
		}
		return e.mergeMirrored(ctx, existing, user)
	}

	return mirror.Fields(), nil
}

// mergeMirrored applies the full mirrored subset and persists only when
// something actually changed.
func (e *Engine) mergeMirrored(ctx context.Context, profile *models.UserProfile, user *models.User) ([]string, error) {
	changed := mirror.ApplyAll(profile, user)
	if len(changed) == 0 {
		return nil, nil
	}
	if err := e.profiles.Save(ctx, profile); err != nil {
		return changed, err
	}
	return changed, nil
}

// buildProfile constructs a new profile seeded from the identity record and,
// when one exists, the primary auxiliary OAuth account. Extended-subset
// seeding happens exactly here and never again.
func (e *Engine) buildProfile(ctx context.Context, user *models.User) (*models.UserProfile, error) {
	profile := &models.UserProfile{UserID: user.ID}
	mirror.ApplyAll(profile, user)

	account, err := e.accounts.FindPrimary(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		profile.DisplayName = account.DisplayName
		profile.PictureURL = account.PictureURL
		if profile.EmergencyPhone == "" {
			profile.EmergencyPhone = account.Phone
		}
	}
	return profile, nil
}
