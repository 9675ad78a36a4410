package profile

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"profile-sync/core/eventbus"
	"profile-sync/core/storage"
	"profile-sync/feature/profile/mirror"
	"profile-sync/feature/profile/models"
	"profile-sync/feature/profile/store"
	"profile-sync/feature/profile/sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"
)

// ErrUnsupportedContentType is returned for avatar uploads outside the
// allowed image types.
var ErrUnsupportedContentType = errors.New("unsupported avatar content type")

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// ExtendedPatch is a partial edit of the extended subset. Nil fields are
// left untouched. The mirrored subset is deliberately absent: those fields
// only change through identity updates and the sync engine.
type ExtendedPatch struct {
	FullName       *string    `json:"full_name"`
	Bio            *string    `json:"bio"`
	DateOfBirth    *time.Time `json:"date_of_birth"`
	Gender         *string    `json:"gender"`
	Province       *string    `json:"province"`
	School         *string    `json:"school"`
	EmergencyPhone *string    `json:"emergency_phone"`
	DisplayName    *string    `json:"display_name"`
}

// IdentityPatch is a partial edit of the canonical identity record.
type IdentityPatch struct {
	Email         *string `json:"email"`
	EmailVerified *bool   `json:"email_verified"`
	Grade         *string `json:"grade"`
	Goal          *string `json:"goal"`
}

// Service handles profile reads and edits, avatar storage, and the identity
// mutations that feed the event pipeline.
type Service struct {
	users    store.UserStore
	profiles store.ProfileStore
	engine   *sync.Engine
	client   storage.Client
	bucket   string
	db       *gorm.DB
	bus      *eventbus.Bus
	logger   *zap.Logger

	materialize singleflight.Group
}

// NewService creates a new profile service.
func NewService(users store.UserStore, profiles store.ProfileStore, engine *sync.Engine, client storage.Client, bucket string, db *gorm.DB, bus *eventbus.Bus, logger *zap.Logger) *Service {
	return &Service{
		users:    users,
		profiles: profiles,
		engine:   engine,
		client:   client,
		bucket:   bucket,
		db:       db,
		bus:      bus,
		logger:   logger,
	}
}

// GetOrCreate returns the profile for a user, materializing it on first read
// if the creation event never landed. Concurrent first reads for the same
// user collapse into a single creation.
func (s *Service) GetOrCreate(ctx context.Context, userID uint) (*models.UserProfile, error) {
	profile, err := s.profiles.Find(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, store.ErrProfileNotFound) {
		return nil, err
	}

	_, err, _ = s.materialize.Do(strconv.FormatUint(uint64(userID), 10), func() (any, error) {
		s.logger.Info("materializing profile on read", zap.Uint("user_id", userID))
		return nil, s.engine.SyncOne(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	return s.profiles.Find(ctx, userID)
}

// UpdateExtended applies a partial edit to the extended subset.
func (s *Service) UpdateExtended(ctx context.Context, userID uint, patch ExtendedPatch) (*models.UserProfile, error) {
	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	setString := func(dst *string, src *string) bool {
		if src == nil || *dst == *src {
			return false
		}
		*dst = *src
		return true
	}

	changed := setString(&profile.FullName, patch.FullName)
	changed = setString(&profile.Bio, patch.Bio) || changed
	changed = setString(&profile.Gender, patch.Gender) || changed
	changed = setString(&profile.Province, patch.Province) || changed
	changed = setString(&profile.School, patch.School) || changed
	changed = setString(&profile.EmergencyPhone, patch.EmergencyPhone) || changed
	changed = setString(&profile.DisplayName, patch.DisplayName) || changed
	if patch.DateOfBirth != nil {
		profile.DateOfBirth = patch.DateOfBirth
		changed = true
	}

	if !changed {
		return profile, nil
	}
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile %d: %w", userID, err)
	}
	return profile, nil
}

// UploadAvatar stores the avatar object and writes its URL onto the profile.
// A previous avatar object is removed after the new one is in place.
func (s *Service) UploadAvatar(ctx context.Context, userID uint, reader io.Reader, size int64, contentType string) (*models.UserProfile, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedContentType, contentType)
	}

	profile, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	objectName := fmt.Sprintf("users/%d/%s%s", userID, uuid.NewString(), ext)
	_, err = s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return nil, fmt.Errorf("uploading avatar for user %d: %w", userID, err)
	}

	previous := s.objectName(profile.AvatarURL)
	profile.AvatarURL = fmt.Sprintf("/%s/%s", s.bucket, objectName)
	if err := s.profiles.Save(ctx, profile); err != nil {
		return nil, fmt.Errorf("saving profile %d: %w", userID, err)
	}

	if previous != "" {
		if err := s.client.RemoveObject(ctx, s.bucket, previous, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("removing previous avatar failed",
				zap.Uint("user_id", userID),
				zap.String("object", previous),
				zap.Error(err))
		}
	}
	return profile, nil
}

// DeleteAvatar removes the avatar object and clears the URL.
func (s *Service) DeleteAvatar(ctx context.Context, userID uint) error {
	profile, err := s.profiles.Find(ctx, userID)
	if err != nil {
		return err
	}
	object := s.objectName(profile.AvatarURL)
	if object == "" {
		return nil
	}

	if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("removing avatar for user %d: %w", userID, err)
	}
	profile.AvatarURL = ""
	if err := s.profiles.Save(ctx, profile); err != nil {
		return fmt.Errorf("saving profile %d: %w", userID, err)
	}
	return nil
}

// DeleteProfile removes the projection row and its avatar object. The
// identity record is untouched: profile deletion never cascades upward, and
// user deletion never cascades here either, so orphans stay detectable.
func (s *Service) DeleteProfile(ctx context.Context, userID uint) error {
	profile, err := s.profiles.Find(ctx, userID)
	if errors.Is(err, store.ErrProfileNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if object := s.objectName(profile.AvatarURL); object != "" {
		if err := s.client.RemoveObject(ctx, s.bucket, object, minio.RemoveObjectOptions{}); err != nil {
			s.logger.Warn("removing avatar during profile delete failed",
				zap.Uint("user_id", userID),
				zap.Error(err))
		}
	}
	return s.profiles.Delete(ctx, userID)
}

// CreateUser inserts a new identity record and publishes the creation event
// only after the transaction commits.
func (s *Service) CreateUser(ctx context.Context, user *models.User) error {
	return eventbus.RunInTransaction(ctx, s.db, s.bus, func(tx *gorm.DB, batch *eventbus.Batch) error {
		if err := tx.Create(user).Error; err != nil {
			return fmt.Errorf("creating user: %w", err)
		}
		batch.Publish(sync.NewUserCreatedEvent(user.ID))
		return nil
	})
}

// UpdateUser applies a partial identity edit and publishes an update event
// carrying the changed mirrored field names, after commit. A patch that
// changes nothing writes nothing and publishes nothing.
func (s *Service) UpdateUser(ctx context.Context, userID uint, patch IdentityPatch) ([]string, error) {
	var changed []string
	err := eventbus.RunInTransaction(ctx, s.db, s.bus, func(tx *gorm.DB, batch *eventbus.Batch) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("user %d: %w", userID, store.ErrUserNotFound)
			}
			return err
		}

		if patch.Email != nil && user.Email != *patch.Email {
			user.Email = *patch.Email
			changed = append(changed, mirror.FieldEmail)
		}
		if patch.EmailVerified != nil && user.EmailVerified != *patch.EmailVerified {
			user.EmailVerified = *patch.EmailVerified
			changed = append(changed, mirror.FieldEmailVerified)
		}
		if patch.Grade != nil && user.Grade != *patch.Grade {
			user.Grade = *patch.Grade
			changed = append(changed, mirror.FieldGrade)
		}
		if patch.Goal != nil && user.Goal != *patch.Goal {
			user.Goal = *patch.Goal
			changed = append(changed, mirror.FieldGoal)
		}
		if len(changed) == 0 {
			return nil
		}

		if err := tx.Save(&user).Error; err != nil {
			return fmt.Errorf("saving user %d: %w", userID, err)
		}
		batch.Publish(sync.NewUserUpdatedEvent(userID, changed))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return changed, nil
}

// objectName extracts the storage object key from a stored avatar URL.
func (s *Service) objectName(avatarURL string) string {
	prefix := "/" + s.bucket + "/"
	if !strings.HasPrefix(avatarURL, prefix) {
		return ""
	}
	return strings.TrimPrefix(avatarURL, prefix)
}
