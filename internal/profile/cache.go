package profile

import (
	"context"
	"encoding/json"
	"time"

	"jobscout/internal/config"
	"jobscout/internal/errors"
	"jobscout/internal/types"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Cache is the local profile store: the user's profile document, their
// resume history, and the pipeline stash. It mirrors the remote profile and
// enforces the active-resume invariant locally.
type Cache struct {
	db      *gorm.DB
	recheck config.RecheckConfig
	logger  *errors.Logger
}

// Open opens (and migrates) the profile store at the configured path.
// ":memory:" gives tests an isolated throwaway store.
func Open(cfg *config.StoreConfig, recheck config.RecheckConfig, logger *errors.Logger) (*Cache, error) {
	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to open profile store", err)
	}

	if err := db.AutoMigrate(&profileRow{}, &resumeRow{}, &stashRow{}); err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to migrate profile store", err)
	}

	logger.Debug("Profile store opened", "path", cfg.Path)
	return &Cache{db: db, recheck: recheck, logger: logger}, nil
}

// requireUser is the unauthenticated fast-fail shared by every operation.
func requireUser(uid string) error {
	if uid == "" {
		return errors.NewAuthError(errors.ErrCodeUnauthenticated, "Please sign in to continue.", nil)
	}
	return nil
}

// EnsureProfile creates the profile document on first sign-in and refreshes
// the login timestamp on every subsequent one.
func (c *Cache) EnsureProfile(ctx context.Context, uid, displayName string) (*types.UserProfile, error) {
	if err := requireUser(uid); err != nil {
		return nil, err
	}

	now := time.Now()
	var row profileRow
	err := c.db.WithContext(ctx).First(&row, "uid = ?", uid).Error
	switch {
	case err == gorm.ErrRecordNotFound:
		row = profileRow{
			UID:         uid,
			DisplayName: displayName,
			CreatedAt:   now,
			LastLogin:   now,
		}
		if err := c.db.WithContext(ctx).Create(&row).Error; err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to create profile", err)
		}
		c.logger.Info("Profile created", "uid", uid)
	case err != nil:
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read profile", err)
	default:
		updates := map[string]any{"last_login": now}
		if displayName != "" && row.DisplayName == "" {
			updates["display_name"] = displayName
			row.DisplayName = displayName
		}
		if err := c.db.WithContext(ctx).Model(&profileRow{}).Where("uid = ?", uid).Updates(updates).Error; err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to refresh login timestamp", err)
		}
		row.LastLogin = now
	}

	return row.toProfileOrStoreErr()
}

// Profile reads the user's profile document. Returns nil when none exists.
func (c *Cache) Profile(ctx context.Context, uid string) (*types.UserProfile, error) {
	if err := requireUser(uid); err != nil {
		return nil, err
	}

	var row profileRow
	err := c.db.WithContext(ctx).First(&row, "uid = ?", uid).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read profile", err)
	}
	return row.toProfileOrStoreErr()
}

// SaveResume stores a newly parsed resume as the user's active one. Within a
// single transaction every previously active record is deactivated first,
// then the new record is written active and the profile document is updated.
// The active-resume invariant therefore holds at every commit point.
//
// Replacement is the same operation: a record carrying an existing id is
// upserted in place, reactivated, and has any deletion markers cleared.
func (c *Cache) SaveResume(ctx context.Context, uid string, record *types.ResumeRecord) (*types.ResumeRecord, error) {
	if err := requireUser(uid); err != nil {
		return nil, err
	}

	now := time.Now()
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.UserID = uid
	if record.UploadedAt.IsZero() {
		record.UploadedAt = now
	}
	record.LastModified = now
	record.IsActive = true
	record.IsDeleted = false
	record.DeletedAt = nil

	row, err := resumeRowFrom(record)
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to encode resume payload", err)
	}

	err = c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&resumeRow{}).
			Where("user_id = ? AND is_active = ? AND is_deleted = ?", uid, true, false).
			Updates(map[string]any{"is_active": false, "last_modified": now}).Error; err != nil {
			return err
		}

		if err := tx.Save(row).Error; err != nil {
			return err
		}

		return tx.Model(&profileRow{}).Where("uid = ?", uid).Updates(map[string]any{
			"resume_id":         record.ID,
			"resume_info":       row.Info,
			"profile_completed": true,
		}).Error
	})
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to save resume", err)
	}

	c.logger.Info("Resume saved", "uid", uid, "resume_id", record.ID)
	return record, nil
}

// ActiveResume returns the user's active resume. When the store is
// inconsistent and holds several active records, the most recently uploaded
// one wins; the inconsistency is logged, never surfaced. Returns nil when
// the user has no active resume.
func (c *Cache) ActiveResume(ctx context.Context, uid string) (*types.ResumeRecord, error) {
	if err := requireUser(uid); err != nil {
		return nil, err
	}

	var rows []resumeRow
	err := c.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND is_deleted = ?", uid, true, false).
		Order("uploaded_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read active resume", err)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	if len(rows) > 1 {
		c.logger.Warn("Multiple active resumes found, using most recent upload",
			"uid", uid,
			"active_count", len(rows),
			"code", errors.ErrCodeInconsistentProfile)
	}

	record, err := rows[0].toRecord()
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to decode resume payload", err)
	}
	return record, nil
}

// Resumes lists every resume the user has uploaded, soft-deleted ones
// included, newest first.
func (c *Cache) Resumes(ctx context.Context, uid string) ([]types.ResumeRecord, error) {
	if err := requireUser(uid); err != nil {
		return nil, err
	}

	var rows []resumeRow
	err := c.db.WithContext(ctx).
		Where("user_id = ?", uid).
		Order("uploaded_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to list resumes", err)
	}

	records := make([]types.ResumeRecord, 0, len(rows))
	for i := range rows {
		record, err := rows[i].toRecord()
		if err != nil {
			return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to decode resume payload", err)
		}
		records = append(records, *record)
	}
	return records, nil
}

// DeleteResume soft-deletes a resume. The record stays listed with its
// deletion markers; if it was the active one the profile reverts to
// incomplete.
func (c *Cache) DeleteResume(ctx context.Context, uid, resumeID string) error {
	if err := requireUser(uid); err != nil {
		return err
	}

	now := time.Now()
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row resumeRow
		if err := tx.First(&row, "id = ? AND user_id = ?", resumeID, uid).Error; err != nil {
			return err
		}

		if err := tx.Model(&resumeRow{}).Where("id = ?", resumeID).Updates(map[string]any{
			"is_deleted":    true,
			"is_active":     false,
			"deleted_at":    now,
			"last_modified": now,
		}).Error; err != nil {
			return err
		}

		var prof profileRow
		if err := tx.First(&prof, "uid = ?", uid).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return err
		}
		if prof.ResumeID != resumeID {
			return nil
		}
		return tx.Model(&profileRow{}).Where("uid = ?", uid).Updates(map[string]any{
			"resume_id":         "",
			"resume_info":       nil,
			"profile_completed": false,
		}).Error
	})
	if err == gorm.ErrRecordNotFound {
		return errors.NewValidationError(errors.ErrCodeResumeNotFound, "No resume found with that id.", nil)
	}
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to delete resume", err)
	}

	c.logger.Info("Resume deleted", "uid", uid, "resume_id", resumeID)
	return nil
}

// Load reads the profile document and the resume history concurrently and
// joins both before returning. The reads are independent, so neither waits
// on the other.
func (c *Cache) Load(ctx context.Context, uid string) (*types.UserProfile, []types.ResumeRecord, error) {
	if err := requireUser(uid); err != nil {
		return nil, nil, err
	}

	var (
		prof    *types.UserProfile
		resumes []types.ResumeRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		prof, err = c.Profile(gctx, uid)
		return err
	})
	g.Go(func() error {
		var err error
		resumes, err = c.Resumes(gctx, uid)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	return prof, resumes, nil
}

// WaitForOnboarding polls the profile-completed flag a bounded number of
// times, tolerating read-after-write lag right after sign-in. No other read
// in the client retries.
func (c *Cache) WaitForOnboarding(ctx context.Context, uid string) (bool, error) {
	if err := requireUser(uid); err != nil {
		return false, err
	}

	attempts := c.recheck.Attempts
	if attempts <= 0 {
		attempts = 1
	}

	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(c.recheck.Delay):
			case <-ctx.Done():
				return false, ctx.Err()
			}
		}

		prof, err := c.Profile(ctx, uid)
		if err != nil {
			return false, err
		}
		if prof != nil && prof.ProfileCompleted {
			return true, nil
		}
	}

	return false, nil
}

func (r *profileRow) toProfileOrStoreErr() (*types.UserProfile, error) {
	profile, err := r.toProfile()
	if err != nil {
		return nil, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to decode profile payload", err)
	}
	return profile, nil
}

// encodeJSON marshals a stash value into a JSON column.
func encodeJSON(v any) (datatypes.JSON, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(data), nil
}
