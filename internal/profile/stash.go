package profile

import (
	"context"
	"encoding/json"
	"time"

	"jobscout/internal/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// The stash carries staged pipeline results (job list, analyses, report,
// query handle) between command invocations, keyed per user. It is the
// offline mirror the rendering layer reads first, and it is invalidated
// wholesale on sign-out.

// PutStash stores one stash entry for the user.
func (c *Cache) PutStash(ctx context.Context, uid, key string, value any) error {
	if err := requireUser(uid); err != nil {
		return err
	}

	encoded, err := encodeJSON(value)
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to encode stash entry", err)
	}

	row := stashRow{
		UserID:    uid,
		Key:       key,
		Value:     encoded,
		UpdatedAt: time.Now(),
	}
	err = c.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "key"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to write stash entry", err)
	}
	return nil
}

// GetStash reads one stash entry into out. Returns false when absent.
func (c *Cache) GetStash(ctx context.Context, uid, key string, out any) (bool, error) {
	if err := requireUser(uid); err != nil {
		return false, err
	}

	var row stashRow
	err := c.db.WithContext(ctx).First(&row, "user_id = ? AND key = ?", uid, key).Error
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to read stash entry", err)
	}

	if err := json.Unmarshal(row.Value, out); err != nil {
		return false, errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to decode stash entry", err)
	}
	return true, nil
}

// DeleteStash removes one stash entry.
func (c *Cache) DeleteStash(ctx context.Context, uid, key string) error {
	if err := requireUser(uid); err != nil {
		return err
	}

	err := c.db.WithContext(ctx).Delete(&stashRow{}, "user_id = ? AND key = ?", uid, key).Error
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to delete stash entry", err)
	}
	return nil
}

// ClearStash drops every stash entry for the user. Called on sign-out so no
// staged results leak into the next session.
func (c *Cache) ClearStash(ctx context.Context, uid string) error {
	if uid == "" {
		return nil
	}

	err := c.db.WithContext(ctx).Delete(&stashRow{}, "user_id = ?", uid).Error
	if err != nil {
		return errors.NewStoreError(errors.ErrCodeStoreFailed, "failed to clear stash", err)
	}

	c.logger.Debug("Pipeline stash cleared", "uid", uid)
	return nil
}
