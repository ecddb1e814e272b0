package profile

import (
	"encoding/json"
	"time"

	"jobscout/internal/types"

	"gorm.io/datatypes"
)

// profileRow is the stored per-user profile document. The resume payload is
// an opaque JSON column; the client never interprets it beyond display.
type profileRow struct {
	UID              string         `gorm:"primaryKey;column:uid"`
	DisplayName      string         `gorm:"column:display_name"`
	CreatedAt        time.Time      `gorm:"column:created_at"`
	LastLogin        time.Time      `gorm:"column:last_login"`
	ProfileCompleted bool           `gorm:"column:profile_completed"`
	ResumeID         string         `gorm:"column:resume_id"`
	ResumeInfo       datatypes.JSON `gorm:"column:resume_info"`
}

func (profileRow) TableName() string {
	return "user_profiles"
}

// resumeRow is one stored resume document. Soft-deleted rows stay in place;
// analyses may still reference them.
type resumeRow struct {
	ID           string         `gorm:"primaryKey;column:id"`
	UserID       string         `gorm:"index;column:user_id"`
	Filename     string         `gorm:"column:filename"`
	UploadedAt   time.Time      `gorm:"column:uploaded_at"`
	LastModified time.Time      `gorm:"column:last_modified"`
	IsActive     bool           `gorm:"column:is_active"`
	IsDeleted    bool           `gorm:"column:is_deleted"`
	DeletedAt    *time.Time     `gorm:"column:deleted_at"`
	Info         datatypes.JSON `gorm:"column:resume_info"`
}

func (resumeRow) TableName() string {
	return "resume_records"
}

// stashRow persists staged pipeline results between command invocations.
type stashRow struct {
	UserID    string         `gorm:"primaryKey;column:user_id"`
	Key       string         `gorm:"primaryKey;column:key"`
	Value     datatypes.JSON `gorm:"column:value"`
	UpdatedAt time.Time      `gorm:"column:updated_at"`
}

func (stashRow) TableName() string {
	return "pipeline_stash"
}

func (r *profileRow) toProfile() (*types.UserProfile, error) {
	profile := &types.UserProfile{
		UID:              r.UID,
		DisplayName:      r.DisplayName,
		CreatedAt:        r.CreatedAt,
		LastLogin:        r.LastLogin,
		ProfileCompleted: r.ProfileCompleted,
		ResumeID:         r.ResumeID,
	}
	if len(r.ResumeInfo) > 0 {
		var info types.ResumeInfo
		if err := json.Unmarshal(r.ResumeInfo, &info); err != nil {
			return nil, err
		}
		profile.ResumeInfo = &info
	}
	return profile, nil
}

func (r *resumeRow) toRecord() (*types.ResumeRecord, error) {
	record := &types.ResumeRecord{
		ID:           r.ID,
		UserID:       r.UserID,
		Filename:     r.Filename,
		UploadedAt:   r.UploadedAt,
		LastModified: r.LastModified,
		IsActive:     r.IsActive,
		IsDeleted:    r.IsDeleted,
		DeletedAt:    r.DeletedAt,
	}
	if len(r.Info) > 0 {
		var info types.ResumeInfo
		if err := json.Unmarshal(r.Info, &info); err != nil {
			return nil, err
		}
		record.Info = &info
	}
	return record, nil
}

func resumeRowFrom(record *types.ResumeRecord) (*resumeRow, error) {
	row := &resumeRow{
		ID:           record.ID,
		UserID:       record.UserID,
		Filename:     record.Filename,
		UploadedAt:   record.UploadedAt,
		LastModified: record.LastModified,
		IsActive:     record.IsActive,
		IsDeleted:    record.IsDeleted,
		DeletedAt:    record.DeletedAt,
	}
	if record.Info != nil {
		data, err := json.Marshal(record.Info)
		if err != nil {
			return nil, err
		}
		row.Info = datatypes.JSON(data)
	}
	return row, nil
}
