package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// DatabaseFile is the SQLite log name inside the data directory
const DatabaseFile = "livetechno.db"

// ActionLog records one studio action
type ActionLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time `gorm:"index" json:"timestamp"`
	ActionType   string    `gorm:"not null;index" json:"actionType"`
	Payload      string    `json:"payload"`
	Success      bool      `gorm:"not null" json:"success"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
}

// TableName keeps the table name stable
func (ActionLog) TableName() string {
	return "action_logs"
}

// ErrorLog records a failure with its error chain
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index" json:"timestamp"`
	ErrorType string    `gorm:"not null" json:"errorType"`
	Message   string    `gorm:"not null" json:"message"`
	Chain     string    `json:"chain,omitempty"`
}

// TableName keeps the table name stable
func (ErrorLog) TableName() string {
	return "error_logs"
}

// ActivityLog stores actions and errors in SQLite
type ActivityLog struct {
	db *gorm.DB
}

// OpenActivityLog opens (and migrates) the log database at path
func OpenActivityLog(path string) (*ActivityLog, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to open activity log"))
	}
	if err := db.AutoMigrate(&ActionLog{}, &ErrorLog{}); err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to migrate activity log"))
	}
	return &ActivityLog{db: db}, nil
}

// Action records an action and its outcome
func (l *ActivityLog) Action(ctx context.Context, actionType string, payload any, failure error) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fault.Wrap(err, fmsg.With("failed to encode action payload"))
	}

	entry := ActionLog{
		ActionType: actionType,
		Payload:    string(raw),
		Success:    failure == nil,
	}
	if failure != nil {
		entry.ErrorMessage = failure.Error()
	}

	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fault.Wrap(err, fmsg.With("failed to record action"))
	}
	return nil
}

// Error records a failure
func (l *ActivityLog) Error(ctx context.Context, errorType string, failure error) error {
	entry := ErrorLog{
		ErrorType: errorType,
		Message:   fmsg.GetIssue(failure),
		Chain:     failure.Error(),
	}
	if entry.Message == "" {
		entry.Message = failure.Error()
	}

	if err := l.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return fault.Wrap(err, fmsg.With("failed to record error"))
	}
	return nil
}

// RecentActions returns the newest actions first
func (l *ActivityLog) RecentActions(ctx context.Context, limit int) ([]ActionLog, error) {
	var out []ActionLog
	err := l.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to list actions"))
	}
	return out, nil
}

// RecentErrors returns the newest errors first
func (l *ActivityLog) RecentErrors(ctx context.Context, limit int) ([]ErrorLog, error) {
	var out []ErrorLog
	err := l.db.WithContext(ctx).Order("id desc").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, fault.Wrap(err, fmsg.With("failed to list errors"))
	}
	return out, nil
}

// Close releases the database handle
func (l *ActivityLog) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
