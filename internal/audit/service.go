package audit

import (
	"time"

	"churchflow-backend/internal/models"

	"gorm.io/gorm"
)

// Entry is the audit-trail projection row: an activity-log entry joined
// with the identity of its requisition.
type Entry struct {
	ID               string    `gorm:"column:id" json:"id"`
	RequisitionID    string    `gorm:"column:requisition_id" json:"requisition_id"`
	RequisitionTitle string    `gorm:"column:requisition_title" json:"requisition_title"`
	UserID           string    `gorm:"column:user_id" json:"user_id"`
	UserName         string    `gorm:"column:user_name" json:"user_name"`
	Action           string    `gorm:"column:action" json:"action"`
	Details          *string   `gorm:"column:details" json:"details"`
	Timestamp        time.Time `gorm:"column:timestamp" json:"timestamp"`
}

type Query struct {
	ChurchID  string
	SectionID string // optional, for section-scoped auditors
}

// List flattens every requisition's activity log for one church, newest
// first. Single query, so the join is never partial.
func List(db *gorm.DB, q Query) ([]Entry, error) {
	dbq := db.Model(&models.ActivityLogEntry{}).
		Select("activity_log_entries.id, activity_log_entries.requisition_id, requisitions.title AS requisition_title, activity_log_entries.user_id, activity_log_entries.user_name, activity_log_entries.action, activity_log_entries.details, activity_log_entries.timestamp").
		Joins("JOIN requisitions ON requisitions.id = activity_log_entries.requisition_id").
		Where("requisitions.church_id = ?", q.ChurchID)

	if q.SectionID != "" {
		dbq = dbq.Where("requisitions.section_id = ?", q.SectionID)
	}

	var entries []Entry
	if err := dbq.Order("activity_log_entries.timestamp DESC, activity_log_entries.id DESC").Scan(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
