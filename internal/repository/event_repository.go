package repository

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/hud203/leadengine/internal/models"
)

// CategoryCount is one row of the per-category aggregation.
type CategoryCount struct {
	Category string
	Count    int64
}

// NameCount is one row of the per-event-name aggregation.
type NameCount struct {
	Name  string
	Count int64
}

// EventRepository defines the data access methods for stored analytics events
type EventRepository interface {
	CreateEvent(event *models.EventRecord) error
	CountEvents() (int64, error)
	CountByCategory() ([]CategoryCount, error)
	CountByName() ([]NameCount, error)
	EventNamesByVisitor(visitorID string) ([]string, error)
}

// GormEventRepository is the EventRepository implementation using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates and returns a new GormEventRepository instance.
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// CreateEvent inserts a new event record into the database.
func (r *GormEventRepository) CreateEvent(event *models.EventRecord) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create event record: %w", err)
	}
	return nil
}

// CountEvents counts all stored events.
func (r *GormEventRepository) CountEvents() (int64, error) {
	var count int64
	if err := r.db.Model(&models.EventRecord{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count events: %w", err)
	}
	return count, nil
}

// CountByCategory aggregates stored events per category, busiest first.
func (r *GormEventRepository) CountByCategory() ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.Model(&models.EventRecord{}).
		Select("category, count(*) as count").
		Group("category").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count events by category: %w", err)
	}
	return rows, nil
}

// CountByName aggregates stored events per event name, busiest first.
func (r *GormEventRepository) CountByName() ([]NameCount, error) {
	var rows []NameCount
	err := r.db.Model(&models.EventRecord{}).
		Select("name, count(*) as count").
		Group("name").
		Order("count DESC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count events by name: %w", err)
	}
	return rows, nil
}

// EventNamesByVisitor returns the ordered event names recorded for one
// visitor. The sequence feeds lead scoring, so ordering follows insertion order.
func (r *GormEventRepository) EventNamesByVisitor(visitorID string) ([]string, error) {
	var names []string
	err := r.db.Model(&models.EventRecord{}).
		Where("visitor_id = ?", visitorID).
		Order("id ASC").
		Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for visitor %s: %w", visitorID, err)
	}
	return names, nil
}
