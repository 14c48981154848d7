package dispatch

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	apperrors "github.com/hud203/leadengine/internal/errors"
	"github.com/hud203/leadengine/internal/models"
	"github.com/hud203/leadengine/internal/repository"
)

// StoreSink persists every dispatched event into the local database. It is
// what feeds the stats and score queries. Like any other sink, a write
// failure is reported to the dispatcher and never blocks delivery elsewhere.
type StoreSink struct {
	events repository.EventRepository
}

// NewStoreSink wraps an event repository as a sink.
func NewStoreSink(events repository.EventRepository) *StoreSink {
	return &StoreSink{events: events}
}

func (s *StoreSink) Name() string { return "store" }

func (s *StoreSink) Deliver(ctx context.Context, event models.Event) error {
	properties := ""
	if len(event.Properties) > 0 {
		raw, err := json.Marshal(event.Properties)
		if err != nil {
			return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
		}
		properties = string(raw)
	}

	record := &models.EventRecord{
		EventID:    uuid.NewString(),
		VisitorID:  event.VisitorID,
		Name:       event.Name,
		Category:   event.Category,
		Action:     event.Action,
		Label:      event.Label,
		Value:      event.Value,
		Properties: properties,
		Timestamp:  event.Timestamp,
	}

	if err := s.events.CreateEvent(record); err != nil {
		return apperrors.ErrSinkDelivery{Sink: s.Name(), Reason: err.Error()}
	}
	return nil
}
