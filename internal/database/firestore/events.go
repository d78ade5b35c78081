package firestore

import (
	"context"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/wizbi/wizbi/internal/api"
	apperrors "github.com/wizbi/wizbi/internal/errors"
)

// EventRepository implements the database.EventRepository interface using a
// Firestore subcollection under each project document.
type EventRepository struct {
	client *firestore.Client
	logger *slog.Logger
}

// NewEventRepository creates a new Firestore-backed event repository.
func NewEventRepository(client *firestore.Client, logger *slog.Logger) *EventRepository {
	return &EventRepository{
		client: client,
		logger: logger,
	}
}

// eventItem represents the structure stored in Firestore. The sequence number
// is storage-only; it gives the log a total order even when two events share
// a timestamp.
type eventItem struct {
	Seq       int64          `firestore:"seq"`
	Timestamp time.Time      `firestore:"timestamp"`
	Severity  string         `firestore:"severity"`
	Name      string         `firestore:"name"`
	Metadata  map[string]any `firestore:"metadata"`
}

func (e *eventItem) toAPIEvent() *api.Event {
	return &api.Event{
		Timestamp: e.Timestamp,
		Severity:  e.Severity,
		Name:      e.Name,
		Metadata:  e.Metadata,
	}
}

func (r *EventRepository) eventsRef(projectID string) *firestore.CollectionRef {
	return r.client.Collection(projectsCollection).Doc(projectID).Collection(eventsCollection)
}

// Append adds one event to the project's log. The sequence counter lives on
// the parent project document and is advanced in the same transaction that
// writes the event.
func (r *EventRepository) Append(ctx context.Context, projectID string, event *api.Event) error {
	projectRef := r.client.Collection(projectsCollection).Doc(projectID)
	eventRef := r.eventsRef(projectID).NewDoc()

	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		snap, err := tx.Get(projectRef)
		if err != nil {
			return err
		}

		var seq int64
		if raw, err := snap.DataAt("eventSeq"); err == nil {
			if n, ok := raw.(int64); ok {
				seq = n
			}
		}
		seq++

		item := &eventItem{
			Seq:       seq,
			Timestamp: event.Timestamp,
			Severity:  event.Severity,
			Name:      event.Name,
			Metadata:  event.Metadata,
		}
		if err := tx.Create(eventRef, item); err != nil {
			return err
		}

		return tx.Update(projectRef, []firestore.Update{
			{Path: "eventSeq", Value: seq},
		})
	})
	if err != nil {
		if isNotFound(err) {
			return apperrors.ErrNotFound("project not found", err)
		}
		return apperrors.ErrDatabaseError("failed to append event", err)
	}

	return nil
}

// ListEvents returns the project's events in insertion order.
func (r *EventRepository) ListEvents(ctx context.Context, projectID string) ([]*api.Event, error) {
	iter := r.eventsRef(projectID).OrderBy("seq", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	events := []*api.Event{}
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.ErrDatabaseError("failed to list events", err)
		}

		var item eventItem
		if err := snap.DataTo(&item); err != nil {
			return nil, apperrors.ErrDatabaseError("failed to unmarshal event", err)
		}
		events = append(events, item.toAPIEvent())
	}

	return events, nil
}

// DeleteAll removes every event for the project using a bulk writer. Firestore
// does not delete subcollections with their parent, so teardown has to sweep
// the log explicitly.
func (r *EventRepository) DeleteAll(ctx context.Context, projectID string) error {
	iter := r.eventsRef(projectID).Documents(ctx)
	defer iter.Stop()

	bw := r.client.BulkWriter(ctx)
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return apperrors.ErrDatabaseError("failed to iterate events", err)
		}
		if _, err := bw.Delete(snap.Ref); err != nil {
			return apperrors.ErrDatabaseError("failed to schedule event deletion", err)
		}
	}
	bw.End()

	return nil
}
