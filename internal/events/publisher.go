package events

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"taskboard/internal/model"
)

type EventPublisher interface {
	PublishUserSynced(user *model.User, sourceEvent string) error
	PublishTaskCompleted(task *model.Task) error
}

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(natsURL string) (EventPublisher, error) {
	nc, err := nats.Connect(natsURL)

	if err != nil {
		return nil, err
	}

	return &NatsPublisher{conn: nc}, nil
}

// UserSyncedEvent is emitted after the webhook upsert commits. SourceEvent
// carries the provider's event type (user.created or user.updated).
type UserSyncedEvent struct {
	EventType   string    `json:"event_type"`
	UserID      uuid.UUID `json:"user_id"`
	ClerkID     string    `json:"clerk_id"`
	Email       string    `json:"email"`
	SourceEvent string    `json:"source_event"`
	SyncedAt    time.Time `json:"synced_at"`
}

type TaskCompletedEvent struct {
	EventType   string    `json:"event_type"`
	TaskID      uuid.UUID `json:"task_id"`
	UserID      uuid.UUID `json:"user_id"`
	Title       string    `json:"title"`
	CompletedAt time.Time `json:"completed_at"`
}

func (p *NatsPublisher) PublishUserSynced(user *model.User, sourceEvent string) error {
	event := UserSyncedEvent{
		EventType:   "user.synced",
		UserID:      user.ID,
		ClerkID:     user.ClerkID,
		Email:       user.Email,
		SourceEvent: sourceEvent,
		SyncedAt:    time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		log.Printf("Error marshalling event JSON: %v", err)
		return err
	}

	subject := "user.synced"
	err = p.conn.Publish(subject, eventJSON)

	if err != nil {
		log.Printf("Error publishing to NATS: %v", err)
		return err
	}

	log.Printf("Published event to NATS on subject '%s' for clerk id '%s'", subject, user.ClerkID)

	return nil
}

func (p *NatsPublisher) PublishTaskCompleted(task *model.Task) error {
	event := TaskCompletedEvent{
		EventType:   "task.completed",
		TaskID:      task.ID,
		UserID:      task.UserID,
		Title:       task.Title,
		CompletedAt: time.Now(),
	}

	eventJSON, err := json.Marshal(event)

	if err != nil {
		return err
	}

	subject := "task.completed"
	err = p.conn.Publish(subject, eventJSON)

	if err != nil {
		log.Printf("Error publishing to NATS: %v", err)

		return err
	}

	return nil
}
