package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/nats-io/nats.go"

	"taskboard/internal/identity"
	"taskboard/internal/repository"
)

// ProjectionSubscriber keeps the in-memory identity projection in step with
// webhook writes: whenever a user.synced event arrives, the projection entry
// is reloaded from the users table. If the reload fails the entry is cleared
// so stale data is never served.
type ProjectionSubscriber struct {
	natsConn   *nats.Conn
	userRepo   repository.UserRepository
	projection *identity.Projection
}

func NewProjectionSubscriber(natsURL string, userRepo repository.UserRepository, projection *identity.Projection) (*ProjectionSubscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	subscriber := &ProjectionSubscriber{
		natsConn:   nc,
		userRepo:   userRepo,
		projection: projection,
	}

	subscriber.subscribeToUserSynced()

	return subscriber, nil
}

func (s *ProjectionSubscriber) subscribeToUserSynced() {
	_, err := s.natsConn.Subscribe("user.synced", func(msg *nats.Msg) {
		var event UserSyncedEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			log.Printf("Failed to unmarshal user.synced event: %v", err)
			return
		}

		user, err := s.userRepo.FindByClerkID(context.Background(), event.ClerkID)
		if err != nil {
			log.Printf("Failed to reload projection for clerk id %s: %v. Clearing entry.", event.ClerkID, err)
			s.projection.Clear(event.ClerkID)
			return
		}

		s.projection.Populate(*user)
		log.Printf("Projection refreshed for clerk id %s (%s)", event.ClerkID, event.SourceEvent)
	})
	if err != nil {
		log.Printf("Failed to subscribe to user.synced: %v", err)
	} else {
		log.Println("Projection subscriber listening to user.synced")
	}
}
