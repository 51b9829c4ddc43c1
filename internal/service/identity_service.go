package service

import (
	"context"
	"database/sql"
	"errors"
	"log"

	"taskboard/internal/events"
	"taskboard/internal/identity"
	"taskboard/internal/model"
	"taskboard/internal/repository"
)

var (
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// SyncProfile is the canonical profile extracted from a verified provider
// event.
type SyncProfile struct {
	ClerkID   string
	Email     string
	FirstName *string
	LastName  *string
	ImageURL  *string
}

type IdentityService interface {
	// SyncUser performs the upsert keyed by the provider id. Re-delivery of
	// the same event leaves the row unchanged.
	SyncUser(ctx context.Context, profile SyncProfile, sourceEvent string) (*model.User, error)
	Signup(ctx context.Context, email, clerkID string) (*model.User, error)
	CurrentUser(ctx context.Context, clerkID string) (*model.User, error)
	SignOut(clerkID string)
}

type identityService struct {
	userRepo   repository.UserRepository
	projection *identity.Projection
	publisher  events.EventPublisher
}

func NewIdentityService(userRepo repository.UserRepository, projection *identity.Projection, publisher events.EventPublisher) IdentityService {
	return &identityService{
		userRepo:   userRepo,
		projection: projection,
		publisher:  publisher,
	}
}

func (s *identityService) SyncUser(ctx context.Context, profile SyncProfile, sourceEvent string) (*model.User, error) {
	user := &model.User{
		ClerkID:   profile.ClerkID,
		Email:     profile.Email,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		ImageURL:  profile.ImageURL,
	}

	synced, err := s.userRepo.Upsert(ctx, user)
	if err != nil {
		return nil, err
	}

	s.projection.Populate(*synced)

	// Fan-out is best effort: the upsert has committed, so a publish failure
	// must not turn an acknowledged delivery into a 400.
	if err := s.publisher.PublishUserSynced(synced, sourceEvent); err != nil {
		log.Printf("Failed to publish user.synced for clerk id %s: %v", synced.ClerkID, err)
	}

	return synced, nil
}

func (s *identityService) Signup(ctx context.Context, email, clerkID string) (*model.User, error) {
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	user := &model.User{ClerkID: clerkID, Email: email}

	newID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	return s.userRepo.FindByID(ctx, newID)
}

func (s *identityService) CurrentUser(ctx context.Context, clerkID string) (*model.User, error) {
	if cached, ok := s.projection.Current(clerkID); ok {
		return &cached, nil
	}

	user, err := s.userRepo.FindByClerkID(ctx, clerkID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}

		return nil, err
	}

	// Session start: cache the projection for subsequent reads.
	s.projection.Populate(*user)

	return user, nil
}

func (s *identityService) SignOut(clerkID string) {
	s.projection.Clear(clerkID)
}
