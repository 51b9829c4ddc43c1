package service_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskboard/internal/identity"
	"taskboard/internal/model"
	"taskboard/internal/service"
)

type stubUserRepo struct {
	byEmail   map[string]*model.User
	byClerkID map[string]*model.User
	byID      map[uuid.UUID]*model.User
	upserts   int
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{
		byEmail:   make(map[string]*model.User),
		byClerkID: make(map[string]*model.User),
		byID:      make(map[uuid.UUID]*model.User),
	}
}

func (r *stubUserRepo) store(user *model.User) {
	r.byEmail[user.Email] = user
	r.byClerkID[user.ClerkID] = user
	r.byID[user.ID] = user
}

func (r *stubUserRepo) Upsert(_ context.Context, user *model.User) (*model.User, error) {
	r.upserts++
	existing, ok := r.byClerkID[user.ClerkID]
	if ok {
		delete(r.byEmail, existing.Email)
		existing.Email = user.Email
		existing.FirstName = user.FirstName
		existing.LastName = user.LastName
		existing.ImageURL = user.ImageURL
		r.store(existing)
		return existing, nil
	}

	created := *user
	created.ID = uuid.New()
	r.store(&created)
	return &created, nil
}

func (r *stubUserRepo) Create(_ context.Context, user *model.User) (uuid.UUID, error) {
	created := *user
	created.ID = uuid.New()
	r.store(&created)
	return created.ID, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*model.User, error) {
	user, ok := r.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) FindByClerkID(_ context.Context, clerkID string) (*model.User, error) {
	user, ok := r.byClerkID[clerkID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	user, ok := r.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type stubPublisher struct {
	userSynced    []string
	taskCompleted []uuid.UUID
}

func (p *stubPublisher) PublishUserSynced(user *model.User, sourceEvent string) error {
	p.userSynced = append(p.userSynced, user.ClerkID)
	return nil
}

func (p *stubPublisher) PublishTaskCompleted(task *model.Task) error {
	p.taskCompleted = append(p.taskCompleted, task.ID)
	return nil
}

func TestIdentityService_SyncUser(t *testing.T) {
	repo := newStubUserRepo()
	projection := identity.NewProjection()
	publisher := &stubPublisher{}
	svc := service.NewIdentityService(repo, projection, publisher)

	first := "Ada"
	profile := service.SyncProfile{ClerkID: "user_abc", Email: "ada@example.com", FirstName: &first}

	synced, err := svc.SyncUser(context.Background(), profile, "user.created")
	require.NoError(t, err)
	require.Equal(t, "user_abc", synced.ClerkID)
	require.NotEqual(t, uuid.Nil, synced.ID)

	cached, ok := projection.Current("user_abc")
	require.True(t, ok)
	require.Equal(t, "ada@example.com", cached.Email)

	require.Equal(t, []string{"user_abc"}, publisher.userSynced)
}

func TestIdentityService_SyncUser_RedeliveryIdempotent(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewIdentityService(repo, identity.NewProjection(), &stubPublisher{})

	profile := service.SyncProfile{ClerkID: "user_abc", Email: "ada@example.com"}

	first, err := svc.SyncUser(context.Background(), profile, "user.updated")
	require.NoError(t, err)

	second, err := svc.SyncUser(context.Background(), profile, "user.updated")
	require.NoError(t, err)

	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.Email, second.Email)
	require.Equal(t, 2, repo.upserts)
	require.Len(t, repo.byClerkID, 1)
}

func TestIdentityService_Signup(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewIdentityService(repo, identity.NewProjection(), &stubPublisher{})

	user, err := svc.Signup(context.Background(), "new@example.com", "user_new")
	require.NoError(t, err)
	require.Equal(t, "new@example.com", user.Email)

	found, err := repo.FindByEmail(context.Background(), "new@example.com")
	require.NoError(t, err)
	require.Equal(t, user.ID, found.ID)
}

func TestIdentityService_Signup_DuplicateEmail(t *testing.T) {
	repo := newStubUserRepo()
	svc := service.NewIdentityService(repo, identity.NewProjection(), &stubPublisher{})

	_, err := svc.Signup(context.Background(), "dup@example.com", "user_a")
	require.NoError(t, err)

	_, err = svc.Signup(context.Background(), "dup@example.com", "user_b")
	require.ErrorIs(t, err, service.ErrUserExists)
	require.Len(t, repo.byClerkID, 1)
}

func TestIdentityService_CurrentUser_PopulatesProjection(t *testing.T) {
	repo := newStubUserRepo()
	projection := identity.NewProjection()
	svc := service.NewIdentityService(repo, projection, &stubPublisher{})

	repo.store(&model.User{ID: uuid.New(), ClerkID: "user_abc", Email: "a@b.com"})

	_, ok := projection.Current("user_abc")
	require.False(t, ok)

	user, err := svc.CurrentUser(context.Background(), "user_abc")
	require.NoError(t, err)
	require.Equal(t, "a@b.com", user.Email)

	_, ok = projection.Current("user_abc")
	require.True(t, ok)
}

func TestIdentityService_CurrentUser_NotFound(t *testing.T) {
	svc := service.NewIdentityService(newStubUserRepo(), identity.NewProjection(), &stubPublisher{})

	_, err := svc.CurrentUser(context.Background(), "user_missing")
	require.ErrorIs(t, err, service.ErrUserNotFound)
}

func TestIdentityService_SignOut(t *testing.T) {
	repo := newStubUserRepo()
	projection := identity.NewProjection()
	svc := service.NewIdentityService(repo, projection, &stubPublisher{})

	projection.Populate(model.User{ID: uuid.New(), ClerkID: "user_abc", Email: "a@b.com"})

	svc.SignOut("user_abc")

	_, ok := projection.Current("user_abc")
	require.False(t, ok)
}
