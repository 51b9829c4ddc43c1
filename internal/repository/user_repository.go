package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"taskboard/internal/model"
)

type UserRepository interface {
	// Upsert inserts or updates a row keyed by clerk_id. The insert-or-update
	// is atomic at the storage layer; callers must not do their own
	// check-then-act around it.
	Upsert(ctx context.Context, user *model.User) (*model.User, error)
	Create(ctx context.Context, user *model.User) (uuid.UUID, error)
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	FindByClerkID(ctx context.Context, clerkID string) (*model.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.User, error)
}

type postgresUserRepository struct {
	db *sqlx.DB
}

func NewPostgresUserRepository(db *sqlx.DB) UserRepository {
	return &postgresUserRepository{db: db}
}

func (r *postgresUserRepository) Upsert(ctx context.Context, user *model.User) (*model.User, error) {
	query := `
		INSERT INTO users (clerk_id, email, first_name, last_name, image_url)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (clerk_id) DO UPDATE
		SET email = EXCLUDED.email,
		    first_name = EXCLUDED.first_name,
		    last_name = EXCLUDED.last_name,
		    image_url = EXCLUDED.image_url,
		    updated_at = now()
		RETURNING id, clerk_id, email, first_name, last_name, image_url, created_at, updated_at`

	var synced model.User
	err := r.db.GetContext(ctx, &synced, query,
		user.ClerkID, user.Email, user.FirstName, user.LastName, user.ImageURL)
	if err != nil {
		return nil, err
	}

	return &synced, nil
}

func (r *postgresUserRepository) Create(ctx context.Context, user *model.User) (uuid.UUID, error) {
	query := `INSERT INTO users (clerk_id, email) VALUES ($1, $2) RETURNING id`
	var newID uuid.UUID
	err := r.db.QueryRowxContext(ctx, query, user.ClerkID, user.Email).Scan(&newID)

	if err != nil {
		return uuid.Nil, err
	}

	return newID, nil
}

func (r *postgresUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	query := `SELECT id, clerk_id, email, first_name, last_name, image_url, created_at, updated_at FROM users WHERE email = $1`
	err := r.db.GetContext(ctx, &user, query, email)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByClerkID(ctx context.Context, clerkID string) (*model.User, error) {
	var user model.User
	query := `SELECT id, clerk_id, email, first_name, last_name, image_url, created_at, updated_at FROM users WHERE clerk_id = $1`
	err := r.db.GetContext(ctx, &user, query, clerkID)

	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *postgresUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var user model.User
	query := `SELECT id, clerk_id, email, first_name, last_name, image_url, created_at, updated_at FROM users WHERE id = $1`
	err := r.db.GetContext(ctx, &user, query, id)

	if err != nil {
		return nil, err
	}

	return &user, nil
}
