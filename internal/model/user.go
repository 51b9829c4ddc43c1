package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID        uuid.UUID `db:"id" json:"id"`
	ClerkID   string    `db:"clerk_id" json:"clerkId"`
	Email     string    `db:"email" json:"email"`
	FirstName *string   `db:"first_name" json:"firstName,omitempty"`
	LastName  *string   `db:"last_name" json:"lastName,omitempty"`
	ImageURL  *string   `db:"image_url" json:"imageUrl,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
