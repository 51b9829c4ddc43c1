package identity_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"taskboard/internal/identity"
	"taskboard/internal/model"
)

func TestProjection_Lifecycle(t *testing.T) {
	p := identity.NewProjection()

	_, ok := p.Current("user_1")
	require.False(t, ok)

	u := model.User{ID: uuid.New(), ClerkID: "user_1", Email: "a@b.com"}
	p.Populate(u)

	got, ok := p.Current("user_1")
	require.True(t, ok)
	require.Equal(t, u.Email, got.Email)

	p.Clear("user_1")
	_, ok = p.Current("user_1")
	require.False(t, ok)
}

func TestProjection_PopulateReplaces(t *testing.T) {
	p := identity.NewProjection()

	id := uuid.New()
	p.Populate(model.User{ID: id, ClerkID: "user_1", Email: "old@b.com"})
	p.Populate(model.User{ID: id, ClerkID: "user_1", Email: "new@b.com"})

	got, ok := p.Current("user_1")
	require.True(t, ok)
	require.Equal(t, "new@b.com", got.Email)
}

func TestProjection_ReturnsCopy(t *testing.T) {
	p := identity.NewProjection()
	p.Populate(model.User{ID: uuid.New(), ClerkID: "user_1", Email: "a@b.com"})

	got, _ := p.Current("user_1")
	got.Email = "mutated@b.com"

	again, _ := p.Current("user_1")
	require.Equal(t, "a@b.com", again.Email)
}
