//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medilink/internal/patient/models"
	"medilink/pkg/platform/sentinel"
	"medilink/pkg/testutil/containers"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()
	pg := containers.NewPostgresContainer(t)
	store := NewPostgres(pg.DB)
	require.NoError(t, store.EnsureSchema(ctx))

	p := models.Patient{
		ID:         uuid.NewString(),
		UserID:     uuid.NewString(),
		FirstName:  "Jean",
		LastName:   "Dupont",
		BirthDate:  "1990-01-15",
		Phone:      "+33612345678",
		BloodGroup: "O+",
		CreatedAt:  time.Now().UTC(),
	}
	require.NoError(t, store.Create(ctx, p))

	t.Run("find by id", func(t *testing.T) {
		got, err := store.FindByID(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, p.Phone, got.Phone)
		assert.Equal(t, p.BloodGroup, got.BloodGroup)
	})

	t.Run("find by user id", func(t *testing.T) {
		got, err := store.FindByUserID(ctx, p.UserID)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("unknown patient", func(t *testing.T) {
		_, err := store.FindByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})

	t.Run("one record per user", func(t *testing.T) {
		dup := p
		dup.ID = uuid.NewString()
		assert.ErrorIs(t, store.Create(ctx, dup), sentinel.ErrConflict)
	})
}
