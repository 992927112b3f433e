package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vericred/internal/registry"
	"vericred/pkg/platform/sentinel"
)

func TestInMemoryStorePrimary(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	p := registry.PrimaryProfile{ID: "p1", Number: "123456789012", Name: "Asha", Phone: "9876543210"}
	require.NoError(t, s.SavePrimary(ctx, p))

	t.Run("lookup by number and phone", func(t *testing.T) {
		got, err := s.GetPrimaryByNumber(ctx, p.Number)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)

		got, err = s.GetPrimaryByPhone(ctx, p.Phone)
		require.NoError(t, err)
		assert.Equal(t, p.ID, got.ID)
	})

	t.Run("duplicate number conflicts", func(t *testing.T) {
		err := s.SavePrimary(ctx, registry.PrimaryProfile{ID: "p2", Number: p.Number, Phone: "9000000000"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("duplicate phone conflicts", func(t *testing.T) {
		err := s.SavePrimary(ctx, registry.PrimaryProfile{ID: "p3", Number: "200000000000", Phone: p.Phone})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("absent rows", func(t *testing.T) {
		_, err := s.GetPrimaryByNumber(ctx, "999999999999")
		assert.ErrorIs(t, err, sentinel.ErrNotFound)
	})
}

func TestInMemoryStoreSecondary(t *testing.T) {
	ctx := context.Background()
	s := NewMemory()

	require.NoError(t, s.SavePrimary(ctx, registry.PrimaryProfile{ID: "p1", Number: "123456789012", Phone: "9876543210"}))
	sp := registry.SecondaryProfile{ID: "s1", Number: "ABCDE1234F", PrimaryID: "p1", Linked: true}
	require.NoError(t, s.SaveSecondary(ctx, sp))

	t.Run("lookup by number and primary", func(t *testing.T) {
		got, err := s.GetSecondaryByNumber(ctx, sp.Number)
		require.NoError(t, err)
		assert.Equal(t, sp.ID, got.ID)

		got, err = s.GetSecondaryByPrimary(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, sp.ID, got.ID)
	})

	t.Run("second link to the same primary conflicts", func(t *testing.T) {
		err := s.SaveSecondary(ctx, registry.SecondaryProfile{ID: "s2", Number: "FGHIJ5678K", PrimaryID: "p1"})
		assert.ErrorIs(t, err, sentinel.ErrConflict)
	})

	t.Run("counts", func(t *testing.T) {
		np, err := s.CountPrimaries(ctx)
		require.NoError(t, err)
		ns, err := s.CountSecondaries(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, np)
		assert.Equal(t, 1, ns)
	})
}
