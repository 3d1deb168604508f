package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-normalizer/storage"
	"rental-normalizer/utils"
)

func TestFavoriteService(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore()
	ingestSheet(t, store, time.Now().UTC(), sheetCSV)
	svc := NewFavoriteService(store, utils.NopLogger())

	favs, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)

	require.NoError(t, svc.Set(ctx, oakID, true))
	require.NoError(t, svc.Set(ctx, oakID, true), "setting the same value is a no-op")

	on, err := svc.Toggle(ctx, mainID)
	require.NoError(t, err)
	assert.True(t, on)

	favs, err = svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, favs, 2)

	on, err = svc.Toggle(ctx, mainID)
	require.NoError(t, err)
	assert.False(t, on)

	require.NoError(t, svc.Set(ctx, oakID, false))
	favs, err = svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestFavoriteServiceUnknownID(t *testing.T) {
	svc := NewFavoriteService(storage.NewMemoryStore(), utils.NopLogger())

	assert.ErrorIs(t, svc.Set(context.Background(), "missing", true), storage.ErrNotFound)
	_, err := svc.Toggle(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
