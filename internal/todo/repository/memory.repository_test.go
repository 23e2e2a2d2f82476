package repository

import (
	"context"
	"testing"

	"todolist/internal/todo/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRepositoryCancelledContextIsStorageError(t *testing.T) {
	repo := NewMemoryRepository()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := repo.FindListByName(ctx, "Home")
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = repo.CreateList(ctx, "l-1", "Home", nil)
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	err = repo.AppendItemToList(ctx, "Home", model.Item{ID: "a", Name: "Dishes"})
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	_, err = repo.DeleteItemFromList(ctx, "Home", "a")
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	_, err = repo.FindAllDefaultItems(ctx)
	assert.ErrorIs(t, err, model.ErrStorageUnavailable)

	assert.ErrorIs(t, repo.Ping(ctx), model.ErrStorageUnavailable)
	assert.Zero(t, repo.Len())
}

func TestMemoryRepositoryAppendAndPull(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()

	created, err := repo.CreateList(ctx, "l-1", "Home", []model.Item{{ID: "a", Name: "Dishes"}})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateList(ctx, "l-2", "Home", nil)
	require.NoError(t, err)
	assert.False(t, created)

	require.NoError(t, repo.AppendItemToList(ctx, "Home", model.Item{ID: "b", Name: "Laundry"}))
	assert.ErrorIs(t, repo.AppendItemToList(ctx, "Ghost", model.Item{ID: "c"}), model.ErrNotFound)

	deleted, err := repo.DeleteItemFromList(ctx, "Home", "a")
	require.NoError(t, err)
	assert.True(t, deleted)

	list, err := repo.FindListByName(ctx, "Home")
	require.NoError(t, err)
	assert.Equal(t, []model.Item{{ID: "b", Name: "Laundry"}}, list.Items)
}
