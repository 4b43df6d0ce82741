package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/povrewrite/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	docID := "contract-doc-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := &domain.Document{
			Name:               "Anna",
			Description:        "{{char}} is a knight.",
			FirstMes:           "*waves at {{user}}*",
			AlternateGreetings: []string{"Hello", "Well met"},
			Tags:               []string{"fantasy", "knight"},
		}

		err := store.Save(ctx, docID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, doc.Name, loaded.Name)
		assert.Equal(t, doc.Description, loaded.Description)
		assert.Equal(t, doc.FirstMes, loaded.FirstMes)
		assert.Equal(t, doc.AlternateGreetings, loaded.AlternateGreetings)
		assert.ElementsMatch(t, doc.Tags, loaded.Tags)
	})

	t.Run("Load Returns A Copy", func(t *testing.T) {
		loaded, err := store.Load(ctx, docID)
		require.NoError(t, err)
		loaded.Description = "mutated"

		again, err := store.Load(ctx, docID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Description)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound)
	})

	t.Run("List", func(t *testing.T) {
		id2 := docID + "-2"
		require.NoError(t, store.Save(ctx, id2, &domain.Document{Name: "Bob"}))
		defer func() { _ = store.Delete(ctx, id2) }()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, docID)
		assert.Contains(t, ids, id2)
	})

	t.Run("Reserved-Looking IDs", func(t *testing.T) {
		for _, id := range []string{"index", "lock"} {
			require.NoError(t, store.Save(ctx, id, &domain.Document{Name: id}), "Save %q", id)
		}
		defer func() {
			_ = store.Delete(ctx, "index")
			_ = store.Delete(ctx, "lock")
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err, "List must keep working after saving %q", "index")
		assert.Contains(t, ids, "index")
		assert.Contains(t, ids, docID)

		loaded, err := store.Load(ctx, "index")
		require.NoError(t, err)
		assert.Equal(t, "index", loaded.Name)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, docID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, docID)
		assert.ErrorIs(t, err, domain.ErrDocumentNotFound, "Load after Delete should return ErrDocumentNotFound")
	})
}

// RunLockerContract verifies that a Locker grants a key to one holder at a time.
func RunLockerContract(t *testing.T, locker Locker) {
	ctx := context.Background()
	key := "contract-lock-" + time.Now().Format("20060102150405")

	t.Run("Exclusive", func(t *testing.T) {
		unlock, err := locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err)

		_, err = locker.TryLock(ctx, key, time.Minute)
		assert.ErrorIs(t, err, domain.ErrOperationActive)

		require.NoError(t, unlock(ctx))

		unlock2, err := locker.TryLock(ctx, key, time.Minute)
		require.NoError(t, err, "lock must be reusable after release")
		require.NoError(t, unlock2(ctx))
	})

	t.Run("Independent Keys", func(t *testing.T) {
		u1, err := locker.TryLock(ctx, key+"-a", time.Minute)
		require.NoError(t, err)
		u2, err := locker.TryLock(ctx, key+"-b", time.Minute)
		require.NoError(t, err)
		assert.NoError(t, u1(ctx))
		assert.NoError(t, u2(ctx))
	})
}
