package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStubArchiveStorage(t *testing.T) {
	ctx := context.Background()
	stub := NewStubArchiveStorage()

	t.Run("rejects empty key", func(t *testing.T) {
		assert.Error(t, stub.Upload(ctx, "", []byte("x"), "text/csv"))
	})

	t.Run("upload then exists then delete", func(t *testing.T) {
		require.NoError(t, stub.Upload(ctx, "exports/2024-03-05/orders_export.csv", []byte("a,b\n"), "text/csv"))

		exists, err := stub.ObjectExists(ctx, "exports/2024-03-05/orders_export.csv")
		require.NoError(t, err)
		assert.True(t, exists)

		require.NoError(t, stub.DeleteObject(ctx, "exports/2024-03-05/orders_export.csv"))
		exists, err = stub.ObjectExists(ctx, "exports/2024-03-05/orders_export.csv")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
