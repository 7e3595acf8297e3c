package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryObjectStorage(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryObjectStorage()

	require.NoError(t, m.Upload(ctx, "shipments/a/1/bol.pdf", strings.NewReader("bill"), "application/pdf", 4))
	require.NoError(t, m.Upload(ctx, "shipments/a/2/invoice.pdf", strings.NewReader("inv"), "application/pdf", 3))
	require.NoError(t, m.Upload(ctx, "shipments/ab/3/photo.jpg", strings.NewReader("img"), "image/jpeg", 3))

	t.Run("open returns stored bytes", func(t *testing.T) {
		r, contentType, ok := m.Open("shipments/a/1/bol.pdf")
		require.True(t, ok)
		data, err := io.ReadAll(r)
		require.NoError(t, err)
		assert.Equal(t, "bill", string(data))
		assert.Equal(t, "application/pdf", contentType)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		assert.Error(t, m.Upload(ctx, "", strings.NewReader("x"), "text/plain", 1))
		assert.Error(t, m.Delete(ctx, ""))
		_, err := m.DeletePrefix(ctx, "")
		assert.Error(t, err)
	})

	t.Run("delete prefix only matches the prefix", func(t *testing.T) {
		n, err := m.DeletePrefix(ctx, "shipments/a/")
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, 1, m.Len())

		n, err = m.DeletePrefix(ctx, "shipments/a/")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("delete missing key succeeds", func(t *testing.T) {
		require.NoError(t, m.Delete(ctx, "shipments/ab/3/photo.jpg"))
		require.NoError(t, m.Delete(ctx, "shipments/ab/3/photo.jpg"))
		assert.Zero(t, m.Len())
	})
}
