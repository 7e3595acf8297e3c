package attachment

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAttachment(t *testing.T) {
	shipmentID := uuid.New()
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	t.Run("stores under the shipment prefix", func(t *testing.T) {
		a, err := NewAttachment(shipmentID, "../../etc/invoice.pdf", "application/pdf", 2048, now)
		require.NoError(t, err)
		assert.Equal(t, "invoice.pdf", a.FileName)
		assert.True(t, strings.HasPrefix(a.StorageKey, ShipmentPrefix(shipmentID)))
		assert.True(t, strings.HasSuffix(a.StorageKey, "/invoice.pdf"))
		assert.Equal(t, int64(2048), a.FileSize)
	})

	t.Run("rejects empty names", func(t *testing.T) {
		_, err := NewAttachment(shipmentID, "  ", "text/plain", 1, now)
		assert.Error(t, err)
	})

	t.Run("rejects negative size", func(t *testing.T) {
		_, err := NewAttachment(shipmentID, "a.txt", "text/plain", -1, now)
		assert.Error(t, err)
	})
}
