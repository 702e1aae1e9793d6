package bolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storage.Store {
		s, err := New(filepath.Join(t.TempDir(), "registry.db"))
		require.NoError(t, err)
		return s
	})
}

func TestStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "registry.db")
	ctx := context.Background()

	s, err := New(path)
	require.NoError(t, err)
	_, err = s.UpdateDevice(ctx, "a", func(d *model.DeviceLocation) { d.SetPosition(12.5, 77.5) })
	require.NoError(t, err)
	require.NoError(t, s.AppendDeliveryLog(ctx, &model.DeliveryLog{BroadcastID: "b", Recipients: 1}))
	require.NoError(t, s.Close())

	reopened, err := New(path)
	require.NoError(t, err)
	defer reopened.Close()

	device, err := reopened.GetDevice(ctx, "a")
	require.NoError(t, err)
	require.True(t, device.HasLocation())
	assert.Equal(t, 12.5, *device.Latitude)

	logs, err := reopened.ListDeliveryLogs(ctx)
	require.NoError(t, err)
	assert.Len(t, logs, 1)
}
