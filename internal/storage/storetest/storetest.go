// Package storetest holds behaviour checks shared by every storage.Store
// implementation.
package storetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) storage.Store

// Run executes the suite against stores produced by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("CreateOnFirstUpdate", func(t *testing.T) { testCreateOnFirstUpdate(t, newStore(t)) })
	t.Run("MutatePreservesFields", func(t *testing.T) { testMutatePreservesFields(t, newStore(t)) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore(t)) })
	t.Run("EmptyIdentity", func(t *testing.T) { testEmptyIdentity(t, newStore(t)) })
	t.Run("ListDevices", func(t *testing.T) { testListDevices(t, newStore(t)) })
	t.Run("ReturnedCopiesAreDetached", func(t *testing.T) { testDetachedCopies(t, newStore(t)) })
	t.Run("ConcurrentSameIdentity", func(t *testing.T) { testConcurrentSameIdentity(t, newStore(t)) })
	t.Run("DeliveryLogs", func(t *testing.T) { testDeliveryLogs(t, newStore(t)) })
	t.Run("CancelledContext", func(t *testing.T) { testCancelledContext(t, newStore(t)) })
}

func testCreateOnFirstUpdate(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	device, err := s.UpdateDevice(ctx, "ExponentPushToken[a]", func(*model.DeviceLocation) {})
	require.NoError(t, err)
	assert.Equal(t, "ExponentPushToken[a]", device.Identity)
	assert.False(t, device.HasLocation())
	assert.False(t, device.CreatedAt.IsZero())

	got, err := s.GetDevice(ctx, "ExponentPushToken[a]")
	require.NoError(t, err)
	assert.Equal(t, device.Identity, got.Identity)
	assert.Nil(t, got.Latitude)
	assert.Nil(t, got.Longitude)
}

func testMutatePreservesFields(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	_, err := s.UpdateDevice(ctx, "a", func(d *model.DeviceLocation) {
		d.SetPosition(30.878, 76.874)
		d.UpdatedAt = now
	})
	require.NoError(t, err)

	// a mutation that touches nothing keeps the stored coordinates
	device, err := s.UpdateDevice(ctx, "a", func(*model.DeviceLocation) {})
	require.NoError(t, err)
	require.True(t, device.HasLocation())
	assert.Equal(t, 30.878, *device.Latitude)
	assert.Equal(t, 76.874, *device.Longitude)
	assert.True(t, now.Equal(device.UpdatedAt))

	device, err = s.UpdateDevice(ctx, "a", func(d *model.DeviceLocation) { d.SetPosition(-1, -2) })
	require.NoError(t, err)
	assert.Equal(t, -1.0, *device.Latitude)
	assert.Equal(t, -2.0, *device.Longitude)
}

func testGetMissing(t *testing.T, s storage.Store) {
	defer s.Close()
	_, err := s.GetDevice(context.Background(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testEmptyIdentity(t *testing.T, s storage.Store) {
	defer s.Close()
	_, err := s.UpdateDevice(context.Background(), "", func(*model.DeviceLocation) {})
	assert.ErrorIs(t, err, storage.ErrEmptyIdentity)
}

func testListDevices(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	devices, err := s.ListDevices(ctx)
	require.NoError(t, err)
	assert.Empty(t, devices)

	for i := 0; i < 5; i++ {
		i := i
		_, err := s.UpdateDevice(ctx, fmt.Sprintf("token-%d", i), func(d *model.DeviceLocation) {
			if i%2 == 0 {
				d.SetPosition(float64(i), float64(i))
			}
		})
		require.NoError(t, err)
	}

	devices, err = s.ListDevices(ctx)
	require.NoError(t, err)
	assert.Len(t, devices, 5)
	located := 0
	for _, d := range devices {
		if d.HasLocation() {
			located++
		}
	}
	assert.Equal(t, 3, located)
}

func testDetachedCopies(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	device, err := s.UpdateDevice(ctx, "a", func(d *model.DeviceLocation) { d.SetPosition(1, 1) })
	require.NoError(t, err)
	*device.Latitude = 50

	got, err := s.GetDevice(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, 1.0, *got.Latitude)
}

func testConcurrentSameIdentity(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	const writers = 50
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			_, err := s.UpdateDevice(ctx, "shared", func(d *model.DeviceLocation) {
				var n float64
				if d.Latitude != nil {
					n = *d.Latitude
				}
				d.SetPosition(n+1, 0)
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := s.GetDevice(ctx, "shared")
	require.NoError(t, err)
	assert.Equal(t, float64(writers), *got.Latitude)
}

func testDeliveryLogs(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx := context.Background()

	first := &model.DeliveryLog{BroadcastID: "b1", Batch: 0, Recipients: 100, Status: model.DeliveryStatusAccepted}
	second := &model.DeliveryLog{BroadcastID: "b1", Batch: 1, Recipients: 20, Status: model.DeliveryStatusFailed, Result: "boom"}
	require.NoError(t, s.AppendDeliveryLog(ctx, first))
	require.NoError(t, s.AppendDeliveryLog(ctx, second))
	assert.NotZero(t, first.ID)
	assert.Greater(t, second.ID, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	logs, err := s.ListDeliveryLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, first.ID, logs[0].ID)
	assert.Equal(t, 100, logs[0].Recipients)
	assert.Equal(t, "boom", logs[1].Result)
}

func testCancelledContext(t *testing.T, s storage.Store) {
	defer s.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.UpdateDevice(ctx, "a", func(*model.DeviceLocation) {})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.ListDevices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, s.AppendDeliveryLog(ctx, &model.DeliveryLog{}), context.Canceled)
}
