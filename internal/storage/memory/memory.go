package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	cmap "github.com/orcaman/concurrent-map/v2"
)

var _ storage.Store = (*Store)(nil)

// Store keeps the registry in a sharded concurrent map. Writes to the same
// identity serialize on its shard lock; other shards proceed in parallel.
// Contents do not survive a restart.
type Store struct {
	devices cmap.ConcurrentMap[string, *model.DeviceLocation]

	logMu  sync.RWMutex
	logs   []*model.DeliveryLog
	nextID uint64
}

// New returns an empty in-memory store.
func New() *Store {
	return &Store{devices: cmap.New[*model.DeviceLocation]()}
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// UpdateDevice applies mutate under the identity's shard lock.
func (s *Store) UpdateDevice(ctx context.Context, identity string, mutate storage.MutateFunc) (*model.DeviceLocation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	if identity == "" {
		return nil, storage.ErrEmptyIdentity
	}
	stored := s.devices.Upsert(identity, nil, func(exist bool, current, _ *model.DeviceLocation) *model.DeviceLocation {
		var device *model.DeviceLocation
		if exist && current != nil {
			device = current.Clone()
		} else {
			device = &model.DeviceLocation{Identity: identity, CreatedAt: time.Now().UTC()}
		}
		mutate(device)
		device.Identity = identity
		return device
	})
	return stored.Clone(), nil
}

// GetDevice fetches a device by identity.
func (s *Store) GetDevice(ctx context.Context, identity string) (*model.DeviceLocation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	device, ok := s.devices.Get(identity)
	if !ok || device == nil {
		return nil, storage.ErrNotFound
	}
	return device.Clone(), nil
}

// ListDevices returns a snapshot of all devices.
func (s *Store) ListDevices(ctx context.Context) ([]*model.DeviceLocation, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	devices := make([]*model.DeviceLocation, 0, s.devices.Count())
	for item := range s.devices.IterBuffered() {
		if item.Val != nil {
			devices = append(devices, item.Val.Clone())
		}
	}
	return devices, nil
}

// AppendDeliveryLog stores a delivery record and assigns its ID.
func (s *Store) AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	s.logMu.Lock()
	defer s.logMu.Unlock()
	s.nextID++
	log.ID = s.nextID
	copied := *log
	s.logs = append(s.logs, &copied)
	return nil
}

// ListDeliveryLogs returns all delivery records in insertion order.
func (s *Store) ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	s.logMu.RLock()
	defer s.logMu.RUnlock()
	logs := make([]*model.DeliveryLog, 0, len(s.logs))
	for _, l := range s.logs {
		copied := *l
		logs = append(logs, &copied)
	}
	return logs, nil
}
