package storage

import (
	"context"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
)

// MutateFunc edits a device entry in place. It receives a fresh entry with
// only Identity set when the identity is not yet registered.
type MutateFunc func(device *model.DeviceLocation)

// Store abstracts registry and delivery log persistence.
type Store interface {
	// UpdateDevice applies mutate atomically for one identity and returns a
	// copy of the stored entry.
	UpdateDevice(ctx context.Context, identity string, mutate MutateFunc) (*model.DeviceLocation, error)
	GetDevice(ctx context.Context, identity string) (*model.DeviceLocation, error)
	ListDevices(ctx context.Context) ([]*model.DeviceLocation, error)
	AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error
	ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error)
	Close() error
}
