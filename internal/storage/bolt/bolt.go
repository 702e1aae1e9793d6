package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	bolt "go.etcd.io/bbolt"
)

var _ storage.Store = (*Store)(nil)

var (
	bucketDevices     = []byte("devices")
	bucketDeliveryLog = []byte("delivery_logs")
)

// Store is a BoltDB-backed Store implementation.
type Store struct {
	db *bolt.DB
}

// New opens the registry file at path, creating it and its buckets on first use.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketDevices); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketDeliveryLog)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the file lock.
func (s *Store) Close() error {
	return s.db.Close()
}

// UpdateDevice reads, mutates and writes the device in a single transaction.
func (s *Store) UpdateDevice(ctx context.Context, identity string, mutate storage.MutateFunc) (*model.DeviceLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if identity == "" {
		return nil, storage.ErrEmptyIdentity
	}
	var result *model.DeviceLocation
	err := s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDevices)
		device := &model.DeviceLocation{}
		if raw := bkt.Get([]byte(identity)); raw != nil {
			if err := json.Unmarshal(raw, device); err != nil {
				return err
			}
		} else {
			device.Identity = identity
			device.CreatedAt = time.Now().UTC()
		}
		mutate(device)
		device.Identity = identity
		payload, err := json.Marshal(device)
		if err != nil {
			return err
		}
		if err := bkt.Put([]byte(identity), payload); err != nil {
			return err
		}
		result = device
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetDevice fetches device by identity.
func (s *Store) GetDevice(ctx context.Context, identity string) (*model.DeviceLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var device *model.DeviceLocation
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketDevices).Get([]byte(identity))
		if raw == nil {
			return storage.ErrNotFound
		}
		device = &model.DeviceLocation{}
		return json.Unmarshal(raw, device)
	})
	if err != nil {
		return nil, err
	}
	return device, nil
}

// ListDevices returns all devices.
func (s *Store) ListDevices(ctx context.Context) ([]*model.DeviceLocation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var devices []*model.DeviceLocation
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		devices, err = decodeAll[model.DeviceLocation](tx.Bucket(bucketDevices))
		return err
	})
	return devices, err
}

// AppendDeliveryLog stores a batch delivery record.
func (s *Store) AppendDeliveryLog(ctx context.Context, log *model.DeliveryLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(bucketDeliveryLog)
		id, err := bkt.NextSequence()
		if err != nil {
			return err
		}
		log.ID = id
		payload, err := json.Marshal(log)
		if err != nil {
			return err
		}
		return bkt.Put(sequenceKey(id), payload)
	})
}

// ListDeliveryLogs returns all delivery records ordered by ID.
func (s *Store) ListDeliveryLogs(ctx context.Context) ([]*model.DeliveryLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var logs []*model.DeliveryLog
	err := s.db.View(func(tx *bolt.Tx) error {
		var err error
		logs, err = decodeAll[model.DeliveryLog](tx.Bucket(bucketDeliveryLog))
		return err
	})
	return logs, err
}

// decodeAll unmarshals every value of bkt in key order.
func decodeAll[T any](bkt *bolt.Bucket) ([]*T, error) {
	var out []*T
	err := bkt.ForEach(func(_, v []byte) error {
		item := new(T)
		if err := json.Unmarshal(v, item); err != nil {
			return err
		}
		out = append(out, item)
		return nil
	})
	return out, err
}

func sequenceKey(id uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, id)
	return key
}
