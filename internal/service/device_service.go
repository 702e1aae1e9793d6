package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/geo"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/rs/zerolog"
)

// DeviceService is the device location registry. Every write is an upsert.
type DeviceService struct {
	store  storage.Store
	logger zerolog.Logger
	now    func() time.Time
}

// NewDeviceService constructs DeviceService.
func NewDeviceService(store storage.Store, logger zerolog.Logger) *DeviceService {
	return &DeviceService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Register creates an entry without coordinates. Registering a known
// identity is a no-op and keeps its coordinates.
func (s *DeviceService) Register(ctx context.Context, identity string) (*model.DeviceLocation, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	now := s.now()
	device, err := s.store.UpdateDevice(ctx, identity, func(d *model.DeviceLocation) {
		if d.UpdatedAt.IsZero() {
			d.UpdatedAt = now
		}
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("identity", maskValue(identity)).Bool("located", device.HasLocation()).Msg("device registered")
	return device, nil
}

// UpdateLocation overwrites the coordinates and refreshes UpdatedAt, creating
// the entry when the identity is new.
func (s *DeviceService) UpdateLocation(ctx context.Context, identity string, lat, lng float64) (*model.DeviceLocation, error) {
	if err := validateIdentity(identity); err != nil {
		return nil, err
	}
	if err := validateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	now := s.now()
	device, err := s.store.UpdateDevice(ctx, identity, func(d *model.DeviceLocation) {
		d.SetPosition(lat, lng)
		d.UpdatedAt = now
	})
	if err != nil {
		return nil, err
	}
	s.logger.Debug().Str("identity", maskValue(identity)).Msg("device location updated")
	return device, nil
}

// AllWithLocation returns a snapshot of located devices in no particular order.
func (s *DeviceService) AllWithLocation(ctx context.Context) ([]*model.DeviceLocation, error) {
	devices, err := s.store.ListDevices(ctx)
	if err != nil {
		return nil, err
	}
	located := devices[:0]
	for _, d := range devices {
		if d.HasLocation() {
			located = append(located, d)
		}
	}
	return located, nil
}

// List returns all devices.
func (s *DeviceService) List(ctx context.Context) ([]*model.DeviceLocation, error) {
	return s.store.ListDevices(ctx)
}

// ListViews returns masked device views, most recently updated first.
func (s *DeviceService) ListViews(ctx context.Context) ([]*model.DeviceView, error) {
	devices, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].UpdatedAt.After(devices[j].UpdatedAt)
	})
	views := make([]*model.DeviceView, 0, len(devices))
	for _, device := range devices {
		views = append(views, toView(device))
	}
	return views, nil
}

// Get returns a device by identity.
func (s *DeviceService) Get(ctx context.Context, identity string) (*model.DeviceLocation, error) {
	return s.store.GetDevice(ctx, identity)
}

func validateIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return fmt.Errorf("%w: identity is required", ErrInvalidArgument)
	}
	return nil
}

func validateCoordinates(lat, lng float64) error {
	if !geo.ValidLatitude(lat) {
		return fmt.Errorf("%w: latitude %v out of range", ErrInvalidArgument, lat)
	}
	if !geo.ValidLongitude(lng) {
		return fmt.Errorf("%w: longitude %v out of range", ErrInvalidArgument, lng)
	}
	return nil
}

func toView(device *model.DeviceLocation) *model.DeviceView {
	if device == nil {
		return nil
	}
	return &model.DeviceView{
		Identity:  maskValue(device.Identity),
		Latitude:  device.Latitude,
		Longitude: device.Longitude,
		Located:   device.HasLocation(),
		UpdatedAt: device.UpdatedAt,
	}
}

func maskValue(value string) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if len(runes) <= 4 {
		return value
	}
	return string(runes[:4]) + strings.Repeat("*", len(runes)-4)
}
