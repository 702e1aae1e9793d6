package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/pushclient"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage/memory"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeSender records batches and fails those whose first recipient is listed.
type fakeSender struct {
	mu       sync.Mutex
	batches  [][]pushclient.Message
	failures map[string]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{failures: make(map[string]error)}
}

func (f *fakeSender) failBatchStartingWith(identity string, err error) {
	f.failures[identity] = err
}

func (f *fakeSender) Send(_ context.Context, messages []pushclient.Message) (*pushclient.SendResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := append([]pushclient.Message(nil), messages...)
	f.batches = append(f.batches, copied)
	if len(messages) > 0 {
		if err, ok := f.failures[messages[0].To]; ok {
			return nil, err
		}
	}
	return &pushclient.SendResponse{StatusCode: 200}, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.batches)
}

func (f *fakeSender) recipients() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, b := range f.batches {
		for _, m := range b {
			out = append(out, m.To)
		}
	}
	return out
}

var errGatewayDown = errors.New("gateway down")

type fixture struct {
	store      *memory.Store
	devices    *DeviceService
	proximity  *ProximityService
	sender     *fakeSender
	dispatcher *DispatchService
	broadcasts *BroadcastService
	logs       *DeliveryLogService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	t.Cleanup(func() { require.NoError(t, store.Close()) })

	logger := zerolog.Nop()
	devices := NewDeviceService(store, logger)
	proximity := NewProximityService(devices, 0)
	sender := newFakeSender()
	dispatcher := NewDispatchService(sender, store, DispatchOptions{BatchSize: 100, Concurrency: 4}, logger)
	broadcasts := NewBroadcastService(proximity, dispatcher, BroadcastOptions{
		DefaultRadius: 500,
		MaxRadius:     50000,
		DefaultTitle:  "SOS Alert",
		DefaultBody:   "A nearby user needs help",
	}, logger)

	return &fixture{
		store:      store,
		devices:    devices,
		proximity:  proximity,
		sender:     sender,
		dispatcher: dispatcher,
		broadcasts: broadcasts,
		logs:       NewDeliveryLogService(store, devices),
	}
}

func float(v float64) *float64 {
	return &v
}
