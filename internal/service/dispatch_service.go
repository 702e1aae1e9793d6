package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/pushclient"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Sender delivers one batch to the push gateway.
type Sender interface {
	Send(ctx context.Context, messages []pushclient.Message) (*pushclient.SendResponse, error)
}

// DispatchOptions tunes batching.
type DispatchOptions struct {
	BatchSize   int
	Concurrency int
	Sound       string
}

// DispatchService splits recipients into gateway-sized batches and forwards
// them. A failed batch never aborts the others and is not retried.
type DispatchService struct {
	sender Sender
	store  storage.Store
	opts   DispatchOptions
	logger zerolog.Logger
}

// NewDispatchService builds the dispatcher. store may be nil to skip
// delivery logs.
func NewDispatchService(sender Sender, store storage.Store, opts DispatchOptions, logger zerolog.Logger) *DispatchService {
	if opts.BatchSize <= 0 || opts.BatchSize > pushclient.MaxBatchSize {
		opts.BatchSize = pushclient.MaxBatchSize
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.Sound == "" {
		opts.Sound = "default"
	}
	return &DispatchService{sender: sender, store: store, opts: opts, logger: logger}
}

// Deliver pushes payload to identities and returns how many recipients sit in
// batches the gateway accepted. Duplicate identities are sent once.
func (s *DispatchService) Deliver(ctx context.Context, broadcastID string, identities []string, payload model.PushPayload) model.DeliveryResult {
	batches := chunk(dedupe(identities), s.opts.BatchSize)
	accepted := make([]int, len(batches))

	var g errgroup.Group
	g.SetLimit(s.opts.Concurrency)
	for i, batch := range batches {
		g.Go(func() error {
			accepted[i] = s.sendBatch(ctx, broadcastID, i, batch, payload)
			return nil
		})
	}
	_ = g.Wait()

	result := model.DeliveryResult{Batches: len(batches)}
	for i, n := range accepted {
		if n == 0 && len(batches[i]) > 0 {
			result.FailedBatches++
		}
		result.Accepted += n
	}
	return result
}

// sendBatch returns the batch size on acceptance and 0 otherwise.
func (s *DispatchService) sendBatch(ctx context.Context, broadcastID string, index int, batch []string, payload model.PushPayload) int {
	messages := make([]pushclient.Message, len(batch))
	for i, to := range batch {
		messages[i] = pushclient.Message{
			To:    to,
			Sound: s.opts.Sound,
			Title: payload.Title,
			Body:  payload.Body,
			Data:  payload.Data,
		}
	}

	entry := &model.DeliveryLog{
		BroadcastID: broadcastID,
		Batch:       index,
		Recipients:  len(batch),
		Title:       payload.Title,
		Body:        payload.Body,
		Lat:         coordinate(payload.Data, "lat"),
		Lng:         coordinate(payload.Data, "lng"),
	}

	resp, err := s.sender.Send(ctx, messages)
	if err != nil {
		event := s.logger.Warn()
		if errors.Is(err, pushclient.ErrGatewayUnavailable) {
			event = s.logger.Error()
		}
		event.Err(err).
			Str("broadcast_id", broadcastID).
			Int("batch", index).
			Int("recipients", len(batch)).
			Msg("push batch failed")
		entry.Status = model.DeliveryStatusFailed
		entry.Result = err.Error()
		s.appendLog(ctx, entry)
		return 0
	}

	entry.Status = model.DeliveryStatusAccepted
	if failed := resp.Failed(); failed > 0 {
		entry.Result = fmt.Sprintf("%d ticket errors", failed)
		s.logger.Info().
			Str("broadcast_id", broadcastID).
			Int("batch", index).
			Int("ticket_errors", failed).
			Msg("gateway reported per-message errors")
	}
	s.appendLog(ctx, entry)
	return len(batch)
}

func (s *DispatchService) appendLog(ctx context.Context, entry *model.DeliveryLog) {
	if s.store == nil {
		return
	}
	if err := s.store.AppendDeliveryLog(context.WithoutCancel(ctx), entry); err != nil {
		s.logger.Warn().Err(err).Str("broadcast_id", entry.BroadcastID).Msg("append delivery log failed")
	}
}

func dedupe(identities []string) []string {
	seen := make(map[string]struct{}, len(identities))
	out := make([]string, 0, len(identities))
	for _, id := range identities {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(items []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}

func coordinate(data map[string]any, key string) float64 {
	if v, ok := data[key].(float64); ok {
		return v
	}
	return 0
}
