package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// BroadcastOptions carries request defaults.
type BroadcastOptions struct {
	DefaultRadius float64
	MaxRadius     float64
	DefaultTitle  string
	DefaultBody   string
}

// BroadcastService runs an SOS broadcast end to end: validate, find nearby
// devices, dispatch.
type BroadcastService struct {
	proximity  *ProximityService
	dispatcher *DispatchService
	opts       BroadcastOptions
	logger     zerolog.Logger
}

// NewBroadcastService builds BroadcastService.
func NewBroadcastService(proximity *ProximityService, dispatcher *DispatchService, opts BroadcastOptions, logger zerolog.Logger) *BroadcastService {
	if opts.DefaultRadius <= 0 {
		opts.DefaultRadius = 500
	}
	if opts.DefaultTitle == "" {
		opts.DefaultTitle = "SOS Alert"
	}
	if opts.DefaultBody == "" {
		opts.DefaultBody = "A nearby user needs help"
	}
	return &BroadcastService{
		proximity:  proximity,
		dispatcher: dispatcher,
		opts:       opts,
		logger:     logger,
	}
}

// Broadcast notifies every located device within the radius. The dispatcher
// is not invoked when nobody is in range.
func (s *BroadcastService) Broadcast(ctx context.Context, req model.BroadcastRequest) (*model.BroadcastResult, error) {
	if !req.Center.Valid() {
		return nil, fmt.Errorf("%w: center out of range", ErrInvalidArgument)
	}
	radius := s.opts.DefaultRadius
	if req.Radius != nil {
		radius = *req.Radius
	}
	if math.IsNaN(radius) || math.IsInf(radius, 0) || radius <= 0 {
		return nil, fmt.Errorf("%w: radius must be positive", ErrInvalidArgument)
	}
	if s.opts.MaxRadius > 0 && radius > s.opts.MaxRadius {
		return nil, fmt.Errorf("%w: radius exceeds %v meters", ErrInvalidArgument, s.opts.MaxRadius)
	}
	title := firstNonEmpty(req.Title, s.opts.DefaultTitle)
	body := firstNonEmpty(req.Body, s.opts.DefaultBody)

	result := &model.BroadcastResult{ID: uuid.NewString()}
	started := time.Now()

	matches, err := s.proximity.FindWithin(ctx, req.Center, radius)
	if err != nil {
		return nil, err
	}
	result.Recipients = len(matches)
	if len(matches) == 0 {
		s.logger.Info().
			Str("broadcast_id", result.ID).
			Float64("radius", radius).
			Msg("broadcast found no nearby devices")
		return result, nil
	}

	delivery := s.dispatcher.Deliver(ctx, result.ID, Identities(matches), model.SOSPayload(title, body, req.Center))
	result.Sent = delivery.Accepted
	result.Batches = delivery.Batches
	result.FailedBatches = delivery.FailedBatches

	s.logger.Info().
		Str("broadcast_id", result.ID).
		Float64("radius", radius).
		Int("recipients", result.Recipients).
		Int("sent", result.Sent).
		Int("batches", result.Batches).
		Int("failed_batches", result.FailedBatches).
		Dur("elapsed", time.Since(started)).
		Msg("broadcast dispatched")
	return result, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
