package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/Gagankhurana-12/Yatri-Kavach/internal/model"
	"github.com/Gagankhurana-12/Yatri-Kavach/internal/storage"
)

// DeliveryLogService provides filtering and statistics over batch deliveries.
type DeliveryLogService struct {
	store     storage.Store
	deviceSvc *DeviceService
	now       func() time.Time
}

// NewDeliveryLogService builds the delivery log service.
func NewDeliveryLogService(store storage.Store, deviceSvc *DeviceService) *DeliveryLogService {
	return &DeliveryLogService{
		store:     store,
		deviceSvc: deviceSvc,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Query returns paginated logs, newest first.
func (s *DeliveryLogService) Query(ctx context.Context, filter model.DeliveryLogFilter) (*model.DeliveryLogPage, error) {
	logs, err := s.filteredLogs(ctx, filter)
	if err != nil {
		return nil, err
	}

	total := len(logs)
	if filter.PageSize <= 0 {
		filter.PageSize = 10
	}
	if filter.PageSize > 100 {
		filter.PageSize = 100
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}

	start := min((filter.Page-1)*filter.PageSize, total)
	end := min(start+filter.PageSize, total)

	return &model.DeliveryLogPage{
		Data:     logs[start:end],
		Total:    total,
		Pages:    (total + filter.PageSize - 1) / filter.PageSize,
		PageNum:  filter.Page,
		PageSize: filter.PageSize,
	}, nil
}

// CountByStatus aggregates batches by delivery status.
func (s *DeliveryLogService) CountByStatus(ctx context.Context, begin, end *time.Time) ([]map[string]any, error) {
	logs, err := s.filteredLogs(ctx, model.DeliveryLogFilter{BeginTime: begin, EndTime: end})
	if err != nil {
		return nil, err
	}
	counter := make(map[string]int)
	for _, log := range logs {
		status := log.Status
		if status == "" {
			status = "UNKNOWN"
		}
		counter[status]++
	}
	return mapToKV(counter, "status"), nil
}

// Summary reports registry size and today's delivery totals. Failed batches
// are what separates "nobody nearby" from "gateway down".
func (s *DeliveryLogService) Summary(ctx context.Context) (*model.DeliverySummary, error) {
	summary := &model.DeliverySummary{}
	if s.deviceSvc != nil {
		devices, err := s.deviceSvc.List(ctx)
		if err != nil {
			return nil, err
		}
		summary.Devices = len(devices)
		for _, d := range devices {
			if d.HasLocation() {
				summary.LocatedDevices++
			}
		}
	}

	todayStart := s.now().Truncate(24 * time.Hour)
	logs, err := s.filteredLogs(ctx, model.DeliveryLogFilter{BeginTime: &todayStart})
	if err != nil {
		return nil, err
	}
	broadcasts := make(map[string]struct{})
	for _, log := range logs {
		broadcasts[log.BroadcastID] = struct{}{}
		summary.TodayBatches++
		if strings.EqualFold(log.Status, model.DeliveryStatusAccepted) {
			summary.TodayAccepted += log.Recipients
		} else {
			summary.TodayFailed++
		}
	}
	summary.TodayBroadcasts = len(broadcasts)
	summary.RecentDeliveries = logs[:min(5, len(logs))]
	return summary, nil
}

func (s *DeliveryLogService) filteredLogs(ctx context.Context, filter model.DeliveryLogFilter) ([]*model.DeliveryLog, error) {
	all, err := s.store.ListDeliveryLogs(ctx)
	if err != nil {
		return nil, err
	}
	matches := make([]*model.DeliveryLog, 0, len(all))
	for _, log := range all {
		if filter.BroadcastID != "" && log.BroadcastID != filter.BroadcastID {
			continue
		}
		if filter.Status != "" && !strings.EqualFold(log.Status, filter.Status) {
			continue
		}
		if filter.BeginTime != nil && log.CreatedAt.Before(filter.BeginTime.UTC()) {
			continue
		}
		if filter.EndTime != nil && log.CreatedAt.After(filter.EndTime.UTC()) {
			continue
		}
		matches = append(matches, log)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if !matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].CreatedAt.After(matches[j].CreatedAt)
		}
		return matches[i].ID > matches[j].ID
	})
	return matches, nil
}

func mapToKV(counter map[string]int, key string) []map[string]any {
	result := make([]map[string]any, 0, len(counter))
	for k, v := range counter {
		result = append(result, map[string]any{
			key:     k,
			"count": v,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i][key].(string) < result[j][key].(string)
	})
	return result
}
