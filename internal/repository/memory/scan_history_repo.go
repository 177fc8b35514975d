package memory

import (
	"context"
	"sort"
	"sync"

	"food-expose-backend/internal/domain"
)

// ScanHistoryRepository is an in-memory scan history, newest first per user.
type ScanHistoryRepository struct {
	mu     sync.RWMutex
	byUser map[string][]domain.ScanRecord
}

func NewScanHistoryRepository() *ScanHistoryRepository {
	return &ScanHistoryRepository{byUser: make(map[string][]domain.ScanRecord)}
}

var _ domain.ScanHistoryRepository = (*ScanHistoryRepository)(nil)

func (r *ScanHistoryRepository) Save(ctx context.Context, record *domain.ScanRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	records := append(r.byUser[record.UserID], *record)
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].ScannedAt.After(records[j].ScannedAt)
	})
	r.byUser[record.UserID] = records
	return nil
}

func (r *ScanHistoryRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ScanRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.byUser[userID]
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	out := make([]domain.ScanRecord, len(records))
	copy(out, records)
	return out, nil
}

func (r *ScanHistoryRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser[userID]), nil
}

func (r *ScanHistoryRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}
