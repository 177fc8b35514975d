package usecase

import (
	"context"
	"time"

	"food-expose-backend/internal/domain"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

// Pinger is anything whose backing service can be probed.
type Pinger interface {
	Ping(ctx context.Context) error
}

type healthUsecase struct {
	store   domain.CompletionStore
	history Pinger
	gate    domain.GateController
}

func NewHealthUsecase(store domain.CompletionStore, history Pinger, gate domain.GateController) HealthUsecase {
	return &healthUsecase{store: store, history: history, gate: gate}
}

// Check reports per-dependency status. A failing store degrades the service
// but never blocks navigation, so the overall status stays "ok".
func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	result := map[string]string{
		"status": "ok",
		"gate":   string(u.gate.Snapshot().State),
	}

	result["completion_store"] = probe(ctx, u.store)
	if u.history != nil {
		result["scan_history"] = probe(ctx, u.history)
	}

	return result
}

func probe(ctx context.Context, p Pinger) string {
	if err := p.Ping(ctx); err != nil {
		return "unavailable: " + err.Error()
	}
	return "ok"
}
