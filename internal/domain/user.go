package domain

import "context"

// Profile is the profile tab of the main stack
type Profile struct {
	UserID              string `json:"user_id"`
	Email               string `json:"email"`
	OnboardingCompleted bool   `json:"onboarding_completed"`
	ScanCount           int    `json:"scan_count"`
}

// HistoryExport is a rendered scan history file.
type HistoryExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

type ProfileUsecase interface {
	GetProfile(ctx context.Context) (*Profile, error)
	ListHistory(ctx context.Context, limit int) ([]ScanRecord, error)
	ExportHistory(ctx context.Context, format string) (*HistoryExport, error)
}
