package domain

import (
	"context"
	"time"
)

// ScanState is the state of the scan flow.
type ScanState string

const (
	ScanScanning   ScanState = "scanning"
	ScanLookingUp  ScanState = "looking_up"
	ScanShowResult ScanState = "show_result"
)

// NoticeKind tells the UI which dismissible notice to show.
type NoticeKind string

const (
	NoticeNotFound NoticeKind = "not_found"
	NoticeError    NoticeKind = "error"
)

type ScanNotice struct {
	Kind    NoticeKind `json:"kind"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
}

// ScanView is what the scan screen renders.
type ScanView struct {
	State   ScanState         `json:"state"`
	Barcode string            `json:"barcode,omitempty"`
	Product *ProductRecord    `json:"product,omitempty"`
	Display *NutritionDisplay `json:"display,omitempty"`
	Notice  *ScanNotice       `json:"notice,omitempty"`
}

type ScanUsecase interface {
	View() ScanView
	// BarcodeAcquired starts a lookup. accepted is false when one is already in flight.
	BarcodeAcquired(ctx context.Context, barcode string) (view ScanView, accepted bool)
	ScanAnother() ScanView
	DismissNotice() ScanView
	// Thumbnail returns a JPEG thumbnail of the displayed product image.
	Thumbnail(ctx context.Context) ([]byte, error)
}

// ============================================================================
// Scan History
// ============================================================================

// ScanRecord is one successful scan of a signed-in user.
type ScanRecord struct {
	ID        string        `json:"id"`
	UserID    string        `json:"user_id"`
	Barcode   string        `json:"barcode"`
	Product   ProductRecord `json:"product"`
	ScannedAt time.Time     `json:"scanned_at"`
}

type ScanHistoryRepository interface {
	Save(ctx context.Context, record *ScanRecord) error
	// ListByUser returns newest first. limit <= 0 means no limit.
	ListByUser(ctx context.Context, userID string, limit int) ([]ScanRecord, error)
	CountByUser(ctx context.Context, userID string) (int, error)
}
