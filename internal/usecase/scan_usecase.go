package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"
	"food-expose-backend/pkg/imaging"
	"food-expose-backend/pkg/metrics"

	"github.com/google/uuid"
)

var (
	noticeNotFound = domain.ScanNotice{
		Kind:    domain.NoticeNotFound,
		Title:   "Not Found",
		Message: "Product not found in database. Try another barcode.",
	}
	noticeLookupFailed = domain.ScanNotice{
		Kind:    domain.NoticeError,
		Title:   "Error",
		Message: "Failed to fetch product info. Please try again.",
	}
)

type scanUsecase struct {
	mu sync.Mutex

	lookup  domain.NutritionLookup
	images  domain.ImageFetcher
	history domain.ScanHistoryRepository
	gate    domain.GateController
	log     *slog.Logger
	now     func() time.Time

	// generation of the gate evaluation this flow belongs to
	generation uint64
	state      domain.ScanState
	inFlight   bool
	barcode  string
	product  *domain.ProductRecord
	notice   *domain.ScanNotice
}

func NewScanUsecase(lookup domain.NutritionLookup, images domain.ImageFetcher, history domain.ScanHistoryRepository, gate domain.GateController, log *slog.Logger) domain.ScanUsecase {
	return &scanUsecase{
		lookup:  lookup,
		images:  images,
		history: history,
		gate:    gate,
		log:     log,
		now:     time.Now,
		state:   domain.ScanScanning,
	}
}

func (u *scanUsecase) View() domain.ScanView {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()
	return u.viewLocked()
}

// BarcodeAcquired looks up barcode. Events arriving while a lookup is in flight,
// or while a result is shown, are ignored. A lookup that outlives the gate
// evaluation it started in is dropped without touching the flow or history.
func (u *scanUsecase) BarcodeAcquired(ctx context.Context, barcode string) (domain.ScanView, bool) {
	barcode = strings.TrimSpace(barcode)

	u.mu.Lock()
	u.syncLocked()
	if u.inFlight || u.state != domain.ScanScanning || barcode == "" {
		view := u.viewLocked()
		u.mu.Unlock()
		return view, false
	}
	u.inFlight = true
	u.state = domain.ScanLookingUp
	u.barcode = barcode
	u.product = nil
	u.notice = nil
	generation := u.generation
	session := u.gate.Snapshot().Session
	u.mu.Unlock()

	// The camera keeps running after the request returns; the lookup belongs
	// to the flow, not to the HTTP request that reported the barcode.
	start := time.Now()
	product, err := u.lookup.Lookup(context.WithoutCancel(ctx), barcode)
	elapsed := time.Since(start)

	u.mu.Lock()
	u.syncLocked()
	if u.generation != generation {
		view := u.viewLocked()
		u.mu.Unlock()
		u.log.Info("Dropping lookup from a previous session", "barcode", barcode, "user_id", session.UserID)
		return view, true
	}
	u.inFlight = false
	switch {
	case err == nil:
		u.state = domain.ScanShowResult
		u.product = product
		metrics.RecordNutritionLookup("found", elapsed)
	case errors.Is(err, domain.ErrProductNotFound):
		u.returnToScanningLocked(noticeNotFound)
		metrics.RecordNutritionLookup("not_found", elapsed)
	default:
		u.returnToScanningLocked(noticeLookupFailed)
		metrics.RecordNutritionLookup("error", elapsed)
		u.log.Warn("Nutrition lookup failed", "barcode", barcode, "error", err)
	}
	view := u.viewLocked()
	u.mu.Unlock()

	if err == nil {
		u.recordHistory(ctx, session, barcode, product)
	}

	return view, true
}

// ScanAnother leaves the result screen and re-arms the camera.
func (u *scanUsecase) ScanAnother() domain.ScanView {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()

	if u.state == domain.ScanShowResult {
		u.state = domain.ScanScanning
		u.barcode = ""
		u.product = nil
	}
	return u.viewLocked()
}

func (u *scanUsecase) DismissNotice() domain.ScanView {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.syncLocked()
	u.notice = nil
	return u.viewLocked()
}

func (u *scanUsecase) Thumbnail(ctx context.Context) ([]byte, error) {
	u.mu.Lock()
	u.syncLocked()
	var imageURL string
	if u.state == domain.ScanShowResult && u.product != nil && u.product.ImageURL != nil {
		imageURL = *u.product.ImageURL
	}
	u.mu.Unlock()

	if imageURL == "" {
		return nil, apperror.NotFound("No product image to show")
	}

	data, err := u.images.FetchImage(ctx, imageURL)
	if err != nil {
		return nil, apperror.BadGateway("Failed to fetch product image", err)
	}

	thumb, err := imaging.Thumbnail(data, imaging.MaxThumbnailSide)
	if err != nil {
		return nil, apperror.BadGateway("Product image is not a supported format", err)
	}
	return thumb, nil
}

// syncLocked re-arms the camera with an empty screen when the gate has started
// a new evaluation, so nothing carries over between sessions.
func (u *scanUsecase) syncLocked() {
	gen := u.gate.Snapshot().Generation
	if gen == u.generation {
		return
	}
	u.generation = gen
	u.state = domain.ScanScanning
	u.inFlight = false
	u.barcode = ""
	u.product = nil
	u.notice = nil
}

func (u *scanUsecase) returnToScanningLocked(notice domain.ScanNotice) {
	u.state = domain.ScanScanning
	u.barcode = ""
	u.product = nil
	u.notice = &notice
}

// recordHistory is best effort; a failed write never affects the scan.
func (u *scanUsecase) recordHistory(ctx context.Context, session domain.Session, barcode string, product *domain.ProductRecord) {
	if !session.IsAuthenticated() || u.history == nil {
		return
	}

	record := &domain.ScanRecord{
		ID:        uuid.NewString(),
		UserID:    session.UserID,
		Barcode:   barcode,
		Product:   *product,
		ScannedAt: u.now().UTC(),
	}
	if err := u.history.Save(context.WithoutCancel(ctx), record); err != nil {
		u.log.Warn("Failed to save scan history", "user_id", session.UserID, "barcode", barcode, "error", err)
	}
}

func (u *scanUsecase) viewLocked() domain.ScanView {
	view := domain.ScanView{
		State:   u.state,
		Barcode: u.barcode,
	}
	if u.product != nil {
		product := *u.product
		display := product.Display()
		view.Product = &product
		view.Display = &display
	}
	if u.notice != nil {
		notice := *u.notice
		view.Notice = &notice
	}
	return view
}
