package usecase

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"food-expose-backend/internal/domain"
	"food-expose-backend/pkg/apperror"

	"github.com/xuri/excelize/v2"
)

type profileUsecase struct {
	gate         domain.GateController
	onboarding   domain.OnboardingUsecase
	history      domain.ScanHistoryRepository
	log          *slog.Logger
	historyLimit int
	now          func() time.Time
}

func NewProfileUsecase(gate domain.GateController, onboarding domain.OnboardingUsecase, history domain.ScanHistoryRepository, historyLimit int, log *slog.Logger) domain.ProfileUsecase {
	return &profileUsecase{
		gate:         gate,
		onboarding:   onboarding,
		history:      history,
		log:          log,
		historyLimit: historyLimit,
		now:          time.Now,
	}
}

func (u *profileUsecase) GetProfile(ctx context.Context) (*domain.Profile, error) {
	session, err := u.currentSession()
	if err != nil {
		return nil, err
	}

	profile := &domain.Profile{
		UserID: session.UserID,
		Email:  session.Email,
	}

	// The profile tab is only reachable from the main stack, which already
	// implies completion; a store read failure does not change that.
	status, err := u.onboarding.GetOnboardingStatus(ctx, session.UserID)
	if err != nil {
		u.log.Warn("Failed to read onboarding status for profile", "user_id", session.UserID, "error", err)
		profile.OnboardingCompleted = u.gate.Snapshot().State == domain.GateShowMain
	} else {
		profile.OnboardingCompleted = status.Completed
	}

	count, err := u.history.CountByUser(ctx, session.UserID)
	if err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "Failed to count scan history", err)
	}
	profile.ScanCount = count

	return profile, nil
}

func (u *profileUsecase) ListHistory(ctx context.Context, limit int) ([]domain.ScanRecord, error) {
	session, err := u.currentSession()
	if err != nil {
		return nil, err
	}

	if limit <= 0 || limit > u.historyLimit {
		limit = u.historyLimit
	}

	records, err := u.history.ListByUser(ctx, session.UserID, limit)
	if err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "Failed to load scan history", err)
	}
	if records == nil {
		records = []domain.ScanRecord{}
	}
	return records, nil
}

func (u *profileUsecase) ExportHistory(ctx context.Context, format string) (*domain.HistoryExport, error) {
	session, err := u.currentSession()
	if err != nil {
		return nil, err
	}

	records, err := u.history.ListByUser(ctx, session.UserID, 0)
	if err != nil {
		return nil, apperror.New(http.StatusInternalServerError, "Failed to load scan history", err)
	}

	stamp := u.now().Format("20060102_150405")
	switch format {
	case "xlsx", "":
		data, err := exportExcel(records)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		return &domain.HistoryExport{
			Filename:    fmt.Sprintf("scan_history_%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}, nil
	case "csv":
		data, err := exportCSV(records)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		return &domain.HistoryExport{
			Filename:    fmt.Sprintf("scan_history_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return nil, apperror.BadRequest("Unsupported export format: " + format)
	}
}

func (u *profileUsecase) currentSession() (domain.Session, error) {
	session := u.gate.Snapshot().Session
	if !session.IsAuthenticated() {
		return session, apperror.Unauthorized("User not authenticated")
	}
	return session, nil
}

var historyColumns = []string{
	"SCANNED AT", "BARCODE", "NAME", "BRAND",
	"CALORIES (KCAL)", "PROTEIN (G)", "CARBS (G)", "FAT (G)", "FIBER (G)", "SUGAR (G)", "SALT (G)",
}

func historyRow(r domain.ScanRecord) []interface{} {
	p := r.Product
	return []interface{}{
		r.ScannedAt.Format(time.RFC3339), r.Barcode, p.Name, p.Brand,
		p.CaloriesKcal, p.ProteinG, p.CarbsG, p.FatG, p.FiberG, p.SugarG, p.SaltG,
	}
}

// exportExcel generates an Excel file from scan history
func exportExcel(records []domain.ScanRecord) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Scans"
	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	for i, header := range historyColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#0F172A"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(historyColumns), 1)
	f.SetCellStyle(sheetName, "A1", endCell, headerStyle)

	for rowIdx, record := range records {
		for colIdx, value := range historyRow(record) {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	for i := range historyColumns {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 18)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}
	return buf.Bytes(), nil
}

// exportCSV generates a CSV file from scan history
func exportCSV(records []domain.ScanRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(historyColumns); err != nil {
		return nil, err
	}
	for _, record := range records {
		row := historyRow(record)
		values := make([]string, len(row))
		for i, v := range row {
			switch val := v.(type) {
			case float64:
				values[i] = strconv.FormatFloat(val, 'f', -1, 64)
			default:
				values[i] = fmt.Sprintf("%v", val)
			}
		}
		if err := w.Write(values); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
