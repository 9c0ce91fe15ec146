package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"lapse-report/pkg/models"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var ErrNoPhoneColumn = errors.New("sheet has no phone column")

// PersonStore resolves phone numbers to people and records new visitors.
type PersonStore interface {
	FindPersonByPhone(ctx context.Context, phone string) (string, bool, error)
	CreateVisitor(ctx context.Context, v *models.Visitor) error
}

// AttendanceMarker replaces the attendance of a service.
type AttendanceMarker interface {
	MarkAttendance(ctx context.Context, serviceID string, personIDs []string) error
}

// Summary describes one import run.
type Summary struct {
	Rows      int
	Matched   int
	Created   int
	Skipped   int
	PersonIDs []string // unique, in sheet order
}

type Importer struct {
	store  PersonStore
	marker AttendanceMarker
	logger *zap.Logger

	// OnRow, when set, is called after each data row.
	OnRow func()
}

func New(store PersonStore, marker AttendanceMarker, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, marker: marker, logger: logger}
}

// ImportFile reads an xlsx file. See Import.
func (im *Importer) ImportFile(ctx context.Context, path, serviceID string) (*Summary, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f, serviceID)
}

// Import reads the first sheet of an xlsx workbook. Each row with a phone
// number is matched to an existing person or becomes a new visitor; rows
// without one are skipped. When serviceID is set, the people found become
// that service's attendance, replacing what was recorded before.
func (im *Importer) Import(ctx context.Context, r io.Reader, serviceID string) (*Summary, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return im.importWorkbook(ctx, f, serviceID)
}

func (im *Importer) importWorkbook(ctx context.Context, f *excelize.File, serviceID string) (*Summary, error) {
	if serviceID != "" && im.marker == nil {
		return nil, errors.New("attendance marker required to import for a service")
	}
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return &Summary{PersonIDs: []string{}}, nil
	}

	cols := mapHeader(rows[0])
	if cols.phone < 0 {
		return nil, ErrNoPhoneColumn
	}

	sum := &Summary{PersonIDs: []string{}}
	seen := make(map[string]struct{})
	for i, row := range rows[1:] {
		sum.Rows++
		id, created, err := im.importRow(ctx, cols, row)
		if im.OnRow != nil {
			im.OnRow()
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if id == "" {
			sum.Skipped++
			continue
		}
		if created {
			sum.Created++
		} else {
			sum.Matched++
		}
		if _, dup := seen[id]; !dup {
			seen[id] = struct{}{}
			sum.PersonIDs = append(sum.PersonIDs, id)
		}
	}

	if serviceID != "" {
		if err := im.marker.MarkAttendance(ctx, serviceID, sum.PersonIDs); err != nil {
			return nil, fmt.Errorf("mark attendance: %w", err)
		}
	}

	im.logger.Info("import finished",
		zap.String("sheet", sheets[0]),
		zap.Int("rows", sum.Rows),
		zap.Int("matched", sum.Matched),
		zap.Int("created", sum.Created),
		zap.Int("skipped", sum.Skipped),
	)
	return sum, nil
}

func (im *Importer) importRow(ctx context.Context, cols columns, row []string) (string, bool, error) {
	phone := models.NormalizePhone(cell(row, cols.phone))
	if phone == "" {
		return "", false, nil
	}
	id, found, err := im.store.FindPersonByPhone(ctx, phone)
	if err != nil {
		return "", false, err
	}
	if found {
		return id, false, nil
	}
	v := &models.Visitor{
		FirstName: strings.TrimSpace(cell(row, cols.firstName)),
		LastName:  strings.TrimSpace(cell(row, cols.lastName)),
		Phone:     phone,
		Email:     strings.TrimSpace(cell(row, cols.email)),
	}
	if err := im.store.CreateVisitor(ctx, v); err != nil {
		return "", false, err
	}
	return v.ID, true, nil
}

type columns struct {
	firstName, lastName, phone, email int
}

var headerAliases = map[string]string{
	"first name":   "first",
	"firstname":    "first",
	"first_name":   "first",
	"last name":    "last",
	"lastname":     "last",
	"last_name":    "last",
	"surname":      "last",
	"phone":        "phone",
	"phone number": "phone",
	"phonenumber":  "phone",
	"phone_number": "phone",
	"mobile":       "phone",
	"email":        "email",
	"e-mail":       "email",
}

func mapHeader(header []string) columns {
	cols := columns{firstName: -1, lastName: -1, phone: -1, email: -1}
	for i, h := range header {
		switch headerAliases[strings.ToLower(strings.TrimSpace(h))] {
		case "first":
			cols.firstName = i
		case "last":
			cols.lastName = i
		case "phone":
			cols.phone = i
		case "email":
			cols.email = i
		}
	}
	return cols
}

// cell tolerates short rows; excelize drops trailing empty cells.
func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
