package importer

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"lapse-report/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

type fakeStore struct {
	byPhone map[string]string
	created []models.Visitor
	findErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byPhone: map[string]string{"+15550001": "m1"}}
}

func (f *fakeStore) FindPersonByPhone(ctx context.Context, phone string) (string, bool, error) {
	if f.findErr != nil {
		return "", false, f.findErr
	}
	id, ok := f.byPhone[phone]
	return id, ok, nil
}

func (f *fakeStore) CreateVisitor(ctx context.Context, v *models.Visitor) error {
	v.ID = "v-" + v.Phone
	f.byPhone[v.Phone] = v.ID
	f.created = append(f.created, *v)
	return nil
}

type fakeMarker struct {
	serviceID string
	ids       []string
	calls     int
}

func (f *fakeMarker) MarkAttendance(ctx context.Context, serviceID string, ids []string) error {
	f.calls++
	f.serviceID = serviceID
	f.ids = ids
	return nil
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cellName, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cellName, &row))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestImport_MatchesCreatesAndSkips(t *testing.T) {
	store := newFakeStore()
	marker := &fakeMarker{}
	im := New(store, marker, zap.NewNop())
	rowsSeen := 0
	im.OnRow = func() { rowsSeen++ }

	buf := workbook(t, [][]any{
		{"First Name", "Last Name", "Phone Number", "Email"},
		{"Ada", "Brown", "+1 (555) 000-1", ""},
		{"Cleo", "Diaz", "555-0002", "cleo@example.com"},
		{"No", "Phone", "", "x@example.com"},
		{"Cleo", "Again", "5550002"},
	})

	sum, err := im.Import(context.Background(), buf, "s1")
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Rows)
	assert.Equal(t, 2, sum.Matched)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, []string{"m1", "v-5550002"}, sum.PersonIDs)
	assert.Equal(t, 4, rowsSeen)

	require.Len(t, store.created, 1)
	assert.Equal(t, "Cleo", store.created[0].FirstName)
	assert.Equal(t, "cleo@example.com", store.created[0].Email)

	assert.Equal(t, 1, marker.calls)
	assert.Equal(t, "s1", marker.serviceID)
	assert.Equal(t, sum.PersonIDs, marker.ids)
}

func TestImport_WithoutServiceDoesNotMark(t *testing.T) {
	marker := &fakeMarker{}
	im := New(newFakeStore(), marker, nil)

	buf := workbook(t, [][]any{{"phone"}, {"+15550001"}})
	sum, err := im.Import(context.Background(), buf, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, sum.PersonIDs)
	assert.Zero(t, marker.calls)
}

func TestImport_RequiresPhoneColumn(t *testing.T) {
	im := New(newFakeStore(), nil, nil)
	buf := workbook(t, [][]any{{"Name", "Email"}, {"Ada", "a@example.com"}})

	_, err := im.Import(context.Background(), buf, "")
	assert.ErrorIs(t, err, ErrNoPhoneColumn)
}

func TestImport_ServiceNeedsMarker(t *testing.T) {
	im := New(newFakeStore(), nil, nil)
	buf := workbook(t, [][]any{{"Phone"}, {"+15550001"}})

	_, err := im.Import(context.Background(), buf, "s1")
	assert.Error(t, err)
}

func TestImport_StoreErrorStops(t *testing.T) {
	store := newFakeStore()
	store.findErr = errors.New("db down")
	marker := &fakeMarker{}
	im := New(store, marker, nil)
	buf := workbook(t, [][]any{{"Phone"}, {"+15550001"}})

	_, err := im.Import(context.Background(), buf, "s1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 2")
	assert.Zero(t, marker.calls)
}

func TestImportFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance.xlsx")
	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]any{"Mobile", "Surname"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]any{"+15550009", "Eze"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	store := newFakeStore()
	sum, err := New(store, nil, nil).ImportFile(context.Background(), path, "")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Created)
	assert.Equal(t, "Eze", store.created[0].LastName)
}

func TestMapHeader(t *testing.T) {
	cols := mapHeader([]string{" EMAIL ", "Surname", "firstname", "Mobile"})
	assert.Equal(t, columns{firstName: 2, lastName: 1, phone: 3, email: 0}, cols)
}
