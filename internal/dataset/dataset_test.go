package dataset

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "fertpulse/internal/errors"
	"fertpulse/internal/files"
	"fertpulse/pkg/contracts/domain"
)

const sampleJSON = `[
	{"_year": 2023, "month": "April", "state": "Bihar", "product": "Urea", "requirement_in_mt_": "100", "availability_in_mt_": "80", "id": 1},
	{"_year": 2023, "month": "April", "state": "Bihar", "product": "Urea", "requirement_in_mt_": "50", "availability_in_mt_": "", "id": 2}
]`

const sampleCSV = "\ufeff_year,month,state,product,requirement_in_mt_,availability_in_mt_,id\n" +
	"2023,April,Bihar,Urea,100,80,1\n" +
	",May,Punjab,DAP,n/a,12.5,2\n"

func TestFormatOf(t *testing.T) {
	tests := []struct {
		source   string
		expected Format
		wantErr  bool
	}{
		{"data/result.json", FormatJSON, false},
		{"DATA.CSV", FormatCSV, false},
		{"https://example.com/api/records", FormatJSON, false},
		{"https://example.com/records.csv?v=2", FormatCSV, false},
		{"report.xlsx", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			format, err := FormatOf(tt.source)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, format)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	records, err := Decode(strings.NewReader(sampleJSON), FormatJSON)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.RecordID("1"), records[0].ID)
	assert.Equal(t, 100.0, records[0].Requirement.Value())
	assert.True(t, records[1].Availability.Present)
	assert.Equal(t, 0.0, records[1].Availability.Value())
}

func TestDecodeCSV(t *testing.T) {
	records, err := Decode(strings.NewReader(sampleCSV), FormatCSV)
	require.NoError(t, err)
	require.Len(t, records, 2)

	first := records[0]
	require.NotNil(t, first.Year)
	assert.Equal(t, 2023, *first.Year)
	assert.Equal(t, "April", first.Month)
	assert.Equal(t, domain.NewQuantity("100"), first.Requirement)
	assert.Equal(t, domain.RecordID("1"), first.ID)

	second := records[1]
	assert.Nil(t, second.Year)
	assert.Equal(t, domain.NewQuantity("n/a"), second.Requirement)
	assert.Equal(t, 12.5, second.Availability.Value())
}

func TestDecodeCSVMissingColumns(t *testing.T) {
	records, err := Decode(strings.NewReader("id,product\n7,Urea\n"), FormatCSV)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.False(t, records[0].Requirement.Present)
	assert.False(t, records[0].Availability.Present)

	_, err = Decode(strings.NewReader("product\nUrea\n"), FormatCSV)
	assert.Error(t, err)
}

func TestDecodeKeepsRecordsWithBadYears(t *testing.T) {
	jsonData := `[
		{"_year": "2023", "product": "Urea", "requirement_in_mt_": "10", "id": 1},
		{"_year": 2023, "product": "DAP", "requirement_in_mt_": "5", "id": 2},
		{"_year": "2023-24", "product": "MOP", "requirement_in_mt_": "7", "id": 3},
		{"_year": true, "product": "SSP", "id": 4}
	]`
	csvData := "_year,product,requirement_in_mt_,id\n" +
		"2023,Urea,10,1\n" +
		" 2023 ,DAP,5,2\n" +
		"2023-24,MOP,7,3\n" +
		"last,SSP,,4\n"

	tests := []struct {
		name   string
		data   string
		format Format
	}{
		{"json", jsonData, FormatJSON},
		{"csv", csvData, FormatCSV},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			records, err := Decode(strings.NewReader(tt.data), tt.format)
			require.NoError(t, err)
			require.Len(t, records, 4)

			for _, r := range records[:2] {
				require.NotNil(t, r.Year)
				assert.Equal(t, 2023, *r.Year)
				assert.Empty(t, r.RawYear)
			}
			assert.Nil(t, records[2].Year)
			assert.Equal(t, "2023-24", records[2].RawYear)
			assert.Equal(t, 7.0, records[2].Requirement.Value())
			assert.Nil(t, records[3].Year)
			assert.NotEmpty(t, records[3].RawYear)

			q := Inspect(records)
			assert.Equal(t, 2, q.InvalidYears)
			assert.False(t, q.Clean())
		})
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatCSV} {
		records, err := Decode(strings.NewReader(""), format)
		require.NoError(t, err)
		assert.NotNil(t, records)
		assert.Empty(t, records)
	}

	records, err := Decode(strings.NewReader("null"), FormatJSON)
	require.NoError(t, err)
	assert.NotNil(t, records)

	_, err = Decode(strings.NewReader("{"), FormatJSON)
	assert.Error(t, err)

	_, err = Decode(strings.NewReader("[]"), Format("xml"))
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestStoreLoadsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "result.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0644))

	store := NewStore(path, files.NewOpener(time.Second, nil), nil)
	_, err := store.Records()
	assert.ErrorIs(t, err, files.ErrNotReady)

	records, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)

	state := store.State()
	assert.Equal(t, domain.LoadStatusReady, state.Status)
	assert.Equal(t, 2, state.Count)
	assert.Equal(t, ResourceName, state.Name)
}

func TestStoreLoadsFromURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer server.Close()

	store := NewStore(server.URL+"/result.csv", files.NewOpener(time.Second, nil), nil)
	store.Start(context.Background())
	<-store.Done()

	records, err := store.Records()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestReadClassifiesErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken.json" {
			w.Write([]byte(`[{"id": 1`))
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()
	opener := files.NewOpener(time.Second, nil)

	tests := []struct {
		name     string
		source   string
		expected apierrors.ErrorType
	}{
		{"remote fetch fails", server.URL + "/missing.json", apierrors.ErrTypeNetwork},
		{"malformed body", server.URL + "/broken.json", apierrors.ErrTypeParsing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), opener, tt.source)
			var appErr *apierrors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.expected, appErr.Type)
		})
	}

	_, err := Read(context.Background(), opener, filepath.Join(t.TempDir(), "missing.json"))
	var appErr *apierrors.AppError
	assert.False(t, errors.As(err, &appErr))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestStoreFailureIsTerminal(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "missing.json"), files.NewOpener(time.Second, nil), nil)

	_, err := store.Load(context.Background())
	assert.ErrorIs(t, err, files.ErrLoadFailed)

	_, err = store.Records()
	assert.ErrorIs(t, err, files.ErrLoadFailed)
	assert.Equal(t, domain.LoadStatusFailed, store.State().Status)
	assert.NotEmpty(t, store.State().Error)
}

func TestNewStaticStore(t *testing.T) {
	store := NewStaticStore(nil)
	records, err := store.Records()
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestInspect(t *testing.T) {
	records := []domain.Record{
		{ID: "1", Month: "April", Requirement: domain.NewQuantity("10")},
		{ID: "1", Month: "Aprl"},
		{Month: "May", Availability: domain.NewQuantity("lots")},
	}

	q := Inspect(records)
	assert.Equal(t, 3, q.Records)
	assert.Equal(t, []domain.RecordID{"1"}, q.DuplicateIDs)
	assert.Equal(t, 1, q.MissingIDs)
	assert.Equal(t, 1, q.UnknownMonths)
	assert.Equal(t, 1, q.InvalidQuantity)
	assert.False(t, q.Clean())

	assert.True(t, Inspect(records[:1]).Clean())
}
