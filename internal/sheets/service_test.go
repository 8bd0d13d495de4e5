package sheets

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// fakeSheets records the Sheets API calls made by a Journal.
type fakeSheets struct {
	mu         sync.Mutex
	hasTab     bool
	hasHeaders bool
	calls      []string
	appended   [][]interface{}
	headerRow  []interface{}
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := r.URL.Path
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":append"):
		f.calls = append(f.calls, "append")
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		f.appended = append(f.appended, vr.Values...)
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
		f.calls = append(f.calls, "batchUpdate")
		f.hasTab = true
		_, _ = w.Write([]byte(`{"replies":[{"addSheet":{"properties":{"sheetId":9,"title":"Translations"}}}]}`))
	case r.Method == http.MethodPut:
		f.calls = append(f.calls, "update")
		var vr sheets.ValueRange
		_ = json.NewDecoder(r.Body).Decode(&vr)
		if len(vr.Values) > 0 {
			f.headerRow = vr.Values[0]
		}
		f.hasHeaders = true
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet && strings.Contains(path, "/values/"):
		f.calls = append(f.calls, "getValues")
		if f.hasHeaders {
			_, _ = w.Write([]byte(`{"values":[["File"]]}`))
			return
		}
		_, _ = w.Write([]byte(`{}`))
	case r.Method == http.MethodGet:
		f.calls = append(f.calls, "get")
		if f.hasTab {
			_, _ = w.Write([]byte(`{"sheets":[{"properties":{"sheetId":7,"title":"Translations"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"sheets":[]}`))
	default:
		http.Error(w, "unexpected request", http.StatusBadRequest)
	}
}

func newTestJournal(t *testing.T, fake *fakeSheets) *Journal {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	svc, err := sheets.NewService(context.Background(),
		option.WithEndpoint(srv.URL+"/"),
		option.WithoutAuthentication(),
	)
	require.NoError(t, err)

	j := NewJournalWithService(svc, "sheet123", "")
	j.now = func() time.Time { return time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC) }
	return j
}

func TestExtractSpreadsheetID(t *testing.T) {
	id, err := extractSpreadsheetID("https://docs.google.com/spreadsheets/d/1AbC-d_E/edit#gid=0")
	require.NoError(t, err)
	assert.Equal(t, "1AbC-d_E", id)

	_, err = extractSpreadsheetID("https://example.com/sheet")
	assert.Error(t, err)
}

func TestJournalAppendCreatesTabAndHeaders(t *testing.T) {
	fake := &fakeSheets{}
	j := newTestJournal(t, fake)

	err := j.Append(context.Background(), []Row{
		{Source: "shot.png", Original: "猫", Translated: "猫咪", Confidence: 0.9, X: 1, Y: 2, Width: 3, Height: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"get", "batchUpdate", "getValues", "update", "batchUpdate", "append"}, fake.calls)
	require.Len(t, fake.headerRow, len(headers))
	assert.Equal(t, "File", fake.headerRow[0])

	require.Len(t, fake.appended, 1)
	row := fake.appended[0]
	assert.Equal(t, "shot.png", row[0])
	assert.Equal(t, "猫咪", row[2])
	assert.Equal(t, "2026-10-17 09:30:00", row[8])
}

func TestJournalAppendSetsUpOnce(t *testing.T) {
	fake := &fakeSheets{hasTab: true, hasHeaders: true}
	j := newTestJournal(t, fake)
	ctx := context.Background()

	require.NoError(t, j.Append(ctx, []Row{{Source: "a.png", Original: "一"}}))
	require.NoError(t, j.Append(ctx, []Row{{Source: "b.png", Original: "二"}}))
	require.NoError(t, j.Append(ctx, nil))

	assert.Equal(t, []string{"get", "getValues", "append", "append"}, fake.calls)
	assert.Len(t, fake.appended, 2)
}

func TestNewJournalRequiresCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	t.Setenv("GOOGLE_CREDENTIALS", "")

	_, err := NewJournal(context.Background(), "https://docs.google.com/spreadsheets/d/abc/edit", "")
	assert.ErrorContains(t, err, "neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS")

	_, err = NewJournal(context.Background(), "not a sheet", "")
	assert.ErrorContains(t, err, "spreadsheet ID")
}
