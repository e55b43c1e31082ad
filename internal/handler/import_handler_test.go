package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// mockImporter はImporterInterfaceのモック実装。
type mockImporter struct {
	importFn func(ctx context.Context, year int, country, state string) (int, error)
}

func (m *mockImporter) Import(ctx context.Context, year int, country, state string) (int, error) {
	if m.importFn != nil {
		return m.importFn(ctx, year, country, state)
	}
	return 0, nil
}

func TestImportHandler_ImportHolidays_Success(t *testing.T) {
	imp := &mockImporter{
		importFn: func(ctx context.Context, year int, country, state string) (int, error) {
			if year != 2026 || country != "US" || state != "TX" {
				t.Errorf("scope = %d/%s/%s, want 2026/US/TX", year, country, state)
			}
			return 12, nil
		},
	}
	h := NewImportHandler(imp, "US")

	req := httptest.NewRequest(http.MethodPost, "/holidays/import?year=2026&country=us&state=tx", nil)
	req = withUser(req, 42, "user@example.com")
	w := httptest.NewRecorder()

	h.ImportHolidays(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusCreated)
	}

	var resp importResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 12 {
		t.Errorf("Count = %d, want 12", resp.Count)
	}
	if resp.Message == "" {
		t.Error("message should not be empty")
	}
}

// TestImportHandler_ImportHolidays_Defaults はyear/country省略時に
// 当年とデフォルト国が使われることを検証する。
func TestImportHandler_ImportHolidays_Defaults(t *testing.T) {
	imp := &mockImporter{
		importFn: func(ctx context.Context, year int, country, state string) (int, error) {
			if year != time.Now().UTC().Year() {
				t.Errorf("year = %d, want current year", year)
			}
			if country != "US" {
				t.Errorf("country = %q, want default US", country)
			}
			if state != "" {
				t.Errorf("state = %q, want empty", state)
			}
			return 0, nil
		},
	}
	h := NewImportHandler(imp, "US")

	req := httptest.NewRequest(http.MethodPost, "/holidays/import", nil)
	req = withUser(req, 42, "user@example.com")
	w := httptest.NewRecorder()

	h.ImportHolidays(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
	}
}

func TestImportHandler_ImportHolidays_InvalidYear(t *testing.T) {
	h := NewImportHandler(&mockImporter{}, "US")

	for _, year := range []string{"banana", "1800", "9999"} {
		req := httptest.NewRequest(http.MethodPost, "/holidays/import?year="+year, nil)
		req = withUser(req, 42, "user@example.com")
		w := httptest.NewRecorder()

		h.ImportHolidays(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("year=%s: status = %d, want %d", year, w.Code, http.StatusBadRequest)
		}
	}
}

// TestImportHandler_ImportHolidays_ProviderFailure はプロバイダー障害が
// 502 Bad Gatewayで返ることを検証する。
func TestImportHandler_ImportHolidays_ProviderFailure(t *testing.T) {
	imp := &mockImporter{
		importFn: func(ctx context.Context, year int, country, state string) (int, error) {
			return 0, model.NewImportFailedError("connection refused")
		},
	}
	h := NewImportHandler(imp, "US")

	req := httptest.NewRequest(http.MethodPost, "/holidays/import", nil)
	req = withUser(req, 42, "user@example.com")
	w := httptest.NewRecorder()

	h.ImportHolidays(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadGateway)
	}
	errResp := parseAPIErrorResponse(t, w)
	if errResp["code"] != model.ErrCodeImportFailed {
		t.Errorf("code = %q, want %q", errResp["code"], model.ErrCodeImportFailed)
	}
}
