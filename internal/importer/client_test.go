package importer

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

const nationalResponse = `[
	{"date": "2026-01-01", "localName": "New Year's Day", "name": "New Year's Day", "countryCode": "US", "global": true, "counties": null},
	{"date": "2026-07-04", "localName": "Independence Day", "name": "Independence Day", "countryCode": "US", "global": true, "counties": null},
	{"date": "2026-03-02", "localName": "Texas Independence Day", "name": "Texas Independence Day", "countryCode": "US", "global": false, "counties": ["US-TX"]}
]`

// TestClient_HolidaysFor_NationalScope は国全体スコープでglobal=trueの
// エントリのみが返ることを検証する。
func TestClient_HolidaysFor_NationalScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v3/PublicHolidays/2026/US" {
			t.Errorf("path = %q, want /api/v3/PublicHolidays/2026/US", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(nationalResponse))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	holidays, err := client.HolidaysFor(context.Background(), "US", "", 2026)
	if err != nil {
		t.Fatalf("HolidaysFor() error = %v", err)
	}

	if len(holidays) != 2 {
		t.Fatalf("len(holidays) = %d, want 2", len(holidays))
	}
	for _, h := range holidays {
		if h.Name == "Texas Independence Day" {
			t.Error("state-scoped holiday should be excluded from national scope")
		}
	}
}

// TestClient_HolidaysFor_StateScope は州スコープで国全体と該当subdivisionの
// 両方のエントリが返ることを検証する。
func TestClient_HolidaysFor_StateScope(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(nationalResponse))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	holidays, err := client.HolidaysFor(context.Background(), "US", "TX", 2026)
	if err != nil {
		t.Fatalf("HolidaysFor() error = %v", err)
	}

	if len(holidays) != 3 {
		t.Fatalf("len(holidays) = %d, want 3", len(holidays))
	}

	found := false
	for _, h := range holidays {
		if h.Name == "Texas Independence Day" {
			found = true
			wantDate := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
			if !h.Date.Equal(wantDate) {
				t.Errorf("Date = %v, want %v", h.Date, wantDate)
			}
		}
	}
	if !found {
		t.Error("state-scoped holiday should be included")
	}
}

// TestClient_HolidaysFor_OtherStateExcluded は別のsubdivisionの祝日が
// 除外されることを検証する。
func TestClient_HolidaysFor_OtherStateExcluded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(nationalResponse))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	holidays, err := client.HolidaysFor(context.Background(), "US", "CA", 2026)
	if err != nil {
		t.Fatalf("HolidaysFor() error = %v", err)
	}

	// global=trueの2件のみ
	if len(holidays) != 2 {
		t.Fatalf("len(holidays) = %d, want 2", len(holidays))
	}
}

// TestClient_HolidaysFor_ErrorStatus はプロバイダーのエラーステータスが
// エラーとして返ることを検証する。
func TestClient_HolidaysFor_ErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	_, err := client.HolidaysFor(context.Background(), "XX", "", 2026)
	if err == nil {
		t.Fatal("HolidaysFor() should return error for 404")
	}
}

// TestClient_HolidaysFor_MalformedJSON は壊れたレスポンスボディが
// エラーとして返ることを検証する。
func TestClient_HolidaysFor_MalformedJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	_, err := client.HolidaysFor(context.Background(), "US", "", 2026)
	if err == nil {
		t.Fatal("HolidaysFor() should return error for malformed JSON")
	}
}

// TestClient_HolidaysFor_InvalidDate は不正な日付形式がエラーとして返ることを検証する。
func TestClient_HolidaysFor_InvalidDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date": "01/01/2026", "name": "Broken", "global": true}]`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	_, err := client.HolidaysFor(context.Background(), "US", "", 2026)
	if err == nil {
		t.Fatal("HolidaysFor() should return error for invalid date format")
	}
}

// TestClient_HolidaysFor_FallsBackToLocalName はname欠落時にlocalNameが
// 使われることを検証する。
func TestClient_HolidaysFor_FallsBackToLocalName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"date": "2026-01-01", "localName": "元日", "name": "", "global": true}]`))
	}))
	defer server.Close()

	client := NewClient(server.Client(), server.URL, testLogger())

	holidays, err := client.HolidaysFor(context.Background(), "JP", "", 2026)
	if err != nil {
		t.Fatalf("HolidaysFor() error = %v", err)
	}
	if len(holidays) != 1 || holidays[0].Name != "元日" {
		t.Errorf("holidays = %+v, want localName fallback", holidays)
	}
}
