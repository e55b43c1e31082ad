package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/hitoshi/holical/internal/middleware"
	"github.com/hitoshi/holical/internal/model"
)

// mockUserResolver はmiddleware.UserResolverのモック実装。
type mockUserResolver struct {
	currentUserFn func(ctx context.Context, token string) (*model.User, error)
}

func (m *mockUserResolver) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	if m.currentUserFn != nil {
		return m.currentUserFn(ctx, token)
	}
	return nil, model.NewUnauthorizedError()
}

func testRouter(t *testing.T, resolver middleware.UserResolver, holidaySvc HolidayServiceInterface) http.Handler {
	t.Helper()

	rl := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		GeneralRate:     rate.Limit(1000),
		GeneralBurst:    1000,
		ImportRate:      rate.Limit(1000),
		ImportBurst:     1000,
		CleanupInterval: time.Hour,
	})
	t.Cleanup(rl.Stop)

	if holidaySvc == nil {
		holidaySvc = &mockHolidayService{}
	}

	return NewRouter(&RouterDeps{
		UserResolver:      resolver,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rl,
		Logger:            slog.New(slog.NewTextHandler(io.Discard, nil)),

		AuthService: &mockAuthService{},
		UserFinder:  &mockUserFinder{},

		HolidayService: holidaySvc,
		Importer:       &mockImporter{},
		DefaultCountry: "US",
	})
}

// TestRouter_HealthCheck は/healthが認証無しで200を返すことを検証する。
func TestRouter_HealthCheck(t *testing.T) {
	router := testRouter(t, &mockUserResolver{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

// TestRouter_HolidaysRequireAuth は祝日ルートが未認証で401になることを検証する。
func TestRouter_HolidaysRequireAuth(t *testing.T) {
	router := testRouter(t, &mockUserResolver{}, nil)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/holidays"},
		{http.MethodPost, "/holidays"},
		{http.MethodPut, "/holidays/1"},
		{http.MethodDelete, "/holidays/1"},
		{http.MethodPost, "/holidays/import"},
		{http.MethodDelete, "/api/holidays/clear"},
		{http.MethodGet, "/users/me/"},
	}

	for _, rt := range routes {
		req := httptest.NewRequest(rt.method, rt.path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("%s %s: status = %d, want %d", rt.method, rt.path, w.Code, http.StatusUnauthorized)
		}
	}
}

// TestRouter_AuthenticatedListFlow は有効なトークンで一覧取得まで通ることを検証する。
func TestRouter_AuthenticatedListFlow(t *testing.T) {
	resolver := &mockUserResolver{
		currentUserFn: func(ctx context.Context, token string) (*model.User, error) {
			if token != "valid" {
				return nil, model.NewUnauthorizedError()
			}
			return &model.User{ID: 42, Email: "user@example.com", IsActive: true}, nil
		},
	}
	svc := &mockHolidayService{
		listFn: func(ctx context.Context, filter model.HolidayFilter) ([]*model.Holiday, error) {
			return []*model.Holiday{sampleHoliday()}, nil
		},
	}
	router := testRouter(t, resolver, svc)

	req := httptest.NewRequest(http.MethodGet, "/holidays?country=US", nil)
	req.Header.Set("Authorization", "Bearer valid")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}
}

// TestRouter_CORSPreflight はOPTIONSリクエストがCORSヘッダー付きで
// 処理されることを検証する。
func TestRouter_CORSPreflight(t *testing.T) {
	router := testRouter(t, &mockUserResolver{}, nil)

	req := httptest.NewRequest(http.MethodOptions, "/holidays", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}

// TestRouter_SecurityHeaders は全レスポンスにセキュリティヘッダーが
// 付与されることを検証する。
func TestRouter_SecurityHeaders(t *testing.T) {
	router := testRouter(t, &mockUserResolver{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q, want nosniff", got)
	}
}
