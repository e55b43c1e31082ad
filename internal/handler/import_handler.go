package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// ImporterInterface はインポートハンドラーが必要とするインターフェース。
type ImporterInterface interface {
	// Import は指定スコープの祝日を外部プロバイダーから取り込み、新規登録数を返す。
	Import(ctx context.Context, year int, country, state string) (int, error)
}

// ImportHandler は祝日インポートのHTTPハンドラー。
type ImportHandler struct {
	importer       ImporterInterface
	defaultCountry string
}

// NewImportHandler はImportHandlerを生成する。
func NewImportHandler(importer ImporterInterface, defaultCountry string) *ImportHandler {
	return &ImportHandler{
		importer:       importer,
		defaultCountry: defaultCountry,
	}
}

// importResponse はインポート結果のAPIレスポンス。
type importResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// ImportHolidays は外部プロバイダーからの祝日インポートを処理する。
// yearを省略した場合は現在の年、countryを省略した場合はデフォルト国を使う。
// POST /holidays/import?year=2026&country=US&state=TX
func (h *ImportHandler) ImportHolidays(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	year := time.Now().UTC().Year()
	if raw := query.Get("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1900 || parsed > 2200 {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("yearは1900から2200の整数で指定してください"))
			return
		}
		year = parsed
	}

	country := strings.ToUpper(strings.TrimSpace(query.Get("country")))
	if country == "" {
		country = h.defaultCountry
	}

	state := strings.ToUpper(strings.TrimSpace(query.Get("state")))

	count, err := h.importer.Import(r.Context(), year, country, state)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	scope := country
	if state != "" {
		scope = country + "/" + state
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(importResponse{
		Message: fmt.Sprintf("%d年の%sの祝日を取り込みました", year, scope),
		Count:   count,
	})
}
