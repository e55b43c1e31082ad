package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/holical/internal/holiday"
	"github.com/hitoshi/holical/internal/middleware"
	"github.com/hitoshi/holical/internal/model"
)

// HolidayServiceInterface は祝日ハンドラーが必要とするサービスインターフェース。
type HolidayServiceInterface interface {
	// Create はカスタム祝日を作成する。
	Create(ctx context.Context, ownerID int64, input holiday.CreateInput) (*model.Holiday, error)
	// Get は祝日を1件取得する。
	Get(ctx context.Context, id int64) (*model.Holiday, error)
	// List はフィルター条件に合致する祝日の一覧を返す。
	List(ctx context.Context, filter model.HolidayFilter) ([]*model.Holiday, error)
	// Update はカスタム祝日を部分更新する。
	Update(ctx context.Context, callerID, id int64, update model.HolidayUpdate) (*model.Holiday, error)
	// Delete はカスタム祝日を削除する。
	Delete(ctx context.Context, callerID, id int64) error
	// ClearAll は全祝日を削除しIDシーケンスをリセットする。管理者のみ。
	ClearAll(ctx context.Context, callerEmail string) error
}

// HolidayHandler は祝日管理のHTTPハンドラー。
type HolidayHandler struct {
	service HolidayServiceInterface
}

// NewHolidayHandler はHolidayHandlerを生成する。
func NewHolidayHandler(service HolidayServiceInterface) *HolidayHandler {
	return &HolidayHandler{service: service}
}

// createHolidayRequest はカスタム祝日作成リクエストのボディ。
type createHolidayRequest struct {
	Name    string `json:"name"`
	Date    string `json:"date"`
	Country string `json:"country"`
	State   string `json:"state"`
	Federal bool   `json:"federal"`
	Notes   string `json:"notes"`
}

// updateHolidayRequest はカスタム祝日更新リクエストのボディ。
// 省略されたフィールドは変更しない。
type updateHolidayRequest struct {
	Name    *string `json:"name"`
	Date    *string `json:"date"`
	Country *string `json:"country"`
	State   *string `json:"state"`
	Federal *bool   `json:"federal"`
	Notes   *string `json:"notes"`
}

// holidayResponse は祝日情報のAPIレスポンス。
type holidayResponse struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Date     string `json:"date"`
	Country  string `json:"country"`
	State    string `json:"state,omitempty"`
	Federal  bool   `json:"federal"`
	Notes    string `json:"notes,omitempty"`
	IsCustom bool   `json:"is_custom"`
	OwnerID  *int64 `json:"owner_id,omitempty"`
}

// messageResponse は操作結果メッセージのAPIレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// CreateHoliday はカスタム祝日の作成を処理する。
// POST /holidays
func (h *HolidayHandler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req createHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	date, err := time.Parse(model.DateFormat, req.Date)
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("日付はYYYY-MM-DD形式で指定してください"))
		return
	}

	created, err := h.service.Create(r.Context(), userID, holiday.CreateInput{
		Name:    req.Name,
		Date:    date,
		Country: req.Country,
		State:   req.State,
		Federal: req.Federal,
		Notes:   req.Notes,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toHolidayResponse(created))
}

// ListHolidays はフィルター条件付きの祝日一覧を返す。
// GET /holidays
func (h *HolidayHandler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	filter, err := holiday.ParseFilter(r.URL.Query())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	holidays, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]holidayResponse, 0, len(holidays))
	for _, hol := range holidays {
		resp = append(resp, toHolidayResponse(hol))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// GetHoliday は祝日詳細を取得する。
// GET /holidays/{id}
func (h *HolidayHandler) GetHoliday(w http.ResponseWriter, r *http.Request) {
	id, err := holidayIDFromURL(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	found, err := h.service.Get(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toHolidayResponse(found))
}

// UpdateHoliday はカスタム祝日の部分更新を処理する。
// PUT /holidays/{id}
func (h *HolidayHandler) UpdateHoliday(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, err := holidayIDFromURL(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var req updateHolidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "リクエストボディの解析に失敗しました。",
			Category: "validation",
			Action:   "正しいJSON形式でリクエストしてください。",
		})
		return
	}

	update := model.HolidayUpdate{
		Name:    req.Name,
		Country: req.Country,
		State:   req.State,
		Federal: req.Federal,
		Notes:   req.Notes,
	}
	if req.Date != nil {
		date, parseErr := time.Parse(model.DateFormat, *req.Date)
		if parseErr != nil {
			writeAPIErrorResponse(w, http.StatusBadRequest, model.NewValidationError("日付はYYYY-MM-DD形式で指定してください"))
			return
		}
		update.Date = &date
	}

	updated, err := h.service.Update(r.Context(), userID, id, update)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toHolidayResponse(updated))
}

// DeleteHoliday はカスタム祝日の削除を処理する。
// DELETE /holidays/{id}
func (h *HolidayHandler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, err := holidayIDFromURL(r)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if err := h.service.Delete(r.Context(), userID, id); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ClearHolidays は全祝日を削除する。管理者のみ実行できる。
// DELETE /api/holidays/clear
func (h *HolidayHandler) ClearHolidays(w http.ResponseWriter, r *http.Request) {
	email, err := middleware.UserEmailFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if err := h.service.ClearAll(r.Context(), email); err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messageResponse{Message: "すべての祝日を削除しました"})
}

// --- ヘルパー関数 ---

// holidayIDFromURL はURLパスパラメータから祝日IDを取り出す。
func holidayIDFromURL(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, model.NewValidationError("祝日IDは正の整数で指定してください")
	}
	return id, nil
}

// toHolidayResponse はmodel.HolidayからAPIレスポンスに変換する。
func toHolidayResponse(h *model.Holiday) holidayResponse {
	return holidayResponse{
		ID:       h.ID,
		Name:     h.Name,
		Date:     h.Date.Format(model.DateFormat),
		Country:  h.Country,
		State:    h.State,
		Federal:  h.Federal,
		Notes:    h.Notes,
		IsCustom: h.IsCustom,
		OwnerID:  h.OwnerID,
	}
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeValidation, model.ErrCodeInvalidFilter, model.ErrCodeEmailTaken, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeHolidayNotFound, model.ErrCodeUserNotFound:
		return http.StatusNotFound
	case model.ErrCodeImportFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
