// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, holiday, import, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeInvalidFilter      = "INVALID_FILTER"
	ErrCodeHolidayNotFound    = "HOLIDAY_NOT_FOUND"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeImportFailed       = "IMPORT_FAILED"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewValidationError は入力不正エラーを生成する。
func NewValidationError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  fmt.Sprintf("入力内容に誤りがあります: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewInvalidFilterError は無効なフィルタエラーを生成する。
func NewInvalidFilterError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidFilter,
		Message:  fmt.Sprintf("無効なフィルタです: %s", reason),
		Category: "validation",
		Action:   "フィルタ条件の形式を確認してください。日付は YYYY-MM-DD 形式で指定します。",
	}
}

// NewHolidayNotFoundError は祝日未検出エラーを生成する。
// 更新・削除対象がシステム祝日（is_custom=false）の場合もこのエラーとなる。
func NewHolidayNotFoundError(holidayID int64) *APIError {
	return &APIError{
		Code:     ErrCodeHolidayNotFound,
		Message:  fmt.Sprintf("指定された祝日が見つからないか、編集可能なカスタム祝日ではありません: %d", holidayID),
		Category: "holiday",
		Action:   "祝日IDを確認してください。インポートされたシステム祝日は編集できません。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自分が作成したカスタム祝日のみ編集・削除できます。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "有効なアクセストークンを Authorization ヘッダーに指定してください。",
	}
}

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度ログインしてください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError(email string) *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  fmt.Sprintf("このメールアドレスは既に登録されています: %s", email),
		Category: "validation",
		Action:   "別のメールアドレスで登録するか、ログインしてください。",
	}
}

// NewImportFailedError は外部祝日プロバイダー起因のインポート失敗エラーを生成する。
// インポートは呼び出し単位でアトミックであり、部分的な書き込みは発生しない。
func NewImportFailedError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeImportFailed,
		Message:  fmt.Sprintf("祝日データのインポートに失敗しました: %s", reason),
		Category: "import",
		Action:   "しばらく待ってから再度お試しください。再実行しても重複は発生しません。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}
