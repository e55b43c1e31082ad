// Package importer は外部祝日プロバイダーからの一括インポート機能を提供する。
// プロバイダーAPIの呼び出しと、既存データとの重複を避ける冪等な照合処理を含む。
package importer

import (
	"context"
	"time"
)

// ProviderHoliday はプロバイダーから取得した祝日定義（日付と名前のペア）を表す。
type ProviderHoliday struct {
	Date time.Time
	Name string
}

// Provider は外部祝日データプロバイダーのインターフェース。
// stateが空文字列の場合は国全体（連邦・国民の祝日）のセットを返し、
// 州コードが指定された場合はその州に適用される祝日のセットを返す。
// 州セットには国全体の祝日も含まれる（照合側で除外される）。
type Provider interface {
	HolidaysFor(ctx context.Context, country, state string, year int) ([]ProviderHoliday, error)
}
