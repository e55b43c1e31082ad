// Package model はドメインモデルを定義する。
package model

import "time"

// MaxListLimit は一覧取得1回あたりの最大件数。無制限スキャンを防ぐ。
const MaxListLimit = 200

// DefaultListLimit は一覧取得のデフォルト件数。
const DefaultListLimit = 100

// HolidayFilter は祝日一覧のクエリプラン（述語・ソート・ページネーション）を表す。
// 有効な述語はすべてANDで合成される。ゼロ値のフィールドは述語を生成しない。
type HolidayFilter struct {
	Name     string   // 名前の部分一致（大文字小文字を区別しない）
	Country  string   // 完全一致
	State    string   // 完全一致
	States   []string // いずれかに一致
	Federal  *bool
	IsCustom *bool

	// 日付範囲（両端を含む）。Year/Monthとは独立に評価され、併用可能。
	StartDate *time.Time
	EndDate   *time.Time
	Year      int // 0 = 指定なし
	Month     int // 0 = 指定なし

	// ソートキー。"-" プレフィックスは降順。未知のフィールド名は無視される。
	// 空の場合は id 昇順。
	OrderBy []string

	Offset int
	Limit  int
}

// EffectiveLimit はクランプ済みの取得件数を返す。
// 0以下はデフォルト値、MaxListLimit超は上限値に丸める。
func (f HolidayFilter) EffectiveLimit() int {
	if f.Limit <= 0 {
		return DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		return MaxListLimit
	}
	return f.Limit
}
