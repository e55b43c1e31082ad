// Package model はドメインモデルを定義する。
package model

import "time"

// DateFormat は祝日データの日付表現（時刻成分なし）のフォーマット。
const DateFormat = "2006-01-02"

// Holiday はカレンダー上の祝日エントリを表す。
// インポート由来（is_custom=false、owner なし）とユーザー作成（is_custom=true、owner あり）の
// 2系統があり、インポート由来の行は (date, name, country, state) のタプルで一意となる。
type Holiday struct {
	ID        int64
	Name      string
	Date      time.Time // 日付のみ。時刻成分は常にゼロ値。
	Country   string    // ISO 3166-1 alpha-2
	State     string    // ISO 3166-2 の州コード。空文字列 = 国全体（DB上はNULL）。
	Federal   bool
	Notes     string
	IsCustom  bool
	OwnerID   *int64 // is_custom=true の場合のみ設定される
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HolidayUpdate は祝日の部分更新フィールドを表す。
// nilフィールドは変更しない。
type HolidayUpdate struct {
	Name    *string
	Date    *time.Time
	Country *string
	State   *string
	Federal *bool
	Notes   *string
}
