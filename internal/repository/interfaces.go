// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// Create はユーザーを作成し、採番されたIDを設定して返す。
	// メールアドレスが重複している場合はEmailTakenエラーを返す。
	Create(ctx context.Context, user *model.User) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.User, error)
}

// HolidayRepository は祝日データの永続化インターフェース。
// 更新・削除はis_custom=trueの行に対してのみ作用し、システム祝日に対しては
// 行が存在しないのと同じ振る舞い（nil返却）をする。所有者の検証は上位層が行う。
type HolidayRepository interface {
	// Create は祝日を作成し、採番されたIDを設定して返す。
	// 名前が空、または国・州コードが2文字でない場合はValidationエラーを返す。
	Create(ctx context.Context, holiday *model.Holiday) (*model.Holiday, error)

	// FindByID は指定IDの祝日を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id int64) (*model.Holiday, error)

	// List はフィルタ条件に一致する祝日一覧を返す。副作用のない純粋な読み取り。
	// 取得件数はMaxListLimitで上限が丸められる。
	List(ctx context.Context, filter model.HolidayFilter) ([]*model.Holiday, error)

	// FindImported はインポート一意性タプル (date, name, country, state) で
	// 非カスタム祝日を検索する。stateが空文字列の場合はNULL（国全体）に一致する。
	// 見つからない場合はnilを返す。
	FindImported(ctx context.Context, date time.Time, name, country, state string) (*model.Holiday, error)

	// Update は指定IDのカスタム祝日を部分更新する。nilフィールドは変更しない。
	// 行が存在しない、またはis_custom=falseの場合はnilを返す。
	Update(ctx context.Context, id int64, update model.HolidayUpdate) (*model.Holiday, error)

	// Delete は指定IDのカスタム祝日を削除し、削除した行を返す。
	// 行が存在しない、またはis_custom=falseの場合はnilを返す。
	Delete(ctx context.Context, id int64) (*model.Holiday, error)

	// InsertImportedBatch は非カスタム祝日を1トランザクションで一括挿入する。
	// 各行は (date, name, country, state) タプルで存在確認され、既存の行はスキップされる。
	// scopeKeyのアドバイザリロックで同一スコープの同時インポートを直列化する。
	// 戻り値は新規挿入された行数（完全に冪等な再実行では0）。
	InsertImportedBatch(ctx context.Context, scopeKey int64, holidays []*model.Holiday) (int, error)

	// ClearAll は全祝日を削除し、IDシーケンスを1にリセットする。不可逆な管理用操作。
	// テーブル全体の排他アドバイザリロックを取り、進行中のインポートと相互排他する。
	ClearAll(ctx context.Context) error
}
