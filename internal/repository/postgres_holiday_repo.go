package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// PostgresHolidayRepo はPostgreSQLを使用した祝日リポジトリ。
type PostgresHolidayRepo struct {
	db *sql.DB
}

// NewPostgresHolidayRepo はPostgresHolidayRepoを生成する。
func NewPostgresHolidayRepo(db *sql.DB) *PostgresHolidayRepo {
	return &PostgresHolidayRepo{db: db}
}

// holidaysLockKey は holidays テーブル全体のアドバイザリロックキー。
// インポートは共有ロック、ClearAllは排他ロックを取り、両者を相互排他する。
const holidaysLockKey int64 = 0x686f6c69

// holidayColumns はSELECT句で使用する列リスト。
const holidayColumns = `id, name, date, country, state, federal, notes, is_custom, owner_id, created_at, updated_at`

// scanHoliday は1行分の祝日をスキャンする。
func scanHoliday(row interface{ Scan(...interface{}) error }) (*model.Holiday, error) {
	h := &model.Holiday{}
	var state, notes sql.NullString
	var ownerID sql.NullInt64

	err := row.Scan(
		&h.ID, &h.Name, &h.Date, &h.Country, &state, &h.Federal,
		&notes, &h.IsCustom, &ownerID, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.State = strings.TrimSpace(nullStringValue(state))
	h.Notes = nullStringValue(notes)
	if ownerID.Valid {
		h.OwnerID = &ownerID.Int64
	}

	return h, nil
}

// validateHoliday は祝日レコードのストア契約上のバリデーションを行う。
func validateHoliday(h *model.Holiday) error {
	if strings.TrimSpace(h.Name) == "" {
		return model.NewValidationError("名前は必須です")
	}
	if len(h.Country) != 2 {
		return model.NewValidationError("国コードは2文字で指定してください")
	}
	if h.State != "" && len(h.State) != 2 {
		return model.NewValidationError("州コードは2文字で指定してください")
	}
	return nil
}

// Create は祝日を作成し、採番されたIDを設定して返す。
// 名前が空、または国・州コードが2文字でない場合はValidationエラーを返す。
func (r *PostgresHolidayRepo) Create(ctx context.Context, holiday *model.Holiday) (*model.Holiday, error) {
	if err := validateHoliday(holiday); err != nil {
		return nil, err
	}

	var ownerID sql.NullInt64
	if holiday.OwnerID != nil {
		ownerID = sql.NullInt64{Int64: *holiday.OwnerID, Valid: true}
	}

	err := r.db.QueryRowContext(ctx,
		`INSERT INTO holidays (name, date, country, state, federal, notes, is_custom, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		holiday.Name, holiday.Date, holiday.Country, nullString(holiday.State),
		holiday.Federal, nullString(holiday.Notes), holiday.IsCustom, ownerID,
	).Scan(&holiday.ID, &holiday.CreatedAt, &holiday.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("祝日の作成に失敗しました: %w", err)
	}

	return holiday, nil
}

// FindByID は指定IDの祝日を取得する。見つからない場合はnilを返す。
func (r *PostgresHolidayRepo) FindByID(ctx context.Context, id int64) (*model.Holiday, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+holidayColumns+` FROM holidays WHERE id = $1`,
		id,
	)

	h, err := scanHoliday(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("祝日の取得に失敗しました: %w", err)
	}

	return h, nil
}

// List はフィルタ条件に一致する祝日一覧を返す。
// クエリプランの構築はbuildHolidayListQueryが行う。
func (r *PostgresHolidayRepo) List(ctx context.Context, filter model.HolidayFilter) ([]*model.Holiday, error) {
	query, args := buildHolidayListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("祝日一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	var holidays []*model.Holiday
	for rows.Next() {
		h, err := scanHoliday(rows)
		if err != nil {
			return nil, fmt.Errorf("祝日行の読み取りに失敗しました: %w", err)
		}
		holidays = append(holidays, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("祝日一覧の走査に失敗しました: %w", err)
	}

	return holidays, nil
}

// FindImported はインポート一意性タプル (date, name, country, state) で
// 非カスタム祝日を検索する。stateが空文字列の場合はNULL（国全体）に一致する。
func (r *PostgresHolidayRepo) FindImported(ctx context.Context, date time.Time, name, country, state string) (*model.Holiday, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+holidayColumns+` FROM holidays
		 WHERE is_custom = FALSE AND date = $1 AND name = $2 AND country = $3
		   AND COALESCE(state, '') = $4`,
		date, name, country, state,
	)

	h, err := scanHoliday(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("インポート済み祝日の検索に失敗しました: %w", err)
	}

	return h, nil
}

// Update は指定IDのカスタム祝日を部分更新する。nilフィールドは変更しない。
// 行が存在しない、またはis_custom=falseの場合はnilを返す。
func (r *PostgresHolidayRepo) Update(ctx context.Context, id int64, update model.HolidayUpdate) (*model.Holiday, error) {
	setClauses := []string{"updated_at = now()"}
	args := []interface{}{id}
	argIndex := 2

	appendSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, value)
		argIndex++
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Date != nil {
		appendSet("date", *update.Date)
	}
	if update.Country != nil {
		appendSet("country", *update.Country)
	}
	if update.State != nil {
		appendSet("state", nullString(*update.State))
	}
	if update.Federal != nil {
		appendSet("federal", *update.Federal)
	}
	if update.Notes != nil {
		appendSet("notes", nullString(*update.Notes))
	}

	// システム祝日（is_custom=FALSE）はWHERE句で除外され、存在しないのと同じ扱いになる
	query := fmt.Sprintf(
		`UPDATE holidays SET %s WHERE id = $1 AND is_custom = TRUE RETURNING %s`,
		strings.Join(setClauses, ", "), holidayColumns,
	)

	row := r.db.QueryRowContext(ctx, query, args...)
	h, err := scanHoliday(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("祝日の更新に失敗しました: %w", err)
	}

	return h, nil
}

// Delete は指定IDのカスタム祝日を削除し、削除した行を返す。
// 行が存在しない、またはis_custom=falseの場合はnilを返す。
func (r *PostgresHolidayRepo) Delete(ctx context.Context, id int64) (*model.Holiday, error) {
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM holidays WHERE id = $1 AND is_custom = TRUE RETURNING `+holidayColumns,
		id,
	)

	h, err := scanHoliday(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("祝日の削除に失敗しました: %w", err)
	}

	return h, nil
}

// InsertImportedBatch は非カスタム祝日を1トランザクションで一括挿入する。
// 各行は (date, name, country, state) タプルで存在確認され、既存の行はスキップされる。
// scopeKeyのアドバイザリロックで同一スコープの同時インポートを直列化し、
// テーブル全体の共有ロックでClearAllと相互排他する。
func (r *PostgresHolidayRepo) InsertImportedBatch(ctx context.Context, scopeKey int64, holidays []*model.Holiday) (int, error) {
	if len(holidays) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock_shared($1)`, holidaysLockKey); err != nil {
		return 0, fmt.Errorf("テーブル共有ロックの取得に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, scopeKey); err != nil {
		return 0, fmt.Errorf("インポートスコープロックの取得に失敗しました: %w", err)
	}

	inserted := 0
	for _, h := range holidays {
		result, err := tx.ExecContext(ctx,
			`INSERT INTO holidays (name, date, country, state, federal, notes, is_custom)
			 SELECT $1, $2, $3, $4, $5, $6, FALSE
			 WHERE NOT EXISTS (
			     SELECT 1 FROM holidays
			     WHERE is_custom = FALSE AND date = $2 AND name = $1 AND country = $3
			       AND COALESCE(state, '') = COALESCE($4, '')
			 )`,
			h.Name, h.Date, h.Country, nullString(h.State), h.Federal, nullString(h.Notes),
		)
		if err != nil {
			return 0, fmt.Errorf("祝日の一括挿入に失敗しました: %w", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("挿入行数の取得に失敗しました: %w", err)
		}
		inserted += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return inserted, nil
}

// ClearAll は全祝日を削除し、IDシーケンスを1にリセットする。
// テーブル全体の排他アドバイザリロックにより、進行中のインポートと相互排他する。
func (r *PostgresHolidayRepo) ClearAll(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, holidaysLockKey); err != nil {
		return fmt.Errorf("テーブル排他ロックの取得に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM holidays`); err != nil {
		return fmt.Errorf("祝日テーブルの全件削除に失敗しました: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `ALTER SEQUENCE holidays_id_seq RESTART WITH 1`); err != nil {
		return fmt.Errorf("IDシーケンスのリセットに失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}

	return nil
}

// nullString は空文字列をNULLに変換する。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列値を取り出す。NULLは空文字列になる。
func nullStringValue(ns sql.NullString) string {
	if !ns.Valid {
		return ""
	}
	return ns.String
}

// compile-time interface check
var _ HolidayRepository = (*PostgresHolidayRepo)(nil)
