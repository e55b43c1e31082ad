package repository

import (
	"testing"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// PostgresUserRepoはUserRepositoryインターフェースを満たすことを検証
func TestPostgresUserRepo_ImplementsInterface(t *testing.T) {
	var _ UserRepository = (*PostgresUserRepo)(nil)
}

// PostgresHolidayRepoはHolidayRepositoryインターフェースを満たすことを検証
func TestPostgresHolidayRepo_ImplementsInterface(t *testing.T) {
	var _ HolidayRepository = (*PostgresHolidayRepo)(nil)
}

// NewPostgresUserRepoが正しく初期化されることを検証
func TestNewPostgresUserRepo_Initializes(t *testing.T) {
	repo := NewPostgresUserRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// NewPostgresHolidayRepoが正しく初期化されることを検証
func TestNewPostgresHolidayRepo_Initializes(t *testing.T) {
	repo := NewPostgresHolidayRepo(nil)
	if repo == nil {
		t.Fatal("expected non-nil repo")
	}
}

// ユニットテスト: validateHolidayの検証ロジック（DB接続なし）
func TestValidateHoliday(t *testing.T) {
	valid := func() *model.Holiday {
		return &model.Holiday{
			Name:    "Founders Day",
			Date:    time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Country: "US",
			State:   "TX",
		}
	}

	if err := validateHoliday(valid()); err != nil {
		t.Errorf("valid holiday should pass: %v", err)
	}

	h := valid()
	h.State = ""
	if err := validateHoliday(h); err != nil {
		t.Errorf("empty state (national) should pass: %v", err)
	}

	h = valid()
	h.Name = "   "
	if err := validateHoliday(h); err == nil {
		t.Error("blank name should fail")
	}

	h = valid()
	h.Country = "USA"
	if err := validateHoliday(h); err == nil {
		t.Error("3-letter country code should fail")
	}

	h = valid()
	h.State = "TEX"
	if err := validateHoliday(h); err == nil {
		t.Error("3-letter state code should fail")
	}
}

// ユニットテスト: nullStringの空文字列とNULLの対応
func TestNullString(t *testing.T) {
	ns := nullString("")
	if ns.Valid {
		t.Error("empty string should map to NULL")
	}

	ns = nullString("TX")
	if !ns.Valid || ns.String != "TX" {
		t.Errorf("nullString(TX) = %+v", ns)
	}

	if nullStringValue(ns) != "TX" {
		t.Errorf("nullStringValue = %q, want TX", nullStringValue(ns))
	}
}
