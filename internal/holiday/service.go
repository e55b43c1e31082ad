package holiday

import (
	"context"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/hitoshi/holical/internal/model"
	"github.com/hitoshi/holical/internal/repository"
)

// Service は祝日カタログのCRUDと所有権検証を提供する。
// ストア層のカスタム限定ゲート（システム祝日は更新・削除に対して不可視）の上に、
// 所有者比較によるForbidden判定を重ねる。
type Service struct {
	repo       repository.HolidayRepository
	adminEmail string
	sanitizer  *bluemonday.Policy
}

// NewService はServiceの新しいインスタンスを生成する。
// adminEmailはClearAllを許可する管理者のメールアドレス。
func NewService(repo repository.HolidayRepository, adminEmail string) *Service {
	return &Service{
		repo:       repo,
		adminEmail: adminEmail,
		// 名前・メモはプレーンテキストのみ許可し、HTMLはすべて除去する
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// CreateInput はカスタム祝日の作成入力。
type CreateInput struct {
	Name    string
	Date    time.Time
	Country string
	State   string
	Federal bool
	Notes   string
}

// Create は呼び出しユーザーを所有者とするカスタム祝日を作成する。
// 名前・メモはサニタイズされ、国・州コードは大文字に正規化される。
func (s *Service) Create(ctx context.Context, ownerID int64, input CreateInput) (*model.Holiday, error) {
	holiday := &model.Holiday{
		Name:     strings.TrimSpace(s.sanitizer.Sanitize(input.Name)),
		Date:     input.Date,
		Country:  strings.ToUpper(input.Country),
		State:    strings.ToUpper(input.State),
		Federal:  input.Federal,
		Notes:    strings.TrimSpace(s.sanitizer.Sanitize(input.Notes)),
		IsCustom: true,
		OwnerID:  &ownerID,
	}

	return s.repo.Create(ctx, holiday)
}

// Get は指定IDの祝日を返す。見つからない場合はHolidayNotFoundエラーを返す。
func (s *Service) Get(ctx context.Context, id int64) (*model.Holiday, error) {
	holiday, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if holiday == nil {
		return nil, model.NewHolidayNotFoundError(id)
	}
	return holiday, nil
}

// List はフィルタ条件に一致する祝日一覧を返す。結果が空でもエラーにはならない。
func (s *Service) List(ctx context.Context, filter model.HolidayFilter) ([]*model.Holiday, error) {
	return s.repo.List(ctx, filter)
}

// Update は呼び出しユーザーが所有するカスタム祝日を部分更新する。
// 対象が存在しない・システム祝日の場合はHolidayNotFound、
// 所有者が異なる場合はForbiddenとなる。所有権の判定は更新の適用より先に行う。
func (s *Service) Update(ctx context.Context, callerID, id int64, update model.HolidayUpdate) (*model.Holiday, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil || !existing.IsCustom {
		return nil, model.NewHolidayNotFoundError(id)
	}
	if existing.OwnerID == nil || *existing.OwnerID != callerID {
		return nil, model.NewForbiddenError()
	}

	if err := s.normalizeUpdate(&update); err != nil {
		return nil, err
	}

	updated, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		// 所有権確認と更新の間に削除された場合
		return nil, model.NewHolidayNotFoundError(id)
	}

	return updated, nil
}

// Delete は呼び出しユーザーが所有するカスタム祝日を削除する。
func (s *Service) Delete(ctx context.Context, callerID, id int64) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if existing == nil || !existing.IsCustom {
		return model.NewHolidayNotFoundError(id)
	}
	if existing.OwnerID == nil || *existing.OwnerID != callerID {
		return model.NewForbiddenError()
	}

	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if deleted == nil {
		return model.NewHolidayNotFoundError(id)
	}

	return nil
}

// ClearAll は全祝日の削除とIDシーケンスのリセットを行う管理者専用操作。
// 呼び出しユーザーのメールアドレスが設定済み管理者と一致しない場合はForbiddenとなる。
func (s *Service) ClearAll(ctx context.Context, callerEmail string) error {
	if callerEmail != s.adminEmail {
		return model.NewForbiddenError()
	}
	return s.repo.ClearAll(ctx)
}

// normalizeUpdate は更新フィールドのサニタイズ・正規化・検証を行う。
func (s *Service) normalizeUpdate(update *model.HolidayUpdate) error {
	if update.Name != nil {
		name := strings.TrimSpace(s.sanitizer.Sanitize(*update.Name))
		if name == "" {
			return model.NewValidationError("名前は必須です")
		}
		update.Name = &name
	}
	if update.Country != nil {
		country := strings.ToUpper(*update.Country)
		if len(country) != 2 {
			return model.NewValidationError("国コードは2文字で指定してください")
		}
		update.Country = &country
	}
	if update.State != nil {
		state := strings.ToUpper(*update.State)
		if state != "" && len(state) != 2 {
			return model.NewValidationError("州コードは2文字で指定してください")
		}
		update.State = &state
	}
	if update.Notes != nil {
		notes := strings.TrimSpace(s.sanitizer.Sanitize(*update.Notes))
		update.Notes = &notes
	}
	return nil
}
