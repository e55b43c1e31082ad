package auth

import (
	"context"
	"strings"

	"github.com/hitoshi/holical/internal/model"
	"github.com/hitoshi/holical/internal/repository"
)

// Service はユーザー登録・ログイン・トークンからのユーザー解決を提供する。
type Service struct {
	userRepo repository.UserRepository
	issuer   *TokenIssuer
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(userRepo repository.UserRepository, issuer *TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		issuer:   issuer,
	}
}

// Register は新規ユーザーを登録する。
// メールアドレスが既に登録されている場合はEmailTakenエラーとなる。
func (s *Service) Register(ctx context.Context, email, password string) (*model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewValidationError("メールアドレスの形式が不正です")
	}
	if password == "" {
		return nil, model.NewValidationError("パスワードは必須です")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}

	return s.userRepo.Create(ctx, user)
}

// Login は認証情報を検証し、アクセストークンを発行する。
// ユーザーが存在しない場合とパスワード不一致は区別せず、
// 同じInvalidCredentialsエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user == nil || !user.IsActive || !VerifyPassword(password, user.PasswordHash) {
		return "", model.NewInvalidCredentialsError()
	}

	return s.issuer.Issue(user.Email)
}

// CurrentUser はアクセストークンを検証し、対応するユーザーを返す。
// トークンが無効・期限切れ・対応ユーザーなしの場合はUnauthorizedエラーとなる。
func (s *Service) CurrentUser(ctx context.Context, tokenString string) (*model.User, error) {
	email, err := s.issuer.Verify(tokenString)
	if err != nil {
		return nil, model.NewUnauthorizedError()
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.IsActive {
		return nil, model.NewUnauthorizedError()
	}

	return user, nil
}
