package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/holical/internal/model"
)

// --- モック定義 ---

// mockUserRepo はrepository.UserRepositoryのモック実装。
type mockUserRepo struct {
	createFn      func(ctx context.Context, user *model.User) (*model.User, error)
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
	findByIDFn    func(ctx context.Context, id int64) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if m.createFn != nil {
		return m.createFn(ctx, user)
	}
	user.ID = 1
	return user, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	if m.findByEmailFn != nil {
		return m.findByEmailFn(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id int64) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func testIssuer() *TokenIssuer {
	return NewTokenIssuer("test-secret", 30*time.Minute)
}

func assertAPIErrorCode(t *testing.T, err error, wantCode string) {
	t.Helper()
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error should be APIError, got %T: %v", err, err)
	}
	if apiErr.Code != wantCode {
		t.Errorf("Code = %q, want %q", apiErr.Code, wantCode)
	}
}

// --- Register テスト ---

// TestService_Register_NormalizesEmail はメールアドレスが小文字化・トリムされ、
// パスワードがハッシュとして保存されることを検証する。
func TestService_Register_NormalizesEmail(t *testing.T) {
	var created *model.User
	repo := &mockUserRepo{
		createFn: func(ctx context.Context, user *model.User) (*model.User, error) {
			created = user
			user.ID = 1
			return user, nil
		},
	}
	svc := NewService(repo, testIssuer())

	user, err := svc.Register(context.Background(), "  Alice@Example.COM ", "s3cret")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "alice@example.com")
	}
	if created.PasswordHash == "" || created.PasswordHash == "s3cret" {
		t.Error("password should be stored as a hash")
	}
	if !created.IsActive {
		t.Error("new user should be active")
	}
}

// TestService_Register_InvalidInput は不正な入力がValidationエラーになることを検証する。
func TestService_Register_InvalidInput(t *testing.T) {
	svc := NewService(&mockUserRepo{}, testIssuer())

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"空のメール", "", "pw"},
		{"アットマーク無し", "not-an-email", "pw"},
		{"空のパスワード", "user@example.com", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tt.email, tt.password)
			if err == nil {
				t.Fatal("Register() should return error")
			}
			assertAPIErrorCode(t, err, model.ErrCodeValidation)
		})
	}
}

// --- Login テスト ---

// TestService_Login_Success は正しい認証情報でトークンが発行されることを検証する。
func TestService_Login_Success(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	repo := &mockUserRepo{
		findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
			return &model.User{ID: 1, Email: email, PasswordHash: hash, IsActive: true}, nil
		},
	}
	svc := NewService(repo, testIssuer())

	token, err := svc.Login(context.Background(), "user@example.com", "s3cret")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("token should not be empty")
	}

	// トークンからユーザーを解決できること
	user, err := svc.CurrentUser(context.Background(), token)
	if err != nil {
		t.Fatalf("CurrentUser() error = %v", err)
	}
	if user.Email != "user@example.com" {
		t.Errorf("Email = %q, want %q", user.Email, "user@example.com")
	}
}

// TestService_Login_IndistinguishableFailures はユーザー不存在・パスワード不一致・
// 無効化ユーザーのいずれも同じInvalidCredentialsエラーになることを検証する。
func TestService_Login_IndistinguishableFailures(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}

	tests := []struct {
		name string
		user *model.User
		pw   string
	}{
		{"ユーザー不存在", nil, "s3cret"},
		{"パスワード不一致", &model.User{ID: 1, Email: "user@example.com", PasswordHash: hash, IsActive: true}, "wrong"},
		{"無効化ユーザー", &model.User{ID: 1, Email: "user@example.com", PasswordHash: hash, IsActive: false}, "s3cret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &mockUserRepo{
				findByEmailFn: func(ctx context.Context, email string) (*model.User, error) {
					return tt.user, nil
				},
			}
			svc := NewService(repo, testIssuer())

			_, err := svc.Login(context.Background(), "user@example.com", tt.pw)
			if err == nil {
				t.Fatal("Login() should return error")
			}
			assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
		})
	}
}

// --- CurrentUser テスト ---

// TestService_CurrentUser_InvalidToken は無効なトークンがUnauthorizedになることを検証する。
func TestService_CurrentUser_InvalidToken(t *testing.T) {
	svc := NewService(&mockUserRepo{}, testIssuer())

	_, err := svc.CurrentUser(context.Background(), "garbage")
	if err == nil {
		t.Fatal("CurrentUser() should return error")
	}
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}

// TestService_CurrentUser_DeletedUser は有効なトークンでも対応ユーザーが
// 存在しなければUnauthorizedになることを検証する。
func TestService_CurrentUser_DeletedUser(t *testing.T) {
	issuer := testIssuer()
	svc := NewService(&mockUserRepo{}, issuer)

	token, err := issuer.Issue("ghost@example.com")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}

	_, err = svc.CurrentUser(context.Background(), token)
	if err == nil {
		t.Fatal("CurrentUser() should return error")
	}
	assertAPIErrorCode(t, err, model.ErrCodeUnauthorized)
}
