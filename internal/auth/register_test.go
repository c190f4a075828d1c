package auth

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianerp/vendorhub-backend/internal/users"
	"github.com/meridianerp/vendorhub-backend/pkg/config"
	"github.com/meridianerp/vendorhub-backend/pkg/db/models"
	pkgerrors "github.com/meridianerp/vendorhub-backend/pkg/errors"
	"github.com/meridianerp/vendorhub-backend/pkg/security"
)

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubRegisterUserRepo struct {
	byEmail   map[string]*models.User
	created   *models.User
	createErr error
}

func newStubRegisterUserRepo() *stubRegisterUserRepo {
	return &stubRegisterUserRepo{byEmail: map[string]*models.User{}}
}

func (s *stubRegisterUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		return user, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegisterUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[dto.Email] = user
	s.created = user
	return user, nil
}

func newRegisterService(t *testing.T, repo *stubRegisterUserRepo) RegisterService {
	t.Helper()
	svc, err := NewRegisterService(RegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new register service: %v", err)
	}
	return svc
}

func TestRegisterCreatesVendorUser(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc := newRegisterService(t, repo)

	dto, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: " Vera ",
		LastName:  "Vendor",
		Email:     " Vera@Example.com ",
		Password:  "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if dto.Email != "vera@example.com" {
		t.Fatalf("expected normalized email, got %q", dto.Email)
	}
	if len(dto.Roles) != 1 || dto.Roles[0] != "vendor" {
		t.Fatalf("expected vendor role, got %v", dto.Roles)
	}
	if repo.created.FirstName != "Vera" {
		t.Fatalf("expected trimmed first name, got %q", repo.created.FirstName)
	}

	valid, err := security.VerifyPassword("s3cret-pass", repo.created.PasswordHash)
	if err != nil || !valid {
		t.Fatalf("expected stored hash to verify, got %v %v", valid, err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := newStubRegisterUserRepo()
	repo.byEmail["vera@example.com"] = &models.User{ID: uuid.New(), Email: "vera@example.com"}
	svc := newRegisterService(t, repo)

	_, err := svc.Register(context.Background(), RegisterRequest{
		FirstName: "Vera",
		LastName:  "Vendor",
		Email:     "vera@example.com",
		Password:  "s3cret-pass",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newRegisterService(t, newStubRegisterUserRepo())

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{FirstName: "V", LastName: "V", Password: "x"}},
		{"blank names", RegisterRequest{Email: "v@example.com", Password: "x"}},
	}
	for _, tc := range cases {
		_, err := svc.Register(context.Background(), tc.req)
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: expected validation error, got %v", tc.name, err)
		}
	}
}

func TestAdminRegisterCreatesAdminUser(t *testing.T) {
	repo := newStubRegisterUserRepo()
	svc, err := NewAdminRegisterService(AdminRegisterServiceParams{
		TxRunner: stubTxRunner{},
		UserRepoFactory: func(tx *gorm.DB) registerUserRepository {
			return repo
		},
		PasswordConfig: config.PasswordConfig{},
	})
	if err != nil {
		t.Fatalf("new admin register service: %v", err)
	}

	dto, err := svc.Register(context.Background(), AdminRegisterRequest{
		FirstName: "Ada",
		LastName:  "Admin",
		Email:     "ada@example.com",
		Password:  "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if len(dto.Roles) != 1 || dto.Roles[0] != "admin" {
		t.Fatalf("expected admin role, got %v", dto.Roles)
	}
	if !repo.created.IsActive {
		t.Fatal("expected active admin user")
	}
}
