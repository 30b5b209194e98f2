package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
	"golang.org/x/crypto/bcrypt"
)

// AdminService encapsulates admin account use-cases.
type AdminService struct {
	repo       AdminRepository
	bcryptCost int
}

func NewAdminService(repo AdminRepository, bcryptCost int) *AdminService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = DefaultBcryptCost
	}
	return &AdminService{repo: repo, bcryptCost: bcryptCost}
}

// Register creates a new admin on behalf of the acting admin.
//
// The duplicate check is a read before the insert; two concurrent
// registrations of one email race between them. The unique index on
// admins.email turns the loser into ErrEmailTaken instead of a duplicate.
func (s *AdminService) Register(ctx context.Context, actor *types.Session, req types.RegisterRequest) (types.AdminProfile, error) {
	if actor == nil || actor.AdminID == "" {
		return types.AdminProfile{}, ErrUnauthorized
	}
	if err := validation.Struct(req); err != nil {
		return types.AdminProfile{}, err
	}

	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return types.AdminProfile{}, ErrEmailTaken
	} else if !errors.Is(err, store.ErrNotFound) {
		return types.AdminProfile{}, fmt.Errorf("check admin email: %w", err)
	}

	hashed, err := HashPassword(req.Password, s.bcryptCost)
	if err != nil {
		return types.AdminProfile{}, fmt.Errorf("hash password: %w", err)
	}

	createdBy := actor.AdminID
	admin, err := s.repo.Create(ctx, types.Admin{
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hashed),
		CreatedBy:    &createdBy,
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return types.AdminProfile{}, ErrEmailTaken
		}
		return types.AdminProfile{}, fmt.Errorf("create admin: %w", err)
	}

	return admin.Profile(), nil
}

// List returns all admins, oldest first.
func (s *AdminService) List(ctx context.Context) ([]types.Admin, error) {
	return s.repo.List(ctx)
}
