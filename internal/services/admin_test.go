package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/soliton-oj/adminserver/internal/store"
	"github.com/soliton-oj/adminserver/internal/validation"
	"github.com/soliton-oj/adminserver/types"
	"golang.org/x/crypto/bcrypt"
)

var actor = &types.Session{AdminID: "admin-root", Email: "admin@soliton.com", Name: "Admin"}

func TestRegister(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, bcrypt.MinCost)

	profile, err := svc.Register(context.Background(), actor, types.RegisterRequest{
		Name:     "Grace",
		Email:    "grace@soliton.com",
		Password: "correcthorse",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if profile.ID == "" || profile.Email != "grace@soliton.com" || profile.Name != "Grace" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	body, err := json.Marshal(profile)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(body)), "password") {
		t.Fatalf("profile leaks password material: %s", body)
	}

	stored, err := repo.GetByEmail(context.Background(), "grace@soliton.com")
	if err != nil {
		t.Fatalf("get stored admin: %v", err)
	}
	if stored.CreatedBy == nil || *stored.CreatedBy != actor.AdminID {
		t.Fatalf("expected createdBy %q, got %v", actor.AdminID, stored.CreatedBy)
	}
	if stored.PasswordHash == "correcthorse" {
		t.Fatal("password stored in plain text")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("correcthorse")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
}

func TestRegisterPasswordLength(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  string
	}{
		{name: "minimum", password: strings.Repeat("p", 8)},
		{name: "beyond bcrypt input", password: strings.Repeat("a", 100)},
		{name: "multibyte beyond bcrypt input", password: strings.Repeat("é", 50)},
		{name: "maximum", password: strings.Repeat("p", 128)},
		{name: "too short", password: strings.Repeat("p", 7), wantErr: "Password must be at least 8 characters"},
		{name: "too long", password: strings.Repeat("p", 129), wantErr: "Password must be 128 characters or less"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &fakeAdminRepo{}
			admins := NewAdminService(repo, bcrypt.MinCost)
			auth := NewAuthService(repo, testSecret, 0, bcrypt.MinCost)

			_, err := admins.Register(context.Background(), actor, types.RegisterRequest{
				Name:     "Grace",
				Email:    "grace@soliton.com",
				Password: tt.password,
			})
			if tt.wantErr != "" {
				verr, ok := validation.AsError(err)
				if !ok || len(verr.Fields) != 1 || verr.Fields[0].Field != "password" || verr.Fields[0].Message != tt.wantErr {
					t.Fatalf("expected password error %q, got %v", tt.wantErr, err)
				}
				if len(repo.admins) != 0 {
					t.Fatal("no admin should be stored")
				}
				return
			}
			if err != nil {
				t.Fatalf("register: %v", err)
			}

			session, _, err := auth.Login(context.Background(), types.LoginRequest{Email: "grace@soliton.com", Password: tt.password})
			if err != nil {
				t.Fatalf("login with registered password: %v", err)
			}
			if session.Email != "grace@soliton.com" {
				t.Fatalf("unexpected session: %+v", session)
			}
		})
	}
}

func TestRegisterRequiresSession(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, bcrypt.MinCost)

	for _, s := range []*types.Session{nil, {}} {
		_, err := svc.Register(context.Background(), s, types.RegisterRequest{
			Name:     "Grace",
			Email:    "grace@soliton.com",
			Password: "correcthorse",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
	}
	if len(repo.admins) != 0 {
		t.Fatalf("no admin should be created, got %d", len(repo.admins))
	}
}

func TestRegisterValidation(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), actor, types.RegisterRequest{Email: "bad", Password: "short"})
	verr, ok := validation.AsError(err)
	if !ok {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(verr.Fields) != 3 {
		t.Fatalf("expected name, email and password errors, got %+v", verr.Fields)
	}
	if len(repo.admins) != 0 {
		t.Fatal("no admin should be created")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, bcrypt.MinCost)
	req := types.RegisterRequest{Name: "Grace", Email: "grace@soliton.com", Password: "correcthorse"}

	if _, err := svc.Register(context.Background(), actor, req); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), actor, req); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
	if len(repo.admins) != 1 {
		t.Fatalf("expected exactly one admin, got %d", len(repo.admins))
	}
}

func TestRegisterInsertConflict(t *testing.T) {
	repo := &fakeAdminRepo{createErr: store.ErrConflict}
	svc := NewAdminService(repo, bcrypt.MinCost)

	_, err := svc.Register(context.Background(), actor, types.RegisterRequest{Name: "Grace", Email: "grace@soliton.com", Password: "correcthorse"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestListAdminsOldestFirst(t *testing.T) {
	repo := &fakeAdminRepo{}
	svc := NewAdminService(repo, bcrypt.MinCost)

	for _, email := range []string{"a@soliton.com", "b@soliton.com", "c@soliton.com"} {
		if _, err := svc.Register(context.Background(), actor, types.RegisterRequest{Name: "N", Email: email, Password: "correcthorse"}); err != nil {
			t.Fatalf("register %s: %v", email, err)
		}
	}

	admins, err := svc.List(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(admins) != 3 || admins[0].Email != "a@soliton.com" || admins[2].Email != "c@soliton.com" {
		t.Fatalf("unexpected order: %+v", admins)
	}
}
