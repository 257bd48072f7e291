package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlearn/lms-backend/internal/data/repos/accounts"
	"github.com/lumenlearn/lms-backend/internal/data/repos/testutil"
	"github.com/lumenlearn/lms-backend/internal/domain"
	"github.com/lumenlearn/lms-backend/internal/services"
)

func newAuthService(t *testing.T) (services.AuthService, context.Context) {
	t.Helper()
	tx := testutil.Tx(t, testutil.DB(t))
	log := testutil.Logger(t)
	repo := accounts.NewStudentRepo(tx, log)
	svc := services.NewAuthService(tx, log, repo, "test-secret", time.Hour)
	return svc, context.Background()
}

func TestRegisterAndLogin(t *testing.T) {
	svc, ctx := newAuthService(t)
	email := uuid.NewString() + "@test.dev"

	student, err := svc.Register(ctx, &domain.Student{
		Email:     "  " + email + "  ",
		Password:  "hunter22",
		FirstName: "Ada",
		LastName:  "Lovelace",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if student.Email != email {
		t.Fatalf("email not normalized: %s", student.Email)
	}
	if student.Password == "hunter22" {
		t.Fatal("password stored in plaintext")
	}

	token, err := svc.Login(ctx, email, "hunter22")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	id, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if id != student.ID {
		t.Fatalf("token subject mismatch: %s vs %s", id, student.ID)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, ctx := newAuthService(t)
	email := uuid.NewString() + "@test.dev"

	seed := &domain.Student{Email: email, Password: "hunter22", FirstName: "A", LastName: "B"}
	if _, err := svc.Register(ctx, seed); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, &domain.Student{Email: email, Password: "other", FirstName: "C", LastName: "D"})
	if !domain.IsKind(err, domain.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, ctx := newAuthService(t)

	cases := []*domain.Student{
		nil,
		{Password: "x", FirstName: "A", LastName: "B"},
		{Email: "a@b.c", FirstName: "A", LastName: "B"},
		{Email: "a@b.c", Password: "x", LastName: "B"},
	}
	for i, tc := range cases {
		if _, err := svc.Register(ctx, tc); !domain.IsKind(err, domain.KindValidation) {
			t.Fatalf("case %d: expected validation, got %v", i, err)
		}
	}
}

func TestLoginBadCredentials(t *testing.T) {
	svc, ctx := newAuthService(t)
	email := uuid.NewString() + "@test.dev"

	if _, err := svc.Register(ctx, &domain.Student{Email: email, Password: "hunter22", FirstName: "A", LastName: "B"}); err != nil {
		t.Fatalf("register: %v", err)
	}

	// Both failure modes answer identically so login does not disclose
	// which accounts exist.
	_, wrongPass := svc.Login(ctx, email, "wrong")
	if !domain.IsKind(wrongPass, domain.KindValidation) {
		t.Fatalf("expected validation for wrong password, got %v", wrongPass)
	}
	_, unknownEmail := svc.Login(ctx, "nobody@test.dev", "whatever")
	if !domain.IsKind(unknownEmail, domain.KindValidation) {
		t.Fatalf("expected validation for unknown email, got %v", unknownEmail)
	}
	if wrongPass.Error() != unknownEmail.Error() {
		t.Fatalf("failure messages differ: %q vs %q", wrongPass, unknownEmail)
	}
}

func TestParseTokenRejectsGarbage(t *testing.T) {
	svc, _ := newAuthService(t)

	if _, err := svc.ParseToken("not-a-token"); !domain.IsKind(err, domain.KindValidation) {
		t.Fatalf("expected validation, got %v", err)
	}
}
