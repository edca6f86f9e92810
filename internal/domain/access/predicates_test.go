package access

import (
	"errors"
	"testing"

	"geckohub/internal/ports/auth"
)

func ptr(v int64) *int64 { return &v }

func TestCanList(t *testing.T) {
	owner := auth.Claims{UserID: 1}
	other := auth.Claims{UserID: 2}
	admin := auth.Claims{UserID: 3, IsAdmin: true}

	cases := []struct {
		name   string
		caller auth.Claims
		owner  *int64
		want   bool
	}{
		{"owner", owner, ptr(1), true},
		{"other user", other, ptr(1), false},
		{"admin", admin, ptr(1), true},
		{"anonymous", auth.Anonymous, ptr(1), false},
		{"legacy unowned, user", owner, nil, false},
		{"legacy unowned, admin", admin, nil, true},
	}
	for _, tc := range cases {
		if got := CanList(tc.caller, tc.owner); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
		if got := CanMutate(tc.caller, tc.owner); got != tc.want {
			t.Fatalf("%s (mutate): expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestRequireMutate_ErrorKinds(t *testing.T) {
	if err := RequireMutate(auth.Anonymous, ptr(1)); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := RequireMutate(auth.Claims{UserID: 2}, ptr(1)); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := RequireMutate(auth.Claims{UserID: 1}, ptr(1)); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}

func TestValidationError(t *testing.T) {
	err := Invalid("email", "required")
	ve, ok := AsValidation(err)
	if !ok || ve.Field != "email" {
		t.Fatalf("expected validation error on email, got %#v", err)
	}
	if err.Error() != "email: required" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
