package httpapi

import (
	"context"
	"testing"
	"time"

	"tillchat/internal/domain"
	"tillchat/internal/store/memory"
)

func TestAuthTokenRoundTrip(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, memory.NewSeeded())

	resp, err := auth.Login(domain.LoginRequest{Username: "owner", Password: "owner123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Role != "owner" {
		t.Fatalf("expected role owner, got %s", resp.Role)
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if actor.Username != "owner" || actor.Role != "owner" {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestAuthRejectsGarbageToken(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, memory.NewSeeded())

	if _, err := auth.ParseToken("not-a-token"); err == nil {
		t.Fatalf("expected garbage token to be rejected")
	}
}

func TestAuthRejectsTokenFromOtherSecret(t *testing.T) {
	repo := memory.NewSeeded()
	issuer := NewAuthManager("secret-one", time.Hour, repo)
	verifier := NewAuthManager("secret-two", time.Hour, repo)

	resp, err := issuer.Login(domain.LoginRequest{Username: "owner", Password: "owner123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, err := verifier.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected cross-secret token to be rejected")
	}
}

func TestBootstrapUpgradesPlainTextPassword(t *testing.T) {
	repo := memory.New()
	if err := repo.CreateUser(context.Background(), domain.UserAccount{
		Username:  "legacy",
		Password:  "plaintext-pw",
		Role:      "assistant",
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}

	auth := NewAuthManager("test-secret-key", time.Hour, repo)
	if _, err := auth.Login(domain.LoginRequest{Username: "legacy", Password: "plaintext-pw"}); err != nil {
		t.Fatalf("Login after upgrade: %v", err)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(users) != 1 || !isPasswordHash(users[0].Password) {
		t.Fatalf("expected stored password to be upgraded to a hash, got %+v", users)
	}
}
