package main

import (
	"errors"
	"testing"
)

func TestTokenRoundTrip(t *testing.T) {
	a := NewAuth(nil, "test-secret")
	token, err := a.generateToken(42, "ace")
	if err != nil {
		t.Fatal(err)
	}
	id, username, err := a.ValidateToken(token)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if id != 42 || username != "ace" {
		t.Errorf("expected 42/ace, got %d/%s", id, username)
	}

	other := NewAuth(nil, "other-secret")
	if _, _, err := other.ValidateToken(token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
	if _, _, err := a.ValidateToken("garbage"); err == nil {
		t.Error("garbage token should be rejected")
	}
}

func TestGuestLogin(t *testing.T) {
	a := NewAuth(nil, "s")
	ident, err := a.Authenticate(LoginMsg{Username: "  Bob "}, "1.1.1.1")
	if err != nil {
		t.Fatal(err)
	}
	if ident.Username != "Bob" || ident.AccountID != 0 || ident.Token != "" {
		t.Errorf("unexpected guest identity %+v", ident)
	}
}

func TestPasswordLoginWithoutStore(t *testing.T) {
	a := NewAuth(nil, "s")
	if _, err := a.Authenticate(LoginMsg{Username: "ace", Password: "pw1234"}, "1.1.1.1"); !errors.Is(err, ErrAccountsOffline) {
		t.Errorf("expected ErrAccountsOffline, got %v", err)
	}
}

func TestClaimVerifyAndResume(t *testing.T) {
	db := openTestDB(t)
	a := NewAuth(db, "s")

	first, err := a.Authenticate(LoginMsg{Username: "ace", Password: "pw1234"}, "1.1.1.1")
	if err != nil {
		t.Fatalf("claim: %v", err)
	}
	if !first.Created || first.AccountID == 0 || first.Token == "" {
		t.Errorf("expected a new account with a token, got %+v", first)
	}

	again, err := a.Authenticate(LoginMsg{Username: "ace", Password: "pw1234"}, "1.1.1.1")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if again.Created || again.AccountID != first.AccountID {
		t.Errorf("expected the same account, got %+v", again)
	}

	if _, err := a.Authenticate(LoginMsg{Username: "ace", Password: "wrong"}, "1.1.1.1"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("expected ErrBadCredentials, got %v", err)
	}
	if _, err := a.Authenticate(LoginMsg{Username: "ace"}, "1.1.1.1"); !errors.Is(err, ErrNameClaimed) {
		t.Errorf("guest took a claimed name: %v", err)
	}

	resumed, err := a.Authenticate(LoginMsg{Token: first.Token}, "1.1.1.1")
	if err != nil {
		t.Fatalf("token login: %v", err)
	}
	if resumed.Username != "ace" || resumed.AccountID != first.AccountID {
		t.Errorf("unexpected resumed identity %+v", resumed)
	}
}

func TestRegisterValidation(t *testing.T) {
	db := openTestDB(t)
	a := NewAuth(db, "s")
	if _, err := a.Authenticate(LoginMsg{Username: "ace", Password: "pw"}, "1.1.1.1"); err == nil {
		t.Error("short password accepted")
	}
	if _, err := a.Authenticate(LoginMsg{Username: "a", Password: "pw1234"}, "1.1.1.1"); err == nil {
		t.Error("one-letter username accepted")
	}
}

func TestLoginRateLimit(t *testing.T) {
	a := NewAuth(nil, "s")
	for i := 0; i < maxLoginAttempts; i++ {
		if !a.checkRate("9.9.9.9") {
			t.Fatalf("attempt %d limited too early", i+1)
		}
	}
	if a.checkRate("9.9.9.9") {
		t.Error("attempt past the limit allowed")
	}
	if !a.checkRate("8.8.8.8") {
		t.Error("limit should be per IP")
	}
}

func TestSecretPersistsInStore(t *testing.T) {
	db := openTestDB(t)
	a1 := NewAuth(db, "")
	token, err := a1.generateToken(1, "ace")
	if err != nil {
		t.Fatal(err)
	}
	a2 := NewAuth(db, "")
	if _, _, err := a2.ValidateToken(token); err != nil {
		t.Errorf("second Auth should load the stored secret: %v", err)
	}
}
