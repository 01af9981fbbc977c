package jwt

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	tok, err := Issue("secret", 7, TypeAccess, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	uid, err := Parse(tok, "secret", TypeAccess)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if uid != 7 {
		t.Fatalf("got uid=%d; want 7", uid)
	}
}

func TestParse_RejectsWrongType(t *testing.T) {
	tok, err := Issue("secret", 7, TypeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok, "secret", TypeAccess); err == nil {
		t.Fatal("refresh token accepted as access token")
	}
}

func TestParse_RejectsWrongSecret(t *testing.T) {
	tok, err := Issue("secret", 7, TypeAccess, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok, "other", TypeAccess); err == nil {
		t.Fatal("token accepted with wrong secret")
	}
}

func TestParse_RejectsExpired(t *testing.T) {
	tok, err := Issue("secret", 7, TypeAccess, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := Parse(tok, "secret", TypeAccess); err == nil {
		t.Fatal("expired token accepted")
	}
}
