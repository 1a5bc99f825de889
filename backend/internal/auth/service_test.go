package auth

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"traintrack/backend/internal/shared"
)

func testService() *Service {
	return &Service{
		jwtSecret:  []byte("test-secret"),
		expiration: time.Hour,
		bcryptCost: 4,
	}
}

func TestTokenRoundTrip(t *testing.T) {
	s := testService()
	user := &shared.User{
		ID:       primitive.NewObjectID(),
		AuthorID: "a1",
		Email:    "trainee@example.com",
		Role:     shared.RoleTrainee,
	}

	token, err := s.issueToken(user)
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	claims, err := s.ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken failed: %v", err)
	}
	if claims.UserID != user.ID.Hex() {
		t.Errorf("UserID = %q, want %q", claims.UserID, user.ID.Hex())
	}
	if claims.AuthorID != "a1" || claims.Email != user.Email || claims.Role != shared.RoleTrainee {
		t.Errorf("claims mismatch: %+v", claims)
	}
}

func TestValidateTokenRejectsTampered(t *testing.T) {
	s := testService()
	token, err := s.issueToken(&shared.User{ID: primitive.NewObjectID(), Role: shared.RoleTrainee})
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := s.ValidateToken(tampered); err == nil {
		t.Error("expected tampered token to be rejected")
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	s := testService()
	token, err := s.issueToken(&shared.User{ID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}

	other := testService()
	other.jwtSecret = []byte("different-secret")
	if _, err := other.ValidateToken(token); err == nil {
		t.Error("expected token signed with another secret to be rejected")
	}
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := testService()
	s.expiration = -time.Minute

	token, err := s.issueToken(&shared.User{ID: primitive.NewObjectID()})
	if err != nil {
		t.Fatalf("issueToken failed: %v", err)
	}
	if _, err := s.ValidateToken(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := testService()
	for _, tok := range []string{"", "garbage", strings.Repeat("a.", 50)} {
		if _, err := s.ValidateToken(tok); err == nil {
			t.Errorf("expected %q to be rejected", tok)
		}
	}
}
