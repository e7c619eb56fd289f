package utils

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestTokenRoundTrip(t *testing.T) {
	SetSecret("test-secret")

	userID := primitive.NewObjectID()
	roles := []string{"quality_engineer", "quality_manager"}

	token, err := GenerateToken(userID, roles)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims, err := ValidateToken(token)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if claims.UserID != userID.Hex() {
		t.Errorf("user id = %s, want %s", claims.UserID, userID.Hex())
	}
	if len(claims.Roles) != 2 || claims.Roles[0] != "quality_engineer" {
		t.Errorf("roles = %v, want %v", claims.Roles, roles)
	}
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	SetSecret("first-secret")
	token, err := GenerateToken(primitive.NewObjectID(), []string{"viewer"})
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	SetSecret("second-secret")
	if _, err := ValidateToken(token); err == nil {
		t.Fatal("expected validation to fail after secret rotation")
	}
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	SetSecret("test-secret")
	if _, err := ValidateToken("not.a.token"); err == nil {
		t.Fatal("expected parse error")
	}
}
