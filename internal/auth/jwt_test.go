package auth

import (
	"testing"

	"churchflow-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestGenerateTokenRoundTrip(t *testing.T) {
	churchID := "11111111-1111-1111-1111-111111111111"
	sectionID := "22222222-2222-2222-2222-222222222222"
	user := &models.User{
		ID:        "33333333-3333-3333-3333-333333333333",
		ChurchID:  &churchID,
		SectionID: &sectionID,
		Name:      "Ama Mensah",
		Email:     "ama@example.com",
		Role:      models.RoleFinance,
	}

	signed, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	claims := &JWTCustomClaims{}
	token, err := jwt.ParseWithClaims(signed, claims, func(tok *jwt.Token) (interface{}, error) {
		return []byte(testSecret), nil
	})
	if err != nil || !token.Valid {
		t.Fatalf("parse token: %v", err)
	}

	if claims.UserID != user.ID {
		t.Fatalf("user_id = %s", claims.UserID)
	}
	if claims.Role != models.RoleFinance {
		t.Fatalf("role = %s", claims.Role)
	}
	if claims.ChurchID == nil || *claims.ChurchID != churchID {
		t.Fatalf("church_id = %v", claims.ChurchID)
	}
	if claims.DepartmentID != nil {
		t.Fatalf("department_id should be empty for a Finance officer, got %v", claims.DepartmentID)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatal("token is missing its lifetime claims")
	}
}

func TestGenerateTokenRejectsWrongSecret(t *testing.T) {
	user := &models.User{ID: "u-1", Email: "x@example.com", Role: models.RoleMember}

	signed, err := GenerateToken(testSecret, user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	_, err = jwt.ParseWithClaims(signed, &JWTCustomClaims{}, func(tok *jwt.Token) (interface{}, error) {
		return []byte("another-secret-another-secret-ab"), nil
	})
	if err == nil {
		t.Fatal("a token signed with a different secret must not verify")
	}
}
