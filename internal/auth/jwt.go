package auth

import (
	"time"

	"churchflow-backend/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

type JWTCustomClaims struct {
	UserID       string          `json:"user_id"`
	Email        string          `json:"email"`
	Role         models.UserRole `json:"role"`
	ChurchID     *string         `json:"church_id"`
	SectionID    *string         `json:"section_id"`
	DepartmentID *string         `json:"department_id"`
	jwt.RegisteredClaims
}

func GenerateToken(secret string, user *models.User) (string, error) {
	claims := &JWTCustomClaims{
		UserID:       user.ID,
		Email:        user.Email,
		Role:         user.Role,
		ChurchID:     user.ChurchID,
		SectionID:    user.SectionID,
		DepartmentID: user.DepartmentID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)), // 1 day
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}
