package jwttoken

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"

	"medilink/internal/platform/middleware"
)

// MiddlewareAdapter bridges the token service to the HTTP middleware's
// JWTValidator interface.
type MiddlewareAdapter struct {
	svc *Service
}

func NewMiddlewareAdapter(svc *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{svc: svc}
}

func (a *MiddlewareAdapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.svc.ValidateToken(tokenString)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return &middleware.JWTClaims{Expired: true}, err
		}
		return nil, err
	}
	return &middleware.JWTClaims{
		UserID: claims.UserID,
		Role:   claims.Role,
	}, nil
}
