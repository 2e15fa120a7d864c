package jwttoken

import (
	authmw "coursegate/pkg/platform/middleware/auth"
)

func ToMiddlewareClaims(claims *IDTokenClaims) *authmw.TokenClaims {
	return &authmw.TokenClaims{
		SubjectID:     claims.Subject,
		Email:         claims.Email,
		EmailVerified: claims.EmailVerified,
		Name:          claims.Name,
		JTI:           claims.ID,
	}
}

// JWTServiceAdapter satisfies the auth middleware's TokenValidator.
type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.TokenClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims), nil
}
