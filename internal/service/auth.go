package service

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/hoclconnect/leads/internal/domain"
)

var authTracer = otel.Tracer("service/auth")

const (
	bcryptCost  = 12
	tokenIssuer = "leads-api"
)

// AuthService issues and validates admin access tokens. There is a single
// configured admin account; lead readers authenticate as it.
type AuthService struct {
	jwtSecret []byte
	accessTTL time.Duration
	adminUser string
	adminHash []byte
	logger    *zap.Logger
	now       func() time.Time
}

// NewAuthService creates a new auth service. An empty passwordHash disables
// password login; tokens can still be minted offline with MintToken.
func NewAuthService(jwtSecret string, accessTTL time.Duration, adminUser, passwordHash string, logger *zap.Logger) *AuthService {
	return &AuthService{
		jwtSecret: []byte(jwtSecret),
		accessTTL: accessTTL,
		adminUser: adminUser,
		adminHash: []byte(passwordHash),
		logger:    logger,
		now:       time.Now,
	}
}

// ============================================================
// Token — POST /api/auth/token
// ============================================================

// IssueToken checks admin credentials and returns an access token.
func (s *AuthService) IssueToken(ctx context.Context, req *domain.TokenRequest) (*domain.TokenResponse, error) {
	_, span := authTracer.Start(ctx, "AuthService.IssueToken")
	defer span.End()
	span.SetAttributes(attribute.String("username", req.Username))

	var issues []domain.Issue
	if strings.TrimSpace(req.Username) == "" {
		issues = append(issues, domain.NewIssue("username", domain.CodeRequired, "Required"))
	}
	if req.Password == "" {
		issues = append(issues, domain.NewIssue("password", domain.CodeRequired, "Required"))
	}
	if len(issues) > 0 {
		return nil, &domain.ErrValidation{Issues: issues}
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.adminUser)) == 1
	if len(s.adminHash) == 0 || !userOK ||
		bcrypt.CompareHashAndPassword(s.adminHash, []byte(req.Password)) != nil {
		s.logger.Warn("admin login rejected", zap.String("username", req.Username))
		return nil, &domain.ErrUnauthorized{Message: "Invalid credentials"}
	}

	token, err := s.MintToken(req.Username)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}
	s.logger.Info("admin token issued", zap.String("username", req.Username))

	return &domain.TokenResponse{
		AccessToken: token,
		ExpiresIn:   int(s.accessTTL.Seconds()),
	}, nil
}

// ============================================================
// ValidateToken — used by middleware
// ============================================================

// JWTClaims represents the custom claims in access tokens.
type JWTClaims struct {
	Sub  string `json:"sub"`
	Role string `json:"role"`
	Type string `json:"type"`
	jwt.RegisteredClaims
}

// ValidateAccessToken parses tokenString and requires an admin access token.
func (s *AuthService) ValidateAccessToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithTimeFunc(s.now))
	if err != nil {
		return nil, &domain.ErrUnauthorized{Message: "Invalid or expired token"}
	}

	claims, ok := token.Claims.(*JWTClaims)
	if !ok || !token.Valid {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token"}
	}
	if claims.Type != "access" {
		return nil, &domain.ErrUnauthorized{Message: "Invalid token type"}
	}
	if claims.Role != domain.RoleAdmin {
		return nil, &domain.ErrUnauthorized{Message: "Admin role required"}
	}
	return claims, nil
}

// MintToken signs an admin access token for subject.
func (s *AuthService) MintToken(subject string) (string, error) {
	now := s.now()
	claims := JWTClaims{
		Sub:  subject,
		Role: domain.RoleAdmin,
		Type: "access",
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// HashPassword returns the bcrypt hash stored in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", &domain.ErrValidation{Issues: []domain.Issue{
			domain.NewIssue("password", domain.CodeRequired, "Required"),
		}}
	}
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}
