package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"erp_pricing_backend/internal/auth/transport"
	"erp_pricing_backend/platform/apperr"
	"erp_pricing_backend/platform/config"
	"erp_pricing_backend/platform/logger"

	"github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenType = "access"
	bearerType      = "Bearer"
)

// Authenticator checks credentials against the ERP and returns the user id.
// platform/erp.Client implements it.
type Authenticator interface {
	Authenticate(ctx context.Context, login, password string) (int64, error)
}

type Service struct {
	erp Authenticator
	cfg config.AuthServiceConfig
	log *logger.Logger
	now func() time.Time
}

func New(authenticator Authenticator, cfg config.AuthServiceConfig, log *logger.Logger) *Service {
	return &Service{erp: authenticator, cfg: cfg, log: log, now: time.Now}
}

// Login verifies the credentials with the ERP and issues an access token
// whose subject is the ERP user id.
func (s *Service) Login(ctx context.Context, login, password string) (*transport.AuthResponse, error) {
	login = strings.TrimSpace(login)

	uid, err := s.erp.Authenticate(ctx, login, password)
	if err != nil {
		reason := "erp_error"
		if apperr.Is(err, apperr.KindUnauthorized) {
			reason = "invalid_credentials"
		}
		s.log.AuthEvent("login", login, false, reason)
		return nil, err
	}

	ttl := s.cfg.GetAccessTokenTTL()
	accessToken, err := s.signJWT(uid, login, ttl)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "sign access token", err)
	}

	s.log.AuthEvent("login", login, true, "")
	return &transport.AuthResponse{
		AccessToken: accessToken,
		TokenType:   bearerType,
		ExpiresIn:   int64(ttl.Seconds()),
		UserID:      uid,
	}, nil
}

func (s *Service) signJWT(uid int64, login string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(uid, 10),
		"name": login,
		"type": accessTokenType,
		"exp":  now.Add(ttl).Unix(),
		"iat":  now.Unix(),
	}

	tokenObj := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenObj.SignedString([]byte(s.cfg.GetJWTAccessSecret()))
}
