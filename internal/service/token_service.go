package service

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/storecase-identity/internal/config"
	"github.com/storecase-identity/internal/constants"
	"github.com/storecase-identity/internal/metrics"
	"github.com/storecase-identity/internal/models"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims 用户 Token 声明
type TokenClaims struct {
	UserID    uint   `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// Principal Token 解析结果
type Principal struct {
	UserID    uint
	Role      string
	TokenType string
	ExpiresAt time.Time
}

// TokenPair 访问/刷新 Token 对
type TokenPair struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"-"`
	RefreshExpiresAt time.Time `json:"-"`
}

// TokenService 无状态 Token 签发与校验
type TokenService struct {
	secret []byte
	issuer string
	ttls   config.TokenTTLs
	now    func() time.Time
}

// NewTokenService 创建 Token 服务
func NewTokenService(cfg config.JWTConfig, ttls config.TokenTTLs) *TokenService {
	return &TokenService{
		secret: []byte(cfg.SecretKey),
		issuer: strings.TrimSpace(cfg.Issuer),
		ttls:   ttls,
		now:    time.Now,
	}
}

// TTLs 返回 Token 有效期配置
func (s *TokenService) TTLs() config.TokenTTLs {
	return s.ttls
}

// Issue 签发指定类型的 Token
func (s *TokenService) Issue(userID uint, role, tokenType string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	claims := TokenClaims{
		UserID:    userID,
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			Issuer:    s.issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	metrics.TokensIssued.WithLabelValues(tokenType).Inc()
	// exp 按秒截断，返回值与 Token 内的 exp 保持一致
	return tokenString, claims.ExpiresAt.Time, nil
}

// IssuePair 为用户签发访问与刷新 Token
func (s *TokenService) IssuePair(user *models.User) (*TokenPair, error) {
	if user == nil {
		return nil, ErrNotFound
	}
	access, accessExp, err := s.Issue(user.ID, user.Role, constants.TokenTypeAccess, s.ttls.Access)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := s.Issue(user.ID, user.Role, constants.TokenTypeRefresh, s.ttls.Refresh)
	if err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		AccessExpiresAt:  accessExp,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify 校验 Token 签名与有效期，不检查类型
func (s *TokenService) Verify(tokenString string) (*Principal, error) {
	tokenString = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(tokenString), constants.TokenPrefix))
	if tokenString == "" {
		return nil, ErrTokenInvalid
	}

	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		options = append(options, jwt.WithIssuer(s.issuer))
	}
	parser := jwt.NewParser(options...)

	claims := &TokenClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	principal := &Principal{
		UserID:    claims.UserID,
		Role:      claims.Role,
		TokenType: claims.TokenType,
	}
	if claims.ExpiresAt != nil {
		principal.ExpiresAt = claims.ExpiresAt.Time
	}
	return principal, nil
}

// VerifyAccess 校验访问 Token
func (s *TokenService) VerifyAccess(tokenString string) (*Principal, error) {
	return s.verifyType(tokenString, constants.TokenTypeAccess)
}

// VerifyRefresh 校验刷新 Token
func (s *TokenService) VerifyRefresh(tokenString string) (*Principal, error) {
	return s.verifyType(tokenString, constants.TokenTypeRefresh)
}

func (s *TokenService) verifyType(tokenString, tokenType string) (*Principal, error) {
	principal, err := s.Verify(tokenString)
	if err != nil {
		return nil, err
	}
	if principal.TokenType != tokenType {
		return nil, ErrTokenInvalid
	}
	return principal, nil
}
