// File: internal/service/token.go
package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenType 登入回應中的 token_type
const TokenType = "bearer"

var (
	// ErrInvalidToken 簽章、演算法、過期或 subject 任一檢查失敗
	ErrInvalidToken = errors.New("invalid token")

	timeNow         = time.Now
	parseWithClaims = jwt.ParseWithClaims
)

// Claims 定義 JWT 負載內容，Subject 為使用者名稱
type Claims struct {
	jwt.RegisteredClaims
}

// TokenIssuer 以固定金鑰與 HMAC 演算法簽發、驗證存取權杖
type TokenIssuer struct {
	secret []byte
	method jwt.SigningMethod
	ttl    time.Duration
}

// NewTokenIssuer 只接受 HS256/HS384/HS512
func NewTokenIssuer(secret, algorithm string, ttl time.Duration) (*TokenIssuer, error) {
	if secret == "" {
		return nil, errors.New("NewTokenIssuer: empty secret")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("NewTokenIssuer: invalid ttl %s", ttl)
	}
	if algorithm == "" {
		algorithm = jwt.SigningMethodHS256.Alg()
	}
	method, ok := jwt.GetSigningMethod(strings.ToUpper(algorithm)).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("NewTokenIssuer: unsupported algorithm %q", algorithm)
	}
	return &TokenIssuer{secret: []byte(secret), method: method, ttl: ttl}, nil
}

// TTL 預設有效期限
func (i *TokenIssuer) TTL() time.Duration { return i.ttl }

// Issue 以預設有效期限簽發權杖
func (i *TokenIssuer) Issue(subject string) (string, time.Time, error) {
	return i.IssueWithTTL(subject, i.ttl)
}

// IssueWithTTL 依據 subject 與 TTL 產生 JWT，回傳權杖與到期時間
func (i *TokenIssuer) IssueWithTTL(subject string, ttl time.Duration) (string, time.Time, error) {
	if subject == "" {
		return "", time.Time{}, errors.New("IssueWithTTL: empty subject")
	}
	now := timeNow()
	exp := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(i.method, claims).SignedString(i.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("IssueWithTTL: %w", err)
	}
	return signed, exp, nil
}

// Verify 驗證並解析 JWT 令牌，任何失敗都包裝 ErrInvalidToken
func (i *TokenIssuer) Verify(tokenString string) (*Claims, error) {
	token, err := parseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{i.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(timeNow),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}
