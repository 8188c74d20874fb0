package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/taskchat/taskchat/internal/config"
	"github.com/taskchat/taskchat/internal/domain"
	"github.com/taskchat/taskchat/internal/domain/user"
	"github.com/taskchat/taskchat/internal/port/database"
)

// jwtHeader is the encoded header shared by every token this service signs.
// The algorithm never varies, so it is computed once.
var jwtHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

var errTokenExpired = errors.New("token expired")

// AuthService manages user accounts and issues and verifies bearer tokens.
// Tokens are HS256 JWTs signed with the configured shared secret, so tokens
// minted by an external login service holding the same secret verify here
// unchanged.
type AuthService struct {
	store  database.Store
	cfg    config.Auth
	secret []byte
}

// NewAuthService creates an AuthService backed by the given store.
func NewAuthService(store database.Store, cfg config.Auth) *AuthService {
	return &AuthService{store: store, cfg: cfg, secret: []byte(cfg.JWTSecret)}
}

// Register creates a new user account with a bcrypt-hashed password. The
// email is normalized to lower case before the uniqueness check so the same
// address cannot register twice with different casing.
func (s *AuthService) Register(ctx context.Context, req user.CreateRequest) (*user.User, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)
	if req.Role == "" {
		req.Role = user.RoleUser
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}

	if _, err := s.store.GetUserByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email %s already registered: %w", req.Email, domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost())
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &user.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: string(hash),
		Role:         req.Role,
		Enabled:      true,
	}
	if err := s.store.CreateUser(ctx, u); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

// Login verifies credentials and returns a signed access token. A missing
// account and a wrong password produce the same error so the endpoint does
// not leak which emails exist.
func (s *AuthService) Login(ctx context.Context, req user.LoginRequest) (*user.LoginResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, domain.ErrValidation)
	}

	u, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}
	if !u.Enabled {
		return nil, fmt.Errorf("account is disabled: %w", domain.ErrUnauthorized)
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}

	token, err := s.signToken(u)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &user.LoginResponse{
		AccessToken: token,
		ExpiresIn:   int(s.cfg.TokenTTL.Seconds()),
		User:        *u,
	}, nil
}

// VerifyToken validates a bearer token and extracts the caller's identity.
// Signed HS256 JWTs are checked for signature and expiry. Tokens that are
// plain base64-encoded JSON are accepted as a demo fallback, matching what
// the bundled frontend sends before a real login service is wired up.
func (s *AuthService) VerifyToken(token string) (*user.TokenClaims, error) {
	claims, err := s.verifyJWT(token)
	if err == nil {
		return claims, nil
	}
	if errors.Is(err, errTokenExpired) {
		return nil, fmt.Errorf("token has expired: %w", domain.ErrUnauthorized)
	}
	if claims, demoErr := decodeDemoToken(token); demoErr == nil {
		return claims, nil
	}
	return nil, fmt.Errorf("could not validate credentials: %w", domain.ErrUnauthorized)
}

// UpdatePassword replaces a user's password hash. Used by the admin CLI for
// resets; there is no self-service change flow.
func (s *AuthService) UpdatePassword(ctx context.Context, userID, newPassword string) error {
	if len(newPassword) < 8 {
		return fmt.Errorf("password must be at least 8 characters: %w", domain.ErrValidation)
	}
	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return fmt.Errorf("look up user %s: %w", userID, err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost())
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.store.UpdateUserPassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("update password for %s: %w", userID, err)
	}
	return nil
}

// AdminResetPassword sets a new password for the user with the given email.
// CLI only; the HTTP surface never exposes it.
func (s *AuthService) AdminResetPassword(ctx context.Context, email, newPassword string) error {
	u, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("look up user %s: %w", email, err)
	}
	return s.UpdatePassword(ctx, u.ID, newPassword)
}

// ListUsers returns all registered users. Admin surface only.
func (s *AuthService) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.store.ListUsers(ctx)
}

// GetUser returns a single user by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*user.User, error) {
	return s.store.GetUser(ctx, id)
}

func (s *AuthService) signToken(u *user.User) (string, error) {
	now := time.Now()
	claims := user.TokenClaims{
		UserID:   u.ID,
		Email:    u.Email,
		Name:     u.Name,
		Role:     u.Role,
		IssuedAt: now.Unix(),
		Expiry:   now.Add(s.cfg.TokenTTL).Unix(),
	}
	return signJWT(claims, s.secret)
}

// signJWT produces header.payload.signature with an HMAC-SHA256 signature
// over the first two segments.
func signJWT(claims any, secret []byte) (string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("marshal claims: %w", err)
	}
	signing := jwtHeader + "." + base64URLEncode(payload)
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(signing))
	return signing + "." + base64URLEncode(mac.Sum(nil)), nil
}

func (s *AuthService) verifyJWT(token string) (*user.TokenClaims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errors.New("malformed token")
	}
	sig, err := base64URLDecode(parts[2])
	if err != nil {
		return nil, fmt.Errorf("decode signature: %w", err)
	}
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(parts[0] + "." + parts[1]))
	if !hmac.Equal(sig, mac.Sum(nil)) {
		return nil, errors.New("signature mismatch")
	}
	payload, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	claims, err := claimsFromPayload(payload)
	if err != nil {
		return nil, err
	}
	if claims.Expiry > 0 && time.Now().Unix() >= claims.Expiry {
		return nil, errTokenExpired
	}
	return claims, nil
}

// claimsFromPayload decodes a token payload leniently. External issuers put
// the user id under userId, sub, or id depending on the library; the first
// non-empty one wins. A payload with no usable id is rejected.
func claimsFromPayload(payload []byte) (*user.TokenClaims, error) {
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode claims: %w", err)
	}
	claims := &user.TokenClaims{}
	for _, key := range []string{"userId", "sub", "id"} {
		if v, ok := raw[key].(string); ok && strings.TrimSpace(v) != "" {
			claims.UserID = v
			break
		}
	}
	if claims.UserID == "" {
		return nil, errors.New("invalid user identity")
	}
	if v, ok := raw["email"].(string); ok {
		claims.Email = v
	}
	if v, ok := raw["name"].(string); ok {
		claims.Name = v
	}
	if v, ok := raw["role"].(string); ok {
		claims.Role = user.Role(v)
	}
	if v, ok := raw["exp"].(float64); ok {
		claims.Expiry = int64(v)
	}
	if v, ok := raw["iat"].(float64); ok {
		claims.IssuedAt = int64(v)
	}
	return claims, nil
}

// decodeDemoToken accepts a plain base64-encoded JSON object in place of a
// signed JWT. Demo tokens carry an id claim and no expiry.
func decodeDemoToken(token string) (*user.TokenClaims, error) {
	decoded, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		if decoded, err = base64.RawStdEncoding.DecodeString(token); err != nil {
			return nil, fmt.Errorf("decode token: %w", err)
		}
	}
	return claimsFromPayload(decoded)
}

func (s *AuthService) bcryptCost() int {
	if s.cfg.BcryptCost < bcrypt.MinCost || s.cfg.BcryptCost > bcrypt.MaxCost {
		return bcrypt.DefaultCost
	}
	return s.cfg.BcryptCost
}

func base64URLEncode(data []byte) string {
	return strings.TrimRight(base64.URLEncoding.EncodeToString(data), "=")
}

func base64URLDecode(s string) ([]byte, error) {
	if pad := len(s) % 4; pad != 0 {
		s += strings.Repeat("=", 4-pad)
	}
	return base64.URLEncoding.DecodeString(s)
}
