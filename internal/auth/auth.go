package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/KlimSani4/hydrocalc/internal/logger"
	"github.com/KlimSani4/hydrocalc/internal/models"
	"github.com/KlimSani4/hydrocalc/internal/storage"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
	ErrInvalidPassword    = errors.New("password must be 1 to 72 bytes long")
)

const maxPasswordBytes = 72

// AccountStore is the part of the persistence gateway the auth service needs.
type AccountStore interface {
	InsertAccount(ctx context.Context, email, passwordHash string) (*models.Account, error)
	FindAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	FindAccountByID(ctx context.Context, id int64) (*models.Account, error)
}

type Claims struct {
	jwt.RegisteredClaims
}

type Options struct {
	Secret     []byte
	TokenTTL   time.Duration
	BcryptCost int
}

type Service struct {
	accounts AccountStore
	log      *logger.Logger
	secret   []byte
	ttl      time.Duration
	cost     int
	now      func() time.Time
}

func NewService(accounts AccountStore, log *logger.Logger, opts Options) *Service {
	cost := opts.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	ttl := opts.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{
		accounts: accounts,
		log:      log.With("service", "AuthService"),
		secret:   opts.Secret,
		ttl:      ttl,
		cost:     cost,
		now:      time.Now,
	}
}

func (s *Service) TokenTTL() time.Duration {
	return s.ttl
}

func (s *Service) HashPassword(password string) (string, error) {
	if password == "" || len(password) > maxPasswordBytes {
		return "", ErrInvalidPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hash), nil
}

func (s *Service) VerifyPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// Register creates an account. A taken email yields storage.ErrDuplicateEmail.
func (s *Service) Register(ctx context.Context, email, password string) (*models.Account, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.InsertAccount(ctx, email, hash)
	if err != nil {
		return nil, err
	}
	s.log.Info("account registered", "account_id", account.ID)
	return account, nil
}

// Authenticate checks credentials and returns the matching account.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.Account, error) {
	account, err := s.accounts.FindAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.VerifyPassword(password, account.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return account, nil
}

// Login authenticates and issues an access token.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return "", err
	}
	return s.IssueToken(account.ID)
}

func (s *Service) IssueToken(accountID int64) (string, error) {
	now := s.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken returns the account id carried by tokenStr. Any decode,
// signature or expiry problem yields ErrInvalidToken.
func (s *Service) ValidateToken(tokenStr string) (int64, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidToken
	}
	return id, nil
}

// Principal resolves a token to its account. A token for an account that no
// longer exists is invalid.
func (s *Service) Principal(ctx context.Context, tokenStr string) (*models.Account, error) {
	id, err := s.ValidateToken(tokenStr)
	if err != nil {
		return nil, err
	}
	account, err := s.accounts.FindAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return account, nil
}
