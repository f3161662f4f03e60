package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AnshRaj112/pashu-bazaar-backend/internal/models"
	"github.com/AnshRaj112/pashu-bazaar-backend/internal/repository"
	"github.com/AnshRaj112/pashu-bazaar-backend/pkg/utils"
)

// UserStore is the identity store as seen by AuthService.
type UserStore interface {
	Create(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type AuthResult struct {
	Token string
	User  models.PublicUser
}

// AuthService hashes and verifies passwords and issues and checks bearer
// tokens. Tokens are stateless: a token stays valid until it expires.
type AuthService struct {
	users     UserStore
	secret    string
	ttl       time.Duration
	cost      int
	dummyHash string
	now       func() time.Time
}

func NewAuthService(users UserStore, cfg AuthConfig) *AuthService {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 7 * 24 * time.Hour
	}
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = utils.DefaultBcryptCost
	}
	// compared against on unknown emails so both login failures cost a hash
	dummy, _ := utils.HashPassword("not-a-real-password", cfg.BcryptCost)
	return &AuthService{
		users:     users,
		secret:    cfg.Secret,
		ttl:       cfg.TokenTTL,
		cost:      cfg.BcryptCost,
		dummyHash: dummy,
		now:       time.Now,
	}
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(in.Email)
	in.Phone = strings.TrimSpace(in.Phone)

	if err := utils.RequireFields(
		utils.Field{Name: "name", Value: in.Name},
		utils.Field{Name: "email", Value: in.Email},
		utils.Field{Name: "phone", Value: in.Phone},
		utils.Field{Name: "password", Value: in.Password},
	); err != nil {
		return nil, validationError("%s", err.Error())
	}
	if err := utils.ValidateEmail(in.Email); err != nil {
		return nil, validationError("%s", err.Error())
	}

	if _, err := s.users.FindByEmail(ctx, in.Email); err == nil {
		return nil, ErrConflict
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Phone:    in.Phone,
		Password: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration of the same email
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrConflict
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(user)
}

// Login never reveals whether the email exists: an unknown email and a wrong
// password both return ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, validationError("email and password are required")
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = utils.VerifyPassword(password, s.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	ok, err := utils.VerifyPassword(password, user.Password)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate resolves an Authorization header value to the stored user.
func (s *AuthService) Authenticate(ctx context.Context, authorization string) (*models.User, error) {
	raw, ok := strings.CutPrefix(authorization, "Bearer ")
	raw = strings.TrimSpace(raw)
	if !ok || raw == "" {
		return nil, ErrUnauthenticated
	}
	return s.AuthenticateToken(ctx, raw)
}

// AuthenticateToken is Authenticate for a bare token, e.g. one passed as a
// query parameter by a browser WebSocket client.
func (s *AuthService) AuthenticateToken(ctx context.Context, raw string) (*models.User, error) {
	if raw == "" {
		return nil, ErrUnauthenticated
	}
	claims, err := utils.ParseAccessToken(s.secret, raw)
	if err != nil {
		return nil, ErrInvalidToken
	}
	id, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnknownUser
		}
		return nil, fmt.Errorf("find token user: %w", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, err := utils.NewAccessToken(s.secret, user.ID.Hex(), user.Email, s.ttl, s.now())
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &AuthResult{Token: token, User: user.Public()}, nil
}
