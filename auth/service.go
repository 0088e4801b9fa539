package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm/apperrors"
	"crm/repository"
	"crm/schemas"
	"crm/validation"

	"github.com/golang-jwt/jwt/v5"
	"go.mongodb.org/mongo-driver/v2/bson"
	"golang.org/x/crypto/bcrypt"
)

const TOKEN_HEADER = "x-auth-token"

const INVALID_CREDENTIALS = "Invalid credentials"

// Claims is the JWT payload. The user object mirrors the token issued by the
// legacy CRM so existing clients keep decoding it.
type Claims struct {
	User TokenUser `json:"user"`
	jwt.RegisteredClaims
}

type TokenUser struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organizationId"`
	Role           string `json:"role"`
}

type Service struct {
	users  repository.Collection[schemas.User]
	orgs   repository.Collection[schemas.Organization]
	secret []byte
	expiry time.Duration
	cost   int
	now    func() time.Time
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func WithBcryptCost(cost int) Option { return func(s *Service) { s.cost = cost } }

func NewService(users repository.Collection[schemas.User], orgs repository.Collection[schemas.Organization], secret string, expiry time.Duration, opts ...Option) *Service {
	s := &Service{
		users:  users,
		orgs:   orgs,
		secret: []byte(secret),
		expiry: expiry,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type RegisterInput struct {
	FirstName        string `json:"first_name"`
	LastName         string `json:"last_name" validate:"notblank"`
	Email            string `json:"email" validate:"required,email"`
	Password         string `json:"password" validate:"required,min=6"`
	OrganizationName string `json:"organization_name"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type CreateUserInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name" validate:"notblank"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=admin user"`
}

// Register creates an organization together with its first admin user.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*schemas.User, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	now := s.now()
	name := strings.TrimSpace(in.OrganizationName)
	if name == "" {
		name = strings.TrimSpace(in.FirstName + " " + in.LastName + " Organization")
	}
	orgID, err := s.orgs.Insert(ctx, &schemas.Organization{Name: name, CreatedAt: now, UpdatedAt: now})
	if err != nil {
		return nil, fmt.Errorf("create organization: %w", err)
	}

	user, err := s.insertUser(ctx, orgID, schemas.ROLE_ADMIN, in.FirstName, in.LastName, email, in.Password)
	if err != nil {
		return nil, err
	}
	if _, err := s.orgs.UpdateOne(ctx, repository.Filter{"_id": orgID}, repository.IncludeDeleted, bson.M{"owner": user.ID, "updated_at": now}); err != nil {
		return nil, fmt.Errorf("set organization owner: %w", err)
	}
	return user, nil
}

// Login checks the credentials and issues a token.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *schemas.User, error) {
	if err := validation.Struct(in); err != nil {
		return "", nil, err
	}
	user, err := s.users.FindOne(ctx, repository.Filter{"email": NormalizeEmail(in.Email)}, repository.IncludeDeleted)
	if errors.Is(err, repository.ErrNoDocuments) {
		return "", nil, apperrors.Unauthorized(INVALID_CREDENTIALS)
	}
	if err != nil {
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)); err != nil {
		return "", nil, apperrors.Unauthorized(INVALID_CREDENTIALS)
	}
	token, err := s.IssueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

func (s *Service) IssueToken(user *schemas.User) (string, error) {
	now := s.now()
	claims := Claims{
		User: TokenUser{
			ID:             user.ID.Hex(),
			OrganizationID: user.OrganizationID.Hex(),
			Role:           user.Role,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return token, nil
}

// Authenticate verifies a token and returns the caller it was issued to.
func (s *Service) Authenticate(token string) (schemas.Actor, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return schemas.Actor{}, apperrors.Unauthorized("Token is not valid")
	}

	userID, err := bson.ObjectIDFromHex(claims.User.ID)
	if err != nil {
		return schemas.Actor{}, apperrors.Unauthorized("Token is not valid")
	}
	orgID, err := bson.ObjectIDFromHex(claims.User.OrganizationID)
	if err != nil {
		return schemas.Actor{}, apperrors.Unauthorized("Token is not valid")
	}
	return schemas.Actor{UserID: userID, OrganizationID: orgID, Role: claims.User.Role}, nil
}

// CreateUser adds a user to the admin's organization.
func (s *Service) CreateUser(ctx context.Context, actor schemas.Actor, in CreateUserInput) (*schemas.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Admins only")
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}
	email := NormalizeEmail(in.Email)
	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = schemas.ROLE_USER
	}
	return s.insertUser(ctx, actor.OrganizationID, role, in.FirstName, in.LastName, email, in.Password)
}

func (s *Service) ListUsers(ctx context.Context, actor schemas.Actor) ([]schemas.User, error) {
	if !actor.IsAdmin() {
		return nil, apperrors.Forbidden("Admins only")
	}
	return s.users.Find(ctx, repository.Filter{"organization_id": actor.OrganizationID}, repository.FindOptions{
		Deleted: repository.IncludeDeleted,
		Sort:    "created_at",
	})
}

func (s *Service) ensureEmailFree(ctx context.Context, email string) error {
	_, err := s.users.FindOne(ctx, repository.Filter{"email": email}, repository.IncludeDeleted)
	switch {
	case err == nil:
		return apperrors.Conflict("User already exists")
	case errors.Is(err, repository.ErrNoDocuments):
		return nil
	default:
		return err
	}
}

func (s *Service) insertUser(ctx context.Context, orgID bson.ObjectID, role, first, last, email, password string) (*schemas.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now()
	user := &schemas.User{
		FirstName:      strings.TrimSpace(first),
		LastName:       strings.TrimSpace(last),
		Email:          email,
		Password:       string(hash),
		OrganizationID: orgID,
		Role:           role,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.users.Insert(ctx, user)
	if errors.Is(err, repository.ErrDuplicateKey) {
		return nil, apperrors.Conflict("User already exists")
	}
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = id
	return user, nil
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
