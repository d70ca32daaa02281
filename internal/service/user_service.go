package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bintobloom/internal/model"
	"bintobloom/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DTOs for Request validation
type RegisterRequest struct {
	Name         string `json:"name" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required,min=6"`
	Phone        string `json:"phone" binding:"max=20"`
	Address      string `json:"address" binding:"max=500"`
	City         string `json:"city" binding:"max=100"`
	Role         string `json:"role" binding:"required,oneof=HOUSEHOLD BUSINESS COLLECTOR NGO"`
	BusinessType string `json:"business_type" binding:"max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type UpdateUserStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=ACTIVE INACTIVE"`
}

type TokenResponse struct {
	Token     string       `json:"token"`
	ExpiresAt string       `json:"expires_at"`
	User      UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	Role      string `json:"role"`
	Status    string `json:"status"`
	CreatedAt string `json:"created_at"`
}

// UserService handles accounts: registration, login and admin user management.
type UserService interface {
	Register(ctx context.Context, req RegisterRequest) (UserResponse, error)
	Login(ctx context.Context, req LoginRequest) (TokenResponse, error)
	Me(ctx context.Context, actor Actor) (UserResponse, error)
	ListUsers(ctx context.Context, role string, page, limit int) ([]UserResponse, int64, error)
	UpdateUserStatus(ctx context.Context, actor Actor, id string, req UpdateUserStatusRequest) (UserResponse, error)
}

type userService struct {
	repos    *repository.Repositories
	secret   []byte
	tokenTTL time.Duration
	clock    Clock
}

func newUserService(repos *repository.Repositories, secret string, tokenTTL time.Duration, clock Clock) *userService {
	return &userService{repos: repos, secret: []byte(secret), tokenTTL: tokenTTL, clock: clock}
}

func mapToResponse(user *model.User) UserResponse {
	return UserResponse{
		ID:        user.ID.String(),
		Name:      user.Name,
		Email:     user.Email,
		Phone:     user.Phone,
		Address:   user.Address,
		City:      user.City,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: formatTime(user.CreatedAt),
	}
}

// Register creates the account and its role detail row together. Admins are never
// self-registered.
func (s *userService) Register(ctx context.Context, req RegisterRequest) (UserResponse, error) {
	role := strings.ToUpper(strings.TrimSpace(req.Role))
	switch role {
	case model.RoleHousehold, model.RoleBusiness, model.RoleCollector, model.RoleNGO:
	default:
		return UserResponse{}, validationErrorf("invalid role: must be HOUSEHOLD, BUSINESS, COLLECTOR or NGO")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := s.repos.Users.GetByEmail(ctx, email); err == nil {
		return UserResponse{}, &DomainError{Kind: KindConflict, Msg: "email already exists"}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return UserResponse{}, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return UserResponse{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Name:     strings.TrimSpace(req.Name),
		Email:    email,
		Password: string(hashedPassword),
		Phone:    strings.TrimSpace(req.Phone),
		Address:  strings.TrimSpace(req.Address),
		City:     strings.TrimSpace(req.City),
		Role:     role,
	}

	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Users.Create(txCtx, user); err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if err := s.createDetail(txCtx, user, req); err != nil {
			return err
		}
		return writeAudit(txCtx, s.repos.Audit, &user.ID, model.ActionRegisterUser, user.ID.String(), user.Email, map[string]any{
			"role": user.Role,
		})
	})
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(user), nil
}

func (s *userService) createDetail(ctx context.Context, user *model.User, req RegisterRequest) error {
	var err error
	switch user.Role {
	case model.RoleHousehold:
		err = s.repos.Households.Create(ctx, &model.HouseholdDetail{UserID: user.ID})
	case model.RoleBusiness:
		businessType := strings.TrimSpace(req.BusinessType)
		if businessType == "" {
			businessType = "General"
		}
		err = s.repos.Businesses.Create(ctx, &model.BusinessDetail{UserID: user.ID, BusinessType: businessType, PaymentEnabled: true})
	case model.RoleCollector:
		err = s.repos.Collectors.Create(ctx, &model.Collector{UserID: user.ID, Status: model.CollectorActive})
	case model.RoleNGO:
		err = s.repos.NGOs.Create(ctx, &model.NGO{UserID: user.ID, Name: user.Name, City: user.City})
	}
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", strings.ToLower(user.Role), err)
	}
	return nil
}

func (s *userService) Login(ctx context.Context, req LoginRequest) (TokenResponse, error) {
	invalid := &DomainError{Kind: KindUnauthorized, Msg: "invalid email or password"}

	user, err := s.repos.Users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TokenResponse{}, invalid
		}
		return TokenResponse{}, fmt.Errorf("failed to load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return TokenResponse{}, invalid
	}
	if user.Status != model.UserStatusActive {
		return TokenResponse{}, forbiddenf("account is inactive")
	}

	expiresAt := s.clock.Now().Add(s.tokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"exp":  expiresAt.Unix(),
	})
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return TokenResponse{}, fmt.Errorf("failed to generate token: %w", err)
	}

	return TokenResponse{Token: tokenString, ExpiresAt: formatTime(expiresAt.UTC()), User: mapToResponse(user)}, nil
}

func (s *userService) Me(ctx context.Context, actor Actor) (UserResponse, error) {
	user, err := s.repos.Users.GetByID(ctx, actor.ID)
	if err != nil {
		return UserResponse{}, lookup(err, "user")
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, role string, page, limit int) ([]UserResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}

	users, total, err := s.repos.Users.List(ctx, strings.ToUpper(role), page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch users: %w", err)
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, mapToResponse(&users[i]))
	}
	return responses, total, nil
}

func (s *userService) UpdateUserStatus(ctx context.Context, actor Actor, id string, req UpdateUserStatusRequest) (UserResponse, error) {
	userID, err := parseID(id, "user")
	if err != nil {
		return UserResponse{}, err
	}
	status := strings.ToUpper(req.Status)
	if status != model.UserStatusActive && status != model.UserStatusInactive {
		return UserResponse{}, validationErrorf("status must be ACTIVE or INACTIVE")
	}
	if userID == actor.ID && status == model.UserStatusInactive {
		return UserResponse{}, validationErrorf("you cannot deactivate your own account")
	}

	var user *model.User
	err = s.repos.Transaction.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Users.UpdateStatus(txCtx, userID, status); err != nil {
			return lookup(err, "user")
		}
		user, err = s.repos.Users.GetByID(txCtx, userID)
		if err != nil {
			return lookup(err, "user")
		}
		return writeAudit(txCtx, s.repos.Audit, &actor.ID, model.ActionUpdateUserStatus, userID.String(), user.Email, map[string]any{
			"status": status,
		})
	})
	if err != nil {
		return UserResponse{}, err
	}
	return mapToResponse(user), nil
}

// ParseToken validates a bearer token signed with secret and returns its subject and role.
func ParseToken(secret, raw string) (Actor, error) {
	token, err := jwt.Parse(raw, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return Actor{}, &DomainError{Kind: KindUnauthorized, Msg: "invalid or expired token", Err: err}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return Actor{}, &DomainError{Kind: KindUnauthorized, Msg: "invalid token claims"}
	}
	sub, _ := claims["sub"].(string)
	role, _ := claims["role"].(string)
	id, err := uuid.Parse(sub)
	if err != nil || role == "" {
		return Actor{}, &DomainError{Kind: KindUnauthorized, Msg: "invalid token claims"}
	}
	return Actor{ID: id, Role: role}, nil
}
