package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/flicky/furniture-store/internal/dto"
	"github.com/flicky/furniture-store/internal/model"
	"github.com/flicky/furniture-store/internal/repository"
)

type AuthService struct {
	userRepo   repository.UserRepository
	orders     *repository.OrderIndex
	jwtSecret  []byte
	jwtExpiry  time.Duration
	bcryptCost int
}

func NewAuthService(userRepo repository.UserRepository, orders *repository.OrderIndex, jwtSecret string, jwtExpiry time.Duration, bcryptCost int) *AuthService {
	if bcryptCost < bcrypt.MinCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		userRepo: userRepo, orders: orders,
		jwtSecret: []byte(jwtSecret), jwtExpiry: jwtExpiry, bcryptCost: bcryptCost,
	}
}

func (s *AuthService) SignUp(ctx context.Context, req dto.SignUpRequest) (*dto.UserResponse, error) {
	return s.create(ctx, req, model.RoleCustomer)
}

// EnsureAdmin creates the admin account unless the username is taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) error {
	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("check admin: %w", err)
	}
	if existing != nil {
		return nil
	}
	_, err = s.create(ctx, dto.SignUpRequest{
		Username: username, FullName: "Store Administrator", Email: email, Password: password,
	}, model.RoleAdmin)
	return err
}

func (s *AuthService) create(ctx context.Context, req dto.SignUpRequest, role string) (*dto.UserResponse, error) {
	username := strings.TrimSpace(req.Username)
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", model.ErrInvalidInput)
	}
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check user: %w", err)
	}
	if existing != nil {
		return nil, model.ErrUserAlreadyExists
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &model.User{
		Username: username, Email: strings.TrimSpace(req.Email), PasswordHash: string(hashed),
		FullName: req.FullName, Address: req.Address, Phone: req.Phone, Role: role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, model.ErrUserAlreadyExists) {
			return nil, err
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

func (s *AuthService) Login(ctx context.Context, req dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, model.ErrInvalidCredentials
	}

	if err := s.userRepo.SetLoggedIn(ctx, user.Username, true); err != nil {
		return nil, fmt.Errorf("mark logged in: %w", err)
	}

	token, err := s.generateToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &dto.AuthResponse{Token: token, User: toUserResponse(user)}, nil
}

func (s *AuthService) Logout(ctx context.Context, username string) error {
	if err := s.userRepo.SetLoggedIn(ctx, username, false); err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return err
		}
		return fmt.Errorf("mark logged out: %w", err)
	}
	return nil
}

// RequireLoggedIn returns the user if the login flag is set.
func (s *AuthService) RequireLoggedIn(ctx context.Context, username string) (*model.User, error) {
	user, err := s.getUser(ctx, username)
	if err != nil {
		return nil, err
	}
	if !user.LoggedIn {
		return nil, model.ErrNotLoggedIn
	}
	return user, nil
}

func (s *AuthService) Profile(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.RequireLoggedIn(ctx, username)
	if err != nil {
		return nil, err
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// ManageProfile applies the non-nil fields of req.
func (s *AuthService) ManageProfile(ctx context.Context, username string, req dto.ProfileUpdateRequest) (*dto.UserResponse, error) {
	if _, err := s.RequireLoggedIn(ctx, username); err != nil {
		return nil, err
	}
	user, err := s.userRepo.UpdateProfile(ctx, username, func(u *model.User) {
		if req.FullName != nil {
			u.FullName = *req.FullName
		}
		if req.Address != nil {
			u.Address = *req.Address
		}
		if req.Phone != nil {
			u.Phone = *req.Phone
		}
	})
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	resp := toUserResponse(user)
	return &resp, nil
}

// OrderHistory reads the user's orders from the order index.
func (s *AuthService) OrderHistory(ctx context.Context, username string) ([]model.Order, error) {
	if _, err := s.RequireLoggedIn(ctx, username); err != nil {
		return nil, err
	}
	return s.orders.ForUser(username), nil
}

func (s *AuthService) getUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if user == nil {
		return nil, model.ErrUserNotFound
	}
	return user, nil
}

func (s *AuthService) generateToken(user *model.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.Username,
		"role": user.Role,
		"exp":  time.Now().Add(s.jwtExpiry).Unix(),
		"iat":  time.Now().Unix(),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
}

func toUserResponse(user *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: user.ID, Username: user.Username, Email: user.Email,
		FullName: user.FullName, Address: user.Address, Phone: user.Phone, Role: user.Role,
	}
}
