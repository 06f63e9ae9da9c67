package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockcount/internal/auth"
	"stockcount/internal/model"
	"stockcount/internal/repository"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// DTOs for Request validation
type CreateUserRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Phone    string `json:"phone"`
	Password string `json:"password" binding:"required,min=6"`
	Role     string `json:"role" binding:"required"`
}

type UpdateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email" binding:"omitempty,email"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
	Password string `json:"password" binding:"omitempty,min=6"`
}

type LoginUserRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type TokenResponse struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refresh_token"`
	ExpiresIn    int64        `json:"expires_in"`
	User         UserResponse `json:"user"`
}

// DTO for returning User without exposing sensitive data (e.g. password)
type UserResponse struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Role      string    `json:"role"`
	LastLogin string    `json:"last_login_at,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

type MeResponse struct {
	UserResponse
	Permissions []string `json:"permissions"`
}

// UserService covers authentication and user administration
type UserService interface {
	Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	GetMe(ctx context.Context, id string) (*MeResponse, error)
	CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error)
	GetUserByID(ctx context.Context, id string) (*UserResponse, error)
	ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error)
	UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error)
	DeleteUser(ctx context.Context, actorID, id string) error
}

type userService struct {
	repo       repository.UserRepository
	tokenRepo  repository.RefreshTokenRepository
	roleRepo   repository.RoleRepository
	auditRepo  repository.AuditRepository
	txManager  repository.TransactionManager
	tokens     *auth.TokenIssuer
	refreshTTL time.Duration
	now        func() time.Time
}

// NewUserService returns a new instance of UserService
func NewUserService(
	repo repository.UserRepository,
	tokenRepo repository.RefreshTokenRepository,
	roleRepo repository.RoleRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	tokens *auth.TokenIssuer,
	refreshTTL time.Duration,
) UserService {
	return &userService{
		repo:       repo,
		tokenRepo:  tokenRepo,
		roleRepo:   roleRepo,
		auditRepo:  auditRepo,
		txManager:  txManager,
		tokens:     tokens,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// Helper: parse model to standard json API response
func mapToResponse(user *model.User) *UserResponse {
	res := &UserResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		Phone:     user.Phone,
		Role:      user.Role,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}
	if user.LastLoginAt != nil {
		res.LastLogin = user.LastLoginAt.Format(time.RFC3339)
	}
	return res
}

func (s *userService) validateRole(ctx context.Context, role string) error {
	if _, err := s.roleRepo.FindByName(ctx, role); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return validationf("unknown role %q", role)
		}
		return err
	}
	return nil
}

func (s *userService) Login(ctx context.Context, req LoginUserRequest) (*TokenResponse, error) {
	user, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	var res *TokenResponse
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		now := s.now()
		if err := s.repo.RecordLogin(txCtx, user.ID, now); err != nil {
			return fmt.Errorf("failed to record login: %w", err)
		}
		user.LastLoginAt = &now

		var issueErr error
		res, issueErr = s.issueTokens(txCtx, user)
		return issueErr
	})
	return res, err
}

// Refresh rotates a refresh token: the presented token is revoked and a new pair is issued.
func (s *userService) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	if refreshToken == "" {
		return nil, ErrInvalidToken
	}

	var res *TokenResponse
	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		stored, err := s.tokenRepo.FindValid(txCtx, refreshToken, s.now())
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		// a concurrent refresh that already rotated this token leaves nothing to delete
		if err := s.tokenRepo.Delete(txCtx, refreshToken); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidToken
			}
			return fmt.Errorf("failed to revoke refresh token: %w", err)
		}

		user, err := s.repo.GetByID(txCtx, stored.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}

		res, err = s.issueTokens(txCtx, user)
		return err
	})
	if errors.Is(err, ErrInvalidToken) {
		if _, pruneErr := s.tokenRepo.DeleteExpired(ctx, s.now()); pruneErr != nil {
			return nil, fmt.Errorf("failed to prune expired refresh tokens: %w", pruneErr)
		}
	}
	return res, err
}

func (s *userService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.tokenRepo.Delete(ctx, refreshToken); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return nil
}

func (s *userService) issueTokens(ctx context.Context, user *model.User) (*TokenResponse, error) {
	access, err := s.tokens.Issue(user.ID.String(), user.Role)
	if err != nil {
		return nil, err
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		Token:     uuid.NewString(),
		ExpiresAt: s.now().Add(s.refreshTTL),
	}
	if err := s.tokenRepo.Create(ctx, rt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &TokenResponse{
		Token:        access,
		RefreshToken: rt.Token,
		ExpiresIn:    int64(s.tokens.TTL().Seconds()),
		User:         *mapToResponse(user),
	}, nil
}

func (s *userService) GetMe(ctx context.Context, id string) (*MeResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	perms, err := s.roleRepo.GetPermissionsByRoleName(ctx, user.Role)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if perms == nil {
		perms = []string{}
	}
	return &MeResponse{UserResponse: *mapToResponse(user), Permissions: perms}, nil
}

func (s *userService) getUser(ctx context.Context, id string) (*model.User, error) {
	uid, err := parseID(id, "user")
	if err != nil {
		return nil, err
	}
	user, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, mapRepoErr(err, "user")
	}
	return user, nil
}

func (s *userService) CreateUser(ctx context.Context, actorID string, req CreateUserRequest) (*UserResponse, error) {
	if err := s.validateRole(ctx, req.Role); err != nil {
		return nil, err
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, req.Email, req.Username, uuid.Nil)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("username or email %w", ErrConflict)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username: req.Username,
		Email:    req.Email,
		Phone:    req.Phone,
		Password: string(hashedPassword),
		Role:     req.Role,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Create(txCtx, user); err != nil {
			return mapRepoErr(err, "user")
		}
		entry := newAuditLog(actorID, model.ActionCreateUser, user.ID.String(), user.Username,
			map[string]string{"email": user.Email, "role": user.Role})
		return s.auditRepo.Log(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) GetUserByID(ctx context.Context, id string) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return mapToResponse(user), nil
}

func (s *userService) ListUsers(ctx context.Context, page, limit int) ([]UserResponse, int64, error) {
	users, total, err := s.repo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]UserResponse, 0, len(users))
	for i := range users {
		responses = append(responses, *mapToResponse(&users[i]))
	}

	return responses, total, nil
}

func (s *userService) UpdateUser(ctx context.Context, actorID, id string, req UpdateUserRequest) (*UserResponse, error) {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Role != "" && req.Role != user.Role {
		if err := s.validateRole(ctx, req.Role); err != nil {
			return nil, err
		}
		user.Role = req.Role
	}
	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Email != "" {
		user.Email = req.Email
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.Password = string(hashed)
	}

	exists, err := s.repo.ExistsByEmailOrUsername(ctx, user.Email, user.Username, user.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("username or email %w", ErrConflict)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Update(txCtx, user); err != nil {
			return mapRepoErr(err, "user")
		}
		entry := newAuditLog(actorID, model.ActionUpdateUser, user.ID.String(), user.Username,
			map[string]interface{}{"role": user.Role, "password_changed": req.Password != ""})
		return s.auditRepo.Log(txCtx, entry)
	})
	if err != nil {
		return nil, err
	}

	return mapToResponse(user), nil
}

func (s *userService) DeleteUser(ctx context.Context, actorID, id string) error {
	user, err := s.getUser(ctx, id)
	if err != nil {
		return err
	}
	if actorID == user.ID.String() {
		return validationf("users cannot delete themselves")
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.Delete(txCtx, user.ID); err != nil {
			return mapRepoErr(err, "user")
		}
		if err := s.tokenRepo.DeleteByUser(txCtx, user.ID); err != nil {
			return err
		}
		return s.auditRepo.Log(txCtx, newAuditLog(actorID, model.ActionDeleteUser, user.ID.String(), user.Username, nil))
	})
}
