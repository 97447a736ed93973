package services

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"parampara-foods/apperror"
	"parampara-foods/cache"
	"parampara-foods/models"
	"parampara-foods/repositories"
	"parampara-foods/utils"
)

const invalidCredentials = "Invalid credentials"

// CodeStore holds one-time phone verification codes.
type CodeStore interface {
	AcquireCooldown(ctx context.Context, phone string) (bool, error)
	ReleaseCooldown(ctx context.Context, phone string) error
	Save(ctx context.Context, sessionID, phone, code string) error
	Consume(ctx context.Context, sessionID string) (phone, code string, err error)
}

type SMSSender interface {
	Send(ctx context.Context, to, body string) error
}

type AuthService struct {
	users    *repositories.UserRepository
	accounts *UserService
	tokens   *utils.TokenManager
	codes    CodeStore
	sms      SMSSender
	now      func() time.Time
	newCode  func() (string, error)
}

func NewAuthService(db *sql.DB, accounts *UserService, tokens *utils.TokenManager, codes CodeStore, sms SMSSender) *AuthService {
	return &AuthService{
		users:    repositories.NewUserRepository(db),
		accounts: accounts,
		tokens:   tokens,
		codes:    codes,
		sms:      sms,
		now:      func() time.Time { return time.Now().UTC() },
		newCode:  randomCode,
	}
}

func randomCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *AuthService) issue(user *models.User, isNew bool) (*models.AuthResponse, error) {
	email := ""
	if user.Email != nil {
		email = *user.Email
	}
	token, expiresAt, err := s.tokens.GenerateToken(user.ID, email, user.RoleName, user.AuthProvider)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to issue token")
	}

	resp := &models.AuthResponse{
		Token:        token,
		Expiration:   expiresAt,
		UserID:       user.ID,
		Email:        email,
		FullName:     user.DisplayName(),
		Role:         user.RoleName,
		AuthProvider: user.AuthProvider,
		IsNewUser:    isNew,
	}
	if user.PhoneNumber != nil {
		resp.PhoneNumber = *user.PhoneNumber
	}
	return resp, nil
}

func (s *AuthService) touchLogin(ctx context.Context, user *models.User) {
	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		utils.Zlog.Warn("failed to record last login", zap.String("user_id", user.ID), zap.Error(err))
		return
	}
	user.LastLoginAt = &now
}

// Register creates a local account with the default role. Other roles are
// assigned by an admin through UserService.
func (s *AuthService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	req.Role = ""
	user, err := s.accounts.CreateLocalUser(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.issue(user, true)
}

func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Unauthorized(invalidCredentials)
	}
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to load user")
	}
	if user.PasswordHash == nil || !utils.CheckPassword(*user.PasswordHash, req.Password) {
		utils.Zlog.Warn("failed login", zap.String("user_id", user.ID))
		return nil, apperror.Unauthorized(invalidCredentials)
	}

	s.touchLogin(ctx, user)
	return s.issue(user, false)
}

// GoogleAuth signs in with a Google identity, linking it to an existing
// account with the same email or creating a new User account.
func (s *AuthService) GoogleAuth(ctx context.Context, req models.GoogleAuthRequest) (*models.AuthResponse, error) {
	var picture *string
	if req.Picture != "" {
		picture = &req.Picture
	}

	user, err := s.users.GetByGoogleID(ctx, req.GoogleID)
	if err == nil {
		s.touchLogin(ctx, user)
		return s.issue(user, false)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(err, "Failed to load user")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user, err = s.users.GetByEmail(ctx, email)
	if err == nil {
		if err := s.users.LinkGoogle(ctx, user.ID, req.GoogleID, picture); err != nil {
			return nil, apperror.Wrap(err, "Failed to link Google account")
		}
		user.GoogleID = &req.GoogleID
		user.GooglePicture = picture
		s.touchLogin(ctx, user)
		return s.issue(user, false)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(err, "Failed to load user")
	}

	role, err := s.accounts.activeRole(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user = &models.User{
		ID:            uuid.NewString(),
		Email:         &email,
		RoleID:        role.ID,
		RoleName:      role.Name,
		AuthProvider:  models.AuthProviderGoogle,
		GoogleID:      &req.GoogleID,
		GooglePicture: picture,
		CreatedAt:     now,
		LastLoginAt:   &now,
	}
	if name := strings.TrimSpace(req.Name); name != "" {
		user.FullName = &name
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.Wrap(err, "Failed to create user")
	}
	utils.Zlog.Info("google user created", zap.String("user_id", user.ID))
	return s.issue(user, true)
}

// SendCode texts a six-digit code to phone and returns the session id the
// client must present with it.
func (s *AuthService) SendCode(ctx context.Context, req models.PhoneSendCodeRequest) (*models.PhoneSendCodeResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)

	ok, err := s.codes.AcquireCooldown(ctx, phone)
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to send verification code")
	}
	if !ok {
		return nil, apperror.Validation("A code was sent recently. Please wait before requesting another")
	}

	code, err := s.newCode()
	if err != nil {
		_ = s.codes.ReleaseCooldown(ctx, phone)
		return nil, apperror.Wrap(err, "Failed to generate verification code")
	}
	sessionID := uuid.NewString()
	if err := s.codes.Save(ctx, sessionID, phone, code); err != nil {
		_ = s.codes.ReleaseCooldown(ctx, phone)
		return nil, apperror.Wrap(err, "Failed to send verification code")
	}

	body := fmt.Sprintf("Your Parampara Foods verification code is %s", code)
	if err := s.sms.Send(ctx, phone, body); err != nil {
		_ = s.codes.ReleaseCooldown(ctx, phone)
		utils.Zlog.Error("sms delivery failed", zap.String("phone", phone), zap.Error(err))
		return nil, apperror.Wrap(err, "Failed to send verification code")
	}

	return &models.PhoneSendCodeResponse{
		Message:   "Verification code sent",
		SessionID: sessionID,
	}, nil
}

// VerifyCode consumes the session's code. A code can be tried once; a wrong
// guess burns it.
func (s *AuthService) VerifyCode(ctx context.Context, req models.PhoneVerifyRequest) (*models.AuthResponse, error) {
	phone := strings.TrimSpace(req.PhoneNumber)

	storedPhone, storedCode, err := s.codes.Consume(ctx, req.SessionID)
	if errors.Is(err, cache.ErrCodeNotFound) {
		return nil, apperror.Unauthorized("Invalid or expired verification code")
	}
	if err != nil {
		return nil, apperror.Wrap(err, "Failed to verify code")
	}
	if storedPhone != phone || subtle.ConstantTimeCompare([]byte(storedCode), []byte(req.VerificationCode)) != 1 {
		return nil, apperror.Unauthorized("Invalid or expired verification code")
	}

	user, err := s.users.GetByPhone(ctx, phone)
	if err == nil {
		s.touchLogin(ctx, user)
		return s.issue(user, false)
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, apperror.Wrap(err, "Failed to load user")
	}

	role, err := s.accounts.activeRole(ctx, models.RoleUser)
	if err != nil {
		return nil, err
	}
	now := s.now()
	user = &models.User{
		ID:           uuid.NewString(),
		PhoneNumber:  &phone,
		RoleID:       role.ID,
		RoleName:     role.Name,
		AuthProvider: models.AuthProviderPhone,
		CreatedAt:    now,
		LastLoginAt:  &now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperror.Wrap(err, "Failed to create user")
	}
	utils.Zlog.Info("phone user created", zap.String("user_id", user.ID))
	return s.issue(user, true)
}
