package services

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samuelAmenu/vbcs-backend/internal/config"
	"github.com/samuelAmenu/vbcs-backend/internal/dto"
	"github.com/samuelAmenu/vbcs-backend/internal/models"
	"github.com/samuelAmenu/vbcs-backend/internal/store"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	ErrPhoneRequired = errors.New("phone number is required")
	ErrInvalidCode   = errors.New("invalid or expired code")
)

// AuthService implements OTP-first sign-in. The identity record is
// created on first successful verification, which is a subscriber's
// first contact with the system.
type AuthService struct {
	db    *gorm.DB
	store store.IdentityStore
	cfg   *config.Config
}

func NewAuthService(db *gorm.DB, st store.IdentityStore, cfg *config.Config) *AuthService {
	return &AuthService{db: db, store: st, cfg: cfg}
}

// RequestCode issues a fresh OTP for the number, replacing any pending
// ticket. The code is returned for the simulated SMS path; a real
// gateway integration would send it instead.
func (s *AuthService) RequestCode(ctx context.Context, phone string) (string, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", ErrPhoneRequired
	}

	code, err := generateOTP()
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash code: %w", err)
	}

	if err := s.db.WithContext(ctx).Where("phone_number = ?", phone).Delete(&models.AuthTicket{}).Error; err != nil {
		return "", fmt.Errorf("failed to clear old tickets: %w", err)
	}

	ticket := models.AuthTicket{
		PhoneNumber: phone,
		CodeHash:    string(hash),
		ExpiresAt:   time.Now().Add(s.cfg.OTPExpiry),
	}
	if err := s.db.WithContext(ctx).Create(&ticket).Error; err != nil {
		return "", fmt.Errorf("failed to create ticket: %w", err)
	}

	slog.Info("otp issued", "phone", phone)
	return code, nil
}

// VerifyCode consumes a pending OTP. On first contact it creates the
// identity record; either way it returns a signed access token.
func (s *AuthService) VerifyCode(ctx context.Context, phone, code string) (*dto.VerifyCodeResponse, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)

	var ticket models.AuthTicket
	err := s.db.WithContext(ctx).
		Where("phone_number = ?", phone).
		Order("created_at DESC").
		First(&ticket).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrInvalidCode
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load ticket: %w", err)
	}

	if time.Now().After(ticket.ExpiresAt) {
		return nil, ErrInvalidCode
	}
	if bcrypt.CompareHashAndPassword([]byte(ticket.CodeHash), []byte(code)) != nil {
		return nil, ErrInvalidCode
	}

	// Single-use: burn the ticket before issuing anything.
	if err := s.db.WithContext(ctx).Delete(&ticket).Error; err != nil {
		return nil, fmt.Errorf("failed to consume ticket: %w", err)
	}

	identity, err := s.store.FindByPhone(ctx, phone)
	isNew := errors.Is(err, store.ErrNotFound)
	if isNew {
		identity = &models.Identity{
			PhoneNumber: phone,
			Status:      models.StatusSafe,
		}
		if err := s.store.Upsert(ctx, identity); err != nil {
			return nil, fmt.Errorf("failed to create identity: %w", err)
		}
		slog.Info("identity created on first contact", "phone", phone)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load identity: %w", err)
	}

	token, err := s.generateAccessToken(phone)
	if err != nil {
		return nil, err
	}

	return &dto.VerifyCodeResponse{
		AccessToken: token,
		IsNewUser:   isNew,
		Identity:    identity,
	}, nil
}

// UpdateProfile mutates the display fields of an existing identity.
func (s *AuthService) UpdateProfile(ctx context.Context, phone string, req *dto.UpdateProfileRequest) (*models.Identity, error) {
	identity, err := s.store.FindByPhone(ctx, phone)
	if err != nil {
		return nil, err
	}

	if req.FullName != "" {
		identity.FullName = req.FullName
	}
	if req.AvatarURL != "" {
		identity.AvatarURL = req.AvatarURL
	}
	if req.DeviceFingerprint != "" {
		identity.DeviceFingerprint = req.DeviceFingerprint
	}

	if err := s.store.Upsert(ctx, identity); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return identity, nil
}

func (s *AuthService) generateAccessToken(phone string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": phone,
		"iat": now.Unix(),
		"exp": now.Add(s.cfg.JWTAccessExpiry).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
