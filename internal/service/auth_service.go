package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"edupanel/internal/agent"
	"edupanel/internal/config"
	"edupanel/internal/models"
	"edupanel/internal/repository"
	"edupanel/internal/security"
)

type AccountStore interface {
	FindByID(ctx context.Context, id string) (models.Account, error)
	TouchDevice(ctx context.Context, account models.Account, device models.Device) (bool, error)
	AppendDevice(ctx context.Context, account models.Account, device models.Device) (bool, error)
}

type SubscriptionStore interface {
	Get(ctx context.Context) (models.Subscription, error)
	Deactivate(ctx context.Context) error
}

// RateLimiter throttles failed credential checks per client address.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Hit(ctx context.Context, key string) error
}

type AuthService struct {
	accounts      AccountStore
	subscriptions SubscriptionStore
	limiter       RateLimiter
	cfg           *config.AppConfig
	log           zerolog.Logger
	now           func() time.Time
}

func NewAuthService(
	accounts AccountStore,
	subscriptions SubscriptionStore,
	limiter RateLimiter,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accounts:      accounts,
		subscriptions: subscriptions,
		limiter:       limiter,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

type LoginInput struct {
	ID        string
	Password  string
	DeviceID  string
	IPAddress string
	UserAgent string
}

type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Account   models.Account
	DeviceID  string
}

// Login runs the checks in order and mutates nothing until all of them
// pass, except deactivating an expired subscription and counting failed
// credentials.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (LoginResult, error) {
	if s.limiter != nil {
		allowed, err := s.limiter.Allow(ctx, input.IPAddress)
		if err != nil {
			s.log.Warn().Err(err).Msg("login throttle unavailable")
		} else if !allowed {
			return LoginResult{}, ErrTooManyAttempts
		}
	}

	account, err := s.verifyCredentials(ctx, input.ID, input.Password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrWrongPassword) {
			s.recordFailure(ctx, input.IPAddress)
		}
		return LoginResult{}, err
	}

	if !account.Active() {
		if account.Role == models.RoleStudent {
			return LoginResult{}, ErrStudentAccountDeactivated
		}
		return LoginResult{}, ErrAccountDeactivated
	}

	if err := s.checkSubscription(ctx, account); err != nil {
		return LoginResult{}, err
	}

	deviceID, err := s.registerDevice(ctx, account, input)
	if err != nil {
		return LoginResult{}, err
	}

	now := s.now()
	token, err := security.GenerateSessionToken(
		s.cfg.Security.JWTSecret,
		account.ID,
		account.Name,
		string(account.Role),
		now,
		s.cfg.Security.TokenTTL,
	)
	if err != nil {
		return LoginResult{}, fmt.Errorf("sign token: %w", err)
	}

	return LoginResult{
		Token:     token,
		ExpiresAt: now.Add(s.cfg.Security.TokenTTL),
		Account:   account,
		DeviceID:  deviceID,
	}, nil
}

func (s *AuthService) verifyCredentials(ctx context.Context, id string, password string) (models.Account, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return models.Account{}, ErrUserNotFound
	}

	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return models.Account{}, ErrUserNotFound
		}
		return models.Account{}, fmt.Errorf("find account: %w", err)
	}

	ok, err := security.VerifyPassword(password, account.PasswordHash)
	if err != nil {
		s.log.Warn().Err(err).Str("account_id", account.ID).Msg("stored password hash is unreadable")
		return models.Account{}, ErrWrongPassword
	}
	if !ok {
		return models.Account{}, ErrWrongPassword
	}
	return account, nil
}

// recordFailure counts a failed credential check. Successful logins are
// never counted, so a shared address only locks out on repeated mistakes.
func (s *AuthService) recordFailure(ctx context.Context, ip string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Hit(ctx, ip); err != nil {
		s.log.Warn().Err(err).Msg("login throttle unavailable")
	}
}

func (s *AuthService) Authenticate(token string) (*security.SessionClaims, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}
	claims, err := security.ParseSessionToken(token, s.cfg.Security.JWTSecret, s.now)
	if err != nil {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (s *AuthService) checkSubscription(ctx context.Context, account models.Account) error {
	if !s.cfg.Features.SubscriptionGating || hasRole(s.cfg.Security.PrivilegedRoles, account.Role) {
		return nil
	}

	sub, err := s.subscriptions.Get(ctx)
	if errors.Is(err, repository.ErrSubscriptionNotFound) {
		return ErrSubscriptionInactive
	}
	if err != nil {
		return fmt.Errorf("load subscription: %w", err)
	}
	if !sub.Active {
		return ErrSubscriptionInactive
	}
	if sub.ExpiredAt(s.now()) {
		if err := s.subscriptions.Deactivate(ctx); err != nil {
			s.log.Warn().Err(err).Msg("deactivate expired subscription failed")
		}
		return ErrSubscriptionExpired
	}
	return nil
}

// registerDevice records the login device, refusing a new one at capacity.
// It returns the device id it used, empty when limiting does not apply.
func (s *AuthService) registerDevice(ctx context.Context, account models.Account, input LoginInput) (string, error) {
	if !s.cfg.Features.DeviceLimiting || hasRole(s.cfg.Security.DeviceExemptRoles, account.Role) {
		return "", nil
	}

	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		deviceID = security.DeviceFingerprint(s.cfg.Security.JWTSecret, input.IPAddress, input.UserAgent)
	}

	info := agent.Parse(input.UserAgent)
	stamp := s.now().In(s.cfg.Location()).Format(models.DeviceTimeLayout)
	device := models.Device{
		DeviceID:   deviceID,
		IP:         input.IPAddress,
		Browser:    info.Browser,
		OS:         info.OS,
		DeviceType: info.Type,
		FirstLogin: stamp,
		LastLogin:  stamp,
	}

	if account.DeviceLimitations.HasDevice(deviceID) {
		touched, err := s.accounts.TouchDevice(ctx, account, device)
		if err != nil {
			return "", fmt.Errorf("update device: %w", err)
		}
		if touched {
			return deviceID, nil
		}
		// removed by an admin since we loaded the account; treat as new
	}

	appended, err := s.accounts.AppendDevice(ctx, account, device)
	if err != nil {
		return "", fmt.Errorf("append device: %w", err)
	}
	if appended {
		s.log.Info().Str("account_id", account.ID).Str("device_id", deviceID).Msg("registered new device")
		return deviceID, nil
	}

	// The guard also fails when a concurrent login registered the same id.
	touched, err := s.accounts.TouchDevice(ctx, account, device)
	if err != nil {
		return "", fmt.Errorf("update device: %w", err)
	}
	if touched {
		return deviceID, nil
	}
	return "", ErrDeviceLimitReached
}

func hasRole(roles []string, role models.Role) bool {
	return slices.Contains(roles, string(role))
}
