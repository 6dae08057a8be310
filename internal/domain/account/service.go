package account

import (
	"context"
	"errors"
	"fmt"

	"github.com/pquerna/otp/totp"

	"dawaam/internal/domain/auth"
	cryptoutil "dawaam/internal/platform/crypto"
)

var (
	ErrBadCredentials = errors.New("account: invalid email or password")
	ErrMFACodeInvalid = errors.New("account: invalid MFA code")
	ErrWeakPassword   = errors.New("account: password too short")
)

const minPasswordLength = 10

type Service struct {
	Store  *Store
	Crypto *cryptoutil.Service
}

func NewService(store *Store, crypto *cryptoutil.Service) *Service {
	return &Service{Store: store, Crypto: crypto}
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*Account, error) {
	if !auth.ValidRole(in.Role) {
		return nil, fmt.Errorf("account: unknown role %q", in.Role)
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	acc := &Account{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Role:         in.Role,
		Company:      in.Company,
		Phone:        in.Phone,
		PasswordHash: hash,
	}
	id, err := s.Store.Create(ctx, acc)
	if err != nil {
		return nil, err
	}
	return s.Store.Get(ctx, id)
}

// Authenticate checks the password and, when MFA is enabled, the TOTP
// code. The caller issues the JWT on success.
func (s *Service) Authenticate(ctx context.Context, email, password, mfaCode string) (*Account, error) {
	acc, err := s.Store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if !acc.Active {
		return nil, ErrInactive
	}
	if err := auth.CheckPassword(acc.PasswordHash, password); err != nil {
		return nil, ErrBadCredentials
	}
	if acc.MFAEnabled {
		secret, err := s.mfaSecret(ctx, acc.ID)
		if err != nil {
			return nil, err
		}
		if !totp.Validate(mfaCode, secret) {
			return nil, ErrMFACodeInvalid
		}
	}
	if err := s.Store.UpdateLastLogin(ctx, acc.ID); err != nil {
		return nil, err
	}
	return acc, nil
}

// ChangePassword lets an account rotate its own password after proving
// it knows the current one.
func (s *Service) ChangePassword(ctx context.Context, accountID int64, currentPassword, newPassword string) error {
	if len(newPassword) < minPasswordLength {
		return ErrWeakPassword
	}
	acc, err := s.Store.Get(ctx, accountID)
	if err != nil {
		return err
	}
	if err := auth.CheckPassword(acc.PasswordHash, currentPassword); err != nil {
		return ErrBadCredentials
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.Store.UpdatePassword(ctx, accountID, hash)
}

// BeginMFASetup generates a fresh TOTP secret, stores it encrypted with
// MFA disabled, and returns the provisioning URL for an authenticator app.
func (s *Service) BeginMFASetup(ctx context.Context, accountID int64, email string) (string, error) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "Dawaam Portal", AccountName: email})
	if err != nil {
		return "", fmt.Errorf("generate totp secret: %w", err)
	}
	enc, err := s.Crypto.EncryptString(key.Secret())
	if err != nil {
		return "", fmt.Errorf("encrypt totp secret: %w", err)
	}
	if err := s.Store.UpdateMFASecret(ctx, accountID, enc); err != nil {
		return "", err
	}
	return key.URL(), nil
}

// ConfirmMFASetup validates the first code from the authenticator and
// turns MFA on.
func (s *Service) ConfirmMFASetup(ctx context.Context, accountID int64, code string) error {
	secret, err := s.mfaSecret(ctx, accountID)
	if err != nil {
		return err
	}
	if !totp.Validate(code, secret) {
		return ErrMFACodeInvalid
	}
	return s.Store.SetMFAEnabled(ctx, accountID, true)
}

func (s *Service) mfaSecret(ctx context.Context, accountID int64) (string, error) {
	enc, err := s.Store.GetMFASecret(ctx, accountID)
	if err != nil {
		return "", err
	}
	if len(enc) == 0 {
		return "", ErrMFACodeInvalid
	}
	secret, err := s.Crypto.DecryptString(enc)
	if err != nil {
		return "", fmt.Errorf("decrypt totp secret: %w", err)
	}
	return secret, nil
}
