package otp

import (
	"context"
	"errors"
	"log"
	"time"

	"gatekeepr/src/lib/mailer"
	"gatekeepr/src/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Notifier is the slice of the dispatcher the state machine needs. Dispatch
// outcomes never influence a state transition.
type Notifier interface {
	DispatchAsync(kind mailer.Kind, recipient string, tc *mailer.TemplateContext)
}

// Service drives account verification:
// Registered -> CodeIssued -> {Verified, Expired, Exhausted}. CodeIssued is
// re-entrant; a resend replaces the pending record wholesale, resetting the
// attempt counter and expiry.
type Service struct {
	db          *gorm.DB
	store       Store
	notifier    Notifier
	ttl         time.Duration
	maxAttempts int
}

func NewService(db *gorm.DB, store Store, notifier Notifier, ttl time.Duration, maxAttempts int) *Service {
	return &Service{
		db:          db,
		store:       store,
		notifier:    notifier,
		ttl:         ttl,
		maxAttempts: maxAttempts,
	}
}

// Register creates the account in an unverified state and issues a code. A
// prior unverified registration for the same email is taken over instead of
// rejected; only a verified account blocks re-use of the address.
func (s *Service) Register(ctx context.Context, name, email, password string) (uuid.UUID, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return uuid.Nil, err
	}
	var user models.User
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Model(&models.User{}).
			Where(&models.User{Email: email}).
			First(&user).
			Error; err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			user = models.User{
				Name:         name,
				Email:        email,
				PasswordHash: string(hash),
			}
			return tx.Create(&user).Error
		}
		if user.EmailVerified {
			return ErrEmailTaken
		}
		return tx.
			Model(&models.User{}).
			Where(&models.User{ID: user.ID}).
			Updates(&models.User{Name: name, PasswordHash: string(hash)}).
			Error
	})
	if err != nil {
		return uuid.Nil, err
	}
	if err := s.issue(ctx, &user); err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}

// Verify consumes the pending record on an exact match before expiry and
// within the attempt ceiling. Once the ceiling is hit every further call
// reports exhaustion regardless of code correctness until a resend replaces
// the record.
func (s *Service) Verify(ctx context.Context, userID uuid.UUID, email, code string) error {
	rec, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}
	if rec.Expired(time.Now()) {
		if err := s.store.Delete(ctx, userID); err != nil {
			log.Printf("[otp] error deleting expired record for %s: %s\n", userID, err.Error())
		}
		return ErrExpired
	}
	if rec.Attempts >= s.maxAttempts {
		return ErrExhausted
	}
	if rec.Code != code || rec.Email != email {
		rec.Attempts++
		if err := s.store.Put(ctx, rec); err != nil {
			return err
		}
		if rec.Attempts >= s.maxAttempts {
			return ErrExhausted
		}
		return ErrInvalidCode
	}
	if err := s.store.Delete(ctx, userID); err != nil {
		return err
	}
	now := time.Now()
	return s.db.
		Model(&models.User{}).
		Where(&models.User{ID: userID}).
		Updates(&models.User{EmailVerified: true, VerifiedAt: &now}).
		Error
}

// Resend regenerates the code and expiry, unconditionally overwriting any
// pending record for the user.
func (s *Service) Resend(ctx context.Context, userID uuid.UUID, email string) error {
	var user models.User
	if err := s.db.
		Model(&models.User{}).
		Where(&models.User{ID: userID, Email: email}).
		First(&user).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return s.issue(ctx, &user)
}

func (s *Service) issue(ctx context.Context, user *models.User) error {
	code, err := GenerateCode()
	if err != nil {
		return err
	}
	now := time.Now()
	rec := models.PendingVerification{
		UserID:    user.ID,
		Email:     user.Email,
		Code:      code,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Put(ctx, &rec); err != nil {
		return err
	}
	s.notifier.DispatchAsync(mailer.KindVerifyCode, user.Email, &mailer.TemplateContext{
		Name: user.Name,
		Code: code,
	})
	return nil
}
