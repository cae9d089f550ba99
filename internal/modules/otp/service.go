// README: OTP service; single-use trip-start codes with an attempt limit.
package otp

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"cabdesk/internal/types"
)

var (
	// ErrMismatch covers a wrong, expired, or already consumed code.
	ErrMismatch        = errors.New("otp mismatch")
	ErrTooManyAttempts = errors.New("otp attempt limit reached")
)

const CodeLength = 6

type Service struct {
	store       *Store
	ttl         time.Duration
	maxAttempts int
}

func NewService(store *Store, ttl time.Duration, maxAttempts int) *Service {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &Service{store: store, ttl: ttl, maxAttempts: maxAttempts}
}

// Issue generates a fresh code for the booking, overwriting any prior
// unconsumed code and resetting the attempt counter.
func (s *Service) Issue(ctx context.Context, bookingID types.ID) (string, error) {
	code := GenerateCode()
	if err := s.store.Put(ctx, bookingID, code, s.ttl); err != nil {
		return "", err
	}
	return code, nil
}

// Verify succeeds only on an exact match with the stored code and
// consumes it. A mismatch leaves the code in place but counts against
// the attempt limit; hitting the limit invalidates the code so the
// driver has to request a fresh one.
func (s *Service) Verify(ctx context.Context, bookingID types.ID, code string) error {
	stored, ok, err := s.store.GetCode(ctx, bookingID)
	if err != nil {
		return err
	}
	if !ok {
		return ErrMismatch
	}
	if stored != code {
		attempts, err := s.store.BumpAttempts(ctx, bookingID, s.ttl)
		if err != nil {
			return err
		}
		if attempts >= int64(s.maxAttempts) {
			if err := s.store.Clear(ctx, bookingID); err != nil {
				return err
			}
			return ErrTooManyAttempts
		}
		return ErrMismatch
	}

	consumed, err := s.store.Consume(ctx, bookingID)
	if err != nil {
		return err
	}
	// A concurrent reissue can swap the code between read and consume;
	// in that case the submitted code no longer matches what was taken.
	if consumed != code {
		return ErrMismatch
	}
	return nil
}

// GenerateCode returns a fixed-length numeric code.
func GenerateCode() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	n := binary.BigEndian.Uint32(b[:]) % 1000000
	return fmt.Sprintf("%06d", n)
}
