package otp

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
)

// OTP derives time-based one-time codes from shared secrets.
type OTP interface {
	// GenerateCode returns the code for secret at the given instant.
	GenerateCode(secret string, at time.Time) (string, error)
	// Validate checks whether a code is valid at the given time.
	Validate(code, secret string, at time.Time) bool
	// Period is the length of one time step.
	Period() time.Duration
}

// TOTP implements OTP per RFC 6238 with HMAC-SHA1.
type TOTP struct {
	period uint
	skew   uint
	digits otp.Digits
}

// NewTOTP constructs a TOTP instance.
//
// If digits is not 6 or 8, it falls back to 6 digits. If period is 0, it uses
// the common 30-second period. Skew only widens Validate; generated codes
// always belong to the exact step containing the instant.
func NewTOTP(period, skew uint, digits otp.Digits) *TOTP {
	if digits != otp.DigitsSix && digits != otp.DigitsEight {
		digits = otp.DigitsSix
	}

	if period == 0 {
		period = 30
	}

	return &TOTP{
		period: period,
		skew:   skew,
		digits: digits,
	}
}

// GenerateCode creates a TOTP code for the given secret and time.
//
// Whitespace and lowercase letters in the secret are tolerated. An empty secret
// fails with goerror.ErrMissingSecret and undecodable base32 with
// goerror.ErrInvalidSecret.
func (o *TOTP) GenerateCode(secret string, at time.Time) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", goerror.ErrMissingSecret
	}

	code, err := totp.GenerateCodeCustom(secret, at, totp.ValidateOpts{
		Period:    o.period,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})
	if errors.Is(err, otp.ErrValidateSecretInvalidBase32) {
		return "", fmt.Errorf("%w: %w", goerror.ErrInvalidSecret, err)
	}
	if err != nil {
		return "", err
	}

	return code, nil
}

// Validate checks whether a code is valid at the given time, allowing skew
// steps on either side.
func (o *TOTP) Validate(code, secret string, at time.Time) bool {
	rv, err := totp.ValidateCustom(code, secret, at, totp.ValidateOpts{
		Period:    o.period,
		Skew:      o.skew,
		Digits:    o.digits,
		Algorithm: otp.AlgorithmSHA1,
	})

	return rv && err == nil
}

// Period is the length of one time step.
func (o *TOTP) Period() time.Duration {
	return time.Duration(o.period) * time.Second
}
