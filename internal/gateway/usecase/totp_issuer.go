package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/samber/lo"
	"github.com/shandysiswandi/otpdash/internal/gateway/entity"
	"github.com/shandysiswandi/otpdash/internal/pkg/clock"
	"github.com/shandysiswandi/otpdash/internal/pkg/goerror"
	"github.com/shandysiswandi/otpdash/internal/pkg/otp"
)

// TOTPIssuer derives current codes from stored secrets. It keeps no state.
type TOTPIssuer struct {
	otp   otp.OTP
	clock clock.Clocker
}

func NewTOTPIssuer(o otp.OTP, clk clock.Clocker) *TOTPIssuer {
	return &TOTPIssuer{otp: o, clock: clk}
}

// CurrentCode returns the code for secret at the clock's current time.
func (i *TOTPIssuer) CurrentCode(secret string) (string, error) {
	return i.CodeAt(secret, i.clock.Now())
}

// CodeAt returns the code for secret at the given instant.
func (i *TOTPIssuer) CodeAt(secret string, at time.Time) (string, error) {
	return i.otp.GenerateCode(secret, at)
}

// Issue computes codes for every record at one shared instant, labelling each
// with label(record). Records without a usable secret are skipped.
func (i *TOTPIssuer) Issue(ctx context.Context, records []entity.UserAuthData, label func(entity.UserAuthData) string) []entity.UserOTP {
	now := i.clock.Now()

	return lo.FilterMap(records, func(rec entity.UserAuthData, _ int) (entity.UserOTP, bool) {
		code, err := i.CodeAt(rec.OTPSecret, now)
		switch {
		case err == nil:
			return entity.UserOTP{Email: label(rec), Code: code}, true
		case errors.Is(err, goerror.ErrMissingSecret):
			slog.DebugContext(ctx, "user has no otp secret", "id", rec.ID)
		case errors.Is(err, goerror.ErrInvalidSecret):
			slog.WarnContext(ctx, "user otp secret is not valid base32", "id", rec.ID)
		default:
			slog.ErrorContext(ctx, "failed to generate otp code", "id", rec.ID, "error", err)
		}
		return entity.UserOTP{}, false
	})
}
