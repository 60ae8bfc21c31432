package usecase

import "context"

const fingerprintLen = 12

// publishAudit ships a session audit event in the background. Failures are
// logged by the goroutine manager and never reach the caller.
func (s *Usecase) publishAudit(ctx context.Context, typ, email, token, reason string) {
	if s.repoAudit == nil {
		return
	}

	ev := SessionAuditEvent{
		Type:       typ,
		Email:      email,
		Reason:     reason,
		OccurredAt: s.clock.Now(),
	}
	if token != "" && s.fingerprint != nil {
		ev.TokenFingerprint = s.fingerprint.Fingerprint(token, fingerprintLen)
	}

	s.goroutine.Go(ctx, "audit."+typ, func(ctx context.Context) error {
		return s.repoAudit.PublishSessionAudit(ctx, ev)
	})
}
