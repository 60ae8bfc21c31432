package mq

import (
	"context"
	"encoding/json"

	"github.com/shandysiswandi/otpdash/internal/gateway/usecase"
	"github.com/shandysiswandi/otpdash/internal/pkg/instrument"
	"github.com/shandysiswandi/otpdash/internal/pkg/messaging"
	"github.com/shandysiswandi/otpdash/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Publisher
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Publisher, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

// PublishSessionAudit sends ev keyed by email so one user's events stay in
// order on brokers that partition.
func (m *Messaging) PublishSessionAudit(ctx context.Context, ev usecase.SessionAuditEvent) error {
	ctx, span := m.ins.Tracer("gateway.outbound.mq").Start(ctx, "PublishSessionAudit")
	defer span.End()

	body, err := json.Marshal(event.SessionAuditMessage{
		Type:             ev.Type,
		Email:            ev.Email,
		TokenFingerprint: ev.TokenFingerprint,
		Reason:           ev.Reason,
		OccurredAt:       ev.OccurredAt,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, event.SessionAuditDestination, messaging.OutgoingMessage{
		Body:    body,
		Key:     []byte(ev.Email),
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}
