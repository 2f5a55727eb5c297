package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/crimsonops/policygen/internal/infrastructure/resilience"
)

// EventBus publishes audit events about profile assembly and policy saves.
// Consumers are external reporting tools; the service never depends on a
// publish succeeding.
type EventBus struct {
	conn     *nats.Conn
	subject  string
	executor *resilience.Executor
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
}

func New(url, subject string) (*EventBus, error) {
	return NewWithOptions(url, subject, Options{})
}

func NewWithOptions(url, subject string, options Options) (*EventBus, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name("policygen"),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			slog.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			slog.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &EventBus{
		conn:     conn,
		subject:  subject,
		executor: options.ResilienceExecutor,
	}, nil
}

func (b *EventBus) Close() {
	if b.conn != nil {
		b.conn.Close()
	}
}

type profileAssembledEvent struct {
	Event          string    `json:"event"`
	OrganizationID string    `json:"organization_id"`
	DetectedFields int       `json:"detected_fields"`
	ComplianceTags int       `json:"compliance_tags"`
	OccurredAt     time.Time `json:"occurred_at"`
}

type policySavedEvent struct {
	Event              string    `json:"event"`
	OrganizationID     string    `json:"organization_id"`
	RegistryDocumentID string    `json:"registry_document_id"`
	OccurredAt         time.Time `json:"occurred_at"`
}

func (b *EventBus) PublishProfileAssembled(ctx context.Context, orgID string, fieldCount, tagCount int) error {
	return b.publish(ctx, profileAssembledEvent{
		Event:          "profile.assembled",
		OrganizationID: orgID,
		DetectedFields: fieldCount,
		ComplianceTags: tagCount,
		OccurredAt:     time.Now().UTC(),
	})
}

func (b *EventBus) PublishPolicySaved(ctx context.Context, orgID, registryDocumentID string) error {
	return b.publish(ctx, policySavedEvent{
		Event:              "policy.saved",
		OrganizationID:     orgID,
		RegistryDocumentID: registryDocumentID,
		OccurredAt:         time.Now().UTC(),
	})
}

func (b *EventBus) publish(ctx context.Context, event any) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	call := func(_ context.Context) error {
		if err := b.conn.Publish(b.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}

	if b.executor != nil {
		return b.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	}
	return call(ctx)
}
