package service

import (
	"context"
	"sync"

	"github.com/cloud-wave-best-zizon/enrollment-service/internal/domain"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/events"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/gateway"
	"github.com/cloud-wave-best-zizon/enrollment-service/internal/notification"
)

type mockGateway struct {
	CreateOrderFunc func(ctx context.Context, req gateway.OrderRequest) (*domain.Order, error)
	calls           []gateway.OrderRequest
}

func (m *mockGateway) CreateOrder(ctx context.Context, req gateway.OrderRequest) (*domain.Order, error) {
	m.calls = append(m.calls, req)
	return m.CreateOrderFunc(ctx, req)
}

type sentMail struct {
	Recipient string
	Subject   string
	Body      string
}

type mockNotifier struct {
	mu   sync.Mutex
	err  error
	sent []sentMail
}

func (m *mockNotifier) Notify(_ context.Context, recipient, subject string, render notification.TemplateFunc) error {
	body, err := render()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{Recipient: recipient, Subject: subject, Body: body})
	return m.err
}

type recordingPublisher struct {
	err          error
	initiated    []events.OrderInitiatedEvent
	completed    []events.EnrollmentCompletedEvent
	compensation []events.CompensationEvent
}

func (p *recordingPublisher) PublishOrderInitiated(_ context.Context, e events.OrderInitiatedEvent) error {
	p.initiated = append(p.initiated, e)
	return p.err
}

func (p *recordingPublisher) PublishEnrollmentCompleted(_ context.Context, e events.EnrollmentCompletedEvent) error {
	p.completed = append(p.completed, e)
	return p.err
}

func (p *recordingPublisher) PublishCompensation(_ context.Context, e events.CompensationEvent) error {
	p.compensation = append(p.compensation, e)
	return p.err
}
