// Package notification delivers Email/SMS messages for domain events
// (emergency updates, order progress, appointment bookings). Delivery is
// fire-and-forget: a failed send is logged and dropped, never retried, and
// never fails the request that triggered it.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Channel is the delivery channel for a message.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// EmailSender sends email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// SMSSender sends SMS messages.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// LogEmailSender writes messages to the log instead of delivering them.
// Used until a real provider is configured.
type LogEmailSender struct {
	Log zerolog.Logger
}

func (s *LogEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	s.Log.Info().Str("to", to).Str("subject", subject).Str("body", body).Msg("email")
	return nil
}

// LogSMSSender writes messages to the log instead of delivering them.
type LogSMSSender struct {
	Log zerolog.Logger
}

func (s *LogSMSSender) SendSMS(_ context.Context, to, body string) error {
	s.Log.Info().Str("to", to).Str("body", body).Msg("sms")
	return nil
}

// Template is a reusable message with {{key}} placeholders.
type Template struct {
	ID      string
	Channel Channel
	Subject string
	Body    string
}

// TemplateEngine registers templates and renders them with data maps.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{templates: make(map[string]*Template)}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      "account-created",
			Channel: ChannelEmail,
			Subject: "Welcome to CareLink",
			Body:    "Dear {{name}}, your {{role}} account has been created. You can now log in with your email address.",
		},
		{
			ID:      "appointment-booked",
			Channel: ChannelEmail,
			Subject: "Appointment confirmed for {{date}}",
			Body:    "Dear {{patient_name}}, your appointment with Dr. {{doctor_name}} on {{date}} at {{time}} has been confirmed.",
		},
		{
			ID:      "emergency-status",
			Channel: ChannelSMS,
			Body:    "CareLink emergency {{number}}: status is now {{status}}.",
		},
		{
			ID:      "order-status",
			Channel: ChannelSMS,
			Body:    "CareLink order {{number}}: status is now {{status}}.",
		},
		{
			ID:      "prescription-issued",
			Channel: ChannelEmail,
			Subject: "New prescription from Dr. {{doctor_name}}",
			Body:    "Dear {{patient_name}}, Dr. {{doctor_name}} has issued you a prescription for {{medication}}. It expires on {{expires}}.",
		},
		{
			ID:      "hospital-approved",
			Channel: ChannelEmail,
			Subject: "Your hospital has been approved",
			Body:    "Dear {{name}}, {{hospital_name}} has been approved on CareLink and is now visible to patients.",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// Register adds or replaces a template.
func (e *TemplateEngine) Register(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render performs {{key}} substitution. Placeholders with no matching data
// key are left as written.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (Channel, string, string, error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject, body := t.Subject, t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return t.Channel, subject, body, nil
}

// Dispatcher renders templates and sends the result on the template's
// channel. Notify returns immediately; a single background worker delivers
// queued messages in submission order, so successive updates to the same
// recipient never arrive out of order.
type Dispatcher struct {
	email     EmailSender
	sms       SMSSender
	templates *TemplateEngine
	log       zerolog.Logger
	timeout   time.Duration

	queue chan queuedMessage
	wg    sync.WaitGroup
}

type queuedMessage struct {
	templateID string
	channel    Channel
	recipient  string
	subject    string
	body       string
}

func NewDispatcher(email EmailSender, sms SMSSender, tpl *TemplateEngine, log zerolog.Logger) *Dispatcher {
	d := &Dispatcher{
		email:     email,
		sms:       sms,
		templates: tpl,
		log:       log,
		timeout:   10 * time.Second,
		queue:     make(chan queuedMessage, 64),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for m := range d.queue {
		d.send(m)
		d.wg.Done()
	}
}

func (d *Dispatcher) send(m queuedMessage) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	var sendErr error
	switch m.channel {
	case ChannelEmail:
		sendErr = d.email.SendEmail(ctx, m.recipient, m.subject, m.body)
	case ChannelSMS:
		sendErr = d.sms.SendSMS(ctx, m.recipient, m.body)
	default:
		sendErr = fmt.Errorf("unsupported channel %q", m.channel)
	}
	if sendErr != nil {
		d.log.Error().Err(sendErr).
			Str("template", m.templateID).
			Str("channel", string(m.channel)).
			Msg("notification send failed")
	}
}

// Notify renders templateID with data and queues it for delivery to
// recipient. Render failures are logged; the caller is never blocked or
// failed by delivery problems.
func (d *Dispatcher) Notify(templateID, recipient string, data map[string]string) {
	channel, subject, body, err := d.templates.Render(templateID, data)
	if err != nil {
		d.log.Error().Err(err).Str("template", templateID).Msg("notification render failed")
		return
	}
	if recipient == "" {
		d.log.Warn().Str("template", templateID).Msg("notification dropped: empty recipient")
		return
	}

	d.wg.Add(1)
	d.queue <- queuedMessage{
		templateID: templateID,
		channel:    channel,
		recipient:  recipient,
		subject:    subject,
		body:       body,
	}
}

// Wait blocks until all in-flight sends finish. Intended for shutdown and
// tests.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// EmailCall records one SendEmail invocation on the mock sender.
type EmailCall struct {
	To      string
	Subject string
	Body    string
}

// MockEmailSender records calls for assertions in tests.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
}

func (m *MockEmailSender) SendEmail(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: to, Subject: subject, Body: body})
	if m.ShouldFail {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}

// SMSCall records one SendSMS invocation on the mock sender.
type SMSCall struct {
	To   string
	Body string
}

// MockSMSSender records calls for assertions in tests.
type MockSMSSender struct {
	mu         sync.Mutex
	calls      []SMSCall
	ShouldFail bool
}

func (m *MockSMSSender) SendSMS(_ context.Context, to, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, SMSCall{To: to, Body: body})
	if m.ShouldFail {
		return errors.New("sms gateway unavailable")
	}
	return nil
}

func (m *MockSMSSender) Calls() []SMSCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SMSCall, len(m.calls))
	copy(out, m.calls)
	return out
}
