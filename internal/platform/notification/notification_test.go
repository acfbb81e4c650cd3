package notification

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestRenderSubstitution(t *testing.T) {
	e := NewTemplateEngine()

	channel, subject, body, err := e.Render("appointment-booked", map[string]string{
		"patient_name": "Alice Uwase",
		"doctor_name":  "Mugisha",
		"date":         "2026-09-03",
		"time":         "10:30",
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if channel != ChannelEmail {
		t.Errorf("channel = %q, want email", channel)
	}
	if subject != "Appointment confirmed for 2026-09-03" {
		t.Errorf("subject = %q", subject)
	}
	want := "Dear Alice Uwase, your appointment with Dr. Mugisha on 2026-09-03 at 10:30 has been confirmed."
	if body != want {
		t.Errorf("body = %q, want %q", body, want)
	}
}

func TestRenderLeavesUnknownPlaceholders(t *testing.T) {
	e := NewTemplateEngine()
	_, _, body, err := e.Render("order-status", map[string]string{"number": "ORD-123-0001"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if body != "CareLink order ORD-123-0001: status is now {{status}}." {
		t.Errorf("body = %q", body)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	e := NewTemplateEngine()
	if _, _, _, err := e.Render("no-such-template", nil); err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRegisterOverridesTemplate(t *testing.T) {
	e := NewTemplateEngine()
	e.Register(Template{ID: "order-status", Channel: ChannelSMS, Body: "Order {{number}} update"})
	_, _, body, err := e.Render("order-status", map[string]string{"number": "ORD-1-0001"})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if body != "Order ORD-1-0001 update" {
		t.Errorf("body = %q", body)
	}
}

func TestDispatcherRoutesByChannel(t *testing.T) {
	email := &MockEmailSender{}
	sms := &MockSMSSender{}
	d := NewDispatcher(email, sms, NewTemplateEngine(), zerolog.Nop())

	d.Notify("account-created", "alice@example.com", map[string]string{
		"name": "Alice", "role": "patient",
	})
	d.Notify("emergency-status", "+250780000001", map[string]string{
		"number": "EMG-1-0001", "status": "help-on-way",
	})
	d.Wait()

	if got := email.Calls(); len(got) != 1 || got[0].To != "alice@example.com" {
		t.Fatalf("email calls = %+v", got)
	}
	smsCalls := sms.Calls()
	if len(smsCalls) != 1 {
		t.Fatalf("sms calls = %+v", smsCalls)
	}
	if smsCalls[0].Body != "CareLink emergency EMG-1-0001: status is now help-on-way." {
		t.Errorf("sms body = %q", smsCalls[0].Body)
	}
}

func TestDispatcherSwallowsSendFailures(t *testing.T) {
	email := &MockEmailSender{ShouldFail: true}
	d := NewDispatcher(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())

	// Notify must not panic or surface the error.
	d.Notify("account-created", "bob@example.com", map[string]string{"name": "Bob", "role": "doctor"})
	d.Wait()

	if len(email.Calls()) != 1 {
		t.Fatal("send was not attempted")
	}
}

func TestDispatcherDeliversInSubmissionOrder(t *testing.T) {
	sms := &MockSMSSender{}
	d := NewDispatcher(&MockEmailSender{}, sms, NewTemplateEngine(), zerolog.Nop())

	statuses := []string{"pending", "acknowledged", "help-on-way", "on-scene", "resolved"}
	for _, st := range statuses {
		d.Notify("emergency-status", "+250780000002", map[string]string{
			"number": "EMG-1-0002", "status": st,
		})
	}
	d.Wait()

	calls := sms.Calls()
	if len(calls) != len(statuses) {
		t.Fatalf("sms calls = %d, want %d", len(calls), len(statuses))
	}
	for i, st := range statuses {
		want := "CareLink emergency EMG-1-0002: status is now " + st + "."
		if calls[i].Body != want {
			t.Errorf("calls[%d].Body = %q, want %q", i, calls[i].Body, want)
		}
	}
}

func TestDispatcherDropsEmptyRecipient(t *testing.T) {
	email := &MockEmailSender{}
	d := NewDispatcher(email, &MockSMSSender{}, NewTemplateEngine(), zerolog.Nop())
	d.Notify("account-created", "", map[string]string{"name": "X"})
	d.Wait()
	if len(email.Calls()) != 0 {
		t.Fatal("expected no send for empty recipient")
	}
}
