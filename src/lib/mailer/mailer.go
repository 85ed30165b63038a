package mailer

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"gatekeepr/src/lib"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

type Kind string

const (
	KindPreRegistration Kind = "pre-registration"
	KindTicket          Kind = "ticket"
	KindBroadcast       Kind = "broadcast"
	KindVerifyCode      Kind = "verify-code"
)

// TemplateContext carries everything a template kind may interpolate. Unused
// fields are ignored by the other kinds.
type TemplateContext struct {
	Name       string
	EventName  string
	EventImage string
	EventDate  time.Time
	PlaceTitle string
	TicketID   string
	Code       string
	Subject    string
	Body       string
	Recipients []string
}

// DeliveryResult reports the outcome of a single delivery attempt. The token
// is unique per attempt so duplicate sends triggered by client retries stay
// distinguishable in the logs.
type DeliveryResult struct {
	Token     uuid.UUID     `json:"token"`
	Kind      Kind          `json:"kind"`
	Recipient string        `json:"recipient"`
	Delivered bool          `json:"delivered"`
	Reason    string        `json:"reason,omitempty"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Dispatcher attempts best-effort outbound email delivery. Every send is
// bounded by its own timeout, shorter than any enclosing request timeout, and
// is never retried; retry policy belongs to callers.
type Dispatcher struct {
	client   *mail.Client
	fromName string
	fromAddr string
	timeout  time.Duration
}

func NewDispatcher(client *mail.Client, fromName, fromAddr string, timeout time.Duration) *Dispatcher {
	return &Dispatcher{
		client:   client,
		fromName: fromName,
		fromAddr: fromAddr,
		timeout:  timeout,
	}
}

// Send delivers one message and reports the outcome. It never panics the
// caller's request path; any failure comes back tagged in the result.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, recipient string, tc *TemplateContext) DeliveryResult {
	result := DeliveryResult{
		Token:     uuid.New(),
		Kind:      kind,
		Recipient: recipient,
	}
	started := time.Now()

	input, cleanup, err := d.compose(kind, recipient, tc)
	if cleanup != nil {
		defer cleanup()
	}
	if err != nil {
		result.Reason = err.Error()
		result.Elapsed = time.Since(started)
		return result
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()
	if err := lib.SendMail(sendCtx, d.client, input); err != nil {
		result.Reason = err.Error()
		result.Elapsed = time.Since(started)
		return result
	}
	result.Delivered = true
	result.Elapsed = time.Since(started)
	return result
}

// DispatchAsync hands a send off without blocking the caller. The outcome is
// reported to the log only; it must never share a failure path with the
// primary operation.
func (d *Dispatcher) DispatchAsync(kind Kind, recipient string, tc *TemplateContext) {
	go func() {
		result := d.Send(context.Background(), kind, recipient, tc)
		if result.Delivered {
			log.Printf("[mailer] delivered kind=%s to=%s token=%s elapsed=%s\n", result.Kind, result.Recipient, result.Token, result.Elapsed)
			return
		}
		log.Printf("[mailer] delivery failed kind=%s to=%s token=%s reason=%s\n", result.Kind, result.Recipient, result.Token, result.Reason)
	}()
}

func (d *Dispatcher) compose(kind Kind, recipient string, tc *TemplateContext) (*lib.SendMailInput, func(), error) {
	input := &lib.SendMailInput{
		From:     d.fromAddr,
		FromName: d.fromName,
		To:       []string{recipient},
		Html:     true,
	}
	switch kind {
	case KindPreRegistration:
		input.Subject = fmt.Sprintf("Pre-registration Confirmation for %s", tc.EventName)
		input.Body = preRegistrationBody(tc)
		return input, nil, nil
	case KindTicket:
		codePath, err := lib.TicketCodeFile(tc.TicketID)
		if err != nil {
			return nil, nil, fmt.Errorf("could not render ticket code: %s", err.Error())
		}
		cleanup := func() { os.Remove(codePath) }
		input.Subject = fmt.Sprintf("%s Ticket Confirmation", tc.EventName)
		input.Body = ticketBody(tc)
		input.Attachments = []string{codePath}
		return input, cleanup, nil
	case KindVerifyCode:
		input.Subject = "Your verification code"
		input.Body = verifyCodeBody(tc)
		return input, nil, nil
	case KindBroadcast:
		input.To = nil
		input.Bcc = tc.Recipients
		input.Subject = tc.Subject
		input.Body = tc.Body
		return input, nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown template kind: %s", kind)
	}
}

func preRegistrationBody(tc *TemplateContext) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; border: 1px solid #eee; border-radius: 8px; overflow: hidden;">
  <img src="%s" alt="Event Banner" style="width: 100%%; height: auto;" />
  <div style="padding: 20px;">
    <h2 style="font-size: 20px; font-weight: bold; margin-bottom: 10px;">Hello %s,</h2>
    <h2 style="color: #333;">You're pre-registered for <strong>%s</strong>!</h2>
    <p>Thank you for registering. More details will be shared prior to the event day.</p>
  </div>
  <div style="background-color: #f8f8f8; padding: 16px; text-align: center; font-size: 12px; color: #777;">
    <p>&copy; %d Gatekeepr</p>
  </div>
</div>`, tc.EventImage, tc.Name, tc.EventName, time.Now().Year())
}

func verifyCodeBody(tc *TemplateContext) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto;">
  <h2>Hello %s,</h2>
  <p>Enter this 6-digit code to verify your account:</p>
  <p style="font-size: 28px; font-weight: bold; letter-spacing: 6px;">%s</p>
  <p>The code expires in a few minutes. If you did not request it, ignore this email.</p>
</div>`, tc.Name, tc.Code)
}

func ticketBody(tc *TemplateContext) string {
	return fmt.Sprintf(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: auto; border: 1px solid #eee; border-radius: 8px; overflow: hidden;">
  <img src="%s" alt="Event Banner" style="width: 100%%; height: auto;" />
  <div style="padding: 20px;">
    <h2 style="color: #333;">You're registered for <strong>%s</strong>!</h2>
    <p>&#128197; <strong>Date:</strong> %s</p>
    <p>&#128205; <strong>Location:</strong> %s</p>
    <p>Thank you for registering. Your ticket is confirmed. More details will be shared closer to the event day.</p>
    <div style="margin-top: 30px; text-align: center;">
      <p style="font-weight: bold; margin-bottom: 10px;">&#127903; Your Ticket QR Code is attached.</p>
    </div>
  </div>
  <div style="background-color: #f8f8f8; padding: 16px; text-align: center; font-size: 12px; color: #777;">
    <p>&copy; %d Gatekeepr</p>
  </div>
</div>`, tc.EventImage, tc.EventName, tc.EventDate.Format("Jan 2, 2006 03:04 PM"), tc.PlaceTitle, time.Now().Year())
}
