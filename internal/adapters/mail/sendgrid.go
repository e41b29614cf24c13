package mail

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

const (
	sendGridHost     = "https://api.sendgrid.com"
	sendGridEndpoint = "/v3/mail/send"
)

// SendGridOption configures a SendGridSink.
type SendGridOption func(*SendGridSink)

// WithHost points the sink at another API host.
func WithHost(host string) SendGridOption {
	return func(s *SendGridSink) {
		if host != "" {
			s.host = host
		}
	}
}

// SendGridSink sends messages through the SendGrid v3 API.
type SendGridSink struct {
	key        string
	host       string
	from       *sgmail.Email
	subjPrefix string
}

// NewSendGridSink creates a sink sending as appName <from>.
func NewSendGridSink(key, appName, from string, opts ...SendGridOption) *SendGridSink {
	s := &SendGridSink{
		key:        key,
		host:       sendGridHost,
		from:       sgmail.NewEmail(appName, from),
		subjPrefix: "[" + appName + "] ",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *SendGridSink) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = s.subjPrefix + msg.Subject
	p.AddTos(sgmail.NewEmail("", msg.To))

	m := sgmail.NewV3Mail()
	m.SetFrom(s.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

// Send posts msg to the API. Any status of 400 or above is ErrDelivery.
func (s *SendGridSink) Send(ctx context.Context, msg Message) error {
	if err := msg.validate(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	req := sendgrid.GetRequest(s.key, sendGridEndpoint, s.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(s.prepare(msg))

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("%w: status %d", ErrDelivery, res.StatusCode)
	}
	return nil
}
