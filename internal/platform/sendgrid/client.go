package sendgrid

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	sg "github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/Sparkonix11/Knowtopia/internal/pkg/httpx"
	"github.com/Sparkonix11/Knowtopia/internal/platform/envutil"
	"github.com/Sparkonix11/Knowtopia/internal/platform/logger"
)

const sendEndpoint = "/v3/mail/send"

type Client interface {
	Send(ctx context.Context, msg Message) error
	Enabled() bool
}

type Config struct {
	APIKey     string
	BaseURL    string
	FromEmail  string
	FromName   string
	MaxRetries int
}

func ConfigFromEnv() Config {
	return Config{
		APIKey:     envutil.String("SENDGRID_API_KEY", ""),
		BaseURL:    envutil.String("SENDGRID_BASE_URL", "https://api.sendgrid.com"),
		FromEmail:  envutil.String("SENDGRID_FROM_EMAIL", ""),
		FromName:   envutil.String("SENDGRID_FROM_NAME", "Knowtopia"),
		MaxRetries: envutil.Int("SENDGRID_MAX_RETRIES", 3),
	}
}

type Message struct {
	ToEmail string
	ToName  string
	Subject string
	Text    string
	HTML    string
}

func NewFromEnv(log *logger.Logger) (Client, error) {
	return New(log, ConfigFromEnv())
}

// New returns a no-op client when the API key or sender address is missing.
func New(log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	clog := log.With("client", "SendGridClient")
	if strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.FromEmail) == "" {
		clog.Warn("SendGrid not configured; emails will be skipped")
		return &noopClient{log: clog}, nil
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.sendgrid.com"
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	return &client{
		log:       clog,
		cfg:       cfg,
		from:      sgmail.NewEmail(cfg.FromName, cfg.FromEmail),
		retryBase: 500 * time.Millisecond,
	}, nil
}

type client struct {
	log       *logger.Logger
	cfg       Config
	from      *sgmail.Email
	retryBase time.Duration
}

func (c *client) Enabled() bool { return true }

func (c *client) prepare(msg Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = msg.Subject
	p.AddTos(sgmail.NewEmail(msg.ToName, msg.ToEmail))

	m := sgmail.NewV3Mail()
	m.SetFrom(c.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", msg.Text))
	if msg.HTML != "" {
		m.AddContent(sgmail.NewContent("text/html", msg.HTML))
	}
	return m
}

type statusError int

func (e statusError) Error() string       { return fmt.Sprintf("sendgrid http %d", int(e)) }
func (e statusError) HTTPStatusCode() int { return int(e) }

func (c *client) Send(ctx context.Context, msg Message) error {
	if strings.TrimSpace(msg.ToEmail) == "" {
		return fmt.Errorf("missing recipient")
	}
	body := sgmail.GetRequestBody(c.prepare(msg))

	var last error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		req := sg.GetRequest(c.cfg.APIKey, sendEndpoint, c.cfg.BaseURL)
		req.Method = http.MethodPost
		req.Body = body

		res, err := sg.API(req)
		if err == nil && res.StatusCode < http.StatusBadRequest {
			c.log.Debug("Email sent", "subject", msg.Subject, "status", res.StatusCode)
			return nil
		}
		if err == nil {
			err = statusError(res.StatusCode)
		}
		last = err
		if !httpx.IsRetryableError(err) || attempt == c.cfg.MaxRetries {
			break
		}
		if err := httpx.Sleep(ctx, httpx.JitterSleep(httpx.Backoff(attempt, c.retryBase, 10*time.Second))); err != nil {
			return err
		}
	}
	return fmt.Errorf("sendgrid send: %w", last)
}

type noopClient struct {
	log *logger.Logger
}

func (n *noopClient) Enabled() bool { return false }

func (n *noopClient) Send(_ context.Context, msg Message) error {
	n.log.Debug("Email skipped", "subject", msg.Subject)
	return nil
}
