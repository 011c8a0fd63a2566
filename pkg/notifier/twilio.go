package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
	"go.uber.org/zap"

	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
)

// TwilioError is the error document the REST API returns on failure.
type TwilioError = twclient.TwilioRestError

// TwilioMessage is the created message resource.
type TwilioMessage = openapi.ApiV2010Message

// TwilioClient sends messages through the Twilio SDK.
type TwilioClient struct {
	rest       *twilio.RestClient
	configured bool
}

// NewTwilioClient builds an SDK client for creds. A BaseURL other than the
// public API host redirects every SDK request to that host.
func NewTwilioClient(creds config.Credentials, cfg *config.TwilioConfig) *TwilioClient {
	baseURL := config.DefaultTwilioBaseURL
	timeout := config.DefaultTwilioTimeout
	if cfg != nil {
		if cfg.BaseURL != "" {
			baseURL = cfg.BaseURL
		}
		if cfg.Timeout > 0 {
			timeout = cfg.Timeout
		}
	}

	httpClient := &http.Client{Timeout: timeout}
	if baseURL != config.DefaultTwilioBaseURL {
		if u, err := url.Parse(baseURL); err == nil && u.Host != "" {
			httpClient.Transport = &rebaseTransport{base: u, next: http.DefaultTransport}
		} else {
			logger.Warn("Ignoring invalid Twilio base URL", zap.String("base_url", baseURL))
		}
	}

	c := &twclient.Client{
		Credentials: twclient.NewCredentials(creds.AccountID, creds.AuthToken),
		HTTPClient:  httpClient,
	}
	c.SetAccountSid(creds.AccountID)

	return &TwilioClient{
		rest:       twilio.NewRestClientWithParams(twilio.ClientParams{Client: c}),
		configured: creds.AccountID != "" && creds.AuthToken != "",
	}
}

// SendSMS creates one outbound message.
func (c *TwilioClient) SendSMS(ctx context.Context, from, to, body string) (*TwilioMessage, error) {
	if !c.configured {
		return nil, fmt.Errorf("%w: twilio account or token missing", ErrNotConfigured)
	}
	// The SDK call takes no context, so cancellation is only honored up front.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetFrom(from)
	params.SetBody(body)

	logger.Debug("Sending Twilio message", zap.String("to", to), zap.Int("body_length", len(body)))
	return c.rest.Api.CreateMessage(params)
}

// rebaseTransport points requests at another scheme and host, keeping the
// path the SDK built.
type rebaseTransport struct {
	base *url.URL
	next http.RoundTripper
}

func (t *rebaseTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	r.URL.Scheme = t.base.Scheme
	r.URL.Host = t.base.Host
	r.Host = t.base.Host
	return t.next.RoundTrip(r)
}
