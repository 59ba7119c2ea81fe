package utils

import (
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPClient is a wrapper around the resty.Client HTTP client.
// It embeds *resty.Client to expose all of its methods directly,
// while allowing extension with additional application-specific behavior.
//
// Example usage:
//
//	client := utils.NewHTTPClient(2 * time.Second)
//	resp, err := client.R().SetBody(msg).Post("https://mailer.local/send")
type HTTPClient struct {
	*resty.Client
}

// NewHTTPClient creates an HTTPClient with a JSON content type, the given
// per-request timeout and a single retry on transport errors.
//
// Each call returns an independent client instance with its own
// configuration, connection pool, and state.
func NewHTTPClient(timeout time.Duration) *HTTPClient {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(1)

	return &HTTPClient{Client: client}
}
