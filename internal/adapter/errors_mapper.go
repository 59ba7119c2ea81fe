package adapter

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// mapWebhookError turns a non-2xx webhook response into a sentinel error.
// 4xx means the message itself was refused; everything else is treated as
// the receiver being unavailable.
func mapWebhookError(resp *resty.Response) error {
	if resp.IsSuccess() {
		return nil
	}

	body := strings.TrimSpace(string(resp.Body()))
	if body == "" {
		body = http.StatusText(resp.StatusCode())
	}

	if resp.StatusCode() >= http.StatusBadRequest && resp.StatusCode() < http.StatusInternalServerError {
		return fmt.Errorf("%w: http %d: %s", ErrWebhookRejected, resp.StatusCode(), body)
	}
	return fmt.Errorf("%w: http %d: %s", ErrWebhookUnavailable, resp.StatusCode(), body)
}
