package push

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
)

// WebPushSender defines the interface for sending a single web push
// notification. Split out so tests can substitute the HTTP call.
type WebPushSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

type libSender struct{}

func (libSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WebPushChannel implements Channel over web push. A registration token
// is the JSON-serialized browser subscription (endpoint plus keys); the
// multicast contract is met by sending per subscription and collecting
// positionally aligned outcomes.
type WebPushChannel struct {
	options *webpush.Options
	sender  WebPushSender
}

// NewWebPushChannel creates a channel with the given VAPID options.
func NewWebPushChannel(options *webpush.Options) *WebPushChannel {
	return &WebPushChannel{options: options, sender: libSender{}}
}

// SendMulticast delivers the payload to each subscription token.
// Individual transport errors are per-token failures here, not a failure
// of the whole call, because every subscription targets a different push
// service endpoint.
func (c *WebPushChannel) SendMulticast(ctx context.Context, tokens []string, payload Payload) (*Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal web push payload: %w", err)
	}

	out := &Result{Responses: make([]TokenResult, len(tokens))}
	for i, token := range tokens {
		out.Responses[i] = c.sendOne(token, body)
		if out.Responses[i].Success {
			out.SuccessCount++
		}
	}
	return out, nil
}

func (c *WebPushChannel) sendOne(token string, body []byte) TokenResult {
	var sub webpush.Subscription
	if err := json.Unmarshal([]byte(token), &sub); err != nil || sub.Endpoint == "" {
		// Not a subscription at all; it can never deliver.
		return TokenResult{Permanent: true, ErrorCode: "malformed subscription"}
	}

	resp, err := c.sender.Send(body, &sub, c.options)
	if err != nil {
		return TokenResult{ErrorCode: err.Error()}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return TokenResult{Success: true}
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service no longer knows this subscription.
		return TokenResult{Permanent: true, ErrorCode: resp.Status}
	default:
		return TokenResult{ErrorCode: resp.Status}
	}
}
