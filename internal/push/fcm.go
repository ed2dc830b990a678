package push

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// FCMChannel sends notifications through Firebase Cloud Messaging.
type FCMChannel struct {
	client *messaging.Client
}

// NewFCMChannel creates a channel from a service account credentials file.
func NewFCMChannel(ctx context.Context, credentialsFile string) (*FCMChannel, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("init firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("init fcm client: %w", err)
	}
	return &FCMChannel{client: client}, nil
}

// SendMulticast delivers the payload to all tokens in one FCM batch call.
func (c *FCMChannel) SendMulticast(ctx context.Context, tokens []string, payload Payload) (*Result, error) {
	msg := &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: payload.Title,
			Body:  payload.Body,
		},
		Data: payload.Data,
	}

	resp, err := c.client.SendEachForMulticast(ctx, msg)
	if err != nil {
		return nil, fmt.Errorf("fcm multicast: %w", err)
	}

	out := &Result{
		SuccessCount: resp.SuccessCount,
		Responses:    make([]TokenResult, len(resp.Responses)),
	}
	for i, r := range resp.Responses {
		tr := TokenResult{Success: r.Success}
		if r.Error != nil {
			tr.ErrorCode = r.Error.Error()
			// Unregistered or malformed tokens will never deliver again.
			tr.Permanent = messaging.IsUnregistered(r.Error) || messaging.IsInvalidArgument(r.Error)
		}
		out.Responses[i] = tr
	}
	return out, nil
}
