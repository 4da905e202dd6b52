// Package push delivers mobile notifications through the Expo push service.
//
// Delivery is strictly best effort: it runs after the triggering request has
// already been decided and any failure is logged and swallowed. The one piece
// of bookkeeping is token hygiene — when the provider reports a device as no
// longer registered, that token is marked inactive so it is skipped next time.
package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// TokenStore provides device-token lookups for the dispatcher.
type TokenStore interface {
	ActiveTokens(ctx context.Context, userID string) ([]string, error)
	DeactivateToken(ctx context.Context, token string) error
}

// Message is one Expo push message.
type Message struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Sound    string         `json:"sound"`
	Badge    int            `json:"badge"`
	Data     map[string]any `json:"data,omitempty"`
	Priority string         `json:"priority"`
}

// receipt is the per-message delivery status returned by the provider.
type receipt struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Notifier submits batched notifications to the push provider.
type Notifier struct {
	Store  TokenStore
	URL    string
	Client *http.Client
	Log    zerolog.Logger
}

// NewNotifier builds a Notifier with a bounded-timeout HTTP client.
func NewNotifier(store TokenStore, url string, timeout time.Duration, log zerolog.Logger) *Notifier {
	return &Notifier{
		Store:  store,
		URL:    url,
		Client: &http.Client{Timeout: timeout},
		Log:    log,
	}
}

// NotifyUser sends title/body to every active device of userID.
func (n *Notifier) NotifyUser(ctx context.Context, userID, title, body string, data map[string]any) error {
	tokens, err := n.Store.ActiveTokens(ctx, userID)
	if err != nil {
		return fmt.Errorf("push: token lookup for %s: %w", userID, err)
	}
	if len(tokens) == 0 {
		n.Log.Debug().Str("user", userID).Msg("push: no active tokens")
		return nil
	}

	payload := map[string]any{"timestamp": time.Now().UTC().Format(time.RFC3339)}
	for k, v := range data {
		payload[k] = v
	}

	messages := make([]Message, len(tokens))
	for i, tok := range tokens {
		messages[i] = Message{
			To:       tok,
			Title:    title,
			Body:     body,
			Sound:    "default",
			Badge:    1,
			Data:     payload,
			Priority: "high",
		}
	}

	receipts, err := n.send(ctx, messages)
	if err != nil {
		return err
	}

	for i, r := range receipts {
		if i >= len(tokens) {
			break
		}
		if r.Status == "error" && r.Message == "DeviceNotRegistered" {
			if err := n.Store.DeactivateToken(ctx, tokens[i]); err != nil {
				n.Log.Error().Err(err).Str("token", tokens[i]).Msg("push: deactivate failed")
				continue
			}
			n.Log.Info().Str("token", tokens[i]).Msg("push: token deactivated")
		}
	}
	return nil
}

// NotifyUsers fans NotifyUser out over userIDs; per-user failures are logged
// and do not stop the remaining deliveries.
func (n *Notifier) NotifyUsers(ctx context.Context, userIDs []string, title, body string, data map[string]any) {
	for _, uid := range userIDs {
		if err := n.NotifyUser(ctx, uid, title, body, data); err != nil {
			n.Log.Error().Err(err).Str("user", uid).Msg("push: delivery failed")
		}
	}
}

func (n *Notifier) send(ctx context.Context, messages []Message) ([]receipt, error) {
	buf, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("push: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.URL, bytes.NewReader(buf))
	if err != nil {
		return nil, fmt.Errorf("push: request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("push: send: %w", err)
	}
	defer resp.Body.Close()

	var out struct {
		Data []receipt `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("push: decode response: %w", err)
	}
	return out.Data, nil
}
