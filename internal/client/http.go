package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"wordwarrior/internal/models"
	"wordwarrior/internal/notify"
	"wordwarrior/internal/progression"
)

// HTTPBackend talks to the JSON API and the websocket push endpoint
type HTTPBackend struct {
	baseURL string
	token   string
	client  *http.Client
	dialer  *websocket.Dialer
}

// NewHTTPBackend creates a backend for the server at baseURL acting as the token's player
func NewHTTPBackend(baseURL, token string) *HTTPBackend {
	return &HTTPBackend{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: 10 * time.Second},
		dialer:  &websocket.Dialer{HandshakeTimeout: 10 * time.Second},
	}
}

// do sends a JSON request and decodes a 200 reply into out.
// It returns the status so callers can tell 204 apart.
func (b *HTTPBackend) do(ctx context.Context, method, path string, body, out interface{}) (int, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to call %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNoContent:
		return resp.StatusCode, nil
	case resp.StatusCode != http.StatusOK:
		var apiErr struct {
			Error string `json:"error"`
		}
		json.NewDecoder(resp.Body).Decode(&apiErr)
		return resp.StatusCode, &APIError{Status: resp.StatusCode, Message: apiErr.Error}
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to decode %s %s: %w", method, path, err)
		}
	}
	return resp.StatusCode, nil
}

func (b *HTTPBackend) Join(ctx context.Context, mode models.Mode) (*JoinResult, error) {
	var res JoinResult
	if _, err := b.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(string(mode))+"/join", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) Cancel(ctx context.Context, mode models.Mode) (*JoinResult, error) {
	var res JoinResult
	if _, err := b.do(ctx, http.MethodPost, "/api/queue/"+url.PathEscape(string(mode))+"/cancel", nil, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) PollMatch(ctx context.Context, mode models.Mode) (*Match, error) {
	var match Match
	status, err := b.do(ctx, http.MethodGet, "/api/queue/"+url.PathEscape(string(mode))+"/match", nil, &match)
	if err != nil || status == http.StatusNoContent {
		return nil, err
	}
	return &match, nil
}

func (b *HTTPBackend) Room(ctx context.Context, roomID string) (*RoomView, error) {
	var view RoomView
	if _, err := b.do(ctx, http.MethodGet, "/api/rooms/"+url.PathEscape(roomID), nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (b *HTTPBackend) SubmitAnswer(ctx context.Context, roomID string, index int, correct bool, remaining time.Duration) (*SubmitResult, error) {
	body := map[string]interface{}{
		"question_index":    index,
		"is_correct":        correct,
		"time_remaining_ms": remaining.Milliseconds(),
	}
	var res SubmitResult
	if _, err := b.do(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomID)+"/answers", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) ExpireRound(ctx context.Context, roomID string, index int) (*SubmitResult, error) {
	var res SubmitResult
	if _, err := b.do(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomID)+"/timeout", map[string]int{"question_index": index}, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (b *HTTPBackend) Abandon(ctx context.Context, roomID string) error {
	_, err := b.do(ctx, http.MethodPost, "/api/rooms/"+url.PathEscape(roomID)+"/abandon", nil, nil)
	return err
}

func (b *HTTPBackend) ReportOutcome(ctx context.Context, outcome progression.BattleResult) error {
	body := map[string]string{"type": "battle_result", "result": string(outcome.Result)}
	_, err := b.do(ctx, http.MethodPost, "/api/activities", body, nil)
	return err
}

// Subscribe opens a websocket and relays events until it breaks or ctx ends
func (b *HTTPBackend) Subscribe(ctx context.Context, roomID string) (<-chan notify.Event, error) {
	u, err := url.Parse(b.baseURL + "/api/ws")
	if err != nil {
		return nil, fmt.Errorf("failed to parse server URL: %w", err)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", b.token)
	if roomID != "" {
		q.Set("room", roomID)
	}
	u.RawQuery = q.Encode()

	conn, _, err := b.dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open notification stream: %w", err)
	}

	events := make(chan notify.Event, 16)
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()
	go func() {
		defer close(events)
		defer close(done)
		defer conn.Close()
		for {
			var e notify.Event
			if err := conn.ReadJSON(&e); err != nil {
				if ctx.Err() == nil && !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
					log.Printf("Notification stream closed: %v", err)
				}
				return
			}
			select {
			case events <- e:
			default:
			}
		}
	}()
	return events, nil
}
