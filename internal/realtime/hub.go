package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Tom21-xd/Uceva-sub002/internal/api"
	"github.com/Tom21-xd/Uceva-sub002/internal/models"
)

// ErrClosedByServer the hub sent a close message that does not allow reconnecting.
var ErrClosedByServer = errors.New("hub closed the connection")

// EventSink receives every event after it is published on Events.
type EventSink interface {
	Publish(ctx context.Context, ev models.CaseEvent) error
}

// Options hub connection parameters
type Options struct {
	URL            string // hub endpoint, e.g. http://host/hubs/cases
	ReconnectDelay time.Duration
	Tokens         api.TokenSource
	Sink           EventSink // optional
}

// HubClient listens to the case hub and republishes its invocations as
// models.CaseEvent values.
type HubClient struct {
	opts   Options
	http   *resty.Client
	dialer *websocket.Dialer
	events chan models.CaseEvent
	logger *zap.Logger
}

func NewHubClient(opts Options, logger *zap.Logger) *HubClient {
	if opts.ReconnectDelay <= 0 {
		opts.ReconnectDelay = 5 * time.Second
	}
	return &HubClient{
		opts:   opts,
		http:   resty.New().SetTimeout(15 * time.Second),
		dialer: &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		events: make(chan models.CaseEvent, 64),
		logger: logger,
	}
}

// Events stream of case events. Closed when Run returns.
func (h *HubClient) Events() <-chan models.CaseEvent { return h.events }

// Run keeps a hub connection open until ctx ends, reconnecting after a fixed
// delay whenever the connection drops. A server close without permission to
// reconnect ends Run with ErrClosedByServer.
func (h *HubClient) Run(ctx context.Context) error {
	defer close(h.events)
	for attempt := 1; ; attempt++ {
		err := h.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if errors.Is(err, ErrClosedByServer) {
			h.logger.Warn("Hub closed the connection", zap.Error(err))
			return err
		}
		h.logger.Warn("Hub connection lost, reconnecting",
			zap.Int("attempt", attempt),
			zap.Duration("delay", h.opts.ReconnectDelay),
			zap.Error(err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(h.opts.ReconnectDelay):
		}
	}
}

type negotiateResponse struct {
	ConnectionID        string `json:"connectionId"`
	ConnectionToken     string `json:"connectionToken"`
	URL                 string `json:"url"`
	AccessToken         string `json:"accessToken"`
	Error               string `json:"error"`
	AvailableTransports []struct {
		Transport string `json:"transport"`
	} `json:"availableTransports"`
}

// negotiate obtains the connection token and returns the websocket URL. One
// redirect to another endpoint is followed.
func (h *HubClient) negotiate(ctx context.Context) (string, string, error) {
	endpoint := strings.TrimRight(h.opts.URL, "/")
	token := h.token()
	for redirects := 0; redirects < 2; redirects++ {
		req := h.http.R().SetContext(ctx).SetQueryParam("negotiateVersion", "1")
		if token != "" {
			req.SetAuthToken(token)
		}
		resp, err := req.Post(endpoint + "/negotiate")
		if err != nil {
			return "", "", fmt.Errorf("negotiate: %w", err)
		}
		if resp.IsError() {
			return "", "", fmt.Errorf("negotiate: status %d", resp.StatusCode())
		}
		var n negotiateResponse
		if err := json.Unmarshal(resp.Body(), &n); err != nil {
			return "", "", fmt.Errorf("negotiate: decode: %w", err)
		}
		if n.Error != "" {
			return "", "", fmt.Errorf("negotiate: %s", n.Error)
		}
		if n.URL != "" {
			endpoint, token = strings.TrimRight(n.URL, "/"), n.AccessToken
			continue
		}
		if !supportsWebSockets(n) {
			return "", "", errors.New("negotiate: hub does not offer WebSockets")
		}
		id := n.ConnectionToken
		if id == "" {
			id = n.ConnectionID
		}
		wsURL, err := websocketURL(endpoint, id, token)
		return wsURL, token, err
	}
	return "", "", errors.New("negotiate: too many redirects")
}

func supportsWebSockets(n negotiateResponse) bool {
	if len(n.AvailableTransports) == 0 {
		return true
	}
	for _, t := range n.AvailableTransports {
		if t.Transport == "WebSockets" {
			return true
		}
	}
	return false
}

func websocketURL(endpoint, connectionID, token string) (string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported hub url scheme %q", u.Scheme)
	}
	q := u.Query()
	if connectionID != "" {
		q.Set("id", connectionID)
	}
	if token != "" {
		q.Set("access_token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (h *HubClient) token() string {
	if h.opts.Tokens == nil {
		return ""
	}
	return h.opts.Tokens.AccessToken()
}

// session runs one connection from negotiation to disconnect.
func (h *HubClient) session(ctx context.Context) error {
	wsURL, token, err := h.negotiate(ctx)
	if err != nil {
		return err
	}
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}
	conn, _, err := h.dialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return fmt.Errorf("dial hub: %w", err)
	}
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	if err := conn.WriteMessage(websocket.TextMessage, handshakeRequest); err != nil {
		return fmt.Errorf("send handshake: %w", err)
	}
	_, first, err := conn.ReadMessage()
	if err != nil {
		return fmt.Errorf("read handshake: %w", err)
	}
	records := splitRecords(first)
	if len(records) == 0 {
		return errors.New("empty handshake response")
	}
	var hs handshakeResponse
	if err := json.Unmarshal(records[0], &hs); err != nil {
		return fmt.Errorf("decode handshake: %w", err)
	}
	if hs.Error != "" {
		return fmt.Errorf("handshake rejected: %s", hs.Error)
	}
	h.logger.Info("Connected to case hub", zap.String("url", h.opts.URL))

	// records that arrived together with the handshake
	if err := h.handle(ctx, conn, records[1:]); err != nil {
		return err
	}
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if err := h.handle(ctx, conn, splitRecords(data)); err != nil {
			return err
		}
	}
}

func (h *HubClient) handle(ctx context.Context, conn *websocket.Conn, records [][]byte) error {
	for _, rec := range records {
		var f frame
		if err := json.Unmarshal(rec, &f); err != nil {
			h.logger.Warn("Discarding malformed hub message", zap.Error(err))
			continue
		}
		switch f.Type {
		case msgInvocation:
			ev, err := decodeCaseEvent(f)
			if err != nil {
				h.logger.Warn("Ignoring hub invocation", zap.String("target", f.Target), zap.Error(err))
				continue
			}
			if err := h.publish(ctx, ev); err != nil {
				return err
			}
		case msgPing:
			if err := conn.WriteMessage(websocket.TextMessage, pingRecord); err != nil {
				return fmt.Errorf("answer ping: %w", err)
			}
		case msgClose:
			if f.AllowReconnect {
				return fmt.Errorf("hub closed the connection: %s", f.Error)
			}
			if f.Error != "" {
				return fmt.Errorf("%w: %s", ErrClosedByServer, f.Error)
			}
			return ErrClosedByServer
		case msgStreamItem, msgCompletion, msgStreamInvocation, msgCancelInvocation:
			// no streaming or client-invoked methods on this hub
		default:
			h.logger.Debug("Unknown hub message type", zap.Int("type", f.Type))
		}
	}
	return nil
}

func (h *HubClient) publish(ctx context.Context, ev models.CaseEvent) error {
	h.logger.Debug("Case event received",
		zap.String("kind", ev.Kind),
		zap.Int("case_id", ev.CaseID),
	)
	select {
	case h.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	}
	if h.opts.Sink != nil {
		if err := h.opts.Sink.Publish(ctx, ev); err != nil {
			h.logger.Error("Failed to forward case event", zap.Int("case_id", ev.CaseID), zap.Error(err))
		}
	}
	return nil
}
