// Package remote drives a synthesis backend that lives behind a socket.io
// server. Every call is an emitted event carrying a correlation id; the
// server answers with "<event>_result" echoing that id.
package remote

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/axisgrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// DefaultTimeout bounds a single request/response exchange.
const DefaultTimeout = 5 * time.Minute

const connectTimeout = 15 * time.Second

// ErrTimeout is returned when no result event arrives in time.
var ErrTimeout = errors.New("timed out waiting for backend response")

// Transport is the part of a socket.io socket the client needs.
type Transport interface {
	Emit(event string, payload any)
	On(event string, fn func(args ...any))
}

// DialConfig describes how to reach the socket.io server.
type DialConfig struct {
	URL                string
	Namespace          string
	InsecureSkipVerify bool
	Timeout            time.Duration
}

type socketTransport struct {
	io *socket.Socket
}

func (s *socketTransport) Emit(event string, payload any) {
	s.io.Emit(event, payload)
}

func (s *socketTransport) On(event string, fn func(args ...any)) {
	s.io.On(types.EventName(event), fn)
}

// Dial connects to the server and returns a ready client. The returned
// close function disconnects the socket.
func Dial(ctx context.Context, cfg DialConfig) (*Client, func(), error) {
	logger := ctxlog.FromContext(ctx).With("backend", "socketio", "url", cfg.URL)
	logger.Info("Connecting to synthesis backend...")

	parsedURL, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse backend URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	if cfg.InsecureSkipVerify {
		logger.Warn("Skipping TLS certificate verification")
		opts.SetTLSClientConfig(&tls.Config{InsecureSkipVerify: true})
	}
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connected := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket(cfg.Namespace, opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Info("Connected", "sid", io.Id())
		connected <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		err, _ := errs[0].(error)
		if err == nil {
			err = fmt.Errorf("%v", errs[0])
		}
		connected <- err
	})

	io.Connect()

	select {
	case err := <-connected:
		if err != nil {
			io.Disconnect()
			return nil, nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
	case <-ctx.Done():
		io.Disconnect()
		return nil, nil, fmt.Errorf("context cancelled while waiting for socket.io connection")
	case <-time.After(connectTimeout):
		io.Disconnect()
		return nil, nil, fmt.Errorf("timed out after %v waiting for socket.io connection", connectTimeout)
	}

	client := NewClient(&socketTransport{io: io}, cfg.Timeout)
	closeFn := func() {
		logger.Info("Disconnecting from synthesis backend", "sid", io.Id())
		io.Disconnect()
	}
	return client, closeFn, nil
}

type envelope struct {
	ID    string `json:"id"`
	Error string `json:"error,omitempty"`
}

// Client multiplexes concurrent requests over one transport.
type Client struct {
	t       Transport
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]chan []byte
}

// NewClient wraps t. A non-positive timeout selects DefaultTimeout.
func NewClient(t Transport, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	c := &Client{t: t, timeout: timeout, pending: make(map[string]chan []byte)}
	for _, ev := range []string{eventRender, eventReloadModel, eventReloadVAE, eventCatalog, eventExtension} {
		t.On(ev+"_result", c.dispatch)
	}
	return c
}

func (c *Client) dispatch(args ...any) {
	if len(args) == 0 {
		return
	}
	raw, err := json.Marshal(args[0])
	if err != nil {
		return
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil || env.ID == "" {
		return
	}
	c.mu.Lock()
	ch, ok := c.pending[env.ID]
	delete(c.pending, env.ID)
	c.mu.Unlock()
	if ok {
		ch <- raw
	}
}

// call emits event with payload and decodes the matching result into out.
func (c *Client) call(ctx context.Context, event string, payload map[string]any, out any) error {
	id := uuid.New().String()
	ch := make(chan []byte, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	payload["id"] = id
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Emitting backend request", "event", event, "id", id)

	opCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	c.t.Emit(event, payload)

	select {
	case raw := <-ch:
		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil {
			return fmt.Errorf("malformed %s result: %w", event, err)
		}
		if env.Error != "" {
			return fmt.Errorf("backend %s failed: %s", event, env.Error)
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("malformed %s result: %w", event, err)
		}
		return nil
	case <-opCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s after %v", ErrTimeout, event, c.timeout)
	}
}
