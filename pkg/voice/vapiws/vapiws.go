// Package vapiws implements voice.Session against a hosted voice-call vendor
// that exposes a WebSocket control API.
//
// The client dials the vendor, sends a single start frame describing the
// conversation (workflow reference or inline assistant instructions), then
// consumes JSON event frames until the socket closes. Event frames map 1:1
// onto [voice.Event] values.
package vapiws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/coder/websocket"

	"github.com/voxprep/voxprep/pkg/voice"
)

// Client creates vendor call sessions. One Client is shared by all sessions;
// each Start dials a fresh control connection.
type Client struct {
	serverURL string
	apiKey    string
}

// NewClient creates a Client for the vendor control API at serverURL
// (a ws:// or wss:// base URL). apiKey must be non-empty.
func NewClient(serverURL, apiKey string) (*Client, error) {
	if serverURL == "" {
		return nil, errors.New("vapiws: serverURL must not be empty")
	}
	if apiKey == "" {
		return nil, errors.New("vapiws: apiKey must not be empty")
	}
	if _, err := url.Parse(serverURL); err != nil {
		return nil, fmt.Errorf("vapiws: invalid server URL: %w", err)
	}
	return &Client{serverURL: serverURL, apiKey: apiKey}, nil
}

// NewSession returns an unstarted session. The connection is not dialed until
// [Session.Start].
func (c *Client) NewSession() *Session {
	return &Session{
		client: c,
		events: make(chan voice.Event, 64),
	}
}

// startFrame is the first frame sent after dialing, describing the call.
type startFrame struct {
	Type         string            `json:"type"`
	WorkflowID   string            `json:"workflowId,omitempty"`
	Variables    map[string]string `json:"variableValues,omitempty"`
	SystemPrompt string            `json:"systemPrompt,omitempty"`
	FirstMessage string            `json:"firstMessage,omitempty"`
}

// eventFrame is a single JSON event received from the vendor.
type eventFrame struct {
	Type           string `json:"type"`
	Role           string `json:"role,omitempty"`
	TranscriptType string `json:"transcriptType,omitempty"`
	Transcript     string `json:"transcript,omitempty"`
	Error          string `json:"error,omitempty"`
}

// Session is a live vendor call. It implements voice.Session.
type Session struct {
	client *Client
	events chan voice.Event

	mu   sync.Mutex
	conn *websocket.Conn

	once sync.Once
	wg   sync.WaitGroup
}

// Compile-time interface check.
var _ voice.Session = (*Session)(nil)

// Start dials the vendor and sends the start frame. Events begin flowing on
// [Session.Events] once the vendor acknowledges with a call-start frame.
//
// ctx bounds only the dial and the start handshake. The running call is not
// tied to it: a session opened from an HTTP handler keeps receiving events
// after the request context is cancelled, until [Session.Stop] or the vendor
// closes the socket.
func (s *Session) Start(ctx context.Context, cfg voice.CallConfig) error {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+s.client.apiKey)

	conn, _, err := websocket.Dial(ctx, s.client.serverURL, &websocket.DialOptions{
		HTTPHeader: headers,
	})
	if err != nil {
		return fmt.Errorf("vapiws: dial: %w", err)
	}

	frame := startFrame{
		Type:         "start",
		WorkflowID:   cfg.WorkflowID,
		Variables:    cfg.Variables,
		SystemPrompt: cfg.SystemPrompt,
		FirstMessage: cfg.FirstMessage,
	}
	payload, err := json.Marshal(frame)
	if err != nil {
		conn.Close(websocket.StatusInternalError, "start frame marshal failed")
		return fmt.Errorf("vapiws: marshal start frame: %w", err)
	}
	if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
		conn.Close(websocket.StatusInternalError, "start frame write failed")
		return fmt.Errorf("vapiws: send start frame: %w", err)
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	// The call outlives the context that opened it; only Stop or a vendor
	// close ends the read loop. WithoutCancel keeps trace values attached.
	s.wg.Add(1)
	go s.readLoop(context.WithoutCancel(ctx))

	return nil
}

// Stop asks the vendor to end the call. The vendor normally answers with a
// call-end frame before closing the socket; when it does not, the consumer's
// grace handling takes over.
func (s *Session) Stop() error {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return errors.New("vapiws: session not started")
	}
	err := conn.Write(context.Background(), websocket.MessageText, []byte(`{"type":"stop"}`))
	if err != nil {
		return fmt.Errorf("vapiws: send stop frame: %w", err)
	}
	return nil
}

// Events implements voice.Session.
func (s *Session) Events() <-chan voice.Event {
	return s.events
}

// readLoop receives JSON frames from the vendor and dispatches them as events
// until the socket closes. The events channel is closed on exit.
func (s *Session) readLoop(ctx context.Context) {
	defer s.wg.Done()
	defer s.closeConn()
	defer close(s.events)

	for {
		_, msg, err := s.conn.Read(ctx)
		if err != nil {
			// Normal close or context cancellation.
			return
		}

		ev, ok := parseFrame(msg)
		if !ok {
			continue
		}

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return
		}

		if ev.Type == voice.EventCallEnd {
			return
		}
	}
}

// closeConn closes the underlying socket exactly once.
func (s *Session) closeConn() {
	s.once.Do(func() {
		s.mu.Lock()
		conn := s.conn
		s.mu.Unlock()
		if conn != nil {
			conn.Close(websocket.StatusNormalClosure, "session closed")
		}
	})
}

// parseFrame converts a raw vendor frame into a voice.Event.
// Unknown frame types are skipped.
func parseFrame(msg []byte) (voice.Event, bool) {
	var frame eventFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		return voice.Event{}, false
	}

	switch frame.Type {
	case "call-start":
		return voice.Event{Type: voice.EventCallStart}, true
	case "call-end":
		return voice.Event{Type: voice.EventCallEnd}, true
	case "speech-start":
		return voice.Event{Type: voice.EventSpeechStart}, true
	case "speech-end":
		return voice.Event{Type: voice.EventSpeechEnd}, true
	case "transcript":
		return voice.Event{
			Type:           voice.EventMessage,
			MessageType:    "transcript",
			Role:           frame.Role,
			TranscriptType: frame.TranscriptType,
			Transcript:     frame.Transcript,
		}, true
	case "error":
		return voice.Event{
			Type: voice.EventError,
			Err:  errors.New(frame.Error),
		}, true
	default:
		return voice.Event{}, false
	}
}
