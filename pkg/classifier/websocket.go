package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type classifyRequest struct {
	Text           string `json:"text"`
	History        string `json:"history,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`
	Language       string `json:"language,omitempty"`
}

type classifyResponse struct {
	Result
	Error string `json:"error,omitempty"`
}

// websocketClassifier talks to the hosted classifier service over a long-lived
// websocket. One request/response pair in flight at a time; the mutex also
// guards reconnects.
type websocketClassifier struct {
	conn         *websocket.Conn
	mu           sync.Mutex
	writeTimeout time.Duration
	readTimeout  time.Duration
}

func NewWebsocketClassifier() IClassifier {
	client := &websocketClassifier{
		writeTimeout: 5 * time.Second,
		readTimeout:  10 * time.Second,
	}

	go func() {
		if err := client.reconnect(); err != nil {
			fmt.Printf("Initial classifier connection failed: %v. Will retry on demand.\n", err)
		}
	}()

	return client
}

func (c *websocketClassifier) reconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reconnectLocked()
}

func (c *websocketClassifier) reconnectLocked() error {
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}

	url := os.Getenv("CLASSIFIER_WS_URL")
	if url == "" {
		return fmt.Errorf("CLASSIFIER_WS_URL not configured")
	}

	dialer := websocket.DefaultDialer
	dialer.HandshakeTimeout = 10 * time.Second

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}

	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	})

	c.conn = conn
	return nil
}

func (c *websocketClassifier) Classify(ctx context.Context, text string, hint Hint) (*Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn == nil {
		if err := c.reconnectLocked(); err != nil {
			return nil, err
		}
	}

	payload, err := json.Marshal(classifyRequest{
		Text:           text,
		History:        hint.History,
		ConversationID: hint.ConversationID,
		Language:       hint.Language,
	})
	if err != nil {
		return nil, err
	}

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.conn.SetWriteDeadline(deadline); err != nil {
		return nil, err
	}
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		c.conn.Close()
		c.conn = nil
		return nil, fmt.Errorf("classifier write failed: %w", err)
	}

	if err := c.conn.SetReadDeadline(time.Now().Add(c.readTimeout)); err != nil {
		return nil, err
	}
	_, raw, err := c.conn.ReadMessage()
	if err != nil {
		c.conn.Close()
		c.conn = nil
		return nil, fmt.Errorf("classifier read failed: %w", err)
	}

	var resp classifyResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("invalid classifier response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("classifier error: %s", resp.Error)
	}

	result := resp.Result
	result.Provider = "websocket"
	return &result, nil
}
