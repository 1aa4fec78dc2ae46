package nats

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/steampigeon/flightmanager/internal/state"
)

const (
	StreamName    = "LOCATOR"
	SubjectFrames = "locator.frames"
	SubjectState  = "locator.state"
)

// Subjects names the subjects the client uses.
type Subjects struct {
	Frames string
	State  string
}

// DefaultSubjects returns the standard subject names.
func DefaultSubjects() Subjects {
	return Subjects{Frames: SubjectFrames, State: SubjectState}
}

// StateEnvelope is the JSON document published for every committed snapshot.
type StateEnvelope struct {
	ID          string         `json:"id"`
	PublishedAt time.Time      `json:"published_at"`
	Snapshot    state.Snapshot `json:"snapshot"`
}

// NewStateEnvelope wraps a snapshot with a fresh message ID.
func NewStateEnvelope(s state.Snapshot, now time.Time) StateEnvelope {
	return StateEnvelope{
		ID:          uuid.NewString(),
		PublishedAt: now.UTC(),
		Snapshot:    s,
	}
}

// Client represents a NATS JetStream client
type Client struct {
	conn     *nats.Conn
	js       nats.JetStreamContext
	subjects Subjects
}

// New connects to NATS and makes sure the locator stream exists.
func New(url string, subjects Subjects) (*Client, error) {
	nc, err := nats.Connect(url, nats.Name("flightmanager"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	_, err = js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{subjects.Frames, subjects.State},
		Storage:  nats.MemoryStorage,
		MaxAge:   time.Hour,
	})
	if err != nil && !errors.Is(err, nats.ErrStreamNameAlreadyInUse) {
		nc.Close()
		return nil, fmt.Errorf("failed to create stream: %w", err)
	}

	return &Client{conn: nc, js: js, subjects: subjects}, nil
}

// PublishFrame publishes one raw locator message.
func (c *Client) PublishFrame(msg []byte) error {
	if _, err := c.js.Publish(c.subjects.Frames, msg); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

// PublishSnapshot publishes a snapshot as a StateEnvelope. The envelope ID
// doubles as the JetStream de-duplication ID.
func (c *Client) PublishSnapshot(s state.Snapshot) error {
	env := NewStateEnvelope(s, time.Now())
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if _, err := c.js.Publish(c.subjects.State, data, nats.MsgId(env.ID)); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// SubscribeFrames delivers raw locator messages published from now on.
// NATS runs handler serially for one subscription.
func (c *Client) SubscribeFrames(handler func(msg []byte)) (*nats.Subscription, error) {
	sub, err := c.js.Subscribe(c.subjects.Frames, func(m *nats.Msg) {
		handler(m.Data)
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

// SubscribeState delivers published snapshot envelopes.
func (c *Client) SubscribeState(handler func(StateEnvelope)) (*nats.Subscription, error) {
	sub, err := c.js.Subscribe(c.subjects.State, func(m *nats.Msg) {
		var env StateEnvelope
		if err := json.Unmarshal(m.Data, &env); err != nil {
			return
		}
		handler(env)
	}, nats.DeliverNew())
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe: %w", err)
	}
	return sub, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c.conn != nil {
		c.conn.Close()
	}
}
