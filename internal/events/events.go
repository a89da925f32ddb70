// Package events publishes session and booking events to an MQTT broker.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carclub/internal/models"
	"github.com/ukydev/carclub/internal/notice"
	"github.com/ukydev/carclub/internal/state"
)

const (
	TypeStateChanged     = "session.state_changed"
	TypeBookingConfirmed = "booking.confirmed"
	TypeNoticeShown      = "notice.shown"

	defaultQueueSize = 256
)

// ErrPublishTimeout is returned when the broker does not acknowledge in time.
var ErrPublishTimeout = errors.New("mqtt publish timed out")

// Envelope wraps every published payload.
type Envelope struct {
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

// StateChange is the payload of a session state event.
type StateChange struct {
	SessionID string            `json:"session_id"`
	Key       state.Key         `json:"key"`
	State     models.QueryState `json:"state"`
}

// Config selects the broker and topic layout.
type Config struct {
	Broker   string
	ClientID string
	Prefix   string
	QoS      byte
	Timeout  time.Duration
	// QueueSize bounds the background events waiting to be sent. Events
	// arriving while it is full are dropped.
	QueueSize int
}

// Publisher sends events to MQTT. It satisfies state.Observer and the
// booking service's publisher. State changes and notices are queued and
// sent from a background goroutine so callers never wait on the broker.
type Publisher struct {
	client  mqtt.Client
	prefix  string
	qos     byte
	timeout time.Duration
	now     func() time.Time

	mu     sync.Mutex
	closed bool
	queue  chan job
	done   chan struct{}
}

type job struct {
	topic     string
	eventType string
	data      interface{}
	fields    log.Fields
}

// Connect dials the broker in cfg.
func Connect(cfg Config) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is empty")
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "carclub"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(cfg.Timeout).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.WithError(err).Warn("MQTT connection lost")
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.Timeout) {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.Broker, err)
	}
	log.WithField("broker", cfg.Broker).Info("Connected to MQTT broker")
	return NewPublisher(client, cfg), nil
}

// NewPublisher wraps an existing client.
func NewPublisher(client mqtt.Client, cfg Config) *Publisher {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "carclub"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	size := cfg.QueueSize
	if size <= 0 {
		size = defaultQueueSize
	}
	p := &Publisher{
		client:  client,
		prefix:  prefix,
		qos:     cfg.QoS,
		timeout: timeout,
		now:     time.Now,
		queue:   make(chan job, size),
		done:    make(chan struct{}),
	}
	go p.drain()
	return p
}

// Publish encodes data in an envelope and sends it to prefix/topic.
func (p *Publisher) Publish(ctx context.Context, topic, eventType string, data interface{}) error {
	payload, err := json.Marshal(Envelope{Type: eventType, OccurredAt: p.now().UTC(), Data: data})
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	token := p.client.Publish(p.prefix+"/"+topic, p.qos, false, payload)
	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
		return token.Error()
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrPublishTimeout
	}
}

// PublishBooking announces a confirmed booking on prefix/bookings.
func (p *Publisher) PublishBooking(ctx context.Context, b models.Booking) error {
	return p.Publish(ctx, "bookings", TypeBookingConfirmed, b)
}

// StateChanged queues the new state for prefix/sessions/<id>/<key>.
func (p *Publisher) StateChanged(e state.Event) {
	p.enqueue(job{
		topic:     fmt.Sprintf("sessions/%s/%s", e.SessionID, e.Key),
		eventType: TypeStateChanged,
		data:      StateChange{SessionID: e.SessionID, Key: e.Key, State: e.State},
		fields:    log.Fields{"session_id": e.SessionID, "key": e.Key},
	})
}

// NoticeShown queues a notice shown to a visitor for prefix/notices. It is a
// notice.Listener.
func (p *Publisher) NoticeShown(n notice.Notice) {
	p.enqueue(job{
		topic:     "notices",
		eventType: TypeNoticeShown,
		data:      n,
		fields:    log.Fields{"code": n.Code},
	})
}

func (p *Publisher) enqueue(j job) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.queue <- j:
	default:
		log.WithFields(j.fields).WithField("type", j.eventType).Warn("Event queue full, dropping event")
	}
}

func (p *Publisher) drain() {
	defer close(p.done)
	for j := range p.queue {
		if err := p.Publish(context.Background(), j.topic, j.eventType, j.data); err != nil {
			log.WithError(err).WithFields(j.fields).WithField("type", j.eventType).Warn("Failed to publish event")
		}
	}
}

// Close stops accepting events, waits up to the publish timeout for queued
// ones and disconnects from the broker.
func (p *Publisher) Close() {
	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.queue)
	}
	p.mu.Unlock()

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-p.done:
	case <-timer.C:
		log.Warn("Dropping queued events on close")
	}
	p.client.Disconnect(250)
}
