package mqtt

import (
	"context"
	"fmt"
	"sync"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/sweeney/panel-stopwatch/internal/logger"
)

// bufferCapacity bounds the messages kept while the broker is unreachable.
const bufferCapacity = 100

// Options configures a RealPublisher.
type Options struct {
	Broker      string
	ClientID    string
	TopicPrefix string
	Session     string
	// OnCommand, if set, receives commands from the command topic.
	OnCommand CommandFunc
}

// RealPublisher publishes to an actual MQTT broker. Publishing never waits
// for the broker: while disconnected, messages are buffered and replayed
// on (re)connection.
type RealPublisher struct {
	ctx       context.Context
	client    paho.Client
	prefix    string
	session   string
	onCommand CommandFunc

	mu  sync.Mutex
	buf *outbox
}

// NewRealPublisher creates a publisher and starts connecting in the
// background. It does not wait for the broker.
func NewRealPublisher(ctx context.Context, o Options) *RealPublisher {
	p := newPublisher(ctx, nil, o)

	will, _ := FormatSystemPayload(SystemEvent{Event: "OFFLINE", Session: o.Session}) //nolint:errcheck // static struct

	opts := paho.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5*time.Second).
		SetWill(p.topic(TopicSystem), string(will), 1, true).
		SetOnConnectHandler(p.onConnect).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			logger.WarnKV(p.ctx, "connection lost", "error", err)
		})

	p.client = paho.NewClient(opts)
	p.client.Connect()

	return p
}

func newPublisher(ctx context.Context, client paho.Client, o Options) *RealPublisher {
	return &RealPublisher{
		ctx:       logger.WithName(ctx, "mqtt"),
		client:    client,
		prefix:    o.TopicPrefix,
		session:   o.Session,
		onCommand: o.OnCommand,
		buf:       newOutbox(bufferCapacity),
	}
}

// PublishState sends the state, retained, at QoS 0.
func (p *RealPublisher) PublishState(event StateEvent) error {
	if event.Session == "" {
		event.Session = p.session
	}

	payload, err := FormatState(event)
	if err != nil {
		return fmt.Errorf("format payload: %w", err)
	}

	p.send(bufferedMsg{topic: p.topic(TopicState), payload: payload, qos: 0, retained: true})

	return nil
}

// PublishSystem sends a lifecycle event at QoS 1.
func (p *RealPublisher) PublishSystem(event SystemEvent) error {
	if event.Session == "" {
		event.Session = p.session
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return fmt.Errorf("format system payload: %w", err)
	}

	p.send(bufferedMsg{topic: p.topic(TopicSystem), payload: payload, qos: 1, retained: event.Retained})

	return nil
}

// IsConnected reports whether the broker connection is up.
func (p *RealPublisher) IsConnected() bool {
	return p.client.IsConnectionOpen()
}

// Buffered returns the number of messages waiting for a connection.
func (p *RealPublisher) Buffered() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.buf.len()
}

// Close flushes pending system events briefly and disconnects.
func (p *RealPublisher) Close() error {
	p.client.Disconnect(1000) // 1 second timeout
	return nil
}

// send publishes msg, or buffers it while disconnected. The connection check,
// the buffer and the replay in onConnect share p.mu, so a message is never
// left behind in the buffer of a connected client. While messages wait for
// replay, newer ones queue behind them to keep retained values in order.
func (p *RealPublisher) send(msg bufferedMsg) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.client.IsConnectionOpen() || p.buf.len() > 0 {
		if p.buf.push(msg) {
			logger.WarnKV(p.ctx, "buffer full, dropping oldest", "capacity", bufferCapacity)
		}

		return
	}

	p.publish(p.client, msg)
}

func (p *RealPublisher) publish(c paho.Client, msg bufferedMsg) {
	token := c.Publish(msg.topic, msg.qos, msg.retained, msg.payload)
	go p.watch(token, msg.topic)
}

func (p *RealPublisher) watch(token paho.Token, topic string) {
	if !token.WaitTimeout(5 * time.Second) {
		logger.WarnKV(p.ctx, "publish timeout", "topic", topic)
		return
	}

	if err := token.Error(); err != nil {
		logger.WarnKV(p.ctx, "publish failed", "topic", topic, "error", err)
	}
}

func (p *RealPublisher) onConnect(c paho.Client) {
	logger.InfoKV(p.ctx, "connected")

	if p.onCommand != nil {
		topic := p.topic(TopicCommand)
		token := c.Subscribe(topic, 1, p.onMessage)
		go p.watch(token, topic)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	pending := p.buf.drainAll()
	if len(pending) > 0 {
		logger.InfoKV(p.ctx, "replaying buffered messages", "count", len(pending))
	}

	for _, msg := range pending {
		p.publish(c, msg)
	}
}

func (p *RealPublisher) onMessage(_ paho.Client, msg paho.Message) {
	cmd, ok := ParseCommand(msg.Payload())
	if !ok {
		logger.WarnKV(p.ctx, "ignoring unknown command", "payload", string(msg.Payload()))
		return
	}

	logger.DebugKV(p.ctx, "command received", "command", cmd)
	p.onCommand(cmd)
}

func (p *RealPublisher) topic(suffix string) string {
	return JoinTopic(p.prefix, suffix)
}
