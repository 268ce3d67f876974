package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/require"
)

var testTime = time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

func TestFormatState(t *testing.T) {
	data, err := FormatState(StateEvent{
		Timestamp:       testTime,
		Cause:           "TICK",
		Session:         "01JABC",
		State:           "RUNNING",
		Elapsed:         90061,
		Time:            "01:01:01",
		DaysLabel:       "1 day",
		ControlsVisible: true,
		Image:           "img/a.png",
	})
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, "2026-01-15T10:30:00Z", p.Stopwatch.Timestamp)
	require.Equal(t, "TICK", p.Stopwatch.Cause)
	require.Equal(t, "RUNNING", p.Stopwatch.State)
	require.Equal(t, int64(90061), p.Stopwatch.Elapsed)
	require.Equal(t, "01:01:01", p.Stopwatch.Time)
	require.Equal(t, "1 day", p.Stopwatch.DaysLabel)
	require.True(t, p.Stopwatch.Controls)
	require.Equal(t, "img/a.png", p.Stopwatch.Image)
}

func TestFormatStateOmitsEmptyOptionalFields(t *testing.T) {
	data, err := FormatState(StateEvent{Timestamp: testTime, State: "STOPPED", Time: "00:00:00"})
	require.NoError(t, err)

	var raw map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	for _, key := range []string{"days_label", "image", "session"} {
		_, ok := raw["stopwatch"][key]
		require.False(t, ok, "%s should be omitted", key)
	}
}

func TestFormatStateConvertsToUTC(t *testing.T) {
	loc := time.FixedZone("EST", -5*60*60)
	data, err := FormatState(StateEvent{Timestamp: time.Date(2026, 1, 15, 5, 30, 0, 0, loc)})
	require.NoError(t, err)

	var p Payload
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, "2026-01-15T10:30:00Z", p.Stopwatch.Timestamp)
}

func TestFormatSystemPayload(t *testing.T) {
	data, err := FormatSystemPayload(SystemEvent{
		Timestamp: testTime,
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
		Version:   "v1.0.0",
	})
	require.NoError(t, err)

	var p SystemPayload
	require.NoError(t, json.Unmarshal(data, &p))
	require.Equal(t, "SHUTDOWN", p.System.Event)
	require.Equal(t, "SIGTERM", p.System.Reason)
	require.Equal(t, "v1.0.0", p.System.Version)
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		payload string
		want    string
		ok      bool
	}{
		{"toggle", CommandToggle, true},
		{" RESET\n", CommandReset, true},
		{"Activity", CommandActivity, true},
		{"quit", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		got, ok := ParseCommand([]byte(tt.payload))
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseCommand(%q) = (%q, %v), want (%q, %v)", tt.payload, got, ok, tt.want, tt.ok)
		}
	}
}

func TestJoinTopic(t *testing.T) {
	require.Equal(t, "panel/stopwatch/state", JoinTopic("panel/stopwatch", TopicState))
	require.Equal(t, "panel/stopwatch/state", JoinTopic("panel/stopwatch/", TopicState))
}

func TestFakePublisherRecordsEvents(t *testing.T) {
	f := NewFakePublisher()
	require.NoError(t, f.PublishState(StateEvent{Time: "00:00:01"}))
	require.NoError(t, f.PublishSystem(SystemEvent{Event: "STARTUP"}))

	last, ok := f.LastState()
	require.True(t, ok)
	require.Equal(t, "00:00:01", last.Time)
	require.Len(t, f.SystemEvents, 1)

	f.PublishError = errors.New("boom")
	require.Error(t, f.PublishState(StateEvent{}))
	require.Len(t, f.States, 1)

	require.NoError(t, f.Close())
	require.True(t, f.Closed)

	f.Reset()
	_, ok = f.LastState()
	require.False(t, ok)
}

// Fakes for the paho client, built by embedding the interfaces so only the
// methods the publisher uses need implementing.

type fakeToken struct {
	paho.Token
	err error
}

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) Error() error                   { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	paho.Client

	mu         sync.Mutex
	connected  bool
	published  []published
	subscribed map[string]paho.MessageHandler

	// onCheck, if set, runs once inside the next IsConnectionOpen call,
	// after the answer has been read.
	onCheck func()
}

func newFakeClient(connected bool) *fakeClient {
	return &fakeClient{connected: connected, subscribed: map[string]paho.MessageHandler{}}
}

func (c *fakeClient) IsConnectionOpen() bool {
	c.mu.Lock()
	connected, hook := c.connected, c.onCheck
	c.onCheck = nil
	c.mu.Unlock()

	if hook != nil {
		hook()
	}
	return connected
}

func (c *fakeClient) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload any) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.published = append(c.published, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return &fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, cb paho.MessageHandler) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribed[topic] = cb
	return &fakeToken{}
}

func (c *fakeClient) Disconnect(uint) {
	c.setConnected(false)
}

func (c *fakeClient) snapshot() []published {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]published(nil), c.published...)
}

type fakeMessage struct {
	paho.Message
	payload []byte
}

func (m fakeMessage) Payload() []byte { return m.payload }

func TestRealPublisherPublishesWhenConnected(t *testing.T) {
	client := newFakeClient(true)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "panel/sw", Session: "S1"})

	require.NoError(t, p.PublishState(StateEvent{Timestamp: testTime, Time: "00:00:05"}))
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP", Retained: true}))

	got := client.snapshot()
	require.Len(t, got, 2)

	require.Equal(t, "panel/sw/state", got[0].topic)
	require.True(t, got[0].retained)
	require.Equal(t, byte(0), got[0].qos)

	var state Payload
	require.NoError(t, json.Unmarshal(got[0].payload, &state))
	require.Equal(t, "S1", state.Stopwatch.Session)

	require.Equal(t, "panel/sw/system", got[1].topic)
	require.Equal(t, byte(1), got[1].qos)
	require.True(t, got[1].retained)
	require.True(t, p.IsConnected())
}

func TestRealPublisherBuffersAndReplaysOnConnect(t *testing.T) {
	client := newFakeClient(false)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP", Retained: true}))
	for i := 0; i < 3; i++ {
		require.NoError(t, p.PublishState(StateEvent{Timestamp: testTime, Elapsed: int64(i)}))
	}
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: testTime, Event: "SHUTDOWN", Retained: true}))
	require.Empty(t, client.snapshot())
	require.Equal(t, 3, p.Buffered(), "waiting states collapse to the newest")

	client.setConnected(true)
	p.onConnect(client)

	got := client.snapshot()
	require.Len(t, got, 3)
	require.Equal(t, "p/system", got[0].topic)
	require.Equal(t, "p/state", got[1].topic)
	require.Equal(t, "p/system", got[2].topic)

	var state Payload
	require.NoError(t, json.Unmarshal(got[1].payload, &state))
	require.Equal(t, int64(2), state.Stopwatch.Elapsed)

	var shutdown SystemPayload
	require.NoError(t, json.Unmarshal(got[2].payload, &shutdown))
	require.Equal(t, "SHUTDOWN", shutdown.System.Event, "replay must keep order")
	require.Zero(t, p.Buffered())
}

func lastState(t *testing.T, msgs []published) StopwatchPayload {
	t.Helper()

	require.NotEmpty(t, msgs)
	var state Payload
	require.NoError(t, json.Unmarshal(msgs[len(msgs)-1].payload, &state))
	return state.Stopwatch
}

func TestRealPublisherConnectDuringSendLeavesNothingBuffered(t *testing.T) {
	client := newFakeClient(false)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	// The client comes up, and paho runs the connect handler, between
	// the connection check and the buffering of the first message.
	replayed := make(chan struct{})
	client.onCheck = func() {
		client.setConnected(true)
		go func() {
			p.onConnect(client)
			close(replayed)
		}()
	}

	require.NoError(t, p.PublishState(StateEvent{Timestamp: testTime, State: "RUNNING", Elapsed: 5}))
	select {
	case <-replayed:
	case <-time.After(5 * time.Second):
		t.Fatal("connect handler did not finish")
	}
	require.NoError(t, p.PublishState(StateEvent{Timestamp: testTime, State: "STOPPED", Elapsed: 6}))

	require.Zero(t, p.Buffered())
	got := client.snapshot()
	require.Len(t, got, 2)

	last := lastState(t, got)
	require.Equal(t, "STOPPED", last.State)
	require.Equal(t, int64(6), last.Elapsed)
}

func TestRealPublisherQueuesBehindPendingReplay(t *testing.T) {
	client := newFakeClient(false)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	require.NoError(t, p.PublishState(StateEvent{Timestamp: testTime, State: "RUNNING", Elapsed: 5}))

	// Connected, but the connect handler has not replayed yet.
	client.setConnected(true)
	require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP"}))
	require.Empty(t, client.snapshot())
	require.Equal(t, 2, p.Buffered())

	p.onConnect(client)

	got := client.snapshot()
	require.Len(t, got, 2)
	require.Equal(t, "p/state", got[0].topic)
	require.Equal(t, "p/system", got[1].topic)
	require.Zero(t, p.Buffered())
}

func TestRealPublisherBufferIsBounded(t *testing.T) {
	client := newFakeClient(false)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	for i := 0; i < bufferCapacity+10; i++ {
		require.NoError(t, p.PublishSystem(SystemEvent{Timestamp: testTime, Event: "STARTUP"}))
	}
	require.Equal(t, bufferCapacity, p.Buffered())
}

func TestRealPublisherDispatchesCommands(t *testing.T) {
	var (
		mu   sync.Mutex
		cmds []string
	)
	client := newFakeClient(true)
	p := newPublisher(context.Background(), client, Options{
		TopicPrefix: "panel/sw",
		OnCommand: func(cmd string) {
			mu.Lock()
			cmds = append(cmds, cmd)
			mu.Unlock()
		},
	})

	p.onConnect(client)

	handler, ok := client.subscribed["panel/sw/command"]
	require.True(t, ok, "command topic should be subscribed on connect")

	handler(client, fakeMessage{payload: []byte("toggle")})
	handler(client, fakeMessage{payload: []byte("explode")})
	handler(client, fakeMessage{payload: []byte("RESET")})

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []string{CommandToggle, CommandReset}, cmds)
}

func TestRealPublisherNoSubscriptionWithoutHandler(t *testing.T) {
	client := newFakeClient(true)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	p.onConnect(client)
	require.Empty(t, client.subscribed)
}

func TestRealPublisherClose(t *testing.T) {
	client := newFakeClient(true)
	p := newPublisher(context.Background(), client, Options{TopicPrefix: "p"})

	require.NoError(t, p.Close())
	require.False(t, p.IsConnected())
}
