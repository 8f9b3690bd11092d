package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"fertpulse/internal/infrastructure"
	"fertpulse/internal/shared/testutil"
	"fertpulse/pkg/contracts/domain"
	"fertpulse/pkg/contracts/events"
)

type received struct {
	Type events.MessageType `json:"type"`
	Data json.RawMessage    `json:"data"`
}

func newTestHub(t *testing.T, opts HubOptions) (*Hub, *httptest.Server) {
	t.Helper()
	logger, _ := testutil.NewTestLogger(t)
	hub := NewHub(opts, logger)
	hub.Start()
	t.Cleanup(hub.Stop)

	server := httptest.NewServer(hub)
	t.Cleanup(server.Close)
	return hub, server
}

func dial(t *testing.T, server *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, resp, err := websocket.DefaultDialer.Dial(url, header)
	if conn != nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, resp, err
}

func readMessage(t *testing.T, conn *websocket.Conn) received {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg received
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

func TestHub_ConnectMessage(t *testing.T) {
	states := []domain.LoadState{
		{Name: "dataset", Status: domain.LoadStatusReady, Count: 3},
		{Name: "boundaries", Status: domain.LoadStatusLoading},
	}
	_, server := newTestHub(t, HubOptions{Snapshot: func() []domain.LoadState { return states }})

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)

	msg := readMessage(t, conn)
	assert.Equal(t, events.MessageTypeConnect, msg.Type)

	var data events.ConnectData
	require.NoError(t, json.Unmarshal(msg.Data, &data))
	assert.NotEmpty(t, data.ClientID)
	assert.Equal(t, "connected", data.Status)
	assert.Equal(t, states, data.Loads)
}

func TestHub_ConnectWithoutSnapshot(t *testing.T) {
	_, server := newTestHub(t, HubOptions{})

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)

	var data events.ConnectData
	require.NoError(t, json.Unmarshal(readMessage(t, conn).Data, &data))
	assert.Empty(t, data.Loads)
}

func TestHub_BroadcastLoadState(t *testing.T) {
	hub, server := newTestHub(t, HubOptions{})

	first, _, err := dial(t, server, nil)
	require.NoError(t, err)
	second, _, err := dial(t, server, nil)
	require.NoError(t, err)
	readMessage(t, first)
	readMessage(t, second)

	require.Eventually(t, func() bool { return hub.ClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	state := domain.LoadState{Name: "dataset", Status: domain.LoadStatusFailed, Error: "connection refused"}
	hub.BroadcastLoadState(state)

	for _, conn := range []*websocket.Conn{first, second} {
		msg := readMessage(t, conn)
		assert.Equal(t, events.MessageTypeLoadState, msg.Type)

		var got domain.LoadState
		require.NoError(t, json.Unmarshal(msg.Data, &got))
		assert.Equal(t, state, got)
	}
}

func TestHub_Disconnect(t *testing.T) {
	hub, server := newTestHub(t, HubOptions{})

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_Stop(t *testing.T) {
	hub, server := newTestHub(t, HubOptions{})

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	readMessage(t, conn)

	hub.Stop()
	hub.Stop()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNoStatusReceived, websocket.CloseNormalClosure) ||
		websocket.IsUnexpectedCloseError(err), err.Error())
	assert.Eventually(t, func() bool { return hub.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// Broadcasting after Stop must not block
	done := make(chan struct{})
	go func() {
		hub.BroadcastLoadState(domain.LoadState{Name: "dataset", Status: domain.LoadStatusReady})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked after stop")
	}
}

func TestHub_CheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		wantOK  bool
	}{
		{name: "no origin", origin: "", wantOK: true},
		{name: "foreign origin", origin: "http://evil.example", wantOK: false},
		{name: "allowed origin", allowed: []string{"http://dashboard.example"}, origin: "http://dashboard.example", wantOK: true},
		{name: "wildcard", allowed: []string{"*"}, origin: "http://anything.example", wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, server := newTestHub(t, HubOptions{AllowedOrigins: tt.allowed})

			header := http.Header{}
			if tt.origin != "" {
				header.Set("Origin", tt.origin)
			}
			conn, resp, err := dial(t, server, header)
			if tt.wantOK {
				require.NoError(t, err)
				assert.Equal(t, events.MessageTypeConnect, readMessage(t, conn).Type)
				return
			}
			require.ErrorIs(t, err, websocket.ErrBadHandshake)
			require.NotNil(t, resp)
			assert.Equal(t, http.StatusForbidden, resp.StatusCode)
		})
	}
}

func TestHub_SameOrigin(t *testing.T) {
	_, server := newTestHub(t, HubOptions{})

	header := http.Header{}
	header.Set("Origin", server.URL)
	conn, _, err := dial(t, server, header)
	require.NoError(t, err)
	assert.Equal(t, events.MessageTypeConnect, readMessage(t, conn).Type)
}

func TestHub_Metrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := infrastructure.CreateBusinessMetrics(mp.Meter("test"))
	require.NoError(t, err)

	hub, server := newTestHub(t, HubOptions{Metrics: metrics})

	conn, _, err := dial(t, server, nil)
	require.NoError(t, err)
	readMessage(t, conn)
	require.Eventually(t, func() bool { return hub.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.BroadcastLoadState(domain.LoadState{Name: "dataset", Status: domain.LoadStatusReady})
	readMessage(t, conn)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	values := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					values[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(1), values["websocket_active_connections"])
	assert.Equal(t, int64(1), values["websocket_messages_sent_total"])
}
