package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"mdmportal/internal/auth"
	"mdmportal/internal/logger"
	"mdmportal/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type lookup map[uint]bool

func (l lookup) Get(_ context.Context, id uint) (*model.Request, error) {
	if !l[id] {
		return nil, errors.New("not found")
	}
	return &model.Request{RequestID: id}, nil
}

func startServer(t *testing.T, hub *Hub, tokens *auth.TokenManager) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ws/requests/:id/", ServeRequestRoom(hub, tokens, lookup{1: true, 2: true}))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { _ = conn.Close() })
	}
	return conn, err
}

func TestHub_DeliversOnlyToRoom(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewHub(nil, logger.Discard())
	go hub.Run(ctx)

	tokens := auth.NewTokenManager("k", time.Hour)
	token, _, err := tokens.Issue(1, "Admin", "ana", "")
	require.NoError(t, err)
	srv := startServer(t, hub, tokens)

	room1, err := dial(t, srv, "/ws/requests/1/?token="+token)
	require.NoError(t, err)
	room2, err := dial(t, srv, "/ws/requests/2/?token="+token)
	require.NoError(t, err)

	// ping frames from the client are dropped by the server
	require.NoError(t, room1.WriteJSON(map[string]string{"type": FramePing}))

	// the client registers asynchronously after the handshake, so keep
	// publishing until the first frame arrives
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(50 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				_ = hub.PublishMessage(ctx, model.ChatMessage{RequestID: 1, Sender: "ana", Message: "hi"})
			}
		}
	}()

	require.NoError(t, room1.SetReadDeadline(time.Now().Add(3*time.Second)))
	_, data, err := room1.ReadMessage()
	require.NoError(t, err)
	var f Frame
	require.NoError(t, json.Unmarshal(data, &f))
	assert.Equal(t, FrameChat, f.Type)
	require.NotNil(t, f.Message)
	assert.Equal(t, "hi", f.Message.Message)

	_ = room2.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	_, _, err = room2.ReadMessage()
	assert.Error(t, err)
}

func TestServeRequestRoom_RejectsBadTokenAndUnknownRequest(t *testing.T) {
	hub := NewHub(nil, logger.Discard())
	tokens := auth.NewTokenManager("k", time.Hour)
	srv := startServer(t, hub, tokens)

	_, err := dial(t, srv, "/ws/requests/1/")
	assert.Error(t, err)
	_, err = dial(t, srv, "/ws/requests/1/?token=nope")
	assert.Error(t, err)

	token, _, err := tokens.Issue(1, "Admin", "ana", "")
	require.NoError(t, err)
	_, err = dial(t, srv, "/ws/requests/9/?token="+token)
	assert.Error(t, err)
}

type captureBroker struct {
	requestID uint
	payload   []byte
}

func (b *captureBroker) Publish(_ context.Context, id uint, payload []byte) error {
	b.requestID, b.payload = id, payload
	return nil
}

func TestHub_PublishGoesThroughBroker(t *testing.T) {
	broker := &captureBroker{}
	hub := NewHub(broker, logger.Discard())

	require.NoError(t, hub.PublishMessage(context.Background(), model.ChatMessage{RequestID: 4, Message: "x"}))
	assert.Equal(t, uint(4), broker.requestID)
	assert.Contains(t, string(broker.payload), `"type":"chat"`)
}

func TestRedisBroker_ChannelNames(t *testing.T) {
	b := NewRedisBroker(nil, "mdm", logger.Discard())

	assert.Equal(t, "mdm:chat:12", b.Channel(12))
	id, ok := b.RequestID("mdm:chat:12")
	assert.True(t, ok)
	assert.Equal(t, uint(12), id)

	_, ok = b.RequestID("other:chat:12")
	assert.False(t, ok)
	_, ok = b.RequestID("mdm:chat:abc")
	assert.False(t, ok)
}
