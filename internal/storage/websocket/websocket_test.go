package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/storage"
	"github.com/sitesurvey/camplan/internal/storage/memory"
	"github.com/sitesurvey/camplan/pkg/core"
	"github.com/sitesurvey/camplan/pkg/streaming"
)

// Compile-time interface check.
var _ storage.Backend = (*Backend)(nil)

type serverOpts struct {
	silent bool // never ack
}

// testServer creates an httptest server that upgrades to WebSocket,
// records received messages and acks every envelope. Creates get a
// server-side id; updates of "missing" are rejected.
func testServer(t *testing.T, opts serverOpts) (*httptest.Server, *messageLog) {
	t.Helper()
	ml := &messageLog{}

	upgrader := ws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ml.setSecret(r.URL.Query().Get("secret"))
		c, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Logf("upgrade error: %v", err)
			return
		}
		defer c.Close()

		created := 0
		for {
			_, msg, err := c.ReadMessage()
			if err != nil {
				return
			}

			var env streaming.Envelope
			if err := json.Unmarshal(msg, &env); err != nil {
				continue
			}
			ml.add(env)
			if opts.silent {
				continue
			}

			ack := streaming.AckMessage{Type: streaming.TypeAck, For: env.Type, Ref: env.Ref}
			switch env.Type {
			case streaming.TypeCreateCamera:
				created++
				ack.ID = fmt.Sprintf("srv-%d", created)
			case streaming.TypeUpdateCamera:
				if strings.Contains(string(env.Payload), `"id":"missing"`) {
					ack.Error = "not found"
				}
			}
			data, _ := json.Marshal(ack)
			if err := c.WriteMessage(ws.TextMessage, data); err != nil {
				return
			}
		}
	}))

	return srv, ml
}

type messageLog struct {
	mu       sync.Mutex
	messages []streaming.Envelope
	secret   string
}

func (m *messageLog) add(env streaming.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = append(m.messages, env)
}

func (m *messageLog) setSecret(s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.secret = s
}

func (m *messageLog) all() []streaming.Envelope {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]streaming.Envelope, len(m.messages))
	copy(cp, m.messages)
	return cp
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestCreateCameraReturnsServerID(t *testing.T) {
	srv, ml := testServer(t, serverOpts{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv), Secret: "test"})
	require.NoError(t, b.Init())
	defer b.Close()

	ctx := context.Background()
	id1, err := b.CreateCamera(ctx, "site", core.NewCamera(1, 2, nil))
	require.NoError(t, err)
	id2, err := b.CreateCamera(ctx, "site", core.NewCamera(3, 4, nil))
	require.NoError(t, err)

	assert.Equal(t, "srv-1", id1)
	assert.Equal(t, "srv-2", id2)

	msgs := ml.all()
	require.Len(t, msgs, 2)
	assert.NotEqual(t, msgs[0].Ref, msgs[1].Ref)

	v, err := streaming.Decode(msgs[0])
	require.NoError(t, err)
	p := v.(streaming.CreateCameraPayload)
	assert.Equal(t, "site", p.ProjectID)
	assert.Equal(t, 1.0, p.Camera.X)
	assert.Empty(t, p.Camera.RemoteID)
	assert.Equal(t, "test", ml.secret)
}

func TestFireAndForgetMessages(t *testing.T) {
	srv, ml := testServer(t, serverOpts{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	defer b.Close()

	ctx := context.Background()
	name := "Lobby"
	require.NoError(t, b.UpdateCamera(ctx, "c1", core.MovePatch(5, 6)))
	require.NoError(t, b.UpdateCamera(ctx, "missing", core.MovePatch(1, 1)))
	require.NoError(t, b.DeleteCamera(ctx, "c1"))
	require.NoError(t, b.UpdateConfig(ctx, "site", core.VocabularyPatch{Statuses: []string{"a"}}))
	require.NoError(t, b.UpdateProject(ctx, "site", core.ProjectPatch{Name: &name}))

	require.Eventually(t, func() bool { return len(ml.all()) == 5 }, time.Second, 10*time.Millisecond)

	types := make(map[string]int)
	for _, m := range ml.all() {
		types[m.Type]++
	}
	assert.Equal(t, 2, types[streaming.TypeUpdateCamera])
	assert.Equal(t, 1, types[streaming.TypeDeleteCamera])
	assert.Equal(t, 1, types[streaming.TypeUpdateConfig])
	assert.Equal(t, 1, types[streaming.TypeUpdateProject])
	assert.Equal(t, "", ml.secret)
}

func TestCreateCameraTimesOutWithoutAck(t *testing.T) {
	srv, _ := testServer(t, serverOpts{silent: true})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	defer b.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := b.CreateCamera(ctx, "site", core.NewCamera(0, 0, nil))
	assert.ErrorContains(t, err, "timeout waiting for ack")
}

func TestReadsUseReader(t *testing.T) {
	srv, _ := testServer(t, serverOpts{})
	defer srv.Close()

	reader := memory.New(config.MemoryConfig{}, core.DefaultVocabulary())
	ctx := context.Background()
	_, err := reader.CreateCamera(ctx, "site", core.NewCamera(7, 8, nil))
	require.NoError(t, err)

	b := New(Config{URL: wsURL(srv), Reader: reader})
	require.NoError(t, b.Init())
	defer b.Close()

	p, err := b.GetProject(ctx, "site")
	require.NoError(t, err)
	assert.Equal(t, "site", p.ID)

	cams, err := b.ListCameras(ctx, "site")
	require.NoError(t, err)
	require.Len(t, cams, 1)
	assert.Equal(t, 7.0, cams[0].X)
}

func TestReadsWithoutReader(t *testing.T) {
	b := New(Config{})
	_, err := b.GetProject(context.Background(), "site")
	assert.Error(t, err)
	_, err = b.ListCameras(context.Background(), "site")
	assert.Error(t, err)
}

func TestInitFailsWhenServerUnreachable(t *testing.T) {
	b := New(Config{URL: "ws://127.0.0.1:1/api/stream"})
	assert.Error(t, b.Init())
}

func TestCloseIsIdempotent(t *testing.T) {
	srv, _ := testServer(t, serverOpts{})
	defer srv.Close()

	b := New(Config{URL: wsURL(srv)})
	require.NoError(t, b.Init())
	require.NoError(t, b.Close())
	assert.NoError(t, b.Close())
}
