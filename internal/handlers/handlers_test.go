package handlers

import (
	"bufio"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketsort/internal/cue"
	"bucketsort/internal/game"
	"bucketsort/internal/judge"
	"bucketsort/internal/protocol"
)

func newRouter(t *testing.T) (chi.Router, *game.Store) {
	t.Helper()
	store := game.NewStore(game.Options{})
	bank, err := cue.NewBank(0)
	require.NoError(t, err)
	opts := Options{Rules: judge.DefaultRules, RewardCode: "TIDY10"}

	r := chi.NewRouter()
	NewHomeHandler(store, opts).RegisterRoutes(r)
	NewPlayHandler(store, opts).RegisterRoutes(r)
	NewCueHandler(bank).RegisterRoutes(r)
	return r, store
}

// visit loads the landing page and returns the visitor cookie and room id.
func visit(t *testing.T, h http.Handler) (*http.Cookie, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var visitor *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookieName {
			visitor = c
		}
	}
	require.NotNil(t, visitor, "visitor cookie")

	body := rec.Body.String()
	const marker = `data-room="`
	i := strings.Index(body, marker)
	require.GreaterOrEqual(t, i, 0)
	rest := body[i+len(marker):]
	return visitor, rest[:strings.IndexByte(rest, '"')]
}

func TestHome_CreatesRoom(t *testing.T) {
	r, store := newRouter(t)
	cookie, roomID := visit(t, r)

	room, ok := store.GetRoom(roomID)
	require.True(t, ok)
	assert.Equal(t, cookie.Value, room.Visitor)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(rec, req)
	body := rec.Body.String()
	assert.Contains(t, body, "blue shapes")
	assert.Contains(t, body, "triangles")
	assert.Contains(t, body, `id="hud" class="hud is-hidden"`)
	assert.Contains(t, body, `data-room="`+roomID+`"`, "a reload reuses the room its first page never joined")
	assert.Equal(t, 1, store.Len())
	for _, c := range rec.Result().Cookies() {
		if c.Name == visitorCookieName {
			assert.Equal(t, cookie.Value, c.Value, "returning visitors keep their id")
		}
	}
}

func TestHome_NewRoomOnceAttached(t *testing.T) {
	r, store := newRouter(t)
	cookie, roomID := visit(t, r)
	require.NoError(t, store.Attach(roomID, nopConn{}))
	defer store.Leave(roomID)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), `data-room="`+roomID+`"`)
	assert.Equal(t, 2, store.Len())
}

type nopConn struct{}

func (nopConn) Send([]byte) error { return nil }
func (nopConn) Close() error      { return nil }

func TestHealthz(t *testing.T) {
	r, _ := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","rooms":0}`, rec.Body.String())
}

func TestCues(t *testing.T) {
	r, _ := newRouter(t)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cues/success.wav", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "audio/wav", rec.Header().Get("Content-Type"))
	assert.Equal(t, "RIFF", rec.Body.String()[:4])

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/cues/fanfare.wav", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFragments_RequireOwner(t *testing.T) {
	r, _ := newRouter(t)
	cookie, roomID := visit(t, r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/play/"+roomID+"/hud", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code, "no cookie, no room")

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/play/"+roomID+"/hud", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0 / 5 sorted")

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/play/"+roomID+"/reward", nil)
	req.AddCookie(cookie)
	r.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "is-hidden")
}

func TestStream_SendsInitialFragments(t *testing.T) {
	r, _ := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	cookie, roomID := visit(t, r)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/play/"+roomID+"/stream", nil)
	require.NoError(t, err)
	req.AddCookie(cookie)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	var events []string
	for len(events) < 2 {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		if strings.HasPrefix(line, "event: ") {
			events = append(events, strings.TrimSpace(strings.TrimPrefix(line, "event: ")))
		}
	}
	assert.Equal(t, []string{game.EventHUD, game.EventReward}, events)
}

func TestSocket_PlaysAndLeaves(t *testing.T) {
	r, store := newRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()
	cookie, roomID := visit(t, r)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/play/" + roomID + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err, "strangers may not join")
	if resp != nil {
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	}

	header := http.Header{}
	header.Add("Cookie", cookie.String())
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	require.NoError(t, err)

	b, err := protocol.Encode(protocol.MsgResize, protocol.Resize{W: 1024, H: 768})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := protocol.DecodeEnvelope(msg)
	require.NoError(t, err)
	assert.Equal(t, protocol.MsgFrame, env.T)

	second, _, err := websocket.DefaultDialer.Dial(url, header)
	if err == nil {
		_ = second.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, _, err = second.ReadMessage()
		assert.Error(t, err, "a room takes one connection")
		_ = second.Close()
	}

	require.NoError(t, conn.Close())
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, ok := store.GetRoom(roomID); !ok {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	_, ok := store.GetRoom(roomID)
	assert.False(t, ok, "room is dropped when its socket closes")
}

func TestRender(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	render(rec, req, staticComponent("<p>hi</p>"))
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "<p>hi</p>", string(body))
}

type staticComponent string

func (s staticComponent) Render(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, string(s))
	return err
}
