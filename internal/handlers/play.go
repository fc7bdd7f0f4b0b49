package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"bucketsort/internal/game"
	"bucketsort/views/components"
)

const (
	pongWait   = 60 * time.Second
	pingEvery  = 25 * time.Second
	writeWait  = 10 * time.Second
	maxMessage = 1 << 16
)

type PlayHandler struct {
	store    *game.Store
	opts     Options
	upgrader websocket.Upgrader
}

func NewPlayHandler(store *game.Store, opts Options) *PlayHandler {
	return &PlayHandler{
		store: store,
		opts:  opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// RegisterRoutes mounts the long-lived play routes. They must not sit
// behind a request timeout.
func (h *PlayHandler) RegisterRoutes(r chi.Router) {
	r.Route("/play/{id}", func(r chi.Router) {
		r.Get("/ws", h.socket)
		r.Get("/stream", h.stream)
		r.Get("/hud", h.hudFragment)
		r.Get("/reward", h.rewardFragment)
	})
}

// room resolves the room in the URL, answering 404 unless it belongs to
// the requesting visitor.
func (h *PlayHandler) room(w http.ResponseWriter, r *http.Request) (*game.Room, bool) {
	room, ok := h.store.GetRoom(chi.URLParam(r, "id"))
	if !ok || room.Visitor == "" || room.Visitor != visitorFromCookie(r) {
		http.NotFound(w, r)
		return nil, false
	}
	return room, true
}

func (h *PlayHandler) hudFragment(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	render(w, r, components.HUDFragment(toHUDFragment(room.HUD())))
}

func (h *PlayHandler) rewardFragment(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	render(w, r, components.RewardFragment(toRewardFragment(room.HUD(), h.opts.RewardCode)))
}

func (h *PlayHandler) socket(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.opts.Log.Debug().Err(err).Msg("upgrade")
		return
	}
	log := h.opts.Log.With().Str("room", room.ID).Logger()

	if err := h.store.Attach(room.ID, &wsConn{c: conn}); err != nil {
		log.Info().Err(err).Msg("attach refused")
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, err.Error()),
			time.Now().Add(writeWait))
		_ = conn.Close()
		return
	}
	defer h.store.Leave(room.ID)

	conn.SetReadLimit(maxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go func() {
		ticker := time.NewTicker(pingEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			case <-done:
				return
			}
		}
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Msg("read")
			}
			return
		}
		if err := room.Deliver(msg); err != nil {
			if errors.Is(err, game.ErrClosed) {
				return
			}
			log.Debug().Err(err).Msg("bad frame")
		}
	}
}

func (h *PlayHandler) stream(w http.ResponseWriter, r *http.Request) {
	room, ok := h.room(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	hub, ok := h.store.Broadcaster(room.ID)
	if !ok {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	sub := hub.Subscribe()
	defer hub.Unsubscribe(sub)

	sendSnapshot := func(includeHUD bool, includeReward bool) {
		hud := room.HUD()
		if includeHUD {
			writeSSE(w, game.EventHUD, renderToString(r, components.HUDFragment(toHUDFragment(hud))))
		}
		if includeReward {
			writeSSE(w, game.EventReward, renderToString(r, components.RewardFragment(toRewardFragment(hud, h.opts.RewardCode))))
		}
		flusher.Flush()
	}

	sendSnapshot(true, true)

	keepAlive := time.NewTicker(25 * time.Second)
	defer keepAlive.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-sub:
			if !open {
				return
			}
			switch event {
			case game.EventHUD:
				sendSnapshot(true, false)
			case game.EventReward:
				sendSnapshot(true, true)
			}
		case <-keepAlive.C:
			_, _ = w.Write([]byte(": keepalive\n\n"))
			flusher.Flush()
		}
	}
}

// wsConn adapts a websocket to game.Conn. Only the room loop writes data
// frames; pings go through WriteControl which may run concurrently.
type wsConn struct {
	c *websocket.Conn
}

func (w *wsConn) Send(b []byte) error {
	_ = w.c.SetWriteDeadline(time.Now().Add(writeWait))
	return w.c.WriteMessage(websocket.TextMessage, b)
}

func (w *wsConn) Close() error {
	return w.c.Close()
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}

// render writes a full HTML response. Fragments bound for the stream go
// through renderToString instead.
func render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		http.Error(w, "render failed", http.StatusInternalServerError)
	}
}

func renderToString(r *http.Request, component templ.Component) string {
	var buf bytes.Buffer
	_ = component.Render(r.Context(), &buf)
	return buf.String()
}

func writeSSE(w http.ResponseWriter, event string, data string) {
	_, _ = w.Write([]byte("event: " + event + "\n"))
	for _, line := range strings.Split(data, "\n") {
		_, _ = w.Write([]byte("data: " + line + "\n"))
	}
	_, _ = w.Write([]byte("\n"))
}
