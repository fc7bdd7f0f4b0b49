package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"bucketsort/internal/game"
	"bucketsort/internal/judge"
	"bucketsort/internal/viewmodel"
	"bucketsort/views/pages"
)

const visitorCookieName = "bucketsort_visitor"

// Options are shared by the page and play handlers.
type Options struct {
	Rules      judge.Rules
	RewardCode string
	VisitorTTL time.Duration
	Log        zerolog.Logger
}

type HomeHandler struct {
	store *game.Store
	opts  Options
}

func NewHomeHandler(store *game.Store, opts Options) *HomeHandler {
	if opts.VisitorTTL <= 0 {
		opts.VisitorTTL = 24 * time.Hour
	}
	return &HomeHandler{store: store, opts: opts}
}

func (h *HomeHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.home)
	r.Get("/healthz", h.health)
}

func (h *HomeHandler) home(w http.ResponseWriter, r *http.Request) {
	visitor := visitorFromCookie(r)
	if visitor == "" {
		visitor = game.NewID()
	}
	// Refresh the cookie on every visit so active visitors keep their id.
	setVisitorCookie(w, visitor, h.opts.VisitorTTL)

	room, reused := h.store.RoomFor(visitor)
	h.opts.Log.Debug().Str("room", room.ID).Str("visitor", visitor).Bool("reused", reused).Msg("room ready")

	hud := room.HUD()
	data := viewmodel.PlayPage{
		Title:     "Bucket Sort",
		RoomID:    room.ID,
		SocketURL: "/play/" + room.ID + "/ws",
		StreamURL: "/play/" + room.ID + "/stream",
		HUD:       toHUDFragment(hud),
		Reward:    toRewardFragment(hud, h.opts.RewardCode),
		Rules: viewmodel.RulesHint{
			PrimaryLabel:   fmt.Sprintf("%s shapes", h.opts.Rules.TargetColor),
			SecondaryLabel: fmt.Sprintf("%ss", h.opts.Rules.TargetKind),
		},
	}
	render(w, r, pages.PlayPage(data))
}

func (h *HomeHandler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status": "ok",
		"rooms":  h.store.Len(),
	})
}

func visitorFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(visitorCookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func setVisitorCookie(w http.ResponseWriter, visitor string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     visitorCookieName,
		Value:    visitor,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Now().Add(ttl),
	})
}

// urgentSeconds is when the timer starts to pulse.
const urgentSeconds = 5

func toHUDFragment(hud game.HUD) viewmodel.HUDFragment {
	return viewmodel.HUDFragment{
		Visible:   hud.GameVisible,
		Remaining: hud.Remaining,
		Sorted:    hud.Sorted,
		Target:    hud.Target,
		Urgent:    hud.GameVisible && hud.Remaining <= urgentSeconds,
	}
}

func toRewardFragment(hud game.HUD, code string) viewmodel.RewardFragment {
	return viewmodel.RewardFragment{
		Visible: hud.RewardVisible,
		Sorted:  hud.Sorted,
		Code:    code,
	}
}
