package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"bucketsort/internal/cue"
)

type CueHandler struct {
	bank *cue.Bank
}

func NewCueHandler(bank *cue.Bank) *CueHandler {
	return &CueHandler{bank: bank}
}

func (h *CueHandler) RegisterRoutes(r chi.Router) {
	r.Get("/cues/{name}.wav", h.wav)
}

func (h *CueHandler) wav(w http.ResponseWriter, r *http.Request) {
	clip, ok := h.bank.WAV(cue.Cue(chi.URLParam(r, "name")))
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(clip)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(clip)
}
