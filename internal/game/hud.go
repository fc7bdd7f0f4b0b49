package game

import "bucketsort/internal/session"

// SSE event names.
const (
	EventHUD    = "hud"
	EventReward = "reward"
)

// HUD is what the page shows around the canvas.
type HUD struct {
	Phase          session.Phase
	GameVisible    bool
	BucketsVisible bool
	RewardVisible  bool
	Remaining      int
	Sorted         int
	Target         int
	WonOnce        bool
}

func (h *HUD) apply(eff session.Effect, snap session.Snapshot) {
	h.Phase = snap.Phase
	h.Remaining = snap.Remaining
	h.Sorted = snap.Sorted
	h.Target = snap.Target
	h.WonOnce = snap.WonOnce
	switch eff {
	case session.ShowGame:
		h.GameVisible = true
	case session.HideGame:
		h.GameVisible = false
	case session.ShowBuckets:
		h.BucketsVisible = true
	case session.HideBuckets:
		h.BucketsVisible = false
	case session.ShowReward:
		h.RewardVisible = true
	}
}
