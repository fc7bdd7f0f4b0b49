package pages

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bucketsort/internal/viewmodel"
)

func TestPlayPage(t *testing.T) {
	var buf bytes.Buffer
	err := PlayPage(viewmodel.PlayPage{
		Title:     "Bucket Sort",
		RoomID:    "room-1",
		SocketURL: "/play/room-1/ws",
		StreamURL: "/play/room-1/stream",
		HUD:       viewmodel.HUDFragment{Target: 5},
		Rules:     viewmodel.RulesHint{PrimaryLabel: "<blue> shapes", SecondaryLabel: "triangles"},
	}).Render(context.Background(), &buf)
	require.NoError(t, err)

	html := buf.String()
	assert.Contains(t, html, "<!doctype html>")
	assert.Contains(t, html, `data-room="room-1"`)
	assert.Contains(t, html, `data-socket="/play/room-1/ws"`)
	assert.Contains(t, html, `data-stream="/play/room-1/stream"`)
	assert.Contains(t, html, "&lt;blue&gt; shapes")
	assert.Contains(t, html, `id="hud" class="hud is-hidden"`)
	assert.Contains(t, html, `id="reward" class="reward is-hidden"`)
}
