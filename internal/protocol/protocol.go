// Package protocol defines the JSON messages exchanged with the browser over
// the play websocket. Every frame is an Envelope whose payload type is named
// by T.
package protocol

import "encoding/json"

// Client to server.
const (
	MsgResize = "resize"
	MsgDown   = "down"
	MsgMove   = "move"
	MsgUp     = "up"
)

// Server to client.
const (
	MsgFrame    = "frame"
	MsgEmphasis = "emphasis"
	MsgFlash    = "flash"
	MsgCue      = "cue"
	MsgBuckets  = "buckets"
)

const (
	SimTickHz   = 60
	BroadcastHz = 30
)

type Envelope struct {
	T string          `json:"t"`
	P json.RawMessage `json:"p"`
}
