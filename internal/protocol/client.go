package protocol

// Resize reports the visitor's viewport in CSS pixels.
type Resize struct {
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pointer is the payload of down, move and up.
type Pointer struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}
