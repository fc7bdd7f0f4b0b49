package protocol

type Frame struct {
	Tick   int             `json:"tick"`
	Held   string          `json:"held,omitempty"`
	Shapes []ShapeSnapshot `json:"shapes"`
}

type ShapeSnapshot struct {
	ID    string  `json:"id"`
	Color string  `json:"color"`
	Kind  string  `json:"kind"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	A     float64 `json:"a,omitempty"`
	// S is the draw scale, shrinking to 0 while the shape drains away.
	S float64 `json:"s"`
	// V is the speed of the held shape, used for motion blur.
	V float64 `json:"v,omitempty"`
}

type Emphasis struct {
	Zone string `json:"zone"`
	On   bool   `json:"on"`
}

type Flash struct {
	Zone string `json:"zone"`
}

type Cue struct {
	Name string `json:"name"`
	URL  string `json:"url"`
}

// Buckets toggles the drop zone overlay. Zones carry the rectangles so the
// client draws exactly what the server judges against.
type Buckets struct {
	Visible bool        `json:"visible"`
	Zones   []ZoneShape `json:"zones,omitempty"`
}

type ZoneShape struct {
	Name   string  `json:"name"`
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}
