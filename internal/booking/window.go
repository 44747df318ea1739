package booking

import (
	"errors"
	"fmt"
	"time"
)

var ErrInvalidWindow = errors.New("invalid window: start must be before end")

// Window is the half-open interval [Start, End) a reservation occupies.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewWindow(start, end time.Time) (Window, error) {
	w := Window{Start: start, End: end}
	if err := w.Validate(); err != nil {
		return Window{}, err
	}
	return w, nil
}

func (w Window) Validate() error {
	if !w.Start.Before(w.End) {
		return ErrInvalidWindow
	}
	return nil
}

// Overlaps reports whether two half-open windows intersect. A window ending
// exactly when the other starts does not overlap it.
func (w Window) Overlaps(o Window) bool {
	return w.Start.Before(o.End) && o.Start.Before(w.End)
}

func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Clip returns the part of w inside bounds, and false when nothing remains.
func (w Window) Clip(bounds Window) (Window, bool) {
	out := w
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	if !out.Start.Before(out.End) {
		return Window{}, false
	}
	return out, true
}

func (w Window) String() string {
	return fmt.Sprintf("[%s, %s)", w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339))
}
