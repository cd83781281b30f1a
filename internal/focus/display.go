package focus

import (
	"fmt"
	"time"
)

// Controls says which user actions are currently enabled.
type Controls struct {
	Start        bool
	Pause        bool
	Resume       bool
	Distraction  bool // toggle: begin when running, end when distracted
	Complete     bool
	Reset        bool
	EditDuration bool
}

// View is the render-ready projection of a State.
type View struct {
	Minutes  int
	Seconds  int
	Status   Status
	Controls Controls
}

// Clock formats the countdown as MM:SS.
func (v View) Clock() string {
	return fmt.Sprintf("%02d:%02d", v.Minutes, v.Seconds)
}

// Display projects s for rendering. Remaining time is floored to whole
// seconds and never negative.
func Display(s State) View {
	remaining := max(0, s.Remaining)
	secs := int(remaining / time.Second)

	st := s.Status
	return View{
		Minutes: secs / 60,
		Seconds: secs % 60,
		Status:  st,
		Controls: Controls{
			Start:        st == StatusIdle || st == StatusPaused,
			Pause:        st == StatusRunning,
			Resume:       st == StatusPaused,
			Distraction:  st.Ticking(),
			Complete:     st.Ticking(),
			Reset:        st.Ticking() || st == StatusPaused,
			EditDuration: st == StatusIdle,
		},
	}
}
