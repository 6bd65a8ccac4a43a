package console

// WindowSize is how many distinct lines are remembered. The panel replays
// its last 100 lines on every subscribe.
const WindowSize = 101

// Window is a fixed-size FIFO set of recently shown lines.
type Window struct {
	ring []string
	head int // oldest entry once the ring is full
	set  map[string]struct{}
}

func NewWindow(size int) *Window {
	if size < 1 {
		size = 1
	}
	return &Window{
		ring: make([]string, 0, size),
		set:  make(map[string]struct{}, size),
	}
}

func (w *Window) Seen(line string) bool {
	_, ok := w.set[line]
	return ok
}

// Record adds line, evicting the oldest entry when full. Recording a line
// already in the window does nothing.
func (w *Window) Record(line string) {
	if w.Seen(line) {
		return
	}
	if len(w.ring) < cap(w.ring) {
		w.ring = append(w.ring, line)
	} else {
		delete(w.set, w.ring[w.head])
		w.ring[w.head] = line
		w.head = (w.head + 1) % len(w.ring)
	}
	w.set[line] = struct{}{}
}

func (w *Window) Len() int { return len(w.ring) }

// Lines returns the window contents, oldest first.
func (w *Window) Lines() []string {
	out := make([]string, 0, len(w.ring))
	out = append(out, w.ring[w.head:]...)
	return append(out, w.ring[:w.head]...)
}
