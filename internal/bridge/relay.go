package bridge

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// Relay is a Dispatcher whose target is attached after construction. The
// Bubble Tea program needs its root model before it exists, and the model
// needs the bridge, so the program is plugged in last.
type Relay struct {
	mu     sync.RWMutex
	target Dispatcher
}

var _ Dispatcher = (*Relay)(nil)

// NewRelay returns an unattached relay. Messages sent before Attach are
// discarded.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach sets the dispatcher that receives subsequent messages.
func (r *Relay) Attach(d Dispatcher) {
	r.mu.Lock()
	r.target = d
	r.mu.Unlock()
}

func (r *Relay) Send(msg tea.Msg) {
	r.mu.RLock()
	d := r.target
	r.mu.RUnlock()
	if d != nil {
		d.Send(msg)
	}
}
