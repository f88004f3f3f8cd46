package widget

import (
	"context"
	"io"
	"sync"

	"github.com/ethpandaops/perfsummary/pkg/view"
	"golang.org/x/net/html"
)

// State is the lifecycle state of a panel.
type State int

const (
	// StateLoading is the initial, empty state.
	StateLoading State = iota
	// StateRendered means the tiles were installed.
	StateRendered
	// StateFallback means the unavailable message was installed.
	StateFallback
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateRendered:
		return "rendered"
	case StateFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Panel is the container handed to the host. It is usable immediately and
// settles at most once, when the document retrieval completes.
type Panel struct {
	id string

	mu        sync.Mutex
	root      *html.Node
	state     State
	err       error
	discarded bool

	done     chan struct{}
	doneOnce sync.Once
}

func newPanel(id string) *Panel {
	return &Panel{
		id:   id,
		root: view.BuildContainer(id),
		done: make(chan struct{}),
	}
}

// ID returns the widget identifier the panel was rendered for.
func (p *Panel) ID() string {
	return p.id
}

// State returns the current state.
func (p *Panel) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.state
}

// Err returns the retrieval failure behind a fallback panel, or nil.
func (p *Panel) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.err
}

// Done is closed once the panel has settled or was discarded.
func (p *Panel) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the panel settles or ctx ends. The panel remains valid
// either way; a context error only means it may still be loading.
func (p *Panel) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Discard detaches the panel from the host. A settlement arriving later is
// ignored and the panel content stays as it was.
func (p *Panel) Discard() {
	p.mu.Lock()
	p.discarded = true
	p.mu.Unlock()

	p.closeDone()
}

// Node returns a deep copy of the panel's current node tree, suitable for
// mounting into another document.
func (p *Panel) Node() *html.Node {
	p.mu.Lock()
	defer p.mu.Unlock()

	return view.Clone(p.root)
}

// Render writes the panel's current markup to w.
func (p *Panel) Render(w io.Writer) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return view.Render(w, p.root)
}

// HTML returns the panel's current markup.
func (p *Panel) HTML() string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out, err := view.RenderString(p.root)
	if err != nil {
		return ""
	}

	return out
}

// settle installs content and moves the panel to a terminal state. It
// reports false when the panel had already settled or was discarded.
func (p *Panel) settle(state State, content []*html.Node, err error) bool {
	p.mu.Lock()

	if p.state != StateLoading || p.discarded {
		p.mu.Unlock()

		return false
	}

	view.Replace(p.root, content)
	p.state = state
	p.err = err
	p.mu.Unlock()

	p.closeDone()

	return true
}

func (p *Panel) closeDone() {
	p.doneOnce.Do(func() { close(p.done) })
}
