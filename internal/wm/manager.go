// Package wm owns the authoritative window-manager state: one BSP tree per
// desktop, the focus tracker, and the single event loop every mutation is
// serialized through. Control-socket commands and window-system events both
// enter as requests on one channel; no two mutations ever run concurrently,
// so the trees need no locking.
package wm

import (
	"context"
	"os"

	"github.com/charmbracelet/log"

	"github.com/shoji-wm/shoji/internal/config"
	"github.com/shoji-wm/shoji/internal/proto"
	"github.com/shoji-wm/shoji/internal/tree"
	"github.com/shoji-wm/shoji/internal/winsys"
)

// Desktop is one workspace: a rectangle seeded from the screen and zero or
// one tree of managed windows.
type Desktop struct {
	Name string
	Rect winsys.Rect
	Tree *tree.Tree
}

// focusRef pins the focused leaf: the desktop index plus the node handle.
// The handle is generational, so a stale focus simply stops resolving.
type focusRef struct {
	desktop int
	node    tree.NodeID
}

type request struct {
	line   string
	reload *config.Config
	reply  chan proto.Reply
}

// Manager is the single logical owner of tree state. All state access
// happens on the Run goroutine; other goroutines interact only through
// Execute and Reload, which enqueue.
type Manager struct {
	ws     winsys.WindowSystem
	pub    winsys.Publisher
	cfg    *config.Config
	screen winsys.Rect

	desktops []*Desktop
	current  int
	focus    focusRef

	requests chan request
	done     chan struct{}
	cancel   context.CancelFunc
	logger   *log.Logger
}

// New creates a manager over the given window system, publisher and
// configuration. screen seeds every desktop's rectangle.
func New(ws winsys.WindowSystem, pub winsys.Publisher, cfg *config.Config, screen winsys.Rect) *Manager {
	m := &Manager{
		ws:       ws,
		pub:      pub,
		cfg:      cfg,
		screen:   screen,
		requests: make(chan request, 64),
		done:     make(chan struct{}),
		logger: log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			Prefix:          "wm",
		}),
	}
	m.applyDesktopConfig(cfg)
	return m
}

func (m *Manager) applyDesktopConfig(cfg *config.Config) {
	names := cfg.Desktops
	for i, name := range names {
		if i < len(m.desktops) {
			m.desktops[i].Name = name
			continue
		}
		m.desktops = append(m.desktops, &Desktop{Name: name, Rect: m.screen, Tree: tree.New()})
	}
	// Shrinking the desktop list folds orphaned windows into the last
	// surviving desktop.
	if len(names) < len(m.desktops) {
		last := m.desktops[len(names)-1]
		for _, d := range m.desktops[len(names):] {
			for _, win := range d.Tree.Windows() {
				m.adoptWindow(last, win)
			}
		}
		m.desktops = m.desktops[:len(names)]
		if m.current >= len(m.desktops) {
			m.current = len(m.desktops) - 1
		}
		if m.focus.desktop >= len(m.desktops) {
			m.focus = focusRef{}
		}
	}
}

func (m *Manager) adoptWindow(d *Desktop, win winsys.WindowID) {
	target := tree.Nil
	if !d.Tree.Empty() {
		target = d.Tree.FirstLeaf(d.Tree.Root())
	}
	ins, auto := m.cfg.InsertDefaults()
	if auto {
		ins.Dir = tree.AutoDirection(m.targetRect(d, target))
	}
	if _, err := d.Tree.InsertWindow(target, win, ins); err != nil {
		m.logger.Error("adopt window", "window", win, "err", err)
	}
}

// Run processes requests and window-system events until ctx is cancelled
// or a quit command arrives. It is the only goroutine that touches
// manager state.
func (m *Manager) Run(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	defer close(m.done)
	events := m.ws.Events()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			m.handleEvent(ev)
		case req := <-m.requests:
			if req.reload != nil {
				m.handleReload(req.reload)
				continue
			}
			reply := m.execute(req.line)
			if req.reply != nil {
				req.reply <- reply
			}
		}
	}
}

// Done is closed when the run loop has exited.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Execute runs one command line through the event loop and returns its
// reply. Safe to call from any goroutine; blocks until the loop answers or
// shuts down.
func (m *Manager) Execute(ctx context.Context, line string) proto.Reply {
	req := request{line: line, reply: make(chan proto.Reply, 1)}
	select {
	case m.requests <- req:
	case <-ctx.Done():
		return proto.Fail(ctx.Err())
	case <-m.done:
		return proto.Fail(context.Canceled)
	}
	select {
	case reply := <-req.reply:
		return reply
	case <-ctx.Done():
		return proto.Fail(ctx.Err())
	case <-m.done:
		return proto.Fail(context.Canceled)
	}
}

// Reload enqueues a new configuration, applied atomically between
// commands.
func (m *Manager) Reload(cfg *config.Config) {
	select {
	case m.requests <- request{reload: cfg}:
	case <-m.done:
	}
}

func (m *Manager) handleReload(cfg *config.Config) {
	m.cfg = cfg
	m.applyDesktopConfig(cfg)
	m.logger.Info("configuration reloaded")
	m.commit()
}

// execute parses and applies one command atomically: references are
// resolved and validated first, state changes second, so a failing command
// leaves every tree exactly as it was.
func (m *Manager) execute(line string) proto.Reply {
	cmd, err := proto.Parse(line)
	if err != nil {
		return proto.Fail(err)
	}
	return m.dispatch(cmd)
}

func (m *Manager) handleEvent(ev winsys.Event) {
	switch e := ev.(type) {
	case winsys.WindowAppeared:
		m.windowAppeared(e.Window)
	case winsys.WindowDisappeared:
		m.windowDisappeared(e.Window)
	case winsys.WindowRequestedResize:
		m.windowRequestedResize(e.Window, e.Rect)
	}
}

// CurrentDesktop returns the focused desktop. Loop-goroutine only.
func (m *Manager) CurrentDesktop() *Desktop {
	return m.desktops[m.current]
}

func (m *Manager) findWindow(win winsys.WindowID) (int, tree.NodeID) {
	for i, d := range m.desktops {
		if id := d.Tree.FindWindow(win); !id.IsNil() {
			return i, id
		}
	}
	return -1, tree.Nil
}
