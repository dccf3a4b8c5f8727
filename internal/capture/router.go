package capture

import (
	"fmt"
	"sync"

	"github.com/bryanchriswhite/screenagent/internal/logger"
)

// Backend names accepted by NewRouter
const (
	BackendAuto       = "auto"
	BackendX11        = "x11"
	BackendScreenshot = "screenshot"
)

type factory struct {
	name string
	open func() (Capturer, error)
}

var defaultFactories = []factory{
	{name: BackendX11, open: func() (Capturer, error) { return NewX11Capturer() }},
	{name: BackendScreenshot, open: func() (Capturer, error) { return NewScreenshotCapturer(), nil }},
}

// Router selects the first capture backend that starts and forwards to it
type Router struct {
	backend   string
	factories []factory
	active    Capturer
	mu        sync.RWMutex
}

// NewRouter creates a capture router for the named backend (auto, x11 or screenshot)
func NewRouter(backend string) (*Router, error) {
	if backend == "" {
		backend = BackendAuto
	}
	switch backend {
	case BackendAuto, BackendX11, BackendScreenshot:
	default:
		return nil, fmt.Errorf("unknown capture backend %q (use auto, x11 or screenshot)", backend)
	}
	return &Router{backend: backend, factories: defaultFactories}, nil
}

// Start opens the first available backend. It fails with ErrNoBackend when
// none can be started.
func (r *Router) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active != nil {
		return nil
	}

	log := logger.WithComponent("capture-router")

	for _, f := range r.factories {
		if r.backend != BackendAuto && r.backend != f.name {
			continue
		}

		c, err := f.open()
		if err != nil {
			log.Warn().Err(err).Str("backend", f.name).Msg("Capture backend not available")
			continue
		}
		if err := c.Start(); err != nil {
			log.Warn().Err(err).Str("backend", f.name).Msg("Failed to start capture backend")
			continue
		}

		r.active = c
		log.Info().Str("backend", c.Name()).Msg("Capture backend initialized")
		return nil
	}

	return fmt.Errorf("%w (requested %s)", ErrNoBackend, r.backend)
}

// Stop stops the active backend
func (r *Router) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active == nil {
		return nil
	}
	err := r.active.Stop()
	r.active = nil
	return err
}

// Name returns the active backend's name
func (r *Router) Name() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return "none"
	}
	return r.active.Name()
}

func (r *Router) current() (Capturer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.active == nil {
		return nil, fmt.Errorf("capture router not started")
	}
	return r.active, nil
}

// Displays lists displays from the active backend
func (r *Router) Displays() ([]Display, error) {
	c, err := r.current()
	if err != nil {
		return nil, err
	}
	return c.Displays()
}

// CapturePrimary captures the primary display from the active backend
func (r *Router) CapturePrimary() (*Frame, error) {
	c, err := r.current()
	if err != nil {
		return nil, err
	}
	return c.CapturePrimary()
}
