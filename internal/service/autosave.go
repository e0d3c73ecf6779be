package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"formcraft/internal/model"
	"formcraft/internal/observability"

	"go.uber.org/zap"
)

// SaveState is the outcome of the latest auto-save
type SaveState struct {
	Status    model.SaveStatus `json:"status"`
	LastSaved *time.Time       `json:"lastSaved,omitempty"`
	LastError string           `json:"lastError,omitempty"`
}

// AutoSaver periodically saves the open form. Its ticker runs only while
// a form is open and a tick never overlaps another save.
type AutoSaver struct {
	builder  *Builder
	interval time.Duration
	log      *zap.Logger
	metrics  *observability.Metrics

	saveMu sync.Mutex

	mu          sync.Mutex
	state       SaveState
	ctx         context.Context
	stop        context.CancelFunc
	done        chan struct{}
	unsubscribe func()
}

func NewAutoSaver(builder *Builder, interval time.Duration, log *zap.Logger) *AutoSaver {
	if log == nil {
		log = zap.NewNop()
	}
	return &AutoSaver{
		builder:  builder,
		interval: interval,
		log:      log,
		state:    SaveState{Status: model.SaveStatusSaved},
	}
}

// SetMetrics sets the metrics sink
func (a *AutoSaver) SetMetrics(m *observability.Metrics) {
	a.metrics = m
}

// Start follows the builder and keeps a ticker running while a form is
// open, until ctx is done or Stop is called.
func (a *AutoSaver) Start(ctx context.Context) {
	a.mu.Lock()
	a.ctx = ctx
	a.mu.Unlock()

	a.unsubscribe = a.builder.Subscribe(func(s State) { a.sync(s.Form != nil) })
	a.sync(a.builder.HasForm())
}

// Stop halts the ticker and stops following the builder
func (a *AutoSaver) Stop() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.halt()
}

// Running reports whether the ticker is active
func (a *AutoSaver) Running() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stop != nil
}

// Status returns the outcome of the latest save
func (a *AutoSaver) Status() SaveState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SaveNow saves the open form immediately and records the outcome
func (a *AutoSaver) SaveNow(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	prev := a.Status()
	a.setStatus(model.SaveStatusSaving, nil)
	id, err := a.builder.SaveForm(ctx)
	if errors.Is(err, model.ErrNoForm) {
		a.mu.Lock()
		a.state = prev
		a.mu.Unlock()
		return err
	}
	if err != nil {
		a.setStatus(model.SaveStatusError, err)
		a.metrics.RecordAutosave(string(model.SaveStatusError))
		a.log.Warn("Auto-save failed", zap.Error(err))
		return err
	}
	a.setStatus(model.SaveStatusSaved, nil)
	a.metrics.RecordAutosave(string(model.SaveStatusSaved))
	a.log.Debug("Auto-saved form", zap.String("form_id", id))
	return nil
}

func (a *AutoSaver) sync(open bool) {
	if open {
		a.launch()
	} else {
		a.halt()
	}
}

func (a *AutoSaver) launch() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stop != nil || a.ctx == nil || a.ctx.Err() != nil {
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.stop = cancel
	a.done = make(chan struct{})
	go a.loop(ctx, a.done)
	a.log.Debug("Auto-save started", zap.Duration("interval", a.interval))
}

func (a *AutoSaver) halt() {
	a.mu.Lock()
	stop, done := a.stop, a.done
	a.stop, a.done = nil, nil
	a.mu.Unlock()

	if stop == nil {
		return
	}
	stop()
	<-done
	a.log.Debug("Auto-save stopped")
}

func (a *AutoSaver) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.SaveNow(ctx)
		}
	}
}

func (a *AutoSaver) setStatus(status model.SaveStatus, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.state.Status = status
	switch {
	case err != nil:
		a.state.LastError = err.Error()
	case status == model.SaveStatusSaved:
		a.state.LastError = ""
	}
	if status == model.SaveStatusSaved && err == nil {
		now := time.Now().UTC()
		a.state.LastSaved = &now
	}
}
