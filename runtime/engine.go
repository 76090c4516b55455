// Package runtime holds the pairing core: who is connected, who waits, who talks to whom.
// It knows nothing about sockets; transports hand it an Outbox per connection.
package runtime

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pair-chat/contract"
	"pair-chat/runtime/workers"
)

type EngineConfig struct {
	RecorderBufferSize int
	SinkTimeout        time.Duration
	RestartInterval    time.Duration
	PresenceInterval   time.Duration
}

// Engine wires the registry, the matchmaker, the session manager and the recorder
// together and runs the background workers consuming them. Engines share nothing,
// several can live in the same process.
type Engine struct {
	mu         sync.Mutex
	log        *slog.Logger
	cfg        EngineConfig
	registry   *Registry
	sessions   *SessionManager
	matchmaker *Matchmaker
	recorder   *AsyncRecorder
	supervisor *workers.Supervisor
	inflator   contract.Inflator
	sinks      []contract.EventSink
	extra      []contract.Worker
}

type EngineStats struct {
	Online          int    `json:"online"`
	Idle            int    `json:"idle"`
	Waiting         bool   `json:"waiting"`
	ActiveSessions  int    `json:"active_sessions"`
	SessionsOpened  uint64 `json:"sessions_opened"`
	SessionsClosed  uint64 `json:"sessions_closed"`
	RecorderDropped uint64 `json:"recorder_dropped"`
}

func NewEngine(log *slog.Logger, cfg EngineConfig, inflator contract.Inflator) *Engine {
	if inflator == nil {
		inflator = FloorInflator{}
	}
	recorder := NewAsyncRecorder(log, cfg.RecorderBufferSize)
	registry := NewRegistry()
	sessions := NewSessionManager(recorder)
	return &Engine{
		log:        log,
		cfg:        cfg,
		registry:   registry,
		sessions:   sessions,
		matchmaker: NewMatchmaker(log, registry, sessions),
		recorder:   recorder,
		supervisor: workers.NewSupervisor(log, cfg.RestartInterval),
		inflator:   inflator,
	}
}

func (e *Engine) Registry() *Registry         { return e.registry }
func (e *Engine) Sessions() *SessionManager   { return e.sessions }
func (e *Engine) Matchmaker() *Matchmaker     { return e.matchmaker }
func (e *Engine) Recorder() *AsyncRecorder    { return e.recorder }
func (e *Engine) Inflator() contract.Inflator { return e.inflator }

// Add registers sinks receiving every recorded event. Call it before Start.
func (e *Engine) Add(sinks ...contract.EventSink) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sinks = append(e.sinks, sinks...)
	return e
}

// AddWorker registers an extra worker supervised alongside the engine's own.
func (e *Engine) AddWorker(worker ...contract.Worker) *Engine {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.extra = append(e.extra, worker...)
	return e
}

// Start runs the fanout and presence workers until ctx is done or Stop is called.
// It blocks.
func (e *Engine) Start(ctx context.Context) {
	e.mu.Lock()
	fanout := workers.NewEventFanout(e.log, e.recorder.Events(), e.cfg.SinkTimeout, e.sinks...)
	e.supervisor.Add(fanout)
	if e.cfg.PresenceInterval > 0 {
		e.supervisor.Add(workers.NewPresenceWorker(e.log, e.registry, e.inflator, e.cfg.PresenceInterval))
	}
	e.supervisor.Add(e.extra...)
	e.mu.Unlock()

	e.log.Info("Starting engine and all supervised workers", "sinks", len(e.sinks))
	e.supervisor.Run(ctx)
}

func (e *Engine) Stop() {
	e.supervisor.Stop()
}

func (e *Engine) Stats() EngineStats {
	online, idle := e.registry.Counts()
	_, waiting := e.registry.Waiting()
	opened, closed := e.sessions.Stats()
	return EngineStats{
		Online:          online,
		Idle:            idle,
		Waiting:         waiting,
		ActiveSessions:  e.sessions.ActiveCount(),
		SessionsOpened:  opened,
		SessionsClosed:  closed,
		RecorderDropped: e.recorder.Dropped(),
	}
}
