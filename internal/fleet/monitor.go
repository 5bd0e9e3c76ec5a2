// Package fleet contém o monitor que amostra o gatilho e leva todas as
// câmeras para o estado de gravação correspondente.
package fleet

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/camera"
	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/journal"
	"github.com/sua-org/gopro-fleet/internal/route"
	"github.com/sua-org/gopro-fleet/internal/trigger"
)

// Camera é o que o monitor precisa de uma sessão.
type Camera interface {
	Identity() core.CameraIdentity
	StartCapture(ctx context.Context) int
	StopCapture(ctx context.Context) int
	IsCapturing(ctx context.Context) camera.CaptureState
}

// Hooks recebe contadores do monitor (métricas).
type Hooks interface {
	Transition(recording bool)
	Mismatch(cam core.CameraIdentity)
	HealthPass()
}

// Reporter publica eventos e status para fora do processo.
type Reporter interface {
	Event(ctx context.Context, evt core.FleetEvent)
	FleetStatus(snap Snapshot)
	CameraStatus(cam CameraStatus, desired bool)
}

type Config struct {
	TickInterval time.Duration

	// Ticks entre verificações forçadas de status; 0 desliga.
	CheckStatus int
}

type Option func(*Monitor)

func WithHooks(h Hooks) Option {
	return func(m *Monitor) { m.hooks = h }
}

func WithReporter(r Reporter) Option {
	return func(m *Monitor) { m.reporter = r }
}

type Monitor struct {
	cfg      Config
	binder   route.Binder
	trigger  trigger.Source
	hooks    Hooks
	reporter Reporter
	log      zerolog.Logger

	// cameras só muda antes de Run; o loop é o único que comanda câmeras.
	cameras []Camera

	mu        sync.Mutex
	recording bool
	ticks     int
	statuses  map[string]*CameraStatus
	updatedAt time.Time
}

// CameraStatus é a última coisa que o monitor soube de uma câmera.
type CameraStatus struct {
	SSID          string       `json:"ssid"`
	Interface     string       `json:"interface"`
	State         camera.State `json:"state"`
	Reported      string       `json:"reported,omitempty"`
	CheckedAt     time.Time    `json:"checked_at,omitempty"`
	LastCommand   string       `json:"last_command,omitempty"`
	LastStatus    int          `json:"last_status"`
	LastCommandAt time.Time    `json:"last_command_at,omitempty"`
}

type Snapshot struct {
	Recording bool           `json:"recording"`
	Ticks     int            `json:"ticks"`
	Cameras   []CameraStatus `json:"cameras"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func New(cfg Config, binder route.Binder, trig trigger.Source, logger zerolog.Logger, opts ...Option) *Monitor {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second
	}
	if cfg.CheckStatus < 0 {
		cfg.CheckStatus = 0
	}
	m := &Monitor{
		cfg:      cfg,
		binder:   binder,
		trigger:  trig,
		hooks:    nopHooks{},
		reporter: nopReporter{},
		log:      logger.With().Str("component", "fleet").Logger(),
		statuses: make(map[string]*CameraStatus),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// AddCamera acrescenta uma câmera no fim da ordem da frota.
func (m *Monitor) AddCamera(c Camera) {
	id := c.Identity()
	m.cameras = append(m.cameras, c)

	m.mu.Lock()
	m.statuses[keyFor(id)] = &CameraStatus{SSID: id.SSID, Interface: id.Interface, State: camera.StateUnknown}
	m.mu.Unlock()

	m.log.Info().Str("camera", id.SSID).Str("iface", id.Interface).Msg("camera added to fleet")
}

func (m *Monitor) Recording() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recording
}

// Run amostra o gatilho a cada TickInterval até o contexto ser cancelado.
func (m *Monitor) Run(ctx context.Context) error {
	m.log.Info().
		Int("cameras", len(m.cameras)).
		Dur("tick", m.cfg.TickInterval).
		Int("check_status", m.cfg.CheckStatus).
		Msg("Starting to monitor trigger...")

	m.reporter.FleetStatus(m.Snapshot())

	for {
		m.Tick(ctx)
		select {
		case <-ctx.Done():
			m.log.Info().Msg("monitor stopped (context canceled)")
			return nil
		case <-time.After(m.cfg.TickInterval):
		}
	}
}

// Tick é uma volta do loop: amostra, trata borda, conta e talvez verifica.
func (m *Monitor) Tick(ctx context.Context) {
	triggered, err := m.trigger.Triggered(ctx)
	if err != nil {
		m.log.Warn().Str("kind", string(core.KindTrigger)).Err(err).Msg("trigger source failed, treating it as inactive")
	}

	if triggered != m.Recording() {
		m.transition(ctx, triggered)
	}

	m.mu.Lock()
	m.ticks++
	due := m.cfg.CheckStatus > 0 && m.ticks >= m.cfg.CheckStatus
	m.mu.Unlock()

	if due {
		m.healthPass(ctx)
		m.mu.Lock()
		m.ticks = 0
		m.mu.Unlock()
	}
}

// transition comanda todas as câmeras e só depois vira a flag da frota.
func (m *Monitor) transition(ctx context.Context, target bool) {
	recording := m.Recording()
	var failed []string

	for _, c := range m.cameras {
		if ctx.Err() != nil {
			return
		}
		id := c.Identity()
		m.bind(ctx, id)

		var code int
		if recording {
			m.log.Info().Str("camera", id.SSID).Msgf("Stopping capture on %s.", id)
			code = c.StopCapture(ctx)
			m.recordCommand(id, "stop", code)
		} else {
			m.log.Info().Str("camera", id.SSID).Msgf("Starting capture on %s.", id)
			code = c.StartCapture(ctx)
			m.recordCommand(id, "start", code)
		}
		if code != 200 {
			failed = append(failed, id.SSID)
		}
	}

	m.mu.Lock()
	m.recording = target
	m.updatedAt = time.Now().UTC()
	m.mu.Unlock()

	m.hooks.Transition(target)

	typ := core.EventCaptureStarted
	if !target {
		typ = core.EventCaptureStopped
	}
	meta := map[string]interface{}{"cameras": len(m.cameras)}
	if len(failed) > 0 {
		meta["failed"] = failed
		m.log.Warn().Strs("cameras", failed).Msg("some cameras did not confirm the command")
	}
	m.reporter.Event(ctx, journal.NewEvent(typ, nil, target, meta))
	m.reporter.FleetStatus(m.Snapshot())
}

// healthPass relê o estado real de cada câmera e corrige divergências.
// Sem isso uma câmera que reiniciou ficaria parada (ou dormindo) enquanto a
// frota acha que está gravando.
func (m *Monitor) healthPass(ctx context.Context) {
	recording := m.Recording()

	for _, c := range m.cameras {
		if ctx.Err() != nil {
			return
		}
		id := c.Identity()
		m.bind(ctx, id)

		state := c.IsCapturing(ctx)
		m.recordCheck(id, state)

		if !state.Matches(recording) {
			m.log.Warn().
				Str("camera", id.SSID).
				Str("reported", state.String()).
				Bool("desired", recording).
				Msgf("%s recording status does not match desired state.", id)
			m.hooks.Mismatch(id)
			m.reporter.Event(ctx, journal.NewEvent(core.EventMismatch, &id, recording, map[string]interface{}{
				"reported": state.String(),
			}))

			if recording {
				m.log.Info().Str("camera", id.SSID).Msgf("Starting capture on %s.", id)
				m.recordCommand(id, "start", c.StartCapture(ctx))
			} else {
				m.log.Info().Str("camera", id.SSID).Msgf("Stopping capture on %s.", id)
				m.recordCommand(id, "stop", c.StopCapture(ctx))
			}
		}

		if st, ok := m.cameraStatus(id); ok {
			m.reporter.CameraStatus(st, recording)
		}
	}

	m.hooks.HealthPass()
	m.reporter.FleetStatus(m.Snapshot())
}

// Probe consulta cada câmera uma vez, sem corrigir nada.
func (m *Monitor) Probe(ctx context.Context) []CameraStatus {
	out := make([]CameraStatus, 0, len(m.cameras))
	for _, c := range m.cameras {
		if ctx.Err() != nil {
			break
		}
		id := c.Identity()
		m.bind(ctx, id)
		m.recordCheck(id, c.IsCapturing(ctx))
		if st, ok := m.cameraStatus(id); ok {
			out = append(out, st)
		}
	}
	return out
}

// A rota é global: o bind precisa vir imediatamente antes da operação.
func (m *Monitor) bind(ctx context.Context, id core.CameraIdentity) {
	if err := m.binder.Bind(ctx, id.Interface); err != nil {
		m.log.Warn().Str("kind", string(core.KindOf(err))).Str("camera", id.SSID).Err(err).Msg("could not bind camera route")
	}
}

func (m *Monitor) recordCommand(id core.CameraIdentity, command string, code int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.statuses[keyFor(id)]; ok {
		st.LastCommand = command
		st.LastStatus = code
		st.LastCommandAt = time.Now().UTC()
	}
}

func (m *Monitor) recordCheck(id core.CameraIdentity, state camera.CaptureState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.statuses[keyFor(id)]; ok {
		st.State = state.State()
		st.Reported = state.String()
		st.CheckedAt = time.Now().UTC()
	}
}

func (m *Monitor) cameraStatus(id core.CameraIdentity) (CameraStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.statuses[keyFor(id)]
	if !ok {
		return CameraStatus{}, false
	}
	return *st, true
}

// Snapshot devolve uma cópia do estado na ordem da frota.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := Snapshot{
		Recording: m.recording,
		Ticks:     m.ticks,
		Cameras:   make([]CameraStatus, 0, len(m.cameras)),
		UpdatedAt: m.updatedAt,
	}
	for _, c := range m.cameras {
		if st, ok := m.statuses[keyFor(c.Identity())]; ok {
			snap.Cameras = append(snap.Cameras, *st)
		}
	}
	return snap
}

func keyFor(id core.CameraIdentity) string {
	return id.Interface + "|" + id.SSID
}

type nopHooks struct{}

func (nopHooks) Transition(bool)              {}
func (nopHooks) Mismatch(core.CameraIdentity) {}
func (nopHooks) HealthPass()                  {}

type nopReporter struct{}

func (nopReporter) Event(context.Context, core.FleetEvent) {}
func (nopReporter) FleetStatus(Snapshot)                   {}
func (nopReporter) CameraStatus(CameraStatus, bool)        {}
