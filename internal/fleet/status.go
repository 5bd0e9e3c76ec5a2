package fleet

import (
	"context"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/sua-org/gopro-fleet/internal/camera"
	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/journal"
)

// Publisher é o subconjunto do cliente MQTT usado aqui.
type Publisher interface {
	PublishJSON(topic string, retained bool, v interface{}) error
}

// StatusReporter publica status retidos e eventos no MQTT e arquiva os
// eventos no journal. Também observa as sessões (cartão, falha de conexão).
type StatusReporter struct {
	pub       Publisher
	store     journal.Store
	baseTopic string
	hostname  string
	proc      *process.Process
	log       zerolog.Logger

	// prazo do arquivamento; o evento sai do loop do monitor
	archiveTimeout time.Duration

	// última flag conhecida, para eventos que nascem dentro da sessão
	recording atomic.Bool
}

// DefaultArchiveTimeout limita quanto um Append lento segura o monitor.
const DefaultArchiveTimeout = 5 * time.Second

// NewStatusReporter aceita pub nil (sem MQTT) e store nil (sem journal).
func NewStatusReporter(pub Publisher, store journal.Store, baseTopic string, logger zerolog.Logger) *StatusReporter {
	if store == nil {
		store = journal.NopStore{}
	}
	if baseTopic == "" {
		baseTopic = "gopro-fleet"
	}
	hostname, _ := os.Hostname()

	var procHandle *process.Process
	if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
		procHandle = p
	}

	return &StatusReporter{
		pub:       pub,
		store:     store,
		baseTopic: strings.TrimSuffix(baseTopic, "/"),
		hostname:  hostname,
		proc:      procHandle,
		log:       logger.With().Str("component", "status").Logger(),

		archiveTimeout: DefaultArchiveTimeout,
	}
}

func (r *StatusReporter) EventsTopic() string { return r.baseTopic + "/events" }

func (r *StatusReporter) FleetTopic() string { return r.baseTopic + "/status" }

func (r *StatusReporter) CameraTopic(ssid string) string {
	return r.baseTopic + "/cameras/" + ssid + "/status"
}

// OfflinePayload vai como LWT do cliente MQTT.
func OfflinePayload() string {
	return `{"collector":"gopro-fleet","status":"offline"}`
}

func (r *StatusReporter) Event(ctx context.Context, evt core.FleetEvent) {
	if evt.Type == core.EventCaptureStarted || evt.Type == core.EventCaptureStopped {
		r.recording.Store(evt.Recording)
	}

	if r.pub != nil {
		if err := r.pub.PublishJSON(r.EventsTopic(), false, evt); err != nil {
			r.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("erro ao publicar evento")
		}
	}
	actx, cancel := context.WithTimeout(ctx, r.archiveTimeout)
	defer cancel()
	if err := r.store.Append(actx, evt); err != nil {
		r.log.Warn().Err(err).Str("type", string(evt.Type)).Msg("erro ao arquivar evento")
	}
}

func (r *StatusReporter) FleetStatus(snap Snapshot) {
	r.recording.Store(snap.Recording)
	if r.pub == nil {
		return
	}

	var (
		cpuPercent  float64
		memPercent  float64
		memRSSBytes uint64
	)
	if r.proc != nil {
		if cpu, err := r.proc.CPUPercent(); err == nil {
			cpuPercent = cpu
		}
		if memInfo, err := r.proc.MemoryInfo(); err == nil {
			memRSSBytes = memInfo.RSS
		}
		if memP, err := r.proc.MemoryPercent(); err == nil {
			memPercent = float64(memP)
		}
	}

	payload := map[string]interface{}{
		"collector":        "gopro-fleet",
		"status":           "online",
		"timestamp":        time.Now().UTC().Format(time.RFC3339),
		"hostname":         r.hostname,
		"recording":        snap.Recording,
		"cameras":          len(snap.Cameras),
		"cpu_percent":      cpuPercent,
		"memory_percent":   memPercent,
		"memory_rss_bytes": memRSSBytes,
	}

	topic := r.FleetTopic()
	if err := r.pub.PublishJSON(topic, true, payload); err != nil {
		r.log.Warn().Err(err).Str("topic", topic).Msg("erro ao publicar status da frota")
		return
	}
	r.log.Debug().Str("topic", topic).Bool("recording", snap.Recording).Msg("fleet status published")
}

func (r *StatusReporter) CameraStatus(cam CameraStatus, desired bool) {
	if r.pub == nil {
		return
	}

	payload := map[string]interface{}{
		"ssid":        cam.SSID,
		"interface":   cam.Interface,
		"state":       cam.State,
		"reported":    cam.Reported,
		"desired":     desiredState(desired),
		"in_sync":     cam.Reported == desiredState(desired),
		"last_status": cam.LastStatus,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	}
	if !cam.CheckedAt.IsZero() {
		payload["checked_at"] = cam.CheckedAt.Format(time.RFC3339)
	}

	topic := r.CameraTopic(cam.SSID)
	if err := r.pub.PublishJSON(topic, true, payload); err != nil {
		r.log.Warn().Err(err).Str("topic", topic).Msg("erro ao publicar status da câmera")
	}
}

// camera.Observer

func (r *StatusReporter) PowerOnResult(cam core.CameraIdentity, res camera.Result) {
	if res != camera.ResultFailed {
		return
	}
	r.Event(context.Background(), journal.NewEvent(core.EventConnectFailed, &cam, r.recording.Load(), map[string]interface{}{
		"result": res.String(),
	}))
}

func (r *StatusReporter) ProbeFailed(core.CameraIdentity, core.ErrorKind) {}

func (r *StatusReporter) CardError(cam core.CameraIdentity) {
	r.Event(context.Background(), journal.NewEvent(core.EventCardError, &cam, r.recording.Load(), map[string]interface{}{
		"code": core.CardErrorCode,
	}))
}

func desiredState(recording bool) string {
	if recording {
		return camera.CaptureRecording.String()
	}
	return camera.CaptureIdle.String()
}
