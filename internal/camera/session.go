package camera

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/retry"
	"github.com/sua-org/gopro-fleet/internal/transport"
)

// Timing agrupa os limites de tentativas e as pausas fixas de cada fase.
type Timing struct {
	WakeAttempts       int
	WakeDelay          time.Duration
	AssociateAttempts  int
	AssociateDelay     time.Duration
	FinalProbeAttempts int
	ProbeDelay         time.Duration
	ConnectAttempts    int
}

func DefaultTiming() Timing {
	return Timing{
		WakeAttempts:       10,
		WakeDelay:          2 * time.Second,
		AssociateAttempts:  10,
		AssociateDelay:     time.Second,
		FinalProbeAttempts: 3,
		ProbeDelay:         time.Second,
		ConnectAttempts:    4,
	}
}

// Deps são os colaboradores externos de uma sessão.
type Deps struct {
	Transport transport.Requester
	Link      LinkProber
	Radio     Radio
	Waker     Waker
	Observer  Observer
}

// Session controla uma câmera. Não guarda estado de conexão nem de captura:
// tudo é reconsultado a cada chamada, porque a câmera pode mudar por fora
// (desligada na mão, cartão removido, desligamento térmico).
type Session struct {
	id      core.CameraIdentity
	address string
	deps    Deps
	timing  Timing
	log     zerolog.Logger
}

func NewSession(id core.CameraIdentity, address string, deps Deps, timing Timing, logger zerolog.Logger) *Session {
	if address == "" {
		address = core.DefaultCameraAddress
	}
	if deps.Observer == nil {
		deps.Observer = NopObserver{}
	}
	return &Session{
		id:      id,
		address: address,
		deps:    deps,
		timing:  timing,
		log: logger.With().
			Str("component", "camera").
			Str("camera", id.SSID).
			Str("iface", id.Interface).
			Logger(),
	}
}

func (s *Session) Identity() core.CameraIdentity { return s.id }

// WiFiConnected consulta a associação atual da interface. Sem retentativa.
func (s *Session) WiFiConnected(ctx context.Context) bool {
	ok, err := s.deps.Link.Associated(ctx, s.id.Interface, s.id.WiFiMAC)
	if err != nil {
		s.log.Warn().Str("kind", string(core.KindOf(err))).Err(err).Msg("could not query wifi association")
		return false
	}
	return ok
}

// PowerOn acorda a câmera e confirma que ela responde por HTTP.
func (s *Session) PowerOn(ctx context.Context) Result {
	if s.WiFiConnected(ctx) {
		err := retry.Do(ctx, s.timing.WakeAttempts, s.timing.WakeDelay, func(attempt int) error {
			s.wake(ctx)
			return s.locate(ctx)
		})
		if err == nil {
			return ResultSuccess
		}
	} else {
		s.log.Info().Msgf("Wifi is not connected to %s. Sending wifi enable over Bluetooth LE.", s.id)
		s.enableWiFi(ctx)

		// A câmera leva alguns segundos para associar: espera antes de cada
		// consulta, inclusive a primeira.
		_ = retry.Do(ctx, s.timing.AssociateAttempts, 0, func(attempt int) error {
			s.log.Info().Msgf("Waiting for wifi to associate to %s", s.id)
			if err := sleep(ctx, s.timing.AssociateDelay); err != nil {
				return err
			}
			if s.WiFiConnected(ctx) {
				return nil
			}
			return &core.Error{Kind: core.KindNotReady, Op: "associate", Camera: s.id.SSID}
		})
	}
	if ctx.Err() != nil {
		return ResultUnknown
	}

	s.wake(ctx)
	err := retry.Do(ctx, s.timing.FinalProbeAttempts, s.timing.ProbeDelay, func(attempt int) error {
		s.log.Debug().Msg("Waiting for response from GoPro over HTTP")
		return s.locate(ctx)
	})
	if err == nil {
		return ResultSuccess
	}
	if ctx.Err() != nil {
		return ResultUnknown
	}
	return ResultFailed
}

// EnsureConnection é a pré-condição de todos os comandos e consultas.
func (s *Session) EnsureConnection(ctx context.Context) bool {
	err := retry.Do(ctx, s.timing.ConnectAttempts, 0, func(attempt int) error {
		s.log.Debug().Msgf("Attempt number %d to connect to %s", attempt, s.id)
		res := s.PowerOn(ctx)
		s.deps.Observer.PowerOnResult(s.id, res)
		if res == ResultSuccess {
			return nil
		}
		s.log.Warn().
			Str("kind", string(core.KindNotReady)).
			Int("attempt", attempt).
			Str("result", res.String()).
			Msg("camera did not answer after power on")
		return &core.Error{Kind: core.KindNotReady, Op: "power on", Camera: s.id.SSID, Err: fmt.Errorf("result %s", res)}
	})
	return err == nil
}

// IsCapturing diz se a câmera está gravando. Câmera com erro de cartão é
// desligada e conta como parada.
func (s *Session) IsCapturing(ctx context.Context) CaptureState {
	if !s.EnsureConnection(ctx) {
		s.log.Warn().Str("kind", string(core.KindNotReady)).Msg("could not connect to read status")
		return CaptureUnknown
	}

	reply, err := s.deps.Transport.Request(ctx, s.url(core.PathStatus), s.id.Interface)
	if err != nil {
		s.probeFailed(err, "status probe failed")
		return CaptureUnknown
	}
	if reply.Body == nil {
		s.probeFailed(reply.DecodeErr, "status reply not decodable")
		return CaptureUnknown
	}
	status, ok := reply.Body["status"].(map[string]interface{})
	if !ok {
		s.probeFailed(&core.Error{Kind: core.KindDecode, Op: "status", Camera: s.id.SSID, Err: fmt.Errorf("missing status object")}, "status reply without status object")
		return CaptureUnknown
	}

	if code, ok := intField(status, core.StatusKeyCardError); ok && code == core.CardErrorCode {
		s.log.Warn().Str("kind", string(core.KindCardError)).Msgf("%s has card error condition. Shutting it down.", s.id)
		s.deps.Observer.CardError(s.id)
		s.PowerOff(ctx)
		return CaptureIdle
	}

	if rec, ok := intField(status, core.StatusKeyRecording); ok && rec == 1 {
		return CaptureRecording
	}
	return CaptureIdle
}

func (s *Session) StartCapture(ctx context.Context) int {
	return s.command(ctx, core.PathShutterStart)
}

func (s *Session) StopCapture(ctx context.Context) int {
	return s.command(ctx, core.PathShutterStop)
}

func (s *Session) PowerOff(ctx context.Context) int {
	return s.command(ctx, core.PathSleep)
}

// command devolve o status HTTP cru; 0 quando não houve resposta.
func (s *Session) command(ctx context.Context, path string) int {
	if !s.EnsureConnection(ctx) {
		s.log.Warn().Str("kind", string(core.KindNotReady)).Str("path", path).Msg("command not sent, camera not connected")
		return 0
	}
	reply, err := s.deps.Transport.Request(ctx, s.url(path), s.id.Interface)
	if err != nil {
		s.probeFailed(err, "command failed")
		return 0
	}
	s.log.Debug().Str("path", path).Int("status", reply.Status).Msg("command sent")
	return reply.Status
}

// locate usa o endpoint de localizar só como sonda de alcance.
func (s *Session) locate(ctx context.Context) error {
	reply, err := s.deps.Transport.Request(ctx, s.url(core.PathLocate), s.id.Interface)
	if err != nil {
		s.probeFailed(err, "locate probe failed")
		return err
	}
	if !reply.OK() {
		return &core.Error{Kind: core.KindNotReady, Op: "locate", Camera: s.id.SSID, Err: fmt.Errorf("status %d", reply.Status)}
	}
	return nil
}

func (s *Session) wake(ctx context.Context) {
	if err := s.deps.Waker.Wake(ctx, s.id.WiFiMAC); err != nil {
		s.log.Warn().Str("kind", string(core.KindOf(err))).Err(err).Msg("wake-on-lan not sent")
		return
	}
	s.log.Debug().Msgf("Wake-on-lan sent to %s", s.id)
}

func (s *Session) enableWiFi(ctx context.Context) {
	err := s.deps.Radio.EnableWiFi(ctx, s.id.BluetoothMAC)
	switch {
	case err == nil:
		s.log.Debug().Msg("Wifi enable over Bluetooth LE sent")
	case core.IsKind(err, core.KindRadioTimeout):
		s.log.Warn().Str("kind", string(core.KindRadioTimeout)).Msgf("%s unreachable over Bluetooth LE. Is camera in deep sleep?", s.id)
	default:
		s.log.Warn().Str("kind", string(core.KindOf(err))).Err(err).Msg("Wifi enable over Bluetooth LE failed")
	}
}

func (s *Session) probeFailed(err error, msg string) {
	kind := core.KindOf(err)
	s.deps.Observer.ProbeFailed(s.id, kind)
	s.log.Warn().Str("kind", string(kind)).Err(err).Msg(msg)
}

func (s *Session) url(path string) string {
	return core.ControlURL(s.address, path)
}

func intField(m map[string]interface{}, key string) (int, bool) {
	switch v := m[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case string:
		n, err := strconv.Atoi(v)
		return n, err == nil
	case bool:
		if v {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
