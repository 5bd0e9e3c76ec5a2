package camera

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/transport"
)

var testIdentity = core.CameraIdentity{
	Interface:    "wlan1",
	SSID:         "GP-FRONT",
	WiFiMAC:      "D6:32:60:AA:BB:01",
	BluetoothMAC: "E1:2F:7C:AA:BB:01",
}

func testTiming() Timing {
	return Timing{
		WakeAttempts:       10,
		AssociateAttempts:  10,
		FinalProbeAttempts: 3,
		ConnectAttempts:    4,
	}
}

type harness struct {
	tr    *fakeTransport
	link  *fakeLink
	radio *fakeRadio
	waker *fakeWaker
	obs   *recordingObserver
	logs  *bytes.Buffer
	sess  *Session
}

func newHarness(associated ...bool) *harness {
	h := &harness{
		tr:    newFakeTransport(),
		link:  &fakeLink{answers: associated},
		radio: &fakeRadio{},
		waker: &fakeWaker{},
		obs:   &recordingObserver{},
		logs:  &bytes.Buffer{},
	}
	h.sess = NewSession(testIdentity, "", Deps{
		Transport: h.tr,
		Link:      h.link,
		Radio:     h.radio,
		Waker:     h.waker,
		Observer:  h.obs,
	}, testTiming(), zerolog.New(h.logs))
	return h
}

func TestSession_PowerOnAssociatedRetriesUntilLocate(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, unreachable(), status(503), status(200))

	if res := h.sess.PowerOn(context.Background()); res != ResultSuccess {
		t.Fatalf("expected success, got %s", res)
	}
	if got := h.tr.count(core.PathLocate); got != 3 {
		t.Errorf("expected 3 locate probes, got %d", got)
	}
	if h.waker.calls != 3 {
		t.Errorf("expected one wake per attempt (3), got %d", h.waker.calls)
	}
	if h.radio.calls != 0 {
		t.Errorf("radio should not be used when wifi is associated, got %d calls", h.radio.calls)
	}
	for _, iface := range h.tr.ifaces {
		if iface != testIdentity.Interface {
			t.Errorf("probe not bound to %s: %s", testIdentity.Interface, iface)
		}
	}
}

func TestSession_PowerOnUndecodableBodyStillSucceeds(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, reply{r: transport.Reply{
		Status:    200,
		DecodeErr: &core.Error{Kind: core.KindDecode, Err: errors.New("invalid character")},
	}})

	if res := h.sess.PowerOn(context.Background()); res != ResultSuccess {
		t.Fatalf("expected success on non-JSON 200, got %s", res)
	}
	if got := h.tr.count(core.PathLocate); got != 1 {
		t.Errorf("expected a single locate probe, got %d", got)
	}
}

func TestSession_PowerOnAssociatedFallsThroughToFinalProbe(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, unreachable())

	if res := h.sess.PowerOn(context.Background()); res != ResultFailed {
		t.Fatalf("expected failure, got %s", res)
	}
	// 10 tentativas com wake + 3 sondas finais depois de mais um wake
	if got := h.tr.count(core.PathLocate); got != 13 {
		t.Errorf("expected 13 locate probes, got %d", got)
	}
	if h.waker.calls != 11 {
		t.Errorf("expected 11 wake datagrams, got %d", h.waker.calls)
	}
}

func TestSession_PowerOnRadioTimeoutIsNotFatal(t *testing.T) {
	h := newHarness(false)
	h.radio.err = &core.Error{Kind: core.KindRadioTimeout, Op: "gatt write 0x33", Err: errors.New("timed out")}
	h.tr.on(core.PathLocate, status(200))

	if res := h.sess.PowerOn(context.Background()); res != ResultSuccess {
		t.Fatalf("expected success from final probe, got %s", res)
	}
	if !strings.Contains(h.logs.String(), "unreachable over Bluetooth LE. Is camera in deep sleep?") {
		t.Errorf("expected deep sleep warning, logs:\n%s", h.logs.String())
	}
	if h.radio.calls != 1 {
		t.Errorf("expected one radio write, got %d", h.radio.calls)
	}
	if h.radio.addrs[0] != testIdentity.BluetoothMAC {
		t.Errorf("radio write sent to %s", h.radio.addrs[0])
	}
	// 1 consulta inicial + 10 de espera pela associação
	if h.link.calls != 11 {
		t.Errorf("expected association polling (11 queries), got %d", h.link.calls)
	}
	if h.waker.calls != 1 {
		t.Errorf("expected final wake datagram, got %d", h.waker.calls)
	}
	if got := h.tr.count(core.PathLocate); got != 1 {
		t.Errorf("expected final locate probe, got %d", got)
	}
}

func TestSession_PowerOnStopsPollingOnceAssociated(t *testing.T) {
	h := newHarness(false, false, false, true)
	h.tr.on(core.PathLocate, status(200))

	if res := h.sess.PowerOn(context.Background()); res != ResultSuccess {
		t.Fatalf("expected success, got %s", res)
	}
	if h.link.calls != 4 {
		t.Errorf("expected polling to stop after association (4 queries), got %d", h.link.calls)
	}
}

func TestSession_PowerOnWaitsBeforeFirstAssociationCheck(t *testing.T) {
	h := newHarness(false, true)
	h.tr.on(core.PathLocate, status(200))

	timing := testTiming()
	timing.AssociateDelay = 40 * time.Millisecond
	sess := NewSession(testIdentity, "", Deps{
		Transport: h.tr,
		Link:      h.link,
		Radio:     h.radio,
		Waker:     h.waker,
		Observer:  h.obs,
	}, timing, zerolog.Nop())

	start := time.Now()
	if res := sess.PowerOn(context.Background()); res != ResultSuccess {
		t.Fatalf("expected success, got %s", res)
	}
	if elapsed := time.Since(start); elapsed < timing.AssociateDelay {
		t.Errorf("expected a wait before the first association check, took %s", elapsed)
	}
	if h.link.calls != 2 {
		t.Errorf("expected 2 link queries, got %d", h.link.calls)
	}
}

func TestSession_PowerOnCancelledIsUnknown(t *testing.T) {
	h := newHarness(true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if res := h.sess.PowerOn(ctx); res != ResultUnknown {
		t.Errorf("expected unknown on cancelled context, got %s", res)
	}
}

func TestSession_EnsureConnection(t *testing.T) {
	t.Run("exhausts outer attempts", func(t *testing.T) {
		h := newHarness(false)
		h.tr.on(core.PathLocate, unreachable())

		if h.sess.EnsureConnection(context.Background()) {
			t.Fatal("expected EnsureConnection to fail")
		}
		if h.radio.calls != 4 {
			t.Errorf("expected 4 power on attempts, got %d", h.radio.calls)
		}
		if len(h.obs.results) != 4 {
			t.Fatalf("expected 4 observed results, got %d", len(h.obs.results))
		}
		for i, r := range h.obs.results {
			if r != ResultFailed {
				t.Errorf("attempt %d: expected failed, got %s", i+1, r)
			}
		}
		// 3 sondas finais por tentativa
		if got := h.tr.count(core.PathLocate); got != 12 {
			t.Errorf("expected 12 locate probes, got %d", got)
		}
	})

	t.Run("succeeds on first power on", func(t *testing.T) {
		h := newHarness(true)
		h.tr.on(core.PathLocate, status(200))

		if !h.sess.EnsureConnection(context.Background()) {
			t.Fatal("expected EnsureConnection to succeed")
		}
		if len(h.obs.results) != 1 || h.obs.results[0] != ResultSuccess {
			t.Errorf("expected a single successful attempt, got %v", h.obs.results)
		}
	})

	t.Run("succeeds on a later attempt", func(t *testing.T) {
		h := newHarness(true)
		failures := make([]reply, 13)
		for i := range failures {
			failures[i] = status(500)
		}
		h.tr.on(core.PathLocate, append(failures, status(200))...)

		if !h.sess.EnsureConnection(context.Background()) {
			t.Fatal("expected EnsureConnection to succeed")
		}
		if len(h.obs.results) != 2 {
			t.Errorf("expected success on the second attempt, got %v", h.obs.results)
		}
	})
}

func TestSession_IsCapturing(t *testing.T) {
	testCases := []struct {
		name   string
		status reply
		want   CaptureState
	}{
		{name: "recording", status: ok200(statusBody(1, 0)), want: CaptureRecording},
		{name: "idle", status: ok200(statusBody(0, 0)), want: CaptureIdle},
		{name: "probe failure is unknown", status: unreachable(), want: CaptureUnknown},
		{name: "undecodable body is unknown", status: status(200), want: CaptureUnknown},
		{name: "missing status object is unknown", status: ok200(map[string]interface{}{"settings": map[string]interface{}{}}), want: CaptureUnknown},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(true)
			h.tr.on(core.PathLocate, status(200))
			h.tr.on(core.PathStatus, tc.status)

			if got := h.sess.IsCapturing(context.Background()); got != tc.want {
				t.Errorf("expected %s, got %s", tc.want, got)
			}
			if h.tr.count(core.PathSleep) != 0 {
				t.Error("sleep should only be sent on card error")
			}
		})
	}
}

func TestSession_IsCapturingCardErrorPowersOff(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, status(200))
	h.tr.on(core.PathStatus, ok200(statusBody(1, core.CardErrorCode)))
	h.tr.on(core.PathSleep, status(200))

	if got := h.sess.IsCapturing(context.Background()); got != CaptureIdle {
		t.Fatalf("card error camera must report idle, got %s", got)
	}
	if got := h.tr.count(core.PathSleep); got != 1 {
		t.Errorf("expected one sleep command, got %d", got)
	}
	if h.obs.cardError != 1 {
		t.Errorf("expected card error to be observed once, got %d", h.obs.cardError)
	}
	if !strings.Contains(h.logs.String(), "has card error condition. Shutting it down.") {
		t.Errorf("expected card error warning, logs:\n%s", h.logs.String())
	}
}

func TestSession_IsCapturingWithoutConnectionIsUnknown(t *testing.T) {
	h := newHarness(false)
	h.tr.on(core.PathLocate, unreachable())

	if got := h.sess.IsCapturing(context.Background()); got != CaptureUnknown {
		t.Errorf("expected unknown, got %s", got)
	}
	if h.tr.count(core.PathStatus) != 0 {
		t.Error("status must not be probed without a connection")
	}
}

func TestSession_Commands(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, status(200))
	h.tr.on(core.PathShutterStart, status(200))
	h.tr.on(core.PathShutterStop, status(500))
	h.tr.on(core.PathSleep, ok200(map[string]interface{}{}))

	ctx := context.Background()
	if got := h.sess.StartCapture(ctx); got != 200 {
		t.Errorf("StartCapture: expected 200, got %d", got)
	}
	if got := h.sess.StopCapture(ctx); got != 500 {
		t.Errorf("StopCapture: expected raw 500, got %d", got)
	}
	if got := h.sess.PowerOff(ctx); got != 200 {
		t.Errorf("PowerOff: expected 200, got %d", got)
	}
}

func TestSession_CommandWithoutConnectionReturnsZero(t *testing.T) {
	h := newHarness(false)
	h.tr.on(core.PathLocate, unreachable())
	h.tr.on(core.PathShutterStart, status(200))

	if got := h.sess.StartCapture(context.Background()); got != 0 {
		t.Errorf("expected 0 without connection, got %d", got)
	}
	if h.tr.count(core.PathShutterStart) != 0 {
		t.Error("shutter must not be sent without a connection")
	}
}

func TestSession_CommandTransportFailureReturnsZero(t *testing.T) {
	h := newHarness(true)
	h.tr.on(core.PathLocate, status(200))
	h.tr.on(core.PathShutterStart, unreachable())

	if got := h.sess.StartCapture(context.Background()); got != 0 {
		t.Errorf("expected 0 on transport failure, got %d", got)
	}
	if len(h.obs.probes) != 1 || h.obs.probes[0] != core.KindUnreachable {
		t.Errorf("expected one unreachable probe failure, got %v", h.obs.probes)
	}
}

func TestCaptureState_Matches(t *testing.T) {
	if !CaptureRecording.Matches(true) || CaptureRecording.Matches(false) {
		t.Error("recording matches only recording=true")
	}
	if !CaptureIdle.Matches(false) || CaptureIdle.Matches(true) {
		t.Error("idle matches only recording=false")
	}
	if CaptureUnknown.Matches(true) || CaptureUnknown.Matches(false) {
		t.Error("unknown never matches")
	}
}

func TestCaptureState_State(t *testing.T) {
	for c, want := range map[CaptureState]State{
		CaptureRecording: StateCapturing,
		CaptureIdle:      StateIdle,
		CaptureUnknown:   StateUnknown,
	} {
		if got := c.State(); got != want {
			t.Errorf("%s: expected %s, got %s", c, want, got)
		}
	}
}
