package camera

import "github.com/sua-org/gopro-fleet/internal/core"

// Observer recebe os fatos relevantes de uma sessão (métricas, eventos).
type Observer interface {
	PowerOnResult(cam core.CameraIdentity, r Result)
	ProbeFailed(cam core.CameraIdentity, kind core.ErrorKind)
	CardError(cam core.CameraIdentity)
}

type NopObserver struct{}

func (NopObserver) PowerOnResult(core.CameraIdentity, Result)        {}
func (NopObserver) ProbeFailed(core.CameraIdentity, core.ErrorKind) {}
func (NopObserver) CardError(core.CameraIdentity)                   {}

// Observers repassa para todos os observadores da lista.
type Observers []Observer

func (o Observers) PowerOnResult(cam core.CameraIdentity, r Result) {
	for _, obs := range o {
		obs.PowerOnResult(cam, r)
	}
}

func (o Observers) ProbeFailed(cam core.CameraIdentity, kind core.ErrorKind) {
	for _, obs := range o {
		obs.ProbeFailed(cam, kind)
	}
}

func (o Observers) CardError(cam core.CameraIdentity) {
	for _, obs := range o {
		obs.CardError(cam)
	}
}
