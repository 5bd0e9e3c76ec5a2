package camera

// State é o estado conceitual exposto no status. Nunca é guardado: cada
// operação pública deriva o estado atual de uma consulta ao vivo. WiFi fora
// do ar e câmera dormindo aparecem como unknown, porque IsCapturing não os
// distingue.
type State string

const (
	StateUnknown   State = "unknown"
	StateIdle      State = "idle"
	StateCapturing State = "capturing"
)

// Result é o desfecho de PowerOn.
type Result int

const (
	ResultFailed Result = iota
	ResultSuccess
	// Não foi possível decidir (contexto cancelado no meio da sequência).
	ResultUnknown
)

func (r Result) String() string {
	switch r {
	case ResultSuccess:
		return "success"
	case ResultUnknown:
		return "unknown"
	default:
		return "failed"
	}
}

// CaptureState é o que IsCapturing conseguiu apurar.
type CaptureState int

const (
	CaptureUnknown CaptureState = iota
	CaptureIdle
	CaptureRecording
)

func (c CaptureState) String() string {
	switch c {
	case CaptureIdle:
		return "idle"
	case CaptureRecording:
		return "recording"
	default:
		return "unknown"
	}
}

// Matches diz se o estado confirmado bate com o desejado. Unknown nunca bate.
func (c CaptureState) Matches(recording bool) bool {
	switch c {
	case CaptureRecording:
		return recording
	case CaptureIdle:
		return !recording
	default:
		return false
	}
}

// State traduz o resultado da captura para o estado conceitual.
func (c CaptureState) State() State {
	switch c {
	case CaptureRecording:
		return StateCapturing
	case CaptureIdle:
		return StateIdle
	default:
		return StateUnknown
	}
}
