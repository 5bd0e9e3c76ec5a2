package camera

import (
	"context"
	"errors"
	"time"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/shell"
)

// Comando BLE que liga o WiFi da câmera e os handles em que ele é escrito.
const WiFiEnableCommand = "03170101"

var WiFiEnableHandles = []string{"0x33", "0x2f"}

const DefaultRadioTimeout = 10 * time.Second

// Radio é o primitivo de escrita no rádio de curto alcance.
type Radio interface {
	EnableWiFi(ctx context.Context, btAddr string) error
}

// GATTTool escreve via gatttool. Cada escrita tem o seu próprio prazo.
type GATTTool struct {
	Runner  shell.Runner
	Bin     string
	Timeout time.Duration
}

func NewGATTTool(r shell.Runner, timeout time.Duration) *GATTTool {
	if timeout <= 0 {
		timeout = DefaultRadioTimeout
	}
	return &GATTTool{Runner: r, Bin: "gatttool", Timeout: timeout}
}

// EnableWiFi escreve em todos os handles, mesmo se um falhar: cada modelo
// expõe a característica num handle diferente. Um timeout tem prioridade
// sobre outras falhas porque indica câmera em sono profundo.
func (g *GATTTool) EnableWiFi(ctx context.Context, btAddr string) error {
	var first, timeout error
	for _, handle := range WiFiEnableHandles {
		err := g.write(ctx, btAddr, handle, WiFiEnableCommand)
		if err == nil {
			continue
		}
		if first == nil {
			first = err
		}
		if timeout == nil && core.IsKind(err, core.KindRadioTimeout) {
			timeout = err
		}
	}
	if timeout != nil {
		return timeout
	}
	return first
}

func (g *GATTTool) write(ctx context.Context, btAddr, handle, value string) error {
	wctx, cancel := context.WithTimeout(ctx, g.Timeout)
	defer cancel()

	_, err := g.Runner.Run(wctx, g.Bin, "-t", "random", "-b", btAddr, "--char-write-req", "-a", handle, "-n", value)
	if err == nil {
		return nil
	}
	if errors.Is(err, shell.ErrTimeout) || errors.Is(wctx.Err(), context.DeadlineExceeded) {
		return &core.Error{Kind: core.KindRadioTimeout, Op: "gatt write " + handle, Camera: btAddr, Err: err}
	}
	return &core.Error{Kind: core.KindRadioFailed, Op: "gatt write " + handle, Camera: btAddr, Err: err}
}
