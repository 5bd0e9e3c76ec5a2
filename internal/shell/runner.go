// Package shell executa os utilitários do sistema (ip, iw, gatttool) que o
// controlador usa para falar com a rede e com o rádio.
package shell

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Runner executa um comando e devolve a saída combinada.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (string, error)
}

// ErrTimeout indica que o comando foi morto pelo prazo do contexto.
var ErrTimeout = errors.New("command timed out")

// Exec roda comandos de verdade, opcionalmente via sudo.
type Exec struct {
	Sudo    bool
	SudoBin string

	// Prazo por comando quando o chamador não trouxe prazo próprio; zero usa
	// só o contexto do chamador.
	Timeout time.Duration
}

func NewExec(sudo bool, timeout time.Duration) *Exec {
	return &Exec{Sudo: sudo, SudoBin: "sudo", Timeout: timeout}
}

func (e *Exec) Run(ctx context.Context, name string, args ...string) (string, error) {
	if _, has := ctx.Deadline(); !has && e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	bin := name
	if e.Sudo {
		bin = e.SudoBin
		if bin == "" {
			bin = "sudo"
		}
		args = append([]string{name}, args...)
	}

	cmd := exec.CommandContext(ctx, bin, args...)
	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return output, fmt.Errorf("%s: %w", name, ErrTimeout)
		}
		return output, fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(output))
	}
	return output, nil
}
