package trigger

import (
	"context"
	"fmt"

	"github.com/warthog618/go-gpiocdev"

	"github.com/sua-org/gopro-fleet/internal/core"
)

type lineReader interface {
	Value() (int, error)
	Close() error
}

// GPIO lê uma linha de entrada ativa em nível baixo (pull-up interno):
// o gatilho fecha o contato para o terra.
type GPIO struct {
	chip   string
	offset int
	line   lineReader
}

func OpenGPIO(chip string, offset int) (*GPIO, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		return nil, fmt.Errorf("request gpio line %s:%d: %w", chip, offset, err)
	}
	return &GPIO{chip: chip, offset: offset, line: line}, nil
}

func (g *GPIO) Name() string { return fmt.Sprintf("gpio:%s:%d", g.chip, g.offset) }

func (g *GPIO) Triggered(context.Context) (bool, error) {
	v, err := g.line.Value()
	if err != nil {
		return false, core.NewError(core.KindTrigger, g.Name(), err)
	}
	return v == 0, nil
}

func (g *GPIO) Close() error {
	if g.line == nil {
		return nil
	}
	return g.line.Close()
}
