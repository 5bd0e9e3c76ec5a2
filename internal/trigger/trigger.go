// Package trigger fornece o sinal booleano que manda a frota gravar.
package trigger

import (
	"context"
	"errors"
)

// Source é amostrada uma vez por tick do monitor.
type Source interface {
	Name() string
	Triggered(ctx context.Context) (bool, error)
}

// Any é verdadeiro quando qualquer fonte está ativa. Uma fonte com erro conta
// como inativa e o erro volta junto para ser logado.
type Any []Source

func (a Any) Name() string { return "any" }

func (a Any) Triggered(ctx context.Context) (bool, error) {
	var (
		active bool
		errs   []error
	)
	for _, src := range a {
		on, err := src.Triggered(ctx)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if on {
			active = true
		}
	}
	return active, errors.Join(errs...)
}
