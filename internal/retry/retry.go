// Package retry implementa tentativas limitadas com intervalo fixo.
//
// Não existe crescimento exponencial nem jitter: cada chamada recomeça a
// contagem do zero.
package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff"
)

// ErrExhausted é retornado quando attempts <= 0.
var ErrExhausted = errors.New("retry: no attempts allowed")

// Op recebe o número da tentativa (começando em 1).
type Op func(attempt int) error

// Do executa op até attempts vezes, esperando delay entre uma falha e a
// próxima tentativa. Retorna nil na primeira execução sem erro, ou o último
// erro quando as tentativas acabam ou o contexto é cancelado.
func Do(ctx context.Context, attempts int, delay time.Duration, op Op) error {
	if attempts <= 0 {
		return ErrExhausted
	}

	attempt := 0
	operation := func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		attempt++
		return op(attempt)
	}

	// WithMaxRetries(0) não limita nada em algumas versões do backoff.
	if attempts == 1 {
		return operation()
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(delay), uint64(attempts-1)),
		ctx,
	)
	return backoff.Retry(operation, policy)
}
