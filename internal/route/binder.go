// Package route mantém a rota para o endereço da câmera apontando para a
// interface da câmera que vai ser comandada.
//
// Todas as câmeras respondem no mesmo IP, cada uma num link físico, então a
// rota é um recurso global: quem chama deve serializar Bind + operação.
package route

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/shell"
)

// Binder é o contrato consumido pelo monitor da frota.
type Binder interface {
	Bind(ctx context.Context, iface string) error
}

// IPRoute usa `ip route replace`, que é idempotente.
type IPRoute struct {
	runner  shell.Runner
	address string
	bin     string
	log     zerolog.Logger
}

func NewIPRoute(r shell.Runner, address string, logger zerolog.Logger) *IPRoute {
	if address == "" {
		address = core.DefaultCameraAddress
	}
	return &IPRoute{
		runner:  r,
		address: address,
		bin:     "ip",
		log:     logger.With().Str("component", "route").Logger(),
	}
}

func (b *IPRoute) Bind(ctx context.Context, iface string) error {
	iface = strings.TrimSpace(iface)
	if iface == "" {
		return core.NewError(core.KindRoute, "route replace", errEmptyInterface)
	}
	_, err := b.runner.Run(ctx, b.bin, "route", "replace", b.address, "dev", iface, "proto", "dhcp", "scope", "link")
	if err != nil {
		return &core.Error{Kind: core.KindRoute, Op: "route replace", Camera: iface, Err: err}
	}
	b.log.Debug().Str("iface", iface).Str("address", b.address).Msg("route bound")
	return nil
}
