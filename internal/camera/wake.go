package camera

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/mdlayher/wol"

	"github.com/sua-org/gopro-fleet/internal/core"
)

// Waker manda o datagrama de wake-on-lan para a câmera.
type Waker interface {
	Wake(ctx context.Context, wifiMAC string) error
}

// MagicPacket envia o pacote mágico WoL por UDP para o endereço fixo da câmera.
type MagicPacket struct {
	Address string
	Port    int
}

func NewMagicPacket(address string, port int) *MagicPacket {
	if port <= 0 {
		port = core.DefaultWakePort
	}
	return &MagicPacket{Address: address, Port: port}
}

// Wake não bloqueia: um datagrama só, sem resposta. O ctx é checado antes do envio.
func (m *MagicPacket) Wake(ctx context.Context, wifiMAC string) error {
	if err := ctx.Err(); err != nil {
		return core.NewError(core.KindWakeFailed, "wake", err)
	}

	hw, err := net.ParseMAC(wifiMAC)
	if err != nil {
		return core.NewError(core.KindWakeFailed, "wake", err)
	}
	if len(hw) != 6 {
		return core.NewError(core.KindWakeFailed, "wake", fmt.Errorf("wake-on-lan needs a 6 byte MAC, got %d", len(hw)))
	}

	c, err := wol.NewClient()
	if err != nil {
		return core.NewError(core.KindWakeFailed, "wake", err)
	}
	defer c.Close()

	if err := c.Wake(net.JoinHostPort(m.Address, strconv.Itoa(m.Port)), hw); err != nil {
		return core.NewError(core.KindWakeFailed, "wake", err)
	}
	return nil
}
