package camera

import (
	"bufio"
	"context"
	"strings"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/shell"
)

// LinkProber diz se a interface está associada ao AP da câmera.
type LinkProber interface {
	Associated(ctx context.Context, iface, remoteMAC string) (bool, error)
}

// IWLink consulta `iw dev <iface> link`.
type IWLink struct {
	Runner shell.Runner
	Bin    string
}

func NewIWLink(r shell.Runner) *IWLink {
	return &IWLink{Runner: r, Bin: "iw"}
}

func (l *IWLink) Associated(ctx context.Context, iface, remoteMAC string) (bool, error) {
	out, err := l.Runner.Run(ctx, l.Bin, "dev", iface, "link")
	if err != nil {
		return false, &core.Error{Kind: core.KindLinkQuery, Op: "iw link", Camera: iface, Err: err}
	}
	return linkConnectedTo(out, remoteMAC), nil
}

// linkConnectedTo procura a linha "Connected to <mac>" no início de alguma
// linha da saída do iw, sem diferenciar maiúsculas.
func linkConnectedTo(output, remoteMAC string) bool {
	prefix := "connected to " + strings.ToLower(strings.TrimSpace(remoteMAC))
	sc := bufio.NewScanner(strings.NewReader(output))
	for sc.Scan() {
		if strings.HasPrefix(strings.ToLower(sc.Text()), prefix) {
			return true
		}
	}
	return false
}
