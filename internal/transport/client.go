// Package transport faz o pedido/resposta HTTP com o endpoint de controle de
// uma câmera, com prazo curto e socket opcionalmente preso a uma interface.
//
// Nenhuma falha daqui é fatal: quem chama trata qualquer status não obtido
// como 0 ("inalcançável"). Retentativas ficam na sessão da câmera.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/sua-org/gopro-fleet/internal/core"
)

const DefaultTimeout = 5 * time.Second

// Reply é o resultado de um pedido. Status 0 significa sem resposta.
type Reply struct {
	Status int
	Body   map[string]interface{}

	// Preenchido quando o corpo não é um objeto JSON; o Status continua válido.
	DecodeErr error
}

// OK indica HTTP 200, independente do corpo.
func (r Reply) OK() bool { return r.Status == http.StatusOK }

// Requester é o contrato consumido pela sessão da câmera.
type Requester interface {
	Request(ctx context.Context, url, iface string) (Reply, error)
}

type Client struct {
	timeout time.Duration
	log     zerolog.Logger

	mu      sync.Mutex
	clients map[string]*resty.Client
}

func NewClient(timeout time.Duration, logger zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		timeout: timeout,
		log:     logger.With().Str("component", "transport").Logger(),
		clients: make(map[string]*resty.Client),
	}
}

// Request faz um GET em url. iface vazio usa a rota padrão do sistema.
// O erro só é não-nil quando não houve status (Reply.Status == 0) e vem
// classificado como core.KindTimeout ou core.KindUnreachable.
func (c *Client) Request(ctx context.Context, url, iface string) (Reply, error) {
	cli := c.clientFor(iface)

	resp, err := cli.R().SetContext(ctx).Get(url)
	if err != nil {
		kind := classify(err)
		c.log.Debug().Str("kind", string(kind)).Str("iface", iface).Str("url", url).Err(err).Msg("request failed")
		return Reply{}, &core.Error{Kind: kind, Op: "GET " + url, Camera: iface, Err: err}
	}

	reply := Reply{Status: resp.StatusCode()}
	var body map[string]interface{}
	if err := json.Unmarshal(resp.Body(), &body); err != nil || body == nil {
		if err == nil {
			err = errors.New("body is not a JSON object")
		}
		reply.DecodeErr = &core.Error{Kind: core.KindDecode, Op: "GET " + url, Camera: iface, Err: err}
		c.log.Debug().Str("kind", string(core.KindDecode)).Str("iface", iface).Int("status", reply.Status).Msg("reply body not decoded")
		return reply, nil
	}
	reply.Body = body
	return reply, nil
}

// Um cliente por interface: todas as câmeras têm o mesmo IP, então uma
// conexão aberta por um link nunca pode ser reaproveitada por outro.
func (c *Client) clientFor(iface string) *resty.Client {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cli, ok := c.clients[iface]; ok {
		return cli
	}

	dialer := &net.Dialer{Timeout: c.timeout}
	if iface != "" {
		dialer.Control = bindToDevice(iface)
	}
	tr := &http.Transport{
		DialContext:       dialer.DialContext,
		DisableKeepAlives: true,
	}

	cli := resty.New().
		SetTransport(tr).
		SetTimeout(c.timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{log: c.log})
	c.clients[iface] = cli
	return cli
}

func classify(err error) core.ErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return core.KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return core.KindTimeout
	}
	return core.KindUnreachable
}

// restyLogger manda os avisos internos do resty para o zerolog.
type restyLogger struct {
	log zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
func (l restyLogger) Warnf(format string, v ...interface{})  { l.log.Debug().Msgf(format, v...) }
func (l restyLogger) Debugf(format string, v ...interface{}) { l.log.Debug().Msgf(format, v...) }
