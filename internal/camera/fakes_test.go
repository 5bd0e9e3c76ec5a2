package camera

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/sua-org/gopro-fleet/internal/core"
	"github.com/sua-org/gopro-fleet/internal/transport"
)

type reply struct {
	r   transport.Reply
	err error
}

// fakeTransport devolve respostas por endpoint; a última da fila se repete.
type fakeTransport struct {
	mu        sync.Mutex
	responses map[string][]reply
	calls     []string
	ifaces    []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{responses: make(map[string][]reply)}
}

func (f *fakeTransport) on(path string, replies ...reply) {
	f.responses[path] = append(f.responses[path], replies...)
}

func (f *fakeTransport) Request(_ context.Context, url, iface string) (transport.Reply, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(url, "http://"+core.DefaultCameraAddress)
	f.calls = append(f.calls, path)
	f.ifaces = append(f.ifaces, iface)

	queue := f.responses[path]
	if len(queue) == 0 {
		return transport.Reply{}, &core.Error{Kind: core.KindUnreachable, Op: "GET " + path, Err: errors.New("no route")}
	}
	next := queue[0]
	if len(queue) > 1 {
		f.responses[path] = queue[1:]
	}
	return next.r, next.err
}

func (f *fakeTransport) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c == path {
			n++
		}
	}
	return n
}

func ok200(body map[string]interface{}) reply {
	return reply{r: transport.Reply{Status: 200, Body: body}}
}

func status(code int) reply {
	return reply{r: transport.Reply{Status: code}}
}

func unreachable() reply {
	return reply{err: &core.Error{Kind: core.KindUnreachable, Op: "GET", Err: errors.New("connection refused")}}
}

func statusBody(recording, cardErr int) map[string]interface{} {
	return map[string]interface{}{
		"status": map[string]interface{}{
			core.StatusKeyRecording: float64(recording),
			core.StatusKeyCardError: float64(cardErr),
		},
	}
}

// fakeLink responde a sequência de associações; o último valor se repete.
type fakeLink struct {
	answers []bool
	err     error
	calls   int
}

func (f *fakeLink) Associated(context.Context, string, string) (bool, error) {
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	if len(f.answers) == 0 {
		return false, nil
	}
	v := f.answers[0]
	if len(f.answers) > 1 {
		f.answers = f.answers[1:]
	}
	return v, nil
}

type fakeRadio struct {
	err   error
	calls int
	addrs []string
}

func (f *fakeRadio) EnableWiFi(_ context.Context, btAddr string) error {
	f.calls++
	f.addrs = append(f.addrs, btAddr)
	return f.err
}

type fakeWaker struct {
	calls int
	err   error
}

func (f *fakeWaker) Wake(context.Context, string) error {
	f.calls++
	return f.err
}

type recordingObserver struct {
	results   []Result
	probes    []core.ErrorKind
	cardError int
}

func (o *recordingObserver) PowerOnResult(_ core.CameraIdentity, r Result) {
	o.results = append(o.results, r)
}

func (o *recordingObserver) ProbeFailed(_ core.CameraIdentity, kind core.ErrorKind) {
	o.probes = append(o.probes, kind)
}

func (o *recordingObserver) CardError(core.CameraIdentity) { o.cardError++ }

// fakeRunner grava os comandos executados.
type fakeRunner struct {
	out  string
	err  error
	cmds [][]string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	f.cmds = append(f.cmds, append([]string{name}, args...))
	return f.out, f.err
}
