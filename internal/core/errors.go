// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifica as falhas recuperáveis de cada transporte.
// Toda falha recuperada automaticamente ainda é logada com o seu tipo.
type ErrorKind string

const (
	KindUnreachable  ErrorKind = "unreachable"
	KindTimeout      ErrorKind = "timeout"
	KindDecode       ErrorKind = "decode"
	KindRadioTimeout ErrorKind = "radio_timeout"
	KindRadioFailed  ErrorKind = "radio_failed"
	KindLinkQuery    ErrorKind = "link_query"
	KindWakeFailed   ErrorKind = "wake_failed"
	KindCardError    ErrorKind = "card_error"
	KindRoute        ErrorKind = "route"
	KindNotReady     ErrorKind = "not_ready"
	KindTrigger      ErrorKind = "trigger"
)

// Error carrega o tipo da falha, a operação e a câmera envolvida.
type Error struct {
	Kind   ErrorKind
	Op     string
	Camera string
	Err    error
}

func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Camera != "" {
		msg = e.Camera + ": " + msg
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

func NewError(kind ErrorKind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf devolve o tipo do primeiro *Error na cadeia, ou "" se não houver.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind informa se err (ou algo que ele embrulha) é do tipo kind.
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
