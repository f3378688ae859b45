package apperr

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

/* =========================
   Kind error (lintas layer)
========================= */

// Kind mengelompokkan error service supaya controller tinggal mapping ke HTTP status.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindExpired
	KindTransient
)

type Error struct {
	Kind    Kind
	Message string
	Err     error // penyebab asli (opsional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(message string) *Error { return New(KindValidation, message) }
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }
func Expired(message string) *Error    { return New(KindExpired, message) }
func Transient(message string) *Error  { return New(KindTransient, message) }

// KindOf: ambil Kind dari error chain; selain *Error dianggap internal.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindInternal
}

// Is memudahkan cek kind tanpa unwrap manual di controller.
func Is(err error, kind Kind) bool { return KindOf(err) == kind }

// HTTPStatus: mapping Kind → status code untuk helper.JsonError.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return fiber.StatusBadRequest
	case KindNotFound:
		return fiber.StatusNotFound
	case KindConflict:
		return fiber.StatusConflict
	case KindExpired:
		return fiber.StatusGone
	case KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// Message: pesan aman untuk klien (internal error tidak bocor detail).
func Message(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal server error"
}
