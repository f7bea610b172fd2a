package georef

import (
	"errors"

	"github.com/carroceria-sur/taller/internal/resilience"
)

// ErrorKind classifies errors returned by the client.
type ErrorKind int

const (
	// KindUnknown is a failure the transport could not classify.
	KindUnknown ErrorKind = iota
	// KindValidation is invalid usage detected before any network call.
	KindValidation
	// KindBadRequest means the remote service rejected the parameters.
	KindBadRequest
	// KindRateLimited means retries were exhausted on HTTP 429.
	KindRateLimited
	// KindNetwork means retries were exhausted on connectivity failures.
	KindNetwork
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindBadRequest:
		return "bad_request"
	case KindRateLimited:
		return "rate_limited"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// User-facing messages, shown as-is by the address forms.
const (
	msgProvinceRequired = "El ID de provincia es requerido"
	msgQueryRequired    = "El texto de búsqueda es requerido"
	msgBadRequest       = "Parámetros de búsqueda inválidos"
	msgRateLimited      = "Demasiadas solicitudes. Por favor, intente nuevamente en unos momentos."
	msgNetwork          = "Error de conexión con el servicio de georreferenciación. Intente nuevamente."
	msgUnknown          = "Error al consultar el servicio de georreferenciación"
)

// Error is returned by every Client operation. Message is safe to display.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var (
	// ErrProvinceRequired is returned by locality lookups without a province id.
	ErrProvinceRequired = &Error{Kind: KindValidation, Message: msgProvinceRequired}
	// ErrQueryRequired is returned by free-text operations with an empty text.
	ErrQueryRequired = &Error{Kind: KindValidation, Message: msgQueryRequired}
)

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// fromFailure maps the last transport failure of an exhausted retry loop to
// its user-facing error.
func fromFailure(err error) *Error {
	switch resilience.KindOf(err) {
	case resilience.KindBadRequest:
		return &Error{Kind: KindBadRequest, Message: msgBadRequest, Err: err}
	case resilience.KindRateLimited:
		return &Error{Kind: KindRateLimited, Message: msgRateLimited, Err: err}
	case resilience.KindNetwork:
		return &Error{Kind: KindNetwork, Message: msgNetwork, Err: err}
	default:
		return &Error{Kind: KindUnknown, Message: msgUnknown, Err: err}
	}
}
