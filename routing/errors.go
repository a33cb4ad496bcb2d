package routing

import "errors"

var (
	ErrNotInitialized       = errors.New("routing: stack not bound")
	ErrInterfaceNotFound    = errors.New("routing: interface not found")
	ErrCallbackUnavailable  = errors.New("routing: callback unavailable")
	ErrInvalidConfiguration = errors.New("routing: invalid configuration")
	ErrNoRouteToHost        = errors.New("routing: no route to host")
)

// Reason maps an error to a short label used in logs and metrics.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrInterfaceNotFound):
		return "interface_not_found"
	case errors.Is(err, ErrCallbackUnavailable):
		return "callback_unavailable"
	case errors.Is(err, ErrInvalidConfiguration):
		return "invalid_configuration"
	case errors.Is(err, ErrNoRouteToHost):
		return "no_route_to_host"
	default:
		return "unknown"
	}
}
