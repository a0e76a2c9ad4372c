package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork connectivity failure: no HTTP response was received.
	ErrNetwork = errors.New("network error")
	// ErrDecode the response body did not match the expected shape.
	ErrDecode = errors.New("unexpected response shape")
)

// APIError non-2xx response (or an enveloped success=false).
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// UserMessage converts any transport error into the text shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	switch {
	case errors.Is(err, context.Canceled):
		return "Operación cancelada"
	case errors.Is(err, context.DeadlineExceeded):
		return "El servidor tardó demasiado en responder"
	case errors.Is(err, ErrNetwork):
		return "No se pudo conectar con el servidor. Verifique su conexión a internet"
	case errors.Is(err, ErrDecode):
		return "Respuesta inesperada del servidor"
	case errors.As(err, &apiErr):
		switch apiErr.StatusCode {
		case http.StatusUnauthorized:
			return "Su sesión ha expirado. Inicie sesión nuevamente"
		case http.StatusForbidden:
			return "No tiene permisos para realizar esta acción"
		case http.StatusNotFound:
			if apiErr.Message != "" && apiErr.Message != "404 Not Found" {
				return apiErr.Message
			}
			return "Recurso no encontrado"
		}
		if apiErr.Message != "" {
			return apiErr.Message
		}
		return fmt.Sprintf("Error del servidor (%d)", apiErr.StatusCode)
	}
	return err.Error()
}
