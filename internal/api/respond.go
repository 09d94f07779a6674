package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// HTTPError ошибка с HTTP статусом
type HTTPError struct {
	Code    int    `json:"-"`
	Kind    string `json:"error"`
	Message string `json:"message"`
}

func (e *HTTPError) Error() string {
	return e.Message
}

func NewHTTPError(code int, kind, message string) *HTTPError {
	return &HTTPError{Code: code, Kind: kind, Message: message}
}

// toHTTPError сопоставляет доменную ошибку статусу. Сбои хранилища скрываются за 500
func toHTTPError(err error) *HTTPError {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr
	}

	switch {
	case errors.Is(err, model.ErrSlotAlreadyBooked):
		return NewHTTPError(http.StatusConflict, "slot_already_booked", "slot is already booked, pick another one")
	case errors.Is(err, model.ErrInvalidStateTransition):
		return NewHTTPError(http.StatusConflict, "invalid_state_transition", err.Error())
	case errors.Is(err, model.ErrEmailTaken):
		return NewHTTPError(http.StatusConflict, "email_taken", err.Error())
	case errors.Is(err, model.ErrSlotNotOffered):
		return NewHTTPError(http.StatusUnprocessableEntity, "slot_not_offered", err.Error())
	case errors.Is(err, model.ErrInvalidScheduleWindow):
		return NewHTTPError(http.StatusBadRequest, "invalid_schedule_window", err.Error())
	case errors.Is(err, model.ErrInvalidInput):
		return NewHTTPError(http.StatusBadRequest, "invalid_input", err.Error())
	case errors.Is(err, model.ErrUnauthenticated):
		return NewHTTPError(http.StatusUnauthorized, "unauthenticated", "authentication required")
	case errors.Is(err, model.ErrInvalidCredentials):
		return NewHTTPError(http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, model.ErrAccountPendingApproval):
		return NewHTTPError(http.StatusForbidden, "pending_approval", err.Error())
	case errors.Is(err, model.ErrPermissionDenied):
		return NewHTTPError(http.StatusForbidden, "permission_denied", err.Error())
	case errors.Is(err, model.ErrNotFound):
		return NewHTTPError(http.StatusNotFound, "not_found", err.Error())
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal", "internal error, retry later")
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	httpErr := toHTTPError(err)
	if httpErr.Code >= http.StatusInternalServerError {
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	s.writeJSON(w, httpErr.Code, httpErr)
}

// decode читает JSON тело и проверяет его теги validate
func (s *Server) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return NewHTTPError(http.StatusBadRequest, "invalid_json", "request body must be valid JSON: "+err.Error())
	}

	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Field(), fe.Tag()))
			}
			return NewHTTPError(http.StatusBadRequest, "validation_failed", "invalid fields: "+strings.Join(fields, ", "))
		}
		return NewHTTPError(http.StatusBadRequest, "validation_failed", err.Error())
	}
	return nil
}
