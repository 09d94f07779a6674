package api

import (
	"net/http"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/gorilla/mux"
)

func (s *Server) handleReserve(w http.ResponseWriter, r *http.Request) {
	var req reserveRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	reservation, err := s.services.Bookings.Reserve(r.Context(), principalFrom(r.Context()), service.ReserveRequest{
		TeacherID: req.TeacherID,
		Date:      req.Date,
		Time:      req.Time,
		Message:   req.Message,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, reservation)
}

// handleListReservations студенту его брони, учителю pending и решённые
func (s *Server) handleListReservations(w http.ResponseWriter, r *http.Request) {
	principal := principalFrom(r.Context())

	switch principal.Role {
	case model.RoleTeacher:
		agenda, err := s.services.Bookings.TeacherReservations(r.Context(), principal)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		agenda.Pending, agenda.Decided = nonNil(agenda.Pending), nonNil(agenda.Decided)
		s.writeJSON(w, http.StatusOK, agenda)
	default:
		reservations, err := s.services.Bookings.StudentReservations(r.Context(), principal)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, nonNil(reservations))
	}
}

func (s *Server) handleTransition(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	principal := principalFrom(r.Context())

	var (
		reservation *model.Reservation
		err         error
	)
	switch model.ReservationAction(vars["action"]) {
	case model.ReservationActionApprove:
		reservation, err = s.services.Bookings.Approve(r.Context(), principal, vars["id"])
	case model.ReservationActionReject:
		reservation, err = s.services.Bookings.Reject(r.Context(), principal, vars["id"])
	case model.ReservationActionCancel:
		reservation, err = s.services.Bookings.Cancel(r.Context(), principal, vars["id"])
	default:
		err = NewHTTPError(http.StatusNotFound, "not_found", "unknown action")
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, reservation)
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	msg, err := s.services.Inbox.Send(r.Context(), principalFrom(r.Context()), req.To, req.Content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, msg)
}

func (s *Server) handleInbox(w http.ResponseWriter, r *http.Request) {
	messages, err := s.services.Inbox.Inbox(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(messages))
}
