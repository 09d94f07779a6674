package api

import (
	"net/http"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/gorilla/mux"
)

func (s *Server) handleSearchTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.services.Directory.SearchTeachers(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("q"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(teachers))
}

func (s *Server) handleListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := s.services.Schedules.ListWindows(r.Context(), principalFrom(r.Context()), r.URL.Query().Get("teacherId"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(windows))
}

func (s *Server) handleCreateWindow(w http.ResponseWriter, r *http.Request) {
	var req createWindowRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	window, err := s.services.Schedules.CreateWindow(r.Context(), principalFrom(r.Context()), service.CreateWindowRequest{
		TeacherID:    req.TeacherID,
		Day:          req.Day,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		SlotDuration: req.SlotDuration,
		MaxBookings:  req.MaxBookings,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, window)
}

func (s *Server) handlePatchWindow(w http.ResponseWriter, r *http.Request) {
	var req patchWindowRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	window, err := s.services.Schedules.SetActive(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], *req.Active)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, window)
}

func (s *Server) handleDeleteWindow(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Schedules.DeleteWindow(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSlots(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		s.writeError(w, r, NewHTTPError(http.StatusBadRequest, "invalid_input", "date query parameter is required"))
		return
	}

	slots, err := s.services.Schedules.Slots(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"], date)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(slots))
}

// nonNil пустой список кодируется как [], а не null
func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}

