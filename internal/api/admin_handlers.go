package api

import (
	"net/http"

	"github.com/Freeeeeet/appointment_bot/internal/service"
	"github.com/gorilla/mux"
)

func (s *Server) handlePendingStudents(w http.ResponseWriter, r *http.Request) {
	students, err := s.services.Directory.PendingStudents(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(students))
}

func (s *Server) handleApproveStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Directory.ApproveStudent(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRejectStudent(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Directory.RejectStudent(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTeachers(w http.ResponseWriter, r *http.Request) {
	teachers, err := s.services.Directory.ListTeachers(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(teachers))
}

func (s *Server) handleAddTeacher(w http.ResponseWriter, r *http.Request) {
	var req addTeacherRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	teacher, err := s.services.Directory.AddTeacher(r.Context(), principalFrom(r.Context()), service.AddTeacherRequest{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Department: req.Department,
		Subject:    req.Subject,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, teacher)
}

func (s *Server) handleDeleteTeacher(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Directory.DeleteTeacher(r.Context(), principalFrom(r.Context()), mux.Vars(r)["id"]); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAuditLog(w http.ResponseWriter, r *http.Request) {
	entries, err := s.services.Audit.Recent(r.Context(), principalFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(entries))
}
