package api

import (
	"net/http"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"github.com/Freeeeeet/appointment_bot/internal/service"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req signUpRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	user, err := s.services.Identity.SignUp(r.Context(), service.SignUpRequest{
		Email:      req.Email,
		Password:   req.Password,
		Name:       req.Name,
		Role:       model.Role(req.Role),
		Department: req.Department,
		Subject:    req.Subject,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, user)
}

func (s *Server) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	session, err := s.services.Identity.SignIn(r.Context(), service.SignInRequest{
		Email:    req.Email,
		Password: req.Password,
		Role:     model.Role(req.Role),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, session)
}

func (s *Server) handleSignOut(w http.ResponseWriter, r *http.Request) {
	if err := s.services.Identity.SignOut(r.Context(), principalFrom(r.Context())); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, principalFrom(r.Context()))
}
