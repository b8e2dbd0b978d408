// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package fakeapi is an in-memory HRMLESS API and token endpoint for tests.
//
// It serves the organization, position, candidate, interview and settings
// routes under one organization, issues tokens from the OpenID Connect token
// endpoint, and records every request it receives.
package fakeapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	// DefaultOrgID is the organization the server is seeded with.
	DefaultOrgID = "org-1"

	// DefaultPositionID is the seeded position.
	DefaultPositionID = "pos-1"

	// DefaultCandidateID is the seeded candidate of DefaultPositionID.
	DefaultCandidateID = "cand-1"

	// Realm is the login realm served by the token endpoint.
	Realm = "nervai"
)

// Request is a recorded inbound request.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Header http.Header
	Form   url.Values
	Body   []byte
}

// JSON decodes the recorded body.
func (r Request) JSON() (map[string]any, error) {
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// Server is the fake API. All fields are guarded by mu; use the accessor
// methods from tests.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	orgID       string
	token       string
	positions   map[string]map[string]any
	candidates  map[string]map[string]map[string]any
	interviews  map[string][]any
	settings    map[string]any
	requests    []Request
	issued      int
	failOrgID   bool
	forceStatus map[string]int
}

// New starts a seeded server. Close it with t.Cleanup(s.Close).
func New() *Server {
	s := &Server{
		orgID:       DefaultOrgID,
		positions:   map[string]map[string]any{},
		candidates:  map[string]map[string]map[string]any{},
		interviews:  map[string][]any{},
		forceStatus: map[string]int{},
	}
	s.seed()
	s.Server = httptest.NewServer(s.Router())
	return s
}

func (s *Server) seed() {
	s.positions[DefaultPositionID] = map[string]any{
		"id":                     DefaultPositionID,
		"name":                   "Delivery Driver",
		"state":                  "active",
		"department":             "Delivery",
		"location":               "Montana",
		"min_score":              5,
		"role_description":       "Responsible for delivering packages to customers",
		"position_calender_link": "https://example.com/schedule_an_interview",
		"questionaire": []any{
			map[string]any{"id": "q-1", "name": "Question 1", "value": "Do you have a valid driver's license?"},
		},
		"agent_id": "reserved for internal use",
	}
	s.positions["pos-2"] = map[string]any{"id": "pos-2", "name": "Dispatcher", "state": "draft"}

	s.candidates[DefaultPositionID] = map[string]map[string]any{
		DefaultCandidateID: {
			"id":              DefaultCandidateID,
			"position_id":     DefaultPositionID,
			"organization_id": DefaultOrgID,
			"name":            "someone cool",
			"email":           "user@example.com",
			"phone":           "1234567890",
			"language":        "en",
			"state":           "passed",
			"score":           7,
			"hired":           true,
			"tags":            []any{"tag1"},
			"communications":  map[string]any{"initial_email_sent": true},
		},
	}
	s.candidates["pos-2"] = map[string]map[string]any{}
	s.interviews[DefaultCandidateID] = []any{
		map[string]any{"id": "int-1", "status": "completed", "score": 7, "candidate": DefaultCandidateID},
	}
	s.settings = map[string]any{
		"id":            DefaultOrgID,
		"name":          "Acme Corp",
		"contact_email": "contact@acme.com",
		"contact_phone": "1122334455",
		"is_active":     true,
	}
}

// RequireToken makes every API route answer 401 unless the request carries
// "Bearer <token>". The token endpoint issues token as the access token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// FailOrgID makes GET /org_id answer 500.
func (s *Server) FailOrgID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOrgID = true
}

// ForceStatus makes requests to path answer status with an empty body.
func (s *Server) ForceStatus(path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forceStatus[path] = status
}

// Requests returns a copy of the recorded requests.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return Request{}, false
	}
	return s.requests[len(s.requests)-1], true
}

// Candidate returns the stored candidate.
func (s *Server) Candidate(positionID, candidateID string) (map[string]any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.candidates[positionID][candidateID]
	return c, ok
}

// LoginURL is the base login URL to configure auth against this server.
func (s *Server) LoginURL() string {
	return s.URL
}

// Router builds the chi router behind the server.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)

	r.Post("/realms/{realm}/protocol/openid-connect/token", s.handleToken)

	r.Group(func(r chi.Router) {
		r.Use(s.authorize)
		r.Get("/org_id", s.handleOrgID)
		r.Route("/org/{orgID}", func(r chi.Router) {
			r.Use(s.organization)
			r.Get("/position", s.handleListPositions)
			r.Get("/position/{positionID}", s.handleGetPosition)
			r.Put("/position/{positionID}", s.handleUpdatePosition)
			r.Get("/positions/{positionID}/", s.handleListCandidates)
			r.Post("/positions/{positionID}/", s.handleCreateCandidate)
			r.Get("/positions/{positionID}/candidates/{candidateID}/", s.handleGetCandidate)
			r.Put("/positions/{positionID}/candidates/{candidateID}/", s.handleUpdateCandidate)
			r.Delete("/positions/{positionID}/candidates/{candidateID}/", s.handleDeleteCandidate)
			r.Get("/positions/{positionID}/candidates/{candidateID}/interview/", s.handleInterview)
			r.Get("/settings/", s.handleGetSettings)
			r.Put("/settings/", s.handleUpdateSettings)
		})
	})
	return r
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = r.Body.Close()

		rec := Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.Query(),
			Header: r.Header.Clone(),
			Body:   body,
		}
		if strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded") {
			rec.Form, _ = url.ParseQuery(string(body))
		}

		s.mu.Lock()
		s.requests = append(s.requests, rec)
		status, forced := s.forceStatus[r.URL.Path]
		s.mu.Unlock()

		if forced {
			w.WriteHeader(status)
			return
		}

		r.Body = io.NopCloser(strings.NewReader(string(body)))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()

		if token != "" && r.Header.Get("Authorization") != "Bearer "+token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) organization(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if chi.URLParam(r, "orgID") != s.orgID {
			writeJSON(w, http.StatusNotFound, map[string]any{"detail": "Not found."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}
	if chi.URLParam(r, "realm") != Realm {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "realm not found"})
		return
	}

	var refresh string
	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		if r.PostForm.Get("code") == "" || r.PostForm.Get("code_verifier") == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
			return
		}
		refresh = "refresh-" + uuid.NewString()
	case "refresh_token":
		refresh = r.PostForm.Get("refresh_token")
		if refresh == "" {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid_grant"})
			return
		}
	default:
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "unsupported_grant_type"})
		return
	}

	s.mu.Lock()
	s.issued++
	access := s.token
	if access == "" {
		access = fmt.Sprintf("access-%d", s.issued)
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"access_token":  access,
		"refresh_token": refresh,
		"token_type":    "Bearer",
		"expires_in":    300,
	})
}

func (s *Server) handleOrgID(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	fail := s.failOrgID
	s.mu.Unlock()

	if fail {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"detail": "org lookup failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"org_id": s.orgID})
}

func (s *Server) handleListPositions(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	items := make([]any, 0, len(s.positions))
	for _, id := range sortedKeys(s.positions) {
		items = append(items, s.positions[id])
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	p, ok := s.positions[chi.URLParam(r, "positionID")]
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	p, found := s.positions[chi.URLParam(r, "positionID")]
	if found {
		merge(p, patch)
	}
	s.mu.Unlock()

	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	byID, ok := s.candidates[chi.URLParam(r, "positionID")]
	out := make([]any, 0, len(byID))
	for _, id := range sortedKeys(byID) {
		out = append(out, byID[id])
	}
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateCandidate(w http.ResponseWriter, r *http.Request) {
	in, ok := decode(w, r)
	if !ok {
		return
	}
	positionID := chi.URLParam(r, "positionID")

	s.mu.Lock()
	byID, found := s.candidates[positionID]
	var c map[string]any
	if found {
		c = map[string]any{
			"position_id":     positionID,
			"organization_id": s.orgID,
			"state":           "not_invited_yet",
			"hired":           false,
			"tags":            []any{},
			"communications":  map[string]any{},
		}
		merge(c, in)
		id := uuid.NewString()
		c["id"] = id
		byID[id] = c
	}
	s.mu.Unlock()

	if !found {
		notFound(w)
		return
	}
	// the API answers with the created record wrapped in a sequence
	writeJSON(w, http.StatusCreated, []any{c})
}

func (s *Server) lookupCandidate(r *http.Request) (map[string]any, bool) {
	c, ok := s.candidates[chi.URLParam(r, "positionID")][chi.URLParam(r, "candidateID")]
	return c, ok
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	c, ok := s.lookupCandidate(r)
	s.mu.Unlock()

	if !ok {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateCandidate(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	c, found := s.lookupCandidate(r)
	if found {
		merge(c, patch)
	}
	s.mu.Unlock()

	if !found {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, found := s.lookupCandidate(r)
	if found {
		delete(s.candidates[chi.URLParam(r, "positionID")], chi.URLParam(r, "candidateID"))
	}
	s.mu.Unlock()

	if !found {
		notFound(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleInterview(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	_, found := s.lookupCandidate(r)
	interviews := s.interviews[chi.URLParam(r, "candidateID")]
	s.mu.Unlock()

	if !found {
		notFound(w)
		return
	}
	if interviews == nil {
		interviews = []any{}
	}
	writeJSON(w, http.StatusOK, interviews)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"org": s.settings})
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	patch, ok := decode(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	merge(s.settings, patch)
	writeJSON(w, http.StatusOK, s.settings)
}
