// Package fakeslack serves the handful of Slack Web API methods used by the
// directory client, with hooks for injecting connection drops, rate limiting
// and API errors.
package fakeslack

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// User is a workspace member served by users.list and users.profile.get
type User struct {
	ID        string
	IsBot     bool
	IsAppUser bool
	Deleted   bool

	// GitHub is the raw value stored in the custom profile field
	GitHub string
	// Malformed makes users.profile.get return a profile of the wrong shape
	Malformed bool
}

type fault struct {
	drops      int
	rateLimits int
	retryAfter int
	apiError   string
}

// Server is an httptest server speaking a subset of the Slack Web API
type Server struct {
	*httptest.Server

	mu         sync.Mutex
	fieldID    string
	fieldLabel string
	users      []User
	pageSize   int
	faults     map[string]*fault
	calls      map[string]int
	profileLog []string
}

// New starts a server exposing one custom profile field
func New(fieldID, fieldLabel string) *Server {
	s := &Server{
		fieldID:    fieldID,
		fieldLabel: fieldLabel,
		pageSize:   1000,
		faults:     make(map[string]*fault),
		calls:      make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// APIURL returns the base URL to hand to the Slack client
func (s *Server) APIURL() string {
	return s.URL + "/"
}

// SetUsers replaces the workspace members
func (s *Server) SetUsers(users ...User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = append([]User(nil), users...)
}

// SetField replaces the custom profile field definition
func (s *Server) SetField(fieldID, fieldLabel string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fieldID = fieldID
	s.fieldLabel = fieldLabel
}

// SetPageSize caps the number of members per users.list page
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// DropConnections closes the next n connections for method without a response
func (s *Server) DropConnections(method string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault(method).drops = n
}

// RateLimit answers the next n calls of method with HTTP 429
func (s *Server) RateLimit(method string, n, retryAfterSec int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f := s.fault(method)
	f.rateLimits = n
	f.retryAfter = retryAfterSec
}

// FailWith makes every call of method return {"ok":false,"error":code}
func (s *Server) FailWith(method, code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault(method).apiError = code
}

// Calls returns how many requests reached method, including failed ones
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

// ProfileLookups returns user IDs in the order users.profile.get served them
func (s *Server) ProfileLookups() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.profileLog...)
}

func (s *Server) fault(method string) *fault {
	f, ok := s.faults[method]
	if !ok {
		f = &fault{}
		s.faults[method] = f
	}
	return f
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/")
	_ = r.ParseForm()

	s.mu.Lock()
	s.calls[method]++
	f := s.fault(method)

	if f.drops > 0 {
		f.drops--
		s.mu.Unlock()
		if hj, ok := w.(http.Hijacker); ok {
			if conn, _, err := hj.Hijack(); err == nil {
				_ = conn.Close()
				return
			}
		}
		w.WriteHeader(http.StatusBadGateway)
		return
	}

	if f.rateLimits > 0 {
		f.rateLimits--
		retryAfter := f.retryAfter
		s.mu.Unlock()
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		w.WriteHeader(http.StatusTooManyRequests)
		return
	}

	if f.apiError != "" {
		code := f.apiError
		s.mu.Unlock()
		writeJSON(w, map[string]any{"ok": false, "error": code})
		return
	}

	var body any
	switch method {
	case "team.profile.get":
		body = s.teamProfile()
	case "users.list":
		body = s.usersList(r.Form.Get("cursor"))
	case "users.profile.get":
		user := r.Form.Get("user")
		s.profileLog = append(s.profileLog, user)
		body = s.userProfile(user)
	default:
		body = map[string]any{"ok": false, "error": "unknown_method"}
	}
	s.mu.Unlock()

	writeJSON(w, body)
}

func (s *Server) teamProfile() any {
	fields := []map[string]any{}
	if s.fieldID != "" {
		fields = append(fields, map[string]any{
			"id":    s.fieldID,
			"label": s.fieldLabel,
			"type":  "text",
		})
	}
	return map[string]any{
		"ok":      true,
		"profile": map[string]any{"fields": fields},
	}
}

func (s *Server) usersList(cursor string) any {
	start, _ := strconv.Atoi(cursor)
	if start < 0 || start > len(s.users) {
		start = len(s.users)
	}
	end := min(start+s.pageSize, len(s.users))

	members := make([]map[string]any, 0, end-start)
	for _, u := range s.users[start:end] {
		members = append(members, map[string]any{
			"id":          u.ID,
			"is_bot":      u.IsBot,
			"is_app_user": u.IsAppUser,
			"deleted":     u.Deleted,
		})
	}

	next := ""
	if end < len(s.users) {
		next = strconv.Itoa(end)
	}
	return map[string]any{
		"ok":                true,
		"members":           members,
		"response_metadata": map[string]any{"next_cursor": next},
	}
}

func (s *Server) userProfile(userID string) any {
	for _, u := range s.users {
		if u.ID != userID {
			continue
		}
		if u.Malformed {
			return map[string]any{"ok": true, "profile": "not-an-object"}
		}

		// Slack sends an empty array when a profile has no custom fields
		var fields any = []any{}
		if u.GitHub != "" {
			fields = map[string]any{
				s.fieldID: map[string]any{"value": u.GitHub, "alt": ""},
			}
		}
		return map[string]any{
			"ok": true,
			"profile": map[string]any{
				"display_name_normalized": u.ID,
				"fields":                  fields,
			},
		}
	}
	return map[string]any{"ok": false, "error": "user_not_found"}
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(body)
}
