package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/m-mizutani/goerr/v2"

	"github.com/secmon-lab/checkerboard/pkg/utils/errutil"
	"github.com/secmon-lab/checkerboard/pkg/utils/safe"
)

type errorDetail struct {
	Type string `json:"type"`
	Msg  string `json:"msg"`
}

type errorResponse struct {
	Detail []errorDetail `json:"detail"`
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.info)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if !s.mapper.Started() {
		writeJSON(w, r, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listMappingsHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, s.mapper.Map())
}

func (s *Server) slackMappingHandler(w http.ResponseWriter, r *http.Request) {
	slackID := chi.URLParam(r, "slack_id")

	github := s.mapper.GitHubForSlackUser(slackID)
	if github == "" {
		writeError(w, r, http.StatusNotFound, "unknown_user",
			fmt.Sprintf("Slack user %s not found", slackID))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{slackID: github})
}

func (s *Server) githubMappingHandler(w http.ResponseWriter, r *http.Request) {
	github := chi.URLParam(r, "github_id")

	slackID := s.mapper.SlackForGitHubUser(github)
	if slackID == "" {
		writeError(w, r, http.StatusNotFound, "unknown_user",
			fmt.Sprintf("Slack user for GitHub user %s not found", github))
		return
	}
	writeJSON(w, r, http.StatusOK, map[string]string{slackID: github})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, errType, msg string) {
	writeJSON(w, r, status, errorResponse{
		Detail: []errorDetail{{Type: errType, Msg: msg}},
	})
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		errutil.HandleHTTP(r.Context(), w, goerr.Wrap(err, "failed to marshal response"), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	safe.Write(r.Context(), w, data)
}
