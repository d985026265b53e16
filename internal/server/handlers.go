package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/julianshen/gitnote/internal/analysis"
	"github.com/julianshen/gitnote/internal/chat"
	"github.com/julianshen/gitnote/internal/config"
	"github.com/julianshen/gitnote/internal/fetch"
	"github.com/julianshen/gitnote/internal/output"
)

const maxRequestBody = 4 << 20

// jsonOK writes v as a JSON response with the given status code.
func jsonOK(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	// No auth on this server; browsers on any origin may call it.
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// jsonError writes a JSON error response with the given HTTP status code.
func jsonError(w http.ResponseWriter, code int, msg string) {
	jsonOK(w, code, map[string]string{"error": msg})
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(v); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return false
	}
	return true
}

// errorStatus maps the analysis failure taxonomy onto HTTP status codes.
func errorStatus(err error) int {
	var ce *config.ConfigurationError
	var fe *fetch.ContentFetchError
	switch {
	case errors.As(err, &ce):
		return http.StatusPreconditionFailed
	case errors.As(err, &fe):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

type modelsResponse struct {
	Default string   `json:"default"`
	Models  []string `json:"models"`
	Custom  bool     `json:"custom"`
}

func (s *Server) handleListModels(w http.ResponseWriter, r *http.Request) {
	res := s.deps.Resolver
	jsonOK(w, http.StatusOK, modelsResponse{
		Default: res.DefaultModelID(),
		Models:  res.AllModelIDs(),
		Custom:  res.CustomModeEnabled(),
	})
}

type analyzeRequest struct {
	Repo     string `json:"repo"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Repo) == "" {
		jsonError(w, http.StatusBadRequest, "repo is required")
		return
	}

	cfg := s.deps.Config
	orch := analysis.NewOrchestrator(s.deps.Resolver, s.deps.Fetcher, s.deps.NewProvider,
		analysis.WithModel(req.Model),
		analysis.WithLanguage(cfg.Analysis.Language),
		analysis.WithTimeouts(cfg.Analysis.PerspectiveTimeout, cfg.Analysis.UnifyTimeout),
		analysis.WithLogger(s.deps.Logger),
	)

	report, err := orch.Run(r.Context(), req.Repo, req.Language)
	if err != nil {
		s.logger.Warn().Err(err).Str("repo", req.Repo).Msg("analyze failed")
		jsonError(w, errorStatus(err), err.Error())
		return
	}
	jsonOK(w, http.StatusOK, output.NewReportJSON(report))
}

type createChatRequest struct {
	Article  string `json:"article"`
	Language string `json:"language"`
	Model    string `json:"model"`
}

func (s *Server) handleCreateChat(w http.ResponseWriter, r *http.Request) {
	var req createChatRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Article) == "" {
		jsonError(w, http.StatusBadRequest, "article is required")
		return
	}
	if _, err := s.deps.Resolver.Resolve(req.Model); err != nil {
		jsonError(w, http.StatusPreconditionFailed, err.Error())
		return
	}

	lang := req.Language
	if lang == "" {
		lang = s.deps.Config.Analysis.Language
	}
	cc := s.deps.Config.Chat
	sess := chat.NewSession(req.Article, s.deps.Resolver, s.deps.NewProvider,
		chat.WithLanguage(lang),
		chat.WithModel(req.Model),
		chat.WithHistoryLimit(cc.HistoryLimit),
		chat.WithGeneration(cc.MaxTokens, cc.Temperature),
		chat.WithLogger(s.deps.Logger),
	)

	id := uuid.NewString()
	s.mu.Lock()
	s.sessions[id] = sess
	s.mu.Unlock()

	jsonOK(w, http.StatusCreated, map[string]string{"id": id})
}

type snapshotResponse struct {
	Messages  []chat.Message `json:"messages"`
	IsLoading bool           `json:"isLoading"`
	Error     string         `json:"error,omitempty"`
}

func newSnapshotResponse(snap chat.Snapshot) snapshotResponse {
	resp := snapshotResponse{Messages: snap.Messages, IsLoading: snap.IsLoading}
	if resp.Messages == nil {
		resp.Messages = []chat.Message{}
	}
	if snap.Err != nil {
		resp.Error = snap.Err.Error()
	}
	return resp
}

// chatResponse is the full view of a session: its scope plus the current
// snapshot.
type chatResponse struct {
	Article  string `json:"article"`
	Language string `json:"language"`
	snapshotResponse
}

func (s *Server) handleGetChat(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "chat not found")
		return
	}
	jsonOK(w, http.StatusOK, chatResponse{
		Article:          sess.Article(),
		Language:         sess.Language(),
		snapshotResponse: newSnapshotResponse(sess.Snapshot()),
	})
}

type sendMessageRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSendMessage(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(r.PathValue("id"))
	if !ok {
		jsonError(w, http.StatusNotFound, "chat not found")
		return
	}
	var req sendMessageRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if sess.IsLoading() {
		jsonError(w, http.StatusConflict, chat.ErrBusy.Error())
		return
	}

	s.streamTurn(w, r, sess, req.Text)
}
