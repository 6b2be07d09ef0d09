package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"workshop/api/internal/export"
	"workshop/api/internal/metrics"
	"workshop/api/internal/search"
	"workshop/api/internal/workshop"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	limiter    *RateLimiter
	log        logrus.FieldLogger
}

// NewHTTPServer builds the HTTP surface. limiter may be nil to disable rate
// limiting.
func NewHTTPServer(service *Service, corsOrigin string, limiter *RateLimiter, log logrus.FieldLogger) *HTTPServer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &HTTPServer{service: service, corsOrigin: corsOrigin, limiter: limiter, log: log}
}

func (s *HTTPServer) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(metrics.InstrumentHandler)

	router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	router.HandleFunc("/api/health", s.handleHealth).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/api/ready", s.handleReady).Methods(http.MethodGet, http.MethodHead)

	api := router.PathPrefix("/api").Subrouter()
	if s.limiter != nil {
		api.Use(s.limiter.Handler)
	}
	api.HandleFunc("/phases", s.handlePhases).Methods(http.MethodGet)
	api.HandleFunc("/search", s.handleSearch).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleListSessions).Methods(http.MethodGet)
	api.HandleFunc("/sessions", s.handleCreateSession).Methods(http.MethodPost)
	api.HandleFunc("/sessions/import", s.handleImportSession).Methods(http.MethodPost)

	api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods(http.MethodGet)

	session := api.PathPrefix("/sessions/{id}").Subrouter()
	session.HandleFunc("/board", s.handleSetBoard).Methods(http.MethodPut)
	session.HandleFunc("/guidance", s.handleGuidance).Methods(http.MethodGet)
	session.HandleFunc("/advance", s.handleAdvance).Methods(http.MethodPost)
	session.HandleFunc("/retreat", s.handleRetreat).Methods(http.MethodPost)
	session.HandleFunc("/jump", s.handleJump).Methods(http.MethodPost)
	session.HandleFunc("/phases/{phase}/items", s.handleListItems).Methods(http.MethodGet)
	session.HandleFunc("/phases/{phase}/items", s.handleAddItem).Methods(http.MethodPost)
	session.HandleFunc("/phases/{phase}/items/{itemId}", s.handleEditItem).Methods(http.MethodPut)
	session.HandleFunc("/phases/{phase}/items/{itemId}", s.handleDeleteItem).Methods(http.MethodDelete)
	session.HandleFunc("/phases/{phase}/group", s.handleGroupPhase).Methods(http.MethodPost)
	session.HandleFunc("/phases/{phase}/groups", s.handleGroups).Methods(http.MethodGet)
	session.HandleFunc("/phases/{phase}/analyze", s.handleAnalyze).Methods(http.MethodPost)
	session.HandleFunc("/votes", s.handleVote).Methods(http.MethodPost)
	session.HandleFunc("/matrix", s.handleMatrix).Methods(http.MethodGet)
	session.HandleFunc("/export", s.handleExport).Methods(http.MethodGet)
	session.HandleFunc("/board-layout", s.handleBoardLayout).Methods(http.MethodGet)
	session.HandleFunc("/deck", s.handleDeck).Methods(http.MethodGet)
	session.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	session.HandleFunc("/history/{hash}", s.handleHistorySnapshot).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return s.withMiddleware(router)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"repository": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["repository"] = map[string]any{
			"status": "error",
			"error":  err.Error(),
		}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handlePhases(w http.ResponseWriter, r *http.Request) {
	phases := workshop.Phases()
	out := make([]map[string]any, 0, len(phases))
	for _, phase := range phases {
		out = append(out, map[string]any{
			"phase":    phase,
			"grouped":  phase.Grouped(),
			"guidance": s.service.catalog.Guidance(phase),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"phases": out})
}

func (s *HTTPServer) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.List(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": sessions})
}

func (s *HTTPServer) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BoardName string `json:"boardName"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	session, err := s.service.Create(r.Context(), body.BoardName)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *HTTPServer) handleImportSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BoardName    string                  `json:"boardName"`
		WorkshopData workshop.ImportDocument `json:"workshopData"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	session, err := s.service.Import(r.Context(), body.BoardName, body.WorkshopData)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *HTTPServer) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, err := s.service.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleSetBoard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	session, err := s.service.SetBoard(r.Context(), mux.Vars(r)["id"], body.ID, body.URL)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleGuidance(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Guidance(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"phase": state.To, "guidance": state.Guidance})
}

func (s *HTTPServer) handleAdvance(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Advance(r.Context(), mux.Vars(r)["id"], actorName(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleRetreat(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.Retreat(r.Context(), mux.Vars(r)["id"], actorName(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleJump(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Phase string `json:"phase"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	state, err := s.service.JumpTo(r.Context(), mux.Vars(r)["id"], body.Phase, actorName(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *HTTPServer) handleListItems(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	items, err := s.service.ListItems(r.Context(), vars["id"], vars["phase"], r.URL.Query().Get("moduleId"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (s *HTTPServer) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var body AddItemInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	if body.CreatedBy == "" {
		body.CreatedBy = actorName(r)
	}
	vars := mux.Vars(r)
	item, err := s.service.AddItem(r.Context(), vars["id"], vars["phase"], body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *HTTPServer) handleEditItem(w http.ResponseWriter, r *http.Request) {
	var body EditItemInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	vars := mux.Vars(r)
	item, err := s.service.EditItem(r.Context(), vars["id"], vars["phase"], vars["itemId"], body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *HTTPServer) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	if err := s.service.DeleteItem(r.Context(), vars["id"], vars["phase"], vars["itemId"], r.URL.Query().Get("moduleId")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *HTTPServer) handleGroupPhase(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	result, err := s.service.GroupPhase(r.Context(), vars["id"], vars["phase"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) handleGroups(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	view, err := s.service.Groups(r.Context(), vars["id"], vars["phase"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *HTTPServer) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Text string `json:"text"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	vars := mux.Vars(r)
	analysis, err := s.service.Analyze(r.Context(), vars["id"], vars["phase"], body.Text)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *HTTPServer) handleVote(w http.ResponseWriter, r *http.Request) {
	var body VoteInput
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "BAD_REQUEST", err.Error(), nil)
		return
	}
	feature, err := s.service.Vote(r.Context(), mux.Vars(r)["id"], body)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, feature)
}

func (s *HTTPServer) handleMatrix(w http.ResponseWriter, r *http.Request) {
	matrix, err := s.service.Matrix(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, matrix)
}

func (s *HTTPServer) handleExport(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.service.Export(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	switch strings.ToLower(r.URL.Query().Get("format")) {
	case "", "json":
		writeJSON(w, http.StatusOK, snapshot)
	case "text", "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(export.RenderText(snapshot)))
	default:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be json or text", map[string]string{"field": "format"})
	}
}

func (s *HTTPServer) handleBoardLayout(w http.ResponseWriter, r *http.Request) {
	elements, err := s.service.BoardLayout(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"elements": elements})
}

func (s *HTTPServer) handleDeck(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	query := r.URL.Query()
	switch strings.ToLower(query.Get("format")) {
	case "", "html":
		html, err := s.service.DeckHTML(r.Context(), id)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(html))
	case "pdf":
		upload, _ := strconv.ParseBool(query.Get("upload"))
		result, artifact, err := s.service.DeckPDF(r.Context(), id, upload)
		if err != nil {
			s.writeServiceError(w, r, err)
			return
		}
		if artifact != nil {
			writeJSON(w, http.StatusCreated, artifact)
			return
		}
		w.Header().Set("Content-Type", result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Data)
	default:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be html or pdf", map[string]string{"field": "format"})
	}
}

func (s *HTTPServer) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	entries, err := s.service.History(r.Context(), mux.Vars(r)["id"], limit)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *HTTPServer) handleHistorySnapshot(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	session, err := s.service.HistorySnapshot(r.Context(), vars["id"], vars["hash"])
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit, _ := strconv.Atoi(query.Get("limit"))
	resp, err := s.service.Search(r.Context(), search.Query{
		Text:      query.Get("q"),
		SessionID: query.Get("sessionId"),
		Phase:     query.Get("phase"),
		Limit:     limit,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status, code, message, details := mapError(err)
	if status >= http.StatusInternalServerError {
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": requestID(r.Context()),
			"path":       r.URL.Path,
		}).Error("request failed")
	}
	writeError(w, status, code, message, details)
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := r.Header.Get("X-Request-ID")
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, reqID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", reqID)

		if r.Method == http.MethodOptions {
			writer.WriteHeader(http.StatusNoContent)
		} else {
			next.ServeHTTP(writer, r)
		}

		s.log.WithFields(logrus.Fields{
			"request_id":  reqID,
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      writer.status,
			"duration_ms": time.Since(started).Milliseconds(),
		}).Info("request")
	})
}

type requestIDKey struct{}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, X-Participant, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

// actorName is the free-form participant label sent by clients. It is
// recorded as authorship only; nothing is authorized on it.
func actorName(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("X-Participant"))
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}
