// Package api exposes the HTTP surface: project and document management,
// search, graph retrieval, and question answering.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	"go.temporal.io/sdk/client"

	"docflow/internal/config"
	"docflow/internal/models"
	"docflow/internal/objstore"
	"docflow/internal/retrieve"
	"docflow/internal/storage"
	"docflow/internal/util"
	"docflow/internal/workflows"
)

const maxUploadBytes = 64 << 20

// Server wires the HTTP handlers to storage, retrieval and Temporal.
type Server struct {
	cfg       config.Config
	projects  *storage.ProjectRepo
	documents *storage.DocumentRepo
	graph     *storage.GraphRepo
	audit     *storage.CallAuditRepo
	retriever *retrieve.HybridRetriever
	asker     *Asker
	files     objstore.Store
	temporal  client.Client
	log       *slog.Logger
}

func NewServer(
	cfg config.Config,
	projects *storage.ProjectRepo,
	documents *storage.DocumentRepo,
	graph *storage.GraphRepo,
	audit *storage.CallAuditRepo,
	retriever *retrieve.HybridRetriever,
	asker *Asker,
	files objstore.Store,
	temporal client.Client,
	log *slog.Logger,
) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		cfg:       cfg,
		projects:  projects,
		documents: documents,
		graph:     graph,
		audit:     audit,
		retriever: retriever,
		asker:     asker,
		files:     files,
		temporal:  temporal,
		log:       log,
	}
}

// Routes builds the handler tree.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("POST /projects", s.handleCreateProject)
	mux.HandleFunc("GET /projects", s.handleListProjects)
	mux.HandleFunc("GET /projects/{id}", s.handleGetProject)
	mux.HandleFunc("POST /projects/{id}/documents", s.handleUploadDocument)
	mux.HandleFunc("GET /projects/{id}/documents", s.handleListDocuments)
	mux.HandleFunc("GET /documents/{id}", s.handleGetDocument)
	mux.HandleFunc("GET /documents/{id}/progress", s.handleDocumentProgress)
	mux.HandleFunc("GET /documents/{id}/calls", s.handleDocumentCalls)
	mux.HandleFunc("GET /search", s.handleSearch)
	mux.HandleFunc("GET /search/hybrid", s.handleHybridSearch)
	mux.HandleFunc("GET /graph", s.handleGetGraph)
	mux.HandleFunc("POST /graph/rebuild", s.handleRebuildGraph)
	mux.HandleFunc("POST /ask", s.handleAsk)
	return withCORS(mux)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string `json:"name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	p := &models.Project{
		ProjectID:   uuid.NewString(),
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.projects.Create(r.Context(), p); err != nil {
		s.log.Error("create project failed", "error", err)
		writeError(w, http.StatusInternalServerError, "create project failed")
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.projects.List(r.Context())
	if err != nil {
		s.log.Error("list projects failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list projects failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"projects": projects})
}

func (s *Server) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, err := s.projects.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeNotFoundOr500(w, s.log, "get project", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// handleUploadDocument stores the PDF, records the document row, and starts
// the ingest workflow. The workflow id doubles as an idempotency key per
// document.
func (s *Server) handleUploadDocument(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if _, err := s.projects.Get(r.Context(), projectID); err != nil {
		writeNotFoundOr500(w, s.log, "get project", err)
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read upload failed")
		return
	}
	if len(data) > maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		return
	}

	handle, err := s.files.Put(r.Context(), header.Filename, data)
	if err != nil {
		s.log.Error("store upload failed", "filename", header.Filename, "error", err)
		writeError(w, http.StatusInternalServerError, "store upload failed")
		return
	}

	doc := &models.Document{
		DocumentID: uuid.NewString(),
		ProjectID:  projectID,
		Filename:   header.Filename,
		FileHandle: handle,
	}
	if err := s.documents.Upsert(r.Context(), doc); err != nil {
		s.log.Error("record document failed", "document_id", doc.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "record document failed")
		return
	}
	if err := s.documents.UpdateStatus(r.Context(), doc.DocumentID, 0, true, false, ""); err != nil {
		s.log.Error("mark processing failed", "document_id", doc.DocumentID, "error", err)
	}

	workflowID := "ingest-" + doc.DocumentID
	run, err := s.temporal.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.DocumentIngestWorkflow, workflows.DocumentIngestInput{
		ProjectID:  projectID,
		DocumentID: doc.DocumentID,
		FileHandle: handle,
	})
	if err != nil {
		s.log.Error("start ingest failed", "document_id", doc.DocumentID, "error", err)
		writeError(w, http.StatusInternalServerError, "start ingest failed")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{
		"document_id": doc.DocumentID,
		"workflow_id": workflowID,
		"run_id":      run.GetRunID(),
	})
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := s.documents.ListByProject(r.Context(), r.PathValue("id"))
	if err != nil {
		s.log.Error("list documents failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list documents failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": docs})
}

func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := s.documents.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeNotFoundOr500(w, s.log, "get document", err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleDocumentProgress proxies the live ingest status query to the running
// workflow. The stored document row lags behind the workflow by up to one
// milestone; this endpoint does not.
func (s *Server) handleDocumentProgress(w http.ResponseWriter, r *http.Request) {
	documentID := r.PathValue("id")
	workflowID := "ingest-" + documentID

	desc, err := s.temporal.DescribeWorkflowExecution(r.Context(), workflowID, "")
	if err != nil {
		writeError(w, http.StatusNotFound, "no ingest run for document")
		return
	}
	execStatus := desc.GetWorkflowExecutionInfo().GetStatus()

	resp := map[string]any{
		"workflow_id": workflowID,
		"running":     execStatus == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING,
		"status":      execStatus.String(),
	}
	if execStatus == enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING {
		val, err := s.temporal.QueryWorkflow(r.Context(), workflowID, "", workflows.IngestStatusQuery)
		if err == nil {
			var status workflows.IngestStatus
			if err := val.Get(&status); err == nil {
				resp["progress"] = status
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDocumentCalls(w http.ResponseWriter, r *http.Request) {
	calls, err := s.audit.ListByDocument(r.Context(), r.PathValue("id"), 100)
	if err != nil {
		s.log.Error("list provider calls failed", "error", err)
		writeError(w, http.StatusInternalServerError, "list provider calls failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"calls": calls})
}

// handleSearch runs a vector search by default, or lexical full-text search
// with mode=lexical.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	projectID, query, topK, ok := searchParams(w, r)
	if !ok {
		return
	}
	var (
		results []models.SearchResult
		err     error
	)
	if r.URL.Query().Get("mode") == "lexical" {
		results, err = s.retriever.LexicalOnly(r.Context(), projectID, query, topK)
	} else {
		results, err = s.retriever.Search(r.Context(), projectID, query, topK)
	}
	if err != nil {
		s.log.Error("search failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleHybridSearch(w http.ResponseWriter, r *http.Request) {
	projectID, query, topK, ok := searchParams(w, r)
	if !ok {
		return
	}
	results, err := s.retriever.HybridSearch(r.Context(), projectID, query, topK)
	if err != nil {
		s.log.Error("hybrid search failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "hybrid search failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

func (s *Server) handleGetGraph(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	nodes, links, err := s.graph.GetGraph(r.Context(), projectID)
	if err != nil {
		s.log.Error("get graph failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "get graph failed")
		return
	}
	if nodes == nil {
		nodes = []models.GraphNode{}
	}
	if links == nil {
		links = []models.GraphLink{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"nodes": nodes, "links": links})
}

func (s *Server) handleRebuildGraph(w http.ResponseWriter, r *http.Request) {
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		writeError(w, http.StatusBadRequest, "project_id is required")
		return
	}
	workflowID := fmt.Sprintf("graph-rebuild-%s", projectID)
	run, err := s.temporal.ExecuteWorkflow(r.Context(), client.StartWorkflowOptions{
		ID:        workflowID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.ProjectGraphRebuildWorkflow, workflows.ProjectGraphRebuildInput{ProjectID: projectID})
	if err != nil {
		s.log.Error("start graph rebuild failed", "project_id", projectID, "error", err)
		writeError(w, http.StatusInternalServerError, "start graph rebuild failed")
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{
		"workflow_id": workflowID,
		"run_id":      run.GetRunID(),
	})
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProjectID string `json:"project_id"`
		Question  string `json:"question"`
		Provider  string `json:"provider"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.ProjectID == "" || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "project_id and question are required")
		return
	}
	answer, err := s.asker.Ask(r.Context(), req.ProjectID, req.Question, req.Provider)
	if errors.Is(err, ErrUnknownProvider) {
		writeError(w, http.StatusBadRequest, "unknown provider")
		return
	}
	if err != nil {
		s.log.Error("ask failed", "project_id", req.ProjectID, "error", err)
		writeError(w, http.StatusInternalServerError, "ask failed")
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

const (
	minSearchTopK = 5
	maxSearchTopK = 20
)

func searchParams(w http.ResponseWriter, r *http.Request) (projectID, query string, topK int, ok bool) {
	projectID = r.URL.Query().Get("project_id")
	query = strings.TrimSpace(r.URL.Query().Get("q"))
	if projectID == "" || query == "" {
		writeError(w, http.StatusBadRequest, "project_id and q are required")
		return "", "", 0, false
	}
	// topK of 0 means the retriever's configured default.
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "top_k must be an integer")
			return "", "", 0, false
		}
		topK = min(max(n, minSearchTopK), maxSearchTopK)
	}
	return projectID, query, topK, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeNotFoundOr500(w http.ResponseWriter, log *slog.Logger, op string, err error) {
	if isNotFound(err) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	log.Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, op+" failed")
}

func isNotFound(err error) bool {
	return errors.Is(err, util.ErrNotFound)
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
