package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/juanroddotdev/LeadForge/internal/enrich"
	"github.com/juanroddotdev/LeadForge/internal/ingest"
	"github.com/juanroddotdev/LeadForge/internal/lead"
	"github.com/juanroddotdev/LeadForge/internal/telemetry"
)

const previewLimit = 5

func (s *Server) handleTest(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "LeadForge API is working!",
	})
}

func (s *Server) handleColumnMapping(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"mapping": s.mappings.Snapshot()})
}

type uploadResponse struct {
	Message       string             `json:"message"`
	RecordsCount  int                `json:"records_count"`
	Preview       []lead.Business    `json:"preview"`
	ColumnMapping lead.ColumnMapping `json:"column_mapping"`
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Server.MaxUploadBytes > 0 {
		if r.ContentLength > s.cfg.Server.MaxUploadBytes {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Server.MaxUploadBytes)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		// multipart files a part with an empty filename under Value, so an
		// empty file input lands here rather than as a *FileHeader.
		if r.MultipartForm != nil && len(r.MultipartForm.Value["file"]) > 0 {
			writeError(w, http.StatusBadRequest, "No file selected")
			return
		}
		writeError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close() //nolint:errcheck // read-only temp file

	if !strings.HasSuffix(header.Filename, ".csv") {
		writeError(w, http.StatusBadRequest, "File must be a CSV")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read uploaded file")
		return
	}

	bindings, displayNames, err := parseUploadMapping(r.FormValue("column_mapping"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid column_mapping JSON")
		return
	}

	// Display name updates stick even when the rows below fail validation.
	s.mappings.ApplyDisplayNames(displayNames)

	records, err := ingest.FromCSV(bytes.NewReader(data), s.mappings.Snapshot(), bindings, s.idGen)
	if err != nil {
		s.mapError(w, err)
		return
	}

	if err := s.store.ReplaceAll(r.Context(), records); err != nil {
		s.mapError(w, err)
		return
	}
	telemetry.SetStoreRecords(len(records))

	// Archival is best effort: the upload already succeeded.
	if s.archiver != nil {
		if _, aErr := s.archiver.Archive(r.Context(), data); aErr != nil {
			s.logger.Warn("failed to archive upload", zap.Error(aErr))
		}
	}

	preview := records
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}
	writeJSON(w, http.StatusOK, uploadResponse{
		Message:       "File uploaded successfully",
		RecordsCount:  len(records),
		Preview:       preview,
		ColumnMapping: s.mappings.Snapshot(),
	})
}

type uploadMappingEntry struct {
	Column      string `json:"column"`
	DisplayName string `json:"displayName"`
}

// parseUploadMapping splits the column_mapping form value into column
// bindings (logical field to source column) and display name overrides. An
// absent or empty value yields empty maps; ingestion then reports the
// missing bindings.
func parseUploadMapping(raw string) (map[string]string, map[string]string, error) {
	bindings := make(map[string]string)
	displayNames := make(map[string]string)
	if strings.TrimSpace(raw) == "" {
		return bindings, displayNames, nil
	}
	var entries map[string]uploadMappingEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, nil, err
	}
	for field, entry := range entries {
		if entry.Column != "" {
			bindings[field] = entry.Column
		}
		if entry.DisplayName != "" {
			displayNames[field] = entry.DisplayName
		}
	}
	return bindings, displayNames, nil
}

type listResponse struct {
	Total      int             `json:"total"`
	Page       int             `json:"page"`
	PerPage    int             `json:"per_page"`
	TotalPages int             `json:"total_pages"`
	Businesses []lead.Business `json:"businesses"`
}

func (s *Server) handleListBusinesses(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, err := queryInt(query.Get("page"), 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid page parameter")
		return
	}
	perPage, err := queryInt(query.Get("per_page"), 10)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid per_page parameter")
		return
	}
	if page < 1 || perPage < 1 {
		writeError(w, http.StatusBadRequest, "page and per_page must be positive")
		return
	}

	all, err := s.store.List(r.Context())
	if err != nil {
		s.mapError(w, err)
		return
	}

	nameFilter := strings.ToLower(query.Get("business_name"))
	industryFilter := strings.ToLower(query.Get("industry"))
	locationFilter := strings.ToLower(query.Get("location"))

	filtered := make([]lead.Business, 0, len(all))
	for _, b := range all {
		if nameFilter != "" && !strings.Contains(strings.ToLower(b.BusinessName), nameFilter) {
			continue
		}
		if industryFilter != "" && !strings.Contains(strings.ToLower(b.Industry), industryFilter) {
			continue
		}
		if locationFilter != "" && !strings.Contains(strings.ToLower(b.Location), locationFilter) {
			continue
		}
		filtered = append(filtered, b)
	}

	total := len(filtered)
	totalPages := total / perPage
	if total%perPage != 0 {
		totalPages++
	}

	// Pages past the end serve the empty tail; comparing quotients keeps a
	// huge page number from overflowing the start offset.
	start, end := total, total
	if page-1 <= total/perPage {
		start = (page - 1) * perPage
		end = start + perPage
		if end > total {
			end = total
		}
	}

	writeJSON(w, http.StatusOK, listResponse{
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: totalPages,
		Businesses: filtered[start:end],
	})
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

type businessMessage struct {
	Message  string        `json:"message"`
	Business lead.Business `json:"business"`
}

func (s *Server) handleIdentifyWebsite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "business_id")

	b, status, err := s.enricher.IdentifyByID(r.Context(), id)
	if err != nil {
		var nfErr *lead.NotFoundError
		if errors.As(err, &nfErr) {
			writeError(w, http.StatusNotFound, "Business not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Error identifying website: "+err.Error())
		return
	}

	switch status {
	case enrich.StatusAlreadyIdentified:
		writeJSON(w, http.StatusOK, businessMessage{
			Message:  "Website already identified",
			Business: b,
		})
	case enrich.StatusIdentified:
		writeJSON(w, http.StatusOK, businessMessage{
			Message:  "Website identified successfully",
			Business: b,
		})
	default:
		writeJSON(w, http.StatusNotFound, businessMessage{
			Message:  "No valid website found",
			Business: b,
		})
	}
}

type batchRequest struct {
	BusinessIDs []int `json:"business_ids"`
}

type batchResult struct {
	BusinessID int            `json:"business_id"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Business   *lead.Business `json:"business,omitempty"`
}

type batchResponse struct {
	Message string        `json:"message"`
	Results []batchResult `json:"results"`
}

func (s *Server) handleIdentifyWebsites(w http.ResponseWriter, r *http.Request) {
	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if len(req.BusinessIDs) == 0 {
		writeError(w, http.StatusBadRequest, "No business IDs provided")
		return
	}

	items, err := s.enricher.IdentifyBatch(r.Context(), req.BusinessIDs)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Error in batch website identification: "+err.Error())
		return
	}

	results := make([]batchResult, 0, len(items))
	for _, item := range items {
		results = append(results, toBatchResult(item))
	}
	writeJSON(w, http.StatusOK, batchResponse{
		Message: "Batch website identification completed",
		Results: results,
	})
}

func toBatchResult(item enrich.BatchItem) batchResult {
	res := batchResult{BusinessID: item.BusinessID, Business: item.Business}
	switch item.Status {
	case enrich.StatusNotFound:
		res.Status = "error"
		res.Message = "Business not found"
		res.Business = nil
	case enrich.StatusAlreadyIdentified:
		res.Status = "skipped"
		res.Message = "Website already identified"
	case enrich.StatusIdentified:
		res.Status = "success"
		res.Message = "Website identified successfully"
	default:
		res.Status = "error"
		res.Message = "No valid website found"
	}
	return res
}

type generateEmailRequest struct {
	BusinessID         *int   `json:"business_id"`
	UserPromptTemplate string `json:"user_prompt_template"`
}

type generateEmailResponse struct {
	Message  string        `json:"message"`
	Email    string        `json:"email"`
	Business lead.Business `json:"business"`
}

func (s *Server) handleGenerateEmail(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	var req generateEmailRequest
	if err := json.Unmarshal(trimmed, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.BusinessID == nil {
		writeError(w, http.StatusBadRequest, "Business ID is required")
		return
	}

	b, err := s.store.GetByIndex(r.Context(), *req.BusinessID)
	if err != nil {
		var nfErr *lead.NotFoundError
		if errors.As(err, &nfErr) {
			writeError(w, http.StatusNotFound, "Business not found")
			return
		}
		s.mapError(w, err)
		return
	}

	text, err := s.drafter.Draft(r.Context(), b, req.UserPromptTemplate)
	if err != nil {
		telemetry.ObserveGeneration("error")
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Error generating email",
			"details": err.Error(),
		})
		return
	}
	telemetry.ObserveGeneration("ok")

	writeJSON(w, http.StatusOK, generateEmailResponse{
		Message:  "Email generated successfully",
		Email:    text,
		Business: b,
	})
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Clear(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Error clearing data: "+err.Error())
		return
	}
	telemetry.SetStoreRecords(0)
	writeJSON(w, http.StatusOK, map[string]string{
		"message": "All business data cleared successfully",
	})
}
