package http

import (
	"fmt"
	"net/http"
	"strconv"

	"maintrack/internal/export"
	"maintrack/internal/log"
)

func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	year, err := parseYear(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := s.svc.Records.List(r.Context(), year)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponses(scopeRecords(p, recs)))
}

func (s *Server) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	rec, err := s.svc.Records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(scopeRecord(p, rec)))
}

func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	var req recordRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.Records.Create(r.Context(), req.toInput(p.UserID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/records/"+rec.ID).
		Body(toRecordResponse(rec)).
		Write(w)
}

// handlePreviewRecord returns the record Create would store, so the form
// can show the split and grand total before submitting.
func (s *Server) handlePreviewRecord(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	var req recordRequest
	if err := decodeJSON(w, r, s.validate, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.Records.Preview(r.Context(), req.toInput(p.UserID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRecordResponse(rec))
}

func (s *Server) handleExportRecord(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	renderer, err := export.ForFormat(r.PathValue("format"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec, err := s.svc.Records.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	rec = scopeRecord(p, rec)

	doc, err := renderer.Render(rec)
	if err != nil {
		writeError(w, r, fmt.Errorf("render %s: %w", renderer.Extension(), err))
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentExport).InfoContext(r.Context(), "Record exported",
		log.FieldOperation, log.OpExport, log.FieldRecordID, rec.ID, "format", renderer.Extension(), "bytes", len(doc))
	writeAttachment(w, renderer.ContentType(), export.Filename(rec, renderer.Extension()), doc)
}

func (s *Server) handleExportAll(w http.ResponseWriter, r *http.Request) {
	p, _ := principalFrom(r.Context())
	recs, err := s.svc.Records.List(r.Context(), 0)
	if err != nil {
		writeError(w, r, err)
		return
	}
	doc, err := export.RenderRecordList(scopeRecords(p, recs))
	if err != nil {
		writeError(w, r, fmt.Errorf("render record list: %w", err))
		return
	}
	writeAttachment(w, "application/pdf", export.ListFilename, doc)
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
