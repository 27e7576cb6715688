package http

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"

	"maintrack/internal/log"
	"maintrack/internal/objectstore"
)

// multipart framing allowance on top of the file limit
const multipartOverhead = 1 << 20

// handleUploadReceipt stores an image or PDF receipt and returns its URL.
// The type is sniffed from the content; the client's header is ignored.
func (s *Server) handleUploadReceipt(w http.ResponseWriter, r *http.Request) {
	if s.objects == nil {
		NewJSONResponse().Status(http.StatusServiceUnavailable).Error("receipt storage is not configured").Write(w)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, objectstore.MaxReceiptBytes+multipartOverhead)
	if err := r.ParseMultipartForm(objectstore.MaxReceiptBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			NewJSONResponse().Status(http.StatusRequestEntityTooLarge).Error("receipt larger than 10 MiB").Write(w)
			return
		}
		writeError(w, r, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, hdr, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, fmt.Errorf("%w: missing file field", errBadRequest))
		return
	}
	defer file.Close()

	if hdr.Size > objectstore.MaxReceiptBytes {
		NewJSONResponse().Status(http.StatusRequestEntityTooLarge).Error("receipt larger than 10 MiB").Write(w)
		return
	}

	head := make([]byte, 512)
	n, err := io.ReadFull(file, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		writeError(w, r, fmt.Errorf("read receipt: %w", err))
		return
	}
	head = head[:n]
	contentType := http.DetectContentType(head)
	if !objectstore.IsAllowedReceipt(contentType) {
		NewJSONResponse().Status(http.StatusUnsupportedMediaType).Error("receipts must be images or PDF files").Write(w)
		return
	}

	name := objectstore.ReceiptName(hdr.Filename)
	url, err := s.objects.Put(r.Context(), name, contentType, io.MultiReader(bytes.NewReader(head), file))
	if err != nil {
		writeError(w, r, fmt.Errorf("store receipt: %w", err))
		return
	}
	log.FromContext(r.Context()).WithComponent(log.ComponentObjects).InfoContext(r.Context(), "Receipt uploaded",
		log.FieldObject, name, "content_type", contentType, "bytes", hdr.Size, log.FieldOperation, log.OpUpload)
	writeJSON(w, http.StatusCreated, receiptResponse{URL: url, Name: name, Size: hdr.Size})
}
