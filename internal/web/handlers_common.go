package web

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/JonMunkholm/cleanfile/internal/service"
	"github.com/JonMunkholm/cleanfile/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// multipartMemory is how much of an upload is buffered in memory before the
// rest spills to a temporary file.
const multipartMemory = 32 << 20

// formOverhead is allowed on top of the file size for multipart framing and
// the other form fields.
const formOverhead = 1 << 20

// parseIntParam parses a non-negative integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

// pageParams reads limit and offset, clamping limit to the store's bounds.
func pageParams(r *http.Request) (limit, offset int) {
	limit = parseIntParam(r, "limit", store.DefaultListLimit)
	if limit == 0 {
		limit = store.DefaultListLimit
	}
	if limit > store.MaxListLimit {
		limit = store.MaxListLimit
	}
	return limit, parseIntParam(r, "offset", 0)
}

// parseRunID reads the {runID} URL parameter. Malformed IDs are reported as
// unknown runs.
func parseRunID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "runID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %q", service.ErrRunNotFound, raw)
	}
	return id, nil
}

// parseBool accepts the values an HTML checkbox or an API client would send.
func parseBool(s string) bool {
	switch s {
	case "1", "true", "TRUE", "True", "on", "yes":
		return true
	default:
		return false
	}
}

// readCleanRequest parses a multipart upload into a service request. The
// caller must close the returned file.
func (s *Server) readCleanRequest(w http.ResponseWriter, r *http.Request) (service.Request, multipart.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Clean.MaxFileSize+formOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
			return service.Request{}, nil, service.ErrNoFile
		}
		return service.Request{}, nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return service.Request{}, nil, service.ErrNoFile
		}
		return service.Request{}, nil, err
	}

	return service.Request{
		FileName:   header.Filename,
		Input:      file,
		OutputName: r.FormValue("output_name"),
		Header:     parseHeaderMode(r.FormValue("preserve_header")),
	}, file, nil
}

// parseHeaderMode maps the preserve_header field onto a service.HeaderMode.
// A missing field keeps the configured default. The index form sends a
// hidden "false" after the checkbox, so an unchecked box cleans the header.
func parseHeaderMode(s string) service.HeaderMode {
	switch {
	case s == "":
		return service.HeaderDefault
	case parseBool(s):
		return service.HeaderPreserve
	default:
		return service.HeaderClean
	}
}

func downloadURL(id uuid.UUID) string {
	return "/runs/" + id.String() + "/download"
}
