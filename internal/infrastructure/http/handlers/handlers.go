// Package handlers provides HTTP handlers for the REST API
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/alchemorsel/recipes/internal/domain/user"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/middleware"
	"github.com/alchemorsel/recipes/internal/infrastructure/http/respond"
	"github.com/alchemorsel/recipes/internal/ports/inbound"
	"github.com/alchemorsel/recipes/pkg/errors"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds image uploads when no limit is configured
const DefaultMaxUploadBytes = 10 << 20

// Validator checks decoded commands
type Validator interface {
	Validate(cmd interface{}) error
}

// base carries what every handler group needs
type base struct {
	validator Validator
	logger    *zap.Logger
}

func (b base) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	respond.JSON(w, b.logger, status, data)
}

func (b base) writeError(w http.ResponseWriter, r *http.Request, err error) {
	respond.Error(w, r, b.logger, err)
}

func (b base) writeCount(w http.ResponseWriter, count int64) {
	b.writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}

// decode reads a JSON body into dst and validates it
func (b base) decode(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if stderrors.Is(err, io.EOF) {
			return errors.NewBadRequestError("Request body is empty")
		}
		return errors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	return b.validator.Validate(dst)
}

// decodeOptional is decode for bodies that may be omitted entirely
func (b base) decodeOptional(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.NewBadRequestError("Invalid JSON payload").WithCause(err)
	}
	return b.validator.Validate(dst)
}

// actor returns the acting user, nil when anonymous
func actor(r *http.Request) *user.User {
	return middleware.CurrentUser(r.Context())
}

func idParam(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.NewBadRequestError(fmt.Sprintf("Invalid %s %q", name, raw))
	}
	return id, nil
}

func intQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.NewBadRequestError(fmt.Sprintf("Invalid %s %q", name, raw))
	}
	return n, nil
}

// pagination reads ?limit= and ?offset=
func pagination(r *http.Request) (inbound.PaginationParams, error) {
	limit, err := intQuery(r, "limit")
	if err != nil {
		return inbound.PaginationParams{}, err
	}
	offset, err := intQuery(r, "offset")
	if err != nil {
		return inbound.PaginationParams{}, err
	}
	return inbound.PaginationParams{Limit: limit, Offset: offset}, nil
}

func listQuery(r *http.Request) (inbound.ListQuery, error) {
	page, err := pagination(r)
	if err != nil {
		return inbound.ListQuery{}, err
	}
	return inbound.ListQuery{Search: r.URL.Query().Get("search"), PaginationParams: page}, nil
}

// csv splits a comma separated query value, dropping blanks
func csv(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// upload opens the multipart file field of a request limited to maxBytes
func upload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (multipart.File, string, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) {
			return nil, "", errors.NewBadRequestError(fmt.Sprintf("Upload exceeds %d bytes", maxBytes))
		}
		return nil, "", errors.NewBadRequestError("Expected a multipart form upload").WithCause(err)
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, "", errors.NewValidationError(fmt.Sprintf("%s file is required", field))
	}
	return file, header.Filename, nil
}
