package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/chi/v5"

	"grantapp/internal/application/models"
	"grantapp/internal/application/validation"
	dErrors "grantapp/pkg/domain-errors"
	"grantapp/pkg/platform/httputil"
	"grantapp/pkg/requestcontext"
)

const (
	// multipartMemory is held in memory before parts spill to temp files.
	multipartMemory = 8 << 20
	// sniffBytes is how much of an oversized image part is kept for type
	// detection.
	sniffBytes = 3072

	msgSubmitted   = "Application submitted successfully."
	msgInvalidForm = "The submitted form could not be read."
	msgTooLarge    = "The submitted form is too large."
)

// Service defines the interface for application submission.
type Service interface {
	Submit(ctx context.Context, sub *models.Submission) (*models.SubmitResult, error)
}

// Handler serves the application intake endpoint.
type Handler struct {
	logger        *slog.Logger
	service       Service
	maxMemory     int64
	maxImageBytes int64
}

type Option func(*Handler)

// WithMaxImageBytes sets the size above which an image part is not read in
// full. It should match the validator limit.
func WithMaxImageBytes(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxImageBytes = n
		}
	}
}

// WithMultipartMemory sets how much of a form is held in memory before parts
// spill to temp files.
func WithMultipartMemory(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMemory = n
		}
	}
}

// New creates a new application Handler.
func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{
		logger:        logger,
		service:       service,
		maxMemory:     multipartMemory,
		maxImageBytes: validation.MaxImageBytes,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register registers the application routes. mw wraps only the submit route.
func (h *Handler) Register(r chi.Router, mw ...func(http.Handler) http.Handler) {
	r.With(mw...).Post("/application/submit", h.handleSubmit)
}

// SubmitResponse is the 200 body of POST /application/submit.
type SubmitResponse struct {
	Status          string  `json:"status"`
	Message         string  `json:"message"`
	Reference       string  `json:"reference"`
	ApplicationID   int64   `json:"application_id"`
	StoredFrontPath *string `json:"stored_front_path"`
	StoredBackPath  *string `json:"stored_back_path"`
	Warning         string  `json:"warning,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	sub, err := h.decodeSubmission(r)
	if err != nil {
		h.logger.WarnContext(ctx, "unreadable application form",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Submit(ctx, sub)
	if err != nil {
		var fieldErrs validation.Errors
		if dErrors.Is(err, dErrors.CodeValidation) && errors.As(err, &fieldErrs) {
			de, _ := dErrors.From(err)
			httputil.WriteFieldErrors(w, de.Message, fieldErrs)
			return
		}
		h.logger.ErrorContext(ctx, "application submission failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	app := result.Application
	httputil.WriteJSON(w, http.StatusOK, SubmitResponse{
		Status:          httputil.StatusSuccess,
		Message:         msgSubmitted,
		Reference:       app.Reference,
		ApplicationID:   app.ID,
		StoredFrontPath: optional(app.IDFront),
		StoredBackPath:  optional(app.IDBack),
		Warning:         result.Warning,
	})
}

// decodeSubmission reads a multipart or urlencoded form. Only known fields
// are copied out of the request. File parts are read into memory, so the
// form's temp files are removed before it returns.
func (h *Handler) decodeSubmission(r *http.Request) (*models.Submission, error) {
	err := r.ParseMultipartForm(h.maxMemory)
	if r.MultipartForm != nil {
		defer func() {
			_ = r.MultipartForm.RemoveAll()
		}()
	}
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, msgTooLarge)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, msgInvalidForm)
	}

	sub := &models.Submission{
		Values: make(map[string]string, len(models.TextFields)),
		Origin: models.Origin{
			ClientIP:  requestcontext.ClientIP(r.Context()),
			UserAgent: requestcontext.UserAgent(r.Context()),
		},
	}
	for _, name := range models.TextFields {
		if vs, ok := r.PostForm[name]; ok && len(vs) > 0 {
			sub.Values[name] = vs[0]
		}
	}

	if sub.Front, err = h.readUpload(r.MultipartForm, models.FieldIDFront); err != nil {
		return nil, err
	}
	if sub.Back, err = h.readUpload(r.MultipartForm, models.FieldIDBack); err != nil {
		return nil, err
	}
	return sub, nil
}

// readUpload reads one file part. Parts over the image limit keep only a
// prefix for type detection; the validator rejects them on Size.
func (h *Handler) readUpload(form *multipart.Form, field string) (*models.Upload, error) {
	if form == nil || len(form.File[field]) == 0 {
		return nil, nil
	}
	fh := form.File[field][0]
	f, err := fh.Open()
	if err != nil {
		return nil, dErrors.Wrap(fmt.Errorf("open %s: %w", field, err), dErrors.CodeBadRequest, msgInvalidForm)
	}
	defer f.Close()
	var src io.Reader = f
	if fh.Size > h.maxImageBytes {
		src = io.LimitReader(f, sniffBytes)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, dErrors.Wrap(fmt.Errorf("read %s: %w", field, err), dErrors.CodeBadRequest, msgInvalidForm)
	}
	return &models.Upload{Filename: fh.Filename, Size: fh.Size, Data: data}, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
