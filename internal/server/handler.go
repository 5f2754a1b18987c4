package server

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	screenmatchErrors "screenmatch/internal/errors"
	"screenmatch/internal/observability"
	"screenmatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// multipartMemoryLimit is the in-memory threshold for multipart parsing;
// larger file parts spill to temporary files.
const multipartMemoryLimit = 32 << 20

// createEvaluateHandler wraps the single-resume evaluate handler with
// observability. It accepts either a JSON body (resumeText + jd reference)
// or a multipart upload with a "resume" file part.
func (s *Server) createEvaluateHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.evaluate")
		defer span.End()

		metrics := om.GetMetrics()

		var (
			data     []byte
			filename string
			jdRef    JDRef
		)

		if isMultipart(r) {
			file, err := s.readMultipartResume(r, "resume")
			if err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.type", "validation"))
				writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
				return
			}
			data = file.Data
			filename = file.Name
			jdRef = jdRefFromForm(r)
		} else {
			var req EvaluateRequest
			if err := parseJSONRequest(r, &req); err != nil {
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.type", "validation"))
				writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
				return
			}
			if strings.TrimSpace(req.ResumeText) == "" {
				err := fmt.Errorf("missing resume text")
				span.RecordError(err)
				span.SetAttributes(attribute.String("error.type", "validation"))
				writeErrorResponse(w, "Missing resume text", "resumeText field is required", http.StatusBadRequest)
				return
			}
			data = []byte(req.ResumeText)
			filename = req.Filename
			if filename == "" {
				filename = "resume.txt"
			}
			jdRef = req.JDRef
		}

		jd, err := s.resolveJD(jdRef)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid job description reference", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.String("request.filename", filename),
			attribute.Int("request.resume_bytes", len(data)),
			attribute.String("request.job_title", jd.Title),
			attribute.String("operation", "evaluate"),
		)

		result, err := s.Evaluator.EvaluateFile(ctx, data, filename, jd)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "evaluation"))
			metrics.RecordBusinessMetric(ctx, "resume_evaluated", false,
				attribute.String("error", err.Error()))
			if appErr, ok := err.(*screenmatchErrors.AppError); ok && appErr.Type == screenmatchErrors.ErrorTypeExtraction {
				recordExtractionFailure(ctx, metrics, appErr.Code, filename)
			}
			writeErrorResponse(w, "Failed to evaluate resume", err.Error(), http.StatusUnprocessableEntity)
			return
		}

		metrics.RecordBusinessMetric(ctx, "resume_evaluated", true,
			attribute.Int("match.overall_score", result.Result.OverallScore))
		metrics.RecordMatchScore(ctx, result.Result.OverallScore, string(result.Result.Recommendation))

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("match.overall_score", result.Result.OverallScore),
			attribute.String("match.recommendation", string(result.Result.Recommendation)),
		)

		writeJSONResponse(w, span, result)
	}
}

// createBulkHandler wraps the bulk screening handler with observability.
// It only accepts multipart uploads with one or more "resumes" file parts.
func (s *Server) createBulkHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.bulk")
		defer span.End()

		metrics := om.GetMetrics()

		if !isMultipart(r) {
			err := fmt.Errorf("bulk screening requires a multipart upload")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid request", "submit resumes as multipart form files under the \"resumes\" field", http.StatusBadRequest)
			return
		}

		if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid multipart request", err.Error(), http.StatusBadRequest)
			return
		}

		var items []types.BulkItem
		if r.MultipartForm != nil {
			for _, header := range r.MultipartForm.File["resumes"] {
				data, err := readMultipartFile(header)
				if err != nil {
					span.RecordError(err)
					writeErrorResponse(w, "Failed to read uploaded file", err.Error(), http.StatusBadRequest)
					return
				}
				items = append(items, types.BulkItem{Filename: header.Filename, Data: data})
			}
		}
		if len(items) == 0 {
			err := fmt.Errorf("no resume files submitted")
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Missing resumes", "at least one file under the \"resumes\" field is required", http.StatusBadRequest)
			return
		}

		jd, err := s.resolveJD(jdRefFromForm(r))
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "validation"))
			writeErrorResponse(w, "Invalid job description reference", err.Error(), http.StatusBadRequest)
			return
		}

		span.SetAttributes(
			attribute.Int("request.resume_count", len(items)),
			attribute.String("request.job_title", jd.Title),
			attribute.String("operation", "bulk"),
		)

		report, err := s.Evaluator.EvaluateBulk(ctx, items, jd)
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", "evaluation"))
			metrics.RecordBusinessMetric(ctx, "bulk_run", false,
				attribute.String("error", err.Error()))
			writeErrorResponse(w, "Failed to run bulk screening", err.Error(), http.StatusUnprocessableEntity)
			return
		}

		metrics.RecordBusinessMetric(ctx, "bulk_run", true,
			attribute.Int("bulk.total", report.Summary.Total),
			attribute.Int("bulk.succeeded", report.Summary.Succeeded),
			attribute.Int("bulk.failed", report.Summary.Failed))
		for _, item := range report.Items {
			if item.Result != nil {
				metrics.RecordMatchScore(ctx, item.Result.OverallScore, string(item.Result.Recommendation))
			} else if isExtractionCode(item.ErrorCode) {
				recordExtractionFailure(ctx, metrics, item.ErrorCode, item.Filename)
			}
		}

		span.SetAttributes(
			attribute.Bool("success", true),
			attribute.Int("bulk.total", report.Summary.Total),
			attribute.Int("bulk.failed", report.Summary.Failed),
		)

		writeJSONResponse(w, span, report)
	}
}

// recordExtractionFailure bumps the extraction failure counter for one
// document that could not be decoded.
func recordExtractionFailure(ctx context.Context, metrics *observability.Metrics, code, filename string) {
	metrics.RecordBusinessMetric(ctx, "extraction_failure", false,
		attribute.String("error_code", code),
		attribute.String("filename", filename))
}

// isExtractionCode reports whether a bulk item's error code came from the
// document extractor rather than scoring.
func isExtractionCode(code string) bool {
	switch code {
	case screenmatchErrors.ErrCodeUnsupportedFormat,
		screenmatchErrors.ErrCodeEncodingError,
		screenmatchErrors.ErrCodeEmptyDocument:
		return true
	}
	return false
}

// isMultipart reports whether the request carries a multipart form body.
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/")
}

// jdRefFromForm builds a JDRef from multipart form values. Form parsing must
// already have happened.
func jdRefFromForm(r *http.Request) JDRef {
	ref := JDRef{
		Title:       r.FormValue("jd_title"),
		Description: r.FormValue("jd_text"),
	}
	if idValue := r.FormValue("jd_id"); idValue != "" {
		if id, err := strconv.Atoi(idValue); err == nil {
			ref.ID = id
		}
	}
	return ref
}

// readMultipartResume extracts a single uploaded file from the named form
// field.
func (s *Server) readMultipartResume(r *http.Request, field string) (*uploadedFile, error) {
	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		return nil, fmt.Errorf("parsing multipart form: %w", err)
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, fmt.Errorf("missing %q file field", field)
	}
	header := r.MultipartForm.File[field][0]
	data, err := readMultipartFile(header)
	if err != nil {
		return nil, err
	}
	return &uploadedFile{Name: header.Filename, Data: data}, nil
}

type uploadedFile struct {
	Name string
	Data []byte
}

func readMultipartFile(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("opening uploaded file %s: %w", header.Filename, err)
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading uploaded file %s: %w", header.Filename, err)
	}
	return data, nil
}

// writeJSONResponse encodes v as the JSON response body.
func writeJSONResponse(w http.ResponseWriter, span trace.Span, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		span.RecordError(err)
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		return originalMiddleware(func(w http.ResponseWriter, r *http.Request) {
			// Check if this request was rate limited by examining the response
			// We'll wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: 200}

			next(wrapper, r)

			// If rate limited, record metric
			if wrapper.statusCode == http.StatusTooManyRequests {
				metrics := om.GetMetrics()
				metrics.RecordBusinessMetric(r.Context(), "rate_limit_hit", true,
					attribute.String("endpoint", r.URL.Path),
					attribute.String("method", r.Method))
			}
		})
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
