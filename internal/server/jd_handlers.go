package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	screenmatchErrors "screenmatch/internal/errors"
	"screenmatch/internal/observability"
	"screenmatch/internal/types"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ImportResponse reports the outcome of a collection import.
type ImportResponse struct {
	Added  int `json:"added"`
	Merged int `json:"merged"`
}

// listJDsHandler returns the full job description collection.
func (s *Server) listJDsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.list")
		defer span.End()

		jds, err := s.Store.List()
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "list", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "list"))
		span.SetAttributes(attribute.Int("jds.count", len(jds)))
		writeJSONResponse(w, span, jds)
	}
}

// saveJDHandler persists a job description, merging by exact title.
func (s *Server) saveJDHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.save")
		defer span.End()

		var req SaveJDRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			err := fmt.Errorf("missing title")
			span.RecordError(err)
			writeErrorResponse(w, "Missing title", "title field is required", http.StatusBadRequest)
			return
		}
		if strings.TrimSpace(req.Description) == "" {
			err := fmt.Errorf("missing description")
			span.RecordError(err)
			writeErrorResponse(w, "Missing description", "description field is required", http.StatusBadRequest)
			return
		}

		category := types.Category(req.Category)
		if category == "" {
			category = types.CategoryCustom
		}

		saved, err := s.Store.Save(types.JobDescription{
			Title:        strings.TrimSpace(req.Title),
			Description:  strings.TrimSpace(req.Description),
			Requirements: req.Requirements,
			Category:     category,
		})
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "save", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "save"))
		span.SetAttributes(
			attribute.Int("jd.id", saved.ID),
			attribute.String("jd.title", saved.Title),
		)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		if err := json.NewEncoder(w).Encode(saved); err != nil {
			span.RecordError(err)
		}
	}
}

// getJDHandler returns one job description by id.
func (s *Server) getJDHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.get")
		defer span.End()

		id, ok := pathID(w, r, span.RecordError)
		if !ok {
			return
		}

		jd, err := s.Store.Get(id)
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "get", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "get"))
		span.SetAttributes(attribute.Int("jd.id", jd.ID))
		writeJSONResponse(w, span, jd)
	}
}

// updateJDHandler overwrites the content fields of an existing record.
func (s *Server) updateJDHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.update")
		defer span.End()

		id, ok := pathID(w, r, span.RecordError)
		if !ok {
			return
		}

		var req SaveJDRequest
		if err := parseJSONRequest(r, &req); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}

		updated, err := s.Store.Update(id, types.JobDescription{
			Title:        strings.TrimSpace(req.Title),
			Description:  strings.TrimSpace(req.Description),
			Requirements: req.Requirements,
			Category:     types.Category(req.Category),
		})
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "update", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "update"))
		span.SetAttributes(attribute.Int("jd.id", updated.ID))
		writeJSONResponse(w, span, updated)
	}
}

// deleteJDHandler removes one job description by id.
func (s *Server) deleteJDHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.delete")
		defer span.End()

		id, ok := pathID(w, r, span.RecordError)
		if !ok {
			return
		}

		if err := s.Store.Delete(id); err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "delete", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "delete"))
		span.SetAttributes(attribute.Int("jd.id", id))
		w.WriteHeader(http.StatusNoContent)
	}
}

// useJDHandler records a usage of the job description and returns the
// updated record.
func (s *Server) useJDHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.use")
		defer span.End()

		id, ok := pathID(w, r, span.RecordError)
		if !ok {
			return
		}

		jd, err := s.Store.Use(id)
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "use", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "use"))
		span.SetAttributes(
			attribute.Int("jd.id", jd.ID),
			attribute.Int("jd.usage_count", jd.UsageCount),
		)
		writeJSONResponse(w, span, jd)
	}
}

// exportJDsHandler returns the full collection as a re-importable JSON array.
func (s *Server) exportJDsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.export")
		defer span.End()

		jds, err := s.Store.Export()
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "export", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "export"))
		span.SetAttributes(attribute.Int("jds.count", len(jds)))
		w.Header().Set("Content-Disposition", `attachment; filename="job_descriptions.json"`)
		writeJSONResponse(w, span, jds)
	}
}

// importJDsHandler merges a JSON array of job descriptions into the
// collection using the title-deduplication rule.
func (s *Server) importJDsHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("screenmatch.api")
		ctx, span := tracer.Start(ctx, "api.jds.import")
		defer span.End()

		var jds []types.JobDescription
		if err := parseJSONRequest(r, &jds); err != nil {
			span.RecordError(err)
			writeErrorResponse(w, "Invalid request body", err.Error(), http.StatusBadRequest)
			return
		}
		if len(jds) == 0 {
			err := fmt.Errorf("empty import payload")
			span.RecordError(err)
			writeErrorResponse(w, "Empty import", "request body must be a non-empty JSON array of job descriptions", http.StatusBadRequest)
			return
		}

		added, merged, err := s.Store.Import(jds)
		if err != nil {
			span.RecordError(err)
			s.writeStoreError(ctx, w, om, "import", err)
			return
		}

		om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", true,
			attribute.String("store.operation", "import"))
		span.SetAttributes(
			attribute.Int("import.added", added),
			attribute.Int("import.merged", merged),
		)
		writeJSONResponse(w, span, ImportResponse{Added: added, Merged: merged})
	}
}

// pathID parses the {id} path segment. On failure it writes a 400 response
// and returns ok=false.
func pathID(w http.ResponseWriter, r *http.Request, recordErr func(error, ...trace.EventOption)) (int, bool) {
	raw := r.PathValue("id")
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		parseErr := fmt.Errorf("invalid job description id %q", raw)
		if recordErr != nil {
			recordErr(parseErr)
		}
		writeErrorResponse(w, "Invalid job description id", "id must be a positive integer", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// writeStoreError maps a store failure to an HTTP response and records the
// failed operation metric.
func (s *Server) writeStoreError(ctx context.Context, w http.ResponseWriter, om *observability.ObservabilityManager, operation string, err error) {
	om.GetMetrics().RecordBusinessMetric(ctx, "store_operation", false,
		attribute.String("store.operation", operation))

	var appErr *screenmatchErrors.AppError
	status := http.StatusInternalServerError
	if stderrors.As(err, &appErr) && appErr.Code == screenmatchErrors.ErrCodeJobNotFound {
		status = http.StatusNotFound
	}
	writeErrorResponse(w, "Job description store error", err.Error(), status)
}
