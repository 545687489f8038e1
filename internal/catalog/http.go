package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ProductAPI/pkg/kit"
)

const (
	maxBodyBytes = 1 << 20

	// AllowedMethods is advertised by OPTIONS /products.
	AllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS, HEAD"

	ExistsHeader = "X-Product-Exists"
)

type Server struct {
	Store Store
	Log   *zap.Logger

	// WriteLimiter, when set, throttles POST/PUT/PATCH/DELETE per client IP.
	WriteLimiter *kit.IPRateLimiter
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 1*time.Second)
		defer cancel()

		if err := s.Store.Ping(ctx); err != nil {
			s.logger().Warn("readyz failed", zap.Error(err))
			kit.WriteError(w, r, http.StatusServiceUnavailable, "not ready", nil)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	r.Get("/products", s.list)
	r.Options("/products", s.options)
	r.With(s.limitWrites).Post("/products", s.create)

	r.Get("/products/{id}", s.get)
	r.Head("/products/{id}", s.head)
	r.With(s.limitWrites).Put("/products/{id}", s.replace)
	r.With(s.limitWrites).Patch("/products/{id}", s.patchPrice)
	r.With(s.limitWrites).Delete("/products/{id}", s.delete)

	return r
}

func (s *Server) list(w http.ResponseWriter, r *http.Request) {
	products, err := s.Store.List(r.Context())
	if err != nil {
		s.fail(w, r, "list products failed", err)
		return
	}
	if products == nil {
		products = []Product{}
	}
	kit.WriteJSON(w, http.StatusOK, products)
}

func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	p, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "get product failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		notFound(w, r, id)
		return
	}
	kit.WriteJSON(w, http.StatusOK, p)
}

// head answers with the headers GET would produce for an existence flag,
// without a body.
func (s *Server) head(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	_, found, err := s.Store.Get(r.Context(), id)
	if err != nil {
		s.fail(w, r, "head product failed", err, zap.Int64("id", id))
		return
	}
	if !found {
		notFound(w, r, id)
		return
	}

	flag, _ := json.Marshal(found)
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Length", strconv.Itoa(len(flag)))
	w.Header().Set(ExistsHeader, strconv.FormatBool(found))
	w.WriteHeader(http.StatusOK)
}

func (s *Server) options(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Allow", AllowedMethods)
	w.WriteHeader(http.StatusOK)
}

func (s *Server) create(w http.ResponseWriter, r *http.Request) {
	var p Product
	if err := kit.DecodeJSON(w, r, &p, maxBodyBytes); err != nil {
		badBody(w, r, err)
		return
	}
	p.ID = 0

	if err := Validate(p); err != nil {
		s.fail(w, r, "create product failed", err)
		return
	}

	created, err := s.Store.Create(r.Context(), p)
	if err != nil {
		s.fail(w, r, "create product failed", err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/products/%d", created.ID))
	kit.WriteJSON(w, http.StatusCreated, created)
}

// replace overwrites every mutable field of an existing product. It never
// creates one.
func (s *Server) replace(w http.ResponseWriter, r *http.Request) {
	id, p, ok := s.decodeForID(w, r)
	if !ok {
		return
	}

	if err := Validate(p); err != nil {
		s.fail(w, r, "replace product failed", err)
		return
	}

	s.updateExisting(w, r, id, p)
}

// patchPrice applies only the Price of the body; every other field is
// ignored.
func (s *Server) patchPrice(w http.ResponseWriter, r *http.Request) {
	id, p, ok := s.decodeForID(w, r)
	if !ok {
		return
	}

	if p.Price == nil {
		verr := &ValidationError{}
		verr.add(string(FieldPrice), "Price is required")
		s.fail(w, r, "patch product failed", verr)
		return
	}

	s.updateExisting(w, r, id, p, FieldPrice)
}

func (s *Server) updateExisting(w http.ResponseWriter, r *http.Request, id int64, p Product, fields ...Field) {
	exists, err := s.Store.Exists(r.Context(), id)
	if err != nil {
		s.fail(w, r, "update product failed", err, zap.Int64("id", id))
		return
	}
	if !exists {
		notFound(w, r, id)
		return
	}

	err = s.Store.Update(r.Context(), id, p, fields...)
	if errors.Is(err, ErrNotFound) {
		notFound(w, r, id)
		return
	}
	if err != nil {
		s.fail(w, r, "update product failed", err, zap.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// delete reports 404 for an id that is already gone, so only the first of
// repeated deletes answers 204.
func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := s.pathID(w, r)
	if !ok {
		return
	}

	exists, err := s.Store.Exists(r.Context(), id)
	if err != nil {
		s.fail(w, r, "delete product failed", err, zap.Int64("id", id))
		return
	}
	if !exists {
		notFound(w, r, id)
		return
	}

	if err := s.Store.Delete(r.Context(), id); err != nil {
		s.fail(w, r, "delete product failed", err, zap.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) decodeForID(w http.ResponseWriter, r *http.Request) (int64, Product, bool) {
	id, ok := s.pathID(w, r)
	if !ok {
		return 0, Product{}, false
	}

	var p Product
	if err := kit.DecodeJSON(w, r, &p, maxBodyBytes); err != nil {
		badBody(w, r, err)
		return 0, Product{}, false
	}

	if p.ID != id {
		kit.WriteError(w, r, http.StatusBadRequest, "id mismatch", map[string]any{
			"path_id": id,
			"body_id": p.ID,
		})
		return 0, Product{}, false
	}
	return id, p, true
}

func (s *Server) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		kit.WriteError(w, r, http.StatusBadRequest, "invalid id", map[string]any{"id": raw})
		return 0, false
	}
	return id, true
}

// fail maps err to its status: validation 400, not found 404, anything else
// is a store fault and answers 500 with the cause.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error, fields ...zap.Field) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		kit.WriteError(w, r, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, ErrNotFound):
		kit.WriteError(w, r, http.StatusNotFound, ErrNotFound.Error(), nil)
	default:
		s.logger().Error(msg, append(fields, zap.Error(err))...)
		kit.WriteError(w, r, http.StatusInternalServerError, "store error", map[string]any{"cause": err.Error()})
	}
}

func notFound(w http.ResponseWriter, r *http.Request, id int64) {
	kit.WriteError(w, r, http.StatusNotFound, fmt.Sprintf("product with id %d not found", id), nil)
}

func badBody(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, kit.ErrEmptyBody) {
		kit.WriteError(w, r, http.StatusBadRequest, "request body required", nil)
		return
	}
	kit.WriteError(w, r, http.StatusBadRequest, "bad json", map[string]any{"cause": err.Error()})
}

func (s *Server) limitWrites(next http.Handler) http.Handler {
	if s.WriteLimiter == nil {
		return next
	}
	return s.WriteLimiter.Middleware(next)
}

func (s *Server) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
