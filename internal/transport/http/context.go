package http

import (
	"context"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/marwannelsayed/spare-demand-forecast/internal/errors"
	"github.com/marwannelsayed/spare-demand-forecast/internal/middleware"
)

type ctxKey int

const (
	datasetIDKey ctxKey = iota
	skuKey
)

// datasetRef and skuRef describe the validated path parameters
type datasetRef struct {
	ID string `json:"id" validate:"required,uuid"`
}

type skuRef struct {
	SKU string `json:"sku" validate:"required,sku"`
}

func datasetIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(datasetIDKey).(string)
	return id
}

func skuFrom(ctx context.Context) string {
	sku, _ := ctx.Value(skuKey).(string)
	return sku
}

// DatasetCtx validates the {id} path parameter and loads it into context
func DatasetCtx(v *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ref := datasetRef{ID: chi.URLParam(r, "id")}
			if err := v.ValidateStruct(ref); err != nil {
				errorHandler.HandleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), datasetIDKey, ref.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// SKUCtx validates the {sku} path parameter and loads it into context. chi
// matches on the escaped path only when the request carries a RawPath, so the
// parameter is unescaped in that case and used as decoded otherwise.
func SKUCtx(v *middleware.ValidationMiddleware, errorHandler *apierrors.ErrorHandler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sku := chi.URLParam(r, "sku")
			if r.URL.RawPath != "" {
				unescaped, err := url.PathUnescape(sku)
				if err != nil {
					errorHandler.HandleError(w, r, apierrors.ErrValidation("sku", "sku is not a valid path segment"))
					return
				}
				sku = unescaped
			}

			ref := skuRef{SKU: sku}
			if err := v.ValidateStruct(ref); err != nil {
				errorHandler.HandleError(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), skuKey, ref.SKU)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
