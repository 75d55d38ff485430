package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	playground "github.com/go-playground/validator/v10"

	"adespota/pkg/validator"
)

const maxBodyBytes = 8 << 20 // image previews travel as data URIs

type bindKey struct{}

// BindJSON decodes the body into a fresh T per request, validates it and makes it
// available to the handler through Bound. Unknown fields and trailing data are rejected.
func BindJSON[T any]() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			var target T

			dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
			dec.DisallowUnknownFields()

			if err := dec.Decode(&target); err != nil {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}
			if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
				writeError(w, http.StatusBadRequest, "invalid JSON")
				return
			}

			if err := validator.ValidateStruct(target); err != nil {
				writeError(w, http.StatusUnprocessableEntity, validationMessage(err))
				return
			}

			ctx := context.WithValue(r.Context(), bindKey{}, target)
			next.ServeHTTP(w, r.WithContext(ctx))
		}
	}
}

// Bound returns the request body bound by BindJSON[T].
func Bound[T any](ctx context.Context) (T, bool) {
	v, ok := ctx.Value(bindKey{}).(T)
	return v, ok
}

func validationMessage(err error) string {
	var verrs playground.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return "invalid field " + f.Field() + ": failed " + f.Tag()
	}
	return err.Error()
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
