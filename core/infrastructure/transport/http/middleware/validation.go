package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/dto"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/handlers"
)

// maxBodyBytes bounds request bodies
const maxBodyBytes = 1 << 20

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// ValidateJSON decodes the request body into a T, checks its validate tags
// and passes the result to next. Bad JSON and failed rules get a 400.
func ValidateJSON[T any](next func(http.ResponseWriter, *http.Request, *T)) http.HandlerFunc {
	base := handlers.NewBaseHandler("http:validation")

	return func(w http.ResponseWriter, r *http.Request) {
		var body T
		decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&body); err != nil {
			base.Logger().Debugf("Rejected request body: %v", err)
			SetOutcome(r.Context(), OutcomeRejected)
			base.WriteJSON(w, http.StatusBadRequest, dto.ErrorResponse{
				Success: false,
				Error:   "Invalid JSON",
			})
			return
		}

		if err := validate.Struct(&body); err != nil {
			SetOutcome(r.Context(), OutcomeRejected)
			var fieldErrs validator.ValidationErrors
			if !errors.As(err, &fieldErrs) {
				base.WriteJSON(w, http.StatusBadRequest, dto.ErrorResponse{Success: false, Error: err.Error()})
				return
			}
			details := make([]dto.ErrorDetail, 0, len(fieldErrs))
			for _, fieldErr := range fieldErrs {
				details = append(details, dto.ErrorDetail{
					Field:   fieldPath(fieldErr),
					Tag:     fieldErr.Tag(),
					Message: "Validation failed",
				})
			}
			base.WriteValidationError(w, details)
			return
		}

		next(w, r, &body)
	}
}

// fieldPath drops the struct name from the namespace
func fieldPath(fieldErr validator.FieldError) string {
	namespace := fieldErr.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}
