package http

import (
	"net/http"

	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/dto"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/handlers"
	httpmiddleware "github.com/hyperterse/querycheck/core/infrastructure/transport/http/middleware"
)

// handleValidate handles POST /api/search/validate
func handleValidate(validationService interfaces.ValidationService) http.HandlerFunc {
	base := handlers.NewBaseHandler("handler:validate")

	return httpmiddleware.ValidateJSON(func(w http.ResponseWriter, r *http.Request, body *dto.ValidateRequest) {
		log := base.Logger()
		log.Debugf("Validating query of %d character(s) against %d stream(s)", len(body.Query), len(body.Streams))

		resp, err := validationService.Validate(r.Context(), body.ToDomain())
		if err != nil {
			httpmiddleware.SetOutcome(r.Context(), httpmiddleware.OutcomeUnavailable)
			base.WriteError(w, err)
			return
		}
		httpmiddleware.SetOutcome(r.Context(), string(resp.Status))

		log.Debugf("Validation finished with %s and %d explanation(s)", resp.Status, len(resp.Explanations))
		base.WriteSuccess(w, dto.FromValidationResponse(resp))
	})
}
