package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/hyperterse/querycheck/core/domain/fieldtypes"
	"github.com/hyperterse/querycheck/core/domain/interfaces"
	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/logging"
	"github.com/hyperterse/querycheck/core/observability"
	apperrors "github.com/hyperterse/querycheck/core/shared/errors"
	"github.com/hyperterse/querycheck/core/shared/textpos"
)

// ValidationService checks search queries against the fields known for the
// requested streams
type ValidationService struct {
	parser    interfaces.QueryParser
	catalog   interfaces.FieldTypesResolver
	decorator interfaces.QueryDecorator
}

// NewValidationService creates a new ValidationService
func NewValidationService(parser interfaces.QueryParser, catalog interfaces.FieldTypesResolver, decorator interfaces.QueryDecorator) *ValidationService {
	return &ValidationService{
		parser:    parser,
		catalog:   catalog,
		decorator: decorator,
	}
}

// Validate runs the validation pipeline for one request
func (s *ValidationService) Validate(ctx context.Context, req search.ValidationRequest) (search.ValidationResponse, error) {
	ctx, span := observability.StartSpan(ctx, "querycheck.validate")
	defer span.End()
	span.SetAttributes(
		attribute.Int(observability.AttrQueryLength, len(req.Query)),
		attribute.Int(observability.AttrStreamCount, len(req.StreamSet())),
	)

	start := time.Now()
	resp, err := s.validate(ctx, req)
	durationMS := float64(time.Since(start).Microseconds()) / 1000

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		observability.RecordValidation(ctx, "failed", nil, durationMS)
		return search.ValidationResponse{}, err
	}

	span.SetAttributes(attribute.String(observability.AttrValidationStatus, string(resp.Status)))
	observability.RecordValidation(ctx, string(resp.Status), countFindings(resp.Explanations), durationMS)
	return resp, nil
}

func (s *ValidationService) validate(ctx context.Context, req search.ValidationRequest) (search.ValidationResponse, error) {
	log := logging.New("validation")
	for key, value := range observability.TraceFields(ctx) {
		log = log.With(key, value)
	}

	if req.Query == "" {
		return search.OK(), nil
	}

	decorated, err := s.decorator.Decorate(req.CombinedQueryWithFilter(), req.Parameters, req)
	if err != nil {
		log.Debugf("Decoration failed: %v", err)
		return search.Error(decorationMessages(req.Query, err)), nil
	}

	parsed, err := s.parser.Parse(req.Query)
	if err != nil {
		return search.Error([]search.ValidationMessage{search.MessageFromError(err)}), nil
	}

	fields, err := s.catalog.FieldTypesByStreamIDs(ctx, req.StreamSet(), req.TimeRange)
	if err != nil {
		return search.ValidationResponse{}, apperrors.WrapError(apperrors.ErrCodeCatalogUnavailable, "failed to resolve field types", err)
	}

	messages := unknownFields(parsed, fields)
	messages = append(messages, invalidOperators(parsed)...)
	messages = append(messages, s.invalidValues(decorated, fields, log)...)

	if len(messages) == 0 {
		return search.OK(), nil
	}
	return search.Warning(messages), nil
}

// decorationMessages projects a parameter failure back onto every occurrence
// of the placeholder in the query as typed
func decorationMessages(rawQuery string, err error) []search.ValidationMessage {
	var bindingErr *search.ParameterBindingError
	if !errors.As(err, &bindingErr) {
		return []search.ValidationMessage{search.MessageFromError(err)}
	}

	spans := textpos.Occurrences(rawQuery, "$"+bindingErr.ParameterName+"$")
	if len(spans) == 0 {
		return []search.ValidationMessage{search.MessageFromError(bindingErr)}
	}

	messages := make([]search.ValidationMessage, 0, len(spans))
	for _, span := range spans {
		messages = append(messages, search.NewMessage(search.ErrorTypeParameter, bindingErr.Description).At(span))
	}
	return messages
}

// unknownFields reports each field occurrence once. Both bounds of a range
// share the field token.
func unknownFields(parsed *search.ParsedQuery, fields fieldtypes.FieldTypes) []search.ValidationMessage {
	var messages []search.ValidationMessage
	reported := make(map[textpos.Span]bool)
	for _, term := range parsed.Terms {
		if term.IsDefaultField() || fields.Has(term.RealFieldName()) {
			continue
		}
		msg := search.NewMessage(search.ErrorTypeUnknownField, "Query contains unknown field: "+term.RealFieldName())
		if token, ok := term.FirstToken(); ok {
			if reported[token.Span] {
				continue
			}
			reported[token.Span] = true
			msg = msg.At(token.Span)
		}
		messages = append(messages, msg)
	}
	return messages
}

func invalidOperators(parsed *search.ParsedQuery) []search.ValidationMessage {
	var messages []search.ValidationMessage
	for _, term := range parsed.InvalidOperators {
		msg := search.NewMessage(search.ErrorTypeInvalidOperator,
			fmt.Sprintf(`Query contains invalid operator "%s". Both AND / OR operators have to be written uppercase`, term.Value))
		if token, ok := term.FirstToken(); ok {
			msg = msg.At(token.Span)
		}
		messages = append(messages, msg)
	}
	return messages
}

// invalidValues checks literal values of the decorated query against their
// field types. A decorated query that fails to parse yields no findings.
func (s *ValidationService) invalidValues(decorated string, fields fieldtypes.FieldTypes, log logging.Logger) []search.ValidationMessage {
	parsed, err := s.parser.Parse(decorated)
	if err != nil {
		log.Debugf("Skipping value checks, decorated query does not parse: %v", err)
		return nil
	}

	var messages []search.ValidationMessage
	for _, term := range parsed.Terms {
		if !term.IsLiteral() {
			continue
		}
		fieldType, ok := fields.Get(term.RealFieldName())
		if !ok || safeValidate(fieldType, term.Value) {
			continue
		}
		messages = append(messages, search.NewMessage(search.ErrorTypeInvalidDataType,
			fmt.Sprintf("Type of %s is %s, cannot use value %s", term.RealFieldName(), fieldType.Kind, term.Value)))
	}
	return messages
}

// safeValidate treats a panicking type check as a failed one
func safeValidate(fieldType fieldtypes.FieldType, value string) (valid bool) {
	defer func() {
		if recover() != nil {
			valid = false
		}
	}()
	return fieldType.Validate(value)
}

func countFindings(messages []search.ValidationMessage) map[string]int {
	counts := make(map[string]int, len(messages))
	for _, msg := range messages {
		counts[string(msg.ErrorType)]++
	}
	return counts
}
