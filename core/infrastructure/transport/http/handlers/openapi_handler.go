package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pb33f/libopenapi"
)

// GenerateOpenAPISpec builds the OpenAPI 3.0 document of the HTTP API and
// checks it with libopenapi
func GenerateOpenAPISpec(baseURL string) ([]byte, error) {
	spec := map[string]any{
		"openapi": "3.0.0",
		"info": map[string]any{
			"title":       "querycheck API",
			"version":     "1.0.0",
			"description": "Validates search queries against the fields known for a set of streams.",
		},
		"servers": []map[string]any{
			{"url": baseURL},
		},
		"paths": map[string]any{
			"/api/search/validate": map[string]any{
				"post": map[string]any{
					"summary":     "Validate a search query",
					"operationId": "validateQuery",
					"requestBody": map[string]any{
						"required": true,
						"content": map[string]any{
							"application/json": map[string]any{
								"schema": map[string]any{"$ref": "#/components/schemas/ValidateRequest"},
								"example": map[string]any{
									"query":     "status:active AND cost:42",
									"streams":   []string{"000000000000000000000001"},
									"timerange": map[string]any{"type": "relative", "range": 300},
								},
							},
						},
					},
					"responses": map[string]any{
						"200": jsonResponse("Validation result", "#/components/schemas/ValidateResponse"),
						"400": jsonResponse("Malformed or invalid request body", "#/components/schemas/ErrorResponse"),
						"429": jsonResponse("Rate limit exceeded", "#/components/schemas/ErrorResponse"),
						"503": jsonResponse("Field catalog unavailable", "#/components/schemas/ErrorResponse"),
					},
				},
			},
			"/heartbeat": map[string]any{
				"get": map[string]any{
					"summary":     "Health check",
					"operationId": "heartbeat",
					"responses": map[string]any{
						"200": jsonResponse("Server is healthy", "#/components/schemas/HealthResponse"),
					},
				},
			},
			"/metrics": map[string]any{
				"get": map[string]any{
					"summary":     "Prometheus metrics",
					"operationId": "metrics",
					"responses": map[string]any{
						"200": map[string]any{
							"description": "Metrics in the Prometheus text format",
							"content": map[string]any{
								"text/plain": map[string]any{"schema": map[string]any{"type": "string"}},
							},
						},
					},
				},
			},
		},
		"components": map[string]any{
			"schemas": schemas(),
		},
	}

	specJSON, err := json.Marshal(spec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal spec: %w", err)
	}

	document, err := libopenapi.NewDocument(specJSON)
	if err != nil {
		return nil, fmt.Errorf("failed to create libopenapi document: %w", err)
	}
	if _, err := document.BuildV3Model(); err != nil {
		return nil, fmt.Errorf("failed to build v3 model (validation error): %w", err)
	}

	return specJSON, nil
}

func jsonResponse(description, ref string) map[string]any {
	return map[string]any{
		"description": description,
		"content": map[string]any{
			"application/json": map[string]any{
				"schema": map[string]any{"$ref": ref},
			},
		},
	}
}

func schemas() map[string]any {
	str := map[string]any{"type": "string"}
	integer := map[string]any{"type": "integer"}

	return map[string]any{
		"ValidateRequest": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query":      map[string]any{"type": "string", "description": "Query in the Lucene syntax. Bind parameters are written as $name$."},
				"filter":     map[string]any{"type": "string", "description": "Stream filter combined with the query for value checks"},
				"streams":    map[string]any{"type": "array", "items": str},
				"timerange":  map[string]any{"$ref": "#/components/schemas/TimeRange"},
				"parameters": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/components/schemas/Parameter"}},
			},
		},
		"TimeRange": map[string]any{
			"type":     "object",
			"required": []string{"type"},
			"properties": map[string]any{
				"type":    map[string]any{"type": "string", "enum": []string{"relative", "absolute", "keyword"}},
				"range":   map[string]any{"type": "integer", "minimum": 0, "description": "Seconds before now; 0 covers all time"},
				"from":    map[string]any{"type": "string", "format": "date-time"},
				"to":      map[string]any{"type": "string", "format": "date-time"},
				"keyword": map[string]any{"type": "string", "example": "last week"},
			},
		},
		"Parameter": map[string]any{
			"type":     "object",
			"required": []string{"name"},
			"properties": map[string]any{
				"name":          str,
				"data_type":     str,
				"binding":       map[string]any{"type": "object", "properties": map[string]any{"value": map[string]any{}}},
				"default_value": map[string]any{},
			},
		},
		"ValidateResponse": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"status":       map[string]any{"type": "string", "enum": []string{"OK", "WARNING", "ERROR"}},
				"explanations": map[string]any{"type": "array", "items": map[string]any{"$ref": "#/components/schemas/Explanation"}},
			},
		},
		"Explanation": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"error_type": map[string]any{
					"type": "string",
					"enum": []string{"Unknown field", "Invalid operator", "Invalid data type", "Parameter error", "Query parsing error"},
				},
				"error_message": str,
				"begin_line":    integer,
				"begin_column":  integer,
				"end_line":      integer,
				"end_column":    integer,
			},
		},
		"HealthResponse": map[string]any{
			"type":       "object",
			"properties": map[string]any{"success": map[string]any{"type": "boolean"}},
		},
		"ErrorResponse": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"success": map[string]any{"type": "boolean"},
				"error":   str,
				"code":    str,
			},
		},
	}
}

// GenerateOpenAPISpecHandler returns an HTTP handler for the OpenAPI spec
func GenerateOpenAPISpecHandler(baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		specJSON, err := GenerateOpenAPISpec(baseURL)
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to generate OpenAPI spec: %v", err), http.StatusInternalServerError)
			return
		}

		var spec map[string]any
		if err := json.Unmarshal(specJSON, &spec); err != nil {
			http.Error(w, "Failed to format spec", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		_ = encoder.Encode(spec)
	}
}
