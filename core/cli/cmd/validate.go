package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperterse/querycheck/core/domain/search"
	"github.com/hyperterse/querycheck/core/infrastructure/di"
	"github.com/hyperterse/querycheck/core/infrastructure/transport/http/dto"
	"github.com/hyperterse/querycheck/core/logger"
	"github.com/hyperterse/querycheck/core/parser"
)

var (
	catalogFile        string
	streams            []string
	filter             string
	params             []string
	relativeRange      int
	fromTime           string
	toTime             string
	rangeKeyword       string
	outputFormat       string
	noLeadingWildcards bool
)

// validateCmd checks a single query and prints its findings
var validateCmd = &cobra.Command{
	Use:   "validate <query>",
	Short: "Validate a search query against a field catalog",
	Example: `  querycheck validate 'status:active AND took_ms:>100' --catalog fields.yaml --streams web
  querycheck validate 'host:$host$' -f querycheck.yaml --param host=web-01 --output json`,
	RunE:          runValidate,
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringVarP(&configFile, "file", "f", "", "Path to the configuration file providing the catalog")
	validateCmd.Flags().StringVar(&catalogFile, "catalog", "", "Static catalog file (overrides the configured catalog)")
	validateCmd.Flags().StringSliceVar(&streams, "streams", nil, "Stream ids to validate against (default: all streams)")
	validateCmd.Flags().StringVar(&filter, "filter", "", "Stream filter combined with the query")
	validateCmd.Flags().StringArrayVar(&params, "param", nil, "Bind parameter as name=value (repeatable)")
	validateCmd.Flags().IntVar(&relativeRange, "range", 0, "Relative time range in seconds (0 covers all time)")
	validateCmd.Flags().StringVar(&fromTime, "from", "", "Start of an absolute time range (RFC 3339)")
	validateCmd.Flags().StringVar(&toTime, "to", "", "End of an absolute time range (RFC 3339)")
	validateCmd.Flags().StringVar(&rangeKeyword, "keyword", "", "Keyword time range such as \"last week\"")
	validateCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text or json")
	validateCmd.Flags().BoolVar(&noLeadingWildcards, "no-leading-wildcards", false, "Reject terms starting with * or ?")
	validateCmd.Flags().IntVar(&logLevel, "log-level", 0, "Log level: 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG")
	validateCmd.Flags().BoolVarP(&verbose, "verbose", "", false, "Enable verbose logging (sets log level to DEBUG)")

	validateCmd.MarkFlagsMutuallyExclusive("range", "from")
	validateCmd.MarkFlagsMutuallyExclusive("range", "keyword")
	validateCmd.MarkFlagsMutuallyExclusive("from", "keyword")
	validateCmd.MarkFlagsRequiredTogether("from", "to")
}

func runValidate(cmd *cobra.Command, args []string) error {
	log := logger.New("validate")

	if outputFormat != "text" && outputFormat != "json" {
		return log.Errorf("unsupported output format %q (use text or json)", outputFormat)
	}

	switch {
	case verbose:
		logger.SetLogLevel(logger.LogLevelDebug)
	case logLevel > 0:
		logger.SetLogLevel(logLevel)
	default:
		logger.SetLogLevel(logger.LogLevelWarn)
	}

	cfg, err := loadValidateConfig()
	if err != nil {
		return err
	}

	req, err := buildValidationRequest(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	container, err := di.NewContainer(ctx, cfg)
	if err != nil {
		return log.Errorf("failed to set up validation: %w", err)
	}
	defer container.Close()

	resp, err := container.ValidationService.Validate(ctx, req)
	if err != nil {
		return log.Errorf("validation failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if outputFormat == "json" {
		err = writeJSONResult(out, resp)
	} else {
		err = writeTextResult(out, resp)
	}
	if err != nil {
		return log.Errorf("failed to write result: %w", err)
	}

	if resp.Status == search.StatusError {
		return log.Errorf("query cannot be executed")
	}
	return nil
}

func loadValidateConfig() (*parser.Config, error) {
	log := logger.New("validate")

	cfg := parser.DefaultConfig()
	if configFile != "" {
		LoadEnvFiles(configFile)
		loaded, err := parser.LoadConfig(configFile)
		if err != nil {
			return nil, log.Errorf("failed to load %s: %w", configFile, err)
		}
		cfg = loaded
	}

	if catalogFile != "" {
		cfg.Catalog = parser.CatalogConfig{
			Backend:    parser.BackendStatic,
			StaticFile: catalogFile,
		}
	}
	if cfg.Catalog.Backend == parser.BackendStatic && cfg.Catalog.StaticFile == "" {
		return nil, log.Errorf("no field catalog given (use --catalog or --file)")
	}

	cfg.RateLimit.RedisURL = ""
	cfg.Catalog.CacheTTL = 0

	if noLeadingWildcards {
		allowed := false
		cfg.Validation.AllowLeadingWildcard = &allowed
	}
	return cfg, nil
}

func buildValidationRequest(query string) (search.ValidationRequest, error) {
	log := logger.New("validate")

	req := search.ValidationRequest{
		Query:     query,
		Filter:    filter,
		Streams:   streams,
		TimeRange: search.RelativeRange(relativeRange),
	}

	switch {
	case fromTime != "":
		from, err := time.Parse(time.RFC3339, fromTime)
		if err != nil {
			return req, log.Errorf("invalid --from: %w", err)
		}
		to, err := time.Parse(time.RFC3339, toTime)
		if err != nil {
			return req, log.Errorf("invalid --to: %w", err)
		}
		req.TimeRange = search.AbsoluteRange(from, to)
	case rangeKeyword != "":
		req.TimeRange = search.KeywordRange(rangeKeyword)
	}
	if _, _, err := req.TimeRange.Bounds(time.Now()); err != nil {
		return req, log.Errorf("invalid time range: %w", err)
	}

	for _, raw := range params {
		name, value, ok := strings.Cut(raw, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return req, log.Errorf("invalid --param %q (expected name=value)", raw)
		}
		req.Parameters = append(req.Parameters, search.Parameter{
			Name:    name,
			Binding: &search.Binding{Value: parseParamValue(value)},
		})
	}
	return req, nil
}

// parseParamValue keeps JSON scalars typed so numbers are not quoted
func parseParamValue(raw string) any {
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		switch v.(type) {
		case float64, bool, string:
			return v
		}
	}
	return raw
}

func writeJSONResult(w io.Writer, resp search.ValidationResponse) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(dto.FromValidationResponse(resp))
}

func writeTextResult(w io.Writer, resp search.ValidationResponse) error {
	if _, err := fmt.Fprintf(w, "Status: %s\n", resp.Status); err != nil {
		return err
	}
	if len(resp.Explanations) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, msg := range resp.Explanations {
		position := "-"
		if span := msg.Span; span != nil {
			position = fmt.Sprintf("%d:%d-%d:%d", span.BeginLine, span.BeginColumn, span.EndLine, span.EndColumn)
		}
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", position, msg.ErrorType, msg.ErrorMessage)
	}
	return tw.Flush()
}
