package cmd

import (
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/hyperterse/querycheck/core/logger"
	"github.com/hyperterse/querycheck/core/observability"
	"github.com/hyperterse/querycheck/core/parser"
	"github.com/hyperterse/querycheck/core/runtime/server"
)

const defaultConfigFileName = "querycheck.yaml"

var watch bool

// serveCmd runs the validation HTTP server
var serveCmd = &cobra.Command{
	Use:           "serve [config]",
	Short:         "Run the query validation server",
	RunE:          runServe,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&configFile, "file", "f", "", "Path to the configuration file (default: ./querycheck.yaml when present)")
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Server port (overrides config file and PORT env var)")
	serveCmd.Flags().IntVar(&logLevel, "log-level", 0, "Log level: 1=ERROR, 2=WARN, 3=INFO, 4=DEBUG (overrides config file)")
	serveCmd.Flags().BoolVarP(&verbose, "verbose", "", false, "Enable verbose logging (sets log level to DEBUG)")
	serveCmd.Flags().StringVar(&logTags, "log-tags", "", "Filter logs by tags (comma-separated, use -tag to exclude). Overrides QUERYCHECK_LOG_TAGS env var")
	serveCmd.Flags().BoolVar(&logFile, "log-file", false, "Stream logs to file in /tmp/.querycheck/logs/")
	serveCmd.Flags().BoolVar(&watch, "watch", false, "Reload the catalog and validation settings when the config file changes")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.New("serve")
	if len(args) > 0 {
		if configFile != "" {
			return log.Errorf("cannot combine path argument with --file")
		}
		configFile = args[0]
	}

	if err := configureLogging(); err != nil {
		return err
	}

	cfg, err := loadServeConfig()
	if err != nil {
		return err
	}

	rt, err := server.NewRuntime(cfg, server.WithVersion(GetVersion()))
	if err != nil {
		return err
	}
	log.Infof("Runtime initialized")

	if !watch {
		return rt.Start()
	}
	return serveWithWatch(rt)
}

// configureLogging applies the logging flags. Flags win over the environment.
func configureLogging() error {
	log := logger.New("main")

	if verbose {
		logger.SetLogLevel(logger.LogLevelDebug)
	} else if logLevel > 0 {
		logger.SetLogLevel(logLevel)
	} else {
		logger.SetLogLevel(logger.LogLevelInfo)
	}

	tagFilterStr := logTags
	if tagFilterStr == "" {
		tagFilterStr = os.Getenv("QUERYCHECK_LOG_TAGS")
	}
	if tagFilterStr != "" {
		logger.SetTagFilter(tagFilterStr)
	}

	if logFile {
		filePath, err := logger.SetLogFile()
		if err != nil {
			return log.Errorf("failed to initialize log file: %w", err)
		}
		log.Infof("Log file: %s", filePath)
	}
	return nil
}

// loadServeConfig reads the configuration file, falling back to defaults when
// none is given and ./querycheck.yaml does not exist
func loadServeConfig() (*parser.Config, error) {
	log := logger.New("main")

	path := configFile
	if path == "" {
		if _, err := os.Stat(defaultConfigFileName); err == nil {
			path = defaultConfigFileName
		}
	}

	for _, envFile := range LoadEnvFiles(path) {
		log.Debugf("Loaded environment from %s", envFile)
	}

	var cfg *parser.Config
	if path == "" {
		log.Warn("No configuration file found, using defaults")
		cfg = parser.DefaultConfig()
	} else {
		loaded, err := parser.LoadConfig(path)
		if err != nil {
			return nil, log.Errorf("failed to load %s: %w", path, err)
		}
		cfg = loaded
		configFile = path
	}

	if port != "" {
		cfg.Server.Port = port
	}
	if logLevel == 0 && !verbose {
		logger.SetLogLevel(cfg.Server.LogLevel)
	}

	log.Infof("Configuration loaded")
	log.Debugf("Catalog backend: %s", cfg.Catalog.Backend)
	if cfg.Catalog.ConnectionString != "" {
		log.Debugf("Catalog connection: %s", observability.RedactAttributeValue("connection_string", cfg.Catalog.ConnectionString))
	}
	if cfg.Catalog.StaticFile != "" {
		log.Debugf("Static catalog: %s", cfg.Catalog.StaticFile)
	}
	log.Debugf("Leading wildcards allowed: %t", cfg.Validation.LeadingWildcardsAllowed())
	return cfg, nil
}

func serveWithWatch(rt *server.Runtime) error {
	log := logger.New("watch")

	if configFile == "" {
		return log.Errorf("--watch needs a configuration file")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	// Editors replace files on save, so watch the directory
	if err := watcher.Add(filepath.Dir(configFile)); err != nil {
		return err
	}
	target := filepath.Clean(configFile)

	reload := make(chan struct{}, 1)
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		var debounce *time.Timer
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					if debounce != nil {
						debounce.Stop()
					}
					debounce = time.AfterFunc(500*time.Millisecond, func() {
						select {
						case reload <- struct{}{}:
						default:
						}
					})
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	log.Infof("Watching %s for changes", configFile)

	if err := rt.StartAsync(); err != nil {
		return err
	}

	for {
		select {
		case <-sigChan:
			return rt.Stop()
		case <-reload:
			log.Infof("Changes detected, reloading")
			cfg, err := parser.LoadConfig(configFile)
			if err != nil {
				log.Warnf("Reload failed, keeping current configuration: %v", err)
				continue
			}
			if err := rt.ReloadConfig(cfg); err != nil {
				log.Warnf("Reload failed, keeping current configuration: %v", err)
			}
		}
	}
}
