package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hyperterse/querycheck/core/logger"
)

// version is set by main from the build
var version = "dev"

// SetVersion sets the version string (called from main.init())
func SetVersion(v string) {
	version = v
}

// GetVersion returns the current version string
func GetVersion() string {
	return version
}

var (
	configFile  string
	port        string
	logLevel    int
	verbose     bool
	logTags     string
	logFile     bool
	showVersion bool
)

// envFiles are read from the config file's directory. Earlier files win,
// and variables already set in the environment win over all of them.
var envFiles = []string{".env.local", ".env"}

var rootCmd = &cobra.Command{
	Use:   "querycheck",
	Short: "Validate search queries against the fields your streams carry",
	Long: `querycheck checks Lucene-style search queries before they run: syntax,
unknown fields, lower-case operators, values that do not fit a field's type
and unbound $parameters$.

Validate one query with "querycheck validate", or serve the HTTP API with
"querycheck serve".`,
	SilenceUsage:  true,
	SilenceErrors: true, // cli.Execute logs the returned error
	RunE: func(cmd *cobra.Command, args []string) error {
		if showVersion {
			fmt.Fprintln(cmd.OutOrStdout(), version)
			return nil
		}
		return cmd.Help()
	},
}

// Execute runs the command line
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "Print the installed version and exit")
}

// LoadEnvFiles loads the .env files that sit next to configPath, or in the
// working directory when configPath is empty, and returns the ones it read.
// A missing file is skipped.
func LoadEnvFiles(configPath string) []string {
	dir := "."
	if configPath != "" {
		dir = filepath.Dir(configPath)
	}

	var loaded []string
	for _, name := range envFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := godotenv.Load(path); err != nil {
			logger.New("env").Warnf("Ignoring %s: %v", path, err)
			continue
		}
		loaded = append(loaded, path)
	}
	return loaded
}
