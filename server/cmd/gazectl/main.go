// Command gazectl reprocesses and screens saved experiment sessions.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"experiment-go/server/internal/config"
	"experiment-go/server/internal/models"
	"experiment-go/server/internal/services"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	projectRoot string
	textsFile   string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:           "gazectl",
	Short:         "Analyze and screen saved reading experiment sessions",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&projectRoot, "root", ".", "project root holding config/config.yaml")
	rootCmd.PersistentFlags().StringVar(&textsFile, "texts", "", "texts file (defaults to analysis.texts_file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log analysis warnings to stderr")
}

// newProcessor builds a processor from the project configuration. A missing
// texts file is not fatal: trials usually carry their own text.
func newProcessor(cmd *cobra.Command) (*services.Processor, error) {
	loader, err := config.Load(projectRoot)
	if err != nil {
		return nil, err
	}
	cfg := loader.Current()

	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, err
		}
	}

	path := textsFile
	if path == "" {
		path = cfg.Analysis.TextsFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
	}
	corpus, err := models.LoadCorpus(path)
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
		corpus = models.NewCorpus()
	}

	return services.NewProcessor(corpus, cfg.Analysis.DefaultViewportWidth, log), nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
