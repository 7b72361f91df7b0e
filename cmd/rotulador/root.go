package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lewtec/rotulador-editor/annotation"
	"github.com/lewtec/rotulador-editor/internal/logging"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "rotulador",
	Short: "Edit image and video annotations from the command line",
	Long: strings.TrimSpace(`
Paint masks, edit keyframed video annotations and inspect the result.
Every change goes through the same undo history and storage the editor uses.
    `),
	SilenceUsage: true,
}

func main() {
	err := rootCmd.Execute()
	if err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "config.yaml", "Config file")
}

// loadConfig reads the config given by --config, resolves its paths against
// the config folder and installs the logger at the configured level
func loadConfig(cmd *cobra.Command) (*annotation.Config, error) {
	configFile, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	config, err := annotation.LoadConfig(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	baseDir := filepath.Dir(configFile)
	config.Database = resolvePath(baseDir, config.Database)
	if config.Frames.Dir != "" {
		config.Frames.Dir = resolvePath(baseDir, config.Frames.Dir)
	}

	level, err := config.LogLevel()
	if err != nil {
		return nil, err
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
	return config, nil
}

func resolvePath(baseDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(baseDir, path)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
