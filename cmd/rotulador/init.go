package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/lewtec/rotulador-editor/annotation"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new annotation project",
	Long: `Initialize a new annotation project by creating:
- A sample configuration file (config.yaml)
- A migrated SQLite database
- A view sized as configured, whose id is printed

Example:
  rotulador init -c project/config.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		configFile, _ := cmd.Flags().GetString("config")

		if !fileExists(configFile) {
			log.Printf("Creating default config: %s", configFile)
			if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil {
				return fmt.Errorf("failed to create config folder: %w", err)
			}
			if err := os.WriteFile(configFile, []byte(annotation.SampleConfig), 0o644); err != nil {
				return fmt.Errorf("failed to create config: %w", err)
			}
		} else {
			log.Printf("Config file already exists: %s", configFile)
		}

		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		log.Printf("Creating database: %s", config.Database)
		db, err := annotation.OpenDatabase(cmd.Context(), config)
		if err != nil {
			return fmt.Errorf("failed to prepare database: %w", err)
		}
		defer db.Close()

		view, err := annotation.NewView(cmd.Context(), db, config)
		if err != nil {
			return fmt.Errorf("failed to create view: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), view.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
