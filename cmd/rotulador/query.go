package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lewtec/rotulador-editor/annotation"
	"github.com/lewtec/rotulador-editor/internal/repository"
)

// queryCmd represents the query command
var queryCmd = &cobra.Command{
	Use:   "query [view-id] [frame]",
	Short: "Queries the annotation database",
	Long: `Without arguments, lists every view. With a view id, prints its
annotations as they are at the given frame (the first frame by default).

  rotulador query
  rotulador query <view-id> 12
  rotulador query <view-id> --html report.html`,
	Args: cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		ctx := cmd.Context()
		db, err := annotation.OpenDatabase(ctx, config)
		if err != nil {
			return err
		}
		defer db.Close()
		out := cmd.OutOrStdout()

		if len(args) == 0 {
			views, err := repository.NewViewRepository(db).List(ctx)
			if err != nil {
				return fmt.Errorf("while listing views: %w", err)
			}
			fmt.Fprintln(out, "id\twidth\theight\tframes")
			for _, view := range views {
				fmt.Fprintf(out, "%s\t%d\t%d\t%d\n", view.ID, view.Width, view.Height, view.TotalFrames)
			}
			return nil
		}

		ws, err := annotation.OpenWorkstation(ctx, db, config, args[0])
		if err != nil {
			return err
		}
		defer ws.Close(ctx)
		frame := ws.View.FirstFrameIndex
		if len(args) == 2 {
			if frame, err = strconv.Atoi(args[1]); err != nil {
				return fmt.Errorf("while parsing frame '%s': %w", args[1], err)
			}
		}

		htmlFile, _ := cmd.Flags().GetString("html")
		if htmlFile == "" {
			fmt.Fprint(out, annotation.ReportMarkdown(config, ws.Registry, ws.View, frame))
			return nil
		}
		var buf bytes.Buffer
		if err := annotation.RenderReport(&buf, config, ws.Registry, ws.View, frame); err != nil {
			return err
		}
		if err := os.WriteFile(htmlFile, buf.Bytes(), 0o644); err != nil {
			return fmt.Errorf("while writing report: %w", err)
		}
		fmt.Fprintln(out, htmlFile)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(queryCmd)
	queryCmd.Flags().String("html", "", "Write an HTML report to this file instead")
}
