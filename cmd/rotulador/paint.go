package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lewtec/rotulador-editor/annotation"
	"github.com/lewtec/rotulador-editor/internal/action"
	"github.com/lewtec/rotulador-editor/internal/domain"
)

// PaintScript is a recorded editing session replayed by the paint command
type PaintScript struct {
	View   string      `yaml:"view"`
	Export string      `yaml:"export"`
	Steps  []PaintStep `yaml:"steps"`
}

// PaintStep is one gesture. Exactly one field is set.
type PaintStep struct {
	Paint *struct {
		Class   int64        `yaml:"class"`
		Polygon [][2]float64 `yaml:"polygon"`
	} `yaml:"paint"`
	Erase *struct {
		Polygon [][2]float64 `yaml:"polygon"`
	} `yaml:"erase"`
	Frame *int `yaml:"frame"`
	Undo  bool `yaml:"undo"`
	Redo  bool `yaml:"redo"`
}

func toPolygon(points [][2]float64) []domain.Point {
	out := make([]domain.Point, len(points))
	for i, p := range points {
		out[i] = domain.Point{X: p[0], Y: p[1]}
	}
	return out
}

// paintCmd represents the paint command
var paintCmd = &cobra.Command{
	Use:   "paint <script.yaml>",
	Short: "Replay painting gestures on a view",
	Long: `Applies the steps of a YAML script to a view through the undo history:

view: <view id>
export: masks
steps:
  - paint: {class: 2, polygon: [[0, 0], [10, 0], [10, 10], [0, 10]]}
  - erase: {polygon: [[0, 0], [5, 0], [5, 5]]}
  - undo: true
  - redo: true
  - frame: 5

The raster is saved at the end. With export set, the mask is also written as
a PNG named by its sha256.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("while reading script: %w", err)
		}
		var script PaintScript
		if err := yaml.Unmarshal(data, &script); err != nil {
			return fmt.Errorf("while parsing script '%s': %w", args[0], err)
		}
		if viewID, _ := cmd.Flags().GetString("view"); viewID != "" {
			script.View = viewID
		}
		if script.View == "" {
			return fmt.Errorf("no view given, set 'view' in the script or use --view")
		}

		ctx := cmd.Context()
		db, err := annotation.OpenDatabase(ctx, config)
		if err != nil {
			return err
		}
		defer db.Close()
		ws, err := annotation.OpenWorkstation(ctx, db, config, script.View)
		if err != nil {
			return err
		}

		for i, step := range script.Steps {
			var res action.Result
			switch {
			case step.Paint != nil:
				res = ws.Do(ctx, action.NewPaintPolygon(ws.View, toPolygon(step.Paint.Polygon), step.Paint.Class, ws.Annotations))
			case step.Erase != nil:
				res = ws.Do(ctx, action.NewErasePolygon(ws.View, toPolygon(step.Erase.Polygon), ws.Annotations))
			case step.Undo:
				res = ws.Undo(ctx)
			case step.Redo:
				res = ws.Redo(ctx)
			case step.Frame != nil:
				ws.Seek(*step.Frame)
				continue
			default:
				return fmt.Errorf("step %d: nothing to do", i+1)
			}
			if !res.Success {
				log.Printf("step %d: nothing changed: %v", i+1, res.Err)
			}
		}

		if history := ws.Actions.History(); len(history) > 0 {
			log.Printf("history: %s", strings.Join(history, ", "))
		}
		if err := ws.Close(ctx); err != nil {
			return fmt.Errorf("while saving view %s: %w", ws.View.ID, err)
		}
		for _, ann := range ws.View.Annotations() {
			if ann.Type != domain.TypeMask || !ws.View.HasRaster() {
				continue
			}
			label, _ := ws.View.Raster().GetLabelIndexForAnnotationID(ann.ID)
			log.Printf("mask %s: %s, %d pixels", ann.ID, config.ClassName(ann.ClassID), ws.View.Raster().CountPixels(label))
		}

		if script.Export != "" {
			name, err := annotation.ExportMask(osfs.New(resolvePath(".", script.Export)), ws.View.Raster(), ".")
			if err != nil {
				return fmt.Errorf("while exporting mask: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), resolvePath(script.Export, name))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(paintCmd)
	paintCmd.Flags().String("view", "", "View to paint on, overrides the script")
}
