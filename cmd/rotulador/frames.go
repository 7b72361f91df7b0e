package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-git/go-billy/v6/osfs"
	"github.com/spf13/cobra"

	"github.com/lewtec/rotulador-editor/internal/frames"
)

// framesCmd represents the frames command
var framesCmd = &cobra.Command{
	Use:   "frames [dir]",
	Short: "Decode every frame of a folder through the frame loader",
	Long: `Streams the frames of a folder with the configured concurrency, the same
way the editor does while a video is open. Useful to check that every frame
decodes and to measure how long a video takes to become available.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		config, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		dir := config.Frames.Dir
		if len(args) == 1 {
			dir = args[0]
		}
		if dir == "" {
			return fmt.Errorf("no frames folder given and frames.dir is not set")
		}
		pattern, _ := cmd.Flags().GetString("pattern")
		if pattern == "" {
			pattern = config.Frames.Pattern
		}
		first, _ := cmd.Flags().GetInt("first")

		sources, err := frames.SourcesFromGlob(osfs.New(dir), pattern)
		if err != nil {
			return fmt.Errorf("while listing frames of '%s': %w", dir, err)
		}
		log.Printf("Found %d frames in %s, loading %d at a time", len(sources), dir, config.Frames.Concurrency)

		total := len(sources)
		// every source reports back once, loaded or not
		var wg sync.WaitGroup
		var okCount atomic.Int64
		for index, src := range sources {
			wg.Add(1)
			sources[index] = frames.SourceFunc(func(ctx context.Context) (image.Image, error) {
				defer wg.Done()
				frame, err := src.LoadFrame(ctx)
				if err == nil {
					okCount.Add(1)
				}
				return frame, err
			})
		}

		loader := frames.NewLoader(cmd.Context(), config.Frames.Concurrency)
		defer loader.Cleanup()
		loader.OnFrameLoaded(func(index int, frame image.Image) {
			b := frame.Bounds()
			log.Printf("frame %d: %dx%d", index, b.Dx(), b.Dy())
		})

		start := time.Now()
		if src, ok := sources[first]; ok {
			// queued alone so the sweep starts there
			loader.SetFramesToLoad(map[int]frames.Source{first: src})
			delete(sources, first)
			loader.AddFramesToLoad(sources)
		} else {
			loader.SetFramesToLoad(sources)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()
		select {
		case <-cmd.Context().Done():
			return cmd.Context().Err()
		case <-done:
		}

		count := int(okCount.Load())
		log.Printf("Loaded %d of %d frames in %s", count, total, time.Since(start).Round(time.Millisecond))
		if count < total {
			return fmt.Errorf("%d frames failed to load", total-count)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(framesCmd)
	framesCmd.Flags().StringP("pattern", "p", "", "Glob of frame files, defaults to frames.pattern")
	framesCmd.Flags().Int("first", -1, "Frame index to load before any other")
}
