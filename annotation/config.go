package annotation

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lewtec/rotulador-editor/internal/frames"
)

type Config struct {
	Meta struct {
		Description string `yaml:"description"`
	} `yaml:"meta"`
	Database string                 `yaml:"database"`
	Frames   ConfigFrames           `yaml:"frames"`
	View     ConfigView             `yaml:"view"`
	Log      ConfigLog              `yaml:"log"`
	Classes  map[int64]*ConfigClass `yaml:"classes"`
}

type ConfigFrames struct {
	// Concurrency is how many frames are decoded at once
	Concurrency int    `yaml:"concurrency"`
	Dir         string `yaml:"dir"`
	Pattern     string `yaml:"pattern"`
}

type ConfigView struct {
	Width           int `yaml:"width"`
	Height          int `yaml:"height"`
	TotalFrames     int `yaml:"total_frames"`
	FirstFrameIndex int `yaml:"first_frame_index"`
}

type ConfigLog struct {
	Level string `yaml:"level"`
}

type ConfigClass struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

func LoadConfig(filename string) (*Config, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML config, applies defaults and validates it
func ParseConfig(data []byte) (*Config, error) {
	var ret Config
	if err := yaml.Unmarshal(data, &ret); err != nil {
		return nil, err
	}
	if ret.Database == "" {
		ret.Database = "rotulador.db"
	}
	if ret.Frames.Concurrency == 0 {
		ret.Frames.Concurrency = frames.DefaultConcurrency
	}
	if ret.Frames.Concurrency < 0 {
		return nil, fmt.Errorf("frames.concurrency must be positive, got %d", ret.Frames.Concurrency)
	}
	if ret.Frames.Pattern == "" {
		ret.Frames.Pattern = "*"
	}
	if ret.Log.Level == "" {
		ret.Log.Level = "info"
	}
	if _, err := ret.LogLevel(); err != nil {
		return nil, err
	}
	if ret.View.Width <= 0 || ret.View.Height <= 0 {
		return nil, fmt.Errorf("view has a null size: %dx%d", ret.View.Width, ret.View.Height)
	}
	if ret.View.TotalFrames < 0 {
		return nil, fmt.Errorf("view.total_frames must not be negative, got %d", ret.View.TotalFrames)
	}
	if len(ret.Classes) == 0 {
		return nil, fmt.Errorf("no classes specified")
	}
	for id, class := range ret.Classes {
		if id <= 0 {
			return nil, fmt.Errorf("class %d: class ids start at 1", id)
		}
		if class == nil || class.Name == "" {
			return nil, fmt.Errorf("class %d has a null name", id)
		}
	}
	return &ret, nil
}

// LogLevel parses log.level
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, fmt.Errorf("while parsing log.level: %w", err)
	}
	return level, nil
}

// ClassName returns the configured name of a class, or its id
func (c *Config) ClassName(id int64) string {
	if class, ok := c.Classes[id]; ok && class != nil {
		return class.Name
	}
	return fmt.Sprintf("class %d", id)
}

const SampleConfig = `meta:
  description: |
    Describe the dataset here.

# sqlite database holding views, annotations and rasters
database: rotulador.db

frames:
  # how many frames are decoded at the same time
  concurrency: 2
  dir: frames
  pattern: "*.png"

view:
  width: 640
  height: 480
  # 0 for a still image
  total_frames: 0
  first_frame_index: 0

log:
  # debug, info, warn or error
  level: info

classes:
  1:
    name: background
  2:
    name: car
    description: Any motor vehicle
`
