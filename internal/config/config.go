package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds every tunable of a dashboard or batch session.
type Config struct {
	LogLevel string `toml:"log_level"`
	LogJSON  bool   `toml:"log_json"`

	Display  DisplaySettings  `toml:"display"`
	Heatmap  HeatmapSettings  `toml:"heatmap"`
	Playback PlaybackSettings `toml:"playback"`
	Batch    BatchSettings    `toml:"batch"`

	// Keys maps a command name to the key codes that trigger it.
	Keys map[string][]int `toml:"keys"`
}

type DisplaySettings struct {
	Width  int    `toml:"width"`
	Height int    `toml:"height"`
	UI     string `toml:"ui"`
}

type HeatmapSettings struct {
	Threshold float64  `toml:"threshold"`
	Alpha     float64  `toml:"alpha"`
	AltAlpha  float64  `toml:"alt_alpha"`
	Schemes   []string `toml:"schemes"`
}

type PlaybackSettings struct {
	PollIntervalMS int  `toml:"poll_interval_ms"`
	Precompute     bool `toml:"precompute"`
	Workers        int  `toml:"workers"`
	FrameCacheSize int  `toml:"frame_cache_size"`
}

type BatchSettings struct {
	MaxFrames int  `toml:"max_frames"`
	Sample    bool `toml:"sample"`
	// AutoSamplePixels enables sampling for sources at or above this frame area.
	AutoSamplePixels int `toml:"auto_sample_pixels"`
}

// Default mirrors the original dashboard: 640x360 views, threshold 10,
// blend strength toggling between 0.5 and 0.7, jet first.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Display: DisplaySettings{
			Width:  640,
			Height: 360,
			UI:     "highgui",
		},
		Heatmap: HeatmapSettings{
			Threshold: 10,
			Alpha:     0.5,
			AltAlpha:  0.7,
			Schemes:   []string{"jet", "hot", "rainbow", "lab"},
		},
		Playback: PlaybackSettings{
			PollIntervalMS: 30,
			Precompute:     true,
			Workers:        runtime.NumCPU(),
			FrameCacheSize: 8,
		},
		Batch: BatchSettings{
			MaxFrames:        300,
			Sample:           false,
			AutoSamplePixels: 1920 * 1080,
		},
		Keys: DefaultKeys(),
	}
}

// DefaultKeys uses the highgui key codes: space, arrows (Linux GTK codes),
// ESC and ASCII letters.
func DefaultKeys() map[string][]int {
	return map[string][]int{
		"toggle":   {32},
		"next":     {83, 'd'},
		"prev":     {81, 'a'},
		"quit":     {'q', 27}, // 'Q' is 81, the left arrow under highgui
		"alpha":    {'h', 'H'},
		"colormap": {'c', 'C'},
	}
}

// Load reads path over the defaults. Keys present in the file replace the
// default, including false and zero values; [keys] entries are added to the
// default bindings. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges. Command names in Keys are checked when the
// key map is built.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return fmt.Errorf("invalid display size %dx%d", c.Display.Width, c.Display.Height)
	}
	switch c.Display.UI {
	case "highgui", "fyne":
	default:
		return fmt.Errorf("unknown ui %q", c.Display.UI)
	}
	if c.Heatmap.Threshold < 0 || c.Heatmap.Threshold > 255 {
		return fmt.Errorf("heatmap threshold %.1f outside [0,255]", c.Heatmap.Threshold)
	}
	for _, alpha := range []float64{c.Heatmap.Alpha, c.Heatmap.AltAlpha} {
		if alpha <= 0 || alpha > 1 {
			return fmt.Errorf("heatmap alpha %.2f outside (0,1]", alpha)
		}
	}
	if len(c.Heatmap.Schemes) == 0 {
		return fmt.Errorf("at least one colormap scheme is required")
	}
	if c.Playback.PollIntervalMS <= 0 {
		return fmt.Errorf("poll interval must be positive")
	}
	if c.Playback.Workers <= 0 {
		return fmt.Errorf("workers must be positive")
	}
	if c.Playback.FrameCacheSize <= 0 {
		return fmt.Errorf("frame cache size must be positive")
	}
	if c.Batch.MaxFrames <= 0 {
		return fmt.Errorf("batch max frames must be positive")
	}
	return nil
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Playback.PollIntervalMS) * time.Millisecond
}
