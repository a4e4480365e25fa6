package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"

	"tableflip.dev/daily/pkg/timeutil"
)

// Backend names accepted by the `backend` config key.
const (
	BackendDisk   = "disk"
	BackendSQLite = "sqlite"
	BackendCloud  = "cloud"
)

const (
	// DefaultSlideInterval is how long each highlight stays on screen.
	DefaultSlideInterval = 3000 * time.Millisecond
	defaultCloudTimeout  = 15 * time.Second
	defaultCloudTag      = "daily_memory"
)

// Config selects and parameterises a persistence backend.
type Config interface {
	BasePath() string
	Backend() string
	Cloud() CloudConfig
}

// CloudConfig points at a Cloudinary-compatible media host.
type CloudConfig struct {
	Name    string
	Preset  string
	Key     string
	Secret  string
	Tag     string
	Timeout time.Duration

	// UploadURL and DeliveryURL override the public API hosts; tests point
	// them at an httptest server.
	UploadURL   string
	DeliveryURL string
}

// FileConfig is the configuration read from .daily.yaml and DAILY_* env vars.
type FileConfig struct {
	Path          string
	BackendName   string
	CloudSettings CloudConfig
	Interval      time.Duration
	Level         string
	// ImagesDir is where inline photos are written for viewing. Empty means
	// the system temp dir.
	ImagesDir string
}

// LoadConfig reads .daily.yaml from $DAILY_CONFIG_PATH, the home directory
// and the working directory, in that order. A missing file is not an error.
func LoadConfig() (*FileConfig, error) {
	v := viper.New()
	v.SetDefault("backend", BackendDisk)
	v.SetDefault("path", "~/.daily")
	v.SetDefault("cloud.tag", defaultCloudTag)
	v.SetDefault("cloud.timeout", "15s")
	v.SetDefault("slideshow.interval", "3s")
	v.SetDefault("log.level", "warn")
	v.SetConfigName(".daily") // .yaml is implicit
	v.SetEnvPrefix("DAILY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if override := os.Getenv("DAILY_CONFIG_PATH"); override != "" {
		v.AddConfigPath(override)
	}
	if home, err := homedir.Dir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath("./")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("store: read config: %w", err)
		}
	}
	return fromViper(v)
}

func fromViper(v *viper.Viper) (*FileConfig, error) {
	path, err := homedir.Expand(v.GetString("path"))
	if err != nil {
		return nil, fmt.Errorf("store: expand path: %w", err)
	}

	backend := strings.ToLower(strings.TrimSpace(v.GetString("backend")))
	switch backend {
	case BackendDisk, BackendSQLite, BackendCloud:
	default:
		return nil, fmt.Errorf("store: unknown backend %q", backend)
	}

	interval, err := timeutil.ParseInterval(v.GetString("slideshow.interval"), DefaultSlideInterval)
	if err != nil {
		return nil, fmt.Errorf("store: slideshow.interval: %w", err)
	}
	images := strings.TrimSpace(v.GetString("images.dir"))
	if images != "" {
		if images, err = homedir.Expand(images); err != nil {
			return nil, fmt.Errorf("store: expand images.dir: %w", err)
		}
	}
	timeout, err := timeutil.ParseInterval(v.GetString("cloud.timeout"), defaultCloudTimeout)
	if err != nil {
		return nil, fmt.Errorf("store: cloud.timeout: %w", err)
	}

	return &FileConfig{
		Path:        path,
		BackendName: backend,
		CloudSettings: CloudConfig{
			Name:        v.GetString("cloud.name"),
			Preset:      v.GetString("cloud.preset"),
			Key:         v.GetString("cloud.key"),
			Secret:      v.GetString("cloud.secret"),
			Tag:         v.GetString("cloud.tag"),
			Timeout:     timeout,
			UploadURL:   v.GetString("cloud.upload_url"),
			DeliveryURL: v.GetString("cloud.delivery_url"),
		},
		Interval:  interval,
		Level:     v.GetString("log.level"),
		ImagesDir: images,
	}, nil
}

func (f *FileConfig) BasePath() string   { return f.Path }
func (f *FileConfig) Backend() string    { return f.BackendName }
func (f *FileConfig) Cloud() CloudConfig { return f.CloudSettings }

// SlideInterval is the per-slide duration for the highlight reel.
func (f *FileConfig) SlideInterval() time.Duration { return f.Interval }

// ImageDir is the images.dir setting, "" when unset.
func (f *FileConfig) ImageDir() string { return f.ImagesDir }

// LogLevel is the configured zap level name.
func (f *FileConfig) LogLevel() string { return f.Level }
