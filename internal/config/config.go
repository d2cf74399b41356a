package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig     *AppConfig
	BrowserConfig *BrowserConfig
	EngineConfig  *EngineConfig
	CaptchaConfig *CaptchaConfig
	StoreConfig   *StoreConfig
	BatchConfig   *BatchConfig
}

type AppConfig struct {
	LogLevel      string `envconfig:"LOG_LEVEL" default:"info"`
	Debug         bool   `envconfig:"DEBUG" default:"false"`
	LogFile       string `envconfig:"LOG_FILE" default:""`
	LogMaxSizeMB  int    `envconfig:"LOG_MAX_SIZE_MB" default:"50"`
	LogMaxBackups int    `envconfig:"LOG_MAX_BACKUPS" default:"5"`
	TraceStdout   bool   `envconfig:"TRACE_STDOUT" default:"false"`
	ProfilePath   string `envconfig:"PROFILE_PATH" default:"./profile.yaml"`
}

type BrowserConfig struct {
	Headless       bool          `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo         int           `envconfig:"BROWSER_SLOW_MO" default:"0"`
	NavTimeout     time.Duration `envconfig:"BROWSER_NAV_TIMEOUT" default:"45s"`
	ActionTimeout  time.Duration `envconfig:"BROWSER_ACTION_TIMEOUT" default:"5s"`
	ViewportWidth  int           `envconfig:"BROWSER_VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight int           `envconfig:"BROWSER_VIEWPORT_HEIGHT" default:"900"`
	Locale         string        `envconfig:"BROWSER_LOCALE" default:"en-US"`
	UserAgent      string        `envconfig:"BROWSER_USER_AGENT" default:""`
	ExecutablePath string        `envconfig:"BROWSER_EXECUTABLE_PATH" default:""`
	InstallDriver  bool          `envconfig:"BROWSER_INSTALL_DRIVER" default:"true"`
}

type EngineConfig struct {
	MaxStageVisits int           `envconfig:"ENGINE_MAX_STAGE_VISITS" default:"12"`
	SettleTimeout  time.Duration `envconfig:"ENGINE_SETTLE_TIMEOUT" default:"4s"`
	BackoffInitial time.Duration `envconfig:"ENGINE_BACKOFF_INITIAL" default:"200ms"`
	BackoffMax     time.Duration `envconfig:"ENGINE_BACKOFF_MAX" default:"2s"`
}

type CaptchaConfig struct {
	MaxAttempts   int           `envconfig:"CAPTCHA_MAX_ATTEMPTS" default:"12"`
	FramePattern  []string      `envconfig:"CAPTCHA_FRAME_PATTERN" default:"hcaptcha,frame=challenge"`
	Thresholds    []int         `envconfig:"CAPTCHA_THRESHOLDS" default:"180,165,150"`
	MinIcons      int           `envconfig:"CAPTCHA_MIN_ICONS" default:"6"`
	MinArea       int           `envconfig:"CAPTCHA_MIN_AREA" default:"80"`
	MaxArea       int           `envconfig:"CAPTCHA_MAX_AREA" default:"15000"`
	DefaultTarget int           `envconfig:"CAPTCHA_DEFAULT_TARGETS" default:"2"`
	ClickSettle   time.Duration `envconfig:"CAPTCHA_CLICK_SETTLE" default:"700ms"`
	IdleLabel     string        `envconfig:"CAPTCHA_IDLE_LABEL" default:"skip"`
}

type StoreConfig struct {
	Path          string `envconfig:"STORE_PATH" default:"./data/applications"`
	ArtifactsPath string `envconfig:"ARTIFACTS_PATH" default:"./output/screenshots"`
}

type BatchConfig struct {
	Concurrency int           `envconfig:"BATCH_CONCURRENCY" default:"2"`
	MinDelay    time.Duration `envconfig:"BATCH_MIN_DELAY" default:"30s"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}
