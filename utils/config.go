// File: utils/config.go
package utils

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configurable game parameters and runtime settings.
type Config struct {
	// Timing
	FrameRate            int           `json:"frameRate"`            // Simulation frames per second
	CountdownSeconds     int           `json:"countdownSeconds"`     // Countdown length before a match
	CountdownPeriod      time.Duration `json:"countdownPeriod"`      // Time between countdown decrements
	NotificationDuration time.Duration `json:"notificationDuration"` // How long a submission notification stays visible

	// Court
	CanvasWidth  float64 `json:"canvasWidth"`
	CanvasHeight float64 `json:"canvasHeight"`
	PaddleWidth  float64 `json:"paddleWidth"`
	PaddleHeight float64 `json:"paddleHeight"`
	PaddleOffset float64 `json:"paddleOffset"` // Distance between a court edge and its paddle
	BallSize     float64 `json:"ballSize"`

	// Paddle Physics
	PaddleBaseSpeed    float64 `json:"paddleBaseSpeed"`    // Reference speed for AI tracking
	AISpeedFactor      float64 `json:"aiSpeedFactor"`      // AI step = PaddleBaseSpeed * AISpeedFactor
	AIDeadband         float64 `json:"aiDeadband"`         // AI holds while the ball is this close to paddle center
	PaddleAcceleration float64 `json:"paddleAcceleration"` // Per-frame velocity gain while a key is held
	PaddleDeceleration float64 `json:"paddleDeceleration"` // Per-frame velocity decay while released
	PaddleMaxSpeed     float64 `json:"paddleMaxSpeed"`
	PaddleMinVelocity  float64 `json:"paddleMinVelocity"` // Velocity granted on the first frame of a press

	// Ball Physics
	BallSpeedBase          float64       `json:"ballSpeedBase"`
	BallSpeedMax           float64       `json:"ballSpeedMax"`
	BallSpeedIncreaseRate  float64       `json:"ballSpeedIncreaseRate"`  // Multiplier growth per ramp step
	BallSpeedRampInterval  time.Duration `json:"ballSpeedRampInterval"`  // Time between ramp steps
	BallSpeedYRatio        float64       `json:"ballSpeedYRatio"`        // Cap of |vy| relative to |vx|
	BallHitSpeedFactor     float64       `json:"ballHitSpeedFactor"`     // vy = hitPos * speed * factor on paddle hit
	DemoBallHitSpeedFactor float64       `json:"demoBallHitSpeedFactor"` // vy = hitPos * factor on demo paddle hit

	// Match Rules
	WinningScore  int `json:"winningScore"`
	NameMinLength int `json:"nameMinLength"`
	NameMaxLength int `json:"nameMaxLength"`

	// Runtime
	ServerAddr        string        `json:"serverAddr"`
	RelayAddr         string        `json:"relayAddr"`
	RelayURL          string        `json:"relayURL"`
	DBPath            string        `json:"dbPath"`
	LedgerDBPath      string        `json:"ledgerDBPath"`
	LogLevel          string        `json:"logLevel"`
	SigningKey        string        `json:"-"`
	MaxRooms          int           `json:"maxRooms"`
	SubmitTimeout     time.Duration `json:"submitTimeout"`
	BlockPollPeriod   time.Duration `json:"blockPollPeriod"`
	HistoryPollPeriod time.Duration `json:"historyPollPeriod"`
}

// DefaultConfig returns a Config struct with default values.
func DefaultConfig() Config {
	return Config{
		// Timing
		FrameRate:            60,
		CountdownSeconds:     3,
		CountdownPeriod:      time.Second,
		NotificationDuration: 5 * time.Second,

		// Court
		CanvasWidth:  420,
		CanvasHeight: 300,
		PaddleWidth:  8,
		PaddleHeight: 60,
		PaddleOffset: 20,
		BallSize:     8,

		// Paddle Physics
		PaddleBaseSpeed:    5,
		AISpeedFactor:      0.7,
		AIDeadband:         10,
		PaddleAcceleration: 0.8,
		PaddleDeceleration: 0.2,
		PaddleMaxSpeed:     6,
		PaddleMinVelocity:  1.5,

		// Ball Physics
		BallSpeedBase:          3,
		BallSpeedMax:           4.5,
		BallSpeedIncreaseRate:  0.1,
		BallSpeedRampInterval:  time.Second,
		BallSpeedYRatio:        0.75,
		BallHitSpeedFactor:     3.2,
		DemoBallHitSpeedFactor: 8,

		// Match Rules
		WinningScore:  3,
		NameMinLength: 3,
		NameMaxLength: 9,

		// Runtime
		ServerAddr:        ":3001",
		RelayAddr:         ":3002",
		RelayURL:          "http://localhost:3002",
		DBPath:            "pong.db",
		LedgerDBPath:      "ledger.db",
		LogLevel:          "info",
		MaxRooms:          75,
		SubmitTimeout:     30 * time.Second,
		BlockPollPeriod:   5 * time.Second,
		HistoryPollPeriod: 10 * time.Second,
	}
}

// FramePeriod is the wall-clock time between two simulation frames.
func (c Config) FramePeriod() time.Duration {
	if c.FrameRate <= 0 {
		return time.Second / 60
	}
	return time.Second / time.Duration(c.FrameRate)
}

// MaxPaddleY is the lowest position a paddle's top edge may reach.
func (c Config) MaxPaddleY() float64 { return c.CanvasHeight - c.PaddleHeight }

// CenteredPaddleY places a paddle in the middle of the court.
func (c Config) CenteredPaddleY() float64 { return (c.CanvasHeight - c.PaddleHeight) / 2 }

// MaxSpeedMultiplier is the ceiling of the ball speed ramp.
func (c Config) MaxSpeedMultiplier() float64 { return c.BallSpeedMax / c.BallSpeedBase }

// LoadConfig reads an optional .env file and overlays environment variables
// on top of DefaultConfig.
func LoadConfig() (Config, error) {
	_ = godotenv.Load() // a missing .env file is not an error

	cfg := DefaultConfig()
	overlayString(&cfg.ServerAddr, "PONG_ADDR")
	overlayString(&cfg.RelayAddr, "RELAY_ADDR")
	overlayString(&cfg.RelayURL, "RELAY_URL")
	overlayString(&cfg.DBPath, "PONG_DB_PATH")
	overlayString(&cfg.LedgerDBPath, "RELAY_DB_PATH")
	overlayString(&cfg.LogLevel, "LOG_LEVEL")
	overlayString(&cfg.SigningKey, "SERVER_PRIVATE_KEY")

	if err := overlayInt(&cfg.FrameRate, "PONG_FRAME_RATE"); err != nil {
		return cfg, err
	}
	if err := overlayInt(&cfg.MaxRooms, "PONG_MAX_ROOMS"); err != nil {
		return cfg, err
	}
	if err := overlayDuration(&cfg.SubmitTimeout, "SUBMIT_TIMEOUT"); err != nil {
		return cfg, err
	}
	if cfg.FrameRate <= 0 {
		return cfg, fmt.Errorf("PONG_FRAME_RATE must be positive, got %d", cfg.FrameRate)
	}
	return cfg, nil
}

func overlayString(dst *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func overlayInt(dst *int, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func overlayDuration(dst *time.Duration, key string) error {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = d
	return nil
}
