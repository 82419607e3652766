// Package config loads runtime settings. Later sources override earlier
// ones: built-in defaults, an optional YAML file, .env files, then the
// process environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Env var names.
const (
	EnvGeminiAPIKey   = "GEMINI_API_KEY"
	EnvGeminiModel    = "FOODIFY_GEMINI_MODEL"
	EnvGeminiBaseURL  = "FOODIFY_GEMINI_BASE_URL"
	EnvCartAPIURL     = "FOODIFY_CART_API_URL"
	EnvCartToken      = "FOODIFY_CART_TOKEN"
	EnvCartSecret     = "FOODIFY_CART_SECRET"
	EnvDeliveryFee    = "FOODIFY_DELIVERY_FEE"
	EnvDataDir        = "FOODIFY_DATA_DIR"
	EnvRatePerMinute  = "FOODIFY_RATE_PER_MINUTE"
	EnvRatePerHour    = "FOODIFY_RATE_PER_HOUR"
	EnvTokenBudget    = "FOODIFY_TOKEN_BUDGET"
	EnvSerializedCart = "FOODIFY_SERIALIZED_CART"
	EnvUserName       = "FOODIFY_USER_NAME"
)

// Config is the full runtime configuration.
type Config struct {
	Gemini GeminiConfig `yaml:"gemini"`
	Cart   CartConfig   `yaml:"cart"`
	Chat   ChatConfig   `yaml:"chat"`
	User   UserConfig   `yaml:"user"`
	// DataDir holds the persisted cart and order log.
	DataDir string `yaml:"data_dir"`
}

// GeminiConfig configures the completion endpoint. An empty APIKey runs the
// assistant offline.
type GeminiConfig struct {
	APIKey      string        `yaml:"api_key"`
	Model       string        `yaml:"model"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float64       `yaml:"temperature"`
	MaxTokens   int           `yaml:"max_tokens"`
	Timeout     time.Duration `yaml:"timeout"`
}

// CartConfig configures the cart backend. An empty APIURL serves the cart
// API in process.
type CartConfig struct {
	APIURL string `yaml:"api_url"`
	Token  string `yaml:"token"`
	// Secret signs dev tokens when Token is empty.
	Secret      string `yaml:"secret"`
	DeliveryFee int64  `yaml:"delivery_fee"`
	Serialized  bool   `yaml:"serialized"`
}

// ChatConfig tunes the chat pipeline.
type ChatConfig struct {
	PerMinute      int           `yaml:"per_minute"`
	PerHour        int           `yaml:"per_hour"`
	MaxAttempts    int           `yaml:"max_attempts"`
	RetryBaseDelay time.Duration `yaml:"retry_base_delay"`
	HistoryTurns   int           `yaml:"history_turns"`
	TokenBudget    int           `yaml:"token_budget"`
}

// UserConfig is the demo user shown to the assistant.
type UserConfig struct {
	Name string `yaml:"name"`
	Role string `yaml:"role"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Gemini: GeminiConfig{
			Model:       "gemini-1.5-flash",
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Temperature: 0.7,
			MaxTokens:   1024,
			Timeout:     15 * time.Second,
		},
		Cart: CartConfig{
			DeliveryFee: 299,
		},
		Chat: ChatConfig{
			PerMinute:      60,
			PerHour:        1000,
			MaxAttempts:    3,
			RetryBaseDelay: time.Second,
			HistoryTurns:   50,
		},
		User: UserConfig{
			Name: "Guest",
			Role: "customer",
		},
		DataDir: ".foodify",
	}
}

// Load builds a Config. path names an optional YAML file; dotenv lists .env
// files to read, missing ones are skipped. Real environment variables win
// over .env values.
func Load(path string, dotenv ...string) (*Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	fileEnv := map[string]string{}
	for _, f := range dotenv {
		vals, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", f, err)
		}
		for k, v := range vals {
			fileEnv[k] = v
		}
	}

	lookup := func(key string) (string, bool) {
		if v, ok := os.LookupEnv(key); ok {
			return v, true
		}
		v, ok := fileEnv[key]
		return v, ok
	}
	if err := cfg.applyEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", key, v)
		}
		*dst = n
		return nil
	}

	str(EnvGeminiAPIKey, &c.Gemini.APIKey)
	str(EnvGeminiModel, &c.Gemini.Model)
	str(EnvGeminiBaseURL, &c.Gemini.BaseURL)
	str(EnvCartAPIURL, &c.Cart.APIURL)
	str(EnvCartToken, &c.Cart.Token)
	str(EnvCartSecret, &c.Cart.Secret)
	str(EnvDataDir, &c.DataDir)
	str(EnvUserName, &c.User.Name)

	if err := num(EnvRatePerMinute, &c.Chat.PerMinute); err != nil {
		return err
	}
	if err := num(EnvRatePerHour, &c.Chat.PerHour); err != nil {
		return err
	}
	if err := num(EnvTokenBudget, &c.Chat.TokenBudget); err != nil {
		return err
	}

	if v, ok := lookup(EnvDeliveryFee); ok && v != "" {
		fee, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number of cents", EnvDeliveryFee, v)
		}
		c.Cart.DeliveryFee = fee
	}
	if v, ok := lookup(EnvSerializedCart); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not a boolean", EnvSerializedCart, v)
		}
		c.Cart.Serialized = b
	}
	return nil
}

// Validate rejects settings no component can run with.
func (c *Config) Validate() error {
	switch {
	case c.Chat.PerMinute < 0 || c.Chat.PerHour < 0:
		return errors.New("chat rate limits must not be negative")
	case c.Chat.MaxAttempts < 1:
		return errors.New("chat.max_attempts must be at least 1")
	case c.Chat.RetryBaseDelay < 0:
		return errors.New("chat.retry_base_delay must not be negative")
	case c.Chat.HistoryTurns < 1:
		return errors.New("chat.history_turns must be at least 1")
	case c.Cart.DeliveryFee < 0:
		return errors.New("cart.delivery_fee must not be negative")
	case c.Gemini.Timeout <= 0:
		return errors.New("gemini.timeout must be positive")
	case c.Gemini.Model == "":
		return errors.New("gemini.model is required")
	}
	return nil
}

// Offline reports whether the assistant runs without the completion API.
func (c *Config) Offline() bool {
	return c.Gemini.APIKey == ""
}
