// Package config loads the bot configuration from a YAML file and TGBOT_*
// environment variables, applies defaults and validates the result.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	apperrors "github.com/edgard/tgbotsdk/internal/errors"
)

// EnvPrefix is the prefix of environment overrides, e.g. TGBOT_TELEGRAM_TOKEN.
const EnvPrefix = "TGBOT"

// Config defines the application configuration.
type Config struct {
	Logger       LoggerConfig       `mapstructure:"log"`
	Telegram     TelegramConfig     `mapstructure:"telegram"`
	Commands     CommandsConfig     `mapstructure:"commands"`
	Polling      PollingConfig      `mapstructure:"polling"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Conversation ConversationConfig `mapstructure:"conversation"`
	Scheduler    SchedulerConfig    `mapstructure:"scheduler"`
	Messages     MessagesConfig     `mapstructure:"messages"`
}

// LoggerConfig holds log output settings.
type LoggerConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
	JSON  bool   `mapstructure:"json"`
}

// TelegramConfig holds Bot API access settings.
type TelegramConfig struct {
	Token          string           `mapstructure:"token"           validate:"required"`
	APIEndpoint    string           `mapstructure:"api_endpoint"    validate:"required,contains=%s"`
	BotUsername    string           `mapstructure:"bot_username"`
	AsyncRequests  bool             `mapstructure:"async_requests"`
	MaxAsync       int              `mapstructure:"max_async"       validate:"min=0"`
	RequestTimeout time.Duration    `mapstructure:"request_timeout" validate:"min=1s,max=10m"`
	Resilience     ResilienceConfig `mapstructure:"resilience"`
}

// ResilienceConfig holds the Bot API circuit breaker and retry settings.
type ResilienceConfig struct {
	MaxFailures   int           `mapstructure:"max_failures"   validate:"min=1"`
	ResetTimeout  time.Duration `mapstructure:"reset_timeout"  validate:"min=1s"`
	RetryAttempts int           `mapstructure:"retry_attempts" validate:"min=1,max=10"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"    validate:"min=0"`
}

// CommandsConfig holds command parsing settings.
type CommandsConfig struct {
	Prefix  string `mapstructure:"prefix"  validate:"required"`
	Default string `mapstructure:"default"`
}

// PollingConfig holds getUpdates long polling settings.
type PollingConfig struct {
	Timeout            int           `mapstructure:"timeout"              validate:"min=0,max=50"`
	Limit              int           `mapstructure:"limit"                validate:"min=1,max=100"`
	AllowedUpdates     []string      `mapstructure:"allowed_updates"`
	DropPendingUpdates bool          `mapstructure:"drop_pending_updates"`
	Interval           time.Duration `mapstructure:"interval"             validate:"min=0,max=1m"`
}

// DatabaseConfig holds the SQLite database location.
type DatabaseConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

// ConversationConfig holds conversation marker settings. A zero TTL keeps
// markers until the conversation ends.
type ConversationConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"min=0"`
}

// SchedulerConfig maps task names to their schedule.
type SchedulerConfig struct {
	Tasks map[string]TaskConfig `mapstructure:"tasks" validate:"dive"`
}

// TaskConfig configures one scheduled task. Schedule is a cron expression
// with an optional seconds field.
type TaskConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule" validate:"required_if=Enabled true"`
}

// MessagesConfig holds the texts sent by the bundled handlers. With Format
// "markdown" the texts are Markdown and are sent as Bot API HTML.
type MessagesConfig struct {
	Format          string `mapstructure:"format"            validate:"oneof=text markdown"`
	Welcome         string `mapstructure:"welcome"           validate:"required"`
	PrivateOnly     string `mapstructure:"private_only"      validate:"required"`
	Cancelled       string `mapstructure:"cancelled"         validate:"required"`
	NothingToCancel string `mapstructure:"nothing_to_cancel" validate:"required"`
	FeedbackRating  string `mapstructure:"feedback_rating"   validate:"required"`
	FeedbackInvalid string `mapstructure:"feedback_invalid"  validate:"required"`
	FeedbackComment string `mapstructure:"feedback_comment"  validate:"required"`
	FeedbackThanks  string `mapstructure:"feedback_thanks"   validate:"required"`
	GeneralError    string `mapstructure:"general_error"     validate:"required"`
}

var defaults = map[string]any{
	"log.level": "info",
	"log.json":  false,

	"telegram.token":           "",
	"telegram.api_endpoint":    "https://api.telegram.org/bot%s/%s",
	"telegram.bot_username":    "",
	"telegram.async_requests":  false,
	"telegram.max_async":       8,
	"telegram.request_timeout": 30 * time.Second,

	"telegram.resilience.max_failures":   5,
	"telegram.resilience.reset_timeout":  30 * time.Second,
	"telegram.resilience.retry_attempts": 3,
	"telegram.resilience.retry_delay":    500 * time.Millisecond,

	"commands.prefix":  "/",
	"commands.default": "",

	"polling.timeout":              30,
	"polling.limit":                100,
	"polling.allowed_updates":      []string{},
	"polling.drop_pending_updates": false,
	"polling.interval":             time.Second,

	"database.path": "storage.db",

	"conversation.ttl": 24 * time.Hour,

	"scheduler.tasks.sql_maintenance.enabled":      true,
	"scheduler.tasks.sql_maintenance.schedule":     "0 0 4 * * *",
	"scheduler.tasks.conversation_expiry.enabled":  true,
	"scheduler.tasks.conversation_expiry.schedule": "0 */15 * * * *",

	"messages.format":            "text",
	"messages.welcome":           "Hi! Send /help to see what I can do.",
	"messages.private_only":      "This command only works in a private chat.",
	"messages.cancelled":         "Cancelled.",
	"messages.nothing_to_cancel": "There is nothing to cancel.",
	"messages.feedback_rating":   "How would you rate the bot from 1 to 5?",
	"messages.feedback_invalid":  "Please answer with a number from 1 to 5.",
	"messages.feedback_comment":  "Thanks! Anything else you want to tell us?",
	"messages.feedback_thanks":   "Your feedback has been recorded.",
	"messages.general_error":     "An error occurred. Please try again later.",
}

// LoadConfig reads the YAML file at path, applies TGBOT_* environment
// overrides over it and validates the result. A missing file is not an
// error: defaults and environment values are used instead.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
				return nil, apperrors.NewConfigurationError(fmt.Sprintf("failed to read config file %q", path), err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, apperrors.NewConfigurationError("failed to parse config", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration against its field constraints.
func (c *Config) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(c); err != nil {
		return apperrors.NewConfigurationError("invalid configuration", err)
	}
	return nil
}
