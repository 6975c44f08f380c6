// Package bootstrap loads and validates the configuration file, sets up
// logging, and assembles the running application.
package bootstrap

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/etkecc/baibot/common/crypto"
	"github.com/etkecc/baibot/common/environment"
	"github.com/etkecc/baibot/common/mxidwc"
	"github.com/etkecc/baibot/internal/baibot/agent"
	botpkg "github.com/etkecc/baibot/internal/baibot/bot"
	"github.com/etkecc/baibot/internal/baibot/config"
)

const (
	DefaultCommandPrefix = "!bai"
	DefaultDatabaseFile  = "baibot.db"
)

// UserConfig identifies and authenticates the bot's Matrix account.
type UserConfig struct {
	ID       string `yaml:"id"`
	Password string `yaml:"password"`
	// AccessToken skips the password login when set.
	AccessToken string `yaml:"access_token"`
	DeviceID    string `yaml:"device_id"`
	DisplayName string `yaml:"display_name"`
	// EncryptionRecoveryPassphrase unlocks the account's encryption
	// recovery.
	EncryptionRecoveryPassphrase string `yaml:"encryption_recovery_passphrase"`
	// EncryptionRecoveryResetAllowed permits resetting the recovery data
	// when the passphrase cannot unlock it.
	EncryptionRecoveryResetAllowed bool `yaml:"encryption_recovery_reset_allowed"`
}

// PersistenceConfig locates the data directory and the optional payload
// encryption keys (64 hex characters each).
type PersistenceConfig struct {
	DataDir string `yaml:"data_dir"`
	// DBFileName is the SQLite file name inside the data directory.
	DBFileName string `yaml:"db_file_name"`
	// SessionEncryptionKey protects the catch-up marker carrier.
	SessionEncryptionKey string `yaml:"session_encryption_key"`
	// ConfigEncryptionKey protects the global and room config carriers.
	ConfigEncryptionKey string `yaml:"config_encryption_key"`
}

// RoomConfig holds room-lifecycle behavior.
type RoomConfig struct {
	PostJoinSelfIntroductionEnabled bool `yaml:"post_join_self_introduction_enabled"`
}

// AccessConfig holds the bootstrap-level access lists.
type AccessConfig struct {
	AdminPatterns []string `yaml:"admin_patterns"`
}

// AgentsConfig holds the statically defined agents.
type AgentsConfig struct {
	StaticDefinitions []agent.Definition `yaml:"static_definitions"`
}

// LoggingConfig selects the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AggregatorConfig tunes the rapid-fire message batching.
type AggregatorConfig struct {
	MessageExpirationSeconds      int `yaml:"message_expiration_seconds"`
	MessagePollingIntervalSeconds int `yaml:"message_polling_interval_seconds"`
}

// Config is the bootstrap configuration file.
type Config struct {
	Homeserver  string            `yaml:"homeserver"`
	User        UserConfig        `yaml:"user"`
	Persistence PersistenceConfig `yaml:"persistence"`

	CommandPrefix string       `yaml:"command_prefix"`
	Room          RoomConfig   `yaml:"room"`
	Access        AccessConfig `yaml:"access"`
	Agents        AgentsConfig `yaml:"agents"`

	// InitialGlobalConfig seeds the account-data global config document on
	// first startup. Later changes happen through chat commands.
	InitialGlobalConfig config.GlobalConfig `yaml:"initial_global_config"`

	Logging                  LoggingConfig    `yaml:"logging"`
	ChatCompletionAggregator AggregatorConfig `yaml:"chat_completion_aggregator"`

	// UniqueBotID distinguishes multiple bot instances sharing a homeserver.
	UniqueBotID string `yaml:"unique_bot_id"`

	// Parsed key material, populated by Validate.
	sessionKey []byte
	configKey  []byte
}

// Load reads the configuration file, applies BAIBOT_ environment overrides,
// and validates the result.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("bootstrap: parse config file: %w", err)
	}
	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Homeserver = environment.StringOr("BAIBOT_HOMESERVER", c.Homeserver)
	c.User.ID = environment.StringOr("BAIBOT_USER_ID", c.User.ID)
	c.User.Password = environment.StringOr("BAIBOT_USER_PASSWORD", c.User.Password)
	c.User.AccessToken = environment.StringOr("BAIBOT_USER_ACCESS_TOKEN", c.User.AccessToken)
	c.User.DeviceID = environment.StringOr("BAIBOT_USER_DEVICE_ID", c.User.DeviceID)
	c.User.DisplayName = environment.StringOr("BAIBOT_USER_DISPLAY_NAME", c.User.DisplayName)
	c.User.EncryptionRecoveryPassphrase = environment.StringOr("BAIBOT_USER_ENCRYPTION_RECOVERY_PASSPHRASE", c.User.EncryptionRecoveryPassphrase)
	c.User.EncryptionRecoveryResetAllowed = environment.BoolOr("BAIBOT_USER_ENCRYPTION_RECOVERY_RESET_ALLOWED", c.User.EncryptionRecoveryResetAllowed)

	c.Persistence.DataDir = environment.StringOr("BAIBOT_PERSISTENCE_DATA_DIR", c.Persistence.DataDir)
	c.Persistence.DBFileName = environment.StringOr("BAIBOT_PERSISTENCE_DB_FILE_NAME", c.Persistence.DBFileName)
	c.Persistence.SessionEncryptionKey = environment.StringOr("BAIBOT_PERSISTENCE_SESSION_ENCRYPTION_KEY", c.Persistence.SessionEncryptionKey)
	c.Persistence.ConfigEncryptionKey = environment.StringOr("BAIBOT_PERSISTENCE_CONFIG_ENCRYPTION_KEY", c.Persistence.ConfigEncryptionKey)

	c.CommandPrefix = environment.StringOr("BAIBOT_COMMAND_PREFIX", c.CommandPrefix)
	c.Room.PostJoinSelfIntroductionEnabled = environment.BoolOr("BAIBOT_ROOM_POST_JOIN_SELF_INTRODUCTION_ENABLED", c.Room.PostJoinSelfIntroductionEnabled)
	c.Access.AdminPatterns = environment.StringSliceOr("BAIBOT_ACCESS_ADMIN_PATTERNS", c.Access.AdminPatterns)

	c.Logging.Level = environment.StringOr("BAIBOT_LOGGING_LEVEL", c.Logging.Level)
	c.Logging.Format = environment.StringOr("BAIBOT_LOGGING_FORMAT", c.Logging.Format)

	c.ChatCompletionAggregator.MessageExpirationSeconds = environment.IntOr("BAIBOT_CHAT_COMPLETION_AGGREGATOR_MESSAGE_EXPIRATION_SECONDS", c.ChatCompletionAggregator.MessageExpirationSeconds)
	c.ChatCompletionAggregator.MessagePollingIntervalSeconds = environment.IntOr("BAIBOT_CHAT_COMPLETION_AGGREGATOR_MESSAGE_POLLING_INTERVAL_SECONDS", c.ChatCompletionAggregator.MessagePollingIntervalSeconds)

	c.UniqueBotID = environment.StringOr("BAIBOT_UNIQUE_BOT_ID", c.UniqueBotID)
}

func (c *Config) applyDefaults() {
	if c.CommandPrefix == "" {
		c.CommandPrefix = DefaultCommandPrefix
	}
	if c.Persistence.DataDir == "" {
		c.Persistence.DataDir = "."
	}
	if c.Persistence.DBFileName == "" {
		c.Persistence.DBFileName = DefaultDatabaseFile
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.UniqueBotID == "" {
		c.UniqueBotID = "baibot"
	}
}

// Validate checks the configuration. All failures here are fatal at
// startup.
func (c *Config) Validate() error {
	if c.Homeserver == "" {
		return fmt.Errorf("bootstrap: homeserver is required")
	}
	if c.User.ID == "" || !strings.HasPrefix(c.User.ID, "@") {
		return fmt.Errorf("bootstrap: user.id must be a full MXID")
	}
	if c.User.Password == "" && c.User.AccessToken == "" {
		return fmt.Errorf("bootstrap: either user.password or user.access_token is required")
	}
	if c.User.EncryptionRecoveryResetAllowed && c.User.EncryptionRecoveryPassphrase == "" {
		return fmt.Errorf("bootstrap: user.encryption_recovery_reset_allowed requires user.encryption_recovery_passphrase")
	}
	if len(c.Access.AdminPatterns) == 0 {
		return fmt.Errorf("bootstrap: access.admin_patterns must not be empty")
	}
	if _, err := mxidwc.ParseAll(c.Access.AdminPatterns); err != nil {
		return fmt.Errorf("bootstrap: invalid admin pattern: %w", err)
	}
	for i := range c.Agents.StaticDefinitions {
		if err := c.Agents.StaticDefinitions[i].Validate(); err != nil {
			return fmt.Errorf("bootstrap: static agent: %w", err)
		}
	}

	var err error
	if c.Persistence.SessionEncryptionKey != "" {
		if c.sessionKey, err = crypto.ParseMasterKey(c.Persistence.SessionEncryptionKey); err != nil {
			return fmt.Errorf("bootstrap: session encryption key: %w", err)
		}
	}
	if c.Persistence.ConfigEncryptionKey != "" {
		if c.configKey, err = crypto.ParseMasterKey(c.Persistence.ConfigEncryptionKey); err != nil {
			return fmt.Errorf("bootstrap: config encryption key: %w", err)
		}
	}
	return nil
}

// SessionEncryptionKey returns the parsed session key, nil when disabled.
func (c *Config) SessionEncryptionKey() []byte { return c.sessionKey }

// ConfigEncryptionKey returns the parsed config key, nil when disabled.
func (c *Config) ConfigEncryptionKey() []byte { return c.configKey }

// DatabasePath joins the data directory and the database file name.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Persistence.DataDir, c.Persistence.DBFileName)
}

// BotConfig translates the aggregator and room settings into the bot's
// knobs.
func (c *Config) BotConfig() botpkg.Config {
	return botpkg.Config{
		CommandPrefix:            c.CommandPrefix,
		PostJoinSelfIntroduction: c.Room.PostJoinSelfIntroductionEnabled,
		AggregatorExpiration:     time.Duration(c.ChatCompletionAggregator.MessageExpirationSeconds) * time.Second,
		AggregatorInterval:       time.Duration(c.ChatCompletionAggregator.MessagePollingIntervalSeconds) * time.Second,
	}
}

// SetupLogging installs the global slog handler per the logging section.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.EqualFold(cfg.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}
