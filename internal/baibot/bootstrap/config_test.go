package bootstrap

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const minimalConfig = `
homeserver: https://matrix.example.com
user:
  id: "@baibot:example.com"
  password: secret
access:
  admin_patterns:
    - "@admin:example.com"
`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CommandPrefix != "!bai" {
		t.Errorf("command prefix = %q", cfg.CommandPrefix)
	}
	if got := cfg.DatabasePath(); got != filepath.Join(".", "baibot.db") {
		t.Errorf("database path = %q", got)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "text" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.SessionEncryptionKey() != nil || cfg.ConfigEncryptionKey() != nil {
		t.Error("encryption must be off unless keys are configured")
	}
}

func TestLoadFullConfig(t *testing.T) {
	cfg, err := Load(writeConfig(t, `
homeserver: https://matrix.example.com
user:
  id: "@baibot:example.com"
  access_token: syt_abc
  display_name: baibot
  encryption_recovery_passphrase: open-sesame
  encryption_recovery_reset_allowed: true
persistence:
  data_dir: /var/lib/baibot
  session_encryption_key: `+strings.Repeat("ab", 32)+`
  config_encryption_key: `+strings.Repeat("cd", 32)+`
command_prefix: "!ai"
room:
  post_join_self_introduction_enabled: true
access:
  admin_patterns:
    - "@admin:example.com"
    - "@*:ops.example.com"
agents:
  static_definitions:
    - id: default
      provider: openai
      config:
        api_key: sk-test
initial_global_config:
  access:
    user_patterns:
      - "@*:example.com"
chat_completion_aggregator:
  message_expiration_seconds: 5
  message_polling_interval_seconds: 2
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cfg.SessionEncryptionKey()) != 32 || len(cfg.ConfigEncryptionKey()) != 32 {
		t.Error("hex keys must parse to 32 bytes")
	}
	if got := cfg.DatabasePath(); got != "/var/lib/baibot/baibot.db" {
		t.Errorf("database path = %q", got)
	}
	bc := cfg.BotConfig()
	if bc.CommandPrefix != "!ai" || !bc.PostJoinSelfIntroduction {
		t.Errorf("bot config = %+v", bc)
	}
	if bc.AggregatorExpiration.Seconds() != 5 || bc.AggregatorInterval.Seconds() != 2 {
		t.Errorf("aggregator = %+v", bc)
	}
	if len(cfg.Agents.StaticDefinitions) != 1 || cfg.Agents.StaticDefinitions[0].ID != "default" {
		t.Errorf("static definitions = %+v", cfg.Agents.StaticDefinitions)
	}
	if cfg.InitialGlobalConfig.Access.UserPatterns[0] != "@*:example.com" {
		t.Errorf("initial global config = %+v", cfg.InitialGlobalConfig)
	}
	if cfg.User.EncryptionRecoveryPassphrase != "open-sesame" || !cfg.User.EncryptionRecoveryResetAllowed {
		t.Errorf("recovery settings = %+v", cfg.User)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("BAIBOT_COMMAND_PREFIX", "!robot")
	t.Setenv("BAIBOT_USER_PASSWORD", "from-env")
	t.Setenv("BAIBOT_USER_ENCRYPTION_RECOVERY_PASSPHRASE", "env-passphrase")
	t.Setenv("BAIBOT_USER_ENCRYPTION_RECOVERY_RESET_ALLOWED", "true")
	t.Setenv("BAIBOT_LOGGING_FORMAT", "json")

	cfg, err := Load(writeConfig(t, minimalConfig))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.CommandPrefix != "!robot" {
		t.Errorf("command prefix = %q", cfg.CommandPrefix)
	}
	if cfg.User.Password != "from-env" {
		t.Errorf("password = %q", cfg.User.Password)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("logging format = %q", cfg.Logging.Format)
	}
	if cfg.User.EncryptionRecoveryPassphrase != "env-passphrase" || !cfg.User.EncryptionRecoveryResetAllowed {
		t.Errorf("recovery settings = %+v", cfg.User)
	}
}

func TestValidateRejectsBrokenConfigs(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing homeserver",
			body: `
user:
  id: "@baibot:example.com"
  password: x
access:
  admin_patterns: ["@admin:example.com"]
`,
			want: "homeserver",
		},
		{
			name: "bare username",
			body: `
homeserver: https://matrix.example.com
user:
  id: baibot
  password: x
access:
  admin_patterns: ["@admin:example.com"]
`,
			want: "full MXID",
		},
		{
			name: "no credentials",
			body: `
homeserver: https://matrix.example.com
user:
  id: "@baibot:example.com"
access:
  admin_patterns: ["@admin:example.com"]
`,
			want: "password or user.access_token",
		},
		{
			name: "no admins",
			body: `
homeserver: https://matrix.example.com
user:
  id: "@baibot:example.com"
  password: x
`,
			want: "admin_patterns",
		},
		{
			name: "recovery reset without passphrase",
			body: `
homeserver: https://matrix.example.com
user:
  id: "@baibot:example.com"
  password: x
  encryption_recovery_reset_allowed: true
access:
  admin_patterns: ["@admin:example.com"]
`,
			want: "encryption_recovery_passphrase",
		},
		{
			name: "bad encryption key",
			body: minimalConfig + `
persistence:
  config_encryption_key: not-hex
`,
			want: "config encryption key",
		},
		{
			name: "bad static agent",
			body: minimalConfig + `
agents:
  static_definitions:
    - id: "Bad Name!"
      provider: openai
      config: {}
`,
			want: "static agent",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.body))
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}
