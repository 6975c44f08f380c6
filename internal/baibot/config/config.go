package config

import "github.com/etkecc/baibot/internal/baibot/agent"

// RoomConfig is the per-room overlay: a settings layer plus room-local
// agent definitions.
type RoomConfig struct {
	Settings Settings           `yaml:"settings,omitempty" json:"settings,omitempty"`
	Agents   []agent.Definition `yaml:"agents,omitempty" json:"agents,omitempty"`
}

// Access holds the global access lists as wildcard MXID patterns.
type Access struct {
	UserPatterns                  []string `yaml:"user_patterns,omitempty" json:"user_patterns,omitempty"`
	RoomLocalAgentManagerPatterns []string `yaml:"room_local_agent_manager_patterns,omitempty" json:"room_local_agent_manager_patterns,omitempty"`
}

// GlobalConfig is the account-wide overlay: fallback settings applied to
// rooms without their own value, global agent definitions, and the access
// lists.
type GlobalConfig struct {
	FallbackRoomSettings Settings           `yaml:"fallback_room_settings,omitempty" json:"fallback_room_settings,omitempty"`
	Agents               []agent.Definition `yaml:"agents,omitempty" json:"agents,omitempty"`
	Access               Access             `yaml:"access,omitempty" json:"access,omitempty"`
}
