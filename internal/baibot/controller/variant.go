package controller

import "github.com/etkecc/baibot/internal/baibot/agent"

// VariantKind is the closed set of actions the router can select.
type VariantKind string

const (
	KindIgnore            VariantKind = "ignore"
	KindHelp              VariantKind = "help"
	KindUsageHelp         VariantKind = "usage_help"
	KindUnknown           VariantKind = "unknown"
	KindError             VariantKind = "error"
	KindErrorInThread     VariantKind = "error_in_thread"
	KindProviderHelp      VariantKind = "provider_help"
	KindAccess            VariantKind = "access"
	KindAgent             VariantKind = "agent"
	KindConfig            VariantKind = "config"
	KindUsage             VariantKind = "usage"
	KindChatCompletion    VariantKind = "chat_completion"
	KindImageGeneration   VariantKind = "image_generation"
	KindImageEdit         VariantKind = "image_edit"
	KindStickerGeneration VariantKind = "sticker_generation"
)

// CompletionTrigger is the chat-completion sub-variant: what made the
// message actionable.
type CompletionTrigger string

const (
	TriggerTextCommand   CompletionTrigger = "text_command"
	TriggerTextDirect    CompletionTrigger = "text_direct"
	TriggerTextMention   CompletionTrigger = "text_mention"
	TriggerThreadMention CompletionTrigger = "thread_mention"
	TriggerReply         CompletionTrigger = "reply"
	TriggerAudio         CompletionTrigger = "audio"
)

// AccessAction enumerates the access sub-commands.
type AccessAction string

const (
	AccessUsers       AccessAction = "users"
	AccessSetUsers    AccessAction = "set_users"
	AccessManagers    AccessAction = "room_local_agent_managers"
	AccessSetManagers AccessAction = "set_room_local_agent_managers"
)

// AccessCommand is a parsed access sub-command.
type AccessCommand struct {
	Action   AccessAction
	Patterns []string
}

// AgentAction enumerates the agent sub-commands.
type AgentAction string

const (
	AgentList            AgentAction = "list"
	AgentDetails         AgentAction = "details"
	AgentCreateRoomLocal AgentAction = "create_room_local"
	AgentCreateGlobal    AgentAction = "create_global"
	AgentDelete          AgentAction = "delete"
)

// AgentCommand is a parsed agent sub-command.
type AgentCommand struct {
	Action   AgentAction
	Provider agent.Provider
	ID       string
}

// ConfigScope selects the layer a config sub-command operates on.
type ConfigScope string

const (
	ScopeRoom   ConfigScope = "room"
	ScopeGlobal ConfigScope = "global"
)

// ConfigArea selects the setting group a config sub-command touches.
type ConfigArea string

const (
	AreaTextGeneration ConfigArea = "text-generation"
	AreaSpeechToText   ConfigArea = "speech-to-text"
	AreaTextToSpeech   ConfigArea = "text-to-speech"
)

// ConfigAction is the get/set/unset triplet.
type ConfigAction string

const (
	ActionGet   ConfigAction = "get"
	ActionSet   ConfigAction = "set"
	ActionUnset ConfigAction = "unset"
)

// ConfigCommandKind distinguishes the config sub-command shapes.
type ConfigCommandKind string

const (
	ConfigStatus     ConfigCommandKind = "status"
	ConfigHandler    ConfigCommandKind = "handler"
	ConfigSetHandler ConfigCommandKind = "set_handler"
	ConfigSetting    ConfigCommandKind = "setting"
)

// ConfigCommand is a parsed config sub-command.
type ConfigCommand struct {
	Kind  ConfigCommandKind
	Scope ConfigScope

	// set-handler fields. A nil HandlerID unsets the mapping.
	Purpose   agent.Purpose
	HandlerID *string

	// setting-triplet fields.
	Area    ConfigArea
	Setting string
	Action  ConfigAction
	Value   string
}

// Variant is the routed action. Kind selects which of the payload fields
// is meaningful.
type Variant struct {
	Kind VariantKind

	// Error carries the user-visible message for the error kinds.
	Error string
	// ErrorThread is set for KindErrorInThread.
	ErrorThread *ThreadInfo

	Trigger CompletionTrigger
	Access  *AccessCommand
	Agent   *AgentCommand
	Config  *ConfigCommand

	// Prompt carries the free text of image, sticker, and edit requests.
	Prompt string
}

func ignore() Variant                 { return Variant{Kind: KindIgnore} }
func errorVariant(msg string) Variant { return Variant{Kind: KindError, Error: msg} }

func completion(t CompletionTrigger) Variant {
	return Variant{Kind: KindChatCompletion, Trigger: t}
}
