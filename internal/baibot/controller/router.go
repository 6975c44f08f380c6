package controller

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
)

// Determine routes one event to its action. It is total and side-effect
// free: identical inputs yield identical outputs.
func Determine(prefix string, first FirstMessage, mctx MessageContext) Variant {
	switch first.Payload.Kind {
	case PayloadSyntheticReply:
		return completion(TriggerReply)
	case PayloadSyntheticThreadMention:
		return completion(TriggerThreadMention)
	case PayloadAudio:
		return completion(TriggerAudio)
	case PayloadEncrypted:
		msg := "this message could not be decrypted"
		if mctx.IsTopLevel {
			return errorVariant(msg)
		}
		thread := mctx.Thread
		return Variant{Kind: KindErrorInThread, Error: msg, ErrorThread: &thread}
	case PayloadNotice, PayloadImage:
		return ignore()
	}

	body := strings.TrimSpace(first.Payload.Body)
	if body == prefix {
		return Variant{Kind: KindHelp}
	}
	if rest, ok := strings.CutPrefix(body, prefix+" "); ok {
		return parseCommand(strings.TrimSpace(rest))
	}

	if first.IsMentioningBot {
		return completion(TriggerTextMention)
	}
	if mctx.PrefixRequirement == config.PrefixRequirementNo {
		return completion(TriggerTextDirect)
	}
	return ignore()
}

func parseCommand(rest string) Variant {
	verb, args := cutWord(rest)
	switch verb {
	case "help":
		return Variant{Kind: KindHelp}
	case "usage":
		return Variant{Kind: KindUsage}
	case "provider":
		return Variant{Kind: KindProviderHelp}
	case "access":
		return parseAccess(args)
	case "agent":
		return parseAgent(args)
	case "config":
		return parseConfig(args)
	case "image":
		sub, prompt := cutWord(args)
		switch {
		case sub == "create" && prompt != "":
			return Variant{Kind: KindImageGeneration, Prompt: prompt}
		case sub == "edit" && prompt != "":
			return Variant{Kind: KindImageEdit, Prompt: prompt}
		}
		return Variant{Kind: KindUsageHelp}
	case "sticker":
		if args == "" {
			return Variant{Kind: KindUsageHelp}
		}
		return Variant{Kind: KindStickerGeneration, Prompt: args}
	}
	// A prefixed message that is not a known command is a completion
	// request; the prefix gets stripped during conversation assembly.
	return completion(TriggerTextCommand)
}

func parseAccess(args string) Variant {
	verb, rest := cutWord(args)
	patterns := strings.Fields(rest)
	switch verb {
	case "users":
		if len(patterns) != 0 {
			return errorVariant("usage: access users")
		}
		return Variant{Kind: KindAccess, Access: &AccessCommand{Action: AccessUsers}}
	case "set-users":
		if len(patterns) == 0 {
			return errorVariant("usage: access set-users <patterns…>")
		}
		return Variant{Kind: KindAccess, Access: &AccessCommand{Action: AccessSetUsers, Patterns: patterns}}
	case "room-local-agent-managers":
		if len(patterns) != 0 {
			return errorVariant("usage: access room-local-agent-managers")
		}
		return Variant{Kind: KindAccess, Access: &AccessCommand{Action: AccessManagers}}
	case "set-room-local-agent-managers":
		if len(patterns) == 0 {
			return errorVariant("usage: access set-room-local-agent-managers <patterns…>")
		}
		return Variant{Kind: KindAccess, Access: &AccessCommand{Action: AccessSetManagers, Patterns: patterns}}
	}
	return errorVariant(fmt.Sprintf("unknown access sub-command %q", verb))
}

func parseAgent(args string) Variant {
	verb, rest := cutWord(args)
	fields := strings.Fields(rest)
	agentCmd := func(cmd AgentCommand) Variant {
		return Variant{Kind: KindAgent, Agent: &cmd}
	}
	switch verb {
	case "list":
		if len(fields) != 0 {
			return errorVariant("usage: agent list")
		}
		return agentCmd(AgentCommand{Action: AgentList})
	case "details":
		if len(fields) != 1 {
			return errorVariant("usage: agent details <id>")
		}
		return agentCmd(AgentCommand{Action: AgentDetails, ID: fields[0]})
	case "delete":
		if len(fields) != 1 {
			return errorVariant("usage: agent delete <id>")
		}
		return agentCmd(AgentCommand{Action: AgentDelete, ID: fields[0]})
	case "create-room-local", "create-global":
		if len(fields) != 2 {
			return errorVariant(fmt.Sprintf("usage: agent %s <provider> <id>", verb))
		}
		provider, err := agent.ParseProvider(fields[0])
		if err != nil {
			return errorVariant(err.Error())
		}
		action := AgentCreateRoomLocal
		if verb == "create-global" {
			action = AgentCreateGlobal
		}
		return agentCmd(AgentCommand{Action: action, Provider: provider, ID: fields[1]})
	}
	return errorVariant(fmt.Sprintf("unknown agent sub-command %q", verb))
}

// Setting names accepted per area, in the kebab-case form users type.
var settingsByArea = map[ConfigArea][]string{
	AreaTextGeneration: {
		"context-management-enabled",
		"prefix-requirement-type",
		"auto-usage",
		"prompt-override",
		"temperature-override",
	},
	AreaSpeechToText: {
		"flow-type",
		"language",
		"msg-type-for-non-threaded-only-transcribed-messages",
	},
	AreaTextToSpeech: {
		"bot-msgs-flow-type",
		"user-msgs-flow-type",
		"speed-override",
		"voice-override",
	},
}

func parseConfig(args string) Variant {
	verb, rest := cutWord(args)
	configCmd := func(cmd ConfigCommand) Variant {
		return Variant{Kind: KindConfig, Config: &cmd}
	}

	switch verb {
	case "status":
		if rest != "" {
			return errorVariant("usage: config status")
		}
		return configCmd(ConfigCommand{Kind: ConfigStatus})
	case "room", "global":
		scope := ConfigScope(verb)
		sub, subArgs := cutWord(rest)
		switch sub {
		case "handler":
			if subArgs != "" {
				return errorVariant(fmt.Sprintf("usage: config %s handler", scope))
			}
			return configCmd(ConfigCommand{Kind: ConfigHandler, Scope: scope})
		case "set-handler":
			fields := strings.Fields(subArgs)
			if len(fields) != 2 {
				return errorVariant(fmt.Sprintf("usage: config %s set-handler <purpose> <agent-id|unset>", scope))
			}
			purpose, err := agent.ParsePurpose(fields[0])
			if err != nil {
				return errorVariant(err.Error())
			}
			cmd := ConfigCommand{Kind: ConfigSetHandler, Scope: scope, Purpose: purpose}
			if fields[1] != "unset" {
				if _, err := agent.ParseIdentifier(fields[1]); err != nil {
					return errorVariant(err.Error())
				}
				id := fields[1]
				cmd.HandlerID = &id
			}
			return configCmd(cmd)
		case string(AreaTextGeneration), string(AreaSpeechToText), string(AreaTextToSpeech):
			return parseConfigSetting(scope, ConfigArea(sub), subArgs)
		}
		return errorVariant(fmt.Sprintf("unknown config sub-command %q", sub))
	}
	return errorVariant(fmt.Sprintf("unknown config sub-command %q", verb))
}

func parseConfigSetting(scope ConfigScope, area ConfigArea, args string) Variant {
	token, value := cutWord(args)

	var action ConfigAction
	var setting string
	switch {
	case strings.HasPrefix(token, "get-"):
		action, setting = ActionGet, strings.TrimPrefix(token, "get-")
	case strings.HasPrefix(token, "set-"):
		action, setting = ActionSet, strings.TrimPrefix(token, "set-")
	case strings.HasPrefix(token, "unset-"):
		action, setting = ActionUnset, strings.TrimPrefix(token, "unset-")
	default:
		return errorVariant(fmt.Sprintf("usage: config %s %s (get|set|unset)-<setting> [value]", scope, area))
	}

	if !settingKnown(area, setting) {
		return errorVariant(fmt.Sprintf("unknown %s setting %q", area, setting))
	}
	if action == ActionSet && value == "" {
		return errorVariant(fmt.Sprintf("usage: config %s %s set-%s <value>", scope, area, setting))
	}
	if action != ActionSet && value != "" {
		return errorVariant(fmt.Sprintf("usage: config %s %s %s-%s", scope, area, action, setting))
	}
	return Variant{Kind: KindConfig, Config: &ConfigCommand{
		Kind:    ConfigSetting,
		Scope:   scope,
		Area:    area,
		Setting: setting,
		Action:  action,
		Value:   value,
	}}
}

func settingKnown(area ConfigArea, setting string) bool {
	for _, s := range settingsByArea[area] {
		if s == setting {
			return true
		}
	}
	return false
}

// cutWord splits off the first whitespace-delimited word, returning it and
// the trimmed remainder.
func cutWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", ""
	}
	if i := strings.IndexFunc(s, unicode.IsSpace); i >= 0 {
		return s[:i], strings.TrimSpace(s[i+1:])
	}
	return s, ""
}
