// Package registry builds adapter-backed agent instances from definitions
// and resolves the agent serving a purpose through the layered handler
// maps.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/etkecc/baibot/internal/baibot/adapter"
	"github.com/etkecc/baibot/internal/baibot/adapter/anthropic"
	"github.com/etkecc/baibot/internal/baibot/adapter/compat"
	"github.com/etkecc/baibot/internal/baibot/adapter/openai"
	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
)

// Instance is a live agent: its scoped identifier, the definition it came
// from, and the bound adapter controller.
type Instance struct {
	ID         agent.PublicIdentifier
	Definition agent.Definition
	Controller adapter.Controller
}

// NewController builds the adapter for a provider family from a validated
// configuration.
func NewController(provider agent.Provider, cfg *adapter.Config) (adapter.Controller, error) {
	switch provider.Family() {
	case agent.FamilyStrict:
		return openai.New(cfg)
	case agent.FamilyPermissive:
		return compat.New(cfg)
	case agent.FamilyAnthropic:
		return anthropic.New(cfg)
	}
	return nil, fmt.Errorf("registry: provider %s has no adapter family", provider)
}

// Instantiate validates a definition against its provider schema and binds
// the adapter.
func Instantiate(kind agent.IdentifierKind, def agent.Definition) (Instance, error) {
	if err := def.Validate(); err != nil {
		return Instance{}, err
	}
	cfg, err := adapter.ParseConfig(def)
	if err != nil {
		return Instance{}, fmt.Errorf("agent %s: %w", def.ID, err)
	}
	ctrl, err := NewController(def.Provider, cfg)
	if err != nil {
		return Instance{}, fmt.Errorf("agent %s: construction failed: %w", def.ID, err)
	}
	return Instance{
		ID:         agent.PublicIdentifier{Kind: kind, Name: def.ID},
		Definition: def,
		Controller: ctrl,
	}, nil
}

// Registry holds the static agents and assembles the per-request instance
// set from dynamic definitions.
type Registry struct {
	static []Instance
}

// New instantiates the static agent definitions. Any failure is fatal.
func New(defs []agent.Definition) (*Registry, error) {
	static := make([]Instance, 0, len(defs))
	for _, def := range defs {
		inst, err := Instantiate(agent.KindStatic, def)
		if err != nil {
			return nil, fmt.Errorf("registry: static %w", err)
		}
		static = append(static, inst)
	}
	return &Registry{static: static}, nil
}

// Static returns the static instances.
func (r *Registry) Static() []Instance {
	return r.static
}

// Instances returns the union of static agents and the dynamic agents
// defined in the given configs. Dynamic instantiation failures are logged
// and skipped, never fatal.
func (r *Registry) Instances(room *config.RoomConfig, global *config.GlobalConfig) []Instance {
	out := make([]Instance, 0, len(r.static))
	out = append(out, r.static...)
	if global != nil {
		out = append(out, instantiateAll(agent.KindGlobal, global.Agents)...)
	}
	if room != nil {
		out = append(out, instantiateAll(agent.KindRoomLocal, room.Agents)...)
	}
	return out
}

func instantiateAll(kind agent.IdentifierKind, defs []agent.Definition) []Instance {
	out := make([]Instance, 0, len(defs))
	for _, def := range defs {
		inst, err := Instantiate(kind, def)
		if err != nil {
			slog.Warn("skipping dynamic agent", "agent", def.ID, "error", err)
			continue
		}
		out = append(out, inst)
	}
	return out
}

// Find returns the instance with the given identifier, if present.
func Find(instances []Instance, id agent.PublicIdentifier) (Instance, bool) {
	for _, inst := range instances {
		if inst.ID == id {
			return inst, true
		}
	}
	return Instance{}, false
}
