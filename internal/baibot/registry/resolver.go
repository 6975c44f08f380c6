package registry

import (
	"errors"
	"fmt"

	"github.com/etkecc/baibot/internal/baibot/agent"
	"github.com/etkecc/baibot/internal/baibot/config"
)

// Source reports which configuration layer supplied the resolved handler.
type Source string

const (
	SourceRoom   Source = "room"
	SourceGlobal Source = "global"
)

// ErrNoneConfigured means no handler mapping exists in either scope.
var ErrNoneConfigured = errors.New("no agent is configured for this purpose")

// MissingAgentError means the handler points at an identifier that is not
// in the instance set.
type MissingAgentError struct {
	ID agent.PublicIdentifier
}

func (e *MissingAgentError) Error() string {
	return fmt.Sprintf("the configured agent %s does not exist", e.ID)
}

// LacksSupportError means the resolved agent does not serve the purpose.
type LacksSupportError struct {
	ID      agent.PublicIdentifier
	Purpose agent.Purpose
}

func (e *LacksSupportError) Error() string {
	return fmt.Sprintf("the configured agent %s does not support %s", e.ID, e.Purpose)
}

// Resolution is a successful agent lookup.
type Resolution struct {
	Instance Instance
	Source   Source
}

// Resolve finds the agent serving purpose p. The resolution order is: room
// handler for p, room catch-all, global handler for p, global catch-all.
// The first non-empty handler entry decides; later entries are not
// considered fallbacks for its errors.
func Resolve(instances []Instance, cfgCtx config.RoomConfigContext, p agent.Purpose) (*Resolution, error) {
	type step struct {
		handler *string
		source  Source
	}
	steps := []step{
		{cfgCtx.RoomHandler(p), SourceRoom},
		{cfgCtx.RoomHandler(agent.PurposeCatchAll), SourceRoom},
		{cfgCtx.GlobalHandler(p), SourceGlobal},
		{cfgCtx.GlobalHandler(agent.PurposeCatchAll), SourceGlobal},
	}

	for _, s := range steps {
		if s.handler == nil {
			continue
		}
		id, err := agent.ParseIdentifier(*s.handler)
		if err != nil {
			return nil, fmt.Errorf("handler %q: %w", *s.handler, err)
		}
		if s.source == SourceGlobal && id.IsRoomLocal() {
			return nil, fmt.Errorf("global handler %s points at a room-local agent", id)
		}
		inst, ok := Find(instances, id)
		if !ok {
			return nil, &MissingAgentError{ID: id}
		}
		if !inst.Controller.Supports(p) {
			return nil, &LacksSupportError{ID: id, Purpose: p}
		}
		return &Resolution{Instance: inst, Source: s.source}, nil
	}
	return nil, ErrNoneConfigured
}
