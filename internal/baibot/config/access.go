package config

import (
	"regexp"

	"github.com/etkecc/baibot/common/mxidwc"
)

// Checker answers the permission questions derived from the configuration
// stack. Admin patterns come from bootstrap and are compiled once; the
// global access lists are compiled per check because they are mutable at
// runtime.
type Checker struct {
	adminPatterns []*regexp.Regexp
}

// NewChecker compiles the bootstrap admin patterns. Invalid patterns are a
// startup error.
func NewChecker(adminPatterns []string) (*Checker, error) {
	compiled, err := mxidwc.ParseAll(adminPatterns)
	if err != nil {
		return nil, err
	}
	return &Checker{adminPatterns: compiled}, nil
}

// SenderIsAdmin reports whether the sender matches the bootstrap admin
// patterns.
func (c *Checker) SenderIsAdmin(userID string) bool {
	return mxidwc.Match(userID, c.adminPatterns)
}

// SenderIsAllowedUser reports whether the sender matches the global allowed
// user patterns. Admins are not implicitly allowed here; callers combine
// the predicates as the operation requires.
func (c *Checker) SenderIsAllowedUser(userID string, global *GlobalConfig) (bool, error) {
	if global == nil {
		return false, nil
	}
	patterns, err := mxidwc.ParseAll(global.Access.UserPatterns)
	if err != nil {
		return false, err
	}
	return mxidwc.Match(userID, patterns), nil
}

// SenderCanUseBot reports whether the sender is an admin or an allowed
// user.
func (c *Checker) SenderCanUseBot(userID string, global *GlobalConfig) (bool, error) {
	if c.SenderIsAdmin(userID) {
		return true, nil
	}
	return c.SenderIsAllowedUser(userID, global)
}

// SenderCanManageRoomLocalAgents reports whether the sender is an admin or
// matches the room-local agent manager patterns.
func (c *Checker) SenderCanManageRoomLocalAgents(userID string, global *GlobalConfig) (bool, error) {
	if c.SenderIsAdmin(userID) {
		return true, nil
	}
	if global == nil {
		return false, nil
	}
	patterns, err := mxidwc.ParseAll(global.Access.RoomLocalAgentManagerPatterns)
	if err != nil {
		return false, err
	}
	return mxidwc.Match(userID, patterns), nil
}

// SenderCanManageGlobalConfig reports whether the sender may change global
// configuration. Only admins may.
func (c *Checker) SenderCanManageGlobalConfig(userID string) bool {
	return c.SenderIsAdmin(userID)
}

// AllowedSenderPatterns compiles admin plus allowed-user patterns for
// conversation filtering.
func (c *Checker) AllowedSenderPatterns(global *GlobalConfig) ([]*regexp.Regexp, error) {
	out := make([]*regexp.Regexp, 0, len(c.adminPatterns))
	out = append(out, c.adminPatterns...)
	if global != nil {
		patterns, err := mxidwc.ParseAll(global.Access.UserPatterns)
		if err != nil {
			return nil, err
		}
		out = append(out, patterns...)
	}
	return out, nil
}
