// Package agent defines the identifier, purpose, and provider primitives
// shared by the registry, the configuration stack, and the adapters.
package agent

import (
	"fmt"
	"strings"
)

// IdentifierKind is the scope tag of a public agent identifier.
type IdentifierKind string

const (
	// KindStatic marks agents defined in the bootstrap configuration file.
	KindStatic IdentifierKind = "static"
	// KindGlobal marks agents stored in the bot's global account data.
	KindGlobal IdentifierKind = "global"
	// KindRoomLocal marks agents stored in a single room's account data.
	KindRoomLocal IdentifierKind = "room-local"
)

// PublicIdentifier names an agent together with its scope.
// Rendered as "<kind>/<name>", e.g. "static/gpt" or "room-local/mine".
type PublicIdentifier struct {
	Kind IdentifierKind
	Name string
}

// ErrInvalidIdentifier is wrapped by all ParseIdentifier failures.
var ErrInvalidIdentifier = fmt.Errorf("invalid agent identifier")

// ParseIdentifier parses "<kind>/<name>" into a PublicIdentifier.
// Exactly the three known kind prefixes are accepted; the name must be
// non-empty and contain neither "/" nor space.
func ParseIdentifier(s string) (PublicIdentifier, error) {
	kind, name, found := strings.Cut(s, "/")
	if !found {
		return PublicIdentifier{}, fmt.Errorf("%w: %q has no scope prefix", ErrInvalidIdentifier, s)
	}
	switch IdentifierKind(kind) {
	case KindStatic, KindGlobal, KindRoomLocal:
	default:
		return PublicIdentifier{}, fmt.Errorf("%w: unknown scope %q", ErrInvalidIdentifier, kind)
	}
	if err := ValidateName(name); err != nil {
		return PublicIdentifier{}, fmt.Errorf("%w: %v", ErrInvalidIdentifier, err)
	}
	return PublicIdentifier{Kind: IdentifierKind(kind), Name: name}, nil
}

// ValidateName checks an agent name independently of its scope.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("agent name must not be empty")
	}
	if strings.ContainsAny(name, "/ ") {
		return fmt.Errorf("agent name %q must not contain slashes or spaces", name)
	}
	return nil
}

// String renders the identifier in its parseable form.
// It is the lossless inverse of ParseIdentifier.
func (pi PublicIdentifier) String() string {
	return string(pi.Kind) + "/" + pi.Name
}

// IsRoomLocal reports whether the identifier names a room-scoped agent.
// Room-local identifiers may only be referenced from the room that owns them.
func (pi PublicIdentifier) IsRoomLocal() bool {
	return pi.Kind == KindRoomLocal
}
