package config_test

import (
	"testing"

	"github.com/etkecc/baibot/internal/baibot/config"
)

func TestCheckerPredicates(t *testing.T) {
	checker, err := config.NewChecker([]string{"@admin:example.com"})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	global := &config.GlobalConfig{
		Access: config.Access{
			UserPatterns:                  []string{"@*:trusted.org"},
			RoomLocalAgentManagerPatterns: []string{"@manager:example.com"},
		},
	}

	if !checker.SenderIsAdmin("@admin:example.com") {
		t.Error("admin must match")
	}
	if checker.SenderIsAdmin("@user:trusted.org") {
		t.Error("non-admin must not match admin patterns")
	}

	if ok, err := checker.SenderIsAllowedUser("@user:trusted.org", global); err != nil || !ok {
		t.Errorf("allowed user check = %v, %v", ok, err)
	}
	if ok, _ := checker.SenderIsAllowedUser("@admin:example.com", global); ok {
		t.Error("admin is not implicitly an allowed user")
	}

	if ok, err := checker.SenderCanUseBot("@admin:example.com", global); err != nil || !ok {
		t.Errorf("admin must be able to use the bot: %v, %v", ok, err)
	}
	if ok, _ := checker.SenderCanUseBot("@stranger:elsewhere.net", global); ok {
		t.Error("stranger must not be able to use the bot")
	}

	if ok, err := checker.SenderCanManageRoomLocalAgents("@manager:example.com", global); err != nil || !ok {
		t.Errorf("manager must manage room-local agents: %v, %v", ok, err)
	}
	if ok, _ := checker.SenderCanManageRoomLocalAgents("@user:trusted.org", global); ok {
		t.Error("plain allowed user must not manage room-local agents")
	}
	// Admins manage room-local agents without appearing in the manager list.
	if ok, err := checker.SenderCanManageRoomLocalAgents("@admin:example.com", global); err != nil || !ok {
		t.Errorf("admin must manage room-local agents: %v, %v", ok, err)
	}

	if !checker.SenderCanManageGlobalConfig("@admin:example.com") {
		t.Error("admin must manage the global config")
	}
	if checker.SenderCanManageGlobalConfig("@manager:example.com") {
		t.Error("manager must not manage the global config")
	}
}

func TestCheckerBadPatternsAreFatal(t *testing.T) {
	if _, err := config.NewChecker([]string{"not-an-mxid"}); err == nil {
		t.Error("invalid admin patterns must fail construction")
	}
}

func TestAllowedSenderPatterns(t *testing.T) {
	checker, err := config.NewChecker([]string{"@admin:example.com"})
	if err != nil {
		t.Fatalf("NewChecker: %v", err)
	}
	global := &config.GlobalConfig{
		Access: config.Access{UserPatterns: []string{"@*:trusted.org"}},
	}
	patterns, err := checker.AllowedSenderPatterns(global)
	if err != nil {
		t.Fatalf("AllowedSenderPatterns: %v", err)
	}
	if len(patterns) != 2 {
		t.Errorf("got %d patterns, want 2", len(patterns))
	}
}
