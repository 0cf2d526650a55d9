package version

import (
	"strings"
	"testing"
)

func TestInfo(t *testing.T) {
	info := Info()

	if !strings.Contains(info, "gemchat version") {
		t.Errorf("Info should contain 'gemchat version', got: %s", info)
	}
	if !strings.Contains(info, "commit:") {
		t.Errorf("Info should contain 'commit:', got: %s", info)
	}
	if !strings.Contains(info, "built:") {
		t.Errorf("Info should contain 'built:', got: %s", info)
	}
	if !strings.Contains(info, "go:") {
		t.Errorf("Info should contain 'go:', got: %s", info)
	}
}

func TestSummary(t *testing.T) {
	if Summary() == "" {
		t.Error("Summary should not be empty")
	}
}

func TestPlatform(t *testing.T) {
	if !strings.Contains(Platform(), "/") {
		t.Errorf("Platform should be os/arch, got: %s", Platform())
	}
}
