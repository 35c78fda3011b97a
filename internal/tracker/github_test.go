package tracker

import (
	"testing"
	"time"
)

func TestNewGitHub_Validation(t *testing.T) {
	if _, err := NewGitHub("", "o", "r", time.Second); err == nil {
		t.Error("expected error for missing token")
	}
	if _, err := NewGitHub("tok", "", "r", time.Second); err == nil {
		t.Error("expected error for missing owner")
	}
	if _, err := NewGitHub("tok", "o", "", time.Second); err == nil {
		t.Error("expected error for missing repo")
	}

	g, err := NewGitHub("tok", "o", "r", 0)
	if err != nil {
		t.Fatalf("NewGitHub: %v", err)
	}
	if g.timeout != 30*time.Second {
		t.Errorf("zero timeout not defaulted: %v", g.timeout)
	}
}

func TestIssueURLPattern(t *testing.T) {
	m := issueURL.FindStringSubmatch("https://github.com/zulandar/waybill/issues/42")
	if m == nil {
		t.Fatal("issue URL not matched")
	}
	if m[1] != "zulandar" || m[2] != "waybill" || m[3] != "42" {
		t.Errorf("captures = %v", m[1:])
	}

	if issueURL.MatchString("https://github.com/zulandar/waybill/pull/42") {
		t.Error("pull request URL matched as issue")
	}
}
