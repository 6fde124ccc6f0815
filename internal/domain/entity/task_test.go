package entity

import (
	"strings"
	"testing"
)

func TestValidTaskID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"uuid", "9b2f4c1e-4d6a-4f1b-8a3c-2e5d7f901234", true},
		{"plain", "task_01", true},
		{"empty", "", false},
		{"dot dot", "..", false},
		{"relative escape", "../../etc", false},
		{"slash", "a/b", false},
		{"backslash", `a\b`, false},
		{"hidden dot", ".git", false},
		{"too long", strings.Repeat("a", 65), false},
		{"max length", strings.Repeat("a", 64), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidTaskID(tt.id); got != tt.want {
				t.Fatalf("ValidTaskID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}
