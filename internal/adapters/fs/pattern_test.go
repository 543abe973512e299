package fs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/pinbuild/internal/adapters/fs"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"Cargo.toml", "Cargo.toml", true},
		{"Cargo.toml", "crates/x/Cargo.toml", false},
		{"src/**", "src/main.rs", true},
		{"src/**", "src/cli/args.rs", true},
		{"src/**", "srcs/main.rs", false},
		{"**/Cargo.toml", "Cargo.toml", true},
		{"**/Cargo.toml", "crates/x/Cargo.toml", true},
		{"src/*.rs", "src/main.rs", true},
		{"src/*.rs", "src/cli/args.rs", false},
		{"crates/**/*.rs", "crates/a/src/lib.rs", true},
		{"./src/**", "src/lib.rs", true},
		{"[", "[", false},
	}

	for _, tt := range tests {
		t.Run(tt.pattern+"|"+tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, fs.MatchPattern(tt.pattern, tt.path))
		})
	}
}

func TestSelected_Negation(t *testing.T) {
	patterns := []string{"src/**", "!src/generated/**", "src/generated/keep.rs"}

	assert.True(t, fs.Selected(patterns, "src/main.rs"))
	assert.False(t, fs.Selected(patterns, "src/generated/bindings.rs"))
	assert.True(t, fs.Selected(patterns, "src/generated/keep.rs"))
	assert.False(t, fs.Selected(patterns, "README.md"))
	assert.False(t, fs.Selected(nil, "src/main.rs"))
}
