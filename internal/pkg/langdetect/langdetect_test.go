package langdetect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	c := New()

	tests := []struct {
		path string
		want string
		ok   bool
	}{
		{"a.py", "Python", true},
		{"cmd/server/main.go", "Go", true},
		{"src/App.java", "Java", true},
		{"src/Program.cs", "C#", true},
		{"public/index.php", "PHP", true},
		{"web/src/App.tsx", "TypeScript", true},
		{"web/src/api.ts", "TypeScript", true},
		{"include/list.h", "C", true},
		{"ios/AppDelegate.m", "Objective-C", true},
		{"src/lib.rs", "Rust", true},
		{"Dockerfile", "Dockerfile", true},
		{"node_modules/lodash/index.js", "", false},
		{"vendor/github.com/pkg/errors/errors.go", "", false},
		{"", "", false},
		{"no_extension_file_xyz", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := c.Classify(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
