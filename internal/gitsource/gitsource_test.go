package gitsource

import (
	"path/filepath"
	"testing"
)

func TestLocalPath(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		expected  string
		expectErr bool
	}{
		{
			name:     "https url",
			url:      "https://github.com/ricmarquesart/Quiz.git",
			expected: filepath.Join("repos", "github.com", "ricmarquesart", "Quiz"),
		},
		{
			name:     "https url without suffix",
			url:      "https://gitlab.com/team/words",
			expected: filepath.Join("repos", "gitlab.com", "team", "words"),
		},
		{
			name:     "scp-like ssh url",
			url:      "git@github.com:owner/content.git",
			expected: filepath.Join("repos", "github.com", "owner", "content"),
		},
		{
			name:      "not a repository url",
			url:       "/some/local/dir",
			expectErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := LocalPath("repos", tc.url)
			if tc.expectErr {
				if err == nil {
					t.Fatalf("Expected an error for %s, but got path %s", tc.url, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("LocalPath() returned an unexpected error: %v", err)
			}
			if got != tc.expected {
				t.Errorf("Expected path '%s', but got '%s'", tc.expected, got)
			}
		})
	}
}
