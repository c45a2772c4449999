package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewUsername(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{"empty", "", false},
		{"only whitespace", "   ", false},
		{"contains space", "john doe", false},
		{"leading whitespace", " jdoe", false},
		{"trailing whitespace", "jdoe ", false},
		{"padded both sides", "  jdoe  ", false},
		{"contains at sign", "john@doe", false},
		{"contains dot", "john.doe", false},
		{"simple", "jdoe", true},
		{"underscore and dash with digits", "john_doe-99", true},
		{"uppercase", "JDoe", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u, err := NewUsername(tt.input)
			if !tt.valid {
				require.ErrorIs(t, err, ErrInvalidUsername)
				return
			}
			require.NoError(t, err)
			require.NotEmpty(t, u.String())
		})
	}
}
