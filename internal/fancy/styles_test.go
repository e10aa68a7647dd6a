package fancy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStyledTextKeepsContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		render func(string) string
	}{
		{"label", Label},
		{"host error", HostErrorText},
		{"script error", ScriptErrorText},
		{"info", InfoText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, tt.render("local:"), "local:")
		})
	}
}
