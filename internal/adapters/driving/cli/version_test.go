package cli

import (
	"context"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionCmd(t *testing.T) {
	tests := []struct {
		name    string
		version string
	}{
		{"release build", "0.3.1"},
		{"development build", "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			original := version
			version = tt.version
			defer func() { version = original }()

			stdout, _, err := runCommand(t, context.Background(), "version")

			require.NoError(t, err)
			assert.Contains(t, stdout, "kurator "+tt.version+"\n")
			assert.Contains(t, stdout, runtime.Version())
		})
	}
}

func TestVersionCmd_NeedsNoServices(t *testing.T) {
	assert.Equal(t, "true", versionCmd.Annotations[annotationNoServices])
}
