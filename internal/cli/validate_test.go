package cli

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCommand_Valid(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "tag:<urn:tag:work>")
	require.NoError(t, err)
	assert.Equal(t, "✓ Query valid: "+hasTagTerm+"\n", out)
}

func TestValidateCommand_Invalid(t *testing.T) {
	out, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), "nosuchfield:foo")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Query invalid: <invalid>")
	assert.Contains(t, out, "  - term: invalid term")
	assert.Contains(t, out, "Error [E101]: query has 1 error(s)")
}

func TestValidateCommand_JSON(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantValid bool
		wantErrs  int
	}{
		{"valid", "hello", true, 0},
		{"invalid", "nosuchfield:foo", false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), tt.input)
			if tt.wantValid {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}

			var resp struct {
				Status string           `json:"status"`
				Data   ValidationOutput `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			assert.Equal(t, tt.wantValid, resp.Data.Valid)
			assert.Len(t, resp.Data.Errors, tt.wantErrs)
			assert.NotNil(t, resp.Data.Warnings)
		})
	}
}
