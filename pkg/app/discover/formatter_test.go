package discover

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func createTestResponse() *Response {
	return &Response{
		Files: []FileResult{
			{
				Path:        "/etc/hosts",
				Name:        "hosts",
				Size:        20,
				Modified:    time.Unix(1700000000, 0),
				Type:        "file",
				Inode:       12,
				Permissions: "-rw-r--r--",
			},
			{
				Path:        "/home",
				Name:        "home",
				Type:        "dir",
				Inode:       15,
				Permissions: "drwxr-xr-x",
			},
		},
		TotalFound: 3,
		Scanned:    9,
		SearchTime: 12 * time.Millisecond,
		VolumeInfo: VolumeInfo{Type: "ext4", Label: "testvol", UUID: "deadbeef-0001-4203-8405-060708090a0b"},
		Truncated:  true,
		SearchQuery: SearchQuery{
			Path:       "/",
			MaxResults: 2,
		},
	}
}

func TestFormatOutput(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantErr  bool
		validate func(*testing.T, string)
	}{
		{
			name:   "table format",
			format: "table",
			validate: func(t *testing.T, output string) {
				lines := strings.Split(output, "\n")
				assert.True(t, strings.HasPrefix(lines[0], "PATH"))
				assert.Contains(t, lines[2], "/etc/hosts")
				assert.Contains(t, lines[0], "CLASS")
				assert.Contains(t, lines[2], "2023-11-14 22:13")
				assert.Contains(t, lines[2], "tiny")
				assert.Contains(t, lines[3], "/home")
				assert.NotContains(t, lines[3], "tiny")
				assert.Contains(t, lines[3], "-")
				assert.Contains(t, output, "Volume: testvol (ext4, deadbeef-0001-4203-8405-060708090a0b)")
				assert.Contains(t, output, "Found 3 files (showing first 2) among 9 entries")
			},
		},
		{
			name:   "json format",
			format: "json",
			validate: func(t *testing.T, output string) {
				var decoded Response
				require.NoError(t, json.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, 3, decoded.TotalFound)
				assert.Len(t, decoded.Files, 2)
				assert.Equal(t, "/etc/hosts", decoded.Files[0].Path)
			},
		},
		{
			name:   "yaml format",
			format: "yaml",
			validate: func(t *testing.T, output string) {
				var decoded map[string]any
				require.NoError(t, yaml.Unmarshal([]byte(output), &decoded))
				assert.Equal(t, 3, decoded["total_found"])
				assert.Equal(t, true, decoded["truncated"])
			},
		},
		{
			name:    "unknown format",
			format:  "xml",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := FormatOutput(&buf, createTestResponse(), tt.format)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.validate(t, buf.String())
		})
	}
}

func TestFormatOutput_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatOutput(&buf, &Response{}, "table"))
	assert.Equal(t, "No files found matching the search criteria.\n", buf.String())
}

func TestFormatSummary(t *testing.T) {
	assert.Equal(t, "No files found", FormatSummary(&Response{}))

	resp := createTestResponse()
	summary := FormatSummary(resp)
	assert.True(t, strings.HasPrefix(summary, "Found 3 files (showing 2) totaling 20 B"))

	resp.TotalFound = 1
	resp.Truncated = false
	assert.True(t, strings.HasPrefix(FormatSummary(resp), "Found 1 file totaling"))
}
