package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseToggle(t *testing.T) {
	tests := []struct {
		in      string
		want    bool
		wantErr bool
	}{
		{"y", true, false},
		{"Y", true, false},
		{"yes", true, false},
		{"n", false, false},
		{" N ", false, false},
		{"no", false, false},
		{"maybe", false, true},
		{"", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseToggle(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRate(t *testing.T) {
	rate, err := ParseRate("83.25")
	require.NoError(t, err)
	assert.Equal(t, 83.25, rate)

	for _, bad := range []string{"abc", "0", "-5", ""} {
		_, err := ParseRate(bad)
		assert.Error(t, err, bad)
	}
}

func TestValidateID(t *testing.T) {
	assert.NoError(t, ValidateID("project id", "2171234000000123"))
	assert.Error(t, ValidateID("project id", ""))
	assert.Error(t, ValidateID("project id", "   "))
	assert.Error(t, ValidateID("project id", "../contacts"))
	assert.Error(t, ValidateID("project id", "12\n3"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "abc", SanitizeString("a\x00b\x1fc"))
}
