package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateLibraryID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr bool
	}{
		{name: "simple", id: "react"},
		{name: "mixed case", id: "reactDOM"},
		{name: "scoped-ish", id: "mui.core_v5-beta"},
		{name: "empty", id: "", wantErr: true},
		{name: "slash", id: "../etc", wantErr: true},
		{name: "space", id: "my lib", wantErr: true},
		{name: "too long", id: strings.Repeat("a", MaxLibraryIDLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateLibraryID(tt.id)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateRequires(t *testing.T) {
	assert.NoError(t, ValidateRequires(nil))
	assert.NoError(t, ValidateRequires([]string{"react", "reactDOM"}))
	assert.Error(t, ValidateRequires([]string{"react", "<script>"}))
	assert.Error(t, ValidateRequires(make([]string, MaxRequires+1)))
}

func TestValidateScript(t *testing.T) {
	assert.NoError(t, ValidateScript("1 + 1"))
	assert.Error(t, ValidateScript("   "))
	assert.Error(t, ValidateScript(strings.Repeat("x", MaxScriptSize+1)))
}

func TestDigest(t *testing.T) {
	assert.Equal(t, "sha256-47DEQpj8HBSa+/TImW+5JCeuQeRkm5NMpJWZG3hSuFU=", Digest(nil))
	assert.NotEqual(t, Digest([]byte("a")), Digest([]byte("b")))
}
