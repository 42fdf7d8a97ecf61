// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package identifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractDOI(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"resolver url", "https://doi.org/10.1234/abc.5", "10.1234/abc.5"},
		{"bare doi", "10.1145/1234567.1234568", "10.1145/1234567.1234568"},
		{"doi label", "doi:10.1038/nature12373", "10.1038/nature12373"},
		{"percent encoded", "https://example.org/view?doi=10.1000%2Fxyz123", "10.1000/xyz123"},
		{"stray percent", "https://example.org/view?doi=10.1000%2Fxyz123&share=100%", "10.1000/xyz123"},
		{"wiley path", "https://onlinelibrary.wiley.com/doi/10.1002/anie.201915678", "10.1002/anie.201915678"},
		{"subdivided registrant", "https://doi.org/10.1000.10/abc", "10.1000.10/abc"},
		{"not a doi", "not a doi", ""},
		{"short registrant", "10.12/abc", ""},
		{"empty", "", ""},
		{"whitespace", "   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractDOI(tt.input))
		})
	}
}

func TestUnquote(t *testing.T) {
	assert.Equal(t, "a+b/c", unquote("a+b%2Fc"))
	assert.Equal(t, "100% caf\u00e9", unquote("100% caf%C3%A9"))
	assert.Equal(t, "plain", unquote("plain"))
}

func TestIsValidDOI(t *testing.T) {
	assert.True(t, IsValidDOI("10.1234/abc.5"))
	assert.False(t, IsValidDOI("https://doi.org/10.1234/abc.5"))
	assert.False(t, IsValidDOI("10.1234/abc def"))
	assert.False(t, IsValidDOI(""))
}

func TestNormalizeWorkID(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"W2741809807", "W2741809807", true},
		{"w2741809807", "W2741809807", true},
		{"https://openalex.org/W2741809807", "W2741809807", true},
		{"https://api.openalex.org/works/W2741809807", "W2741809807", true},
		{"A5023888391", "", false},
		{"10.1234/abc", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := NormalizeWorkID(tt.input)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		input    string
		wantType Type
		wantNorm string
	}{
		{"W123", TypeWorkID, "W123"},
		{"https://doi.org/10.1234/abc", TypeDOI, "10.1234/abc"},
		{"https://example.org/paper", TypeURL, "https://example.org/paper"},
		{"hello", TypeUnknown, "hello"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			gotType, gotNorm := Classify(tt.input)
			assert.Equal(t, tt.wantType, gotType)
			assert.Equal(t, tt.wantNorm, gotNorm)
			assert.NotEmpty(t, gotType.String())
		})
	}
}
