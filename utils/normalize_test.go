package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeNumberFr(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   float64
		wantOK bool
	}{
		{"comma decimal", "45,18", 45.18, true},
		{"period decimal", "2.35", 2.35, true},
		{"negative", "-1,5", -1.5, true},
		{"integer", "48", 48, true},
		{"surrounding spaces", "  5,25 ", 5.25, true},
		{"empty", "", 0, false},
		{"blank", "   ", 0, false},
		{"letters", "abc", 0, false},
		{"second comma kept", "1,234,5", 0, false},
		{"infinity", "Inf", 0, false},
		{"nan", "NaN", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NormalizeNumberFr(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, got, 1e-9)
			}
		})
	}
}

func TestNormalizeID(t *testing.T) {
	assert.Equal(t, "EMP-01", NormalizeID("  EMP-01\t"))
	assert.Equal(t, "", NormalizeID("   "))
	assert.Equal(t, "", NormalizeID(""))
}
