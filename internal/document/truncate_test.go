package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 100) + strings.Repeat("m", 50) + strings.Repeat("z", 100)

	tests := []struct {
		name   string
		text   string
		budget int
		want   string
	}{
		{
			name:   "shorter than budget",
			text:   "short text",
			budget: 20,
			want:   "short text",
		},
		{
			name:   "exactly budget",
			text:   "0123456789",
			budget: 10,
			want:   "0123456789",
		},
		{
			name:   "over budget keeps head and tail",
			text:   long,
			budget: 200,
			want:   strings.Repeat("a", 100) + TruncationMarker + strings.Repeat("z", 100),
		},
		{
			name:   "odd budget uses floor of half",
			text:   "abcdefghij",
			budget: 5,
			want:   "ab" + TruncationMarker + "ij",
		},
		{
			name:   "counts characters not bytes",
			text:   "äöüäöüäöü",
			budget: 4,
			want:   "äö" + TruncationMarker + "öü",
		},
		{
			name:   "zero budget disables truncation",
			text:   long,
			budget: 0,
			want:   long,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.text, tt.budget))
		})
	}
}

func TestTruncate_DefaultBudget(t *testing.T) {
	text := strings.Repeat("x", DefaultMaxChars+1)
	got := Truncate(text, DefaultMaxChars)

	assert.True(t, strings.HasPrefix(got, strings.Repeat("x", DefaultMaxChars/2)+TruncationMarker))
	assert.Equal(t, DefaultMaxChars+len(TruncationMarker), len(got))
}
