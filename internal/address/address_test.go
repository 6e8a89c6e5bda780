// Package address includes tests for the city/state parser.
package address

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		wantCity string
		wantOK   bool
		wantSt   string
	}{
		{
			name:     "full street address",
			input:    "123 Main St, Springfield, IL 62701",
			wantCity: "Springfield",
			wantSt:   "IL",
			wantOK:   true,
		},
		{
			name:     "city and state only",
			input:    "Austin, TX 78701",
			wantCity: "Austin",
			wantSt:   "TX",
			wantOK:   true,
		},
		{
			name:     "lowercase state",
			input:    "Portland, or 97201",
			wantCity: "Portland",
			wantSt:   "OR",
			wantOK:   true,
		},
		{
			name:     "state without zip",
			input:    "Denver, CO",
			wantCity: "Denver",
			wantSt:   "CO",
			wantOK:   true,
		},
		{
			name:   "no comma",
			input:  "123 Main St",
			wantOK: false,
		},
		{
			name:   "invalid abbreviation",
			input:  "Somewhere, XX 00000",
			wantOK: false,
		},
		{
			name:   "empty input",
			input:  "",
			wantOK: false,
		},
		{
			name:   "blank last segment",
			input:  "Springfield, ",
			wantOK: false,
		},
		{
			name:   "zip before state",
			input:  "Springfield, 62701 IL",
			wantOK: false,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			city, state := Parse(tc.input)
			if !tc.wantOK {
				require.Nil(t, city)
				require.Nil(t, state)
				return
			}
			require.NotNil(t, city)
			require.NotNil(t, state)
			require.Equal(t, tc.wantCity, *city)
			require.Equal(t, tc.wantSt, *state)
		})
	}
}
