package http

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pagelens/internal/events"
)

func TestDisplayNames(t *testing.T) {
	tests := []struct {
		name     string
		input    []events.CountryCount
		expected []CountryStat
	}{
		{
			name: "resolves ISO codes",
			input: []events.CountryCount{
				{Country: "de", Sessions: 12},
				{Country: "us", Sessions: 7},
			},
			expected: []CountryStat{
				{Country: "Germany", Sessions: 12},
				{Country: "United States", Sessions: 7},
			},
		},
		{
			name:     "unknown sentinel",
			input:    []events.CountryCount{{Country: "unknown", Sessions: 3}},
			expected: []CountryStat{{Country: "Unknown", Sessions: 3}},
		},
		{
			name:     "unresolvable code upper-cased",
			input:    []events.CountryCount{{Country: "zz", Sessions: 1}},
			expected: []CountryStat{{Country: "ZZ", Sessions: 1}},
		},
		{
			name:     "empty input",
			input:    []events.CountryCount{},
			expected: []CountryStat{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, displayNames(tt.input))
		})
	}
}
