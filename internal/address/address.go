// Package address extracts city and state from free-text US addresses.
package address

import "strings"

// stateAbbreviations is the fixed set of 50 US state postal codes.
var stateAbbreviations = map[string]struct{}{
	"AL": {}, "AK": {}, "AZ": {}, "AR": {}, "CA": {}, "CO": {}, "CT": {}, "DE": {}, "FL": {}, "GA": {},
	"HI": {}, "ID": {}, "IL": {}, "IN": {}, "IA": {}, "KS": {}, "KY": {}, "LA": {}, "ME": {}, "MD": {},
	"MA": {}, "MI": {}, "MN": {}, "MS": {}, "MO": {}, "MT": {}, "NE": {}, "NV": {}, "NH": {}, "NJ": {},
	"NM": {}, "NY": {}, "NC": {}, "ND": {}, "OH": {}, "OK": {}, "OR": {}, "PA": {}, "RI": {}, "SC": {},
	"SD": {}, "TN": {}, "TX": {}, "UT": {}, "VT": {}, "VA": {}, "WA": {}, "WV": {}, "WI": {}, "WY": {},
}

// Parse extracts (city, state) from a free-text address. The address must
// contain at least two comma-separated segments, with the last segment
// starting with a valid state abbreviation ("City, ST 12345"). Malformed
// input yields (nil, nil); parsing never fails with an error.
func Parse(addr string) (city *string, state *string) {
	if strings.TrimSpace(addr) == "" {
		return nil, nil
	}

	parts := strings.Split(addr, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) < 2 {
		return nil, nil
	}

	// The last segment should carry state and zip; the one before it, the city.
	tokens := strings.Fields(parts[len(parts)-1])
	if len(tokens) == 0 {
		return nil, nil
	}
	st := strings.ToUpper(tokens[0])
	if _, ok := stateAbbreviations[st]; !ok {
		return nil, nil
	}
	ct := parts[len(parts)-2]
	return &ct, &st
}
