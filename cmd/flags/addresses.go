package flags

import (
	"strings"
)

// Addresses is a comma separated list of asset addresses.
type Addresses struct {
	Value *[]string
}

func NewAddresses(addresses string) *Addresses {
	addressSlice := splitAndTrimEmpty(addresses, ",", " \t\r\n\b")

	return &Addresses{Value: &addressSlice}
}

func (a *Addresses) Set(addresses string) error {
	if addresses == "" {
		*a.Value = make([]string, 0)
	} else {
		*a.Value = append(*a.Value, splitAndTrimEmpty(addresses, ",", " \t\r\n\b")...)
	}

	return nil
}

func (a *Addresses) String() string {
	return "[" + strings.Join(*a.Value, ",") + "]"
}

func (a Addresses) Type() string {
	return "stringSlice"
}

// splitAndTrimEmpty slices s into all subslices separated by sep and returns a
// slice of the string s with all leading and trailing Unicode code points
// contained in cutset removed. Empty strings are filtered out.
func splitAndTrimEmpty(s, sep, cutset string) []string {
	if s == "" {
		return []string{}
	}

	spl := strings.Split(s, sep)
	nonEmptyStrings := make([]string, 0, len(spl))

	for i := 0; i < len(spl); i++ {
		element := strings.Trim(spl[i], cutset)
		if element != "" {
			nonEmptyStrings = append(nonEmptyStrings, element)
		}
	}

	return nonEmptyStrings
}
