package flags

import (
	"fmt"
	"strings"

	"github.com/Synternet/terraswap-core/internal/terraswap"
)

// Endpoints parses `name=grpc|tendermint|factory` entries separated by commas.
// The tendermint part may be empty.
type Endpoints struct {
	Value *[]terraswap.Endpoint
}

func NewEndpoints(endpoints string) (*Endpoints, error) {
	parsed, err := parseEndpoints(endpoints)
	if err != nil {
		return nil, err
	}
	return &Endpoints{Value: &parsed}, nil
}

func (e *Endpoints) Set(endpoints string) error {
	parsed, err := parseEndpoints(endpoints)
	if err != nil {
		return err
	}
	*e.Value = append(*e.Value, parsed...)
	return nil
}

func (e *Endpoints) String() string {
	out := make([]string, len(*e.Value))
	for i, ep := range *e.Value {
		out[i] = fmt.Sprintf("%s=%s|%s|%s", ep.Name, ep.GRPC, ep.Tendermint, ep.Factory)
	}
	return "[" + strings.Join(out, ",") + "]"
}

func (e Endpoints) Type() string {
	return "endpoints"
}

func parseEndpoints(endpoints string) ([]terraswap.Endpoint, error) {
	entries := splitAndTrimEmpty(endpoints, ",", " \t\r\n\b")
	out := make([]terraswap.Endpoint, 0, len(entries))

	for _, entry := range entries {
		name, rest, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("endpoint %q: expected name=grpc|tendermint|factory", entry)
		}
		parts := strings.Split(rest, "|")
		if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
			return nil, fmt.Errorf("endpoint %q: expected name=grpc|tendermint|factory", entry)
		}
		out = append(out, terraswap.Endpoint{
			Name:       strings.TrimSpace(name),
			GRPC:       strings.TrimSpace(parts[0]),
			Tendermint: strings.TrimSpace(parts[1]),
			Factory:    strings.TrimSpace(parts[2]),
		})
	}

	return out, nil
}
