package terraswap

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Synternet/terraswap-core/pkg/types"
)

func (s *Service) NewNonce() string {
	return fmt.Sprint(s.counter.Add(1))
}

// Subject builds `{prefix}.{name}.{suffix...}`.
func (s *Service) Subject(suffix ...string) string {
	parts := make([]string, 0, len(suffix)+2)
	for _, part := range append([]string{s.Prefix, s.Name}, suffix...) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, ".")
}

// Publish sends msg as JSON. It is a no-op without a NATS connection.
func (s *Service) Publish(msg any, suffix ...string) error {
	if s.Nats == nil {
		return nil
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed encoding message: %w", err)
	}
	if err := s.Nats.Publish(s.Subject(suffix...), payload); err != nil {
		return err
	}
	s.publishedMessages.Add(1)
	s.messagesCounter.Add(1)
	return nil
}

func (s *Service) publishPairs(net string, pairs []types.Pair) {
	if len(pairs) == 0 {
		return
	}
	err := s.Publish(
		&PairsMessage{
			Nonce:   s.NewNonce(),
			Network: net,
			Pairs:   pairs,
		},
		"pairs",
	)
	if err != nil {
		s.errCounter.Add(1)
		s.Logger.Warn("Publish pairs failed", "network", net, "err", err)
	}
}
