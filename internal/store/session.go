package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// Session describes one recorded engine instance.
type Session struct {
	ID        string    `json:"id"`
	Board     string    `json:"board"`
	Labels    []string  `json:"labels"`
	Signals   int       `json:"signals"`
	Seed      *uint64   `json:"seed,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	// Entries is filled in by ListSessions.
	Entries int `json:"entries"`
}

func marshalLabels(labels []string) (string, error) {
	if labels == nil {
		labels = []string{}
	}
	data, err := json.Marshal(labels)
	if err != nil {
		return "", fmt.Errorf("marshal labels: %w", err)
	}
	return string(data), nil
}

func unmarshalLabels(s string) ([]string, error) {
	var labels []string
	if err := json.Unmarshal([]byte(s), &labels); err != nil {
		return nil, fmt.Errorf("unmarshal labels: %w", err)
	}
	if labels == nil {
		labels = []string{}
	}
	return labels, nil
}
