package avpr

import (
	"encoding/json"
	"sort"
)

// Document is a JSON protocol declaration
type Document struct {
	Protocol  string             `json:"protocol"`
	Namespace string             `json:"namespace,omitempty"`
	Doc       string             `json:"doc,omitempty"`
	Types     []json.RawMessage  `json:"types,omitempty"`
	Messages  map[string]Message `json:"messages,omitempty"`
}

// Message is one message of a protocol. Request lists the parameters as
// record fields.
type Message struct {
	Doc      string            `json:"doc,omitempty"`
	Request  []json.RawMessage `json:"request"`
	Response json.RawMessage   `json:"response"`
	Errors   []json.RawMessage `json:"errors,omitempty"`
	OneWay   bool              `json:"one-way,omitempty"`
}

// MessageNames returns the message names sorted
func (d *Document) MessageNames() []string {
	names := make([]string, 0, len(d.Messages))
	for name := range d.Messages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FullName returns the namespace-qualified protocol name
func (d *Document) FullName() string {
	if d.Namespace == "" {
		return d.Protocol
	}
	return d.Namespace + "." + d.Protocol
}
