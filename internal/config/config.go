// Package config loads the optional --cluster-file YAML document: an
// alternative to passing the replica id and peer list as positional
// command-line arguments.
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/jamesmcnamara/raftkv/internal/message"
)

// Cluster is the YAML shape of a --cluster-file: this replica's own id and
// the full peer set (self excluded).
type Cluster struct {
	ID    string   `yaml:"id"`
	Peers []string `yaml:"peers"`
}

// Load reads and parses a cluster file at path.
func Load(path string) (Cluster, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Cluster{}, errors.Wrap(err, "config: read cluster file")
	}
	var c Cluster
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return Cluster{}, errors.Wrap(err, "config: parse cluster file")
	}
	return c, nil
}

// IDs resolves the cluster file's string id/peers into message.ID values.
func (c Cluster) IDs() (self message.ID, peers []message.ID, err error) {
	self, err = message.ParseID(c.ID)
	if err != nil {
		return message.ID{}, nil, errors.Wrapf(err, "config: replica id %q", c.ID)
	}
	peers = make([]message.ID, 0, len(c.Peers))
	for _, p := range c.Peers {
		id, err := message.ParseID(p)
		if err != nil {
			return message.ID{}, nil, errors.Wrapf(err, "config: peer id %q", p)
		}
		peers = append(peers, id)
	}
	return self, peers, nil
}
