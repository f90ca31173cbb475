// Package catalog provides descriptor tables for subsys.Map.
package catalog

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/yanet-platform/logsubsys/subsys"
)

// IDs of the built-in control plane subsystems, in table order.
const (
	None subsys.ID = iota
	Coordinator
	Gateway
	Director
	Registry
	Route
	Neigh
	Bird
	Balancer
	Decap
	Forward
	NAT64
	ACL
	FWState
	PDump
	Proxy
	Counters
	FFI
	numDefault
)

var defaultTable = [numDefault]subsys.Descriptor{
	None:        {Name: "none", LogLevel: 0, GatherLevel: 5},
	Coordinator: {Name: "coordinator", LogLevel: 1, GatherLevel: 5},
	Gateway:     {Name: "gateway", LogLevel: 1, GatherLevel: 5},
	Director:    {Name: "director", LogLevel: 1, GatherLevel: 5},
	Registry:    {Name: "registry", LogLevel: 1, GatherLevel: 5},
	Route:       {Name: "route", LogLevel: 1, GatherLevel: 5, MaxDefault: 10},
	Neigh:       {Name: "neigh", LogLevel: 1, GatherLevel: 3},
	Bird:        {Name: "bird", LogLevel: 1, GatherLevel: 3, MaxDefault: 20},
	Balancer:    {Name: "balancer", LogLevel: 1, GatherLevel: 5, MaxDefault: 10},
	Decap:       {Name: "decap", LogLevel: 1, GatherLevel: 3},
	Forward:     {Name: "forward", LogLevel: 1, GatherLevel: 3},
	NAT64:       {Name: "nat64", LogLevel: 1, GatherLevel: 3},
	ACL:         {Name: "acl", LogLevel: 1, GatherLevel: 5},
	FWState:     {Name: "fwstate", LogLevel: 1, GatherLevel: 3},
	PDump:       {Name: "pdump", LogLevel: 1, GatherLevel: 3},
	Proxy:       {Name: "proxy", LogLevel: 1, GatherLevel: 3},
	Counters:    {Name: "counters", LogLevel: 0, GatherLevel: 1},
	FFI:         {Name: "ffi", LogLevel: 0, GatherLevel: 1, MaxDefault: 30},
}

// Default returns a copy of the built-in descriptor table.
func Default() []subsys.Descriptor {
	out := make([]subsys.Descriptor, len(defaultTable))
	copy(out, defaultTable[:])
	return out
}

// File is the on-disk representation of a descriptor table.
type File struct {
	// Subsystems is the ordered list of descriptors.
	//
	// Position in the list is the subsystem ID.
	Subsystems []subsys.Descriptor `yaml:"subsystems"`
}

// Load loads a descriptor table from a YAML file at the specified path.
func Load(path string) ([]subsys.Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	return Parse(data)
}

// Parse parses a YAML descriptor table.
func Parse(data []byte) ([]subsys.Descriptor, error) {
	file := File{}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse YAML catalog: %w", err)
	}
	if len(file.Subsystems) == 0 {
		return nil, fmt.Errorf("catalog declares no subsystems")
	}

	return file.Subsystems, nil
}
