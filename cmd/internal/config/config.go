// Copyright 2026 Google LLC. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config reads the YAML catalog of review datasets used by the
// command line tools.
package config

import (
	"fmt"
	"os"

	"github.com/reviewledger/ledger/merkle/hashers/registry"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"gopkg.in/yaml.v2"
)

// Config is the top level of a catalog file, for example:
//
//	hasher: SHA256
//	storage: file
//	datasets:
//	- name: electronics
//	  path: data/Electronics_5.json
//	  max_records: 100000
//	  label: electronics_2014
type Config struct {
	// Hasher names a registry hash function. Empty selects the default.
	Hasher string `yaml:"hasher"`
	// Storage names a root store provider. Empty leaves the choice to flags.
	Storage  string    `yaml:"storage"`
	Datasets []Dataset `yaml:"datasets"`
}

// Dataset is one review file.
type Dataset struct {
	Name string `yaml:"name"`
	Path string `yaml:"path"`
	// MaxRecords caps the number of reviews loaded. Zero means no cap.
	MaxRecords int `yaml:"max_records"`
	// Label is the key roots are stored under. Empty means Name.
	Label string `yaml:"label"`
}

// RootLabel returns the label roots of d are stored under.
func (d Dataset) RootLabel() string {
	if d.Label != "" {
		return d.Label
	}
	return d.Name
}

// Load reads and validates the catalog at path.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %v", err)
	}
	return Parse(b)
}

// Parse decodes and validates a catalog. Unknown keys are rejected.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.UnmarshalStrict(b, &c); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "parsing config: %v", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if _, err := registry.NewHasher(c.Hasher); err != nil {
		return err
	}
	seen := make(map[string]bool)
	for i, d := range c.Datasets {
		switch {
		case d.Name == "":
			return status.Errorf(codes.InvalidArgument, "dataset %d has no name", i)
		case seen[d.Name]:
			return status.Errorf(codes.InvalidArgument, "dataset %q defined twice", d.Name)
		case d.Path == "":
			return status.Errorf(codes.InvalidArgument, "dataset %q has no path", d.Name)
		case d.MaxRecords < 0:
			return status.Errorf(codes.InvalidArgument, "dataset %q: negative max_records %d", d.Name, d.MaxRecords)
		}
		seen[d.Name] = true
	}
	return nil
}

// Dataset returns the dataset called name.
func (c *Config) Dataset(name string) (Dataset, error) {
	for _, d := range c.Datasets {
		if d.Name == name {
			return d, nil
		}
	}
	return Dataset{}, status.Errorf(codes.NotFound, "dataset %q not in config", name)
}
