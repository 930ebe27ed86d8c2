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

package storage

import (
	"fmt"
	"sort"
	"sync"

	"github.com/reviewledger/ledger/monitoring"
)

// NewProviderFunc is the signature of a function which can be registered to
// provide instances of a RootStore backend.
type NewProviderFunc func() (RootStore, error)

var (
	spMu     sync.RWMutex
	spByName = make(map[string]NewProviderFunc)
)

// RegisterProvider registers the given storage backend under name.
func RegisterProvider(name string, sp NewProviderFunc) error {
	spMu.Lock()
	defer spMu.Unlock()

	if _, exists := spByName[name]; exists {
		return fmt.Errorf("storage provider %v already registered", name)
	}
	spByName[name] = sp
	return nil
}

// NewRootStore returns a RootStore of the backend registered as name. Calls
// on it are counted in metrics created from mf.
func NewRootStore(name string, mf monitoring.MetricFactory) (RootStore, error) {
	spMu.RLock()
	sp := spByName[name]
	spMu.RUnlock()

	if sp == nil {
		return nil, fmt.Errorf("no such storage provider %v", name)
	}
	s, err := sp()
	if err != nil {
		return nil, err
	}
	return newInstrumented(name, s, mf), nil
}

// Providers returns the sorted names of all registered storage backends.
func Providers() []string {
	spMu.RLock()
	defer spMu.RUnlock()

	r := make([]string, 0, len(spByName))
	for k := range spByName {
		r = append(r, k)
	}
	sort.Strings(r)
	return r
}
