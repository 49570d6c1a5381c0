/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package policy

import "fmt"

// Factory constructs a Policy. Policies are themselves stateless — all
// per-node state lives on Context — so a Factory typically just returns a
// fixed singleton, but the indirection matches the teacher's
// GlobalEntryProvider.New(...) shape in case a future policy needs
// per-registration parameters.
type Factory func() Policy

var registry = make(map[string]Factory)

// Register adds a named policy to the closed set C4 can dispatch to.
// Called from each policy file's init(), mirroring the teacher's
// registry.Registry.RegisterGlobalXact pattern.
func Register(name string, f Factory) {
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("policy: %q already registered", name))
	}
	registry[name] = f
}

// New looks up and constructs the named policy.
func New(name string) (Policy, error) {
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("policy: unknown policy %q", name)
	}
	return f(), nil
}

// Names returns the registered policy names, for CLI help/validation.
func Names() []string {
	out := make([]string, 0, len(registry))
	for n := range registry {
		out = append(out, n)
	}
	return out
}
