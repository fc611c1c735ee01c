package environment

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

type Registry struct {
	byName          map[Name]Environment
	byEnvironmentID map[string]Environment
	defaultName     Name
}

// NewRegistry indexes environments by name and by gateway environment id.
// The first environment becomes the default.
func NewRegistry(envs ...Environment) (*Registry, error) {
	return NewRegistryWithDefault("", envs...)
}

// NewRegistryWithDefault is NewRegistry with an explicit default. An empty
// name keeps the first environment.
func NewRegistryWithDefault(defaultName Name, envs ...Environment) (*Registry, error) {
	r := &Registry{
		byName:          make(map[Name]Environment, len(envs)),
		byEnvironmentID: make(map[string]Environment, len(envs)),
	}
	for _, env := range envs {
		if err := env.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s", err, env.Name)
		}
		if _, ok := r.byName[env.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateEnvironment, env.Name)
		}
		if _, ok := r.byEnvironmentID[env.EnvironmentID]; ok {
			return nil, fmt.Errorf("%w: environment id of %s", ErrDuplicateEnvironment, env.Name)
		}
		env.APIBaseURL = strings.TrimRight(strings.TrimSpace(env.APIBaseURL), "/")
		r.byName[env.Name] = env
		r.byEnvironmentID[env.EnvironmentID] = env
		if r.defaultName == "" {
			r.defaultName = env.Name
		}
	}
	if defaultName != "" {
		if _, ok := r.byName[defaultName]; !ok {
			return nil, fmt.Errorf("%w: default %s", ErrUnknownEnvironment, defaultName)
		}
		r.defaultName = defaultName
	}
	return r, nil
}

func (r *Registry) Get(name Name) (Environment, error) {
	env, ok := r.byName[name]
	if !ok {
		return Environment{}, ErrUnknownEnvironment
	}
	return env, nil
}

// Lookup parses and resolves a raw name. An empty name selects the default.
func (r *Registry) Lookup(raw string) (Environment, error) {
	if strings.TrimSpace(raw) == "" {
		return r.Default()
	}
	name, err := ParseName(raw)
	if err != nil {
		return Environment{}, ErrUnknownEnvironment
	}
	return r.Get(name)
}

func (r *Registry) ByEnvironmentID(id string) (Environment, error) {
	env, ok := r.byEnvironmentID[strings.TrimSpace(id)]
	if !ok {
		return Environment{}, ErrUnknownEnvironment
	}
	return env, nil
}

func (r *Registry) Default() (Environment, error) {
	return r.Get(r.defaultName)
}

func (r *Registry) Names() []Name {
	names := make([]Name, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

func (r *Registry) Len() int {
	return len(r.byName)
}

// ResolveCallbackEnvironment picks the environment whose secret verifies an
// inbound status callback. Order: explicit route hint, payload environmentId,
// an "environment" key inside the merchant data JSON, then the only configured
// environment. Nothing here is trusted until the signature check passes.
func (r *Registry) ResolveCallbackEnvironment(hint, environmentID, data string) (Environment, error) {
	if strings.TrimSpace(hint) != "" {
		return r.Lookup(hint)
	}
	if env, err := r.ByEnvironmentID(environmentID); err == nil {
		return env, nil
	}
	if name := environmentFromData(data); name != "" {
		if env, err := r.Lookup(name); err == nil {
			return env, nil
		}
	}
	if len(r.byName) == 1 {
		return r.Default()
	}
	return Environment{}, ErrUnknownEnvironment
}

func environmentFromData(data string) string {
	data = strings.TrimSpace(data)
	if data == "" || data[0] != '{' {
		return ""
	}
	var routing struct {
		Environment string `json:"environment"`
	}
	if json.Unmarshal([]byte(data), &routing) != nil {
		return ""
	}
	return strings.TrimSpace(routing.Environment)
}
