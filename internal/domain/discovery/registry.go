package discovery

import "fmt"

// Registry is a process-wide collection of discovery plugins, keyed
// by Plugin.Name(). Unlike the Python original's module-scanning
// auto-discovery, plugins here are registered explicitly at process
// start (spec.md §9's "explicit register(Plugin) call ... rather than
// global auto-import side effects").
type Registry struct {
	plugins map[string]Plugin
}

// NewRegistry returns an empty registry. Production code constructs
// one at startup and registers every compiled-in plugin; tests
// construct their own to avoid cross-test pollution.
func NewRegistry() *Registry {
	return &Registry{plugins: make(map[string]Plugin)}
}

// Register adds a plugin to the registry. Registering two different
// plugin values under the same name is a fatal configuration error:
// it almost always indicates a build or wiring mistake, not a
// recoverable runtime condition.
func (r *Registry) Register(p Plugin) error {
	name := p.Name()
	if existing, ok := r.plugins[name]; ok && existing != p {
		return fmt.Errorf("discovery: plugin %q already registered with a different instance", name)
	}
	r.plugins[name] = p
	return nil
}

// Unregister removes a plugin by name. A no-op if absent.
func (r *Registry) Unregister(name string) {
	delete(r.plugins, name)
}

// Get returns the plugin registered under name, or false if absent.
func (r *Registry) Get(name string) (Plugin, bool) {
	p, ok := r.plugins[name]
	return p, ok
}

// All returns every registered plugin, in no particular order.
func (r *Registry) All() []Plugin {
	out := make([]Plugin, 0, len(r.plugins))
	for _, p := range r.plugins {
		out = append(out, p)
	}
	return out
}

// Names returns the names of every registered plugin.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.plugins))
	for name := range r.plugins {
		out = append(out, name)
	}
	return out
}

// Configured returns only the plugins whose IsConfigured() is true —
// i.e. those with credentials present.
func (r *Registry) Configured() []Plugin {
	var out []Plugin
	for _, p := range r.plugins {
		if p.IsConfigured() {
			out = append(out, p)
		}
	}
	return out
}

// Clear removes every registered plugin.
func (r *Registry) Clear() {
	r.plugins = make(map[string]Plugin)
}
