// Package config implements the Quill configuration system.
//
// Settings are described by a Schema of typed leaf definitions under the
// fixed "quill." namespace (base.*, providers.<name>.*, features.*). A
// Manager caches flattened key/value pairs read from a Store, reacts to
// store change events by refreshing only the affected cache entries, and
// dispatches reinitialization to AI providers when one of their settings
// changes.
//
// The default Store is a TOML file in the user config directory, watched
// with fsnotify so external edits propagate as change events. Tests use
// the in-memory MemStore.
package config
