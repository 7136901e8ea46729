package config

import (
	"fmt"
	"sort"
	"strings"
)

// Namespace is the fixed prefix every persisted setting key carries.
const Namespace = "quill"

// LeafType is the data type of a schema leaf.
type LeafType uint8

const (
	// TypeString represents a free-form string value.
	TypeString LeafType = iota
	// TypeBool represents a boolean value.
	TypeBool
	// TypeInt represents an integer value.
	TypeInt
	// TypeEnum represents a string value from a fixed set.
	TypeEnum
)

// String returns the type name.
func (t LeafType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeBool:
		return "boolean"
	case TypeInt:
		return "integer"
	case TypeEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// Leaf defines a single configuration setting. Category nodes never hold
// values; only leaves do, and every leaf maps 1:1 to a persisted store key.
type Leaf struct {
	// Path is the dot-separated path without the namespace prefix,
	// e.g. "providers.openai.apiKey".
	Path string

	// Type is the leaf's data type.
	Type LeafType

	// Default is the value used when the store has no entry.
	Default any

	// Enum lists allowed values for TypeEnum leaves.
	Enum []string

	// Description is human-readable documentation.
	Description string

	// Secret marks credentials that should not be echoed back to the user.
	Secret bool
}

// Validate checks a candidate value against the leaf's type and enum set.
func (l Leaf) Validate(value any) error {
	switch l.Type {
	case TypeString:
		if _, ok := value.(string); !ok {
			return fmt.Errorf("%s: expected string, got %T", l.Path, value)
		}
	case TypeBool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%s: expected boolean, got %T", l.Path, value)
		}
	case TypeInt:
		switch value.(type) {
		case int, int64:
		default:
			return fmt.Errorf("%s: expected integer, got %T", l.Path, value)
		}
	case TypeEnum:
		s, ok := value.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", l.Path, value)
		}
		for _, e := range l.Enum {
			if e == s {
				return nil
			}
		}
		return fmt.Errorf("%s: value %q must be one of %v", l.Path, s, l.Enum)
	}
	return nil
}

// Schema holds all known leaf definitions keyed by path.
type Schema struct {
	leaves map[string]Leaf
}

// NewSchema creates an empty schema.
func NewSchema() *Schema {
	return &Schema{leaves: make(map[string]Leaf)}
}

// Register adds a leaf definition. It rejects duplicate paths and paths that
// would shadow a category node (a registered leaf can never be a prefix of
// another leaf's path).
func (s *Schema) Register(leaf Leaf) error {
	if leaf.Path == "" {
		return fmt.Errorf("empty leaf path")
	}
	if _, exists := s.leaves[leaf.Path]; exists {
		return fmt.Errorf("duplicate leaf path: %s", leaf.Path)
	}
	for existing := range s.leaves {
		if strings.HasPrefix(existing, leaf.Path+".") || strings.HasPrefix(leaf.Path, existing+".") {
			return fmt.Errorf("leaf %s conflicts with category of %s", leaf.Path, existing)
		}
	}
	s.leaves[leaf.Path] = leaf
	return nil
}

// MustRegister registers a leaf and panics on error. Used for the built-in
// schema at load time.
func (s *Schema) MustRegister(leaf Leaf) {
	if err := s.Register(leaf); err != nil {
		panic(err)
	}
}

// Leaf returns the definition for a path, if registered.
func (s *Schema) Leaf(path string) (Leaf, bool) {
	l, ok := s.leaves[path]
	return l, ok
}

// WalkLeaves visits every leaf exactly once in sorted path order.
func (s *Schema) WalkLeaves(fn func(Leaf)) {
	for _, path := range s.Paths() {
		fn(s.leaves[path])
	}
}

// Paths returns all leaf paths sorted.
func (s *Schema) Paths() []string {
	paths := make([]string, 0, len(s.leaves))
	for p := range s.leaves {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// Len returns the number of registered leaves.
func (s *Schema) Len() int { return len(s.leaves) }

// StoreKey maps a leaf path to its persisted key under the namespace.
func StoreKey(path string) string {
	return Namespace + "." + path
}

// PathFromStoreKey strips the namespace prefix from a persisted key. Keys
// outside the namespace are an error: a key the cache would silently miss
// must never be accepted.
func PathFromStoreKey(key string) (string, error) {
	prefix := Namespace + "."
	if !strings.HasPrefix(key, prefix) || len(key) == len(prefix) {
		return "", fmt.Errorf("setting key %q is outside the %s namespace", key, Namespace)
	}
	return key[len(prefix):], nil
}

// Default returns the built-in Quill schema.
func Default() *Schema {
	s := NewSchema()

	// Base settings
	s.MustRegister(Leaf{
		Path:        "base.provider",
		Type:        TypeEnum,
		Default:     "openai",
		Enum:        []string{"openai", "ollama", "anthropic", "gemini"},
		Description: "AI provider used for generation",
	})
	s.MustRegister(Leaf{
		Path:        "base.model",
		Type:        TypeString,
		Default:     "",
		Description: "Model id override; empty uses the provider's default model",
	})
	s.MustRegister(Leaf{
		Path:        "base.language",
		Type:        TypeString,
		Default:     "English",
		Description: "Language for generated commit messages and reviews",
	})
	s.MustRegister(Leaf{
		Path:        "base.systemPrompt",
		Type:        TypeString,
		Default:     "",
		Description: "Custom system prompt; empty synthesizes one from language and commit format",
	})
	s.MustRegister(Leaf{
		Path:        "base.commitFormat",
		Type:        TypeEnum,
		Default:     "conventional",
		Enum:        []string{"conventional", "plain"},
		Description: "Commit message style",
	})
	s.MustRegister(Leaf{
		Path:        "base.scm",
		Type:        TypeEnum,
		Default:     "auto",
		Enum:        []string{"auto", "git", "svn"},
		Description: "Version control backend",
	})
	s.MustRegister(Leaf{
		Path:        "base.logLevel",
		Type:        TypeEnum,
		Default:     "info",
		Enum:        []string{"debug", "info", "warn", "error"},
		Description: "Logging verbosity",
	})

	// Provider settings
	s.MustRegister(Leaf{
		Path:        "providers.openai.apiKey",
		Type:        TypeString,
		Default:     "",
		Secret:      true,
		Description: "OpenAI API key",
	})
	s.MustRegister(Leaf{
		Path:        "providers.openai.baseURL",
		Type:        TypeString,
		Default:     "https://api.openai.com/v1",
		Description: "OpenAI API base URL (or any OpenAI-compatible endpoint)",
	})
	s.MustRegister(Leaf{
		Path:        "providers.openai.model",
		Type:        TypeString,
		Default:     "gpt-4o",
		Description: "Default OpenAI model",
	})
	s.MustRegister(Leaf{
		Path:        "providers.ollama.apiKey",
		Type:        TypeString,
		Default:     "",
		Secret:      true,
		Description: "Optional API key for Ollama-compatible servers that require one",
	})
	s.MustRegister(Leaf{
		Path:        "providers.ollama.baseURL",
		Type:        TypeString,
		Default:     "http://localhost:11434",
		Description: "Ollama server URL",
	})
	s.MustRegister(Leaf{
		Path:        "providers.ollama.model",
		Type:        TypeString,
		Default:     "llama3.3",
		Description: "Default Ollama model",
	})
	s.MustRegister(Leaf{
		Path:        "providers.anthropic.apiKey",
		Type:        TypeString,
		Default:     "",
		Secret:      true,
		Description: "Anthropic API key",
	})
	s.MustRegister(Leaf{
		Path:        "providers.anthropic.baseURL",
		Type:        TypeString,
		Default:     "https://api.anthropic.com",
		Description: "Anthropic API base URL",
	})
	s.MustRegister(Leaf{
		Path:        "providers.anthropic.model",
		Type:        TypeString,
		Default:     "claude-sonnet-4-20250514",
		Description: "Default Anthropic model",
	})

	s.MustRegister(Leaf{
		Path:        "providers.gemini.apiKey",
		Type:        TypeString,
		Default:     "",
		Secret:      true,
		Description: "Google Gemini API key",
	})
	s.MustRegister(Leaf{
		Path:        "providers.gemini.baseURL",
		Type:        TypeString,
		Default:     "https://generativelanguage.googleapis.com",
		Description: "Gemini API base URL",
	})
	s.MustRegister(Leaf{
		Path:        "providers.gemini.model",
		Type:        TypeString,
		Default:     "gemini-2.0-flash",
		Description: "Default Gemini model",
	})

	// Feature settings
	s.MustRegister(Leaf{
		Path:        "features.diffSimplification.enabled",
		Type:        TypeBool,
		Default:     false,
		Description: "Compress diffs before sending them to the AI provider",
	})
	s.MustRegister(Leaf{
		Path:        "features.diffSimplification.contextLines",
		Type:        TypeInt,
		Default:     3,
		Description: "Consecutive unchanged lines to keep before collapsing a context run",
	})
	s.MustRegister(Leaf{
		Path:        "features.diffSimplification.maxLineLength",
		Type:        TypeInt,
		Default:     120,
		Description: "Maximum characters per diff line; longer lines are truncated",
	})
	s.MustRegister(Leaf{
		Path:        "features.review.concurrency",
		Type:        TypeInt,
		Default:     4,
		Description: "Maximum concurrent per-file review calls",
	})
	s.MustRegister(Leaf{
		Path:        "features.redactSecrets",
		Type:        TypeBool,
		Default:     true,
		Description: "Redact detected secrets from diffs before sending them to a provider",
	})

	return s
}
