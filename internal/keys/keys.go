// ============================================================================
// BES - Back-End Server
// ============================================================================
//
// Package:     keys
// Description: BES configuration keys
// License:     MIT
// ============================================================================

// Package keys is the server's configuration key lookup. Components ask for
// dotted keys such as BES.Container.Persistence and learn whether the key
// was set at all, not just its value.
package keys

import (
	"strings"

	mdwconfig "github.com/msto63/bes/foundation/core/config"
	mdwstringx "github.com/msto63/bes/foundation/utils/stringx"
)

// Well-known keys.
const (
	ContainerPersistence = "BES.Container.Persistence"
	ContainerFileStores  = "BES.Container.File"
	ContainerSQLStores   = "BES.Container.SQLite"
	ContainerTypeMatch   = "BES.Container.TypeMatch"
	DefinitionSQLStores  = "BES.Definition.SQLite"
	CompressedExtensions = "BES.Compressed.Extensions"
	CacheDir             = "BES.CacheDir"
	CSVEnabled           = "BES.Data.CSV.Enabled"
	LogDelimiter         = "BES.LogDelimiter"
	ServerAdministrator  = "BES.ServerAdministrator"
)

// Keys wraps a foundation configuration.
type Keys struct {
	cfg *mdwconfig.Config
}

// Load reads keys from a TOML or YAML file. A non-empty envPrefix enables
// environment overrides (prefix BES maps BES.Container.Persistence to
// BES_BES_CONTAINER_PERSISTENCE).
func Load(path, envPrefix string) (*Keys, error) {
	cfg, err := mdwconfig.LoadWithOptions(path, mdwconfig.LoadOptions{
		Format:    mdwconfig.FormatAuto,
		EnvPrefix: envPrefix,
	})
	if err != nil {
		return nil, err
	}
	return &Keys{cfg: cfg}, nil
}

// Parse reads keys from TOML content.
func Parse(content string) (*Keys, error) {
	cfg, err := mdwconfig.LoadFromString(content, mdwconfig.FormatTOML)
	if err != nil {
		return nil, err
	}
	return &Keys{cfg: cfg}, nil
}

// FromMap builds keys from flat dotted names.
func FromMap(values map[string]string) *Keys {
	m := make(map[string]interface{}, len(values))
	for k, v := range values {
		m[k] = v
	}
	return &Keys{cfg: mdwconfig.FromMap(m)}
}

// Empty returns a key set with nothing configured.
func Empty() *Keys {
	return FromMap(nil)
}

// GetValue returns the value of key and whether it was set.
func (k *Keys) GetValue(key string) (string, bool) {
	return k.cfg.GetValue(key)
}

// GetValues returns a list value; scalar values are split on commas.
func (k *Keys) GetValues(key string) []string {
	return k.cfg.GetStringSlice(key)
}

// GetBool returns a boolean key or def when unset or unparsable.
func (k *Keys) GetBool(key string, def bool) bool {
	return k.cfg.GetBool(key, def)
}

// GetStringMap returns the scalar entries of the table at key.
func (k *Keys) GetStringMap(key string) map[string]string {
	return k.cfg.GetStringMap(key)
}

// Set overrides a key at runtime.
func (k *Keys) Set(key, value string) {
	k.cfg.Set(key, value)
}

// Names returns every configured key, sorted.
func (k *Keys) Names() []string {
	return k.cfg.Keys()
}

// IsTrue reports whether a key holds one of the usual truthy spellings.
func IsTrue(value string) bool {
	return mdwstringx.EqualFoldAny(strings.TrimSpace(value), "true", "yes", "on", "1")
}
