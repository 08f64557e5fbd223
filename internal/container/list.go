package container

import (
	"context"
	"sort"
	"strings"

	"github.com/msto63/bes/internal/beserr"
	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/storelist"
	"github.com/msto63/bes/pkg/core/logging"
)

// List is the ordered set of container stores searched for a symbolic
// name.
type List struct {
	*storelist.List[Storage]
	keys   *keys.Keys
	logger *logging.Logger
}

// NewList creates an empty list reading its settings from k
func NewList(k *keys.Keys, logger *logging.Logger) *List {
	if k == nil {
		k = keys.Empty()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &List{
		List:   storelist.New[Storage](),
		keys:   k,
		logger: logger.Component("container-list"),
	}
}

// IsNice reports whether a lookup miss is tolerated. An unset key means
// strict.
func (l *List) IsNice() (bool, error) {
	value, found := l.keys.GetValue(keys.ContainerPersistence)
	if !found || value == "" {
		return false, nil
	}
	switch strings.ToLower(value) {
	case "nice":
		return true, nil
	case "strict":
		return false, nil
	default:
		return false, beserr.SyntaxUser("%s must be set to 'nice' or 'strict', found '%s'",
			keys.ContainerPersistence, value)
	}
}

// LookFor searches the stores in registration order and returns a copy of
// the first container named sym. A miss is an error unless the list is
// nice, in which case it is only logged.
func (l *List) LookFor(ctx context.Context, sym string) (*dhi.Container, bool, error) {
	for _, s := range l.Stores() {
		c, ok, err := s.LookFor(ctx, sym)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return c, true, nil
		}
	}

	nice, err := l.IsNice()
	if err != nil {
		return nil, false, err
	}
	if !nice {
		return nil, false, beserr.SyntaxUser("Could not find the symbolic name %s", sym)
	}
	l.logger.Info("could not find the symbolic name", "symbolic_name", sym)
	return nil, false, nil
}

// DeleteContainer removes sym from every store holding it
func (l *List) DeleteContainer(ctx context.Context, sym string) (bool, error) {
	deleted := false
	for _, s := range l.Stores() {
		ok, err := s.Del(ctx, sym)
		if err != nil {
			return deleted, err
		}
		deleted = deleted || ok
	}
	return deleted, nil
}

// Show lists every store
func (l *List) Show(ctx context.Context, info dhi.InfoBuilder) error {
	for _, s := range l.Stores() {
		if err := s.Show(ctx, info); err != nil {
			return err
		}
	}
	return nil
}

// AddConfigured registers the volatile default stores plus the file and
// SQLite stores named in the configuration.
func (l *List) AddConfigured() error {
	var types *TypeMatch
	if spec, ok := l.keys.GetValue(keys.ContainerTypeMatch); ok && spec != "" {
		tm, err := ParseTypeMatch(spec)
		if err != nil {
			return err
		}
		types = tm
	}

	for _, name := range []string{dhi.DefaultStore, "catalog"} {
		l.addStore(NewVolatile(name, types))
	}

	files := l.keys.GetStringMap(keys.ContainerFileStores)
	for _, name := range sortedKeys(files) {
		store, err := NewFile(name, files[name])
		if err != nil {
			return err
		}
		l.addStore(store)
	}

	dbs := l.keys.GetStringMap(keys.ContainerSQLStores)
	for _, name := range sortedKeys(dbs) {
		store, err := NewSQLite(name, dbs[name], types)
		if err != nil {
			return err
		}
		if !l.addStore(store) {
			store.Close()
		}
	}
	return nil
}

func (l *List) addStore(s Storage) bool {
	if !l.Add(s) {
		l.logger.Warn("container store already registered", "store", s.Name())
		return false
	}
	l.logger.Debug("container store registered", "store", s.Name())
	return true
}

func sortedKeys(m map[string]string) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
