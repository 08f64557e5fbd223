package definition

import (
	"context"
	"sort"

	"github.com/msto63/bes/internal/dhi"
	"github.com/msto63/bes/internal/keys"
	"github.com/msto63/bes/internal/storelist"
	"github.com/msto63/bes/pkg/core/logging"
)

// List is the ordered set of definition stores
type List struct {
	*storelist.List[Storage]
	keys   *keys.Keys
	logger *logging.Logger
}

// NewList creates an empty list
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
		logger: logger.Component("definition-list"),
	}
}

// LookFor searches the stores in registration order
func (l *List) LookFor(ctx context.Context, name string) (*Definition, bool, error) {
	for _, s := range l.Stores() {
		def, ok, err := s.LookFor(ctx, name)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return def, true, nil
		}
	}
	return nil, false, nil
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

// AddConfigured registers the volatile default store plus the SQLite
// stores named in the configuration.
func (l *List) AddConfigured() error {
	l.addStore(NewVolatile(dhi.DefaultStore))

	dbs := l.keys.GetStringMap(keys.DefinitionSQLStores)
	names := make([]string, 0, len(dbs))
	for name := range dbs {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		store, err := NewSQLite(name, dbs[name])
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
		l.logger.Warn("definition store already registered", "store", s.Name())
		return false
	}
	l.logger.Debug("definition store registered", "store", s.Name())
	return true
}
