// Package service wraps the group model for concurrent use by the HTTP API.
// It serializes access to the store, publishes store events, and pushes the
// resolved package states to the extension registry.
package service

import (
	"fmt"
	"iter"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/metrics"
	"github.com/bcnelson/pkg-groups/internal/model"
	"github.com/bcnelson/pkg-groups/internal/registry"
)

// Options configures a GroupService.
type Options struct {
	// Registry is consulted for differences. Defaults to an empty registry.
	Registry model.Registry
	// Applier receives enable/disable calls from Apply. When nil, the
	// registry is used if it implements registry.Applier.
	Applier        registry.Applier
	Logger         *zap.Logger
	Metrics        *metrics.Metrics
	EventBuffer    int
	IncludeBundled bool
	AutoApply      bool
	ApplyDebounce  time.Duration
}

// GroupService owns a model.Store and makes it safe for concurrent use.
type GroupService struct {
	mu          sync.RWMutex
	store       *model.Store
	version     uint64
	unsubscribe func()

	registry       model.Registry
	applier        registry.Applier
	logger         *zap.Logger
	metrics        *metrics.Metrics
	hub            *Hub
	includeBundled bool

	autoApply  bool
	debounce   time.Duration
	timerMu    sync.Mutex
	applyTimer *time.Timer

	applyMu   sync.Mutex
	applies   int
	lastApply *domain.ApplyResult
}

// New creates a GroupService around store. A nil store starts empty.
func New(store *model.Store, opts Options) *GroupService {
	if store == nil {
		store = model.New()
	}
	if opts.Registry == nil {
		opts.Registry = registry.NewStatic(nil, nil, nil)
	}
	if opts.Applier == nil {
		if a, ok := opts.Registry.(registry.Applier); ok {
			opts.Applier = a
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.New()
	}

	s := &GroupService{
		registry:       opts.Registry,
		applier:        opts.Applier,
		logger:         opts.Logger.Named("service"),
		metrics:        opts.Metrics,
		hub:            NewHub(opts.EventBuffer),
		includeBundled: opts.IncludeBundled,
		autoApply:      opts.AutoApply,
		debounce:       opts.ApplyDebounce,
	}
	s.hub.onDrop = s.metrics.EventsDropped.Inc
	s.attach(store)
	return s
}

// attach makes store the current store. Callers hold mu or have exclusive
// access.
func (s *GroupService) attach(store *model.Store) {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.store = store
	s.unsubscribe = store.Subscribe(s.publish)
	s.metrics.SetSizes(count(store.GroupNames()), count(store.MetaNames()))
}

func (s *GroupService) publish(ev domain.Event) {
	s.metrics.EventsPublished.WithLabelValues(string(ev.Type)).Inc()
	s.hub.Publish(ev)
}

func count(seq iter.Seq[string]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

// Subscribe returns a channel of store notifications and a cancel function.
func (s *GroupService) Subscribe() (<-chan Notification, func()) {
	return s.hub.Subscribe()
}

// IncludeBundled returns the configured default for bundled packages.
func (s *GroupService) IncludeBundled() bool {
	return s.includeBundled
}

// Close stops any pending apply and closes all subscriptions.
func (s *GroupService) Close() {
	s.timerMu.Lock()
	if s.applyTimer != nil {
		s.applyTimer.Stop()
		s.applyTimer = nil
	}
	s.autoApply = false
	s.timerMu.Unlock()
	s.hub.Close()
}

// mutate runs fn with exclusive access to the store and records the outcome.
func (s *GroupService) mutate(op string, fn func(*model.Store) error) error {
	s.mu.Lock()
	err := fn(s.store)
	if err == nil {
		s.version++
		s.metrics.SetSizes(count(s.store.GroupNames()), count(s.store.MetaNames()))
	}
	s.mu.Unlock()

	s.metrics.RecordMutation(op, err)
	if err != nil {
		s.logger.Debug("store mutation rejected", zap.String("operation", op), zap.Error(err))
		return err
	}
	s.logger.Debug("store updated", zap.String("operation", op))
	s.TriggerApply()
	return nil
}

// ListGroups returns every group in insertion order.
func (s *GroupService) ListGroups() []domain.GroupRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.GroupRecord{}
	for name := range s.store.GroupNames() {
		g, _ := s.store.Group(name)
		out = append(out, g.Serialize())
	}
	return out
}

// GetGroup returns the named group.
func (s *GroupService) GetGroup(name string) (domain.GroupRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	g, ok := s.store.Group(name)
	if !ok {
		return domain.GroupRecord{}, fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
	}
	return g.Serialize(), nil
}

// CreateGroup adds a new group.
func (s *GroupService) CreateGroup(name string, packages []string) (domain.GroupRecord, error) {
	var rec domain.GroupRecord
	err := s.mutate("add_group", func(st *model.Store) error {
		g, err := st.AddGroup(name, packages)
		if err == nil {
			rec = g.Serialize()
		}
		return err
	})
	return rec, err
}

// UpdateGroup replaces the packages of a group.
func (s *GroupService) UpdateGroup(name string, packages []string) (domain.GroupRecord, error) {
	var rec domain.GroupRecord
	err := s.mutate("update_group", func(st *model.Store) error {
		g, err := st.UpdateGroup(name, packages)
		if err == nil {
			rec = g.Serialize()
		}
		return err
	})
	return rec, err
}

// AddPackages adds packages to a group.
func (s *GroupService) AddPackages(name string, packages ...string) (domain.GroupRecord, error) {
	var rec domain.GroupRecord
	err := s.mutate("add_packages", func(st *model.Store) error {
		g, err := st.AddPackages(name, packages...)
		if err == nil {
			rec = g.Serialize()
		}
		return err
	})
	return rec, err
}

// RemovePackages removes packages from a group.
func (s *GroupService) RemovePackages(name string, packages ...string) (domain.GroupRecord, error) {
	var rec domain.GroupRecord
	err := s.mutate("remove_packages", func(st *model.Store) error {
		g, err := st.RemovePackages(name, packages...)
		if err == nil {
			rec = g.Serialize()
		}
		return err
	})
	return rec, err
}

// DeleteGroup removes a group.
func (s *GroupService) DeleteGroup(name string) error {
	return s.mutate("delete_group", func(st *model.Store) error {
		return st.DeleteGroup(name)
	})
}

// ListMetas returns every meta-group in insertion order.
func (s *GroupService) ListMetas() []domain.MetaRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.MetaRecord{}
	for name := range s.store.MetaNames() {
		m, _ := s.store.Meta(name)
		out = append(out, m.Serialize())
	}
	return out
}

// GetMeta returns the named meta-group.
func (s *GroupService) GetMeta(name string) (domain.MetaRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.store.Meta(name)
	if !ok {
		return domain.MetaRecord{}, fmt.Errorf("%w: meta-group %q", domain.ErrNotFound, name)
	}
	return m.Serialize(), nil
}

// CreateMeta adds a new meta-group.
func (s *GroupService) CreateMeta(name string, states domain.StateMap) (domain.MetaRecord, error) {
	var rec domain.MetaRecord
	err := s.mutate("add_meta", func(st *model.Store) error {
		m, err := st.AddMeta(name, states)
		if err == nil {
			rec = m.Serialize()
		}
		return err
	})
	return rec, err
}

// UpdateMeta replaces the assignments of a meta-group.
func (s *GroupService) UpdateMeta(name string, states domain.StateMap) (domain.MetaRecord, error) {
	var rec domain.MetaRecord
	err := s.mutate("update_meta", func(st *model.Store) error {
		m, err := st.UpdateMeta(name, states)
		if err == nil {
			rec = m.Serialize()
		}
		return err
	})
	return rec, err
}

// DeleteMeta removes a meta-group.
func (s *GroupService) DeleteMeta(name string) error {
	return s.mutate("delete_meta", func(st *model.Store) error {
		return st.DeleteMeta(name)
	})
}

// GroupsForMeta returns the sorted names of every group the meta-group
// reaches.
func (s *GroupService) GroupsForMeta(name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.store.Meta(name)
	if !ok {
		return nil, fmt.Errorf("%w: meta-group %q", domain.ErrNotFound, name)
	}
	groups, err := s.store.GroupsForMeta(m)
	if err != nil {
		return nil, err
	}
	return groups.Sorted(), nil
}

// State describes the top-level and effective state of a name.
func (s *GroupService) State(name string) (domain.StateResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stateLocked(name)
}

func (s *GroupService) stateLocked(name string) (domain.StateResponse, error) {
	entry := s.store.Lookup(name)
	if entry == nil {
		return domain.StateResponse{}, fmt.Errorf("%w: no group or meta-group named %q", domain.ErrNotFound, name)
	}
	effective, _, err := s.store.GroupState(name)
	if err != nil {
		return domain.StateResponse{}, err
	}
	return domain.StateResponse{
		Name:      name,
		Kind:      entry.Kind(),
		Top:       s.store.TopState(name),
		Effective: effective,
	}, nil
}

// SetState sets the top-level state of a name and returns its new state.
// The toggle is applied even when the name cannot be resolved, for example
// through a cyclic meta-group; Effective is then empty.
func (s *GroupService) SetState(name string, state domain.TopState) (domain.StateResponse, error) {
	var resp domain.StateResponse
	err := s.mutate("set_state", func(st *model.Store) error {
		if err := st.SetState(name, state); err != nil {
			return err
		}
		resp = domain.StateResponse{
			Name: name,
			Kind: st.Lookup(name).Kind(),
			Top:  st.TopState(name),
		}
		effective, _, err := st.GroupState(name)
		if err != nil {
			s.logger.Warn("state set but not resolvable", zap.String("name", name), zap.Error(err))
			return nil
		}
		resp.Effective = effective
		return nil
	})
	return resp, err
}

// PackageStates resolves the state of every referenced package.
func (s *GroupService) PackageStates() (map[string]domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.PackageStates()
}

// Differences compares the resolved states with the registry.
func (s *GroupService) Differences(includeBundled bool) (domain.Differences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Differences(s.registry, includeBundled)
}

// Record returns the serialized store.
func (s *GroupService) Record() domain.Record {
	rec, _ := s.VersionedRecord()
	return rec
}

// VersionedRecord returns the serialized store together with its version.
// The version increases with every successful mutation.
func (s *GroupService) VersionedRecord() (domain.Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.store.Serialize(), s.version
}

// ReplaceRecord swaps the whole store for one built from rec. Subscribers
// receive a single reset event.
func (s *GroupService) ReplaceRecord(rec domain.Record) error {
	return s.replaceRecord(rec, nil)
}

// ReplaceRecordIfVersion is ReplaceRecord guarded by an expected version. It
// fails with domain.ErrPreconditionFailed when the store has moved on.
func (s *GroupService) ReplaceRecordIfVersion(rec domain.Record, version uint64) error {
	return s.replaceRecord(rec, &version)
}

func (s *GroupService) replaceRecord(rec domain.Record, version *uint64) error {
	return s.mutate("replace_record", func(*model.Store) error {
		if version != nil && *version != s.version {
			return fmt.Errorf("%w: store is at version %d, not %d", domain.ErrPreconditionFailed, s.version, *version)
		}
		next, err := model.FromRecord(rec)
		if err != nil {
			return err
		}
		s.attach(next)
		s.publish(domain.Event{Type: domain.EventReset})
		return nil
	})
}
