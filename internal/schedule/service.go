// Package schedule is the single writer path for events. Every create, edit,
// delete and move runs through a Service, one at a time, and finishes by
// re-reading the authoritative collection from the persistence collaborator.
package schedule

import (
	"context"
	"errors"
	"sync"

	"eventcal/internal/conflict"
	appLog "eventcal/internal/log"
	"eventcal/internal/model"
	"eventcal/internal/recur"
	"eventcal/internal/series"
)

// Outcome describes what a mutation did.
type Outcome struct {
	// Saved holds the events written by this mutation as the store returned them.
	Saved []model.Event `json:"saved,omitempty"`
	// Deleted holds the ids removed by this mutation.
	Deleted []string `json:"deleted,omitempty"`
	// Conflicts lists overlapping events found before a single-slot save.
	Conflicts []model.Event `json:"conflicts,omitempty"`
	// Unchanged is set when the mutation was a no-op.
	Unchanged bool   `json:"unchanged,omitempty"`
	Scope     string `json:"scope,omitempty"`
	Notice    string `json:"notice,omitempty"`
}

// Service owns the cached event collection.
type Service struct {
	store    Persistence
	notifier Notifier
	recurCfg recur.Config

	// opMu admits one mutation at a time.
	opMu sync.Mutex

	mu     sync.RWMutex
	events []model.Event
	loaded bool
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where user notices go. The default logs them.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithRecurConfig sets the recurrence expansion limits.
func WithRecurConfig(cfg recur.Config) Option {
	return func(s *Service) { s.recurCfg = cfg }
}

// New returns a Service backed by store. Call Load before serving reads.
func New(store Persistence, opts ...Option) *Service {
	s := &Service{
		store:    store,
		notifier: logNotifier{},
		events:   make([]model.Event, 0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Events returns a copy of the cached collection.
func (s *Service) Events() []model.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Event{}, s.events...)
}

// Loaded reports whether the cache has been filled at least once.
func (s *Service) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Get returns the cached event with the given id.
func (s *Service) Get(id string) (model.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ev := range s.events {
		if ev.ID == id {
			return ev, true
		}
	}
	return model.Event{}, false
}

// Related returns the cached events in the same series as the event with the
// given id, excluding that event.
func (s *Service) Related(id string) ([]model.Event, error) {
	target, ok := s.Get(id)
	if !ok {
		return nil, model.ErrEventNotFound
	}
	return series.FindRelated(target, s.Events()), nil
}

// Conflicts checks a form against the cache. excludeID names the event being
// edited, if any.
func (s *Service) Conflicts(f model.EventForm, excludeID string) []model.Event {
	return conflict.FindConflicts(conflict.CandidateFor(f, excludeID), s.Events())
}

// Load replaces the cache with the store's collection.
func (s *Service) Load(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.refresh(ctx); err != nil {
		return err
	}
	s.notify(NoticeLoaded, false)
	return nil
}

// Create validates and saves a new event. A repeating form is expanded and
// saved in one bulk call without a conflict check. A single event that
// overlaps others is saved only if p agrees.
func (s *Service) Create(ctx context.Context, f model.EventForm, p Prompter) (Outcome, error) {
	p = orCancel(p)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var out Outcome
	if err := f.Validate(); err != nil {
		return out, err
	}

	if f.Repeat.IsRepeating() {
		res, err := recur.Expand(f, s.recurCfg)
		if err != nil {
			return out, err
		}
		saved, err := s.store.BulkCreate(ctx, res.Instances)
		if err != nil {
			return out, s.fail("bulk create", err, NoticeSaveFail, "title", f.Title, "instances", len(res.Instances))
		}
		appLog.Info("series created", "title", f.Title, "rule", f.Repeat.String(), "instances", len(saved))
		out.Saved = saved
		return s.finish(ctx, out, NoticeCreated)
	}

	out.Conflicts = s.Conflicts(f, "")
	if err := s.confirmConflicts(ctx, p, f, out.Conflicts); err != nil {
		return out, err
	}

	ev, err := s.store.Create(ctx, f)
	if err != nil {
		return out, s.fail("create", err, NoticeSaveFail, "title", f.Title)
	}
	appLog.Info("event created", "id", ev.ID, "title", ev.Title, "date", ev.Date.String())
	out.Saved = []model.Event{ev}
	return s.finish(ctx, out, NoticeCreated)
}

// Restore stores already concrete instances as they are, in one bulk call
// and without expansion or conflict checks. Imports of exported calendars
// use it.
func (s *Service) Restore(ctx context.Context, forms []model.EventForm) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var out Outcome
	if len(forms) == 0 {
		out.Unchanged = true
		return out, nil
	}
	for _, f := range forms {
		if err := f.Validate(); err != nil {
			return out, err
		}
	}
	saved, err := s.store.BulkCreate(ctx, forms)
	if err != nil {
		return out, s.fail("bulk create", err, NoticeSaveFail, "instances", len(forms))
	}
	appLog.Info("instances restored", "count", len(saved))
	out.Saved = saved
	return s.finish(ctx, out, NoticeCreated)
}

// Edit applies patch to the event with the given id. Non-repeating events are
// updated directly. For a recurring instance p chooses the scope: single
// detaches the instance from its series, series applies the patch to every
// sibling while each keeps its own date and id.
func (s *Service) Edit(ctx context.Context, id string, patch model.EventPatch, p Prompter) (Outcome, error) {
	p = orCancel(p)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var out Outcome
	target, ok := s.Get(id)
	if !ok {
		return out, model.ErrEventNotFound
	}

	scope := ScopeSingle
	if isRecurring(target) {
		var err error
		if scope, err = p.ChooseScope(ctx, target, ActionEdit); err != nil {
			return out, err
		}
	}
	out.Scope = scope.String()

	switch scope {
	case ScopeSingle:
		f := patch.Apply(target.Form())
		if isRecurring(target) {
			f.Repeat = model.NoRepeat()
		}
		if err := f.Validate(); err != nil {
			return out, err
		}
		out.Conflicts = s.Conflicts(f, target.ID)
		if err := s.confirmConflicts(ctx, p, f, out.Conflicts); err != nil {
			return out, err
		}
		ev, err := s.store.Update(ctx, target.ID, model.Event{ID: target.ID, EventForm: f})
		if err != nil {
			return out, s.fail("update", err, NoticeSaveFail, "id", target.ID)
		}
		appLog.Info("event updated", "id", ev.ID, "scope", out.Scope)
		out.Saved = []model.Event{ev}

	case ScopeSeries:
		group := series.Group(target, s.Events())
		shared := patch.WithoutDate()

		updates := make([]model.Event, len(group))
		for i, ev := range group {
			f := shared.Apply(ev.Form())
			if err := f.Validate(); err != nil {
				return out, err
			}
			updates[i] = model.Event{ID: ev.ID, EventForm: f}
		}
		for _, ev := range updates {
			saved, err := s.store.Update(ctx, ev.ID, ev)
			if err != nil {
				return out, s.fail("update", err, NoticeSaveFail,
					"id", ev.ID, "series_size", len(updates), "updated", len(out.Saved))
			}
			out.Saved = append(out.Saved, saved)
		}
		appLog.Info("series updated", "id", target.ID, "instances", len(out.Saved))

	default:
		appLog.Debug("edit cancelled", "id", target.ID)
		return out, ErrCancelled
	}

	return s.finish(ctx, out, NoticeUpdated)
}

// Delete removes the event with the given id, or its whole series when p
// chooses so for a recurring instance.
func (s *Service) Delete(ctx context.Context, id string, p Prompter) (Outcome, error) {
	p = orCancel(p)
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var out Outcome
	target, ok := s.Get(id)
	if !ok {
		return out, model.ErrEventNotFound
	}

	ids := []string{target.ID}
	if isRecurring(target) {
		scope, err := p.ChooseScope(ctx, target, ActionDelete)
		if err != nil {
			return out, err
		}
		out.Scope = scope.String()
		switch scope {
		case ScopeSingle:
		case ScopeSeries:
			// Resolve siblings before the target disappears.
			for _, ev := range series.FindRelated(target, s.Events()) {
				ids = append(ids, ev.ID)
			}
		default:
			appLog.Debug("delete cancelled", "id", target.ID)
			return out, ErrCancelled
		}
	}

	for _, victim := range ids {
		if err := s.store.Delete(ctx, victim); err != nil {
			return out, s.fail("delete", err, NoticeDeleteErr,
				"id", victim, "requested", len(ids), "deleted", len(out.Deleted))
		}
		out.Deleted = append(out.Deleted, victim)
	}
	appLog.Info("events deleted", "id", target.ID, "count", len(out.Deleted))

	return s.finish(ctx, out, NoticeDeleted)
}

// Move changes the date of one event. Moving to the same date is a no-op.
// Siblings are never touched and no conflict check is made.
func (s *Service) Move(ctx context.Context, id string, to model.Date) (Outcome, error) {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var out Outcome
	target, ok := s.Get(id)
	if !ok {
		return out, model.ErrEventNotFound
	}
	if !to.IsValid() {
		return out, model.NewValidationError("date", model.MsgRequired)
	}
	if target.Date == to {
		out.Unchanged = true
		return out, nil
	}

	moved := target
	moved.Date = to
	ev, err := s.store.Update(ctx, target.ID, moved)
	if err != nil {
		return out, s.fail("move", err, NoticeSaveFail, "id", target.ID, "to", to.String())
	}
	appLog.Info("event moved", "id", ev.ID, "from", target.Date.String(), "to", to.String())
	out.Saved = []model.Event{ev}

	return s.finish(ctx, out, NoticeMoved)
}

// Refresh re-reads the collection from the store.
func (s *Service) Refresh(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()
	return s.refresh(ctx)
}

func (s *Service) refresh(ctx context.Context) error {
	events, err := s.store.List(ctx)
	if err != nil {
		return s.fail("list", err, NoticeLoadFail)
	}
	if events == nil {
		events = make([]model.Event, 0)
	}

	s.mu.Lock()
	s.events = events
	s.loaded = true
	s.mu.Unlock()

	appLog.Debug("events refreshed", "count", len(events))
	return nil
}

// finish re-reads the collection after a successful write and reports it.
func (s *Service) finish(ctx context.Context, out Outcome, notice string) (Outcome, error) {
	if err := s.refresh(ctx); err != nil {
		return out, err
	}
	out.Notice = notice
	s.notify(notice, false)
	return out, nil
}

func (s *Service) confirmConflicts(ctx context.Context, p Prompter, f model.EventForm, conflicts []model.Event) error {
	if len(conflicts) == 0 {
		return nil
	}
	ok, err := p.ProceedDespite(ctx, f, conflicts)
	if err != nil {
		return err
	}
	if !ok {
		appLog.Debug("save cancelled on conflict", "title", f.Title, "conflicts", len(conflicts))
		return ErrCancelled
	}
	appLog.Info("saving despite conflicts", "title", f.Title, "conflicts", len(conflicts))
	return nil
}

// fail reports a failed round trip. An event the store no longer has is
// returned as model.ErrEventNotFound rather than a PersistenceError.
func (s *Service) fail(op string, err error, notice string, kv ...any) error {
	if errors.Is(err, model.ErrEventNotFound) {
		appLog.Warn("persistence "+op+": event missing from store", append(kv, "err", err.Error())...)
		s.notify(notice, true)
		return err
	}
	appLog.Error("persistence "+op+" failed", err, kv...)
	s.notify(notice, true)
	return &PersistenceError{Op: op, Err: err}
}

func (s *Service) notify(msg string, failure bool) {
	if s.notifier != nil {
		s.notifier.Notify(Notice{Message: msg, Failure: failure})
	}
}

// orCancel treats a missing prompter as one that declines everything.
func orCancel(p Prompter) Prompter {
	if p == nil {
		return Answers{Scope: ScopeCancel}
	}
	return p
}

// isRecurring reports whether edits and deletes of ev need a scope prompt.
func isRecurring(ev model.Event) bool {
	return ev.Repeat.Type != "" && ev.Repeat.Type != model.RepeatNone
}
