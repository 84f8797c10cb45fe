package entity

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/n-r-w/zfcore/dataobject"
	"github.com/n-r-w/zfcore/dispatch"
	"github.com/n-r-w/zfcore/schema"
	"github.com/n-r-w/zfcore/zferr"
)

// AccessRights is the cached direct/relational access-rights pair a load
// returns alongside the container contents (spec.md §6, §7).
type AccessRights struct {
	Direct     bool
	Relational bool
}

// GetResponse is what a Collaborator's Get returns on success: a fully
// populated ModuleDataObject sharing the requesting Model's schema, plus
// the access-rights pair and any warnings the collaborator attached.
type GetResponse struct {
	Data         *dataobject.ModuleDataObject
	AccessRights AccessRights
	Warnings     []string
}

// WriteResponse is what a Collaborator's Write returns on success.
type WriteResponse struct {
	// PersistentUID is set only when a temporary entity was assigned a
	// persistent identity by this save.
	PersistentUID Uid
	// WrittenProperties lists the properties the collaborator actually
	// persisted (it may be a subset of what was requested).
	WrittenProperties []schema.PropertyID
	// NonCriticalError records a secondary, non-fatal problem that does
	// not fail the save overall (spec.md §9 recovered feature).
	NonCriticalError error
}

// Collaborator is the database collaborator contract from spec.md §6,
// shaped around Go values instead of wire messages: store.MySQLStore is
// the concrete implementation this core ships with.
type Collaborator interface {
	Get(ctx context.Context, uid Uid, properties []schema.PropertyID, params map[string]any) (GetResponse, error)
	Write(ctx context.Context, uid Uid, properties []schema.PropertyID, data *dataobject.ModuleDataObject, params map[string]any, byUser bool) (WriteResponse, error)
	Remove(ctx context.Context, uid Uid, params map[string]any) error
}

// LoadOptions configures Load. Reload forces a command even when every
// requested property is already initialized and not invalidated.
type LoadOptions struct {
	Reload bool
	Params map[string]any
}

// Outcome reports what a Load/Save/Remove call actually did, matching
// spec.md §4.7's Ignored/Queued/Merged vocabulary.
type Outcome int

const (
	// Ignored means nothing needed doing: no command was queued.
	Ignored Outcome = iota
	// Queued means a fresh command was appended to the queue.
	Queued
	// Merged means the request was folded into an already-queued command.
	Merged
)

func (o Outcome) String() string {
	switch o {
	case Queued:
		return "queued"
	case Merged:
		return "merged"
	default:
		return "ignored"
	}
}

// Model implements the load/save/remove persistence state machine on top
// of EntityObject (C7): command coalescing through dispatch.CommandProcessor,
// keyed request/response through dispatch.MessageProcessor, and the
// property-slot state machine of spec.md §4.7.
type Model struct {
	*EntityObject

	ds           *schema.DataStructure
	collaborator Collaborator
	logger       *zap.Logger

	detached bool
	original *dataobject.ModuleDataObject

	loading         bool
	loadingComplete bool
	saving          bool
	removed         bool
	keepFlag        bool

	nonCriticalSaveErr error

	outbox []outboxEntry

	// CustomLoad/CustomSave/CustomRemove let an embedder implement the
	// I/O itself; the state machine and signals are identical, but no
	// message round-trip through Collaborator is generated. The hook
	// must eventually call FinishCustomLoad/Save/Remove.
	CustomLoad   func(ctx context.Context, m *Model, properties []schema.PropertyID)
	CustomSave   func(ctx context.Context, m *Model, properties []schema.PropertyID)
	CustomRemove func(ctx context.Context, m *Model)

	// StandardLoadExtension/StandardAfterSaveExtension run the standard
	// path first and then invoke the hook, rather than replacing it.
	StandardLoadExtension        func(m *Model)
	StandardAfterSaveExtension   func(m *Model)
	OnStartLoad, OnStartSave     func()
	OnStartRemove                func()
	OnFinishLoad, OnFinishRemove func(err error)
	OnFinishSave                 func(err error, written []schema.PropertyID, newUID Uid)
	OnEntityChanged              func(old, newUID Uid)
}

// Option configures a Model at construction time.
type Option func(*Model)

// Detached marks the model as opened for editing: it snapshots the
// container right after load so IsDirtyFromOriginal can compare against
// the pre-edit state, rather than sharing a live cache entry.
func Detached() Option { return func(m *Model) { m.detached = true } }

// Keep pins the model so it is not evicted from a shared cache when its
// last external strong reference drops. Constructor-only per spec.md §9.
func Keep() Option { return func(m *Model) { m.keepFlag = true } }

// WithLogger attaches a zap logger; nil-safe default is zap.NewNop().
func WithLogger(logger *zap.Logger) Option { return func(m *Model) { m.logger = logger } }

var saveMerge dispatch.MergeFunc = func(existing, incoming any) any {
	return unionProperties(existing.([]schema.PropertyID), incoming.([]schema.PropertyID))
}

var loadMerge dispatch.MergeFunc = saveMerge

var removeMerge dispatch.MergeFunc = func(existing, incoming any) any { return existing }

func unionProperties(a, b []schema.PropertyID) []schema.PropertyID {
	seen := make(map[schema.PropertyID]bool, len(a)+len(b))
	out := make([]schema.PropertyID, 0, len(a)+len(b))
	for _, list := range [][]schema.PropertyID{a, b} {
		for _, p := range list {
			if !seen[p] {
				seen[p] = true
				out = append(out, p)
			}
		}
	}
	return out
}

// NewModel constructs a Model of kind ds bound to uid, persisting through
// collaborator.
func NewModel(ds *schema.DataStructure, uid Uid, collaborator Collaborator, opts ...Option) *Model {
	m := &Model{ds: ds, collaborator: collaborator, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(m)
	}
	mergeFuncs := map[string]dispatch.MergeFunc{"load": loadMerge, "save": saveMerge, "remove": removeMerge}
	m.EntityObject = newEntityObject(ds, uid, m.send, mergeFuncs)
	return m
}

// IsLoading reports whether a load command is currently executing.
func (m *Model) IsLoading() bool { return m.loading }

// IsLoadingComplete is true only once a load command has both executed
// and the finish-load signal has been delivered to observers — distinct
// from IsLoading, which clears as soon as the command finishes executing
// but before OnFinishLoad runs.
func (m *Model) IsLoadingComplete() bool { return m.loadingComplete }

// IsSaving reports whether a save command is currently executing.
func (m *Model) IsSaving() bool { return m.saving }

// IsRemoved reports whether a remove has completed successfully; further
// loads against this identity will fail at the collaborator.
func (m *Model) IsRemoved() bool { return m.removed }

// NonCriticalSaveError reports a secondary problem from the most recent
// save that did not fail it outright. Cleared at the start of every save.
func (m *Model) NonCriticalSaveError() error { return m.nonCriticalSaveErr }

// IsKept reports whether Keep() was passed at construction.
func (m *Model) IsKept() bool { return m.keepFlag }

// slotState reports the persistence state of property p per spec.md
// §4.7, derived directly from the live container rather than kept as
// separate bookkeeping.
type slotState int

const (
	slotUninitialized slotState = iota
	slotClean
	slotInvalidated
	slotDirty
)

func (m *Model) slotState(p schema.PropertyID) slotState {
	c := m.Container()
	if !c.IsInitialized(p) {
		return slotUninitialized
	}
	if c.IsChanged(p) {
		return slotDirty
	}
	if c.IsInvalidated(p) {
		return slotInvalidated
	}
	return slotClean
}

// Load enqueues a GetEntity command for properties if at least one of
// them is uninitialized or invalidated, or opts.Reload forces it;
// otherwise the call is Ignored. A DBReadIgnored property is always
// excluded — it is neither reloaded nor ever reported stale, regardless
// of any Collaborator plugged in. An equivalent already-queued command
// is Merged (the union of requested properties is taken).
func (m *Model) Load(ctx context.Context, opts LoadOptions, properties []schema.PropertyID) Outcome {
	var needed []schema.PropertyID
	for _, p := range properties {
		if prop := m.ds.Property(p); prop != nil && prop.Options.DBReadIgnored {
			continue
		}
		if opts.Reload {
			needed = append(needed, p)
			continue
		}
		switch m.slotState(p) {
		case slotUninitialized, slotInvalidated:
			needed = append(needed, p)
		}
	}
	if len(needed) == 0 {
		return Ignored
	}

	merged := m.Commands().Submit(dispatch.CommandKey{Key: "load"}, needed)
	if merged {
		return Merged
	}
	return Queued
}

// Save enqueues a WriteEntity command for every currently-dirty property
// (DBWriteIgnored properties never included); Ignored if nothing is
// dirty. An equivalent already-queued save is Merged.
func (m *Model) Save(ctx context.Context) Outcome {
	dirty := m.dirtyProperties()
	if len(dirty) == 0 {
		return Ignored
	}
	merged := m.Commands().Submit(dispatch.CommandKey{Key: "save"}, dirty)
	if merged {
		return Merged
	}
	return Queued
}

// Remove enqueues a single-shot RemoveEntity command.
func (m *Model) Remove(ctx context.Context) Outcome {
	merged := m.Commands().Submit(dispatch.CommandKey{Key: "remove"}, nil)
	if merged {
		return Merged
	}
	return Queued
}

func (m *Model) dirtyProperties() []schema.PropertyID {
	var dirty []schema.PropertyID
	for _, p := range m.ds.Properties() {
		if p.Options.DBWriteIgnored {
			continue
		}
		if p.Kind == schema.KindDataset {
			if t := m.Tracking(p.ID); t != nil && !t.IsEmpty() {
				dirty = append(dirty, p.ID)
			}
			continue
		}
		if m.slotState(p.ID) == slotDirty {
			dirty = append(dirty, p.ID)
		}
	}
	return dirty
}

// pump drives the command queue: if nothing is currently executing, it
// starts the command at the front of the queue.
func (m *Model) pump(ctx context.Context) {
	cmd := m.Commands().Next()
	if cmd == nil {
		return
	}
	switch cmd.Key.Key {
	case "load":
		m.runLoad(ctx, cmd.Payload.([]schema.PropertyID))
	case "save":
		m.runSave(ctx, cmd.Payload.([]schema.PropertyID))
	case "remove":
		m.runRemove(ctx)
	}
}

func (m *Model) runLoad(ctx context.Context, properties []schema.PropertyID) {
	m.loading = true
	m.loadingComplete = false
	if m.OnStartLoad != nil {
		m.OnStartLoad()
	}
	if m.CustomLoad != nil {
		m.CustomLoad(ctx, m, properties)
		return
	}
	m.PostMessageCommand("load", properties, m.onLoadFeedback)
}

func (m *Model) onLoadFeedback(_ string, response any) {
	env := response.(loadEnvelope)
	m.finishLoad(&env.resp, env.err)
}

// FinishCustomLoad signals that a CustomLoad hook has completed.
func (m *Model) FinishCustomLoad(err error) { m.finishLoad(nil, err) }

func (m *Model) finishLoad(resp *GetResponse, err error) {
	m.loading = false
	if resp != nil && err == nil && resp.Data != nil {
		m.Container().BlockAllProperties()
		err = m.CopyFrom(resp.Data, dataobject.DatasetReplace, nil, nil)
		m.Container().UnblockAllProperties()
	}
	if err == nil {
		m.ResetTracking()
		if m.detached {
			m.original = m.snapshot()
		}
	}
	if m.StandardLoadExtension != nil {
		m.StandardLoadExtension(m)
	}
	if m.OnFinishLoad != nil {
		m.OnFinishLoad(err)
	}
	m.loadingComplete = true
	m.Commands().FinishCommand()
	m.pump(context.Background())
}

func (m *Model) runSave(ctx context.Context, properties []schema.PropertyID) {
	m.saving = true
	m.nonCriticalSaveErr = nil
	if m.OnStartSave != nil {
		m.OnStartSave()
	}
	if m.CustomSave != nil {
		m.CustomSave(ctx, m, properties)
		return
	}
	m.PostMessageCommand("save", properties, m.onSaveFeedback)
}

func (m *Model) onSaveFeedback(_ string, response any) {
	env := response.(saveEnvelope)
	m.finishSave(env.written, &env.resp, env.err)
}

// FinishCustomSave signals that a CustomSave hook has completed, having
// written writtenProperties itself.
func (m *Model) FinishCustomSave(writtenProperties []schema.PropertyID, newUID Uid, err error) {
	var resp *WriteResponse
	if err == nil {
		resp = &WriteResponse{PersistentUID: newUID, WrittenProperties: writtenProperties}
	}
	m.finishSave(writtenProperties, resp, err)
}

func (m *Model) finishSave(requested []schema.PropertyID, resp *WriteResponse, err error) {
	m.saving = false
	wasTemporary := m.Uid().Kind() == KindTemporary

	written := requested
	if resp != nil && len(resp.WrittenProperties) > 0 {
		written = resp.WrittenProperties
	}

	var oldUID Uid
	becamePersistent := false
	if err == nil {
		for _, p := range written {
			m.Container().ClearChanged(p)
		}
		m.ResetTracking()

		if wasTemporary && resp != nil && resp.PersistentUID.IsValid() {
			oldUID = m.Uid()
			m.setUid(resp.PersistentUID)
			becamePersistent = true
		}
	}

	if resp != nil {
		m.nonCriticalSaveErr = resp.NonCriticalError
	}

	if m.StandardAfterSaveExtension != nil {
		m.StandardAfterSaveExtension(m)
	}

	newUID := m.Uid()
	if m.OnFinishSave != nil {
		m.OnFinishSave(err, written, newUID)
	}
	if becamePersistent && m.OnEntityChanged != nil {
		m.OnEntityChanged(oldUID, newUID)
	}
	m.Commands().FinishCommand()
	m.pump(context.Background())
}

func (m *Model) runRemove(ctx context.Context) {
	if m.OnStartRemove != nil {
		m.OnStartRemove()
	}
	if m.CustomRemove != nil {
		m.CustomRemove(ctx, m)
		return
	}
	m.PostMessageCommand("remove", nil, m.onRemoveFeedback)
}

func (m *Model) onRemoveFeedback(_ string, response any) {
	env := response.(removeEnvelope)
	m.finishRemove(env.err)
}

// FinishCustomRemove signals that a CustomRemove hook has completed.
func (m *Model) FinishCustomRemove(err error) { m.finishRemove(err) }

func (m *Model) finishRemove(err error) {
	if err == nil {
		m.removed = true
	}
	if m.OnFinishRemove != nil {
		m.OnFinishRemove(err)
	}
	m.Commands().FinishCommand()
	m.pump(context.Background())
}

type loadEnvelope struct {
	resp GetResponse
	err  error
}

type saveEnvelope struct {
	resp    WriteResponse
	written []schema.PropertyID
	err     error
}

type removeEnvelope struct{ err error }

// outboxEntry is a message handed to send but not yet delivered to the
// collaborator — the model's only asynchrony point (spec.md §5: "the
// entity object's persistence state machine ... simply returns control
// to the event loop while a message is in flight").
type outboxEntry struct {
	id      uint64
	key     dispatch.MessageKey
	message any
}

// send is the dispatch.Sender wired into EntityObject's MessageProcessor.
// It does not invoke the collaborator itself — it only records the
// outgoing message, so that two Load/Save calls issued before a
// DeliverNext/Flush can still observe CommandProcessor/MessageProcessor
// coalescing (spec.md §8 invariant 9, scenario D) instead of the first
// call's response racing ahead synchronously. A production embedder
// posts DeliverNext calls from its real event loop as responses arrive;
// this module drives them explicitly via Flush for deterministic tests.
func (m *Model) send(id uint64, key dispatch.MessageKey, _ any, message any) {
	m.outbox = append(m.outbox, outboxEntry{id: id, key: key, message: message})
}

// DeliverNext first starts the command at the front of the queue if
// none is executing (this is also when a CustomLoad/CustomSave/
// CustomRemove hook runs), then invokes the collaborator for the oldest
// undelivered message and feeds its response back into the
// MessageProcessor. Reports whether there was anything to deliver.
func (m *Model) DeliverNext(ctx context.Context) bool {
	m.pump(ctx)
	if len(m.outbox) == 0 {
		return false
	}
	e := m.outbox[0]
	m.outbox = m.outbox[1:]

	switch e.key {
	case "load":
		props := e.message.([]schema.PropertyID)
		resp, err := m.collaborator.Get(ctx, m.Uid(), props, nil)
		m.HandleMessageFeedback(e.id, loadEnvelope{resp: resp, err: err})
	case "save":
		props := e.message.([]schema.PropertyID)
		resp, err := m.collaborator.Write(ctx, m.Uid(), props, m.ModuleDataObject, nil, true)
		m.HandleMessageFeedback(e.id, saveEnvelope{resp: resp, written: props, err: err})
	case "remove":
		err := m.collaborator.Remove(ctx, m.Uid(), nil)
		m.HandleMessageFeedback(e.id, removeEnvelope{err: err})
	default:
		m.logger.Warn("dispatch: unknown message key", zap.String("key", string(e.key)))
	}
	return true
}

// Flush drives DeliverNext to completion, the "nested event loop" a
// synchronous load/save/remove call spins per spec.md §4.7. Safe to call
// even when the outbox is empty.
func (m *Model) Flush(ctx context.Context) {
	for m.DeliverNext(ctx) {
	}
}

// LoadSync enqueues properties exactly like Load and then drives the
// event loop to completion before returning, reporting the load's
// terminal error (if any).
func (m *Model) LoadSync(ctx context.Context, opts LoadOptions, properties []schema.PropertyID) (Outcome, error) {
	outcome := m.Load(ctx, opts, properties)
	if outcome == Ignored {
		return outcome, nil
	}
	var loadErr error
	prev := m.OnFinishLoad
	m.OnFinishLoad = func(err error) {
		loadErr = err
		if prev != nil {
			prev(err)
		}
	}
	m.Flush(ctx)
	m.OnFinishLoad = prev
	return outcome, loadErr
}

// SaveSync enqueues a save exactly like Save and then drives the event
// loop to completion before returning, reporting the save's terminal
// error (if any).
func (m *Model) SaveSync(ctx context.Context) (Outcome, error) {
	outcome := m.Save(ctx)
	if outcome == Ignored {
		return outcome, nil
	}
	var saveErr error
	prev := m.OnFinishSave
	m.OnFinishSave = func(err error, written []schema.PropertyID, newUID Uid) {
		saveErr = err
		if prev != nil {
			prev(err, written, newUID)
		}
	}
	m.Flush(ctx)
	m.OnFinishSave = prev
	return outcome, saveErr
}

// snapshot returns a detached copy of the model's current container
// contents, used as the "original data" baseline a detached model
// compares against to answer "has unsaved data?".
func (m *Model) snapshot() *dataobject.ModuleDataObject {
	snap := dataobject.New(m.ds)
	if err := snap.CopyFrom(m.ModuleDataObject, dataobject.DatasetReplace, nil, nil); err != nil {
		zferr.MustNot(fmt.Errorf("entity: snapshot copy: %w", err))
	}
	return snap
}

// Original returns the detached model's post-load snapshot, or nil for
// a non-detached model (which shares the live cache instead).
func (m *Model) Original() *dataobject.ModuleDataObject { return m.original }

// IsDirtyFromOriginal reports whether the live container has diverged
// from the detached model's original snapshot. Always false for a
// non-detached model, which has no snapshot to compare against.
func (m *Model) IsDirtyFromOriginal(ignored map[schema.PropertyID]bool, policy BinaryPolicy) (bool, error) {
	if m.original == nil {
		return false, nil
	}
	_, has, err := FindDiff(m.Container(), m.original.Container(), m.ds, ignored, policy, true)
	return has, err
}
