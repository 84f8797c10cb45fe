// Package dataobject binds a container to a change processor and a
// highlight processor, adding typed convenience accessors and per-row
// change tracking on top of the plain reactive store.
package dataobject

import (
	"github.com/n-r-w/zfcore/change"
	"github.com/n-r-w/zfcore/container"
	"github.com/n-r-w/zfcore/highlight"
	"github.com/n-r-w/zfcore/rowid"
	"github.com/n-r-w/zfcore/schema"
)

// ModuleDataObject is the reusable core every entity object is built
// from: a container plus the two processors that turn its raw signals
// into semantic events and validation diagnostics, plus per-dataset
// TrackingID bookkeeping.
type ModuleDataObject struct {
	ds        *schema.DataStructure
	container *container.Container
	change    *change.Processor
	highlight *highlight.Processor

	tracking map[schema.PropertyID]*TrackingID
}

// New builds a ModuleDataObject over a fresh Container for ds, wiring
// the change processor as a container listener and itself as a change
// observer so TrackingID bookkeeping stays current automatically.
func New(ds *schema.DataStructure) *ModuleDataObject {
	c := container.New(ds)
	return newWithContainer(ds, c)
}

func newWithContainer(ds *schema.DataStructure, c *container.Container) *ModuleDataObject {
	mdo := &ModuleDataObject{
		ds:        ds,
		container: c,
		change:    change.NewProcessor(ds),
		highlight: highlight.NewProcessor(ds, c),
		tracking:  make(map[schema.PropertyID]*TrackingID),
	}
	for _, p := range ds.Properties() {
		if p.Kind == schema.KindDataset {
			mdo.tracking[p.ID] = NewTrackingID()
		}
	}
	c.AddListener(mdo.change)
	mdo.change.AddObserver(mdo)
	return mdo
}

// Container returns the backing container.
func (m *ModuleDataObject) Container() *container.Container { return m.container }

// Change returns the change processor observers can subscribe to.
func (m *ModuleDataObject) Change() *change.Processor { return m.change }

// Highlight returns the highlight processor.
func (m *ModuleDataObject) Highlight() *highlight.Processor { return m.highlight }

// Tracking returns the TrackingID accumulating dataset d's row changes
// since the last ResetTracking call. Returns nil if d is not a dataset.
func (m *ModuleDataObject) Tracking(d schema.PropertyID) *TrackingID {
	return m.tracking[d]
}

// ResetTracking clears every dataset's TrackingID, starting a fresh
// change-tracking window (called after a successful load or save).
func (m *ModuleDataObject) ResetTracking() {
	for _, t := range m.tracking {
		t.Reset()
	}
}

// The following methods implement change.Observer, updating TrackingID
// state in the mandated order: cell-change, then row-insert, then
// row-about-to-remove.

func (m *ModuleDataObject) DataInvalidate(schema.PropertyID)          {}
func (m *ModuleDataObject) InvalidateChanged(schema.PropertyID, bool) {}
func (m *ModuleDataObject) LanguageChanged(schema.PropertyID, string) {}
func (m *ModuleDataObject) PropertyInitialized(schema.PropertyID)     {}
func (m *ModuleDataObject) PropertyUninitialized(schema.PropertyID)   {}
func (m *ModuleDataObject) PropertyBlocked(schema.PropertyID)         {}
func (m *ModuleDataObject) PropertyUnblocked(schema.PropertyID)       {}
func (m *ModuleDataObject) AllBlocked()                               {}
func (m *ModuleDataObject) AllUnblocked()                             {}

func (m *ModuleDataObject) PropertyChanged(p schema.PropertyID) {
	m.highlight.RegisterCheck(p)
}

func (m *ModuleDataObject) DatasetCellChanged(rng change.CellRange) {
	if t := m.tracking[rng.Dataset]; t != nil {
		for col := rng.FromCol; col <= rng.ToCol; col++ {
			t.onCellChanged(rng.Row, col)
		}
	}
	m.highlight.RegisterCheck(rng.Dataset)
}

func (m *ModuleDataObject) RowAboutToInsert(schema.PropertyID, int) {}

func (m *ModuleDataObject) RowInserted(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if t := m.tracking[dataset]; t != nil {
		t.onRowInserted(id)
	}
	m.highlight.RegisterCheck(dataset)
}

func (m *ModuleDataObject) RowAboutToRemove(dataset schema.PropertyID, id rowid.RowID, pos int) {
	if t := m.tracking[dataset]; t != nil {
		t.onRowAboutToRemove(id)
	}
}

func (m *ModuleDataObject) RowRemoved(dataset schema.PropertyID, id rowid.RowID, pos int) {
	m.highlight.RegisterCheck(dataset)
}

func (m *ModuleDataObject) ModelAboutToReset(schema.PropertyID) {}

func (m *ModuleDataObject) ModelReset(dataset schema.PropertyID) {
	m.highlight.RegisterCheck(dataset)
}

func (m *ModuleDataObject) PropertyUpdated(schema.PropertyID, change.Action) {}

var _ change.Observer = (*ModuleDataObject)(nil)
