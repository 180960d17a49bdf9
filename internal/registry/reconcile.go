package registry

import (
	"errors"
	"fmt"
	"slices"

	"github.com/sadopc/tooldb/internal/store"
	"github.com/sadopc/tooldb/internal/tooltable"
)

// ReconcileReport lists what a reconciliation pass changed.
type ReconcileReport struct {
	Added   []int
	Updated []int
	Deleted []int
	Failed  []error
}

// Changed reports whether any row was added, updated or deleted.
func (rep ReconcileReport) Changed() bool {
	return len(rep.Added)+len(rep.Updated)+len(rep.Deleted) > 0
}

// Err joins every failure of the pass.
func (rep ReconcileReport) Err() error {
	return errors.Join(rep.Failed...)
}

// Refresh reads the authoritative tool list and reconciles against it.
func (r *Registry) Refresh() ReconcileReport {
	records, err := r.source.GetToolList()
	if err != nil {
		r.log.Error("read tool table failed", "err", err)
		return ReconcileReport{Failed: []error{fmt.Errorf("read tool table: %w", err)}}
	}
	return r.Reconcile(records)
}

// Reconcile makes the registry match records: unknown tool numbers get new
// row pairs, known ones are updated in place, and tool numbers absent from
// records are deleted. Store failures are logged and skipped.
func (r *Registry) Reconcile(records []tooltable.Record) ReconcileReport {
	var rep ReconcileReport
	fail := func(err error) {
		r.log.Error("reconcile", "err", err)
		rep.Failed = append(rep.Failed, err)
	}

	incoming := make(map[int]struct{}, len(records))
	for _, rec := range records {
		rec = rec.Normalized()
		incoming[rec.Tool] = struct{}{}

		row, ok := r.FindRowByToolNumber(rec.Tool)
		if !ok {
			if err := r.addRow(rec); err != nil {
				fail(err)
				continue
			}
			rep.Added = append(rep.Added, rec.Tool)
			continue
		}
		cur := r.offsets[row]
		if cur.Record() == rec {
			continue
		}
		if err := r.store.UpdateOffset(cur.ID, rec); err != nil {
			fail(err)
			continue
		}
		r.offsets[row] = withRecord(cur, rec)
		rep.Updated = append(rep.Updated, rec.Tool)
	}

	// Highest row first so earlier removals cannot shift later indexes.
	var stale []int
	for i, o := range r.offsets {
		if _, keep := incoming[o.Tool]; !keep {
			stale = append(stale, i)
		}
	}
	slices.Reverse(stale)
	for _, row := range stale {
		o := r.offsets[row]
		r.log.Debug("deleting tool", "tool", o.Tool, "row", row)
		if err := r.store.DeleteToolRows(o.ID); err != nil {
			fail(err)
			continue
		}
		rep.Deleted = append(rep.Deleted, o.Tool)
	}

	if err := r.reload(); err != nil {
		fail(err)
	} else {
		r.repairPairs(fail)
	}

	r.known = incoming
	if rep.Changed() {
		r.log.Debug("reconciled", "added", rep.Added, "updated", rep.Updated, "deleted", rep.Deleted)
	}
	return rep
}

// addRow inserts an offsets row and its tools row and appends them to the
// cache so duplicates later in the same pass update instead of inserting.
func (r *Registry) addRow(rec tooltable.Record) error {
	id, err := r.store.InsertOffset(rec)
	if err != nil {
		return err
	}
	r.rows[rec.Tool] = len(r.offsets)
	r.offsets = append(r.offsets, withRecord(store.ToolOffset{ID: id}, rec))
	if err := r.store.InsertMeta(id, rec.Tool); err != nil {
		return err
	}
	return nil
}

// repairPairs restores the 1:1 idn pairing after partial failures: offsets
// rows without a tools row get one, and orphaned tools rows are removed.
func (r *Registry) repairPairs(fail func(error)) {
	metaIDs := make(map[int64]bool, len(r.meta))
	for _, m := range r.meta {
		metaIDs[m.ID] = true
	}
	offsetIDs := make(map[int64]bool, len(r.offsets))
	changed := false
	for _, o := range r.offsets {
		offsetIDs[o.ID] = true
		if !metaIDs[o.ID] {
			if err := r.store.InsertMeta(o.ID, o.Tool); err != nil {
				fail(err)
				continue
			}
			changed = true
		}
	}
	for _, m := range r.meta {
		if !offsetIDs[m.ID] {
			if err := r.store.DeleteMeta(m.ID); err != nil {
				fail(err)
				continue
			}
			changed = true
		}
	}
	if changed {
		if err := r.reload(); err != nil {
			fail(err)
		}
	}
}

func withRecord(o store.ToolOffset, rec tooltable.Record) store.ToolOffset {
	o.Tool = rec.Tool
	o.Pocket = rec.Pocket
	o.Offsets = rec.Offsets
	o.Diameter = rec.Diameter
	o.I = rec.I
	o.J = rec.J
	o.Q = rec.Q
	o.Comment = rec.Comment
	return o
}
