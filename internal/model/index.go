package model

import "fmt"

// InsertFragment adds a brand-new fragment (backed by an empty Buffer) at
// the end of the serialization order. internal/fusefs does not call it:
// mknod is accepted only under append/, where it creates a PendingAppend.
func (m *Model) InsertFragment(id, comment string) (*Fragment, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	if _, exists := m.byID[id]; exists {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyExists, id)
	}

	f := newFragment(id, comment, newEmptyBacking(), m.allocIno(), m.allocIno(), m.clock.Now())
	m.fragments = append(m.fragments, f)
	m.byID[id] = f
	m.markDirty()
	m.RefreshSummaries()
	return f, nil
}

// RenameFragment changes a fragment's id, keeping its position in the
// serialization order and invalidating any subfragments keyed on the old
// id (they are recomputed lazily on next lookup). If newID collides with
// an existing fragment, the collision is resolved by evicting that
// fragment first unless NoOverwrite forbids it, per spec.md §4.4's
// rename contract.
func (m *Model) RenameFragment(oldID, newID string) error {
	f, ok := m.byID[oldID]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntry, oldID)
	}
	if oldID == newID {
		return nil
	}
	if err := validateID(newID); err != nil {
		return err
	}
	if existing, exists := m.byID[newID]; exists {
		if m.opts.NoOverwrite {
			return fmt.Errorf("%w: %q", ErrAccessDenied, newID)
		}
		m.evictFragment(existing)
	}

	delete(m.byID, oldID)
	f.rename(newID)
	m.byID[newID] = f
	m.invalidateSubfragmentsFor(oldID)
	m.markDirty()
	m.RefreshSummaries()
	return nil
}

// RemoveFragment deletes a fragment entirely (unlink under fasta/ or
// seqs/).
func (m *Model) RemoveFragment(id string) error {
	f, ok := m.byID[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntry, id)
	}
	m.evictFragment(f)
	m.markDirty()
	m.RefreshSummaries()
	return nil
}

// evictFragment drops f from the fragment list, the id index, and any
// subfragment cached against it, without touching dirty/summary state
// (callers that are about to insert a replacement do that themselves).
func (m *Model) evictFragment(f *Fragment) {
	for i, cand := range m.fragments {
		if cand == f {
			m.fragments = append(m.fragments[:i], m.fragments[i+1:]...)
			break
		}
	}
	delete(m.byID, f.id)
	m.invalidateSubfragmentsFor(f.id)
}

// FragmentByID returns the fragment owning id, if any.
func (m *Model) FragmentByID(id string) (*Fragment, bool) {
	f, ok := m.byID[id]
	return f, ok
}

// FragmentFileByName resolves a basename under fasta/ to its owning
// fragment and which view (.fa vs .seq) it names.
func (m *Model) FragmentFileByName(name string) (f *Fragment, file SyntheticFile, ok bool) {
	for _, cand := range m.fragments {
		if sf, ok := cand.FileByName(name); ok {
			return cand, sf, true
		}
	}
	return nil, SyntheticFile{}, false
}

func (m *Model) invalidateSubfragmentsFor(id string) {
	for key, sf := range m.subfragByKey {
		if sf.ParentID == id {
			delete(m.subfragByKey, key)
			delete(m.subfragByIno, sf.Ino)
		}
	}
}
