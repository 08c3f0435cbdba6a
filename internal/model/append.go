package model

import (
	"bytes"
	"fmt"

	"github.com/delehef/fusta/internal/backing"
	"github.com/delehef/fusta/internal/fastaio"
)

// CreatePendingAppend reserves a slot for a file created under append/,
// per spec.md §4.5. Materialization happens on Release, never before, so
// a half-written upload can never corrupt the fragment set. The two
// inodes reserved here are handed to the first fragment materialized
// from this append, so a single-record append keeps a stable identity
// across the mknod-to-release lifecycle.
func (m *Model) CreatePendingAppend(basename string) (*PendingAppend, error) {
	if _, exists := m.byID[basename]; exists && m.opts.NoOverwrite {
		return nil, fmt.Errorf("%w: %q", ErrAlreadyExists, basename)
	}
	if existing, exists := m.pendingByName[basename]; exists {
		delete(m.pendingAppends, existing.Ino)
	}
	p := &PendingAppend{
		Ino:            m.allocIno(),
		Basename:       basename,
		buf:            backing.NewBuffer(nil),
		ReservedFaIno:  m.allocIno(),
		ReservedSeqIno: m.allocIno(),
	}
	m.pendingAppends[p.Ino] = p
	m.pendingByName[basename] = p
	return p, nil
}

// PendingByName looks up an in-flight append by its append/ basename.
func (m *Model) PendingByName(name string) (*PendingAppend, bool) {
	p, ok := m.pendingByName[name]
	return p, ok
}

// Write splices data at offset into an in-flight append buffer. The staged
// bytes are FASTA text, header lines included, so they are not checked
// here; each record's id and body are checked on release.
func (p *PendingAppend) Write(data []byte, offset int) (int, error) {
	end := offset + len(data)
	if end > p.buf.Len() {
		p.buf.ExtendTo(end)
	}
	p.buf.WriteAt(data, offset)
	return len(data), nil
}

// Chunk reads back bytes already staged in an in-flight append, used to
// answer a read against a file still open under append/.
func (p *PendingAppend) Chunk(offset, size int) []byte { return p.buf.Chunk(offset, size) }

// Len reports how many bytes are currently staged.
func (p *PendingAppend) Len() int { return p.buf.Len() }

// SetSize truncates or zero-extends the staged buffer to exactly size
// bytes, as setattr on a file open under append/ requires.
func (p *PendingAppend) SetSize(size int) { p.buf.Truncate(size) }

// ReleasePendingAppend is called when the last handle onto a file under
// append/ is released: it parses the staged bytes as FASTA and, for each
// record, either skips it (its id already exists and overwrite is
// forbidden) or replaces any existing fragment of that id, per spec.md
// §4.4's release contract. A parse failure, an invalid id, or a body byte
// outside the FASTA-permissible set aborts the whole call, leaving the
// fragment set as it stood before the parse began; a malformed append
// never partially lands.
func (m *Model) ReleasePendingAppend(name string) error {
	p, ok := m.pendingByName[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoSuchEntry, name)
	}
	delete(m.pendingAppends, p.Ino)
	delete(m.pendingByName, name)

	raw := p.buf.Snapshot()
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}

	type staged struct {
		id, comment string
		body        []byte
	}
	var batch []staged

	err := fastaio.ReadBytesWithBytes(raw, func(d fastaio.Descriptor) error {
		if err := validateID(d.ID); err != nil {
			return err
		}
		if err := validateWriteBytes(d.Raw); err != nil {
			return err
		}
		body := make([]byte, len(d.Raw))
		copy(body, d.Raw)
		batch = append(batch, staged{id: d.ID, comment: d.Comment, body: body})
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidData, err)
	}
	if len(batch) == 0 {
		return nil
	}

	now := m.clock.Now()
	faIno, seqIno := p.ReservedFaIno, p.ReservedSeqIno
	for _, s := range batch {
		if existing, exists := m.byID[s.id]; exists {
			if m.opts.NoOverwrite {
				continue
			}
			m.evictFragment(existing)
		}
		f := newFragment(s.id, s.comment, backing.NewBuffer(s.body), faIno, seqIno, now)
		m.fragments = append(m.fragments, f)
		m.byID[s.id] = f
		// Only the first materialized fragment gets the reserved pair;
		// any further records in a multi-sequence append get fresh ones.
		faIno, seqIno = m.allocIno(), m.allocIno()
	}

	m.markDirty()
	m.RefreshSummaries()
	return nil
}
