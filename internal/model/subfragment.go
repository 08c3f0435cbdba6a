package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSubfragmentName splits a get/ directory entry of the form
// "ID" or "ID:START-END" into its parts. START and END are the 1-based,
// inclusive coordinates named in the lookup grammar; they are translated
// here to a 0-based half-open [start, end) window, clamping a negative
// start to 0 and an inverted end up to start (an empty window) rather
// than failing, per spec.md §4.5-§4.6. A bare "ID" names the whole body.
// Only a malformed (non-numeric) range is a hard parse error.
func ParseSubfragmentName(name string) (id string, start, end int, whole bool, err error) {
	idx := strings.LastIndexByte(name, ':')
	if idx < 0 {
		return name, 0, 0, true, nil
	}

	id = name[:idx]
	rangePart := name[idx+1:]
	dash := strings.IndexByte(rangePart, '-')
	if dash < 0 {
		return "", 0, 0, false, fmt.Errorf("%w: malformed range in %q", ErrInvalidData, name)
	}

	oneStart, err := strconv.Atoi(rangePart[:dash])
	if err != nil {
		return "", 0, 0, false, fmt.Errorf("%w: malformed start in %q", ErrInvalidData, name)
	}
	oneEnd, err := strconv.Atoi(rangePart[dash+1:])
	if err != nil {
		return "", 0, 0, false, fmt.Errorf("%w: malformed end in %q", ErrInvalidData, name)
	}

	start = oneStart - 1
	if start < 0 {
		start = 0
	}
	end = oneEnd
	if end < start {
		end = start
	}
	return id, start, end, false, nil
}

func subfragmentKey(id string, start, length int) string {
	return fmt.Sprintf("%s:%d:%d", id, start, length)
}

// LookupSubfragment resolves (and, on first lookup, lazily registers) a
// get/ directory entry. Out-of-range requests are clamped to the parent's
// available newline-free body, per spec.md §4.6's clamping rule rather than an error,
// since the kernel issues getattr immediately after a successful lookup
// and a shrinking window would otherwise race a concurrent write.
func (m *Model) LookupSubfragment(name string) (*Subfragment, error) {
	id, start, end, whole, err := ParseSubfragmentName(name)
	if err != nil {
		return nil, err
	}

	f, ok := m.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchEntry, id)
	}

	bodyLen := len(f.PureChunk(0, f.DataSize()))
	if whole {
		start, end = 0, bodyLen
	} else {
		if start > bodyLen {
			start = bodyLen
		}
		if end > bodyLen {
			end = bodyLen
		}
	}
	length := end - start
	if length < 0 {
		length = 0
	}

	key := subfragmentKey(id, start, length)
	if sf, ok := m.subfragByKey[key]; ok {
		return sf, nil
	}

	sf := &Subfragment{Ino: m.allocIno(), ParentID: id, Start: start, Length: length}
	m.subfragByKey[key] = sf
	m.subfragByIno[sf.Ino] = sf
	return sf, nil
}

// SubfragmentChunk reads size bytes at offset from a subfragment's newline-free
// window, delegating to the parent fragment's PureChunk.
func (m *Model) SubfragmentChunk(sf *Subfragment, offset, size int) ([]byte, error) {
	f, ok := m.byID[sf.ParentID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNoSuchEntry, sf.ParentID)
	}
	if offset >= sf.Length {
		return nil, nil
	}
	if offset+size > sf.Length {
		size = sf.Length - offset
	}
	return f.PureChunk(sf.Start+offset, size), nil
}

// SubfragmentFile synthesizes the SyntheticFile record for a subfragment
// (these have no owned, persisted record since they are pure views).
func SubfragmentFile(sf *Subfragment) SyntheticFile {
	return SyntheticFile{
		Ino:   sf.Ino,
		Name:  fmt.Sprintf("%s:%d-%d", sf.ParentID, sf.Start, sf.Start+sf.Length),
		Size:  uint64(sf.Length),
		Mode:  fileMode(false),
		Class: ClassSubfragment,
	}
}
