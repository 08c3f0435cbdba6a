package model

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

// RefreshSummaries rebuilds infos.txt, infos.csv, and labels.txt from the
// current fragment set. Called after every structural mutation so the
// three summary files are never observed stale, per spec.md §4.7.
func (m *Model) RefreshSummaries() {
	m.infosTxt.data = m.buildInfosTxt()
	m.infosTxt.file.Size = uint64(len(m.infosTxt.data))

	m.infosCsv.data = m.buildInfosCsv()
	m.infosCsv.file.Size = uint64(len(m.infosCsv.data))

	m.labelsTxt.data = m.buildLabelsTxt()
	m.labelsTxt.file.Size = uint64(len(m.labelsTxt.data))
}

// groupThousands renders n comma-grouped every three digits from the
// right, matching the original implementation's
// to_formatted_string(&Locale::en) thousands grouping recovered from
// original_source/.
func groupThousands(n int) string {
	s := strconv.Itoa(n)
	neg := false
	if len(s) > 0 && s[0] == '-' {
		neg = true
		s = s[1:]
	}
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// buildInfosTxt renders a header line (source file name and sequence
// count), a rule line, then a fixed-column (id, comment, length) table,
// one row per fragment, with length comma-grouped by thousands.
func (m *Model) buildInfosTxt() []byte {
	rows := make([][3]string, len(m.fragments))
	widths := [3]int{}
	for i, f := range m.fragments {
		rows[i] = [3]string{f.ID(), f.Comment(), groupThousands(f.DataSize()) + " bp"}
		for c, cell := range rows[i] {
			if len(cell) > widths[c] {
				widths[c] = len(cell)
			}
		}
	}

	var b bytes.Buffer
	header := fmt.Sprintf("%s: %d sequences", filepath.Base(m.sourcePath), len(m.fragments))
	b.WriteString(header)
	b.WriteByte('\n')

	ruleWidth := len(header)
	if tableWidth := widths[0] + widths[1] + widths[2] + 4; tableWidth > ruleWidth {
		ruleWidth = tableWidth
	}
	b.WriteString(strings.Repeat("-", ruleWidth))
	b.WriteByte('\n')

	for _, row := range rows {
		fmt.Fprintf(&b, "%-*s  %-*s  %*s\n", widths[0], row[0], widths[1], row[1], widths[2], row[2])
	}
	return b.Bytes()
}

// buildInfosCsv renders id, name (comment), length columns per spec.md
// §4.7's id<sep>name<sep>length order.
func (m *Model) buildInfosCsv() []byte {
	var b bytes.Buffer
	w := csv.NewWriter(&b)
	w.Comma = m.opts.CSVSeparator

	_ = w.Write([]string{"id", "name", "length"})
	for _, f := range m.fragments {
		_ = w.Write([]string{f.ID(), f.Comment(), strconv.Itoa(f.DataSize())})
	}
	w.Flush()
	return b.Bytes()
}

func (m *Model) buildLabelsTxt() []byte {
	var b bytes.Buffer
	for _, f := range m.fragments {
		b.WriteString(f.Label())
	}
	return b.Bytes()
}
