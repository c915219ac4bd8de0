// Package lipidmaps cross-references compound records against the LIPID MAPS
// structure database (LMSD) using a primary-key-first, weighted-fallback
// matching strategy.
package lipidmaps

import (
	"bufio"
	"io"
	"strings"

	"github.com/rotisserie/eris"
)

// recordSeparator terminates one molecule record in an SDF file.
const recordSeparator = "$$$$"

// ScanSDF stream-parses an SDF file, invoking fn once per molecule record
// with its named data fields. The molfile connection table is skipped; only
// `> <TAG>` property blocks are collected. Multi-line property values are
// joined with newlines.
func ScanSDF(r io.Reader, fn func(props map[string]string)) error {
	scanner := bufio.NewScanner(r)
	// SMILES and systematic names can run long.
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	props := make(map[string]string)
	var tag string
	var value []string

	flushTag := func() {
		if tag != "" {
			props[tag] = strings.TrimSpace(strings.Join(value, "\n"))
			tag = ""
			value = value[:0]
		}
	}

	for scanner.Scan() {
		line := scanner.Text()

		switch {
		case strings.TrimSpace(line) == recordSeparator:
			flushTag()
			if len(props) > 0 {
				fn(props)
			}
			props = make(map[string]string)

		case strings.HasPrefix(line, ">"):
			flushTag()
			tag = parseTag(line)

		case tag != "":
			if strings.TrimSpace(line) == "" {
				flushTag()
			} else {
				value = append(value, line)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return eris.Wrap(err, "sdf: scan")
	}

	// Trailing record without a separator.
	flushTag()
	if len(props) > 0 {
		fn(props)
	}

	return nil
}

// parseTag extracts the property name from a `> <TAG>` header line.
func parseTag(line string) string {
	open := strings.Index(line, "<")
	end := strings.LastIndex(line, ">")
	if open < 0 || end <= open {
		return ""
	}
	return strings.TrimSpace(line[open+1 : end])
}
