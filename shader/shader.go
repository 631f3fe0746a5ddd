// Package shader loads fixed-length instruction programs in the text-binary
// format emitted by the assembler.
//
package shader

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// A Program is an ordered sequence of fixed-width instruction words,
// immutable once loaded.
//
type Program []uint64

// Load reads a program from r: one base-2 word per line, with optional
// "//" comments and '_' digit separators; blank lines are skipped. A
// program whose length differs from n is a fatal precondition violation.
//
func Load(r io.Reader, n int) (Program, error) {
	var prog Program
	sc := bufio.NewScanner(r)
	for line := 1; sc.Scan(); line++ {
		s := sc.Text()
		if i := strings.Index(s, "//"); i >= 0 {
			s = s[:i]
		}
		s = strings.TrimSpace(strings.ReplaceAll(s, "_", ""))
		if s == "" {
			continue
		}
		w, err := strconv.ParseUint(s, 2, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		prog = append(prog, w)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, "read program")
	}
	if len(prog) != n {
		return nil, errors.Errorf("program has %d instructions, want %d", len(prog), n)
	}
	return prog, nil
}

// LoadFile loads a program from a file.
//
func LoadFile(name string, n int) (Program, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, errors.Wrap(err, "load program")
	}
	defer f.Close()
	p, err := Load(f, n)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	return p, nil
}
