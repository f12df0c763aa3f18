package installer

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"go.uber.org/multierr"

	"github.com/atomikpanda/localenv/internal/errors"
)

var (
	// ripgrep v13.0.0 (/home/u/src/ripgrep):
	cargoPackageLine = regexp.MustCompile(`^([A-Za-z0-9_-]+)\s*v(\S+?)\s*(?:\((.*)\))?:$`)
	//     rg
	cargoBinLine = regexp.MustCompile(`^\s+([A-Za-z0-9_-]+)$`)
)

// ParseCargoList parses the output of `cargo install --list`. Every malformed
// line is reported; a partial result is never returned.
func ParseCargoList(out string) ([]Package, error) {
	var (
		pkgs    []Package
		cur     *Package
		curLine int
		errs    error
	)

	flush := func() {
		if cur == nil {
			return
		}
		if len(cur.Bins) == 0 {
			errs = multierr.Append(errs, fmt.Errorf("line %d: package %s lists no binaries", curLine, cur.Name))
		} else {
			cur.Bin = cur.Bins[0]
			pkgs = append(pkgs, *cur)
		}
		cur = nil
	}

	scanner := bufio.NewScanner(strings.NewReader(out))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if m := cargoBinLine.FindStringSubmatch(line); m != nil {
			if cur == nil {
				errs = multierr.Append(errs, fmt.Errorf("line %d: binary %q before any package", lineNo, m[1]))
				continue
			}
			cur.Bins = append(cur.Bins, m[1])
			continue
		}

		m := cargoPackageLine.FindStringSubmatch(line)
		if m == nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: unexpected line %q", lineNo, line))
			continue
		}
		flush()

		v, err := semver.StrictNewVersion(m[2])
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("line %d: package %s: invalid version %q: %w", lineNo, m[1], m[2], err))
		}
		cur = &Package{Name: m[1], Version: v, LocalPath: m[3]}
		curLine = lineNo
	}
	flush()

	if err := scanner.Err(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs != nil {
		return nil, errors.Wrap(errs, errors.KindInstallerParseFailure, "cannot parse cargo package list")
	}
	return pkgs, nil
}
