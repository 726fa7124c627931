// Package match reconciles renamed exported function names against the
// import table. When the host loads several modules whose public names
// collide, it disambiguates the later ones by appending `_<digits>`; the
// import table keeps the original names. Stripping a purely numeric suffix
// recovers the likely original name, and prefix-matching it against every
// import finds the entry the export actually satisfies.
package match

import "context"

// progressInterval is how many exports are processed between progress
// reports.
const progressInterval = 5

// Export is one publicly named function considered for matching.
type Export struct {
	Address uint64
	Name    string
}

// Import is one import table entry. Name is empty for ordinal-only
// imports, which are never matched.
type Import struct {
	Address uint64
	Name    string
}

// Annotator receives the cross-reference annotations the matcher emits.
// The underlying slot holds a single value, so when several truncated
// exports match one import the last write wins.
type Annotator interface {
	SetComment(addr uint64, text string, repeatable bool)
}

// ProgressFunc is called between iterations with the number of exports
// processed so far and the total. It exists to keep a UI responsive during
// long passes; returning is the only obligation.
type ProgressFunc func(done, total int)

// Truncate applies the renaming heuristic to one export name. A name is a
// truncation candidate only when everything after its last underscore is
// at least one ASCII digit and nothing else; the returned candidate name
// excludes both the digits and the underscore. The rule deliberately
// mirrors the host's numeric disambiguation suffix and nothing more
// general.
func Truncate(name string) (string, bool) {
	last := -1
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '_' {
			last = i
			break
		}
	}
	if last < 0 || last == len(name)-1 {
		return "", false
	}
	for i := last + 1; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return "", false
		}
	}
	return name[:last], true
}

// Matcher links truncated export names to the imports they satisfy.
type Matcher struct {
	annot Annotator
}

// New creates a Matcher writing annotations through annot.
func New(annot Annotator) *Matcher {
	return &Matcher{annot: annot}
}

// Run scans every export for a truncation candidate and annotates every
// import whose name starts with the candidate's truncated name. The
// annotation text is "import -> <truncated>_": the trailing underscore
// marks a resolved truncated match without reproducing the numeric suffix.
//
// Cancellation via ctx stops further processing; annotations already
// applied stand. Untruncated exports are skipped entirely: they cannot be
// the renamed copy of anything.
func (m *Matcher) Run(ctx context.Context, exports []Export, imports [][]Import, progress ProgressFunc) error {
	total := len(exports)
	for i, exp := range exports {
		if i%progressInterval == 0 {
			if progress != nil {
				progress(i, total)
			}
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		truncated, ok := Truncate(exp.Name)
		if !ok {
			continue
		}
		label := "import -> " + truncated + "_"

		for _, module := range imports {
			for _, imp := range module {
				if imp.Name == "" || len(imp.Name) < len(truncated) {
					continue
				}
				if imp.Name[:len(truncated)] == truncated {
					m.annot.SetComment(imp.Address, label, true)
				}
			}
		}
	}
	if progress != nil {
		progress(total, total)
	}
	return nil
}
