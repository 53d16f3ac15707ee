package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed catalog.cue
var catalogCUE []byte

var (
	compileOnce sync.Once
	compiled    []Report
	compileErr  error
)

// Compile returns the built-in report catalog, compiled from the embedded
// CUE source on first use. The result is shared; callers must not mutate
// the returned slice.
func Compile() ([]Report, error) {
	compileOnce.Do(func() {
		compiled, compileErr = compileCUE(catalogCUE)
	})
	return compiled, compileErr
}

// compileCUE evaluates a CUE catalog document and compiles its `reports`
// list. CUE enforces the field shapes (the #Report schema); ToSpec and
// query.Validate enforce the semantics against the attribute registry.
func compileCUE(src []byte) ([]Report, error) {
	ctx := cuecontext.New()
	value := ctx.CompileBytes(src)
	if err := value.Err(); err != nil {
		return nil, fmt.Errorf("building catalog: %w", err)
	}

	reportsVal := value.LookupPath(cue.ParsePath("reports"))
	if !reportsVal.Exists() {
		return nil, fmt.Errorf("catalog declares no reports list")
	}
	if err := reportsVal.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("validating catalog: %w", err)
	}

	var defs []ReportDef
	if err := reportsVal.Decode(&defs); err != nil {
		return nil, fmt.Errorf("decoding catalog reports: %w", err)
	}
	return compileDefs(defs)
}
