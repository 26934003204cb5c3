package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/replica/internal/constraint"
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/store"
)

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error
	ErrCodeStore       = "E008" // Replica database error

	// Catalog errors
	ErrCodeNoAttributes = "E101" // Missing or empty attribute struct
	ErrCodeInvalidType  = "E102" // Invalid value type (e.g., float)
	ErrCodeInvalidTable = "E103" // Invalid or reserved table name

	// Filter errors
	ErrCodeFilterParse   = "E201" // Malformed filter YAML
	ErrCodeFilterInvalid = "E202" // Filter does not fit the catalog
	ErrCodeNoHypercube   = "E203" // Filter has no hypercube
	ErrCodeNotCompilable = "E204" // Filter cannot be lowered to SQL

	// Coverage errors
	ErrCodeNotCovered = "E301" // Filter is not covered by the registry
)

// LoadError represents an error that occurred while loading CLI inputs.
type LoadError struct {
	Code     string
	Message  string
	Pos      token.Pos // CUE position if available
	Problems []string  // Validation problems, when Code is ErrCodeFilterInvalid
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// LoadCatalog compiles the attribute catalog at path. A directory is loaded
// as one CUE instance of the files without a package clause; a file is
// loaded on its own.
func LoadCatalog(path string) (*schema.Catalog, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing schema: %v", err)}
	}

	// Package "_" selects the files without a package clause.
	cfg := &load.Config{Dir: path, Package: "_"}
	args := []string{"."}
	if info.IsDir() {
		cueFiles, err := FindCUEFiles(path)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}
		}
		if len(cueFiles) == 0 {
			return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", path)}
		}
	} else {
		cfg = &load.Config{Dir: filepath.Dir(path)}
		args = []string{"./" + filepath.Base(path)}
	}

	ctx := cuecontext.New()
	instances := load.Instances(args, cfg)
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	catalog, err := schema.CompileCatalog(value)
	if err != nil {
		return nil, convertCompileError(err)
	}
	return catalog, nil
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a catalog compile error to a LoadError with
// position info.
func convertCompileError(err error) *LoadError {
	var compileErr *schema.CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    MapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: ErrCodeGeneric, Message: err.Error()}
}

// MapFieldToErrorCode maps a catalog compile error field to an error code.
func MapFieldToErrorCode(field string) string {
	switch field {
	case "attribute":
		return ErrCodeNoAttributes
	case "type":
		return ErrCodeInvalidType
	case "table":
		return ErrCodeInvalidTable
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}

// Filter is a parsed filter file checked against a catalog.
type Filter struct {
	Path       string
	Constraint constraint.Constraint
	Expr       dp.Expr
}

// LoadFilter parses a YAML filter file, validates it against catalog and
// converts it to a predicate expression.
func LoadFilter(path string, catalog *schema.Catalog) (*Filter, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("filter not found: %s", path)}
	}
	c, err := constraint.ParseFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeFilterParse, Message: err.Error()}
	}

	if v := constraint.Validate(c, catalog); !v.IsValid {
		return nil, &LoadError{
			Code:     ErrCodeFilterInvalid,
			Message:  fmt.Sprintf("filter %s does not fit the catalog: %s", path, strings.Join(v.Problems, "; ")),
			Problems: v.Problems,
		}
	}

	e, err := constraint.ToExpr(c)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeFilterInvalid, Message: err.Error()}
	}
	return &Filter{Path: path, Constraint: c, Expr: e}, nil
}

// openReplica loads the catalog, opens the database and applies the
// catalog to it. The caller closes the store.
func openReplica(ctx context.Context, opts *RootOptions) (*store.Store, *schema.Catalog, error) {
	catalog, err := LoadCatalog(opts.Schema)
	if err != nil {
		return nil, nil, err
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return nil, nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	if err := st.ApplyCatalog(ctx, catalog); err != nil {
		st.Close()
		return nil, nil, &LoadError{Code: ErrCodeStore, Message: err.Error()}
	}
	return st, catalog, nil
}

// failLoad reports a load failure. Missing paths and database errors are
// command errors; everything else is a check failure.
func failLoad(f *OutputFormatter, err error) error {
	var loadErr *LoadError
	if !errors.As(err, &loadErr) {
		return f.Fail(ExitCommandError, ErrCodeGeneric, err.Error(), nil, err)
	}
	exitCode := ExitFailure
	switch loadErr.Code {
	case ErrCodeNotFound, ErrCodeStore, ErrCodeScanError, ErrCodeNoFiles:
		exitCode = ExitCommandError
	}
	var details any
	if len(loadErr.Problems) > 0 {
		details = loadErr.Problems
	}
	message := loadErr.Message
	if loadErr.Pos.IsValid() {
		message = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), message)
	}
	return f.Fail(exitCode, loadErr.Code, message, details, err)
}
