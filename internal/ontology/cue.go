package ontology

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
	"github.com/cayleygraph/quad/voc/xsd"
)

// ErrNoCatalog is returned when a catalog directory holds no CUE files.
var ErrNoCatalog = errors.New("no ontology catalog found")

//go:embed builtin.cue
var builtinCUE []byte

// LoadError is a catalog error with source position.
type LoadError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Builtin returns the catalog of the desktop ontologies shipped with the
// binary.
func Builtin() (*Catalog, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(builtinCUE, cue.Filename("builtin.cue"))
	return CompileCatalog(v)
}

// MustBuiltin is like Builtin but panics on error.
func MustBuiltin() *Catalog {
	c, err := Builtin()
	if err != nil {
		panic(err)
	}
	return c
}

// LoadCatalog loads every .cue file in dir as one CUE instance and compiles
// it into a catalog.
func LoadCatalog(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %s: not a directory", dir)
	}
	matches, err := filepath.Glob(filepath.Join(dir, "*.cue"))
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, ErrNoCatalog)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("%s: no CUE instances loaded", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", formatCUEError(inst.Err))
	}
	v := ctx.BuildInstance(inst)
	return CompileCatalog(v)
}

// CompileCatalog reads the top-level "property" and "class" structs of v.
//
//	property: fileName: {
//		uri:   "nfo:fileName"
//		label: "file name"
//		range: "xsd:string"
//	}
//	class: Folder: {
//		uri:          "nfo:Folder"
//		superClasses: ["nfo:DataContainer"]
//	}
//
// Prefixed names are expanded. rangeIsResource may be given explicitly;
// otherwise it is true for any range outside the XSD namespace.
func CompileCatalog(v cue.Value) (*Catalog, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	properties, err := compileProperties(v.LookupPath(cue.ParsePath("property")))
	if err != nil {
		return nil, err
	}
	classes, err := compileClasses(v.LookupPath(cue.ParsePath("class")))
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 && len(classes) == 0 {
		return nil, ErrNoCatalog
	}
	return NewCatalog(properties, classes), nil
}

func compileProperties(v cue.Value) ([]Property, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Property
	for iter.Next() {
		name := iter.Label()
		pv := iter.Value()

		uri, err := requiredURI(pv, "property."+name+".uri")
		if err != nil {
			return nil, err
		}
		label, err := optionalString(pv, "label", name)
		if err != nil {
			return nil, err
		}
		rng, err := optionalString(pv, "range", "")
		if err != nil {
			return nil, err
		}

		p := Property{
			URI:   Expand(uri),
			Label: label,
		}
		if rng != "" {
			p.Range = Expand(rng)
			p.RangeIsResource = !strings.HasPrefix(p.Range, xsd.NS)
		}
		if rv := pv.LookupPath(cue.ParsePath("rangeIsResource")); rv.Exists() {
			b, err := rv.Bool()
			if err != nil {
				return nil, formatCUEError(err)
			}
			p.RangeIsResource = b
		}
		out = append(out, p)
	}
	return out, nil
}

func compileClasses(v cue.Value) ([]Class, error) {
	if !v.Exists() {
		return nil, nil
	}
	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []Class
	for iter.Next() {
		name := iter.Label()
		cv := iter.Value()

		uri, err := requiredURI(cv, "class."+name+".uri")
		if err != nil {
			return nil, err
		}
		label, err := optionalString(cv, "label", name)
		if err != nil {
			return nil, err
		}
		cl := Class{URI: Expand(uri), Label: label}

		if sv := cv.LookupPath(cue.ParsePath("superClasses")); sv.Exists() {
			list, err := sv.List()
			if err != nil {
				return nil, formatCUEError(err)
			}
			for list.Next() {
				s, err := list.Value().String()
				if err != nil {
					return nil, formatCUEError(err)
				}
				cl.SuperClasses = append(cl.SuperClasses, Expand(s))
			}
		}
		out = append(out, cl)
	}
	return out, nil
}

func requiredURI(v cue.Value, field string) (string, error) {
	sv := v.LookupPath(cue.ParsePath("uri"))
	if !sv.Exists() {
		return "", &LoadError{Field: field, Message: "uri is required", Pos: v.Pos()}
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	if s == "" {
		return "", &LoadError{Field: field, Message: "uri must not be empty", Pos: sv.Pos()}
	}
	return s, nil
}

func optionalString(v cue.Value, path, fallback string) (string, error) {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return fallback, nil
	}
	s, err := sv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if positions := cueerrors.Positions(first); len(positions) > 0 {
		return &LoadError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
