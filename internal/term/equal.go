package term

import (
	"encoding/binary"
	"math"
	"slices"
	"time"

	"github.com/cayleygraph/quad"
	"github.com/cespare/xxhash/v2"
)

// Equal reports whether a and b are structurally identical.
// nil and Invalid are equal to each other.
func Equal(a, b Term) bool {
	if KindOf(a) != KindOf(b) {
		return false
	}
	switch a := a.(type) {
	case Literal:
		return ValuesEqual(a.Value, b.(Literal).Value)
	case Resource:
		return a.URI == b.(Resource).URI
	case ResourceType:
		return sameSet(a.Types, b.(ResourceType).Types)
	case Comparison:
		bc := b.(Comparison)
		return a.Property == bc.Property &&
			a.Comparator == bc.Comparator &&
			a.Variable == bc.Variable &&
			a.Aggregate == bc.Aggregate &&
			a.SortWeight == bc.SortWeight &&
			a.SortOrder == bc.SortOrder &&
			a.Inverted == bc.Inverted &&
			Equal(a.Sub, bc.Sub)
	case And:
		return termsEqual(a.Terms, b.(And).Terms)
	case Or:
		return termsEqual(a.Terms, b.(Or).Terms)
	case Negation:
		return Equal(a.Sub, b.(Negation).Sub)
	case Optional:
		return Equal(a.Sub, b.(Optional).Sub)
	default:
		return true
	}
}

// ValuesEqual compares two literal values. Times compare by instant.
func ValuesEqual(a, b quad.Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if at, ok := a.(quad.Time); ok {
		bt, ok := b.(quad.Time)
		return ok && time.Time(at).Equal(time.Time(bt))
	}
	return a == b
}

func termsEqual(a, b []Term) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

func sameSet(a, b []string) bool {
	return slices.Equal(sortedUnique(a), sortedUnique(b))
}

func sortedUnique(in []string) []string {
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

// Hash returns a 64-bit digest of t consistent with Equal.
func Hash(t Term) uint64 {
	d := xxhash.New()
	hashTerm(d, t)
	return d.Sum64()
}

func hashTerm(d *xxhash.Digest, t Term) {
	k := KindOf(t)
	writeInt(d, int64(k))
	switch t := t.(type) {
	case Literal:
		hashValue(d, t.Value)
	case Resource:
		writeString(d, t.URI)
	case ResourceType:
		types := sortedUnique(t.Types)
		writeInt(d, int64(len(types)))
		for _, uri := range types {
			writeString(d, uri)
		}
	case Comparison:
		writeString(d, t.Property)
		writeInt(d, int64(t.Comparator))
		writeString(d, t.Variable)
		writeInt(d, int64(t.Aggregate))
		writeInt(d, int64(t.SortWeight))
		writeInt(d, int64(t.SortOrder))
		if t.Inverted {
			writeInt(d, 1)
		} else {
			writeInt(d, 0)
		}
		hashTerm(d, t.Sub)
	case And:
		hashTerms(d, t.Terms)
	case Or:
		hashTerms(d, t.Terms)
	case Negation:
		hashTerm(d, t.Sub)
	case Optional:
		hashTerm(d, t.Sub)
	}
}

func hashTerms(d *xxhash.Digest, terms []Term) {
	writeInt(d, int64(len(terms)))
	for _, t := range terms {
		hashTerm(d, t)
	}
}

func hashValue(d *xxhash.Digest, v quad.Value) {
	switch val := v.(type) {
	case nil:
		writeString(d, "")
	case quad.Float:
		f := float64(val)
		if f == 0 {
			f = 0 // folds -0 onto +0
		}
		writeString(d, DatatypeDouble)
		writeInt(d, int64(math.Float64bits(f)))
	case quad.Time:
		writeString(d, DatatypeDateTime)
		writeInt(d, time.Time(val).UnixNano())
	default:
		writeString(d, Datatype(v))
		writeString(d, StringOf(v))
	}
}

func writeString(d *xxhash.Digest, s string) {
	writeInt(d, int64(len(s)))
	_, _ = d.WriteString(s)
}

func writeInt(d *xxhash.Digest, n int64) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(n))
	_, _ = d.Write(buf[:])
}
