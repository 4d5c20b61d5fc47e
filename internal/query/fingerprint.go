package query

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/semquery/internal/term"
)

// DomainQuery prefixes query fingerprints. The version suffix allows the
// encoding to change without colliding with stored fingerprints.
const DomainQuery = "semquery/query/v1"

// hashWithDomain computes SHA256(domain + 0x00 + data).
// The null byte keeps domain and data boundaries unambiguous.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Object converts q into a JSON-ready tree suitable for
// term.MarshalCanonical.
func Object(q Query) map[string]any {
	rps := make([]any, len(q.RequestProperties))
	for i, rp := range q.RequestProperties {
		rps[i] = map[string]any{
			"property": rp.Property,
			"optional": rp.Optional,
		}
	}
	flags := []any{}
	for _, name := range q.Flags.Names() {
		flags = append(flags, name)
	}

	obj := map[string]any{
		"term":              term.Object(q.Term),
		"limit":             int64(q.Limit),
		"offset":            int64(q.Offset),
		"requestProperties": rps,
		"fullTextScoring":   q.FullTextScoring,
		"fullTextSortOrder": q.FullTextSortOrder.String(),
		"flags":             flags,
		"fileQuery":         q.fileQuery,
	}
	// Scope fields stay out of the object for unscoped plain queries so
	// their fingerprints are unchanged.
	if q.fileQuery || q.FileMode != FileModeBoth || len(q.IncludeFolders) > 0 || len(q.ExcludeFolders) > 0 {
		obj["fileMode"] = q.FileMode.String()
		obj["includeFolders"] = stringsToAny(q.IncludeFolders)
		obj["excludeFolders"] = stringsToAny(q.ExcludeFolders)
	}
	return obj
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

// Fingerprint returns a stable content hash of q. Equal queries have equal
// fingerprints.
func Fingerprint(q Query) (string, error) {
	canonical, err := term.MarshalCanonical(Object(q))
	if err != nil {
		return "", fmt.Errorf("fingerprint: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainQuery, canonical), nil
}

// MustFingerprint is like Fingerprint but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustFingerprint(q Query) string {
	fp, err := Fingerprint(q)
	if err != nil {
		panic(err)
	}
	return fp
}
