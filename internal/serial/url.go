package serial

import (
	"fmt"
	"net/url"

	"github.com/roach88/semquery/internal/query"
)

// SearchScheme is the URI scheme of embedded searches.
const SearchScheme = "semsearch"

// SearchURL embeds q and an optional title in a
// "semsearch:/?encodedquery=...&title=..." URI.
func SearchURL(q query.Query, title string) (string, error) {
	data, err := Marshal(q)
	if err != nil {
		return "", fmt.Errorf("encode query: %w", err)
	}
	values := url.Values{}
	values.Set("encodedquery", string(data))
	if title != "" {
		values.Set("title", title)
	}
	return SearchScheme + ":/?" + values.Encode(), nil
}

// ParseSearchURL extracts the query and title from a URI produced by
// SearchURL.
func ParseSearchURL(s string) (query.Query, string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return invalidQuery(), "", fmt.Errorf("parse search url: %w", err)
	}
	if u.Scheme != SearchScheme {
		return invalidQuery(), "", fmt.Errorf("parse search url: scheme %q is not %q", u.Scheme, SearchScheme)
	}
	values := u.Query()
	encoded := values.Get("encodedquery")
	if encoded == "" {
		return invalidQuery(), "", fmt.Errorf("parse search url: no encodedquery parameter")
	}
	q, err := Unmarshal([]byte(encoded))
	if err != nil {
		return invalidQuery(), "", fmt.Errorf("parse search url: %w", err)
	}
	return q, values.Get("title"), nil
}
