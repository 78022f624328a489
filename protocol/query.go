package protocol

import "strings"

// Value is the value of a query parameter: either Single or Multi
type Value interface {
	values() []string
}

// Single is a key that appeared exactly once. The value may be empty.
type Single string

// Multi is a key that appeared two or more times, in encounter order
type Multi []string

func (s Single) values() []string { return []string{string(s)} }
func (m Multi) values() []string  { return []string(m) }

// QueryString stores the parameters appended to a request path,
// e.g. `/search.html?term=go&sort=1&page=2`
type QueryString struct {
	data map[string]Value
}

// ParseQuery splits a raw query fragment into its parameters.
//
// Sub-fragments are separated by '&'; each one is split on its first '='.
// A sub-fragment without '=' yields an empty value. Substrings are sliced
// from fragment, never copied.
func ParseQuery(fragment string) *QueryString {
	q := &QueryString{data: make(map[string]Value)}
	for {
		var sub string
		idx := strings.IndexByte(fragment, '&')
		if idx < 0 {
			sub = fragment
		} else {
			sub = fragment[:idx]
		}

		key, value := sub, ""
		if eq := strings.IndexByte(sub, '='); eq >= 0 {
			key = sub[:eq]
			value = sub[eq+1:]
		}
		q.add(key, value)

		if idx < 0 {
			return q
		}
		fragment = fragment[idx+1:]
	}
}

// add applies the absent -> single -> multi promotion
func (q *QueryString) add(key, value string) {
	switch existing := q.data[key].(type) {
	case nil:
		q.data[key] = Single(value)
	case Single:
		q.data[key] = Multi{string(existing), value}
	case Multi:
		q.data[key] = append(existing, value)
	}
}

// Get returns the value stored under key. Absent keys return false.
func (q *QueryString) Get(key string) (Value, bool) {
	if q == nil {
		return nil, false
	}
	v, ok := q.data[key]
	return v, ok
}

// Values returns every value seen for key, in encounter order
func (q *QueryString) Values(key string) []string {
	v, ok := q.Get(key)
	if !ok {
		return nil
	}
	return v.values()
}

// Len returns the number of distinct keys
func (q *QueryString) Len() int {
	if q == nil {
		return 0
	}
	return len(q.data)
}
