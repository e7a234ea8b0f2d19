package signature

import "sort"

// Headers maps a header name to its values. Names are case-sensitive and
// stored as given.
type Headers map[string]*StringList

// Get returns the values stored under k, or nil.
func (h Headers) Get(k string) []string {
	v := h[k]
	if v == nil {
		return nil
	}
	return v.Value
}

// Set replaces the values stored under k.
func (h Headers) Set(k string, v ...string) {
	h[k] = &StringList{Value: v}
}

// Add appends v to the values stored under k.
func (h Headers) Add(k, v string) {
	l := h[k]
	if l == nil {
		h[k] = &StringList{Value: []string{v}}
		return
	}
	l.Value = append(l.Value, v)
}

// Del removes k.
func (h Headers) Del(k string) {
	delete(h, k)
}

// Keys returns the header names in sorted order.
func (h Headers) Keys() []string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy of h. A nil map stays nil.
func (h Headers) Clone() Headers {
	if h == nil {
		return nil
	}
	cp := make(Headers, len(h))
	for k, v := range h {
		cp[k] = v.Clone()
	}
	return cp
}
