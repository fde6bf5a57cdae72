package permission

// Set maps permission keys to grant booleans. A nil Set behaves as
// everything-denied.
type Set map[string]bool

// Clone returns an independent copy of s. Cloning nil yields an empty,
// non-nil Set so callers can mutate the result.
func (s Set) Clone() Set {
	out := make(Set, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get reports whether the named permission is granted. Missing keys are
// denied.
func (s Set) Get(key string) bool {
	return s[key]
}

// With returns a copy of s with the named key set to granted. The receiver is
// not modified.
func (s Set) With(key string, granted bool) Set {
	out := s.Clone()
	out[key] = granted
	return out
}

// Equal compares two sets by value. A key absent on one side equals an
// explicit false on the other, which matches how the backend omits denied
// permissions on some endpoints.
func (s Set) Equal(other Set) bool {
	for k, v := range s {
		if other[k] != v {
			return false
		}
	}
	for k, v := range other {
		if s[k] != v {
			return false
		}
	}
	return true
}
