package permission

import "sort"

// Set is an immutable set of permissions. The zero value is empty.
type Set struct {
	mask Mask64
}

// NewSet builds a Set from names, ignoring permissions outside the catalogue.
func NewSet(names ...Permission) Set {
	var mask Mask64
	for _, name := range names {
		if bit, ok := registry.Bit(name); ok {
			mask.Set(bit)
		}
	}
	return Set{mask: mask}
}

// Has reports whether p is in the set.
func (s Set) Has(p Permission) bool {
	bit, ok := registry.Bit(p)
	return ok && s.mask.Has(bit)
}

// HasAny reports whether at least one of ps is in the set.
func (s Set) HasAny(ps ...Permission) bool {
	for _, p := range ps {
		if s.Has(p) {
			return true
		}
	}
	return false
}

// HasAll reports whether every one of ps is in the set. An empty list is
// trivially satisfied; a permission outside the catalogue never is.
func (s Set) HasAll(ps ...Permission) bool {
	var need Mask64
	for _, p := range ps {
		bit, ok := registry.Bit(p)
		if !ok {
			return false
		}
		need.Set(bit)
	}
	return s.mask.Contains(need)
}

// Len returns the number of permissions in the set.
func (s Set) Len() int {
	return s.mask.Count()
}

// Empty reports whether the set holds no permissions.
func (s Set) Empty() bool {
	return s.mask == 0
}

// Equal reports whether both sets hold the same permissions.
func (s Set) Equal(other Set) bool {
	return s.mask == other.mask
}

// List returns the permissions sorted by name.
func (s Set) List() []Permission {
	out := make([]Permission, 0, s.Len())
	for bit := 0; bit < maxBits; bit++ {
		if !s.mask.Has(bit) {
			continue
		}
		if name, ok := registry.Name(bit); ok {
			out = append(out, name)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Strings is List as plain strings.
func (s Set) Strings() []string {
	list := s.List()
	out := make([]string, len(list))
	for i, p := range list {
		out[i] = string(p)
	}
	return out
}
