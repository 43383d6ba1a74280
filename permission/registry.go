package permission

import (
	"fmt"
	"strings"
)

const maxBits = 64

// Registry maps permission names to bit positions within a Mask64. Bits
// follow the order names were given to NewRegistry. A Registry never changes
// after construction, so it is safe for concurrent use.
type Registry struct {
	bits  map[Permission]int
	names []Permission
}

// NewRegistry assigns one bit per name. Names must be unique, non-empty
// resource:action pairs, and at most 64 of them fit.
func NewRegistry(names ...Permission) (*Registry, error) {
	if len(names) > maxBits {
		return nil, fmt.Errorf("permission: %d names exceed the %d-bit mask", len(names), maxBits)
	}

	r := &Registry{
		bits:  make(map[Permission]int, len(names)),
		names: make([]Permission, 0, len(names)),
	}
	for _, name := range names {
		if err := validName(name); err != nil {
			return nil, err
		}
		if _, dup := r.bits[name]; dup {
			return nil, fmt.Errorf("permission: %q registered twice", name)
		}
		r.bits[name] = len(r.names)
		r.names = append(r.names, name)
	}
	return r, nil
}

func validName(name Permission) error {
	resource, action, ok := strings.Cut(string(name), ":")
	if !ok || resource == "" || action == "" || strings.Contains(action, ":") {
		return fmt.Errorf("permission: %q is not resource:action", name)
	}
	return nil
}

// Bit returns the bit index for the named permission, or false if not registered.
func (r *Registry) Bit(name Permission) (int, bool) {
	bit, ok := r.bits[name]
	return bit, ok
}

// Name returns the permission name for the given bit index, or false if unassigned.
func (r *Registry) Name(bit int) (Permission, bool) {
	if bit < 0 || bit >= len(r.names) {
		return "", false
	}
	return r.names[bit], true
}

// Compile builds a mask holding every named permission.
func (r *Registry) Compile(names []Permission) (Mask64, error) {
	var mask Mask64
	for _, name := range names {
		bit, ok := r.bits[name]
		if !ok {
			return 0, fmt.Errorf("permission: %q not registered", name)
		}
		mask.Set(bit)
	}
	return mask, nil
}

// Count returns the number of registered permissions.
func (r *Registry) Count() int {
	return len(r.names)
}
