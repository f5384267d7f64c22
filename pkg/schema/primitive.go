package schema

import (
	"slices"
	"sync"

	"github.com/matzehuels/scatter/pkg/errors"
)

var (
	primitives = map[string]struct{}{
		TypeString:  {},
		TypeNumber:  {},
		TypeBoolean: {},
		TypeAny:     {},
	}
	primitivesMu sync.RWMutex
)

// RegisterPrimitive adds a primitive type tag to the global lookup so that
// declarations may use it. Registering an existing tag is a no-op.
// The structural tags "object" and "array" cannot be registered.
func RegisterPrimitive(tag string) error {
	if tag == "" || tag == TypeObject || tag == TypeArray {
		return errors.New(errors.ErrCodeInvalidInput, "cannot register primitive type %q", tag)
	}
	primitivesMu.Lock()
	defer primitivesMu.Unlock()
	primitives[tag] = struct{}{}
	return nil
}

// IsPrimitiveType reports whether tag is a registered primitive type.
func IsPrimitiveType(tag string) bool {
	primitivesMu.RLock()
	defer primitivesMu.RUnlock()
	_, ok := primitives[tag]
	return ok
}

// PrimitiveTypes returns the registered primitive tags, sorted.
func PrimitiveTypes() []string {
	primitivesMu.RLock()
	defer primitivesMu.RUnlock()
	out := make([]string, 0, len(primitives))
	for tag := range primitives {
		out = append(out, tag)
	}
	slices.Sort(out)
	return out
}

func isKnownType(tag string) bool {
	return tag == TypeObject || tag == TypeArray || IsPrimitiveType(tag)
}
