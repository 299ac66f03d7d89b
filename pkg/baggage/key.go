package baggage

import "reflect"

type AccessPolicy int

const (
	// Public entries are visible to every generic consumer.
	Public AccessPolicy = iota
	// PublicExceptLogging entries are visible to consumers such as tracing,
	// but must not be written to logs.
	PublicExceptLogging
	// Private entries are never enumerated; only code holding the key type
	// can read them.
	Private
)

func (p AccessPolicy) String() string {
	switch p {
	case Public:
		return "public"
	case PublicExceptLogging:
		return "public-except-logging"
	case Private:
		return "private"
	}
	return "unknown"
}

// Key is the contract every key type satisfies. A key type is a zero-sized
// marker that embeds Of[V]; the type itself is the identity and V is the only
// value type Get and Set accept for it.
//
//	type RequestIDKey struct{ baggage.Of[string] }
//
//	func (RequestIDKey) Name() string { return "request-id" }
type Key[V any] interface {
	Name() string
	AccessPolicy() AccessPolicy
	valueType(V)
}

// Of binds a key type to its value type and supplies the defaults: no name
// override and Public access.
type Of[V any] struct{}

func (Of[V]) Name() string { return "" }

func (Of[V]) AccessPolicy() AccessPolicy { return Public }

func (Of[V]) valueType(V) {}

// ErasedKey is the runtime token of a key type. Two tokens are equal when they
// come from the same key type, regardless of their names.
type ErasedKey struct {
	id     reflect.Type
	name   string
	policy AccessPolicy
}

func KeyOf[K Key[V], V any]() ErasedKey {
	var k K
	id := reflect.TypeFor[K]()

	name := k.Name()
	if name == "" {
		name = typeName(id)
	}

	return ErasedKey{
		id:     id,
		name:   name,
		policy: k.AccessPolicy(),
	}
}

func typeName(t reflect.Type) string {
	if n := t.Name(); n != "" {
		return n
	}
	return t.String()
}

func (k ErasedKey) Equal(other ErasedKey) bool {
	return k.id == other.id
}

func (k ErasedKey) Name() string {
	return k.name
}

func (k ErasedKey) AccessPolicy() AccessPolicy {
	return k.policy
}

func (k ErasedKey) String() string {
	return k.name
}
