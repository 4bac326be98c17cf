package eventstate

// Key identifies one kind of cycle state. The type parameter binds the key
// to the value shape its lifecycle produces, so Get call sites stay typed
// without casts. Keys with the same name address the same registry slot;
// the registry rejects a second registration for a name at registration
// time, never at lookup time.
type Key[T any] struct {
	name string
}

// NewKey builds a typed key under name. Name uniqueness is enforced when the
// key is registered, not here, so packages can declare keys as package-level
// variables before a registry exists.
func NewKey[T any](name string) Key[T] {
	return Key[T]{name: name}
}

// Name returns the registry name the key was created with.
func (k Key[T]) Name() string {
	return k.name
}
