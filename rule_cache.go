package eventstate

// ProgramCache stores compiled rule programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
