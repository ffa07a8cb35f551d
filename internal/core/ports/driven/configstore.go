package driven

// ConfigStore holds lectern's settings as flat dotted keys such as
// "search.max_results". Typed getters return the zero value when a key is
// absent or holds another type; whole numbers read back through GetFloat.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set and Delete are durable once they return nil. Deleting an
	// unknown key is not an error.
	Set(key string, value any) error
	Delete(key string) error

	// Save flushes every value; Load discards memory and rereads storage.
	Save() error
	Load() error

	// Path names the backing file, or ":memory:".
	Path() string
}
