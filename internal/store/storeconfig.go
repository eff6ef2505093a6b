package store

type StoreConfig interface {
	// Common configuration methods
	GetTableName() string
	GetTTL() int32
	GetEndpoints() []string

	// Backend specific methods
	Validate() error
}
