package storage

// StorageInterface defines the contract for where run exports are written
type StorageInterface interface {
	Store(filename string, data []byte) error
	Retrieve(filename string) ([]byte, error)
	List(prefix string) ([]string, error)
	Delete(filename string) error
	// Location describes where filename ends up, for logs and reports
	Location(filename string) string
}
