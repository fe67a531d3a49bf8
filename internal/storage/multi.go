package storage

import (
	"errors"
	"strings"
)

// MultiStorage writes to several backends. Reads go to the first backend.
type MultiStorage struct {
	backends []StorageInterface
}

// Ensure MultiStorage implements StorageInterface
var _ StorageInterface = (*MultiStorage)(nil)

// NewMultiStorage returns the single backend unchanged, or a fan-out over all of them
func NewMultiStorage(backends ...StorageInterface) StorageInterface {
	if len(backends) == 1 {
		return backends[0]
	}
	return &MultiStorage{backends: backends}
}

// Store writes to every backend and joins their errors
func (m *MultiStorage) Store(filename string, data []byte) error {
	var errs []error
	for _, backend := range m.backends {
		if err := backend.Store(filename, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiStorage) Retrieve(filename string) ([]byte, error) {
	if len(m.backends) == 0 {
		return nil, errors.New("no storage backends configured")
	}
	return m.backends[0].Retrieve(filename)
}

func (m *MultiStorage) List(prefix string) ([]string, error) {
	if len(m.backends) == 0 {
		return nil, nil
	}
	return m.backends[0].List(prefix)
}

func (m *MultiStorage) Delete(filename string) error {
	var errs []error
	for _, backend := range m.backends {
		if err := backend.Delete(filename); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m *MultiStorage) Location(filename string) string {
	locations := make([]string, 0, len(m.backends))
	for _, backend := range m.backends {
		locations = append(locations, backend.Location(filename))
	}
	return strings.Join(locations, ", ")
}
