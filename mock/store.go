package mock

import "github.com/fwojciec/exportsync"

var _ exportsync.LocalStore = (*LocalStore)(nil)

// LocalStore is a mock implementation of exportsync.LocalStore.
type LocalStore struct {
	EnsureFn        func() error
	CleanPartialsFn func() (int, error)
	ExistsFn        func(name string) (bool, error)
	PathFn          func(name string) string
}

func (s *LocalStore) Ensure() error {
	return s.EnsureFn()
}

func (s *LocalStore) CleanPartials() (int, error) {
	return s.CleanPartialsFn()
}

func (s *LocalStore) Exists(name string) (bool, error) {
	return s.ExistsFn(name)
}

func (s *LocalStore) Path(name string) string {
	return s.PathFn(name)
}
