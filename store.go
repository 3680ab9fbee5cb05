package exportsync

// PartialSuffix marks a download that has not completed yet.
const PartialSuffix = ".part"

// LocalStore is the flat download directory. Existence of a file under its
// final name is the only record that it was downloaded.
type LocalStore interface {
	// Ensure creates the directory if needed and verifies it is writable.
	// Failures are ESETUP errors.
	Ensure() error

	// CleanPartials removes leftover partial downloads and returns how
	// many were removed.
	CleanPartials() (int, error)

	// Exists reports whether a file named name is present.
	Exists(name string) (bool, error)

	// Path returns the full local path for name.
	Path(name string) string
}
