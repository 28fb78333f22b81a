package tables

// Error is the package-local sentinel error type, matching the teacher's
// db/errors.go convention.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrMalformedBinary is returned when a size or offset would read past
	// the byte range supplied for a file or section.
	ErrMalformedBinary = Error("malformed binary table file")
	// ErrVersionTooOld is returned for files declaring a version older than
	// 11.10.
	ErrVersionTooOld = Error("table file version too old")
	// ErrBadSectionCount is returned when the outer header declares a
	// sections count other than 1.
	ErrBadSectionCount = Error("outer header must declare exactly one section")
	// ErrNoTables is returned by LoadFiles when given no paths.
	ErrNoTables = Error("no table files supplied")
	// ErrIndexNotFound is returned by FindIndex when no TableIndex covers
	// the given date (surfaced by the driver as classification error 502).
	ErrIndexNotFound = Error("no table index covers this date")
	// ErrExclusionIndexOutOfRange is returned when a diagnosis's
	// exclusion_set_idx is not a valid index into the exclusion list (open
	// question #2 in spec §9: implemented with '<', not '<=').
	ErrExclusionIndexOutOfRange = Error("exclusion set index out of range")
)
