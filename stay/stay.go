// Package stay implements the Stay/StaySet model (spec §3) and the
// Ingestor pull-parser contract that builds a StaySet from an externally
// supplied stream of stay records.
package stay

import "github.com/wtsi-hgi/mco-ghm/codes"

// Error is the package-local sentinel error type.
type Error string

func (e Error) Error() string { return string(e) }

const (
	// ErrOutOfOrder is returned by StaySet.Add when a stay's identity
	// would violate the sorted-by-stay_id, ingest-order-within-id
	// invariant.
	ErrOutOfOrder = Error("stay added out of order")
)

// Movement is a raw entry or exit movement code pair (spec §3: "entry
// (mode, origin), exit (mode, destination)").
type Movement struct {
	Mode uint8
	Site uint8
}

// Procedure is one procedure record attached to a Stay.
type Procedure struct {
	Code       codes.ProcedureCode
	Phase      uint8
	Date       codes.Date
	Count      uint16 // clamped to 0..9999
	Activities uint32
	Raw        [56]byte
}

// Stay is a single stay fragment (spec §3).
type Stay struct {
	StayID, BillID uint32

	Birthdate codes.Date
	Sex       codes.Sex

	From, To codes.Date

	Entry, Exit Movement

	Unit codes.UnitCode

	SessionCount      uint16
	Igs2              uint16
	GestationalAge    uint16
	NewbornWeight     uint16
	LastMenstrualDate codes.Date

	MainDiagnosis   codes.DiagnosisCode
	LinkedDiagnosis codes.DiagnosisCode
	HasLinked       bool

	AssociatedDiagnoses []codes.DiagnosisCode
	Procedures          []Procedure

	ErrorMask uint64
}

// StaySet owns a contiguous, sorted array of stays. Diagnoses/procedures
// are stored inline on Stay here rather than pooled by index range (the
// teacher's DGUTA pooled-slice pattern is adopted one level up, in
// StaySet.stays itself, which is what actually benefits from being a
// single contiguous allocation during ingest).
type StaySet struct {
	stays []Stay
}

// Len returns the number of stays.
func (s *StaySet) Len() int { return len(s.stays) }

// At returns the stay at index i.
func (s *StaySet) At(i int) *Stay { return &s.stays[i] }

// All returns the full stay slice, sorted by StayID with ingest order
// preserved within a StayID (spec §3).
func (s *StaySet) All() []Stay { return s.stays }

// Add appends a stay, enforcing the sorted-by-stay-id invariant against
// the tail of the set (StaySet is built once via Ingestor.Scan, which
// supplies stays already sorted by its caller).
func (s *StaySet) Add(st Stay) error {
	if n := len(s.stays); n > 0 && st.StayID < s.stays[n-1].StayID {
		return ErrOutOfOrder
	}

	s.stays = append(s.stays, st)

	return nil
}

// Ingestor is the pull-parser contract a caller's wire-format reader
// implements to build a StaySet (the wire format itself — text, JSON,
// binary — is outside this package's scope per spec.md §6).
type Ingestor interface {
	// Scan advances to the next Stay, returning false at end of input or
	// on error (check Err() to distinguish the two).
	Scan() bool
	// Stay returns the most recently scanned Stay.
	Stay() Stay
	// Err returns the first error encountered, if any.
	Err() error
}

// Build drains ing into a new StaySet.
func Build(ing Ingestor) (*StaySet, error) {
	set := &StaySet{stays: make([]Stay, 0, 256)}

	for ing.Scan() {
		if err := set.Add(ing.Stay()); err != nil {
			return nil, err
		}
	}

	if err := ing.Err(); err != nil {
		return nil, err
	}

	return set, nil
}
