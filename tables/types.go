// Package tables implements the binary table loader (spec §4.1) and the
// date-indexed TableIndex accessors (spec §4.1/§4.3) that the classifier
// reads from.
package tables

import "github.com/wtsi-hgi/mco-ghm/codes"

// Kind identifies which of the eight table families a parsed TableInfo
// belongs to, keyed off the nested table header's 8-byte name.
type Kind uint8

const (
	KindUnknown Kind = iota
	KindGhmDecisionTree
	KindDiagnosisTable
	KindProcedureTable
	KindGhmRootTable
	KindSeverityTable
	KindGhsTable
	KindAuthorizationTable
	KindSrcPairTable
)

// tableNames maps the 8-byte ASCII name embedded in a nested table header to
// its Kind, per spec §4.1.
var tableNames = map[string]Kind{
	"ARBREDEC": KindGhmDecisionTree,
	"DIAG10CR": KindDiagnosisTable,
	"CCAMCARA": KindProcedureTable,
	"RGHMINFO": KindGhmRootTable,
	"GHSINFO":  KindGhsTable,
	"TABCOMBI": KindSeverityTable,
	"AUTOREFS": KindAuthorizationTable,
	"SRCDGACT": KindSrcPairTable,
}

// Version is a (major, minor) table file version, e.g. {11, 14}.
type Version struct {
	Major, Minor uint8
}

// AtLeast reports whether v >= other.
func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}

	return v.Minor >= other.Minor
}

// minVersion is the oldest version this loader accepts (spec §4.1).
var minVersion = Version{Major: 11, Minor: 10}

// version11_14 is the version at which GhmRootInfo gained
// childbirth_severity_mode (spec §4.1).
var version11_14 = Version{Major: 11, Minor: 14}

// Section describes one section of a nested table's payload.
type Section struct {
	ValuesCount uint16
	ValueLen    uint16
	RawOffset   uint32
	RawLen      uint32
}

// TableInfo captures one table as parsed from a file.
type TableInfo struct {
	Kind      Kind
	Version   Version
	BuildDate codes.Date
	From, To  codes.Date
	Sections  []Section
	Filename  string

	// Parsed payload, populated according to Kind.
	GhmNodes       []GhmDecisionNode
	Diagnoses      []DiagnosisInfo
	Exclusions     []ExclusionInfo
	Procedures     []ProcedureInfo
	GhmRoots       []GhmRootInfo
	GnnCells       []ValueRangeCell2
	CmaCells       [3][]ValueRangeCell2Value
	Ghs            []GhsInfo
	Authorizations []AuthorizationInfo
	SrcPairs       [2][]SrcPair
}

// GhmDecisionNode is one node of the decision tree (spec §4.1/§4.4). The
// three variants (test, jump, terminal) share one struct, matching the
// teacher's arena-of-indices style (see DESIGN.md): the interpreter
// dispatches on Function.
type GhmDecisionNode struct {
	Function      uint8
	Params        [2]uint8
	ChildrenIdx   uint32
	ChildrenCount uint8

	// Populated only when Function == 12 (terminal).
	Ghm   codes.GhmCode
	Error uint8
}

// IsJump reports whether this node is the unconditional jump (function 20).
func (n GhmDecisionNode) IsJump() bool { return n.Function == 20 }

// IsTerminal reports whether this node emits a GHM directly.
func (n GhmDecisionNode) IsTerminal() bool { return n.Function == 12 }

// DiagnosisFlags is a bitset of per-diagnosis flags (spec §3).
type DiagnosisFlags uint16

const (
	FlagSexDifference DiagnosisFlags = 1 << iota
)

// DiagnosisAttributes is the per-sex raw attribute block plus the fields
// derived from it at load time.
type DiagnosisAttributes struct {
	Raw      [32]byte
	Cmd      uint8
	Jump     uint8
	Severity uint8
}

// DiagnosisInfo holds everything known about one diagnosis code.
type DiagnosisInfo struct {
	Code                codes.DiagnosisCode
	Flags               DiagnosisFlags
	Attributes          [2]DiagnosisAttributes // indexed by codes.Sex.Index()
	Warnings            uint32
	ExclusionSetIdx     int
	CmaExclusionOffset  uint8
	CmaExclusionMask    uint8
}

// ExclusionInfo is one raw CMA exclusion bitset, indexed by
// DiagnosisInfo.ExclusionSetIdx.
type ExclusionInfo struct {
	Raw [32]byte
}

// TestBit reports whether the bit (offset, mask) is set in this exclusion
// set. Per spec §9's "exclusion test asymmetry" note, callers must pass the
// CANDIDATE diagnosis's exclusion set together with the MAIN/LINKED
// diagnosis's own (offset, mask) — never the reverse.
func (e ExclusionInfo) TestBit(offset, mask uint8) bool {
	if int(offset) >= len(e.Raw) {
		return false
	}

	return e.Raw[offset]&mask != 0
}

// ProcedureLimitDates bounds the validity interval of one ProcedureInfo
// phase record.
type ProcedureLimitDates struct {
	From, To codes.Date
}

// ProcedureInfo holds everything known about one (code, phase) procedure
// record.
type ProcedureInfo struct {
	Code       codes.ProcedureCode
	Phase      uint8
	LimitDates ProcedureLimitDates
	Raw        [56]byte
	Activities uint32
}

// GhmRootInfo holds the severity and classification parameters shared by
// all GHMs under one root.
type GhmRootInfo struct {
	Code                    codes.GhmRootCode
	AllowAmbulatory         bool
	ShortDurationTreshold   uint16
	YoungAgeTreshold        uint16
	YoungSeverityLimit      uint8
	OldAgeTreshold          uint16
	OldSeverityLimit        uint8
	ConfirmDurationTreshold uint16
	ChildbirthSeverityList  uint8 // 0..3
	CmaExclusionOffset      uint8
	CmaExclusionMask        uint8
}

// GhsFilter is the optional set of conditions a GhsInfo entry imposes.
type GhsFilter struct {
	HasMainDiagnosisMask bool
	MainDiagnosisMask    uint32
	HasDiagnosisMask     bool
	DiagnosisMask        uint32
	HasProcedureMask     bool
	ProcedureMask        uint32
	HasUnitAuth          bool
	UnitAuth             uint16
	HasBedAuth           bool
	BedAuth              uint16
	MinimalDuration      uint16
	MinimalAge           uint16
}

// GhsInfo maps one GHM to its public/private GHS codes plus pricing
// adjustment parameters and optional eligibility filters.
type GhsInfo struct {
	Ghm           codes.GhmRootCode
	GhmMode       byte // 0 matches any mode of the root
	Ghs           [2]codes.GhsCode // [0] public, [1] private
	Filter        GhsFilter
	ExhTreshold   uint16
	ExbTreshold   uint16
	ExbOnce       bool
}

// AuthorizationInfo is one bed/unit authorization record.
type AuthorizationInfo struct {
	Unit     codes.UnitCode
	Function uint8
	Bed      uint8
}

// SrcPair is one (diagnosis, procedure) "supplement" pair, used by the two
// src_pairs lists.
type SrcPair struct {
	Diagnosis codes.DiagnosisCode
	Procedure codes.ProcedureCode
}

// ValueRangeCell2 is a two-variable range cell: it matches iff Var1 lies in
// [Min1, Max1) and Var2 lies in [Min2, Max2). Used for GNN classification
// (newborn weight / gestational age) per spec §3.
type ValueRangeCell2 struct {
	Min1, Max1 int32
	Min2, Max2 int32
	Value      int32
}

// Matches reports whether (v1, v2) falls inside this cell.
func (c ValueRangeCell2) Matches(v1, v2 int32) bool {
	return v1 >= c.Min1 && v1 < c.Max1 && v2 >= c.Min2 && v2 < c.Max2
}

// ValueRangeCell2Value is a childbirth-severity cell: matches a
// (gestational age, severity) pair in the same way as ValueRangeCell2, but
// carries the overriding severity as Value.
type ValueRangeCell2Value = ValueRangeCell2
