package tables

import (
	"bytes"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"

	"github.com/hashicorp/go-multierror"
	"github.com/klauspost/pgzip"

	"github.com/wtsi-hgi/mco-ghm/codes"
)

// Byte layout constants for the packed binary table file format (spec
// §4.1). The reserved-byte counts below are chosen so each structure's
// total size matches what spec.md declares for it (36/27/12 bytes
// respectively); see header/sectionDescriptor's doc comments for the
// per-field breakdown.
const (
	outerHeaderSize  = 36
	sectionDescSize  = 27
	tablePointerSize = 12

	gzipMagic0 = 0x1f
	gzipMagic1 = 0x8b
)

// header is the common 36-byte structure shared by the outer file header and
// every nested table header (spec §4.1):
//
//	signature   8 bytes ASCII
//	version     4 bytes ASCII "VVRR"
//	buildDate   6 bytes ASCII DDMMYY (year + 2000)
//	name        8 bytes ASCII
//	reserved    1 byte
//	sections    1 byte (outer: must be 1; nested: section count)
//	reserved    8 bytes
type header struct {
	Signature string
	Version   Version
	BuildDate codes.Date
	Name      string
	Sections  uint8
}

func parseHeader(data []byte, filename string) (header, []byte, error) {
	raw, err := slice(data, filename, 0, outerHeaderSize)
	if err != nil {
		return header{}, nil, err
	}

	r := bigEndianReader(raw)

	sig := readFixedString(r, 8)
	verMaj, verMin := readVersion(r)
	buildDate, dateErr := readDDMMYY(r)
	name := readFixedString(r, 8)
	skip(r, 1)
	sections := r.ReadUint8()
	skip(r, 8)

	if dateErr != nil {
		return header{}, nil, fmt.Errorf("%s: %w: %w", filename, ErrMalformedBinary, dateErr)
	}

	h := header{
		Signature: sig,
		Version:   Version{Major: verMaj, Minor: verMin},
		BuildDate: buildDate,
		Name:      name,
		Sections:  sections,
	}

	return h, data[outerHeaderSize:], nil
}

// readVersion parses the 4-byte ASCII "VVRR" version field.
func readVersion(r interface{ ReadUint8() uint8 }) (major, minor uint8) {
	buf := [4]byte{r.ReadUint8(), r.ReadUint8(), r.ReadUint8(), r.ReadUint8()}

	maj, _ := strconv.Atoi(string(buf[0:2]))
	min, _ := strconv.Atoi(string(buf[2:4]))

	return uint8(maj), uint8(min) //nolint:gosec
}

// readDDMMYY parses the 6-byte ASCII DDMMYY build date field (year is
// 2000-based per spec §4.1).
func readDDMMYY(r interface{ ReadUint8() uint8 }) (codes.Date, error) {
	buf := make([]byte, 6)
	for i := range buf {
		buf[i] = r.ReadUint8()
	}

	day, err1 := strconv.Atoi(string(buf[0:2]))
	month, err2 := strconv.Atoi(string(buf[2:4]))
	year, err3 := strconv.Atoi(string(buf[4:6]))

	if err1 != nil || err2 != nil || err3 != nil {
		return codes.Date{}, ErrMalformedBinary
	}

	d, ok := codes.NewDate(2000+year, uint8(month), uint8(day)) //nolint:gosec
	if !ok {
		return codes.Date{}, ErrMalformedBinary
	}

	return d, nil
}

// sectionDescriptor is the 27-byte outer section descriptor (spec §4.1):
//
//	reserved     12 bytes
//	valuesCount  u16
//	valueLen     u16
//	rawLen       u32
//	rawOffset    u32
//	reserved     3 bytes
type sectionDescriptor struct {
	ValuesCount uint16
	ValueLen    uint16
	RawLen      uint32
	RawOffset   uint32
}

func parseSectionDescriptor(data []byte, filename string, at uint32) (sectionDescriptor, error) {
	raw, err := slice(data, filename, at, sectionDescSize)
	if err != nil {
		return sectionDescriptor{}, err
	}

	r := bigEndianReader(raw)

	skip(r, 12)

	sd := sectionDescriptor{
		ValuesCount: r.ReadUint16(),
		ValueLen:    r.ReadUint16(),
		RawLen:      r.ReadUint32(),
		RawOffset:   r.ReadUint32(),
	}

	skip(r, 3)

	return sd, nil
}

// tablePointer is one 12-byte entry in the outer section's payload (spec
// §4.1):
//
//	dateRange   2 x u16, days since 1979-12-31
//	reserved    4 bytes
//	rawOffset   u32
type tablePointer struct {
	From, To  codes.Date
	RawOffset uint32
}

func parseTablePointers(data []byte, filename string, sd sectionDescriptor) ([]tablePointer, error) {
	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return nil, err
	}

	if uint32(sd.ValuesCount)*tablePointerSize > sd.RawLen {
		return nil, fmt.Errorf("%s: %w: table pointer section too short", filename, ErrMalformedBinary)
	}

	pointers := make([]tablePointer, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*tablePointerSize, tablePointerSize)
		if recErr != nil {
			return nil, recErr
		}

		r := bigEndianReader(rec)

		from := int32(r.ReadUint16()) //nolint:gosec
		to := int32(r.ReadUint16())   //nolint:gosec
		skip(r, 4)
		rawOffset := r.ReadUint32()

		pointers = append(pointers, tablePointer{
			From:      codes.DateFromOffset(from),
			To:        codes.DateFromOffset(to),
			RawOffset: rawOffset,
		})
	}

	return pointers, nil
}

// LoadFiles parses one or more binary table files (each optionally
// gzip-compressed, see SPEC_FULL.md §4.1) into a TableSet. Structural
// failures on individual files are accumulated into a *multierror.Error so
// every offending file is reported (spec §7); unknown nested table kinds
// are recorded as warnings rather than failing the load.
func LoadFiles(paths ...string) (*TableSet, error) {
	if len(paths) == 0 {
		return nil, ErrNoTables
	}

	set := &TableSet{}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var errs *multierror.Error

	for _, path := range sorted {
		infos, warnings, err := loadFile(path)
		if err != nil {
			errs = multierror.Append(errs, err)

			continue
		}

		set.Tables = append(set.Tables, infos...)
		set.Warnings = append(set.Warnings, warnings...)
	}

	if errs.ErrorOrNil() != nil {
		return nil, errs.ErrorOrNil()
	}

	if err := set.buildIndexes(); err != nil {
		return nil, err
	}

	return set, nil
}

func loadFile(path string) ([]TableInfo, []string, error) {
	data, err := readAllDecompressed(path)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}

	outer, section0, err := parseHeader(data, path)
	if err != nil {
		return nil, nil, err
	}

	if outer.Sections != 1 {
		return nil, nil, fmt.Errorf("%s: %w", path, ErrBadSectionCount)
	}

	if !outer.Version.AtLeast(minVersion) {
		return nil, nil, fmt.Errorf("%s: %w: %d.%d", path, ErrVersionTooOld, outer.Version.Major, outer.Version.Minor)
	}

	sd, err := parseSectionDescriptor(data, path, outerHeaderSize)
	if err != nil {
		return nil, nil, err
	}

	_ = section0

	pointers, err := parseTablePointers(data, path, sd)
	if err != nil {
		return nil, nil, err
	}

	infos := make([]TableInfo, 0, len(pointers))

	var warnings []string

	for _, ptr := range pointers {
		info, warning, parseErr := parseNestedTable(data, path, ptr)
		if parseErr != nil {
			return nil, nil, parseErr
		}

		if warning != "" {
			warnings = append(warnings, warning)

			continue
		}

		infos = append(infos, info)
	}

	return infos, warnings, nil
}

// parseNestedTable parses the table at ptr.RawOffset. Returns (info, "",
// nil) on success, or (zero, warning, nil) for a recognized-but-skippable
// condition (unknown kind).
func parseNestedTable(data []byte, filename string, ptr tablePointer) (TableInfo, string, error) {
	nestedRaw, err := slice(data, filename, ptr.RawOffset, outerHeaderSize)
	if err != nil {
		return TableInfo{}, "", err
	}

	h, _, err := parseHeader(nestedRaw, filename)
	if err != nil {
		return TableInfo{}, "", err
	}

	kind, known := tableNames[h.Name]
	if !known {
		return TableInfo{}, fmt.Sprintf("%s: unknown table kind %q, skipped", filename, h.Name), nil
	}

	sections := make([]sectionDescriptor, 0, h.Sections)

	for i := uint8(0); i < h.Sections; i++ {
		at := ptr.RawOffset + outerHeaderSize + uint32(i)*sectionDescSize

		sd, sdErr := parseSectionDescriptor(data, filename, at)
		if sdErr != nil {
			return TableInfo{}, "", sdErr
		}

		sections = append(sections, sd)
	}

	info := TableInfo{
		Kind:      kind,
		Version:   h.Version,
		BuildDate: h.BuildDate,
		From:      ptr.From,
		To:        ptr.To,
		Filename:  filename,
	}

	for _, sd := range sections {
		info.Sections = append(info.Sections, Section{
			ValuesCount: sd.ValuesCount,
			ValueLen:    sd.ValueLen,
			RawOffset:   sd.RawOffset,
			RawLen:      sd.RawLen,
		})
	}

	if err := parsePayload(data, filename, &info, sections); err != nil {
		return TableInfo{}, "", err
	}

	return info, "", nil
}

func parsePayload(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	switch info.Kind {
	case KindGhmDecisionTree:
		return parseGhmTree(data, filename, info, sections)
	case KindDiagnosisTable:
		return parseDiagnosisTable(data, filename, info, sections)
	case KindProcedureTable:
		return parseProcedureTable(data, filename, info, sections)
	case KindGhmRootTable:
		return parseGhmRootTable(data, filename, info, sections, info.Version)
	case KindGhsTable:
		return parseGhsTable(data, filename, info, sections)
	case KindSeverityTable:
		return parseSeverityTable(data, filename, info, sections)
	case KindAuthorizationTable:
		return parseAuthorizationTable(data, filename, info, sections)
	case KindSrcPairTable:
		return parseSrcPairTable(data, filename, info, sections)
	default:
		return nil
	}
}

// readAllDecompressed reads path fully, transparently decompressing it if it
// begins with a gzip magic header (SPEC_FULL.md's domain-stack addition:
// ATIH ships these files individually or gzip-bundled).
func readAllDecompressed(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if len(raw) < 2 || raw[0] != gzipMagic0 || raw[1] != gzipMagic1 {
		return raw, nil
	}

	gr, err := pgzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		// Fall back to the stdlib reader: pgzip wraps gzip and should never
		// disagree, but a corrupt multi-member stream is still just data.
		var gzErr error

		gr2, gzErr2 := gzip.NewReader(bytes.NewReader(raw))
		if gzErr2 != nil {
			return nil, err
		}

		defer gr2.Close()

		out, readErr := io.ReadAll(gr2)
		if readErr != nil {
			return nil, readErr
		}

		return out, gzErr
	}
	defer gr.Close()

	return io.ReadAll(gr)
}

