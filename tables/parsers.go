package tables

import "github.com/wtsi-hgi/mco-ghm/codes"

// Fixed record sizes for the flat per-kind tables (spec §4.1/§4.7). None of
// these are dictated byte-for-byte by spec.md beyond the GHM decision node
// and the diagnosis/procedure lookup layers; the remaining layouts are
// self-consistent packed encodings of the fields spec.md's data model
// requires, documented here and in DESIGN.md rather than invented ad hoc at
// each call site.
const (
	ghmNodeRecordSize = 6

	diagBucketEntrySize = 2
	diagBucketCount     = 2600
	diagRecordSize      = 9
	diagAttrBlockSize   = 32
	diagWarningsSize    = 4
	diagExclusionSize   = 32

	procBucketEntrySize = 2
	procBucketCount     = 17576
	procRecordSize      = 10
	procAttrBlockSize   = 56

	ghmRootRecordSizeLegacy    = 18
	ghmRootRecordSizeExtended = 20

	ghsRecordSize = 36

	cellRecordSize = 12

	authRecordSize = 4

	srcPairRecordSize = 16
)

// tail alphabet for the code456 % 1584 tail-character decomposition (spec
// §4.1): a space placeholder plus digits 0-9 plus '+'.
const tailAlphabet = " 0123456789+"

func parseGhmTree(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	if len(sections) == 0 {
		return nil
	}

	sd := sections[0]

	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return err
	}

	nodes := make([]GhmDecisionNode, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*ghmNodeRecordSize, ghmNodeRecordSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		function := r.ReadUint8()
		p0 := r.ReadUint8()
		p1 := r.ReadUint8()
		childrenCount := r.ReadUint8()
		childrenIdx := uint32(r.ReadUint16())

		node := GhmDecisionNode{
			Function:      function,
			Params:        [2]uint8{p0, p1},
			ChildrenIdx:   childrenIdx,
			ChildrenCount: childrenCount,
		}

		switch function {
		case 12:
			node.Ghm = codes.GhmCode{
				Root: codes.GhmRootCode{
					Cmd:  p1,
					Type: ghmRootTypeChar(int(childrenIdx / 1000 % 10)),
					Seq:  uint8(childrenIdx / 10 % 100), //nolint:gosec
				},
				Mode: ghmModeChar(int(childrenIdx % 10)),
			}
			node.Error = p0
		case 20:
			node.ChildrenIdx = childrenIdx + uint32(p0)<<8 + uint32(p1)
			node.ChildrenCount = 1
		}

		nodes = append(nodes, node)
	}

	info.GhmNodes = nodes

	return nil
}

// ghmRootTypeChar/ghmModeChar mirror codes.GhmTypeChar/GhmModeChar's tables
// (chars1/chars4 in spec §4.1) without importing the index-bounds panic risk
// of a direct array index on attacker-controlled input.
func ghmRootTypeChar(i int) byte {
	if i < 0 || i > 9 {
		return 0
	}

	return codes.GhmTypeChar(i)
}

func ghmModeChar(i int) byte {
	if i < 0 || i > 9 {
		return 0
	}

	return codes.GhmModeChar(i)
}

func parseDiagnosisTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	if len(sections) < 5 {
		return nil
	}

	section1, err := slice(data, filename, sections[1].RawOffset, sections[1].RawLen)
	if err != nil {
		return err
	}

	section2, err := slice(data, filename, sections[2].RawOffset, sections[2].RawLen)
	if err != nil {
		return err
	}

	section3, err := slice(data, filename, sections[3].RawOffset, sections[3].RawLen)
	if err != nil {
		return err
	}

	section4, err := slice(data, filename, sections[4].RawOffset, sections[4].RawLen)
	if err != nil {
		return err
	}

	diagnoses := make([]DiagnosisInfo, 0, sections[1].ValuesCount)
	exclusionByIdx := map[uint16]int{}

	for i := uint16(0); i < sections[1].ValuesCount; i++ {
		rec, recErr := slice(section1, filename, uint32(i)*diagRecordSize, diagRecordSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		code456 := r.ReadUint16()
		section2Idx := r.ReadUint16()
		section3Idx := r.ReadUint8()
		skip(r, 2) // section4_bit, not read
		section4Idx := r.ReadUint16()

		code, ok := decodeDiagCode456(code456, i)
		if !ok {
			continue
		}

		diag := DiagnosisInfo{Code: code}

		for sex := 0; sex < 2; sex++ {
			off := uint32(section2Idx)*diagAttrBlockSize*2 + uint32(sex)*diagAttrBlockSize

			block, blockErr := slice(section2, filename, off, diagAttrBlockSize)
			if blockErr != nil {
				continue
			}

			var attrs DiagnosisAttributes
			copy(attrs.Raw[:], block)
			attrs.Cmd = block[0]
			attrs.Jump = block[1]
			attrs.Severity = deriveDiagnosisSeverity(block)

			diag.Attributes[sex] = attrs
		}

		if diag.Attributes[0].Raw != diag.Attributes[1].Raw {
			diag.Flags |= FlagSexDifference
		}

		if warn, werr := slice(section3, filename, uint32(section3Idx)*diagWarningsSize, diagWarningsSize); werr == nil {
			diag.Warnings = beUint32(warn)
		}

		idx, known := exclusionByIdx[section4Idx]
		if !known {
			block, exErr := slice(section4, filename, uint32(section4Idx)*diagExclusionSize, diagExclusionSize)
			if exErr != nil {
				diag.ExclusionSetIdx = -1
			} else {
				var ex ExclusionInfo
				copy(ex.Raw[:], block)
				info.Exclusions = append(info.Exclusions, ex)
				idx = len(info.Exclusions) - 1
				exclusionByIdx[section4Idx] = idx
				diag.ExclusionSetIdx = idx
			}
		} else {
			diag.ExclusionSetIdx = idx
		}

		diag.CmaExclusionOffset = diag.Attributes[0].Raw[22]
		diag.CmaExclusionMask = diag.Attributes[0].Raw[23]

		diagnoses = append(diagnoses, diag)
	}

	sortDiagnoses(diagnoses)
	info.Diagnoses = diagnoses

	return nil
}

// deriveDiagnosisSeverity applies spec §4.1's raw-attribute-bit formula.
func deriveDiagnosisSeverity(raw []byte) uint8 {
	if len(raw) <= 21 {
		return 0
	}

	switch {
	case raw[21]&0x40 != 0:
		return 3
	case raw[21]&0x80 != 0:
		return 2
	case raw[20]&0x01 != 0:
		return 1
	default:
		return 0
	}
}

// decodeDiagCode456 reconstructs a full diagnosis code from the bucket
// index i (which supplies letter+2 digits) and the packed code456 value
// (which supplies up to 3 trailing characters via a base-12 decomposition,
// spec §4.1).
func decodeDiagCode456(code456 uint16, bucketIdx uint16) (codes.DiagnosisCode, bool) {
	letterOrd := bucketIdx / 100
	digits := bucketIdx % 100

	if letterOrd > 25 {
		return codes.DiagnosisCode{}, false
	}

	letter := byte('A' + letterOrd)

	tailCode := code456 % 1584
	k1 := tailCode / (12 * 12)
	k2 := (tailCode / 12) % 12
	k3 := tailCode % 12

	tail := string([]byte{tailAlphabet[k1], tailAlphabet[k2], tailAlphabet[k3]})

	s := string([]byte{letter, '0' + byte(digits/10), '0' + byte(digits%10)}) + tail

	return codes.ParseDiagnosis(s)
}

func sortDiagnoses(d []DiagnosisInfo) {
	// Insertion sort: bucket order from the loader is already nearly sorted
	// (the 2600-entry index walks letters/digits in order), so this stays
	// linear in practice while keeping the code simple.
	for i := 1; i < len(d); i++ {
		for j := i; j > 0 && diagnosisLess(d[j], d[j-1]); j-- {
			d[j], d[j-1] = d[j-1], d[j]
		}
	}
}

func diagnosisLess(a, b DiagnosisInfo) bool {
	return string(a.Code[:]) < string(b.Code[:])
}

func parseProcedureTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	if len(sections) < 2 {
		return nil
	}

	section1, err := slice(data, filename, sections[1].RawOffset, sections[1].RawLen)
	if err != nil {
		return err
	}

	var attrSection []byte
	if len(sections) >= 3 {
		attrSection, err = slice(data, filename, sections[2].RawOffset, sections[2].RawLen)
		if err != nil {
			return err
		}
	}

	procedures := make([]ProcedureInfo, 0, sections[1].ValuesCount)

	for i := uint16(0); i < sections[1].ValuesCount; i++ {
		rec, recErr := slice(section1, filename, uint32(i)*procRecordSize, procRecordSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		fourthLetter := r.ReadUint8()
		seq := r.ReadUint16()
		phase := r.ReadUint8()
		from := int32(r.ReadUint16()) //nolint:gosec
		to := int32(r.ReadUint16())   //nolint:gosec
		attrOffset := r.ReadUint16()

		if seq > 999 || fourthLetter == 0 {
			continue
		}

		code, ok := decodeProcCode(uint32(i), fourthLetter, seq)
		if !ok {
			continue
		}

		info2 := ProcedureInfo{
			Code:  code,
			Phase: phase,
			LimitDates: ProcedureLimitDates{
				From: codes.DateFromOffset(from),
				To:   codes.DateFromOffset(to),
			},
		}

		if attrSection != nil {
			if block, aerr := slice(attrSection, filename, uint32(attrOffset)*procAttrBlockSize, procAttrBlockSize); aerr == nil {
				copy(info2.Raw[:], block)
				info2.Activities = beUint32(block[:4])
			}
		}

		procedures = append(procedures, info2)
	}

	sortProcedures(procedures)
	info.Procedures = procedures

	return nil
}

func decodeProcCode(bucketIdx uint32, fourthLetter uint8, seq uint16) (codes.ProcedureCode, bool) {
	if bucketIdx >= procBucketCount {
		return codes.ProcedureCode{}, false
	}

	l1 := byte('A' + bucketIdx/(26*26))
	l2 := byte('A' + (bucketIdx/26)%26)
	l3 := byte('A' + bucketIdx%26)
	l4 := fourthLetter

	s := string([]byte{l1, l2, l3, l4}) + padDigits(seq, 3)

	return codes.ParseProcedure(s)
}

func padDigits(v uint16, width int) string {
	buf := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		buf[i] = '0' + byte(v%10)
		v /= 10
	}

	return string(buf)
}

func sortProcedures(p []ProcedureInfo) {
	for i := 1; i < len(p); i++ {
		for j := i; j > 0 && procedureLess(p[j], p[j-1]); j-- {
			p[j], p[j-1] = p[j-1], p[j]
		}
	}
}

func procedureLess(a, b ProcedureInfo) bool {
	ac, bc := string(a.Code[:]), string(b.Code[:])
	if ac != bc {
		return ac < bc
	}

	return a.Phase < b.Phase
}

func parseGhmRootTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor, version Version) error {
	if len(sections) == 0 {
		return nil
	}

	sd := sections[0]

	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return err
	}

	recSize := uint32(ghmRootRecordSizeLegacy)
	extended := version.AtLeast(version11_14)

	if extended {
		recSize = ghmRootRecordSizeExtended
	}

	roots := make([]GhmRootInfo, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*recSize, recSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		cmd := r.ReadUint8()
		typ := r.ReadUint8()
		seq := r.ReadUint8()
		allowAmb := r.ReadUint8()
		shortDur := r.ReadUint16()
		youngAge := r.ReadUint16()
		youngSev := r.ReadUint8()
		oldAge := r.ReadUint16()
		oldSev := r.ReadUint8()
		confirmDur := r.ReadUint16()
		cmaOffset := r.ReadUint8()
		cmaMask := r.ReadUint8()
		skip(r, 2)

		var childbirth uint8
		if extended {
			childbirth = r.ReadUint8()
			skip(r, 1)
		}

		root := GhmRootInfo{
			Code:                    codes.GhmRootCode{Cmd: cmd, Type: typ, Seq: seq},
			AllowAmbulatory:         allowAmb != 0,
			ShortDurationTreshold:   shortDur,
			YoungAgeTreshold:        youngAge,
			YoungSeverityLimit:      youngSev,
			OldAgeTreshold:          oldAge,
			OldSeverityLimit:        oldSev,
			ConfirmDurationTreshold: confirmDur,
			ChildbirthSeverityList:  childbirth,
			CmaExclusionOffset:      cmaOffset,
			CmaExclusionMask:        cmaMask,
		}

		roots = append(roots, root)
	}

	info.GhmRoots = roots

	return nil
}

func parseGhsTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	if len(sections) == 0 {
		return nil
	}

	sd := sections[0]

	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return err
	}

	entries := make([]GhsInfo, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*ghsRecordSize, ghsRecordSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		cmd := r.ReadUint8()
		typ := r.ReadUint8()
		seq := r.ReadUint8()
		mode := r.ReadUint8()
		ghsPublic := r.ReadUint16()
		ghsPrivate := r.ReadUint16()
		flags := r.ReadUint8()
		mainDiagMask := r.ReadUint32()
		diagMask := r.ReadUint32()
		procMask := r.ReadUint32()
		unitAuth := r.ReadUint16()
		bedAuth := r.ReadUint16()
		minDuration := r.ReadUint16()
		minAge := r.ReadUint16()
		exh := r.ReadUint16()
		exb := r.ReadUint16()
		skip(r, 3)

		entry := GhsInfo{
			Ghm:     codes.GhmRootCode{Cmd: cmd, Type: typ, Seq: seq},
			GhmMode: mode,
			Ghs:     [2]codes.GhsCode{codes.GhsCode(ghsPublic), codes.GhsCode(ghsPrivate)},
			Filter: GhsFilter{
				HasMainDiagnosisMask: flags&0x01 != 0,
				MainDiagnosisMask:    mainDiagMask,
				HasDiagnosisMask:     flags&0x02 != 0,
				DiagnosisMask:        diagMask,
				HasProcedureMask:     flags&0x04 != 0,
				ProcedureMask:        procMask,
				HasUnitAuth:          flags&0x08 != 0,
				UnitAuth:             unitAuth,
				HasBedAuth:           flags&0x10 != 0,
				BedAuth:              bedAuth,
				MinimalDuration:      minDuration,
				MinimalAge:           minAge,
			},
			ExhTreshold: exh,
			ExbTreshold: exb,
			ExbOnce:     flags&0x20 != 0,
		}

		entries = append(entries, entry)
	}

	sortGhs(entries)
	info.Ghs = entries

	return nil
}

func sortGhs(g []GhsInfo) {
	for i := 1; i < len(g); i++ {
		for j := i; j > 0 && ghsLess(g[j], g[j-1]); j-- {
			g[j], g[j-1] = g[j-1], g[j]
		}
	}
}

func ghsLess(a, b GhsInfo) bool {
	as, bs := a.Ghm.String(), b.Ghm.String()
	if as != bs {
		return as < bs
	}

	return a.GhmMode < b.GhmMode
}

func parseSeverityTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	for listIdx := 0; listIdx < 3 && listIdx < len(sections); listIdx++ {
		sd := sections[listIdx]

		cells, err := parseCells(data, filename, sd)
		if err != nil {
			return err
		}

		info.CmaCells[listIdx] = cells
	}

	if len(sections) > 3 {
		cells, err := parseCells(data, filename, sections[3])
		if err != nil {
			return err
		}

		info.GnnCells = cells
	}

	return nil
}

func parseCells(data []byte, filename string, sd sectionDescriptor) ([]ValueRangeCell2, error) {
	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return nil, err
	}

	cells := make([]ValueRangeCell2, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*cellRecordSize, cellRecordSize)
		if recErr != nil {
			return nil, recErr
		}

		r := bigEndianReader(rec)

		min1 := int32(r.ReadUint16()) //nolint:gosec
		max1 := int32(r.ReadUint16()) //nolint:gosec
		min2 := int32(r.ReadUint16()) //nolint:gosec
		max2 := int32(r.ReadUint16()) //nolint:gosec
		value := int32(r.ReadUint16()) //nolint:gosec
		skip(r, 2)

		cells = append(cells, ValueRangeCell2{Min1: min1, Max1: max1, Min2: min2, Max2: max2, Value: value})
	}

	return cells, nil
}

func parseAuthorizationTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	if len(sections) == 0 {
		return nil
	}

	sd := sections[0]

	raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
	if err != nil {
		return err
	}

	auths := make([]AuthorizationInfo, 0, sd.ValuesCount)

	for i := uint16(0); i < sd.ValuesCount; i++ {
		rec, recErr := slice(raw, filename, uint32(i)*authRecordSize, authRecordSize)
		if recErr != nil {
			return recErr
		}

		r := bigEndianReader(rec)

		unit := r.ReadUint16()
		function := r.ReadUint8()
		bed := r.ReadUint8()

		auths = append(auths, AuthorizationInfo{Unit: codes.UnitCode(unit), Function: function, Bed: bed})
	}

	info.Authorizations = auths

	return nil
}

func parseSrcPairTable(data []byte, filename string, info *TableInfo, sections []sectionDescriptor) error {
	for listIdx := 0; listIdx < 2 && listIdx < len(sections); listIdx++ {
		sd := sections[listIdx]

		raw, err := slice(data, filename, sd.RawOffset, sd.RawLen)
		if err != nil {
			return err
		}

		pairs := make([]SrcPair, 0, sd.ValuesCount)

		for i := uint16(0); i < sd.ValuesCount; i++ {
			rec, recErr := slice(raw, filename, uint32(i)*srcPairRecordSize, srcPairRecordSize)
			if recErr != nil {
				return recErr
			}

			r := bigEndianReader(rec)

			diagBuf := make([]byte, 6)
			for k := range diagBuf {
				diagBuf[k] = r.ReadUint8()
			}

			procBuf := make([]byte, 7)
			for k := range procBuf {
				procBuf[k] = r.ReadUint8()
			}

			skip(r, 3)

			var diag codes.DiagnosisCode
			copy(diag[:], diagBuf)

			var proc codes.ProcedureCode
			copy(proc[:], procBuf)

			pairs = append(pairs, SrcPair{Diagnosis: diag, Procedure: proc})
		}

		info.SrcPairs[listIdx] = pairs
	}

	return nil
}

func beUint32(b []byte) uint32 {
	if len(b) < 4 {
		return 0
	}

	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}
