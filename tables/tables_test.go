package tables

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/wtsi-hgi/mco-ghm/codes"
)

func mustDate(t *testing.T, y int, m, d uint8) codes.Date {
	t.Helper()

	date, ok := codes.NewDate(y, m, d)
	if !ok {
		t.Fatalf("invalid date %d-%d-%d", y, m, d)
	}

	return date
}

func TestBuildIndexesDisjoint(t *testing.T) {
	Convey("P1/P2: adjacent table validity ranges produce disjoint, covering indexes", t, func() {
		from1 := mustDate(t, 2023, 1, 1)
		to1 := mustDate(t, 2023, 7, 1)
		to2 := mustDate(t, 2024, 1, 1)

		set := &TableSet{
			Tables: []TableInfo{
				{Kind: KindGhmDecisionTree, From: from1, To: to1, Version: Version{11, 10}},
				{Kind: KindGhmDecisionTree, From: to1, To: to2, Version: Version{11, 10}},
				{Kind: KindDiagnosisTable, From: from1, To: to2, Version: Version{11, 10}},
				{Kind: KindProcedureTable, From: from1, To: to2, Version: Version{11, 10}},
				{Kind: KindGhmRootTable, From: from1, To: to2, Version: Version{11, 10}},
				{Kind: KindSeverityTable, From: from1, To: to2, Version: Version{11, 10}},
				{Kind: KindGhsTable, From: from1, To: to2, Version: Version{11, 10}},
			},
		}

		err := set.buildIndexes()
		So(err, ShouldBeNil)
		So(len(set.Indexes), ShouldEqual, 2)

		for i := 1; i < len(set.Indexes); i++ {
			So(set.Indexes[i-1].To, ShouldEqual, set.Indexes[i].From)
		}

		mid := mustDate(t, 2023, 3, 1)
		idx, err := set.FindIndex(mid)
		So(err, ShouldBeNil)
		So(idx.From, ShouldEqual, from1)
		So(idx.To, ShouldEqual, to1)

		_, err = set.FindIndex(mustDate(t, 2022, 1, 1))
		So(err, ShouldEqual, ErrIndexNotFound)
	})
}

// buildMinimalTableFile hand-encodes one file containing a single nested
// GhmDecisionTree table with one terminal node, exercising the big-endian
// packed loader end to end (spec §4.1, P3 via the round-tripped GHM code).
func buildMinimalTableFile(t *testing.T) []byte {
	t.Helper()

	const (
		nestedOffset    = outerHeaderSize + sectionDescSize + tablePointerSize
		nestedSDOffset  = nestedOffset + outerHeaderSize
		payloadOffset   = nestedSDOffset + sectionDescSize
	)

	header := func(name string) []byte {
		h := make([]byte, 0, outerHeaderSize)
		h = append(h, []byte("MCOTABLE")...)
		h = append(h, []byte("1110")...)
		h = append(h, []byte("150124")...)

		nameBytes := make([]byte, 8)
		copy(nameBytes, name)
		h = append(h, nameBytes...)
		h = append(h, 0, 1)
		h = append(h, make([]byte, 8)...)

		return h
	}

	sectionDesc := func(valuesCount, valueLen uint16, rawOffset, rawLen uint32) []byte {
		sd := make([]byte, sectionDescSize)
		putUint16(sd[12:], valuesCount)
		putUint16(sd[14:], valueLen)
		binary.BigEndian.PutUint32(sd[16:], rawLen)
		binary.BigEndian.PutUint32(sd[20:], rawOffset)

		return sd
	}

	// One GHM decision node: function 12 (terminal), reconstructing
	// ErrorGhm (cmd=90, type='Z', seq=3, mode='Z') per spec §4.1's
	// children_idx decomposition.
	node := make([]byte, ghmNodeRecordSize)
	node[0] = 12   // function
	node[1] = 0    // params[0] -> error code
	node[2] = 90   // params[1] -> cmd
	node[3] = 0    // children_count
	binary.BigEndian.PutUint16(node[4:], 5037)

	out := make([]byte, 0, payloadOffset+len(node))
	out = append(out, header("MCOTABLE")...)
	out = append(out, sectionDesc(1, tablePointerSize, outerHeaderSize+sectionDescSize, tablePointerSize)...)

	ptr := make([]byte, tablePointerSize)
	putUint16(ptr[0:], 0)
	putUint16(ptr[2:], 20000)
	binary.BigEndian.PutUint32(ptr[8:], nestedOffset)
	out = append(out, ptr...)

	out = append(out, header("ARBREDEC")...)
	out = append(out, sectionDesc(1, ghmNodeRecordSize, payloadOffset, ghmNodeRecordSize)...)
	out = append(out, node...)

	return out
}

func putUint16(b []byte, v uint16) {
	binary.BigEndian.PutUint16(b, v)
}

func TestLoadFilesRoundTrip(t *testing.T) {
	Convey("LoadFiles parses a hand-encoded minimal binary table file", t, func() {
		data := buildMinimalTableFile(t)

		dir := t.TempDir()
		path := filepath.Join(dir, "table.bin")

		err := os.WriteFile(path, data, 0o600)
		So(err, ShouldBeNil)

		set, err := LoadFiles(path)
		So(err, ShouldBeNil)
		So(len(set.Tables), ShouldEqual, 1)
		So(set.Tables[0].Kind, ShouldEqual, KindGhmDecisionTree)
		So(len(set.Tables[0].GhmNodes), ShouldEqual, 1)

		node := set.Tables[0].GhmNodes[0]
		So(node.IsTerminal(), ShouldBeTrue)
		So(node.Ghm.IsError(), ShouldBeTrue)
	})
}
