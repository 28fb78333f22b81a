package cmd

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/wtsi-hgi/mco-ghm/codes"
	"github.com/wtsi-hgi/mco-ghm/pricing"
	"github.com/wtsi-hgi/mco-ghm/stay"
)

// textIngestor implements stay.Ingestor over a simple tab-separated text
// format, one stay fragment per line (grounded on stats.StatsParser's
// fixed-column, Scan()/Err() pull-parser shape — the concrete wire format
// here is a CLI convenience, not a contract the core library depends on;
// spec §6 leaves the wire format to an external ingestor).
//
// Columns: stay_id bill_id birthdate(YYYYMMDD) sex(1|2) from(YYYYMMDD)
// to(YYYYMMDD) entry_mode entry_site exit_mode exit_site unit main_diagnosis
// linked_diagnosis(or "-") associated_diagnoses(comma-separated, or "-")
type textIngestor struct {
	scanner *bufio.Scanner
	cur     stay.Stay
	err     error
}

func newTextIngestor(r io.Reader) *textIngestor {
	return &textIngestor{scanner: bufio.NewScanner(r)}
}

func (t *textIngestor) Scan() bool {
	if t.err != nil {
		return false
	}

	for t.scanner.Scan() {
		line := strings.TrimSpace(t.scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		s, err := parseStayLine(line)
		if err != nil {
			t.err = err

			return false
		}

		t.cur = s

		return true
	}

	t.err = t.scanner.Err()

	return false
}

func (t *textIngestor) Stay() stay.Stay { return t.cur }
func (t *textIngestor) Err() error      { return t.err }

func parseStayLine(line string) (stay.Stay, error) {
	f := strings.Split(line, "\t")
	if len(f) < 14 {
		return stay.Stay{}, errShortStayLine
	}

	var s stay.Stay

	stayID, err := strconv.ParseUint(f[0], 10, 32)
	billID, err2 := strconv.ParseUint(f[1], 10, 32)

	if err != nil || err2 != nil {
		return stay.Stay{}, errShortStayLine
	}

	s.StayID = uint32(stayID) //nolint:gosec
	s.BillID = uint32(billID) //nolint:gosec

	if s.Birthdate, err = parseYYYYMMDD(f[2]); err != nil {
		return stay.Stay{}, err
	}

	sexV, err := strconv.ParseUint(f[3], 10, 8)
	if err != nil {
		return stay.Stay{}, err
	}

	if s.Sex, err = codes.ParseSex(uint8(sexV)); err != nil { //nolint:gosec
		return stay.Stay{}, err
	}

	if s.From, err = parseYYYYMMDD(f[4]); err != nil {
		return stay.Stay{}, err
	}

	if s.To, err = parseYYYYMMDD(f[5]); err != nil {
		return stay.Stay{}, err
	}

	s.Entry.Mode = parseByteField(f[6])
	s.Entry.Site = parseByteField(f[7])
	s.Exit.Mode = parseByteField(f[8])
	s.Exit.Site = parseByteField(f[9])

	unit, err := strconv.ParseUint(f[10], 10, 16)
	if err != nil {
		return stay.Stay{}, err
	}

	s.Unit = codes.UnitCode(unit) //nolint:gosec

	if s.MainDiagnosis, err = codes.ParseDiagnosis(f[11]); err != nil {
		return stay.Stay{}, err
	}

	if f[12] != "-" {
		if s.LinkedDiagnosis, err = codes.ParseDiagnosis(f[12]); err != nil {
			return stay.Stay{}, err
		}

		s.HasLinked = true
	}

	if f[13] != "-" {
		for _, code := range strings.Split(f[13], ",") {
			d, derr := codes.ParseDiagnosis(code)
			if derr != nil {
				return stay.Stay{}, derr
			}

			s.AssociatedDiagnoses = append(s.AssociatedDiagnoses, d)
		}
	}

	return s, nil
}

func parseByteField(s string) uint8 {
	v, _ := strconv.ParseUint(s, 10, 8) //nolint:errcheck

	return uint8(v) //nolint:gosec
}

func parseYYYYMMDD(s string) (codes.Date, error) {
	if len(s) != 8 {
		return codes.Date{}, errShortStayLine
	}

	y, err1 := strconv.Atoi(s[0:4])
	m, err2 := strconv.Atoi(s[4:6])
	d, err3 := strconv.Atoi(s[6:8])

	if err1 != nil || err2 != nil || err3 != nil {
		return codes.Date{}, errShortStayLine
	}

	date, ok := codes.NewDate(y, uint8(m), uint8(d)) //nolint:gosec
	if !ok {
		return codes.Date{}, errShortStayLine
	}

	return date, nil
}

type ingestError string

func (e ingestError) Error() string { return string(e) }

const errShortStayLine = ingestError("malformed stay line")

func loadOptionalPricing(path string) *pricing.PricingSet {
	if path == "" {
		return nil
	}

	f, err := openInput(path)
	if err != nil {
		die("failed to open pricing file: %s", err)
	}
	defer f.Close()

	set, err := pricing.Load(f)
	if err != nil {
		die("failed to load pricing file: %s", err)
	}

	return set
}

func loadStays(path string) *stay.StaySet {
	f, err := openInput(path)
	if err != nil {
		die("failed to open stay input: %s", err)
	}
	defer f.Close()

	set, err := stay.Build(newTextIngestor(f))
	if err != nil {
		die("failed to parse stay input: %s", err)
	}

	return set
}
