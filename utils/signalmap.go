package utils

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SignalDef describes one physical signal packed into a CAN frame.
// Only little-endian packing is supported.
type SignalDef struct {
	Name       string
	StartBit   int
	BitLength  int
	Signed     bool
	Factor     float64
	Offset     float64
	Min        float64
	Max        float64
	Default    float64
	Unit       string
	Comment    string
	Endianness string
}

// FrameDef describes one CAN frame and its signal layout.
type FrameDef struct {
	ID        uint32
	Name      string
	DLC       int
	Direction string // "tx" or "rx" from the drive's point of view
	CycleMS   int
	Signals   []SignalDef
}

// SignalMap is the loaded frame/signal database, indexed both ways.
type SignalMap struct {
	ByID   map[uint32]*FrameDef
	ByName map[string]*FrameDef
}

func (m *SignalMap) FrameByName(name string) (*FrameDef, error) {
	fd, ok := m.ByName[name]
	if !ok {
		return nil, fmt.Errorf("unknown frame %q (available: %v)", name, m.FrameNames())
	}
	return fd, nil
}

func (m *SignalMap) FrameByID(id uint32) (*FrameDef, error) {
	fd, ok := m.ByID[id]
	if !ok {
		return nil, fmt.Errorf("unknown frame id 0x%X", id)
	}
	return fd, nil
}

func (m *SignalMap) FrameNames() []string {
	out := make([]string, 0, len(m.ByName))
	for k := range m.ByName {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var mapColumns = []string{
	"direction", "frame_id", "frame_name", "cycle_ms", "dlc",
	"signal_name", "start_bit", "bit_length", "endianness",
	"signed", "factor", "offset", "min", "max", "default", "unit", "comment",
}

// LoadSignalMap reads the CSV frame/signal database. One row per
// signal; frame-level columns must agree across rows of the same frame.
func LoadSignalMap(csvPath string) (*SignalMap, error) {
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[strings.TrimSpace(h)] = i
	}
	for _, k := range mapColumns {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("signal map missing required column %q", k)
		}
	}

	m := &SignalMap{
		ByID:   map[uint32]*FrameDef{},
		ByName: map[string]*FrameDef{},
	}

	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if err := m.addRow(rec, col); err != nil {
			return nil, err
		}
	}

	for _, fd := range m.ByID {
		sort.Slice(fd.Signals, func(i, j int) bool {
			return fd.Signals[i].StartBit < fd.Signals[j].StartBit
		})
	}
	return m, nil
}

func (m *SignalMap) addRow(rec []string, col map[string]int) error {
	field := func(name string) string { return strings.TrimSpace(rec[col[name]]) }

	frameID, err := parseHexOrDecUint32(field("frame_id"))
	if err != nil {
		return fmt.Errorf("invalid frame_id %q: %w", field("frame_id"), err)
	}
	frameName := field("frame_name")
	dlc := atoiLoose(field("dlc"))

	sig := SignalDef{
		Name:       field("signal_name"),
		StartBit:   atoiLoose(field("start_bit")),
		BitLength:  atoiLoose(field("bit_length")),
		Endianness: field("endianness"),
		Signed:     parseBoolLoose(field("signed")),
		Factor:     atofLoose(field("factor")),
		Offset:     atofLoose(field("offset")),
		Min:        atofLoose(field("min")),
		Max:        atofLoose(field("max")),
		Default:    atofLoose(field("default")),
		Unit:       field("unit"),
		Comment:    field("comment"),
	}

	if sig.Endianness != "" && sig.Endianness != "little" {
		return fmt.Errorf("frame %s signal %s: unsupported endianness %q",
			frameName, sig.Name, sig.Endianness)
	}
	if sig.BitLength <= 0 || sig.BitLength > 64 {
		return fmt.Errorf("frame %s signal %s: invalid bit_length %d", frameName, sig.Name, sig.BitLength)
	}
	if dlc <= 0 || dlc > 8 {
		return fmt.Errorf("frame %s (0x%X): invalid dlc %d", frameName, frameID, dlc)
	}
	if sig.StartBit < 0 || sig.StartBit+sig.BitLength > dlc*8 {
		return fmt.Errorf("frame %s signal %s: bits [%d,%d) outside %d-byte payload",
			frameName, sig.Name, sig.StartBit, sig.StartBit+sig.BitLength, dlc)
	}

	fd, ok := m.ByID[frameID]
	if !ok {
		fd = &FrameDef{
			ID:        frameID,
			Name:      frameName,
			DLC:       dlc,
			Direction: field("direction"),
			CycleMS:   atoiLoose(field("cycle_ms")),
		}
		m.ByID[frameID] = fd
		m.ByName[frameName] = fd
	}
	if fd.DLC != dlc {
		return fmt.Errorf("frame %s (0x%X) has inconsistent DLC (%d vs %d)", frameName, frameID, fd.DLC, dlc)
	}

	fd.Signals = append(fd.Signals, sig)
	return nil
}

func parseHexOrDecUint32(s string) (uint32, error) {
	base := 10
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		base = 16
		s = s[2:]
	}
	u, err := strconv.ParseUint(s, base, 32)
	if err != nil {
		return 0, err
	}
	return uint32(u), nil
}

func atoiLoose(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}

func atofLoose(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func parseBoolLoose(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true
	}
	return false
}
