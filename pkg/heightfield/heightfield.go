// Package heightfield reads and writes the HFLD terrain heightfield format.
package heightfield

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
)

// Heightfield format errors.
var (
	ErrInvalidMagic       = errors.New("invalid heightfield magic: expected 'HFLD'")
	ErrUnsupportedVersion = errors.New("unsupported heightfield version")
	ErrTruncatedData      = errors.New("truncated heightfield data")
)

const (
	magic = "HFLD"

	// MaxDimension bounds width and height of a single heightfield.
	MaxDimension = 8192

	holeFlag     uint32 = 1 << 31
	surfaceMask  uint32 = 0xFFFF
	headerLength        = 4 + 2 + 4 + 4 + 4 + 4 + 4
)

// Version represents the file version.
type Version struct {
	Major uint8
	Minor uint8
}

// String returns the version as "Major.Minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// CurrentVersion is the version written by Encode.
var CurrentVersion = Version{Major: 1, Minor: 0}

// Cell is one grid cell of the heightfield.
type Cell struct {
	// Heights contains the altitude of each corner:
	// [0] = min x/min y, [1] = max x/min y, [2] = min x/max y, [3] = max x/max y
	Heights [4]float32
	Flags   uint32
}

// IsHole reports whether the cell has no terrain.
func (c *Cell) IsHole() bool {
	return c.Flags&holeFlag != 0
}

// SurfaceIndex returns the index into Heightfield.Surfaces.
func (c *Cell) SurfaceIndex() int {
	return int(c.Flags & surfaceMask)
}

// SetHole marks or clears the hole flag.
func (c *Cell) SetHole(hole bool) {
	if hole {
		c.Flags |= holeFlag
	} else {
		c.Flags &^= holeFlag
	}
}

// SetSurfaceIndex stores the surface table index in the cell flags.
func (c *Cell) SetSurfaceIndex(idx int) {
	c.Flags = (c.Flags &^ surfaceMask) | (uint32(idx) & surfaceMask)
}

// Heightfield is a parsed heightfield file.
type Heightfield struct {
	Version  Version
	Width    uint32
	Height   uint32
	CellSize float32
	OriginX  float32
	OriginY  float32
	Surfaces []string
	Cells    []Cell
}

// New returns an empty heightfield with all cells solid and at altitude 0.
func New(width, height uint32, cellSize float32) *Heightfield {
	return &Heightfield{
		Version:  CurrentVersion,
		Width:    width,
		Height:   height,
		CellSize: cellSize,
		Cells:    make([]Cell, int(width)*int(height)),
	}
}

// GetCell returns the cell at the given coordinates.
// Returns nil if coordinates are out of bounds.
func (h *Heightfield) GetCell(x, y int) *Cell {
	if x < 0 || y < 0 || x >= int(h.Width) || y >= int(h.Height) {
		return nil
	}
	return &h.Cells[y*int(h.Width)+x]
}

// SurfaceName returns the surface name for a cell, or "" if none is assigned.
func (h *Heightfield) SurfaceName(c *Cell) string {
	idx := c.SurfaceIndex()
	if idx >= len(h.Surfaces) {
		return ""
	}
	return h.Surfaces[idx]
}

// WorldSize returns the covered extent along x and y.
func (h *Heightfield) WorldSize() (float32, float32) {
	return float32(h.Width) * h.CellSize, float32(h.Height) * h.CellSize
}

// AltitudeRange returns the minimum and maximum corner altitude.
func (h *Heightfield) AltitudeRange() (lo, hi float32) {
	if len(h.Cells) == 0 {
		return 0, 0
	}

	lo = h.Cells[0].Heights[0]
	hi = h.Cells[0].Heights[0]
	for _, cell := range h.Cells {
		for _, v := range cell.Heights {
			lo = min(lo, v)
			hi = max(hi, v)
		}
	}
	return lo, hi
}

// Parse parses a heightfield from raw bytes.
func Parse(data []byte) (*Heightfield, error) {
	if len(data) < headerLength {
		return nil, ErrTruncatedData
	}

	if string(data[0:4]) != magic {
		return nil, ErrInvalidMagic
	}

	// Version is stored as [minor, major]
	version := Version{Major: data[5], Minor: data[4]}
	if version.Major != 1 {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedVersion, version)
	}

	r := bytes.NewReader(data[6:])

	var header struct {
		Width    uint32
		Height   uint32
		CellSize float32
		OriginX  float32
		OriginY  float32
	}
	if err := binary.Read(r, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header", ErrTruncatedData)
	}

	if header.Width == 0 || header.Height == 0 || header.Width > MaxDimension || header.Height > MaxDimension {
		return nil, fmt.Errorf("invalid heightfield dimensions: %dx%d", header.Width, header.Height)
	}
	if !(header.CellSize > 0) || !finite(header.CellSize) {
		return nil, fmt.Errorf("invalid heightfield cell size: %v", header.CellSize)
	}
	if !finite(header.OriginX) || !finite(header.OriginY) {
		return nil, fmt.Errorf("invalid heightfield origin: (%v, %v)", header.OriginX, header.OriginY)
	}

	surfaces, err := readSurfaceTable(r)
	if err != nil {
		return nil, err
	}

	// Size check happens before the cell slice is allocated.
	cellCount := int(header.Width) * int(header.Height)
	if r.Len() < cellCount*binary.Size(Cell{}) {
		return nil, fmt.Errorf("%w: %d cells need %d bytes, have %d",
			ErrTruncatedData, cellCount, cellCount*binary.Size(Cell{}), r.Len())
	}

	hf := &Heightfield{
		Version:  version,
		Width:    header.Width,
		Height:   header.Height,
		CellSize: header.CellSize,
		OriginX:  header.OriginX,
		OriginY:  header.OriginY,
		Surfaces: surfaces,
		Cells:    make([]Cell, cellCount),
	}

	if err := binary.Read(r, binary.LittleEndian, hf.Cells); err != nil {
		return nil, fmt.Errorf("%w: reading cells", ErrTruncatedData)
	}

	return hf, nil
}

func finite(v float32) bool {
	f := float64(v)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func readSurfaceTable(r *bytes.Reader) ([]string, error) {
	var count uint16
	if err := binary.Read(r, binary.LittleEndian, &count); err != nil {
		return nil, fmt.Errorf("%w: reading surface count", ErrTruncatedData)
	}

	surfaces := make([]string, 0, count)
	for i := 0; i < int(count); i++ {
		n, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: reading surface %d length", ErrTruncatedData, i)
		}
		name := make([]byte, n)
		if _, err := io.ReadFull(r, name); err != nil {
			return nil, fmt.Errorf("%w: reading surface %d name", ErrTruncatedData, i)
		}
		surfaces = append(surfaces, string(name))
	}
	return surfaces, nil
}

// ParseFile parses a heightfield file from disk.
func ParseFile(path string) (*Heightfield, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading heightfield file: %w", err)
	}
	return Parse(data)
}

// Encode serializes the heightfield.
func (h *Heightfield) Encode() ([]byte, error) {
	if len(h.Cells) != int(h.Width)*int(h.Height) {
		return nil, fmt.Errorf("heightfield has %d cells, want %d", len(h.Cells), int(h.Width)*int(h.Height))
	}
	if len(h.Surfaces) > int(surfaceMask) {
		return nil, fmt.Errorf("too many surfaces: %d", len(h.Surfaces))
	}

	buf := new(bytes.Buffer)
	buf.WriteString(magic)
	buf.WriteByte(CurrentVersion.Minor)
	buf.WriteByte(CurrentVersion.Major)

	header := []any{h.Width, h.Height, h.CellSize, h.OriginX, h.OriginY, uint16(len(h.Surfaces))}
	for _, v := range header {
		if err := binary.Write(buf, binary.LittleEndian, v); err != nil {
			return nil, err
		}
	}

	for _, name := range h.Surfaces {
		if len(name) > 255 {
			return nil, fmt.Errorf("surface name too long: %q", name)
		}
		buf.WriteByte(byte(len(name)))
		buf.WriteString(name)
	}

	if err := binary.Write(buf, binary.LittleEndian, h.Cells); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile encodes the heightfield to disk.
func (h *Heightfield) WriteFile(path string) error {
	data, err := h.Encode()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
