// Package grf reads Ragnarok Online GRF 0x200 archives, the container the
// game ships its models and textures in.
package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/Faultbox/meshforge/pkg/encoding"
)

const (
	grfMagic   = "Master of Magic"
	headerSize = 46
	version200 = 0x200

	flagFile      = 0x01
	flagEncrypted = 0x02 | 0x04
)

var (
	ErrInvalidMagic       = errors.New("invalid GRF magic")
	ErrUnsupportedVersion = errors.New("unsupported GRF version")
	ErrNotFound           = errors.New("file not found in archive")
	ErrEncrypted          = errors.New("encrypted GRF entries are not supported")
	ErrCorruptTable       = errors.New("corrupt GRF file table")
)

// Header is the fixed GRF file header.
type Header struct {
	Magic         [15]byte
	EncryptionKey [15]byte
	TableOffset   uint32
	Seed          uint32
	FileCount     uint32
	Version       uint32
}

// Entry is one file of the archive.
type Entry struct {
	Name             string // normalized path
	CompressedSize   uint32
	AlignedSize      uint32
	UncompressedSize uint32
	Flags            uint8
	Offset           uint32
}

// Archive is an opened GRF archive. It is safe for concurrent reads when
// the underlying io.ReaderAt is.
type Archive struct {
	r       io.ReaderAt
	closer  io.Closer
	header  Header
	entries map[string]*Entry
}

// Open opens the archive at path.
func Open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening GRF: %w", err)
	}
	a, err := NewReader(f)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// NewReader reads the header and file table from r.
func NewReader(r io.ReaderAt) (*Archive, error) {
	a := &Archive{r: r, entries: make(map[string]*Entry)}
	if err := a.readHeader(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := a.readFileTable(); err != nil {
		return nil, fmt.Errorf("reading file table: %w", err)
	}
	return a, nil
}

// Close releases the file opened by Open.
func (a *Archive) Close() error {
	if a.closer != nil {
		return a.closer.Close()
	}
	return nil
}

func (a *Archive) readHeader() error {
	sr := io.NewSectionReader(a.r, 0, headerSize)
	if err := binary.Read(sr, binary.LittleEndian, &a.header); err != nil {
		return err
	}
	if string(a.header.Magic[:]) != grfMagic {
		return ErrInvalidMagic
	}
	if a.header.Version != version200 {
		return fmt.Errorf("%w: 0x%x", ErrUnsupportedVersion, a.header.Version)
	}
	return nil
}

func (a *Archive) readFileTable() error {
	var sizes [2]uint32
	off := int64(a.header.TableOffset) + headerSize
	if err := binary.Read(io.NewSectionReader(a.r, off, 8), binary.LittleEndian, &sizes); err != nil {
		return err
	}
	table, err := a.inflate(off+8, sizes[0], sizes[1])
	if err != nil {
		return err
	}

	count := int64(a.header.FileCount) - int64(a.header.Seed) - 7
	if count < 0 {
		return fmt.Errorf("%w: file count %d", ErrCorruptTable, count)
	}
	for i := int64(0); i < count; i++ {
		end := bytes.IndexByte(table, 0)
		if end < 0 || end+1+17 > len(table) {
			return fmt.Errorf("%w: entry %d", ErrCorruptTable, i)
		}
		name := encoding.EUCKRToUTF8(table[:end])
		rec := table[end+1:]
		e := &Entry{
			Name:             encoding.NormalizePath(name),
			CompressedSize:   binary.LittleEndian.Uint32(rec),
			AlignedSize:      binary.LittleEndian.Uint32(rec[4:]),
			UncompressedSize: binary.LittleEndian.Uint32(rec[8:]),
			Flags:            rec[12],
			Offset:           binary.LittleEndian.Uint32(rec[13:]),
		}
		table = rec[17:]
		if e.Flags&flagFile != 0 {
			a.entries[e.Name] = e
		}
	}
	return nil
}

func (a *Archive) inflate(off int64, compressed, size uint32) ([]byte, error) {
	zr, err := zlib.NewReader(io.NewSectionReader(a.r, off, int64(compressed)))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out := make([]byte, size)
	if _, err := io.ReadFull(zr, out); err != nil {
		return nil, err
	}
	return out, nil
}

// List returns the archive's file paths in sorted order.
func (a *Archive) List() []string {
	out := make([]string, 0, len(a.entries))
	for name := range a.entries {
		out = append(out, name)
	}
	slices.Sort(out)
	return out
}

// Len returns the number of files.
func (a *Archive) Len() int { return len(a.entries) }

// Contains reports whether path exists. Lookup ignores case and slash
// direction.
func (a *Archive) Contains(path string) bool {
	_, ok := a.entries[encoding.NormalizePath(path)]
	return ok
}

// Stat returns the entry for path.
func (a *Archive) Stat(path string) (*Entry, error) {
	e, ok := a.entries[encoding.NormalizePath(path)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return e, nil
}

// ReadFile returns the decompressed contents of path.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	e, err := a.Stat(path)
	if err != nil {
		return nil, err
	}
	if e.Flags&flagEncrypted != 0 {
		return nil, fmt.Errorf("%w: %s", ErrEncrypted, path)
	}

	off := int64(e.Offset) + headerSize
	if e.CompressedSize == e.UncompressedSize {
		out := make([]byte, e.UncompressedSize)
		if _, err := a.r.ReadAt(out, off); err != nil {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		return out, nil
	}
	out, err := a.inflate(off, e.CompressedSize, e.UncompressedSize)
	if err != nil {
		return nil, fmt.Errorf("inflating %s: %w", path, err)
	}
	return out, nil
}
