package grf

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/meshforge/pkg/encoding"
)

type testFile struct {
	name    string
	content []byte
	stored  bool // write uncompressed
}

// buildGRF assembles a GRF 0x200 archive in memory.
func buildGRF(t *testing.T, files []testFile) []byte {
	t.Helper()

	var body, table bytes.Buffer
	for _, f := range files {
		data := f.content
		if !f.stored {
			var z bytes.Buffer
			w := zlib.NewWriter(&z)
			w.Write(f.content)
			w.Close()
			data = z.Bytes()
		}
		aligned := (len(data) + 7) &^ 7

		table.Write(encoding.UTF8ToEUCKR(f.name))
		table.WriteByte(0)
		binary.Write(&table, binary.LittleEndian, uint32(len(data)))
		binary.Write(&table, binary.LittleEndian, uint32(aligned))
		binary.Write(&table, binary.LittleEndian, uint32(len(f.content)))
		table.WriteByte(flagFile)
		binary.Write(&table, binary.LittleEndian, uint32(body.Len()))

		body.Write(data)
		body.Write(make([]byte, aligned-len(data)))
	}

	var zt bytes.Buffer
	w := zlib.NewWriter(&zt)
	w.Write(table.Bytes())
	w.Close()

	var out bytes.Buffer
	h := Header{TableOffset: uint32(body.Len()), FileCount: uint32(len(files)) + 7, Version: version200}
	copy(h.Magic[:], grfMagic)
	binary.Write(&out, binary.LittleEndian, h)
	out.Write(body.Bytes())
	binary.Write(&out, binary.LittleEndian, uint32(zt.Len()))
	binary.Write(&out, binary.LittleEndian, uint32(table.Len()))
	out.Write(zt.Bytes())
	return out.Bytes()
}

func testArchive(t *testing.T) *Archive {
	t.Helper()
	data := buildGRF(t, []testFile{
		{name: `data\model\Tree.rsm`, content: []byte("GRSM tree")},
		{name: `data\texture\유저인터페이스\wall.bmp`, content: []byte("BM fake bitmap")},
		{name: `data\plain.txt`, content: []byte("stored"), stored: true},
	})
	a, err := NewReader(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("NewReader: %v", err)
	}
	return a
}

func TestList(t *testing.T) {
	a := testArchive(t)
	want := []string{
		"data/model/tree.rsm",
		"data/plain.txt",
		"data/texture/유저인터페이스/wall.bmp",
	}
	got := a.List()
	if len(got) != len(want) {
		t.Fatalf("List() = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("List()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if a.Len() != 3 {
		t.Errorf("Len() = %d", a.Len())
	}
}

func TestContains(t *testing.T) {
	a := testArchive(t)
	if !a.Contains(`DATA\MODEL\TREE.RSM`) {
		t.Error("lookup should ignore case and slash direction")
	}
	if a.Contains("data/model/missing.rsm") {
		t.Error("Contains returned true for a missing file")
	}
}

func TestReadFile(t *testing.T) {
	a := testArchive(t)
	tests := map[string]string{
		"data/model/tree.rsm":                  "GRSM tree",
		"data/texture/유저인터페이스/wall.bmp": "BM fake bitmap",
		"data/plain.txt":                       "stored",
	}
	for path, want := range tests {
		got, err := a.ReadFile(path)
		if err != nil {
			t.Errorf("ReadFile(%q): %v", path, err)
			continue
		}
		if string(got) != want {
			t.Errorf("ReadFile(%q) = %q, want %q", path, got, want)
		}
	}

	if _, err := a.ReadFile("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing file: got %v, want ErrNotFound", err)
	}
}

func TestReadFile_Encrypted(t *testing.T) {
	a := testArchive(t)
	a.entries["data/plain.txt"].Flags |= 0x02
	if _, err := a.ReadFile("data/plain.txt"); !errors.Is(err, ErrEncrypted) {
		t.Errorf("got %v, want ErrEncrypted", err)
	}
}

func TestNewReader_Errors(t *testing.T) {
	valid := buildGRF(t, nil)

	badMagic := bytes.Clone(valid)
	badMagic[0] = 'X'
	if _, err := NewReader(bytes.NewReader(badMagic)); !errors.Is(err, ErrInvalidMagic) {
		t.Errorf("bad magic: got %v", err)
	}

	badVersion := bytes.Clone(valid)
	binary.LittleEndian.PutUint32(badVersion[42:], 0x103)
	if _, err := NewReader(bytes.NewReader(badVersion)); !errors.Is(err, ErrUnsupportedVersion) {
		t.Errorf("bad version: got %v", err)
	}

	if _, err := NewReader(bytes.NewReader(valid[:20])); err == nil {
		t.Error("expected error for truncated header")
	}
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.grf")
	if err := os.WriteFile(path, buildGRF(t, []testFile{{name: "data/a.txt", content: []byte("a")}}), 0o644); err != nil {
		t.Fatal(err)
	}
	a, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer a.Close()
	if !a.Contains("data/a.txt") {
		t.Error("archive should contain data/a.txt")
	}

	if _, err := Open(filepath.Join(t.TempDir(), "missing.grf")); err == nil {
		t.Error("expected error for missing archive")
	}
}
