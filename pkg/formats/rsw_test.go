package formats

import (
	"errors"
	"testing"
)

func TestParseRSW_MagicValidation(t *testing.T) {
	valid := makeRSW(2, 1, 0, nil, 0, 0, 0)
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"valid magic", valid, nil},
		{"invalid magic", append([]byte("XXXX"), valid[4:]...), ErrInvalidRSWMagic},
		{"empty data", []byte{}, ErrTruncatedRSWData},
		{"truncated data", []byte{'G', 'R', 'S'}, ErrTruncatedRSWData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRSW(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRSW_VersionSupport(t *testing.T) {
	tests := []struct {
		major, minor uint8
		wantErr      bool
	}{
		{1, 2, false},
		{1, 9, false},
		{2, 1, false},
		{2, 2, false},
		{2, 5, false},
		{2, 6, false},
		{1, 1, true},
		{2, 7, true},
		{3, 0, true},
	}

	for _, tt := range tests {
		v := Version{tt.major, tt.minor}
		t.Run(v.String(), func(t *testing.T) {
			data := makeRSW(tt.major, tt.minor, 0, []testPlacement{{"a", "a.rsm", [3]float32{}}}, 1, 1, 1)
			_, err := ParseRSW(data)
			if (err != nil) != tt.wantErr {
				t.Errorf("got error=%v, wantErr=%v", err, tt.wantErr)
			}
		})
	}
}

func TestParseRSW_Placements(t *testing.T) {
	data := makeRSW(2, 6, 162, []testPlacement{
		{"house01", "inside\\house.rsm", [3]float32{10, -5, 20}},
		{"tree01", "tree.rsm", [3]float32{1, 0, 1}},
		{"house02", "inside\\house.rsm", [3]float32{30, -5, 20}},
	}, 2, 1, 3)

	w, err := ParseRSW(data)
	if err != nil {
		t.Fatalf("ParseRSW: %v", err)
	}
	if w.BuildNumber != 162 {
		t.Errorf("build = %d, want 162", w.BuildNumber)
	}
	if w.GndFile != "test.gnd" || w.GatFile != "test.gat" {
		t.Errorf("files = %q %q", w.GndFile, w.GatFile)
	}
	if len(w.Placements) != 3 {
		t.Fatalf("placements = %d, want 3", len(w.Placements))
	}
	p := w.Placements[0]
	if p.Name != "house01" || p.Position != [3]float32{10, -5, 20} || p.Rotation[1] != 90 {
		t.Errorf("placement = %+v", p)
	}
	if w.Skipped[ObjectLight] != 2 || w.Skipped[ObjectSound] != 1 || w.Skipped[ObjectEffect] != 3 {
		t.Errorf("skipped = %v", w.Skipped)
	}

	names := w.ModelNames()
	if len(names) != 2 || names[0] != "inside\\house.rsm" || names[1] != "tree.rsm" {
		t.Errorf("ModelNames() = %v", names)
	}
}

func TestParseRSW_UnknownObject(t *testing.T) {
	data := makeRSW(2, 1, 0, nil, 0, 0, 0)
	// Replace the zero object count with one object of type 9.
	data = append(data[:len(data)-4], 1, 0, 0, 0, 9, 0, 0, 0)
	_, err := ParseRSW(data)
	if !errors.Is(err, ErrUnknownObjectType) {
		t.Errorf("got %v, want ErrUnknownObjectType", err)
	}
}

func TestParseRSW_TruncatedObject(t *testing.T) {
	data := makeRSW(2, 1, 0, []testPlacement{{"a", "a.rsm", [3]float32{}}}, 0, 0, 0)
	_, err := ParseRSW(data[:len(data)-8])
	if !errors.Is(err, ErrTruncatedRSWData) {
		t.Errorf("got %v, want ErrTruncatedRSWData", err)
	}
}

func TestObjectType_String(t *testing.T) {
	if ObjectModel.String() != "Model" || ObjectType(7).String() != "Unknown(7)" {
		t.Errorf("unexpected names %q %q", ObjectModel, ObjectType(7))
	}
}
