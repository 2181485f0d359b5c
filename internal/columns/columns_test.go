package columns

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestFromHeader_DerivesAdjacentColumns(t *testing.T) {
	header := strings.Split("Frame,HUMPL Time,Station,Sensor ID,Length,Data", ",")
	m, err := FromHeader(header, DefaultHeaderNames, true)
	if err != nil {
		t.Fatalf("FromHeader() error: %v", err)
	}
	want := IndexMap{Time: 1, SensorID: 3, Length: 4, Data: 5}
	if !reflect.DeepEqual(m, want) {
		t.Fatalf("map=%v want %v", m, want)
	}
	if m.Required() != 6 {
		t.Fatalf("required=%d want 6", m.Required())
	}
}

func TestFromHeader_QuotedNames(t *testing.T) {
	header := []string{`"HUMPL Time"`, `"Sensor ID"`, `"Len"`, `"Payload"`}
	m, err := FromHeader(header, DefaultHeaderNames, true)
	if err != nil {
		t.Fatalf("FromHeader() error: %v", err)
	}
	if m[Time] != 0 || m[SensorID] != 1 || m[Length] != 2 || m[Data] != 3 {
		t.Fatalf("map=%v", m)
	}
}

func TestFromHeader_Missing(t *testing.T) {
	header := []string{"HUMPL Time", "Other"}

	_, err := FromHeader(header, DefaultHeaderNames, true)
	if !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err=%v want ErrColumnNotFound", err)
	}

	m, err := FromHeader(header, DefaultHeaderNames, false)
	if err != nil {
		t.Fatalf("FromHeader() error: %v", err)
	}
	if m.Complete() {
		t.Fatalf("expected partial map, got %v", m)
	}
	if !reflect.DeepEqual(m, IndexMap{Time: 0}) {
		t.Fatalf("map=%v", m)
	}
}

func TestFromHeader_ConflictingExplicitColumns(t *testing.T) {
	header := []string{"HUMPL Time", "Sensor ID", "Data", "Length"}
	_, err := FromHeader(header, DefaultHeaderNames, true)
	if !errors.Is(err, ErrColumnConflict) {
		t.Fatalf("err=%v want ErrColumnConflict", err)
	}
}

func TestFixed(t *testing.T) {
	m, err := Fixed([4]int{38, 43, 44, 45})
	if err != nil {
		t.Fatalf("Fixed() error: %v", err)
	}
	if !m.Complete() || m.Required() != 46 {
		t.Fatalf("map=%v required=%d", m, m.Required())
	}
	if _, err := Fixed([4]int{0, -1, 2, 3}); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err=%v want ErrColumnNotFound", err)
	}
}

func TestSelect(t *testing.T) {
	m := IndexMap{Time: 0, SensorID: 2, Length: 3, Data: 4}
	got, err := m.Select([]string{"t", "x", "id", "n", "hex"})
	if err != nil {
		t.Fatalf("Select() error: %v", err)
	}
	if !reflect.DeepEqual(got, []string{"t", "id", "n", "hex"}) {
		t.Fatalf("cells=%v", got)
	}
	if _, err := m.Select([]string{"t"}); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err=%v want ErrColumnNotFound", err)
	}
	if _, err := (IndexMap{Time: 0}).Select([]string{"t"}); !errors.Is(err, ErrColumnNotFound) {
		t.Fatalf("err=%v want ErrColumnNotFound", err)
	}
}

func TestResolve(t *testing.T) {
	m, err := Resolve(Strategy{Mode: ModeFixed, Offsets: [4]int{1, 2, 3, 4}}, nil)
	if err != nil || m[Data] != 4 {
		t.Fatalf("fixed map=%v err=%v", m, err)
	}
	s := Strategy{Mode: ModeHeader, Names: DefaultHeaderNames, RequireAll: true}
	if !s.NeedsHeader() {
		t.Fatalf("header mode should need a header")
	}
	m, err = Resolve(s, []string{"Sensor ID", "Length", "Data", "HUMPL Time"})
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if m[Time] != 3 || m[Data] != 2 {
		t.Fatalf("header map=%v", m)
	}
	if _, err := Resolve(Strategy{Mode: "guess"}, nil); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
