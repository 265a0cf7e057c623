package routetree

import (
	"encoding/json"
	"testing"
)

func TestParamJSON(t *testing.T) {
	ps := Params{
		"id":   NamedParam("42"),
		"rest": CatchAllParam("a", "b"),
	}
	data, err := json.Marshal(ps)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got := string(data); got != `{"id":"42","rest":["a","b"]}` {
		t.Errorf("Marshal = %s", got)
	}

	var back Params
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if back.Get("id") != "42" || back["id"].IsCatchAll() {
		t.Errorf("id = %+v", back["id"])
	}
	if back.Get("rest") != "a/b" || !back["rest"].IsCatchAll() {
		t.Errorf("rest = %+v", back["rest"])
	}
}

func TestParamsAccessors(t *testing.T) {
	ps := Params{"id": NamedParam("7")}
	if ps.Get("missing") != "" {
		t.Error("Get(missing) should be empty")
	}
	if ps.List("missing") != nil {
		t.Error("List(missing) should be nil")
	}
	if got := ps.List("id"); len(got) != 1 || got[0] != "7" {
		t.Errorf("List(id) = %v", got)
	}

	clone := ps.Clone()
	clone["id"] = NamedParam("8")
	if ps.Get("id") != "7" {
		t.Error("Clone should not alias the original")
	}
}

func TestEmptyCatchAllMarshalsAsArray(t *testing.T) {
	data, err := json.Marshal(CatchAllParam())
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "[]" {
		t.Errorf("Marshal = %s, want []", data)
	}
}
