package models

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestOrderedKeepsEncounterOrder(t *testing.T) {
	var f FieldValues
	if err := json.Unmarshal([]byte(`{"Zeta":"z","Alpha":true,"Mid":3,"Empty":null}`), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if diff := cmp.Diff([]string{"Zeta", "Alpha", "Mid", "Empty"}, f.Keys()); diff != "" {
		t.Errorf("keys mismatch (-want +got):\n%s", diff)
	}
	if v, _ := f.Get("Mid"); v != json.Number("3") {
		t.Errorf("Mid = %#v, want json.Number(\"3\")", v)
	}
	if v, ok := f.Get("Empty"); !ok || v != nil {
		t.Errorf("Empty = %#v, %v; want nil, true", v, ok)
	}

	out, err := json.Marshal(f)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if got, want := string(out), `{"Zeta":"z","Alpha":true,"Mid":3,"Empty":null}`; got != want {
		t.Errorf("Marshal = %s, want %s", got, want)
	}
}

func TestOrderedSetAndDelete(t *testing.T) {
	var f FieldValues
	f.Set("a", 1)
	f.Set("b", 2)
	f.Set("a", 3)
	f.Delete("missing")
	if diff := cmp.Diff([]string{"a", "b"}, f.Keys()); diff != "" {
		t.Errorf("keys after re-set (-want +got):\n%s", diff)
	}
	f.Delete("a")
	if diff := cmp.Diff([]string{"b"}, f.Keys()); diff != "" {
		t.Errorf("keys after delete (-want +got):\n%s", diff)
	}
	if _, ok := f.Get("a"); ok {
		t.Error("deleted key still present")
	}
}

func TestPayloadOmitsAbsentCaptchaToken(t *testing.T) {
	fields := &FieldValues{}
	fields.Set("Email", "a@b.com")
	fields.Set("Agree", true)
	p := SubmissionPayload{FormName: "Contact", GoogleSheetURL: "u", Fields: fields}

	out, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"formName":"Contact","googleSheetUrl":"u","fields":{"Email":"a@b.com","Agree":true}}`
	if string(out) != want {
		t.Errorf("got %s\nwant %s", out, want)
	}
}

func TestPayloadNullFields(t *testing.T) {
	var p SubmissionPayload
	if err := json.Unmarshal([]byte(`{"formName":"x","fields":null}`), &p); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if p.Fields != nil {
		t.Errorf("null fields should decode to nil, got %v", p.Fields.Keys())
	}
}

func TestFileFieldsDecode(t *testing.T) {
	var files FileFields
	raw := `{"CV":{"name":"cv.pdf","data":"AAAA","type":"application/pdf"}}`
	if err := json.Unmarshal([]byte(raw), &files); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	got, ok := files.Get("CV")
	if !ok {
		t.Fatal("CV missing")
	}
	if diff := cmp.Diff(FileField{Name: "cv.pdf", Data: "AAAA", Type: "application/pdf"}, got); diff != "" {
		t.Errorf("file field (-want +got):\n%s", diff)
	}
}
