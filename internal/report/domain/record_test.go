package report

import (
	"encoding/json"
	"testing"
)

func TestRecordKeepsFieldOrder(t *testing.T) {
	var rec Record
	payload := `{"date":"2023-01-01T00:00:00+03:00","hour":"00:00","price":1500.5,"priceUsd":80,"flag":true,"note":null,"nested":{"a":1}}`
	if err := json.Unmarshal([]byte(payload), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := []string{"date", "hour", "price", "priceUsd", "flag", "note", "nested"}
	if len(rec.Fields) != len(want) {
		t.Fatalf("expected %d fields, got %d", len(want), len(rec.Fields))
	}
	for i, name := range want {
		if rec.Fields[i].Name != name {
			t.Fatalf("field %d: expected %s, got %s", i, name, rec.Fields[i].Name)
		}
	}
	if v, _ := rec.Get("price"); v != 1500.5 {
		t.Fatalf("expected price 1500.5, got %v", v)
	}
	if v, _ := rec.Get("flag"); v != true {
		t.Fatalf("expected flag true, got %v", v)
	}
	if v, ok := rec.Get("note"); !ok || v != nil {
		t.Fatalf("expected present nil note, got %v %v", v, ok)
	}
	if v, _ := rec.Get("nested"); string(v.(json.RawMessage)) != `{"a":1}` {
		t.Fatalf("expected raw nested object, got %v", v)
	}
}

func TestRecordRejectsNonObject(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`[1,2]`), &rec); err == nil {
		t.Fatal("expected error for array payload")
	}
}

func TestRecordRepeatedKeyKeepsLastValue(t *testing.T) {
	var rec Record
	if err := json.Unmarshal([]byte(`{"date":"2023-01-01T00:00:00+03:00","price":1,"hour":"00:00","price":2}`), &rec); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(rec.Fields) != 3 || rec.Fields[1].Name != "price" {
		t.Fatalf("expected price to keep its first position, got %+v", rec.Fields)
	}
	if v, _ := rec.Get("price"); v != 2.0 {
		t.Fatalf("expected last price 2, got %v", v)
	}

	var std map[string]any
	if err := json.Unmarshal([]byte(`{"price":1,"price":2}`), &std); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if std["price"] != 2.0 {
		t.Fatalf("expected encoding/json to keep the last value, got %v", std["price"])
	}
}

func TestRecordGetPrefersLastField(t *testing.T) {
	rec := NewRecord(Field{"price", 1.0}, Field{"price", 3.0})
	if v, _ := rec.Get("price"); v != 3.0 {
		t.Fatalf("expected 3, got %v", v)
	}
}
