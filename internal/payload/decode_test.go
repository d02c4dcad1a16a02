package payload

import (
	"testing"
)

func TestDecodeErrors(t *testing.T) {
	for _, in := range []string{"", "{", `{"a":}`, `{} {}`, "not json"} {
		if _, err := Decode(in); err == nil {
			t.Errorf("Decode(%q): expected error", in)
		}
	}
}

func TestDecodeTrailingSpace(t *testing.T) {
	if _, err := Decode(`{"a":1}   `); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestPretty(t *testing.T) {
	v, err := Decode(`{"write":{"mb":2,"iops":<1>},"read":5}`)
	if err == nil {
		t.Fatalf("expected error for invalid literal, got %v", v)
	}

	v, err = Decode(`{"write":{"mb":2,"op":"<w>"},"read":5,"list":[1,2],"empty":{}}`)
	if err != nil {
		t.Fatal(err)
	}
	got, err := Pretty(Found(v))
	if err != nil {
		t.Fatal(err)
	}
	want := `{
    "empty": {},
    "list": [
        1,
        2
    ],
    "read": 5,
    "write": {
        "mb": 2,
        "op": "<w>"
    }
}`
	if got != want {
		t.Errorf("Pretty =\n%s\nwant\n%s", got, want)
	}
}

func TestPrettyAbsent(t *testing.T) {
	got, err := Pretty(Absent)
	if err != nil {
		t.Fatal(err)
	}
	if got != "null" {
		t.Errorf("Pretty(Absent) = %q, want null", got)
	}
}

func TestTextScalars(t *testing.T) {
	tests := []struct {
		r    Result
		want string
	}{
		{Absent, "-"},
		{Found(nil), "null"},
		{Found(true), "true"},
		{Found(false), "false"},
		{Found("s"), "s"},
		{Found([]any{}), "[]"},
	}
	for _, tt := range tests {
		if got := Text(tt.r); got != tt.want {
			t.Errorf("Text(%#v) = %q, want %q", tt.r, got, tt.want)
		}
	}
}
