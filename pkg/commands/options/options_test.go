package options

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"tableflip.dev/daily/pkg/memory"
)

func TestGetDate(t *testing.T) {
	now := time.Date(2024, time.March, 10, 15, 0, 0, 0, time.Local)
	cases := map[string]string{
		"":          "",
		"today":     "",
		"yesterday": "2024-03-09",
		"2024-2-28": "2024-02-28",
		"2023-12-1": "2023-12-01",
		"3/1":       "2024-03-01",
		"3/10":      "2024-03-10",
		"3/11":      "2023-03-11",
		"12/25":     "2023-12-25",
	}
	for in, want := range cases {
		o := DateOptions{DateString: in}
		got, err := o.GetDate(now)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}

	for _, in := range []string{"March 3rd", "4/31", "2/30"} {
		o := DateOptions{DateString: in}
		if got, err := o.GetDate(now); err == nil {
			t.Fatalf("%q: expected an error, got %q", in, got)
		}
	}
}

func TestGetDateLeapDay(t *testing.T) {
	now := time.Date(2026, time.October, 18, 9, 0, 0, 0, time.Local)
	cases := map[string]string{
		"2/29": "2024-02-29",
		"2/28": "2026-02-28",
		"4/30": "2026-04-30",
	}
	for in, want := range cases {
		o := DateOptions{DateString: in}
		got, err := o.GetDate(now)
		if err != nil {
			t.Fatalf("%q: %v", in, err)
		}
		if got != want {
			t.Errorf("%q: expected %q, got %q", in, want, got)
		}
	}
}

func TestErrorKind(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{&memory.ValidationError{Fields: []string{"image is required"}}, "validation"},
		{&memory.NotFoundError{ID: "x"}, "not_found"},
		{&memory.TransportError{Op: "list", Err: errors.New("boom")}, "transport"},
		{errors.New("other"), "error"},
	}
	for _, c := range cases {
		if got := ErrorKind(c.err); got != c.want {
			t.Errorf("%v: expected %s, got %s", c.err, c.want, got)
		}
	}
}

func TestResolveLevel(t *testing.T) {
	if got := (&LoggingOptions{}).Resolve("warn"); got != "warn" {
		t.Fatalf("expected configured level, got %s", got)
	}
	if got := (&LoggingOptions{Level: "info"}).Resolve("warn"); got != "info" {
		t.Fatalf("expected flag level, got %s", got)
	}
	if got := (&LoggingOptions{Level: "info", Verbose: true}).Resolve("warn"); got != "debug" {
		t.Fatalf("expected debug, got %s", got)
	}
}

func TestHandleErrorJSONReportsFailure(t *testing.T) {
	var buf bytes.Buffer
	o := &OutputOptions{JSON: true, Out: &buf}

	err := o.HandleError(&memory.NotFoundError{ID: "abc"})
	if !errors.Is(err, ErrReported) {
		t.Fatalf("expected ErrReported, got %v", err)
	}
	var got map[string]string
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not JSON: %v: %q", err, buf.String())
	}
	if got["kind"] != "not_found" {
		t.Errorf("expected not_found, got %q", got["kind"])
	}

	if err := o.HandleError(nil); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}

	plain := &OutputOptions{Out: &buf}
	boom := errors.New("boom")
	if err := plain.HandleError(boom); err != boom {
		t.Fatalf("expected the error back, got %v", err)
	}
}
