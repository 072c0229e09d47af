package homework

import (
	"errors"
	"testing"
)

func mustPayload(t *testing.T, body string) Payload {
	t.Helper()
	p, err := DecodePayload([]byte(body))
	if err != nil {
		t.Fatalf("DecodePayload(%s): %v", body, err)
	}
	return p
}

func TestDecodePayloadRejectsNonObject(t *testing.T) {
	for _, body := range []string{``, `[]`, `"x"`, `<html>`, `{"homeworks": [}`} {
		if _, err := DecodePayload([]byte(body)); !errors.Is(err, ErrMalformedPayload) {
			t.Fatalf("DecodePayload(%q) err = %v, want ErrMalformedPayload", body, err)
		}
	}
}

func TestCheckResponse(t *testing.T) {
	cases := []struct {
		name string
		body string
		want error
		n    int
	}{
		{"empty list", `{"homeworks": [], "current_date": 1}`, nil, 0},
		{"two items", `{"homeworks": [{"status": "approved"}, {}], "current_date": 1}`, nil, 2},
		{"no homeworks", `{"current_date": 1}`, ErrKeyMissing, 0},
		{"null homeworks", `{"homeworks": null, "current_date": 1}`, ErrShapeInvalid, 0},
		{"null before missing date", `{"homeworks": null}`, ErrShapeInvalid, 0},
		{"no current_date", `{"homeworks": []}`, ErrKeyMissing, 0},
		{"homeworks is object", `{"homeworks": {"status": "approved"}, "current_date": 1}`, ErrTypeInvalid, 0},
		{"homeworks is string", `{"homeworks": "x", "current_date": 1}`, ErrTypeInvalid, 0},
		{"item not object", `{"homeworks": [1], "current_date": 1}`, ErrTypeInvalid, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CheckResponse(mustPayload(t, tc.body))
			if tc.want != nil {
				if !errors.Is(err, tc.want) {
					t.Fatalf("err = %v, want %v", err, tc.want)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if len(got) != tc.n {
				t.Fatalf("len = %d, want %d", len(got), tc.n)
			}
		})
	}
}

func TestCurrentDate(t *testing.T) {
	v, err := mustPayload(t, `{"current_date": 1700000000}`).CurrentDate()
	if err != nil || v != 1700000000 {
		t.Fatalf("CurrentDate = %d, %v", v, err)
	}
	if _, err := mustPayload(t, `{}`).CurrentDate(); !errors.Is(err, ErrKeyMissing) {
		t.Fatalf("missing: err = %v", err)
	}
	for _, body := range []string{`{"current_date": "1"}`, `{"current_date": 1.5}`, `{"current_date": null}`} {
		if _, err := mustPayload(t, body).CurrentDate(); !errors.Is(err, ErrTypeInvalid) {
			t.Fatalf("%s: err = %v, want ErrTypeInvalid", body, err)
		}
	}
}

func TestParseStatus(t *testing.T) {
	p := mustPayload(t, `{"homeworks": [{"homework_name": "diploma", "status": "approved"}], "current_date": 1700000000}`)
	hws, err := CheckResponse(p)
	if err != nil {
		t.Fatal(err)
	}
	msg, err := ParseStatus(hws[0])
	if err != nil {
		t.Fatal(err)
	}
	want := `Изменился статус проверки работы "diploma". Работа проверена: ревьюеру всё понравилось. Ура!`
	if msg != want {
		t.Fatalf("msg = %q, want %q", msg, want)
	}
}

func TestParseStatusErrors(t *testing.T) {
	cases := []struct {
		body string
		want error
	}{
		{`{"status": "approved"}`, ErrKeyMissing},
		{`{"homework_name": "hw"}`, ErrKeyMissing},
		{`{"homework_name": 5}`, ErrKeyMissing},
		{`{"homework_name": "hw", "status": "graded"}`, ErrUnknownStatus},
		{`{"homework_name": "hw", "status": ""}`, ErrUnknownStatus},
		{`{"homework_name": "hw", "status": 1}`, ErrTypeInvalid},
		{`{"homework_name": ["hw"], "status": "approved"}`, ErrTypeInvalid},
	}
	for _, tc := range cases {
		p := mustPayload(t, `{"homeworks": [`+tc.body+`], "current_date": 1}`)
		hws, err := CheckResponse(p)
		if err != nil {
			t.Fatalf("%s: CheckResponse: %v", tc.body, err)
		}
		if _, err := ParseStatus(hws[0]); !errors.Is(err, tc.want) {
			t.Fatalf("%s: err = %v, want %v", tc.body, err, tc.want)
		}
	}
}

func TestStatusVerdicts(t *testing.T) {
	for _, s := range []Status{StatusApproved, StatusReviewing, StatusRejected} {
		if v, ok := s.Verdict(); !ok || v == "" {
			t.Fatalf("status %q has no verdict", s)
		}
	}
	if Status("unknown").Known() {
		t.Fatal("unexpected known status")
	}
}
