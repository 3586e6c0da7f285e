package intent

import "testing"

func TestExemplars_CoverEveryIntent(t *testing.T) {
	ex, err := Exemplars()
	if err != nil {
		t.Fatalf("Exemplars: %v", err)
	}
	seen := map[Intent]int{}
	for _, e := range ex {
		seen[e.Intent]++
	}
	for _, in := range All {
		if in == Unknown {
			continue
		}
		if seen[in] == 0 {
			t.Errorf("no exemplars for %s", in)
		}
	}
	if seen[Unknown] != 0 {
		t.Errorf("catalog should not label phrases as unknown")
	}
}

func TestParseExemplars_UnknownIntent(t *testing.T) {
	_, err := ParseExemplars([]byte("refund:\n  - give me my money back\n"))
	if err == nil {
		t.Fatal("expected error for unknown intent name")
	}
}

func TestParseExemplars_BlankPhrase(t *testing.T) {
	_, err := ParseExemplars([]byte("help:\n  - \"  \"\n"))
	if err == nil {
		t.Fatal("expected error for blank phrase")
	}
}

func TestParseExemplars_Order(t *testing.T) {
	ex, err := ParseExemplars([]byte("help:\n  - help me\ngreeting:\n  - hi\n"))
	if err != nil {
		t.Fatalf("ParseExemplars: %v", err)
	}
	if len(ex) != 2 || ex[0].Intent != Greeting || ex[1].Intent != Help {
		t.Errorf("ParseExemplars = %+v, want greeting then help", ex)
	}
}
