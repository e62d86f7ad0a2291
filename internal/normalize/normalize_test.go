package normalize

import "testing"

func TestText(t *testing.T) {
	cases := map[string]string{
		"":                          "",
		"  Hello   World  ":         "hello world",
		"Żelazna 10/2":              "zelazna 10 2",
		"Rue de l'Été":              "rue de l ete",
		"PRICE: 100,000!!!":         "price 100 000",
		"tabs\tand\nnewlines":       "tabs and newlines",
		"--- already -- stripped -": "already stripped",
	}
	for in, want := range cases {
		if got := Text(in); got != want {
			t.Errorf("Text(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestText_Deterministic(t *testing.T) {
	a := Text("Ul. Żelazna 10, Śródmieście")
	b := Text("ul żelazna 10 śródmieście")
	if a != b {
		t.Fatalf("equivalent inputs normalized differently: %q vs %q", a, b)
	}
}

func TestAddress_AbbrevCanonicalization(t *testing.T) {
	cases := map[string]string{
		"Żelazna St. 10":     "zelazna street 10",
		"zelazna street 10":  "zelazna street 10",
		"5th Ave 101":        "5th avenue 101",
		"Main Blvd":          "main boulevard",
		"Ul. Piękna 5":       "ulica piekna 5",
		"no abbreviations 1": "no abbreviations 1",
	}
	for in, want := range cases {
		if got := Address(in); got != want {
			t.Errorf("Address(%q) = %q; want %q", in, got, want)
		}
	}
}

func TestCollapse_KeepsCase(t *testing.T) {
	if got := Collapse("  Nice   Flat \t Downtown "); got != "Nice Flat Downtown" {
		t.Fatalf("Collapse = %q", got)
	}
}
