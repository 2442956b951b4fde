package sightings

import "testing"

func TestBucketForTaxon(t *testing.T) {
	cases := map[string]TaxaBucket{
		"Aves":           TaxaBird,
		"Mammalia":       TaxaMammal,
		"Reptilia":       TaxaReptile,
		"Amphibia":       TaxaAmphibian,
		"Actinopterygii": TaxaFish,
		"Insecta":        TaxaInsect,
		"Arachnida":      TaxaArachnid,
		"Mollusca":       TaxaMollusk,
		"Plantae":        TaxaPlant,
		"Fungi":          TaxaFungi,
		"Chromista":      TaxaOther,
		"":               TaxaOther,
	}

	for iconic, want := range cases {
		if got := BucketForTaxon(iconic); got != want {
			t.Errorf("BucketForTaxon(%q) = %s, want %s", iconic, got, want)
		}
	}
}

func TestSplitObservationID(t *testing.T) {
	tag, native, ok := SplitObservationID("ebird-S123456789:amecro")
	if !ok || tag != ProviderAvian || native != "S123456789:amecro" {
		t.Errorf("got tag=%s native=%s ok=%v", tag, native, ok)
	}

	// The native id keeps everything past the first separator.
	tag, native, ok = SplitObservationID("inat-10-20")
	if !ok || tag != ProviderMultiTaxa || native != "10-20" {
		t.Errorf("got tag=%s native=%s ok=%v", tag, native, ok)
	}

	for _, bad := range []string{"", "noseparator", "-42", "ebird-"} {
		if _, _, ok := SplitObservationID(bad); ok {
			t.Errorf("SplitObservationID(%q) should fail", bad)
		}
	}
}

func TestRecencyWindowDays(t *testing.T) {
	cases := map[RecencyWindow]int{
		RecencyToday:     1,
		RecencyThisWeek:  7,
		RecencyThisMonth: 30,
		RecencyDefault:   14,
	}
	for w, want := range cases {
		if got := w.Days(); got != want {
			t.Errorf("%q.Days() = %d, want %d", w, got, want)
		}
	}
}
