package types

import (
	"encoding/json"
	"testing"
)

func TestTierOrdering(t *testing.T) {
	if !TierAdminReady.AtLeast(TierAdvisory) {
		t.Error("admin_ready should satisfy advisory")
	}
	if !TierAdvisory.AtLeast(TierBasic) {
		t.Error("advisory should satisfy basic")
	}
	if TierBasic.AtLeast(TierAdvisory) {
		t.Error("basic should not satisfy advisory")
	}
	if !TierBasic.AtLeast(TierBasic) {
		t.Error("a tier should satisfy itself")
	}
}

func TestParseTier(t *testing.T) {
	cases := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"", TierBasic, false},
		{"basic", TierBasic, false},
		{"advisory", TierAdvisory, false},
		{"admin_ready", TierAdminReady, false},
		{"ADMIN", TierBasic, true},
		{"root", TierBasic, true},
	}
	for _, tc := range cases {
		got, err := ParseTier(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseTier(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if !tc.wantErr && got != tc.want {
			t.Errorf("ParseTier(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestTierJSONRoundTrip(t *testing.T) {
	for _, tier := range []Tier{TierBasic, TierAdvisory, TierAdminReady} {
		data, err := json.Marshal(tier)
		if err != nil {
			t.Fatalf("marshal %v: %v", tier, err)
		}
		var back Tier
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back != tier {
			t.Errorf("round trip changed %v to %v", tier, back)
		}
	}
}

func TestParseRole(t *testing.T) {
	for _, s := range []string{"user", "assistant", "system"} {
		if _, err := ParseRole(s); err != nil {
			t.Errorf("ParseRole(%q) unexpected error: %v", s, err)
		}
	}
	if _, err := ParseRole("tool"); err == nil {
		t.Error("expected error for unknown role")
	}
}

func TestParseTone(t *testing.T) {
	tone, err := ParseTone("")
	if err != nil || tone != ToneBalanced {
		t.Errorf("empty tone should default to balanced, got %v, %v", tone, err)
	}
	if _, err := ParseTone("sarcastic"); err == nil {
		t.Error("expected error for unknown tone")
	}
}

func TestDefaultPreferences(t *testing.T) {
	prefs := DefaultPreferences("u1")
	if prefs.TonePreference != ToneBalanced {
		t.Errorf("expected balanced tone, got %v", prefs.TonePreference)
	}
	if prefs.MaxResponseLength != 500 {
		t.Errorf("expected 500 word limit, got %d", prefs.MaxResponseLength)
	}
	if !prefs.ClarificationQuestions {
		t.Error("expected clarification questions enabled by default")
	}
}

func TestModelDescriptorLabel(t *testing.T) {
	d := ModelDescriptor{Designation: "SLM-A1", Name: "Anthroi-1"}
	if d.Label() != "SLM-A1 (Anthroi-1)" {
		t.Errorf("unexpected label: %s", d.Label())
	}
}
