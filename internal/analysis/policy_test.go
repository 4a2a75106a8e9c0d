package analysis

import (
	"strings"
	"testing"
)

func TestBoostPolicyCheck(t *testing.T) {
	distinct := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g2", "moneyline", "home", -120, -110),
		leg("g3", "moneyline", "home", -120, -110),
	}
	pair := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g1", "total", "over", -120, -110),
		leg("g2", "moneyline", "home", -120, -110),
	}
	single := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g1", "total", "over", -120, -110),
		leg("g1", "runline", "home_-1.5", 140, 150),
	}
	withLongshot := []Leg{
		leg("g1", "moneyline", "home", -120, -110),
		leg("g2", "moneyline", "away", 180, 200),
		leg("g3", "moneyline", "home", -120, -110),
	}

	tests := []struct {
		name   string
		policy BoostPolicy
		legs   []Leg
		ok     bool
		reason string
	}{
		{"open policy", BoostPolicy{MinLegs: 3}, distinct, true, ""},
		{"too few legs", BoostPolicy{MinLegs: 4}, distinct, false, "at least 4"},
		{"duplicate", BoostPolicy{}, []Leg{distinct[0], distinct[0], distinct[1]}, false, "duplicate"},
		{"require same event met", BoostPolicy{RequireSameEventLegs: true}, pair, true, ""},
		{"require same event missed", BoostPolicy{RequireSameEventLegs: true}, distinct, false, "two legs from one event"},
		{"forbid same event", BoostPolicy{ForbidSameEventLegs: true}, pair, false, "same event"},
		{"single event rejected", BoostPolicy{}, single, false, "all 3 legs"},
		{"single event rejected under require", BoostPolicy{RequireSameEventLegs: true}, single, false, "all 3 legs"},
		{"single event allowed", BoostPolicy{AllowSingleEvent: true}, single, true, ""},
		{"two legs one event", BoostPolicy{}, single[:2], true, ""},
		{"min odds missed", BoostPolicy{MinOddsThreshold: 150}, distinct, false, "+150"},
		{"min odds met", BoostPolicy{MinOddsThreshold: 150}, withLongshot, true, ""},
		{"negative threshold met by shorter favourite", BoostPolicy{MinOddsThreshold: -120}, distinct, true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := tt.policy.Check(tt.legs)
			if tt.ok && v != nil {
				t.Fatalf("Check = %v, want eligible", v)
			}
			if !tt.ok {
				if v == nil {
					t.Fatal("Check = nil, want violation")
				}
				if !strings.Contains(v.Reason, tt.reason) {
					t.Errorf("reason %q does not mention %q", v.Reason, tt.reason)
				}
			}
		})
	}
}

func TestBoostPolicyValidate(t *testing.T) {
	tests := []struct {
		name    string
		policy  BoostPolicy
		wantErr bool
	}{
		{"valid", BoostPolicy{Bookmaker: "onyx", Sport: "tennis", BoostPercent: 25, MinLegs: 3}, false},
		{"missing sport", BoostPolicy{Bookmaker: "onyx"}, true},
		{"negative boost", BoostPolicy{Bookmaker: "onyx", Sport: "tennis", BoostPercent: -5}, true},
		{"negative legs", BoostPolicy{Bookmaker: "onyx", Sport: "tennis", MinLegs: -1}, true},
		{"exclusive flags", BoostPolicy{Bookmaker: "onyx", Sport: "tennis", RequireSameEventLegs: true, ForbidSameEventLegs: true}, true},
		{"bad threshold", BoostPolicy{Bookmaker: "onyx", Sport: "tennis", MinOddsThreshold: 50}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLegKeyAndType(t *testing.T) {
	l := leg("g1", "runline", "home_-1.5", 140, 150)
	if l.Key() != "g1|runline|home_-1.5" {
		t.Errorf("Key = %q", l.Key())
	}
	if l.Type() != "spread" {
		t.Errorf("Type = %q, want spread", l.Type())
	}
	l.MarketType = "total"
	if l.Type() != "total" {
		t.Errorf("explicit MarketType ignored: %q", l.Type())
	}
}
