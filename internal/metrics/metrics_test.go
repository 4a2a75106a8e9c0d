package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if err := Register(reg); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(reg); err == nil {
		t.Error("registering twice should fail")
	}

	Evaluations.WithLabelValues("local").Inc()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	found := false
	for _, f := range families {
		if f.GetName() == "parlay_evaluations_total" {
			found = true
		}
	}
	if !found {
		t.Error("parlay_evaluations_total not gathered")
	}
}
