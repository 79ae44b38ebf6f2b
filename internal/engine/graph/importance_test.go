package graph

// internal/engine/graph/importance_test.go

import (
	"math"
	"testing"
)

func TestCalculateImportanceScore_Formula(t *testing.T) {
	tests := []struct {
		name    string
		fanIn   int
		fanOut  int
		classes int
		module  string
		wantMin float64 // minimum expected score
	}{
		{
			name:    "zero everything gives zero",
			fanIn:   0,
			fanOut:  0,
			classes: 0,
			module:  "leaf",
			wantMin: 0,
		},
		{
			name:    "fan-in weighted double fan-out",
			fanIn:   4,
			fanOut:  2,
			classes: 0,
			module:  "core",
			// score = 4*2 + 2*1 = 10
			wantMin: 10,
		},
		{
			name:    "class count contributes a tenth each",
			fanIn:   0,
			fanOut:  0,
			classes: 20,
			module:  "domain",
			// score = 20*0.1 = 2
			wantMin: 2,
		},
		{
			name:    "api module gets bonus 10",
			fanIn:   2,
			fanOut:  1,
			classes: 0,
			module:  "platform-api",
			// score = 2*2 + 1*1 + 10 = 15
			wantMin: 15,
		},
		{
			name:    "gateway module gets bonus 10",
			fanIn:   0,
			fanOut:  0,
			classes: 0,
			module:  "payment-gateway",
			wantMin: 10,
		},
		{
			name:    "client module gets bonus 10",
			fanIn:   0,
			fanOut:  0,
			classes: 0,
			module:  "billing-client",
			wantMin: 10,
		},
		{
			name:    "web module gets bonus 10",
			fanIn:   0,
			fanOut:  0,
			classes: 0,
			module:  "webapp",
			wantMin: 10,
		},
		{
			name:    "combined all factors high-traffic service",
			fanIn:   10,
			fanOut:  5,
			classes: 40,
			module:  "order-service",
			// score = 10*2 + 5*1 + 40*0.1 + 10 = 39
			wantMin: 39,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateImportanceScore(tc.fanIn, tc.fanOut, tc.classes, tc.module)
			if got < tc.wantMin {
				t.Errorf("CalculateImportanceScore(%d,%d,%d,%q) = %.2f, want >= %.2f",
					tc.fanIn, tc.fanOut, tc.classes, tc.module, got, tc.wantMin)
			}
		})
	}
}

func TestCalculateImportanceScore_NonAPINoBonus(t *testing.T) {
	score := CalculateImportanceScore(0, 0, 0, "core-domain")
	if score != 0 {
		t.Errorf("expected 0 for plain non-API module with zero metrics, got %.2f", score)
	}
}

func TestIsAPIModule(t *testing.T) {
	apiModules := []string{
		"api", "platform-api", "api-v2",
		"gateway", "payment-gateway",
		"client", "billing-client",
		"web", "webapp",
		"service", "order-service",
		"SERVICE", "WebApp",
	}
	for _, m := range apiModules {
		if !isAPIModule(m) {
			t.Errorf("expected %q to be detected as API module", m)
		}
	}

	nonAPI := []string{"core", "domain", "util", "persistence", "batch"}
	for _, m := range nonAPI {
		if isAPIModule(m) {
			t.Errorf("expected %q NOT to be detected as API module", m)
		}
	}
}

func TestGraph_ComputeModuleMetrics_ImportanceScore(t *testing.T) {
	g := NewGraph()

	// api module: high fan-in should rank high.
	// app-a -> api (fan-in 1)
	// app-b -> api (fan-in 2)
	// api -> core (fan-out 1)
	addClass(g, "app-a", "com.a.One", "com.api.One")
	addClass(g, "app-b", "com.b.One", "com.api.One")
	addClass(g, "api", "com.api.One", "com.core.One")
	addClass(g, "core", "com.core.One")

	metrics := g.ComputeModuleMetrics()

	apiMetrics, ok := metrics["api"]
	if !ok {
		t.Fatal("expected metrics for 'api' module")
	}
	// api gets: (2*2) + (1*1) + 1*0.1 + 10 = 15.1
	if apiMetrics.Score < 15 {
		t.Errorf("expected Score >= 15 for api module with fan-in=2, fan-out=1, got %.2f", apiMetrics.Score)
	}

	// core: fan-in=1, fan-out=0, 1 class, non-API: score = 2 + 0.1 = 2.1
	coreMetrics := metrics["core"]
	if math.Abs(coreMetrics.Score-2.1) > 1e-9 {
		t.Errorf("expected Score=2.1 for core module, got %.2f", coreMetrics.Score)
	}
}
