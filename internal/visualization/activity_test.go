package visualization

import (
	"testing"
)

func TestBuildActivityMap(t *testing.T) {
	b := testBrain(t)
	m := BuildActivityMap(b)

	if len(m.Connections) != b.SynapseCount() {
		t.Errorf("connections = %d, want %d", len(m.Connections), b.SynapseCount())
	}
	if len(m.Sensors) != 2 || len(m.Effectors) != 2 {
		t.Errorf("sensors/effectors = %d/%d, want 2/2", len(m.Sensors), len(m.Effectors))
	}
	if len(m.Impulses) != 0 || len(m.Active) != 0 {
		t.Errorf("fresh brain has activity: %d impulses, %d active", len(m.Impulses), len(m.Active))
	}
	if m.Radius != 5 {
		t.Errorf("radius = %v, want 5", m.Radius)
	}
}

func TestBuildActivityMap_Impulses(t *testing.T) {
	b := testBrain(t)
	if err := b.IgniteRandomSynapses(b.SynapseCount(), 1, 1); err != nil {
		t.Fatalf("IgniteRandomSynapses: %v", err)
	}
	m := BuildActivityMap(b)
	if len(m.Impulses) != b.SynapseCount() {
		t.Fatalf("impulses = %d, want %d", len(m.Impulses), b.SynapseCount())
	}
	// due now: drawn at the target end
	for _, imp := range m.Impulses {
		if imp.Progress != 1 {
			t.Errorf("progress = %v, want 1", imp.Progress)
		}
	}

	if err := b.Process(1); err != nil {
		t.Fatalf("Process: %v", err)
	}
	for _, imp := range BuildActivityMap(b).Impulses {
		if imp.Progress < 0 || imp.Progress > 1 {
			t.Errorf("progress %v out of [0,1]", imp.Progress)
		}
	}
}

func TestProgress(t *testing.T) {
	tests := []struct {
		now, sent, due int64
		want           float64
	}{
		{now: 0, sent: 0, due: 4, want: 0},
		{now: 2, sent: 0, due: 4, want: 0.5},
		{now: 4, sent: 0, due: 4, want: 1},
		{now: 3, sent: 3, due: 3, want: 1},
		{now: 9, sent: 0, due: 4, want: 1},
	}
	for _, tt := range tests {
		if got := progress(tt.now, tt.sent, tt.due); got != tt.want {
			t.Errorf("progress(%d, %d, %d) = %v, want %v", tt.now, tt.sent, tt.due, got, tt.want)
		}
	}
}
