package backup

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func infos(steps ...int64) []ArchiveInfo {
	out := make([]ArchiveInfo, len(steps))
	now := time.Now()
	for i, s := range steps {
		out[i] = ArchiveInfo{
			Path:      filepath.Join("dir", "a", string(rune('a'+i))),
			Step:      s,
			Size:      100,
			CreatedAt: now.Add(-time.Duration(i) * 24 * time.Hour),
		}
	}
	return out
}

func TestCountPolicy(t *testing.T) {
	p := &CountPolicy{MaxCount: 2}
	if got := p.Apply(infos(30, 20, 10)); len(got) != 2 || got[0].Step != 30 || got[1].Step != 20 {
		t.Errorf("unexpected keep set %+v", got)
	}
	if got := p.Apply(infos(10)); len(got) != 1 {
		t.Errorf("fewer than MaxCount should all be kept, got %d", len(got))
	}
}

func TestAgePolicy(t *testing.T) {
	p := &AgePolicy{MaxAge: 36 * time.Hour}
	if got := p.Apply(infos(30, 20, 10)); len(got) != 2 {
		t.Errorf("expected 2 archives within 36h, got %d", len(got))
	}
}

func TestSizePolicy(t *testing.T) {
	p := &SizePolicy{MaxTotalBytes: 250}
	if got := p.Apply(infos(30, 20, 10)); len(got) != 2 {
		t.Errorf("expected 2 archives under 250 bytes, got %d", len(got))
	}
	p = &SizePolicy{MaxTotalBytes: 10}
	if got := p.Apply(infos(30, 20)); len(got) != 1 {
		t.Errorf("newest archive must always be kept, got %d", len(got))
	}
}

func TestCompositePolicy_Intersection(t *testing.T) {
	p := &CompositePolicy{Policies: []RetentionPolicy{
		&CountPolicy{MaxCount: 3},
		&AgePolicy{MaxAge: 36 * time.Hour},
	}}
	if got := p.Apply(infos(40, 30, 20, 10)); len(got) != 2 || got[1].Step != 30 {
		t.Errorf("unexpected keep set %+v", got)
	}
}

func TestCheckpointer(t *testing.T) {
	dir := t.TempDir()
	b := testBrain(t)
	c := &Checkpointer{Dir: dir, Every: 2, Policy: &CountPolicy{MaxCount: 2}}

	var written []string
	for range 7 {
		if err := b.Process(1); err != nil {
			t.Fatalf("Process: %v", err)
		}
		path, err := c.Checkpoint(b)
		if err != nil {
			t.Fatalf("Checkpoint: %v", err)
		}
		if path != "" {
			written = append(written, path)
		}
	}
	// steps 2, 4, 6
	if len(written) != 3 {
		t.Fatalf("expected 3 checkpoints, got %v", written)
	}

	archives, err := ListArchives(dir)
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(archives) != 2 || archives[0].Step != 6 || archives[1].Step != 4 {
		t.Errorf("expected steps 6 and 4 after pruning, got %+v", archives)
	}
	if _, err := os.Stat(c.Path(2)); !os.IsNotExist(err) {
		t.Errorf("step 2 checkpoint should have been pruned")
	}

	var nilCheckpointer *Checkpointer
	if path, err := nilCheckpointer.Checkpoint(b); path != "" || err != nil {
		t.Errorf("nil checkpointer wrote %q, %v", path, err)
	}
}

func TestListArchives_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o600)
	os.WriteFile(filepath.Join(dir, "broken"+Ext), []byte("garbage"), 0o600)
	if _, err := Write(filepath.Join(dir, "ok"+Ext), testBrain(t), nil); err != nil {
		t.Fatal(err)
	}

	archives, err := ListArchives(dir)
	if err != nil {
		t.Fatalf("ListArchives: %v", err)
	}
	if len(archives) != 1 {
		t.Errorf("expected 1 archive, got %d", len(archives))
	}

	missing, err := ListArchives(filepath.Join(dir, "missing"))
	if err != nil || missing != nil {
		t.Errorf("missing dir: got %v, %v", missing, err)
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"720h", 720 * time.Hour, true},
		{"30d", 30 * 24 * time.Hour, true},
		{"2w", 14 * 24 * time.Hour, true},
		{"", 0, false},
		{"5x", 0, false},
		{"d", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseDuration(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseDuration(%q) = %v, %v", tt.in, got, err)
		}
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in   string
		want int64
		ok   bool
	}{
		{"100MB", 100 * 1024 * 1024, true},
		{"1GB", 1024 * 1024 * 1024, true},
		{"500KB", 500 * 1024, true},
		{"42B", 42, true},
		{"", 0, false},
		{"12", 0, false},
		{"-1MB", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseSize(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("ParseSize(%q) = %v, %v", tt.in, got, err)
		}
	}
}
