package backup

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/psyche/internal/brain"
)

// Checkpointer archives a brain every Every ticks into Dir and prunes the
// directory with Policy after each write.
type Checkpointer struct {
	Dir      string
	Every    int64
	Policy   RetentionPolicy // nil keeps everything
	Metadata map[string]string
}

// Path is the archive path for a brain at step.
func (c *Checkpointer) Path(step int64) string {
	return filepath.Join(c.Dir, fmt.Sprintf("step-%012d%s", step, Ext))
}

// Checkpoint archives b when its step is a multiple of Every. It returns the
// written path, or "" when nothing was due. A nil Checkpointer never writes.
func (c *Checkpointer) Checkpoint(b *brain.Brain) (string, error) {
	if c == nil || c.Every <= 0 || b.Step()%c.Every != 0 {
		return "", nil
	}
	path := c.Path(b.Step())
	if _, err := Write(path, b, c.Metadata); err != nil {
		return "", fmt.Errorf("checkpoint at step %d: %w", b.Step(), err)
	}
	if c.Policy != nil {
		if _, err := ApplyRetention(c.Dir, c.Policy); err != nil {
			return path, fmt.Errorf("pruning checkpoints: %w", err)
		}
	}
	return path, nil
}
