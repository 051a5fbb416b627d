package autofix

import (
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/fshlint/fshlint/internal/xerrors"
)

// RollbackPlan captures each modified file's pre-fix content so a run
// can be undone (§4.F step 7).
type RollbackPlan struct {
	ID        string
	Originals map[string]string
	CreatedAt time.Time
}

// NewRollbackPlan builds a RollbackPlan from a completed ApplyAll run,
// recording only files that were actually written.
func NewRollbackPlan(results []FileResult) RollbackPlan {
	originals := make(map[string]string)
	for _, r := range results {
		if r.Written {
			originals[r.File] = r.Original
		}
	}
	return RollbackPlan{ID: uuid.NewString(), Originals: originals, CreatedAt: time.Now()}
}

// IsValid reports false if any file covered by the plan has been
// modified since the plan was created.
func (p RollbackPlan) IsValid() bool {
	for file := range p.Originals {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().After(p.CreatedAt) {
			return false
		}
	}
	return true
}

// Execute restores every file the plan covers to its pre-fix content.
func (p RollbackPlan) Execute() error {
	if !p.IsValid() {
		return xerrors.ErrRollbackStale
	}
	for file, content := range p.Originals {
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			return xerrors.WrapPath(xerrors.KindIO, file, err)
		}
	}
	return nil
}

// ExecutePartial restores only the named subset of files, skipping any
// name the plan doesn't cover. It does not check IsValid for files
// outside the subset.
func (p RollbackPlan) ExecutePartial(files []string) error {
	for _, file := range files {
		content, ok := p.Originals[file]
		if !ok {
			continue
		}
		info, err := os.Stat(file)
		if err == nil && info.ModTime().After(p.CreatedAt) {
			return xerrors.ErrRollbackStale
		}
		if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
			return xerrors.WrapPath(xerrors.KindIO, file, err)
		}
	}
	return nil
}
