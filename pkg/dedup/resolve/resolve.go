// Package resolve implements the resolution executor. It applies a
// requested action to the non-original members of computed duplicate
// groups: relocating them into organized folders, deleting them, or
// replacing them with hard links to the original.
//
// Every per-file operation is attempted independently; a failure is
// captured in the outcome and never aborts the batch.
package resolve

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jamesainslie/dedup/pkg/dedup/logging"
	"github.com/jamesainslie/dedup/pkg/dedup/types"
)

// Destination subfolder names created under the output folder for the
// relocate action. These names are part of the observable contract.
const (
	OriginalDirName  = "original"
	DuplicateDirName = "duplicated"
)

// maxCollisionAttempts bounds the numeric-suffix search for a free
// destination name.
const maxCollisionAttempts = 10000

// Per-file resolution errors.
var (
	// ErrOutputFolderRequired indicates a relocate action without an
	// output folder.
	ErrOutputFolderRequired = errors.New("output folder required for relocate action")

	// ErrSourceVanished indicates the file disappeared between
	// grouping and resolution.
	ErrSourceVanished = errors.New("source file vanished")

	// ErrCollisionUnresolvable indicates the disambiguation suffix
	// search was exhausted.
	ErrCollisionUnresolvable = errors.New("destination collision unresolvable")

	// ErrOriginalMissing indicates the group's original could not be
	// verified intact, so its duplicates are left untouched.
	ErrOriginalMissing = errors.New("original missing or altered")

	// ErrUnsupportedLink indicates the filesystem rejected the hard
	// link operation.
	ErrUnsupportedLink = errors.New("link operation unsupported")
)

var logger = logging.Get("resolve")

// Options configures an Executor.
type Options struct {
	// Action is the mutation applied to non-original group members.
	Action types.Action

	// OutputFolder receives the original/ and duplicated/ subfolders
	// for the relocate action.
	OutputFolder string

	// KeepOriginalInPlace leaves each group's original at its source
	// path during relocation, recording it without moving it.
	KeepOriginalInPlace bool

	// UseTrash routes deletions through the system trash when one is
	// available, instead of removing files permanently.
	UseTrash bool

	// DryRun reports planned operations without mutating anything.
	DryRun bool

	// OnProgress, when set, is called after each attempted file
	// operation with counts of completed and total files.
	OnProgress func(done, total int, path string)
}

// Validate checks option combinations.
func (o *Options) Validate() error {
	if _, err := types.ParseAction(string(o.Action)); err != nil {
		return err
	}
	if o.Action == types.ActionRelocate && o.OutputFolder == "" {
		return ErrOutputFolderRequired
	}
	return nil
}

// Executor applies resolution actions to duplicate groups. Concurrent
// executors against the same output folder are not supported; callers
// serialize resolution per output folder.
type Executor struct {
	opts Options
}

// New creates an Executor with validated options.
func New(opts Options) (*Executor, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Executor{opts: opts}, nil
}

// Resolve applies the configured action to every group. The original
// member of each group is never removed or overwritten.
//
// Per-file failures are recorded in the outcome and do not stop the
// batch. On cancellation the already-applied operations stay in place,
// the outcome is marked incomplete, and the context error is returned
// alongside the partial outcome.
func (x *Executor) Resolve(ctx context.Context, groups []types.DuplicateGroup) (*types.ResolutionOutcome, error) {
	outcome := &types.ResolutionOutcome{}

	if x.opts.Action == types.ActionRelocate && !x.opts.DryRun {
		if err := x.ensureOutputDirs(); err != nil {
			return nil, err
		}
	}

	totalFiles := 0
	for _, g := range groups {
		totalFiles += len(g.Files)
	}
	done := 0

	for _, group := range groups {
		if ctx.Err() != nil {
			outcome.Incomplete = true
			return outcome, ctx.Err()
		}

		switch x.opts.Action {
		case types.ActionRelocate:
			x.relocateGroup(ctx, group, outcome, &done, totalFiles)
		case types.ActionDelete:
			x.deleteGroup(ctx, group, outcome, &done, totalFiles)
		case types.ActionLink:
			x.linkGroup(ctx, group, outcome, &done, totalFiles)
		}
		outcome.GroupsProcessed++

		if ctx.Err() != nil {
			outcome.Incomplete = true
			return outcome, ctx.Err()
		}
	}

	logger.Info("resolution finished", "summary", outcome.Summary())
	return outcome, nil
}

// ensureOutputDirs idempotently creates the destination tree. Failure
// here fails the whole call: nothing has been mutated yet.
func (x *Executor) ensureOutputDirs() error {
	for _, dir := range []string{
		filepath.Join(x.opts.OutputFolder, OriginalDirName),
		filepath.Join(x.opts.OutputFolder, DuplicateDirName),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output folder: %w", err)
		}
	}
	return nil
}

// relocateGroup moves the original into original/ (unless configured to
// stay) and every duplicate into duplicated/.
func (x *Executor) relocateGroup(ctx context.Context, group types.DuplicateGroup, outcome *types.ResolutionOutcome, done *int, total int) {
	original := group.Original()

	if x.opts.KeepOriginalInPlace {
		x.record(outcome, types.FileResult{
			Source: original.Path,
			Action: types.ActionRelocate,
			OK:     true,
		}, 0, done, total)
	} else {
		dest, err := x.moveInto(original.Path, filepath.Join(x.opts.OutputFolder, OriginalDirName))
		x.record(outcome, types.FileResult{
			Source:      original.Path,
			Destination: dest,
			Action:      types.ActionRelocate,
			OK:          err == nil,
			Error:       errString(err),
		}, 0, done, total)
	}

	dupDir := filepath.Join(x.opts.OutputFolder, DuplicateDirName)
	for _, dup := range group.Duplicates() {
		if ctx.Err() != nil {
			return
		}
		dest, err := x.moveInto(dup.Path, dupDir)
		x.record(outcome, types.FileResult{
			Source:      dup.Path,
			Destination: dest,
			Action:      types.ActionRelocate,
			OK:          err == nil,
			Error:       errString(err),
		}, dup.Size, done, total)
	}
}

// deleteGroup removes the duplicates of one group. The original is
// verified intact first: a defensive check against partial prior
// failures. If the check fails every duplicate in the group is recorded
// as failed and left untouched.
func (x *Executor) deleteGroup(ctx context.Context, group types.DuplicateGroup, outcome *types.ResolutionOutcome, done *int, total int) {
	original := group.Original()

	info, err := os.Stat(original.Path)
	intact := err == nil && info.Size() == original.Size
	for _, dup := range group.Duplicates() {
		if ctx.Err() != nil {
			return
		}

		if !intact {
			x.record(outcome, types.FileResult{
				Source: dup.Path,
				Action: types.ActionDelete,
				Error:  ErrOriginalMissing.Error(),
			}, 0, done, total)
			continue
		}

		err := x.removeFile(dup.Path)
		x.record(outcome, types.FileResult{
			Source: dup.Path,
			Action: types.ActionDelete,
			OK:     err == nil,
			Error:  errString(err),
		}, dup.Size, done, total)
	}
}

// linkGroup replaces each duplicate with a hard link to the group's
// original. The link is created under a temporary name and renamed over
// the duplicate, so a failed link leaves the duplicate untouched.
func (x *Executor) linkGroup(ctx context.Context, group types.DuplicateGroup, outcome *types.ResolutionOutcome, done *int, total int) {
	original := group.Original()

	if _, err := os.Stat(original.Path); err != nil {
		for _, dup := range group.Duplicates() {
			x.record(outcome, types.FileResult{
				Source: dup.Path,
				Action: types.ActionLink,
				Error:  ErrOriginalMissing.Error(),
			}, 0, done, total)
		}
		return
	}

	for _, dup := range group.Duplicates() {
		if ctx.Err() != nil {
			return
		}

		err := x.linkFile(original.Path, dup.Path)
		x.record(outcome, types.FileResult{
			Source:      dup.Path,
			Destination: original.Path,
			Action:      types.ActionLink,
			OK:          err == nil,
			Error:       errString(err),
		}, dup.Size, done, total)
	}
}

// record appends a file result and updates the aggregate counters.
// reclaimed is the byte count credited on success.
func (x *Executor) record(outcome *types.ResolutionOutcome, res types.FileResult, reclaimed int64, done *int, total int) {
	if res.OK {
		outcome.FilesRelocated++
		outcome.BytesReclaimed += reclaimed
	} else {
		outcome.FilesFailed++
		logger.Warn("file operation failed", "path", res.Source, "error", res.Error)
	}
	outcome.Results = append(outcome.Results, res)

	*done++
	if x.opts.OnProgress != nil {
		x.opts.OnProgress(*done, total, res.Source)
	}
}

// moveInto moves src into dir, disambiguating name collisions with a
// numeric suffix before the extension. It returns the final destination
// path.
func (x *Executor) moveInto(src, dir string) (string, error) {
	if _, err := os.Stat(src); err != nil {
		if os.IsNotExist(err) {
			return "", ErrSourceVanished
		}
		return "", err
	}

	dest, err := disambiguate(dir, filepath.Base(src))
	if err != nil {
		return "", err
	}
	if x.opts.DryRun {
		return dest, nil
	}
	if err := moveFile(src, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// removeFile deletes one duplicate, via the system trash when enabled.
func (x *Executor) removeFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrSourceVanished
		}
		return err
	}
	if x.opts.DryRun {
		return nil
	}
	if x.opts.UseTrash {
		return moveToTrash(path)
	}
	return os.Remove(path)
}

// linkFile atomically replaces dup with a hard link to original.
func (x *Executor) linkFile(original, dup string) error {
	if _, err := os.Stat(dup); err != nil {
		if os.IsNotExist(err) {
			return ErrSourceVanished
		}
		return err
	}
	if x.opts.DryRun {
		return nil
	}

	tmp := dup + ".dedup-tmp"
	if err := os.Link(original, tmp); err != nil {
		// Cross-device links and filesystems without hard link
		// support surface here; the duplicate is untouched.
		return fmt.Errorf("%w: %v", ErrUnsupportedLink, err)
	}
	if err := os.Rename(tmp, dup); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

// disambiguate returns a destination path under dir for base that does
// not collide with an existing file, appending "_1", "_2", ... before
// the extension as needed. Existing files are never overwritten.
func disambiguate(dir, base string) (string, error) {
	dest := filepath.Join(dir, base)
	if _, err := os.Stat(dest); os.IsNotExist(err) {
		return dest, nil
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i <= maxCollisionAttempts; i++ {
		dest = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, i, ext))
		if _, err := os.Stat(dest); os.IsNotExist(err) {
			return dest, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrCollisionUnresolvable, base)
}

// moveFile renames src to dest, falling back to copy-and-remove when
// the rename crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyFileAtomic(src, dest); err != nil {
		return err
	}
	return os.Remove(src)
}

// copyFileAtomic copies src to dest via a temp file and rename, so a
// partial copy never appears at the destination path.
func copyFileAtomic(src, dest string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dest + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}

	return os.Rename(tmp, dest)
}

// errString renders an error for a FileResult, empty on success.
func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
