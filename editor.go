// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/rayarc

package rayarc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Editor accumulates archive edit operations and applies them on Commit.
// Commit rewrites the archive through a backup file and restores it on failure.
type Editor[A any, E Entry] struct {
	format Format[A, E]
	path   string
	ops    []editOperation
	opts   EditOptions
}

// editOperation stores one staged editor operation.
type editOperation struct {
	inputs []Input
	paths  []string
	kind   editOperationKind
}

// editOperationKind identifies staged edit action type.
type editOperationKind uint8

const (
	// editOperationAdd appends new files and fails on existing path.
	editOperationAdd editOperationKind = iota + 1
	// editOperationReplace imports new content into existing files.
	editOperationReplace
	// editOperationDelete removes exact paths.
	editOperationDelete
	// editOperationDeleteDir removes files by directory prefix.
	editOperationDeleteDir
)

// editSlot is one file of the edit plan in archive order.
type editSlot[E Entry] struct {
	item     FileItem[E]
	key      string
	deleted  bool
	added    bool
	replaced bool
}

// OpenEditor creates staged editor for file-based archive rewrite workflow.
func OpenEditor[A any, E Entry](format Format[A, E], path string, opts EditOptions) (*Editor[A, E], error) {
	if format == nil {
		return nil, ErrNilFormat
	}

	trimmedPath := strings.TrimSpace(path)
	if trimmedPath == "" {
		return nil, ErrInvalidEntryPath
	}

	opts.applyDefaults()

	return &Editor[A, E]{
		format: format,
		path:   trimmedPath,
		opts:   opts,
		ops:    make([]editOperation, 0, 8),
	}, nil
}

// Add schedules adding new files and fails on path collision during commit.
func (ed *Editor[A, E]) Add(inputs ...Input) error {
	return ed.stageInputs(editOperationAdd, inputs)
}

// Replace schedules importing new content into existing files.
func (ed *Editor[A, E]) Replace(inputs ...Input) error {
	return ed.stageInputs(editOperationReplace, inputs)
}

// Delete schedules exact-path removal.
func (ed *Editor[A, E]) Delete(paths ...string) error {
	return ed.stagePaths(editOperationDelete, paths)
}

// DeleteDir schedules directory-prefix removal.
func (ed *Editor[A, E]) DeleteDir(prefixes ...string) error {
	return ed.stagePaths(editOperationDeleteDir, prefixes)
}

// stageInputs validates inputs and appends one staged operation.
func (ed *Editor[A, E]) stageInputs(kind editOperationKind, inputs []Input) error {
	if ed == nil {
		return ErrNilReader
	}

	normalized, err := normalizeEditorInputs(inputs)
	if err != nil {
		return err
	}
	if len(normalized) == 0 {
		return nil
	}

	ed.ops = append(ed.ops, editOperation{kind: kind, inputs: normalized})
	return nil
}

// stagePaths validates paths and appends one staged operation.
func (ed *Editor[A, E]) stagePaths(kind editOperationKind, paths []string) error {
	if ed == nil {
		return ErrNilReader
	}

	normalized, err := normalizeEditorPaths(paths)
	if err != nil {
		return err
	}
	if len(normalized) == 0 {
		return nil
	}

	ed.ops = append(ed.ops, editOperation{kind: kind, paths: normalized})
	return nil
}

// Commit applies all staged operations in one rewrite transaction.
func (ed *Editor[A, E]) Commit(ctx context.Context) (*WriteResult, error) {
	if ed == nil {
		return nil, ErrNilReader
	}

	if ctx == nil {
		ctx = context.Background()
	}

	backupPath := ed.path + ".bak"
	if err := prepareBackupSlot(backupPath, ed.opts.BackupKeep); err != nil {
		return nil, err
	}

	if err := os.Rename(ed.path, backupPath); err != nil {
		return nil, fmt.Errorf("move archive to backup: %w", err)
	}

	res, err := ed.commitFromBackup(ctx, backupPath)
	if err != nil {
		rollbackErr := rollbackFromBackup(ed.path, backupPath)
		if rollbackErr != nil {
			return nil, fmt.Errorf("%w (rollback failed: %w)", err, rollbackErr)
		}

		return nil, err
	}

	if ed.opts.BackupKeep == 0 {
		if err := removeIfExists(backupPath); err != nil {
			return nil, fmt.Errorf("remove backup: %w", err)
		}
	}

	ed.opts.Logger.Debug("archive edited",
		slog.String("path", ed.path),
		slog.Int("files", res.Files),
		slog.Int("added", res.Added),
		slog.Int("replaced", res.Replaced),
		slog.Int("deleted", res.Deleted),
	)

	return res, nil
}

// commitFromBackup writes edited archive from backup source.
func (ed *Editor[A, E]) commitFromBackup(ctx context.Context, backupPath string) (*WriteResult, error) {
	src, err := Open(ed.format, backupPath, ReaderOptions{Logger: ed.opts.Logger})
	if err != nil {
		return nil, fmt.Errorf("parse backup: %w", err)
	}
	defer func() { _ = src.Close() }()

	archive := src.Archive()
	slots, err := buildEditPlan(ed.format, archive, src.StoredItems(), ed.ops)
	if err != nil {
		return nil, err
	}

	res := &WriteResult{}
	items := make([]FileItem[E], 0, len(slots))
	for _, slot := range slots {
		switch {
		case slot.deleted:
			if !slot.added {
				res.Deleted++
			}
			continue
		case slot.added:
			res.Added++
		case slot.replaced:
			res.Replaced++
		}

		items = append(items, slot.item)
	}
	res.Files = len(items)

	written, err := writeArchiveFile(ed.path, func(f *os.File) (*WriteResult, error) {
		if err := ed.format.WriteArchive(ctx, archive, f, items); err != nil {
			return nil, fmt.Errorf("write %s archive: %w", ed.format.Name(), err)
		}

		size, err := f.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, fmt.Errorf("seek archive end: %w", err)
		}

		return &WriteResult{Size: size}, nil
	})
	if err != nil {
		return nil, err
	}
	res.Size = written.Size

	return res, nil
}

// normalizeEditorInputs validates and canonicalizes editor input list.
func normalizeEditorInputs(inputs []Input) ([]Input, error) {
	if len(inputs) == 0 {
		return nil, nil
	}

	normalized := make([]Input, 0, len(inputs))
	for i := range inputs {
		if inputs[i].Open == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingSource, inputs[i].Path)
		}

		canonicalPath := NormalizePath(inputs[i].Path)
		if canonicalPath == "" {
			return nil, fmt.Errorf("%w: input path %q", ErrInvalidEntryPath, inputs[i].Path)
		}

		item := inputs[i]
		item.Path = canonicalPath
		normalized = append(normalized, item)
	}

	return normalized, nil
}

// normalizeEditorPaths validates and canonicalizes editor path list.
func normalizeEditorPaths(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	out := make([]string, 0, len(paths))
	for _, raw := range paths {
		canonical := NormalizePath(raw)
		if canonical == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidEntryPath, raw)
		}

		out = append(out, canonical)
	}

	return out, nil
}

// buildEditPlan applies staged operations to stored items in archive order.
// Existing files keep their position; added files are appended in staging order.
func buildEditPlan[A any, E Entry](format Format[A, E], archive A, stored []FileItem[E], ops []editOperation) ([]*editSlot[E], error) {
	sep := format.Separator()
	slots := make([]*editSlot[E], 0, len(stored))
	state := make(map[string]*editSlot[E], len(stored))
	for i := range stored {
		key := pathKey(stored[i].Path(sep))
		if _, exists := state[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryPath, stored[i].Path(sep))
		}

		slot := &editSlot[E]{item: stored[i], key: key}
		state[key] = slot
		slots = append(slots, slot)
	}

	for _, op := range ops {
		switch op.kind {
		case editOperationAdd:
			added, err := applyEditAdd(format, archive, state, op.inputs)
			if err != nil {
				return nil, err
			}
			slots = append(slots, added...)
		case editOperationReplace:
			if err := applyEditReplace(state, op.inputs); err != nil {
				return nil, err
			}
		case editOperationDelete:
			applyEditDelete(state, op.paths)
		case editOperationDeleteDir:
			applyEditDeleteDir(state, op.paths)
		default:
			return nil, fmt.Errorf("unknown edit operation kind: %d", op.kind)
		}
	}

	return slots, nil
}

// applyEditAdd creates new file slots and fails on existing paths.
func applyEditAdd[A any, E Entry](format Format[A, E], archive A, state map[string]*editSlot[E], inputs []Input) ([]*editSlot[E], error) {
	sep := format.Separator()
	added := make([]*editSlot[E], 0, len(inputs))
	for _, in := range inputs {
		key := pathKey(in.Path)
		if _, exists := state[key]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEntryPath, in.Path)
		}

		dir, name, err := SplitPath(in.Path, sep)
		if err != nil {
			return nil, err
		}

		entry := format.NewFileEntry(archive, dir, name)
		applyModTime(entry, in.ModTime)

		slot := &editSlot[E]{
			item: FileItem[E]{
				Entry:     entry,
				Import:    in.Open,
				Directory: dir,
				Name:      name,
			},
			key:   key,
			added: true,
		}
		state[key] = slot
		added = append(added, slot)
	}

	return added, nil
}

// applyEditReplace imports new content into existing files and fails on missing paths.
// The entry record is kept, so format settings of the original file still apply.
func applyEditReplace[E Entry](state map[string]*editSlot[E], inputs []Input) error {
	for _, in := range inputs {
		slot, exists := state[pathKey(in.Path)]
		if !exists {
			return fmt.Errorf("%w: %q", ErrEntryNotFound, in.Path)
		}

		slot.item.Import = in.Open
		applyModTime(slot.item.Entry, in.ModTime)
		if !slot.added {
			slot.replaced = true
		}
	}

	return nil
}

// applyEditDelete removes exact paths from state.
func applyEditDelete[E Entry](state map[string]*editSlot[E], paths []string) {
	for _, path := range paths {
		key := pathKey(path)
		if slot, exists := state[key]; exists {
			slot.deleted = true
			delete(state, key)
		}
	}
}

// applyEditDeleteDir removes files matching directory prefixes.
func applyEditDeleteDir[E Entry](state map[string]*editSlot[E], prefixes []string) {
	for _, prefix := range prefixes {
		prefixKey := pathKey(prefix)
		for key, slot := range state {
			if key == prefixKey || strings.HasPrefix(key, prefixKey+"/") {
				slot.deleted = true
				delete(state, key)
			}
		}
	}
}

// prepareBackupSlot rotates/removes existing backup generations before new commit.
func prepareBackupSlot(backupPath string, keep int) error {
	if keep < 0 {
		keep = 0
	}

	switch keep {
	case 0, 1:
		return removeIfExists(backupPath)
	default:
		oldest := fmt.Sprintf("%s.%d", backupPath, keep-1)
		if err := removeIfExists(oldest); err != nil {
			return err
		}

		for i := keep - 2; i >= 1; i-- {
			from := fmt.Sprintf("%s.%d", backupPath, i)
			to := fmt.Sprintf("%s.%d", backupPath, i+1)
			if err := renameIfExists(from, to); err != nil {
				return err
			}
		}

		return renameIfExists(backupPath, backupPath+".1")
	}
}

// renameIfExists renames source to destination when source exists.
func renameIfExists(from string, to string) error {
	_, err := os.Stat(from)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("stat %s: %w", from, err)
	}

	if err := removeIfExists(to); err != nil {
		return err
	}

	if err := os.Rename(from, to); err != nil {
		return fmt.Errorf("rename %s to %s: %w", from, to, err)
	}

	return nil
}

// removeIfExists removes file when present.
func removeIfExists(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) || err == nil {
		return nil
	}

	return fmt.Errorf("remove %s: %w", path, err)
}

// rollbackFromBackup restores backup on failed commit.
func rollbackFromBackup(path string, backupPath string) error {
	_ = os.Remove(path)

	if err := os.Rename(backupPath, path); err != nil {
		return fmt.Errorf("restore backup: %w", err)
	}

	return nil
}
