package sandbox

import (
	"os"
	"path/filepath"
	"sort"
)

// Read returns the text content of the file at logicalPath. Reads of files
// whose extension is in the binary deny-list, or whose content looks
// binary, are refused without returning bytes.
func (s *Sandbox) Read(logicalPath string) (string, error) {
	if hasBinaryExtension(logicalPath) {
		return "", &BinaryRefusedError{Path: logicalPath, Hint: "refused by extension; use a dedicated binary tool"}
	}
	_, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", &NotFoundError{Path: logicalPath}
		}
		return "", err
	}
	if looksBinary(data) {
		return "", &BinaryRefusedError{Path: logicalPath, Hint: "content appears to be binary"}
	}
	return string(data), nil
}

// Write atomically writes bytes to logicalPath, creating parent directories
// as needed. Writing into a read-only zone fails with ReadOnlyError.
func (s *Sandbox) Write(logicalPath string, content []byte) error {
	zone, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return err
	}
	if !zone.writable() {
		return &ReadOnlyError{Path: logicalPath, Zone: zone.Name}
	}
	if err := os.MkdirAll(filepath.Dir(fsPath), 0o755); err != nil {
		return &NotFoundError{Path: logicalPath}
	}
	tmp, err := os.CreateTemp(filepath.Dir(fsPath), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, fsPath); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// List returns the lexicographically sorted names of entries directly under
// logicalPath. List is non-recursive.
func (s *Sandbox) List(logicalPath string) ([]string, error) {
	_, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &NotFoundError{Path: logicalPath}
		}
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the file at logicalPath. Delete never removes directories.
func (s *Sandbox) Delete(logicalPath string) error {
	zone, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return err
	}
	if !zone.writable() {
		return &ReadOnlyError{Path: logicalPath, Zone: zone.Name}
	}
	info, err := os.Stat(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: logicalPath}
		}
		return err
	}
	if info.IsDir() {
		return &InvalidPathError{Path: logicalPath, Reason: "refusing to delete a directory"}
	}
	if err := os.Remove(fsPath); err != nil {
		if os.IsNotExist(err) {
			return &NotFoundError{Path: logicalPath}
		}
		return err
	}
	return nil
}

// Exists reports whether logicalPath exists. It never returns an error for
// a missing path; InvalidPathError is only returned for paths that cannot
// be resolved to any zone.
func (s *Sandbox) Exists(logicalPath string) (bool, error) {
	_, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fsPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Stat returns metadata about logicalPath.
func (s *Sandbox) Stat(logicalPath string) (StatResult, error) {
	_, fsPath, err := s.resolve(logicalPath)
	if err != nil {
		return StatResult{}, err
	}
	info, err := os.Stat(fsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return StatResult{}, &NotFoundError{Path: logicalPath}
		}
		return StatResult{}, err
	}
	return StatResult{
		Path:        logicalPath,
		Size:        info.Size(),
		IsDirectory: info.IsDir(),
		ModifiedAt:  info.ModTime().UnixMilli(),
		CreatedAt:   info.ModTime().UnixMilli(),
	}, nil
}
