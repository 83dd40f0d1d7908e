package filesystem

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/zeebo/xxh3"
)

// CopyFile copies src to dst, truncating dst if it exists, and returns the
// number of bytes written
func CopyFile(src, dst string) (int64, error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return 0, err
	}

	n, err := io.Copy(destFile, sourceFile)
	if err != nil {
		destFile.Close()
		return n, err
	}

	if err := destFile.Sync(); err != nil {
		destFile.Close()
		return n, err
	}
	return n, destFile.Close()
}

// HashFile returns the xxh3 128-bit digest of a file's content
func HashFile(path string) (xxh3.Uint128, error) {
	f, err := os.Open(path)
	if err != nil {
		return xxh3.Uint128{}, err
	}
	defer f.Close()

	h := xxh3.New()
	if _, err := io.Copy(h, f); err != nil {
		return xxh3.Uint128{}, fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return h.Sum128(), nil
}

// IsDir reports whether path exists and is a directory
func IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsEmptyDir reports whether path is missing or an empty directory
func IsEmptyDir(path string) (bool, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	defer f.Close()

	names, err := f.Readdirnames(1)
	if err == io.EOF {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return len(names) == 0, nil
}

// IsTextFile sniffs the content of path and reports whether it is plain text
// or a text-based format (json, xml, html, source code)
func IsTextFile(path string) (bool, error) {
	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return false, err
	}
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true, nil
		}
	}
	return false, nil
}
