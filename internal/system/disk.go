package system

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// VolumeInfo describes the filesystem backing a path.
type VolumeInfo struct {
	Path       string
	FSType     string
	TotalBytes uint64
	FreeBytes  uint64
	// CopyOnWrite is set for filesystems that remap writes instead of
	// overwriting blocks in place; overwrite-based sanitization is
	// unreliable there.
	CopyOnWrite bool
}

// Магические числа файловых систем из statfs(2)
const (
	magicExt4     = 0xef53
	magicXfs      = 0x58465342
	magicBtrfs    = 0x9123683e
	magicZfs      = 0x2fc12fc1
	magicF2fs     = 0xf2f52010
	magicTmpfs    = 0x01021994
	magicOverlay  = 0x794c7630
	magicNfs      = 0x6969
	magicFuse     = 0x65735546
	magicExfat    = 0x2011bab0
	magicVfat     = 0x4d44
	magicSquashfs = 0x73717368
)

// Probe запрашивает ёмкость и тип тома, на котором лежит path
func Probe(path string) (*VolumeInfo, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return nil, errors.Wrapf(err, "statfs %s", path)
	}

	info := &VolumeInfo{
		Path:       path,
		TotalBytes: uint64(st.Bsize) * st.Blocks,
		FreeBytes:  uint64(st.Bsize) * st.Bavail,
	}

	switch st.Type {
	case magicExt4:
		info.FSType = "ext4"
	case magicXfs:
		info.FSType = "xfs"
	case magicBtrfs:
		info.FSType = "btrfs"
		info.CopyOnWrite = true
	case magicZfs:
		info.FSType = "zfs"
		info.CopyOnWrite = true
	case magicF2fs:
		// log-structured: старые блоки остаются до сборки мусора
		info.FSType = "f2fs"
		info.CopyOnWrite = true
	case magicTmpfs:
		info.FSType = "tmpfs"
	case magicOverlay:
		info.FSType = "overlayfs"
		info.CopyOnWrite = true
	case magicNfs:
		info.FSType = "nfs"
	case magicFuse:
		info.FSType = "fuse"
	case magicExfat:
		info.FSType = "exfat"
	case magicVfat:
		info.FSType = "vfat"
	case magicSquashfs:
		info.FSType = "squashfs"
	default:
		info.FSType = fmt.Sprintf("0x%x", st.Type)
	}

	return info, nil
}

// ValidatePath validates and normalizes path
func ValidatePath(path string) (string, error) {
	if path == "" {
		return "", errors.New("empty path")
	}

	// Expand environment variables
	expanded := os.ExpandEnv(path)

	// Convert to absolute path
	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.Wrap(err, "invalid path")
	}

	// Check existence
	if _, err := os.Stat(absPath); os.IsNotExist(err) {
		return "", errors.Newf("path does not exist: %s", absPath)
	}

	return absPath, nil
}

// CheckWriteAccess checks write access to a directory by creating and
// removing a probe file.
func CheckWriteAccess(dir string) bool {
	testFile := filepath.Join(dir, ".secureshred_write_test")

	file, err := os.Create(testFile)
	if err != nil {
		return false
	}

	file.Close()
	os.Remove(testFile)

	return true
}
