package erase

import (
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"golang.org/x/sys/unix"
)

// Маркеры для классификации ошибок по проходам
var (
	// ErrCancelled marks a run stopped by caller request between chunks.
	ErrCancelled = errors.New("erase cancelled")

	// ErrCipher marks key/nonce generation or encryption failures. These
	// abort the current pattern attempt but never the whole run.
	ErrCipher = errors.New("cipher failure")
)

// IsExhausted reports whether err is the disk-full class of write failure.
// For a free-space fill this is the normal stopping condition, not an error:
// a volume refusing further writes is the "done" signal for that resource.
func IsExhausted(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT) {
		return true
	}
	if errors.Is(err, io.ErrShortWrite) {
		return true
	}

	// Некоторые бэкенды (FUSE, сетевые ФС) сообщают о переполнении только текстом
	msg := err.Error()
	for _, needle := range []string{
		"no space left",
		"disk full",
		"disk is full",
		"not enough space",
		"insufficient space",
		"ERROR_DISK_FULL",
		"ERROR_HANDLE_DISK_FULL",
	} {
		if strings.Contains(msg, needle) {
			return true
		}
	}

	return false
}
