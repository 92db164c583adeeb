// Package marker decodes legacy symlink marker files.
//
// Filesystems without native symbolic links can store a link as a regular
// file that begins with a fixed signature followed by the link target,
// encoded as UTF-16LE and usually NUL terminated. Only the decoded target
// escapes this package.
package marker

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Signature is the 12 byte header of a marker file.
var Signature = []byte("!<symlink>\xff\xfe")

// Decode returns the link target stored in data, or ok=false when data does
// not start with Signature. NUL bytes in the payload are dropped, and a
// payload left empty is not a link.
func Decode(data []byte) (target string, ok bool) {
	if !bytes.HasPrefix(data, Signature) {
		return "", false
	}
	payload := bytes.ReplaceAll(data[len(Signature):], []byte{0}, nil)
	if len(payload) == 0 {
		return "", false
	}
	return string(payload), true
}

// Encode builds the contents of a marker file pointing at target. Each byte
// of target is followed by a NUL, and the payload is NUL terminated.
func Encode(target string) []byte {
	buf := make([]byte, 0, len(Signature)+2*len(target)+2)
	buf = append(buf, Signature...)
	for i := 0; i < len(target); i++ {
		buf = append(buf, target[i], 0)
	}
	return append(buf, 0, 0)
}

// ReadTarget reports whether the file at path is a marker file and returns
// its target. Directories, devices and files shorter than the signature are
// not markers. Errors opening or reading the file are returned.
func ReadTarget(path string) (string, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.Mode().IsRegular() || info.Size() < int64(len(Signature)) {
		return "", false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	header := make([]byte, len(Signature))
	if _, err := io.ReadFull(f, header); err != nil {
		return "", false, fmt.Errorf("failed to read header of %s: %w", path, err)
	}
	if !bytes.Equal(header, Signature) {
		return "", false, nil
	}

	rest, err := io.ReadAll(f)
	if err != nil {
		return "", false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	target, ok := Decode(append(header, rest...))
	return target, ok, nil
}
