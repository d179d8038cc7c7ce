package fingerprint

import (
	"fmt"
	"io"
	"os"
)

// ReadBuffer loads the exact contents of path into memory. The file size is
// taken up front so a file that shrinks while being read is reported as a
// short read instead of silently hashing a truncated buffer.
func ReadBuffer(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}

	buf := make([]byte, info.Size())
	if _, err := io.ReadFull(file, buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return buf, nil
}

// ComputeFile reads path fully into memory and returns its fingerprint.
func ComputeFile(path string) (uint32, error) {
	buf, err := ReadBuffer(path)
	if err != nil {
		return 0, err
	}
	return Compute(buf), nil
}
