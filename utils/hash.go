package utils

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"os"
)

// HashReader returns the MD5 hash of the given reader and the number of bytes read.
func HashReader(r io.Reader) (string, int64, error) {
	h := md5.New()
	n, err := io.Copy(h, r)
	if err != nil {
		return "", n, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HashFile returns the MD5 hash and size of the named file.
func HashFile(name string) (string, int64, error) {
	f, err := os.Open(name)
	if err != nil {
		return "", 0, err
	}
	defer f.Close()
	return HashReader(f)
}
