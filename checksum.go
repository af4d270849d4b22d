package picocart

import (
	"crypto/sha1"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	textExt  = ".p8"
	imageExt = ".p8.png"
)

// isCart reports whether file looks like a cartridge by its name.
func isCart(file string) bool {
	name := strings.ToLower(filepath.Base(file))
	return strings.HasSuffix(name, textExt) || strings.HasSuffix(name, imageExt)
}

func sha1File(file string) (string, error) {
	f, err := os.Open(file)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha1.New()
	if _, err = io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%X", h.Sum(nil)), nil
}
