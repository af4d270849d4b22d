/*
Package picocart is a library for indexing and running fantasy console
cartridges.
*/
package picocart

import (
	"fmt"
	"io/ioutil"
	"log"
	"os"
	"strings"

	"github.com/bodgit/picocart/cart"
	"github.com/bodgit/picocart/fault"
)

type Picocart struct {
	lib    *Library
	logger *log.Logger
}

// New opens the library in file. A nil logger discards everything.
func New(file string, logger *log.Logger) (*Picocart, error) {
	lib, err := NewLibrary(file)
	if err != nil {
		return nil, err
	}

	if logger == nil {
		logger = log.New(ioutil.Discard, "", 0)
	}

	return &Picocart{
		lib:    lib,
		logger: logger,
	}, nil
}

// Library returns the cartridge index.
func (p *Picocart) Library() *Library {
	return p.lib
}

func (p *Picocart) Close() error {
	return p.lib.Close()
}

// LoadFile decodes the cartridge in file, choosing the encoding from its
// name.
func LoadFile(file string) (*cart.Cart, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	name := strings.ToLower(file)
	switch {
	case strings.HasSuffix(name, imageExt):
		return cart.DecodePNG(f)
	case strings.HasSuffix(name, textExt):
		return cart.Decode(f)
	default:
		return nil, fmt.Errorf("%w: %s", fault.ErrUnsupportedEncoding, file)
	}
}
