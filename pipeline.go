package picocart

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// DefaultWorkers is the number of cartridges decoded in parallel.
const DefaultWorkers = 10

// Ignore anything bigger than a cartridge could reasonably be.
const maxCartSize = 1 << 20

func (p *Picocart) findCarts(ctx context.Context, base string) (<-chan string, <-chan error, error) {
	out := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		errc <- filepath.Walk(base, func(file string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}

			// Ignore any hidden files or directories, otherwise we end up fighting with things like Spotlight, etc.
			if info.Name()[0] == '.' && file != base {
				if info.Mode().IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			// Ignore anything that isn't a normal file
			if !info.Mode().IsRegular() || !isCart(file) {
				return nil
			}

			if info.Size() > maxCartSize {
				p.logger.Printf("Skipping \"%s\", too big\n", file)
				return nil
			}

			select {
			case out <- file:
			case <-ctx.Done():
				return errors.New("walk cancelled")
			}

			return nil
		})
	}()
	return out, errc, nil
}

func (p *Picocart) cartWorker(ctx context.Context, in <-chan string) (<-chan *Entry, <-chan error, error) {
	out := make(chan *Entry)
	errc := make(chan error, 1)
	go func() {
		defer close(out)
		defer close(errc)
		for file := range in {
			sha, err := sha1File(file)
			if err != nil {
				errc <- err
				return
			}

			c, err := LoadFile(file)
			if err != nil {
				p.logger.Printf("Skipping \"%s\": %v\n", file, err)
				continue
			}

			e, err := NewEntry(file, sha, c)
			if err != nil {
				errc <- err
				return
			}

			select {
			case out <- e:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errc, nil
}

func (p *Picocart) storeEntries(ctx context.Context, in <-chan *Entry) (<-chan error, error) {
	errc := make(chan error, 1)
	go func() {
		defer close(errc)
		for e := range in {
			old, err := p.lib.FindBySHA1(e.SHA1)
			if err != nil {
				errc <- err
				return
			}
			if old != nil && old.Path == e.Path {
				p.logger.Printf("Already indexed \"%s\"\n", e.Path)
				continue
			}

			if _, err := p.lib.Add(e); err != nil {
				errc <- err
				return
			}
			p.logger.Printf("Indexed \"%s\" with SHA1 \"%s\"\n", e.Path, e.SHA1)
		}
	}()
	return errc, nil
}

func waitForPipeline(errs ...<-chan error) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}
	return nil
}

func mergeErrors(cs ...<-chan error) <-chan error {
	var wg sync.WaitGroup
	out := make(chan error, len(cs))
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan error) {
			for n := range c {
				out <- n
			}
			wg.Done()
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

func mergeEntries(ctx context.Context, cs ...<-chan *Entry) <-chan *Entry {
	var wg sync.WaitGroup
	out := make(chan *Entry)
	wg.Add(len(cs))
	for _, c := range cs {
		go func(c <-chan *Entry) {
			defer wg.Done()
			for e := range c {
				select {
				case out <- e:
				case <-ctx.Done():
					return
				}
			}
		}(c)
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// Scan walks path and indexes every cartridge found. Cartridges that fail to
// decode are logged and skipped.
func (p *Picocart) Scan(path string, workers int) error {
	dir, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	if workers <= 0 {
		workers = DefaultWorkers
	}

	ctx, cancelFunc := context.WithCancel(context.Background())
	defer cancelFunc()

	var errcList []<-chan error

	files, errc, err := p.findCarts(ctx, dir)
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	var entries []<-chan *Entry
	for i := 0; i < workers; i++ {
		out, errc, err := p.cartWorker(ctx, files)
		if err != nil {
			return err
		}
		entries = append(entries, out)
		errcList = append(errcList, errc)
	}

	errc, err = p.storeEntries(ctx, mergeEntries(ctx, entries...))
	if err != nil {
		return err
	}
	errcList = append(errcList, errc)

	return waitForPipeline(errcList...)
}
