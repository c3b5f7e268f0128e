package passkit

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const packTimeout = 15 * time.Second

// packArchive assembles the staged directory into a flat zip. Members are
// stored uncompressed, the way wallet clients expect, with no
// subdirectories. Nothing may be added or renamed after the manifest was
// computed, so this only reads what is already on disk.
func packArchive(ctx context.Context, dir string) ([]byte, error) {
	type result struct {
		buf []byte
		err error
	}

	ctx, cancel := context.WithTimeout(ctx, packTimeout)
	defer cancel()

	ch := make(chan result, 1)
	go func() {
		buf, err := zipDir(dir)
		ch <- result{buf: buf, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: timed out after %s", ErrPackagingFailed, packTimeout)
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrPackagingFailed, r.err)
		}
		return r.buf, nil
	}
}

func zipDir(dir string) ([]byte, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}

		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Store,
			Modified: time.Now(),
		})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(data); err != nil {
			return nil, err
		}
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
