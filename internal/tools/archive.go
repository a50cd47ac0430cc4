package tools

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ulikunitz/xz"
)

type archiveKind int

const (
	archiveRaw archiveKind = iota
	archiveZip
	archiveGzip
	archiveXz
	archiveTar
)

var errNoBinary = errors.New("no binary found in archive")

func sniffArchive(path string) (archiveKind, error) {
	f, err := os.Open(path)
	if err != nil {
		return archiveRaw, err
	}
	defer f.Close()
	head := make([]byte, 262)
	n, err := io.ReadFull(f, head)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return archiveRaw, err
	}
	head = head[:n]
	switch {
	case len(head) >= 4 && string(head[:4]) == "PK\x03\x04":
		return archiveZip, nil
	case len(head) >= 2 && head[0] == 0x1f && head[1] == 0x8b:
		return archiveGzip, nil
	case len(head) >= 6 && string(head[:6]) == "\xfd7zXZ\x00":
		return archiveXz, nil
	case len(head) >= 262 && string(head[257:262]) == "ustar":
		return archiveTar, nil
	}
	return archiveRaw, nil
}

// installBinary turns the downloaded payload into the executable at
// destPath. Raw payloads are moved into place. Archives are searched for
// an entry matching the binary name exactly, then for the largest entry
// that looks executable on this platform.
func installBinary(payload, destPath, goos string) error {
	kind, err := sniffArchive(payload)
	if err != nil {
		return err
	}
	switch kind {
	case archiveRaw:
		if err := os.Rename(payload, destPath); err != nil {
			return fmt.Errorf("error placing binary: %v", err)
		}
	case archiveZip:
		if err := extractFromZip(payload, destPath, goos); err != nil {
			return err
		}
		os.Remove(payload)
	default:
		if err := extractFromTar(payload, kind, destPath, goos); err != nil {
			return err
		}
		os.Remove(payload)
	}
	return markExecutable(destPath, goos)
}

func markExecutable(path, goos string) error {
	if goos == "windows" {
		return nil
	}
	return os.Chmod(path, 0755)
}

type archiveEntry struct {
	name string
	size int64
	dir  bool
}

// pickBinaryEntry chooses the archive entry holding the tool binary. An
// exact base name match wins; otherwise the largest entry that looks
// executable for the platform (.exe on Windows, extensionless elsewhere).
func pickBinaryEntry(entries []archiveEntry, binName, goos string) string {
	for _, e := range entries {
		if !e.dir && filepath.Base(filepath.FromSlash(e.name)) == binName {
			return e.name
		}
	}
	best := ""
	var bestSize int64 = -1
	for _, e := range entries {
		if e.dir || !looksExecutable(filepath.Base(filepath.FromSlash(e.name)), goos) {
			continue
		}
		if e.size > bestSize {
			best, bestSize = e.name, e.size
		}
	}
	return best
}

func looksExecutable(base, goos string) bool {
	if goos == "windows" {
		return strings.HasSuffix(strings.ToLower(base), ".exe")
	}
	return base != "" && !strings.Contains(base, ".")
}

func extractFromZip(archivePath, destPath, goos string) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("error opening zip archive: %v", err)
	}
	defer r.Close()
	entries := make([]archiveEntry, 0, len(r.File))
	for _, f := range r.File {
		entries = append(entries, archiveEntry{
			name: f.Name,
			size: int64(f.UncompressedSize64),
			dir:  f.FileInfo().IsDir(),
		})
	}
	pick := pickBinaryEntry(entries, filepath.Base(destPath), goos)
	if pick == "" {
		return errNoBinary
	}
	for _, f := range r.File {
		if f.Name != pick {
			continue
		}
		src, err := f.Open()
		if err != nil {
			return err
		}
		defer src.Close()
		return writeFileFrom(src, destPath)
	}
	return errNoBinary
}

func extractFromTar(archivePath string, kind archiveKind, destPath, goos string) error {
	var entries []archiveEntry
	err := walkTar(archivePath, kind, func(hdr *tar.Header, _ *tar.Reader) (bool, error) {
		entries = append(entries, archiveEntry{
			name: hdr.Name,
			size: hdr.Size,
			dir:  hdr.Typeflag == tar.TypeDir,
		})
		return false, nil
	})
	if err != nil {
		return err
	}
	pick := pickBinaryEntry(entries, filepath.Base(destPath), goos)
	if pick == "" {
		return errNoBinary
	}
	return walkTar(archivePath, kind, func(hdr *tar.Header, tr *tar.Reader) (bool, error) {
		if hdr.Name != pick {
			return false, nil
		}
		return true, writeFileFrom(tr, destPath)
	})
}

// walkTar streams the archive, calling fn per header until fn reports done.
func walkTar(path string, kind archiveKind, fn func(*tar.Header, *tar.Reader) (bool, error)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	var src io.Reader = f
	switch kind {
	case archiveGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return fmt.Errorf("error opening gzip stream: %v", err)
		}
		defer gz.Close()
		src = gz
	case archiveXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return fmt.Errorf("error opening xz stream: %v", err)
		}
		src = xr
	}
	tr := tar.NewReader(src)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading tar archive: %v", err)
		}
		done, err := fn(hdr, tr)
		if err != nil || done {
			return err
		}
	}
}

func writeFileFrom(src io.Reader, dest string) error {
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer out.Close()
	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("error extracting %s: %v", filepath.Base(dest), err)
	}
	return out.Sync()
}
