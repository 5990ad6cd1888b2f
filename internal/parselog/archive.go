package parselog

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"

	errs "github.com/wangguanran/Tools/internal/errors"
	"github.com/wangguanran/Tools/internal/pool"
)

// ExtractArchives walks root and unpacks every archive found. The extraction
// target is the archive path with its extension stripped; targets that
// already exist are left alone, so reruns are cheap. The codec is decided by
// content sniffing, so a gzip stream named .zip (common in device bundles)
// still extracts.
func (p *Processor) ExtractArchives(ctx context.Context, root string) error {
	var candidates []string
	err := p.filesystem.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		if hasArchiveExt(path) {
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s for archives: %w", root, err)
	}

	for _, archivePath := range candidates {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err := p.extractArchive(archivePath); err != nil {
			// A broken bundle member should not sink the whole scan.
			p.log.WithError(err).WithField("archive", archivePath).Warn("extraction failed")
		}
	}
	return nil
}

// extractArchive unpacks one archive next to itself.
func (p *Processor) extractArchive(archivePath string) error {
	target := trimArchiveExt(archivePath)
	if exists, err := p.filesystem.Exists(target); err != nil {
		return err
	} else if exists {
		p.log.WithField("archive", archivePath).Debug("already extracted, skipping")
		return nil
	}

	f, err := p.filesystem.Open(archivePath)
	if err != nil {
		return err
	}
	mtype, err := mimetype.DetectReader(f)
	closeErr := f.Close()
	if err != nil {
		return errs.Wrap(err, errs.CodeBadArchive,
			fmt.Sprintf("failed to sniff %s", archivePath))
	}
	if closeErr != nil {
		return closeErr
	}

	switch {
	case mtype.Is("application/gzip"):
		err = p.extractGzip(archivePath, target)
	case mtype.Is("application/zip"):
		err = p.extractZip(archivePath, target)
	default:
		return errs.Newf(errs.CodeBadArchive,
			"%s is not a gzip or zip archive (detected %s)", archivePath, mtype.String())
	}
	if err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"archive": archivePath,
		"target":  target,
		"format":  mtype.String(),
	}).Info("extracted archive")
	return nil
}

// extractGzip decompresses a single gzip stream into dst.
func (p *Processor) extractGzip(src, dst string) error {
	in, err := p.filesystem.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	gz, err := gzip.NewReader(in)
	if err != nil {
		return errs.Wrap(err, errs.CodeBadArchive, fmt.Sprintf("failed to open gzip %s", src))
	}
	defer gz.Close()

	out, err := p.filesystem.Create(dst)
	if err != nil {
		return err
	}

	buf := pool.Get(pool.LargeBufferSize)
	_, copyErr := io.CopyBuffer(out, gz, buf)
	pool.Put(buf)

	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return errs.Wrap(copyErr, errs.CodeBadArchive, fmt.Sprintf("failed to extract %s", src))
	}
	return nil
}

// extractZip unpacks a zip archive into the dstDir directory.
func (p *Processor) extractZip(src, dstDir string) error {
	f, err := p.filesystem.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	info, err := p.filesystem.Stat(src)
	if err != nil {
		return err
	}

	zr, err := zip.NewReader(f, info.Size())
	if err != nil {
		return errs.Wrap(err, errs.CodeBadArchive, fmt.Sprintf("failed to open zip %s", src))
	}

	for _, entry := range zr.File {
		if err := p.extractZipEntry(dstDir, entry); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) extractZipEntry(dstDir string, entry *zip.File) error {
	// Zip names are slash-separated. Reject anything that would land
	// outside the extraction directory.
	clean := path.Clean(entry.Name)
	if clean == ".." || strings.HasPrefix(clean, "../") || path.IsAbs(clean) {
		return errs.Newf(errs.CodeBadArchive,
			"archive entry %q escapes the extraction directory", entry.Name)
	}

	target := p.filesystem.Join(dstDir, filepath.FromSlash(clean))
	if entry.FileInfo().IsDir() {
		return p.filesystem.MkdirAll(target, 0o755)
	}

	if dir := filepath.Dir(target); dir != "." && dir != "/" {
		if err := p.filesystem.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	rc, err := entry.Open()
	if err != nil {
		return errs.Wrap(err, errs.CodeBadArchive,
			fmt.Sprintf("failed to open archive entry %s", entry.Name))
	}
	defer rc.Close()

	out, err := p.filesystem.Create(target)
	if err != nil {
		return err
	}

	buf := pool.Get(pool.MediumBufferSize)
	_, copyErr := io.CopyBuffer(out, rc, buf)
	pool.Put(buf)

	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return errs.Wrap(copyErr, errs.CodeBadArchive,
			fmt.Sprintf("failed to extract archive entry %s", entry.Name))
	}
	return nil
}

// hasArchiveExt reports whether path names a bundle archive member.
func hasArchiveExt(p string) bool {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".zip", ".gz":
		return true
	default:
		return false
	}
}

// trimArchiveExt drops the final extension, yielding the extraction target.
func trimArchiveExt(p string) string {
	return strings.TrimSuffix(p, filepath.Ext(p))
}
