package output

import (
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/morph2d-output/internal/imaging"
	"github.com/ironsheep/morph2d-output/internal/monitoring"
	"github.com/ironsheep/morph2d-output/internal/settings"
)

// FinalOverlayPath returns <out>/outlines/<sampleID>_<imageName>_final.tif.
func FinalOverlayPath(s settings.Settings, imageName string) string {
	name := strings.Join([]string{s.SampleID, imageName, "final.tif"}, "_")
	return filepath.Join(s.Dir(settings.OutlinesDir), name)
}

// SaveFinalOverlay converts img to grayscale, paints every pixel where edge is
// 255 white, and saves the result as a TIFF under outlines/.
//
// When Settings.SaveIntermediates is set the written file is copied, byte for
// byte, into intermediates/ under the same name. It returns every path
// written, the outline first.
func SaveFinalOverlay(s settings.Settings, img, edge image.Image, imageName string) ([]string, error) {
	bg, err := imaging.Grayscale(img)
	if err != nil {
		return nil, err
	}
	overlay, err := imaging.Overlay(bg, edge)
	if err != nil {
		return nil, err
	}

	path := FinalOverlayPath(s, imageName)
	if err := imaging.Save(overlay, path); err != nil {
		return nil, err
	}
	written := []string{path}
	monitoring.Logf("wrote final overlay %s", path)

	if s.SaveIntermediates {
		dst := filepath.Join(s.Dir(settings.IntermediatesDir), filepath.Base(path))
		if err := copyFile(path, dst); err != nil {
			return written, err
		}
		written = append(written, dst)
	}
	return written, nil
}

// copyFile copies src to dst, keeping the permission bits and modification
// time of src. An existing dst is replaced.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", src, err)
	}

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", dst, err)
	}

	if err := os.Chmod(dst, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to set mode on %s: %w", dst, err)
	}
	if err := os.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set times on %s: %w", dst, err)
	}
	return nil
}
