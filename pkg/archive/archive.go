// Package archive packs a session (metadata plus images) into a single
// zstd-compressed tar for sharing or offline backup.
package archive

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"

	"github.com/nextserve/oralvis-sync/pkg/models"
)

const metadataFileName = "metadata.json"

// Export writes the session record and its image files as a zstd-compressed
// tar stream. Entries are metadata.json followed by each image under
// images/<basename>, in input order.
func Export(w io.Writer, rec models.SessionRecord, imagePaths []string) error {
	encoder, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	tw := tar.NewWriter(encoder)

	meta, err := models.MarshalMetadata(rec)
	if err != nil {
		return err
	}
	if err := writeEntry(tw, metadataFileName, meta); err != nil {
		return err
	}

	for _, path := range imagePaths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read image %s: %w", path, err)
		}
		if err := writeEntry(tw, "images/"+filepath.Base(path), data); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("failed to finalize compression: %w", err)
	}
	return nil
}

// Extract reads an exported archive, returning the session record and
// writing its images into destDir.
func Extract(r io.Reader, destDir string) (models.SessionRecord, error) {
	decoder, err := zstd.NewReader(r)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer decoder.Close()

	if err := os.MkdirAll(destDir, 0755); err != nil {
		return models.SessionRecord{}, fmt.Errorf("failed to create destination: %w", err)
	}

	var rec models.SessionRecord
	sawMetadata := false

	tr := tar.NewReader(decoder)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.SessionRecord{}, fmt.Errorf("failed to read archive: %w", err)
		}

		switch {
		case hdr.Name == metadataFileName:
			data, err := io.ReadAll(tr)
			if err != nil {
				return models.SessionRecord{}, fmt.Errorf("failed to read metadata entry: %w", err)
			}
			rec, err = models.UnmarshalMetadata(data)
			if err != nil {
				return models.SessionRecord{}, err
			}
			sawMetadata = true

		case filepath.Dir(hdr.Name) == "images":
			// Basename only: archive entry names never escape destDir.
			dest := filepath.Join(destDir, filepath.Base(hdr.Name))
			f, err := os.Create(dest)
			if err != nil {
				return models.SessionRecord{}, fmt.Errorf("failed to create %s: %w", dest, err)
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return models.SessionRecord{}, fmt.Errorf("failed to extract %s: %w", dest, err)
			}
			if err := f.Close(); err != nil {
				return models.SessionRecord{}, fmt.Errorf("failed to finalize %s: %w", dest, err)
			}
		}
	}

	if !sawMetadata {
		return models.SessionRecord{}, fmt.Errorf("archive has no %s entry", metadataFileName)
	}
	return rec, nil
}

func writeEntry(tw *tar.Writer, name string, data []byte) error {
	hdr := &tar.Header{
		Name: name,
		Mode: 0644,
		Size: int64(len(data)),
	}
	if err := tw.WriteHeader(hdr); err != nil {
		return fmt.Errorf("failed to write %s header: %w", name, err)
	}
	if _, err := tw.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}
