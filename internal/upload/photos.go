// Package upload persists inbound base64 photos under the uploads area.
//
// A photo arrives as a data URI (data:image/<ext>;base64,<payload>). It is
// decoded and written with a collision-resistant generated filename before
// the stored procedure that references it runs; if that call then fails or
// reports a sentinel, the caller removes the file again so no orphaned
// uploads accumulate.
package upload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
)

// ErrInvalidFormat reports a body that is not a base64 image data URI.
// Routes map it to a client error.
var ErrInvalidFormat = errors.New("upload: invalid base64 image format")

var dataURIRe = regexp.MustCompile(`^data:image/([A-Za-z0-9.+-]+);base64,(.+)$`)

// PhotoStore writes pickup/delivery photos below Dir.
type PhotoStore struct {
	Dir string // filesystem root, served publicly under /uploads
}

// Photo is a stored image: PublicURL goes into the procedure call, Path is
// the on-disk location used for cleanup.
type Photo struct {
	PublicURL string
	Path      string
}

// SavePickupPhoto decodes a data URI and writes it under pickup-photos/.
func (s *PhotoStore) SavePickupPhoto(dataURI string) (Photo, error) {
	m := dataURIRe.FindStringSubmatch(dataURI)
	if len(m) != 3 {
		return Photo{}, ErrInvalidFormat
	}
	ext, payload := m[1], m[2]

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return Photo{}, ErrInvalidFormat
	}

	dir := filepath.Join(s.Dir, "pickup-photos")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Photo{}, fmt.Errorf("upload: mkdir: %w", err)
	}

	name := fmt.Sprintf("pickup-%s.%s", uuid.NewString(), ext)
	full := filepath.Join(dir, name)
	if err := os.WriteFile(full, raw, 0o644); err != nil {
		return Photo{}, fmt.Errorf("upload: write: %w", err)
	}

	return Photo{
		PublicURL: path.Join("/uploads", "pickup-photos", name),
		Path:      full,
	}, nil
}

// Remove deletes a previously written photo. Missing files are not an error;
// cleanup races with nothing and runs after the response is decided.
func (s *PhotoStore) Remove(p Photo) error {
	if p.Path == "" {
		return nil
	}
	if err := os.Remove(p.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
