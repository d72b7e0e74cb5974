package storage

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
)

// MaxImageSize caps uploads at 10 MiB.
const MaxImageSize = 10 << 20

// allowedExtensions is the case-insensitive allow-list for radiology images.
var allowedExtensions = map[string]bool{
	".png":   true,
	".jpg":   true,
	".jpeg":  true,
	".gif":   true,
	".bmp":   true,
	".tiff":  true,
	".dcm":   true,
	".dicom": true,
}

var (
	ErrDisallowedType = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file exceeds size limit")
)

// FileStore stores bytes under a path namespaced by patient id. The core
// depends only on these operations, not on the storage medium.
type FileStore interface {
	Save(name string, r io.Reader) error
	Open(name string) (io.ReadCloser, error)
	// Delete removes a stored file; a missing file is not an error, the
	// end state is what matters.
	Delete(name string) error
	Exists(name string) bool
}

// AllowedExtension reports whether the original filename carries an accepted
// image extension.
func AllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(path.Ext(filename))]
}

// UniqueFilename generates a collision-free stored name keeping only the
// original extension; the original name never reaches the filesystem.
func UniqueFilename(original string) string {
	return uuid.New().String() + strings.ToLower(path.Ext(original))
}

// PatientPath namespaces a stored filename under the owning patient.
func PatientPath(patientID uuid.UUID, filename string) string {
	return fmt.Sprintf("patient_%s/%s", patientID, filename)
}
