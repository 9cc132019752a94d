// Package validation checks user-supplied input before it is sent to the API.
package validation

import (
	"fmt"
	"strings"
)

// ValidateFilename checks the file name sent in an upload form. Names derived
// from object-storage keys or blob names must reduce to a single path element.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is the literal ".."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}
	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}
	if strings.ContainsAny(filename, `/\`) {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}
	// "foo..bar.txt" is a legitimate name; only the parent reference is rejected
	if filename == ".." || filename == "." {
		return fmt.Errorf("filename cannot be %q", filename)
	}
	return nil
}

// ValidateUpload checks a DNA export before it is uploaded.
func ValidateUpload(filename string, size int64) error {
	if err := ValidateFilename(filename); err != nil {
		return err
	}
	if size == 0 {
		return fmt.Errorf("%s is empty", filename)
	}
	return nil
}
