package config

import (
	"strings"

	"github.com/mitchellh/go-homedir"
)

// ResolveOutputPath expands a leading ~ and appends ext (e.g. ".ase") unless
// the path already ends with it, ignoring case.
func ResolveOutputPath(path, ext string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", err
	}
	if !strings.HasSuffix(strings.ToLower(expanded), strings.ToLower(ext)) {
		expanded += ext
	}
	return expanded, nil
}
