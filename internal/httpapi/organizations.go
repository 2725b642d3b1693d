package httpapi

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Organization is one entry of the read-only directory.
type Organization struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Slug string `yaml:"slug" json:"slug"`
}

type organizationsFile struct {
	Organizations []Organization `yaml:"organizations"`
}

// LoadOrganizations reads the directory from a YAML file. An empty path
// yields an empty directory.
func LoadOrganizations(path string) ([]Organization, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open organizations file: %w", err)
	}
	defer f.Close()
	return decodeOrganizations(f)
}

func decodeOrganizations(r io.Reader) ([]Organization, error) {
	var doc organizationsFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode organizations: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Organizations))
	for i, org := range doc.Organizations {
		if org.Slug == "" || org.Name == "" {
			return nil, fmt.Errorf("organization %d: name and slug are required", i)
		}
		if _, dup := seen[org.Slug]; dup {
			return nil, fmt.Errorf("organization %d: duplicate slug %q", i, org.Slug)
		}
		seen[org.Slug] = struct{}{}
	}
	return doc.Organizations, nil
}
