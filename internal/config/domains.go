package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/tce-search/internal/core/domain"
)

//go:embed domains.yaml
var defaultDomains []byte

type domainCatalog struct {
	Domains []domainEntry `yaml:"domains"`
}

type domainEntry struct {
	Name         string `yaml:"name"`
	Title        string `yaml:"title"`
	DatasetURL   string `yaml:"dataset_url"`
	ImageBaseURL string `yaml:"image_base_url"`
}

// LoadDomains reads the catalog at path, or the built-in one when path is empty.
func LoadDomains(path string) ([]domain.SubjectDomain, error) {
	if strings.TrimSpace(path) == "" {
		return ParseDomains(defaultDomains)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read domains file: %w", err)
	}
	return ParseDomains(raw)
}

func ParseDomains(raw []byte) ([]domain.SubjectDomain, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var catalog domainCatalog
	if err := dec.Decode(&catalog); err != nil {
		return nil, fmt.Errorf("decode domains: %w", err)
	}
	if len(catalog.Domains) == 0 {
		return nil, fmt.Errorf("%w: domain catalog is empty", domain.ErrInvalidInput)
	}

	seen := make(map[string]struct{}, len(catalog.Domains))
	out := make([]domain.SubjectDomain, 0, len(catalog.Domains))
	for _, entry := range catalog.Domains {
		d := domain.SubjectDomain{
			Name:         strings.TrimSpace(entry.Name),
			Title:        strings.TrimSpace(entry.Title),
			DatasetURL:   strings.TrimSpace(entry.DatasetURL),
			ImageBaseURL: strings.TrimSpace(entry.ImageBaseURL),
		}
		if d.Title == "" {
			d.Title = d.Name
		}
		if err := d.Validate(); err != nil {
			return nil, err
		}
		key := strings.ToLower(d.Name)
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("%w: duplicate domain %s", domain.ErrInvalidInput, d.Name)
		}
		seen[key] = struct{}{}
		out = append(out, d)
	}
	return out, nil
}
