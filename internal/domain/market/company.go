// Package market holds the company catalog and stock quotes served by the
// company tools.
package market

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

var ErrCompanyNotFound = errors.New("company not found")

// Company is a listed company. Turnover is in milliard MAD.
type Company struct {
	Name           string  `json:"name" yaml:"name"`
	Activity       string  `json:"activity" yaml:"activity"`
	Turnover       float64 `json:"turnover" yaml:"turnover"`
	EmployeesCount int     `json:"employees_count" yaml:"employees_count"`
	Country        string  `json:"country" yaml:"country"`
}

type catalogFile struct {
	Companies []Company `yaml:"companies"`
}

//go:embed catalog.yaml
var defaultCatalog []byte

// DefaultCatalog returns the companies bundled with the binary.
func DefaultCatalog() ([]Company, error) {
	return ParseCatalog(defaultCatalog)
}

// ParseCatalog reads a YAML catalog document.
func ParseCatalog(data []byte) ([]Company, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("market: parse catalog: %w", err)
	}
	seen := make(map[string]struct{}, len(file.Companies))
	for i, c := range file.Companies {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return nil, fmt.Errorf("market: catalog entry %d: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return nil, fmt.Errorf("market: catalog entry %d: duplicate company %q", i, name)
		}
		seen[name] = struct{}{}
		file.Companies[i].Name = name
	}
	return file.Companies, nil
}
