package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/hoclconnect/leads/internal/intake"
	"github.com/hoclconnect/leads/internal/utm"
)

// briefFile is the YAML form of a completed intake, for scripted submissions:
//
//	path: bulk
//	fields:
//	  bulk_use_case: janitorial
//	  amount_band: tote
//	  email: ops@acme.test
//	utm:
//	  utm_source: newsletter
type briefFile struct {
	Path   string            `yaml:"path"`
	Fields map[string]string `yaml:"fields"`
	UTM    utm.Params        `yaml:"utm"`
}

func loadBriefFile(path string) (*briefFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b briefFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &b, nil
}

// parsePath accepts the landing-page shorthand "pl" as well as the full names.
func parsePath(s string) intake.Path {
	if s == "pl" {
		return intake.PathPrivateLabel
	}
	return intake.Path(s)
}

// apply fills f from the brief. Enumerated fields are matched by option id.
func (b *briefFile) apply(f *intake.Form) error {
	if b.Path != "" {
		if err := f.SelectPath(parsePath(b.Path)); err != nil {
			return err
		}
	}

	keys := make([]string, 0, len(b.Fields))
	for k := range b.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		field, v := intake.Field(k), b.Fields[k]
		var err error
		if intake.Options(field) != nil {
			err = f.Choose(field, v)
		} else {
			err = f.SetText(field, v)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
