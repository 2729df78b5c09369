package person

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// SeedFile is the on-disk layout of a seed document.
type SeedFile struct {
	People []Person `json:"people" yaml:"people"`
}

// LoadSeedFile reads a YAML or JSON seed document. The format is chosen by
// file extension; anything other than .json is parsed as YAML.
func LoadSeedFile(path string) ([]Person, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer f.Close()

	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	return DecodeSeed(f, format)
}

// DecodeSeed parses a seed document in the given format ("yaml" or "json").
func DecodeSeed(r io.Reader, format string) ([]Person, error) {
	var doc SeedFile
	switch format {
	case "json":
		if err := json.NewDecoder(r).Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode seed json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
			return nil, fmt.Errorf("failed to decode seed yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported seed format %q", format)
	}

	seen := make(map[ID]bool, len(doc.People))
	for i := range doc.People {
		p := &doc.People[i]
		if !p.ID.Valid() {
			return nil, fmt.Errorf("%w: seed entry %d has no id", ErrInvalidPerson, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate id %d in seed", ErrInvalidPerson, p.ID)
		}
		seen[p.ID] = true
		if p.Gender == "" {
			p.Gender = GenderUnknown
		} else {
			p.Gender = ParseGender(string(p.Gender))
		}
	}
	return doc.People, nil
}

// EncodeSeed writes people as a YAML seed document.
func EncodeSeed(w io.Writer, people []Person) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(SeedFile{People: people}); err != nil {
		return err
	}
	return enc.Close()
}

// Seed writes people into store as-is. IDs are preserved.
func Seed(ctx context.Context, store RecordStore, people []Person) error {
	for _, p := range people {
		if err := store.Put(ctx, p); err != nil {
			return fmt.Errorf("failed to seed person %d: %w", p.ID, err)
		}
	}
	return nil
}
