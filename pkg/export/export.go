// Package export serialises built trees and writes them to a BlobStore.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/DrSkyle/kinship/pkg/storage"
	"github.com/DrSkyle/kinship/pkg/tree"
	"github.com/DrSkyle/kinship/pkg/version"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatText Format = "text"
)

// ParseFormat accepts json, yaml/yml and text/txt.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "text", "txt":
		return FormatText, nil
	}
	return "", fmt.Errorf("unsupported export format %q", s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatText:
		return "txt"
	}
	return "json"
}

// Document is the envelope written for json and yaml exports.
type Document struct {
	Tool        string            `json:"tool" yaml:"tool"`
	Version     string            `json:"version" yaml:"version"`
	GeneratedAt time.Time         `json:"generated_at" yaml:"generated_at"`
	RootID      int64             `json:"root_id" yaml:"root_id"`
	Nodes       int               `json:"nodes" yaml:"nodes"`
	Tree        tree.SnapshotNode `json:"tree" yaml:"tree"`
}

// NewDocument wraps root in an export envelope.
func NewDocument(root *tree.Node, at time.Time) Document {
	return Document{
		Tool:        version.AppName,
		Version:     version.Current,
		GeneratedAt: at.UTC(),
		RootID:      int64(root.ID),
		Nodes:       root.Len(),
		Tree:        tree.Snapshot(root),
	}
}

// Encode writes root to w in the given format.
func Encode(w io.Writer, root *tree.Node, format Format, at time.Time) error {
	switch format {
	case FormatText:
		return tree.RenderText(w, root)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(NewDocument(root, at)); err != nil {
			return err
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(NewDocument(root, at))
	}
	return fmt.Errorf("unsupported export format %q", format)
}

// Exporter writes snapshots to a BlobStore.
type Exporter struct {
	Store  storage.BlobStore
	Logger *slog.Logger
	Now    func() time.Time
}

func New(store storage.BlobStore, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{Store: store, Logger: logger, Now: time.Now}
}

// Key returns the object key used for a snapshot of rootID taken at at.
func Key(rootID int64, format Format, at time.Time) string {
	return fmt.Sprintf("tree-%d-%s.%s", rootID, at.UTC().Format("20060102T150405Z"), format.Ext())
}

// Export encodes root and stores it, returning the key written.
func (e *Exporter) Export(ctx context.Context, root *tree.Node, format Format) (string, error) {
	at := e.Now()
	var buf bytes.Buffer
	if err := Encode(&buf, root, format, at); err != nil {
		return "", fmt.Errorf("failed to encode tree: %w", err)
	}
	key := Key(int64(root.ID), format, at)
	if err := e.Store.Put(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}
	e.Logger.Info("Tree exported", "key", key, "format", format, "nodes", root.Len(), "bytes", buf.Len())
	return key, nil
}
