package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"conceptmap/application/ports"
	"conceptmap/application/services"
	domainconfig "conceptmap/domain/config"
	"conceptmap/domain/core/aggregates"
)

// readDocument loads a map document from a JSON file, "-" for stdin
func readDocument(path string) (*ports.MapDocument, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var doc ports.MapDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if doc.ID == "" {
		doc.ID = "local"
	}
	return &doc, nil
}

// loadMap reads a document and builds the aggregate under cfg
func loadMap(path string, cfg *domainconfig.DomainConfig) (*ports.MapDocument, *aggregates.ConceptMap, error) {
	doc, err := readDocument(path)
	if err != nil {
		return nil, nil, err
	}
	m, err := services.BuildConceptMap(doc, cfg)
	if err != nil {
		return doc, nil, err
	}
	return doc, m, nil
}

func writeDocument(path string, doc *ports.MapDocument) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if path == "-" {
		_, err = os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
