package parser

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
)

// parseJSON unmarshals a single JSON object using generics.
func parseJSON[T any](data []byte) (*T, error) {
	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse json: %w", err)
	}
	return &result, nil
}

// parseXML unmarshals a single XML document using generics.
func parseXML[T any](data []byte) (*T, error) {
	var result T
	if err := xml.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("parse xml: %w", err)
	}
	return &result, nil
}
