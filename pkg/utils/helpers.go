package utils

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

// unmarshal a JSON byte array to its corresponding object
func FromDataToSpec[T interface{}](byteValue []byte, t T) (*T, error) {
	var d T
	if err := json.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// unmarshal a YAML byte array to its corresponding object
func FromYamlToSpec[T interface{}](byteValue []byte, t T) (*T, error) {
	var d T
	if err := yaml.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
