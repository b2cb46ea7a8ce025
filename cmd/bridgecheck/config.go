package main

import (
	"bytes"
	stderrors "errors"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/xbridge/conformance"
	"github.com/wippyai/xbridge/errors"
)

// parseConfig decodes a YAML run config. Unknown keys are rejected so a
// misspelled option does not silently fall back to its default.
func parseConfig(data []byte) (*conformance.Config, error) {
	cfg := &conformance.Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		if stderrors.Is(err, io.EOF) {
			return cfg, nil
		}
		return nil, errors.Wrap(errors.PhaseConfigure, errors.KindInvalidData, err, "parse config")
	}
	return cfg, nil
}
