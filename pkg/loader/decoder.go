package loader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"

	"github.com/aretw0/vanity/pkg/domain"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"gopkg.in/yaml.v3"
)

// Decoder turns the content of a definition file into a Definition.
type Decoder func(file string, data []byte) (*domain.Definition, error)

var (
	decodersMu sync.RWMutex
	decoders   = map[string]Decoder{
		".yml":  decodeYAML,
		".yaml": decodeYAML,
		".hcl":  decodeHCL,
	}
)

// RegisterDecoder adds or replaces the decoder for a file extension (".toml").
// A nil decoder removes the extension.
func RegisterDecoder(ext string, dec Decoder) {
	decodersMu.Lock()
	defer decodersMu.Unlock()
	if dec == nil {
		delete(decoders, strings.ToLower(ext))
		return
	}
	decoders[strings.ToLower(ext)] = dec
}

func decoderFor(file string) (Decoder, bool) {
	decodersMu.RLock()
	defer decodersMu.RUnlock()
	dec, ok := decoders[strings.ToLower(path.Ext(file))]
	return dec, ok
}

// IsDefinitionFile reports whether file has a registered decoder.
func IsDefinitionFile(file string) bool {
	_, ok := decoderFor(file)
	return ok
}

// IdentifierFor derives the identifier a file must define from its base name.
func IdentifierFor(file string) domain.Identifier {
	base := path.Base(file)
	return domain.Normalize(strings.TrimSuffix(base, path.Ext(base)))
}

func decode(file string, data []byte) (*domain.Definition, error) {
	dec, ok := decoderFor(file)
	if !ok {
		return nil, &domain.DefinitionError{Path: file, Msg: "no decoder for " + path.Ext(file)}
	}
	def, err := dec(file, data)
	if err != nil {
		return nil, &domain.DefinitionError{Path: file, Msg: err.Error()}
	}
	return def, nil
}

func decodeYAML(file string, data []byte) (*domain.Definition, error) {
	var def domain.Definition
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&def); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	return &def, nil
}

func decodeHCL(file string, data []byte) (*domain.Definition, error) {
	parser := hclparse.NewParser()
	f, diags := parser.ParseHCL(data, file)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL: %w", diags)
	}

	var def domain.Definition
	if diags := gohcl.DecodeBody(f.Body, nil, &def); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %w", diags)
	}
	return &def, nil
}
