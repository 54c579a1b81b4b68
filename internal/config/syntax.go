package config

import (
	"errors"
	"os"
	"regexp"
	"strconv"
	"strings"

	tomlparser "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/v2"
	"github.com/pelletier/go-toml/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// fileFormat is a config file syntax k-releaser can load.
type fileFormat struct {
	name   string
	parser koanf.Parser
	// check parses data and returns a positioned error on bad syntax.
	check func(path string, data []byte) *ValidationError
}

var fileFormats = map[string]fileFormat{
	".toml": {name: "TOML", parser: tomlparser.Parser(), check: checkTOML},
	".yml":  {name: "YAML", parser: yaml.Parser(), check: checkYAML},
	".yaml": {name: "YAML", parser: yaml.Parser(), check: checkYAML},
}

// checkSyntax reads path and checks it with f. A missing or blank file
// passes, since it loads as the defaults.
func (f fileFormat) checkSyntax(path string) error {
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return nil
	case errors.Is(err, os.ErrPermission):
		return &ValidationError{FilePath: path, Message: "permission denied"}
	case err != nil:
		return &ValidationError{FilePath: path, Message: err.Error()}
	}
	if strings.TrimSpace(string(data)) == "" {
		return nil
	}
	if vErr := f.check(path, data); vErr != nil {
		return vErr
	}
	return nil
}

func checkTOML(path string, data []byte) *ValidationError {
	var doc map[string]any
	err := toml.Unmarshal(data, &doc)
	if err == nil {
		return nil
	}
	vErr := &ValidationError{FilePath: path, Message: "invalid TOML: " + err.Error()}
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		vErr.Line, vErr.Column = decodeErr.Position()
		vErr.Message = decodeErr.Error()
	}
	return vErr
}

// yamlPosition matches the "yaml: line N:" prefix of yaml.v3 syntax errors.
var yamlPosition = regexp.MustCompile(`^yaml: line (\d+): (?:column (\d+): )?`)

func checkYAML(path string, data []byte) *ValidationError {
	var node yamlv3.Node
	err := yamlv3.Unmarshal(data, &node)
	if err == nil {
		return nil
	}

	var typeErr *yamlv3.TypeError
	if errors.As(err, &typeErr) {
		return &ValidationError{FilePath: path, Message: strings.Join(typeErr.Errors, "; ")}
	}

	vErr := &ValidationError{FilePath: path, Message: strings.TrimPrefix(err.Error(), "yaml: ")}
	if m := yamlPosition.FindStringSubmatch(err.Error()); m != nil {
		vErr.Line, _ = strconv.Atoi(m[1])
		vErr.Column = 1
		if m[2] != "" {
			vErr.Column, _ = strconv.Atoi(m[2])
		}
		vErr.Message = err.Error()[len(m[0]):]
	}
	return vErr
}
