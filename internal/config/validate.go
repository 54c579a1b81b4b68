package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/ariel-frischer/k-releaser/internal/changelog"
	"github.com/ariel-frischer/k-releaser/internal/conventional"
	"github.com/ariel-frischer/k-releaser/internal/version"
)

// ValidationError is a config problem located by file position or key.
type ValidationError struct {
	FilePath string
	// Line and Column are set for syntax errors.
	Line, Column int
	// Field is the config key of a bad value.
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.FilePath, e.Line, e.Column, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field '%s': %s", e.FilePath, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.FilePath, e.Message)
}

// structValidator checks the validate tags, naming fields by config key.
var structValidator = func() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(koanfTagName)
	return v
}()

// ValidateConfigValues checks the loaded values. It reports the first bad
// field as a ValidationError.
func ValidateConfigValues(cfg *Configuration, filePath string) error {
	if err := structValidator.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
			return &ValidationError{FilePath: filePath, Message: err.Error()}
		}
		return &ValidationError{
			FilePath: filePath,
			Field:    fieldPath(fieldErrs[0].Namespace()),
			Message:  describeFieldError(fieldErrs[0]),
		}
	}

	checks := []func(*Configuration) (string, string){
		checkInitialVersion,
		checkTagTemplates,
		checkPackageNames,
		checkGroups,
		checkEntryTemplate,
	}
	for _, check := range checks {
		if field, msg := check(cfg); msg != "" {
			return &ValidationError{FilePath: filePath, Field: field, Message: msg}
		}
	}

	return nil
}

func checkInitialVersion(cfg *Configuration) (string, string) {
	if _, err := version.Parse(cfg.Workspace.InitialVersion); err != nil {
		return "workspace.initial_version", "must be a major.minor.patch version"
	}
	return "", ""
}

func checkTagTemplates(cfg *Configuration) (string, string) {
	multi := cfg.IsMultiPackage()
	if t := cfg.Workspace.GitTagName; t != "" {
		if !strings.Contains(t, "{version}") {
			return "workspace.git_tag_name", "must contain {version} placeholder"
		}
		if multi && !strings.Contains(t, "{package}") {
			return "workspace.git_tag_name", "must contain {package} placeholder when several packages are declared"
		}
	}
	for i, p := range cfg.Packages {
		if p.GitTagName != "" && !strings.Contains(p.GitTagName, "{version}") {
			return fmt.Sprintf("package[%d].git_tag_name", i), "must contain {version} placeholder"
		}
	}
	return "", ""
}

func checkPackageNames(cfg *Configuration) (string, string) {
	seen := make(map[string]bool, len(cfg.Packages))
	for i, p := range cfg.Packages {
		if seen[p.Name] {
			return fmt.Sprintf("package[%d].name", i), fmt.Sprintf("duplicate package name %q", p.Name)
		}
		seen[p.Name] = true
	}
	return "", ""
}

func checkGroups(cfg *Configuration) (string, string) {
	for i, g := range cfg.Changelog.Groups {
		if g.Kind == conventional.Other {
			continue
		}
		if _, ok := conventional.ParseKind(string(g.Kind)); !ok {
			return fmt.Sprintf("changelog.group[%d].kind", i), fmt.Sprintf("unknown commit kind %q", g.Kind)
		}
	}
	return "", ""
}

func checkEntryTemplate(cfg *Configuration) (string, string) {
	if cfg.Changelog.EntryTemplate == "" {
		return "", ""
	}
	if _, err := changelog.NewMarkdownRenderer(cfg.MarkdownOptions()); err != nil {
		return "changelog.entry_template", err.Error()
	}
	return "", ""
}

// koanfTagName reports struct fields by their config key.
func koanfTagName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	return name
}

// fieldPath turns "Configuration.workspace.remote" into "workspace.remote".
func fieldPath(namespace string) string {
	if _, rest, ok := strings.Cut(namespace, "."); ok {
		return rest
	}
	return namespace
}

// fieldMessages phrase validate tags for people. %s is the tag parameter.
var fieldMessages = map[string]string{
	"required": "is required",
	"min":      "must be at least %s",
	"max":      "must be at most %s",
	"oneof":    "must be one of: %s",
	"url":      "must be a valid URL",
}

func describeFieldError(fieldErr validator.FieldError) string {
	msg, ok := fieldMessages[fieldErr.Tag()]
	if !ok {
		return "failed validation: " + fieldErr.Tag()
	}
	if strings.Contains(msg, "%s") {
		return fmt.Sprintf(msg, fieldErr.Param())
	}
	return msg
}
