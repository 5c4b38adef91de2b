// Package config loads YAML configuration files with environment variables applied.
package config

import (
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v2"
)

// FromFile reads the YAML file at filePath into cfg. The file is first rendered as a text/template over
// the environment, so both {{ .NAME }} and $NAME forms are substituted. Keys cfg does not declare are
// rejected.
func FromFile(filePath string, cfg interface{}) error {
	t, err := template.New(filePath).Option("missingkey=zero").ParseFiles(filePath)
	if err != nil {
		return err
	}
	rendered := &strings.Builder{}
	if err := t.ExecuteTemplate(rendered, templateName(filePath), environ()); err != nil {
		return err
	}

	content := os.ExpandEnv(rendered.String())
	if err := yaml.UnmarshalStrict([]byte(content), cfg); err != nil {
		return fmt.Errorf("parse %s: %w", filePath, err)
	}
	return nil
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, pair := range os.Environ() {
		key, value, _ := strings.Cut(pair, "=")
		env[key] = value
	}
	return env
}

// templateName is the name ParseFiles gives the template of filePath.
func templateName(filePath string) string {
	if i := strings.LastIndexAny(filePath, `/\`); i >= 0 {
		return filePath[i+1:]
	}
	return filePath
}
