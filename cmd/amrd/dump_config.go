package cmd

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/amrlabs/amrd/config"
)

// dumpConfigYAML prints the resolved config as YAML. Secrets are redacted.
func dumpConfigYAML(cfg *config.Config) {
	redacted := *cfg
	if redacted.Auth.Secret != "" {
		redacted.Auth.Secret = "***"
	}

	out, err := yaml.Marshal(&redacted)
	if err != nil {
		log.Fatalf("Error dumping config: %s", err)
	}
	fmt.Print(string(out))
}
