// File: internal/config/dotenv.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// LoadDotEnv reads a dotenv file and exports every key that is not already set
// in the process environment. A missing file is not an error. It returns the
// keys it exported.
func LoadDotEnv(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("could not stat env file '%s': %w", path, err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading env file '%s': %w", path, err)
	}

	var exported []string
	for _, key := range v.AllKeys() {
		// viper lower-cases keys; environment variables are conventionally upper case.
		name := strings.ToUpper(key)
		if _, present := os.LookupEnv(name); present {
			continue
		}
		if err := os.Setenv(name, v.GetString(key)); err != nil {
			return exported, fmt.Errorf("could not export %s: %w", name, err)
		}
		exported = append(exported, name)
	}
	return exported, nil
}
