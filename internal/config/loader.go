package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"

	"github.com/stensonb/cloud-agent/internal/brand"
)

// Environment variable suffixes; the prefix comes from brand.ConfigEnvPrefix.
const (
	envContext  = "_CONTEXT"
	envLogLevel = "_LOG_LEVEL"
	envState    = "_STATE"
)

// evalContext exposes the directory variables to string expressions.
func evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"state_dir":  cty.StringVal(brand.GetStateDir()),
			"config_dir": cty.StringVal(brand.GetConfigDir()),
		},
	}
}

// LoadFile reads the configuration at path. A missing file is not an
// error: the defaults are returned instead. Environment overrides are
// applied, but the result is not validated; callers layer their own
// overrides first and then call Validate.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		cfg := Default()
		cfg.applyEnv()
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return LoadHCL(data, path)
}

// LoadHCL decodes configuration from HCL bytes and applies defaults and
// environment overrides. It does not validate.
func LoadHCL(data []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("HCL parse error: %s", diags.Error())
	}

	var cfg Config
	if diags := gohcl.DecodeBody(file.Body, evalContext(), &cfg); diags.HasErrors() {
		return nil, fmt.Errorf("HCL decode error: %s", diags.Error())
	}

	cfg.applyDefaults()
	cfg.applyEnv()
	return &cfg, nil
}

// applyEnv lets the environment override the file.
func (c *Config) applyEnv() {
	prefix := brand.ConfigEnvPrefix
	if v := os.Getenv(prefix + envContext); v != "" {
		c.ContextPath = v
	}
	if v := os.Getenv(prefix + envLogLevel); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv(prefix + envState); v != "" {
		c.StatePath = v
	}
}

// GenerateHCL renders the configuration back to HCL.
func GenerateHCL(cfg *Config) []byte {
	f := hclwrite.NewEmptyFile()
	gohcl.EncodeIntoBody(cfg, f.Body())
	return f.Bytes()
}
