// Copyright 2025 EHRI
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// 🔌 Parser is the interface for parameter file parsers
type Parser interface {
	// 📝 Parse parses the parameters from bytes
	Parse(ctx context.Context, data []byte) (*Parameters, error)

	// 🔍 CanParse checks if this parser can handle the given file
	CanParse(filename string) bool
}

var (
	// 🗺️ parsers is a list of available parsers
	parsers []Parser
)

// 📝 Register registers a parser
func Register(p Parser) {
	parsers = append(parsers, p)
}

// 🎯 GetParser returns a parser that can handle the given file
func GetParser(filename string) Parser {
	for _, p := range parsers {
		if p.CanParse(filename) {
			return p
		}
	}
	return nil
}

// 🧭 Strategy selects how a run turns observed changes into documents
type Strategy string

const (
	// StrategyResourceList publishes a complete new snapshot every run.
	StrategyResourceList Strategy = "resourcelist"
	// StrategyNewChangeList starts a new change log every run.
	StrategyNewChangeList Strategy = "new_changelist"
	// StrategyIncChangeList keeps appending to the current change log.
	StrategyIncChangeList Strategy = "inc_changelist"
)

// ParseStrategy converts a configuration string into a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyResourceList, StrategyNewChangeList, StrategyIncChangeList:
		return Strategy(s), nil
	}
	return "", errors.Errorf("unknown strategy: %q", s)
}

// 📚 Parameters holds the complete configuration of a publication
type Parameters struct {
	ResourceDir    string   `json:"resource_dir" yaml:"resource_dir" hcl:"resource_dir"`
	MetadataDir    string   `json:"metadata_dir,omitempty" yaml:"metadata_dir,omitempty" hcl:"metadata_dir,optional"`
	DescriptionDir string   `json:"description_dir,omitempty" yaml:"description_dir,omitempty" hcl:"description_dir,optional"`
	PluginDir      string   `json:"plugin_dir,omitempty" yaml:"plugin_dir,omitempty" hcl:"plugin_dir,optional"`
	URLPrefix      string   `json:"url_prefix" yaml:"url_prefix" hcl:"url_prefix"`
	Strategy       Strategy `json:"strategy,omitempty" yaml:"strategy,omitempty" hcl:"strategy,optional"`
	MaxItemsInList int      `json:"max_items_in_list,omitempty" yaml:"max_items_in_list,omitempty" hcl:"max_items_in_list,optional"`
	ZeroFillName   int      `json:"zero_fill_filename,omitempty" yaml:"zero_fill_filename,omitempty" hcl:"zero_fill_filename,optional"`
	ExcludeGlobs   []string `json:"exclude_patterns,omitempty" yaml:"exclude_patterns,omitempty" hcl:"exclude_patterns,optional"`
	DryRun         bool     `json:"dry_run,omitempty" yaml:"dry_run,omitempty" hcl:"dry_run,optional"`
}

// Capacity bounds of a single document and of the ordinal zero fill.
const (
	MaxItemsLowerLimit = 1
	MaxItemsUpperLimit = 50000
	ZeroFillLowerLimit = 1
	ZeroFillUpperLimit = 10

	defaultMetadataDir  = "metadata"
	defaultMaxItems     = 50000
	defaultZeroFillName = 4
)

// 🎯 Load loads the parameters from a file
func Load(ctx context.Context, path string) (*Parameters, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading parameters")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading parameters file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("no parser found for file: %s", path)
	}

	paras, err := p.Parse(ctx, data)
	if err != nil {
		return nil, errors.Errorf("parsing parameters: %w", err)
	}

	if err := paras.Validate(); err != nil {
		return nil, errors.Errorf("validating parameters: %w", err)
	}

	return paras, nil
}

// 🔍 Validate checks the parameters, applies defaults and normalizes
// paths. Invalid parameters never enter a run.
func (p *Parameters) Validate() error {
	if p.ResourceDir == "" {
		return errors.New("resource_dir is required")
	}
	abs, err := filepath.Abs(p.ResourceDir)
	if err != nil {
		return errors.Errorf("resolving resource_dir: %w", err)
	}
	p.ResourceDir = abs

	if p.MetadataDir == "" {
		p.MetadataDir = defaultMetadataDir
	}
	if filepath.IsAbs(p.MetadataDir) {
		return errors.Errorf("metadata_dir must be relative to resource_dir: %s", p.MetadataDir)
	}
	p.MetadataDir = filepath.Clean(p.MetadataDir)

	if p.DescriptionDir != "" {
		if p.DescriptionDir, err = filepath.Abs(p.DescriptionDir); err != nil {
			return errors.Errorf("resolving description_dir: %w", err)
		}
	}
	if p.PluginDir != "" {
		if p.PluginDir, err = filepath.Abs(p.PluginDir); err != nil {
			return errors.Errorf("resolving plugin_dir: %w", err)
		}
	}

	if err := p.validateURLPrefix(); err != nil {
		return err
	}

	if p.Strategy == "" {
		p.Strategy = StrategyResourceList
	}
	if _, err := ParseStrategy(string(p.Strategy)); err != nil {
		return err
	}

	if p.MaxItemsInList == 0 {
		p.MaxItemsInList = defaultMaxItems
	}
	if p.MaxItemsInList < MaxItemsLowerLimit || p.MaxItemsInList > MaxItemsUpperLimit {
		return errors.Errorf("max_items_in_list not in range %d..%d: %d",
			MaxItemsLowerLimit, MaxItemsUpperLimit, p.MaxItemsInList)
	}

	if p.ZeroFillName == 0 {
		p.ZeroFillName = defaultZeroFillName
	}
	if p.ZeroFillName < ZeroFillLowerLimit || p.ZeroFillName > ZeroFillUpperLimit {
		return errors.Errorf("zero_fill_filename not in range %d..%d: %d",
			ZeroFillLowerLimit, ZeroFillUpperLimit, p.ZeroFillName)
	}

	for _, pattern := range p.ExcludeGlobs {
		if !doublestar.ValidatePattern(pattern) {
			return errors.Errorf("invalid exclude pattern: %q", pattern)
		}
	}

	return nil
}

func (p *Parameters) validateURLPrefix() error {
	if p.URLPrefix == "" {
		return errors.New("url_prefix is required")
	}

	u, err := url.Parse(p.URLPrefix)
	if err != nil {
		return errors.Errorf("parsing url_prefix: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.Errorf("url_prefix scheme must be http or https: %s", p.URLPrefix)
	}
	if u.Host == "" {
		return errors.Errorf("url_prefix must have a host: %s", p.URLPrefix)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return errors.Errorf("url_prefix must not have a query or fragment: %s", p.URLPrefix)
	}

	if !strings.HasSuffix(p.URLPrefix, "/") {
		p.URLPrefix += "/"
	}
	return nil
}

// 📝 String returns a short description of the configuration
func (p *Parameters) String() string {
	return fmt.Sprintf("%s [%s] -> %s", p.ResourceDir, p.Strategy, p.URLPrefix)
}

// 🔧 YAMLParser implements the Parser interface for YAML files
type YAMLParser struct{}

func init() {
	Register(&YAMLParser{})
}

func (p *YAMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml")
}

func (p *YAMLParser) Parse(ctx context.Context, data []byte) (*Parameters, error) {
	var paras Parameters
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&paras); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}

	if err := paras.Validate(); err != nil {
		return nil, errors.Errorf("validating parameters: %w", err)
	}

	return &paras, nil
}

// 🔧 JSONParser implements the Parser interface for JSON files
type JSONParser struct{}

func init() {
	Register(&JSONParser{})
}

func (p *JSONParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".json")
}

func (p *JSONParser) Parse(ctx context.Context, data []byte) (*Parameters, error) {
	var paras Parameters
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&paras); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}

	if err := paras.Validate(); err != nil {
		return nil, errors.Errorf("validating parameters: %w", err)
	}

	return &paras, nil
}

// 🔧 HCLParser implements the Parser interface for HCL files
type HCLParser struct{}

func init() {
	Register(&HCLParser{})
}

func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(filename, ".hcl")
}

func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Parameters, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "parameters.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var paras Parameters
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &paras)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	if err := paras.Validate(); err != nil {
		return nil, errors.Errorf("validating parameters: %w", err)
	}

	return &paras, nil
}
