package config

import (
	"fmt"
	"strings"

	"github.com/xplshn/pasfe/pkg/cli"
)

type Feature int

const (
	FeatTree Feature = iota
	FeatColor
	FeatStrictFor
	FeatCount
)

type Warning int

const (
	WarnUnused Warning = iota
	WarnFloatFor
	WarnPedantic
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

type Config struct {
	Features     map[Feature]Info
	Warnings     map[Warning]Info
	FeatureMap   map[string]Feature
	WarningMap   map[string]Warning
	StdName      string
	StatesPath   string
	InitialState string
	Sentinel     rune
}

func NewConfig() *Config {
	cfg := &Config{
		Features:     make(map[Feature]Info),
		Warnings:     make(map[Warning]Info),
		FeatureMap:   make(map[string]Feature),
		WarningMap:   make(map[string]Warning),
		StdName:      "classic",
		InitialState: "IN",
		Sentinel:     '@',
	}

	features := map[Feature]Info{
		FeatTree:      {"tree", false, "Print the syntax tree of every program that compiles."},
		FeatColor:     {"color", true, "Colorize diagnostics when the output is a terminal."},
		FeatStrictFor: {"strict-for", false, "Require the bound of a 'for' loop to be of type int."},
	}

	warnings := map[Warning]Info{
		WarnUnused:   {"unused", true, "Warn about variables that are declared but never read."},
		WarnFloatFor: {"float-for", false, "Warn when the bound of a 'for' loop is of type float."},
		WarnPedantic: {"pedantic", false, "Issue all warnings demanded by the strict standard."},
	}

	cfg.Features, cfg.Warnings = features, warnings
	for ft, info := range features {
		cfg.FeatureMap[info.Name] = ft
	}
	for wt, info := range warnings {
		cfg.WarningMap[info.Name] = wt
	}

	return cfg
}

func (c *Config) SetFeature(ft Feature, enabled bool) {
	if info, ok := c.Features[ft]; ok {
		info.Enabled = enabled
		c.Features[ft] = info
	}
}

func (c *Config) IsFeatureEnabled(ft Feature) bool { return c.Features[ft].Enabled }

func (c *Config) SetWarning(wt Warning, enabled bool) {
	if info, ok := c.Warnings[wt]; ok {
		info.Enabled = enabled
		c.Warnings[wt] = info
	}
}

func (c *Config) IsWarningEnabled(wt Warning) bool { return c.Warnings[wt].Enabled }

// ApplyStd selects a language dialect. "classic" accepts any non-bool 'for'
// bound, "strict" narrows it to int.
func (c *Config) ApplyStd(stdName string) error {
	isPedantic := c.IsWarningEnabled(WarnPedantic)

	switch stdName {
	case "classic":
		c.SetFeature(FeatStrictFor, false)
		c.SetWarning(WarnFloatFor, isPedantic)
	case "strict":
		c.SetFeature(FeatStrictFor, true)
		c.SetWarning(WarnUnused, true)
		c.SetWarning(WarnFloatFor, true)
	default:
		return fmt.Errorf("unsupported standard '%s'. Supported: 'classic', 'strict'", stdName)
	}
	c.StdName = stdName
	return nil
}

func (c *Config) applyFlag(flag string) {
	trimmed := strings.TrimPrefix(flag, "-")
	isNo := strings.HasPrefix(trimmed, "Wno-") || strings.HasPrefix(trimmed, "Fno-")
	enable := !isNo

	var name string
	var isWarning bool

	switch {
	case strings.HasPrefix(trimmed, "W"):
		name = strings.TrimPrefix(trimmed, "W")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
		isWarning = true
	case strings.HasPrefix(trimmed, "F"):
		name = strings.TrimPrefix(trimmed, "F")
		if isNo {
			name = strings.TrimPrefix(name, "no-")
		}
	default:
		name = trimmed
		isWarning = true
	}

	if name == "all" && isWarning {
		for i := Warning(0); i < WarnCount; i++ {
			if i != WarnPedantic {
				c.SetWarning(i, enable)
			}
		}
		return
	}

	if name == "pedantic" && isWarning && enable {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, true)
		}
		return
	}

	if isWarning {
		if w, ok := c.WarningMap[name]; ok {
			c.SetWarning(w, enable)
		}
	} else {
		if f, ok := c.FeatureMap[name]; ok {
			c.SetFeature(f, enable)
		}
	}
}

// ProcessFlags applies the -W/-F flags the visitor yields. Group flags
// (Wall, Wno-all, pedantic) go first so single flags can override them.
func (c *Config) ProcessFlags(visitFlag func(fn func(name string))) {
	visitFlag(func(name string) {
		if name == "Wall" || name == "Wno-all" || name == "pedantic" {
			c.applyFlag("-" + name)
		}
	})
	visitFlag(func(name string) {
		if name != "Wall" && name != "Wno-all" && name != "pedantic" {
			c.applyFlag("-" + name)
		}
	})
}

// ProcessEnvFlags applies a whitespace separated list of flags, as found in
// the PASFE_FLAGS environment variable.
func (c *Config) ProcessEnvFlags(flagStr string) {
	for _, flag := range strings.Fields(flagStr) {
		c.applyFlag(flag)
	}
}

// SetupFlagGroups registers the -W and -F flag groups on fs. The returned
// entries are handed back to ApplyFlagGroups once fs has been parsed.
func (c *Config) SetupFlagGroups(fs *cli.FlagSet) (warnings, features []cli.FlagGroupEntry) {
	warnings = append(warnings, cli.FlagGroupEntry{
		Name: "all", Prefix: "W", Usage: "Enable most warnings.", Enabled: new(bool), Disabled: new(bool),
	})
	for i := Warning(0); i < WarnCount; i++ {
		info := c.Warnings[i]
		warnings = append(warnings, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "W", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		})
	}
	for i := Feature(0); i < FeatCount; i++ {
		info := c.Features[i]
		features = append(features, cli.FlagGroupEntry{
			Name: info.Name, Prefix: "F", Usage: info.Description, Default: info.Enabled,
			Enabled: new(bool), Disabled: new(bool),
		})
	}

	fs.AddFlagGroup("Warning Flags", "", "warning", "Available Warning Flags:", warnings)
	fs.AddFlagGroup("Feature Flags", "", "feature", "Available Features:", features)
	return warnings, features
}

// ApplyFlagGroups applies the group flags set on the command line.
func (c *Config) ApplyFlagGroups(entries ...[]cli.FlagGroupEntry) {
	c.ProcessFlags(func(fn func(name string)) {
		for _, group := range entries {
			for _, e := range group {
				if e.Enabled != nil && *e.Enabled {
					if e.Prefix == "W" && e.Name == "pedantic" {
						fn("pedantic")
					} else {
						fn(e.Prefix + e.Name)
					}
				}
				if e.Disabled != nil && *e.Disabled {
					fn(e.Prefix + "no-" + e.Name)
				}
			}
		}
	})
}
