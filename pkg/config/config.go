package config

import (
	"strings"

	"modernc.org/libqbe"
	"tlog.app/go/errors"
)

type Feature int

const (
	FeatNewlineTerminated Feature = iota
	FeatComments
	FeatBlocks
	FeatCount
)

type Warning int

const (
	WarnShadow Warning = iota
	WarnUnused
	WarnUnreachableCode
	WarnExitRange
	WarnCount
)

type Info struct {
	Name        string
	Enabled     bool
	Description string
}

const (
	BackendNASM = "nasm"
	BackendQBE  = "qbe"
)

type Config struct {
	Features       map[Feature]Info
	Warnings       map[Warning]Info
	FeatureMap     map[string]Feature
	WarningMap     map[string]Warning
	StdName        string
	BackendName    string
	BackendTarget  string
	TargetOS       string
	TargetArch     string
	WordSize       int
	StackAlignment int
}

func NewConfig() *Config {
	cfg := &Config{
		FeatureMap:     make(map[string]Feature),
		WarningMap:     make(map[string]Warning),
		StdName:        "pnx",
		BackendName:    BackendNASM,
		TargetOS:       "linux",
		TargetArch:     "amd64",
		WordSize:       8,
		StackAlignment: 16,
	}

	features := map[Feature]Info{
		FeatNewlineTerminated: {"newline-terminated", true, "Statements end at a newline or end of input."},
		FeatComments:          {"comments", true, "Recognize '//' line comments."},
		FeatBlocks:            {"blocks", true, "Allow '{ ... }' blocks that open a nested scope."},
	}

	warnings := map[Warning]Info{
		WarnShadow:          {"shadow", true, "Warn when a declaration shadows a variable of an enclosing scope."},
		WarnUnused:          {"unused", true, "Warn about variables that are declared but never read."},
		WarnUnreachableCode: {"unreachable-code", true, "Warn about statements that follow an exit."},
		WarnExitRange:       {"exit-range", true, "Warn when an exit status literal does not fit in 8 bits."},
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

// SetTarget selects the backend. sel is "nasm", "qbe" or "qbe/<qbe target>";
// a bare "qbe" picks the libqbe default for goos/goarch.
func (c *Config) SetTarget(goos, goarch, sel string) error {
	backend, target, _ := strings.Cut(sel, "/")
	if backend == "" {
		backend = BackendNASM
	}

	c.TargetOS, c.TargetArch = goos, goarch

	switch backend {
	case BackendNASM:
		if target != "" && target != "amd64" {
			return errors.New("nasm backend only targets amd64, got %q", target)
		}
		c.BackendName, c.BackendTarget = BackendNASM, "amd64"
		c.TargetArch = "amd64"
		c.WordSize, c.StackAlignment = 8, 16
	case BackendQBE:
		if target == "" {
			target = libqbe.DefaultTarget(goos, goarch)
		}
		c.BackendName, c.BackendTarget = BackendQBE, target

		switch target {
		case "amd64_sysv", "amd64_apple", "arm64", "arm64_apple", "rv64":
			c.WordSize, c.StackAlignment = 8, 16
		default:
			return errors.New("unsupported qbe target %q", target)
		}
	default:
		return errors.New("unsupported backend %q (supported: nasm, qbe)", backend)
	}

	return nil
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

// ApplyStd switches every feature to the value the named standard defines.
// "pn" is the strict line-oriented surface; "pnx" adds comments and blocks.
func (c *Config) ApplyStd(stdName string) error {
	type stdSettings struct {
		feature  Feature
		pnValue  bool
		pnxValue bool
	}

	settings := []stdSettings{
		{FeatNewlineTerminated, true, true},
		{FeatComments, false, true},
		{FeatBlocks, false, true},
	}

	switch stdName {
	case "pn":
		for _, s := range settings {
			c.SetFeature(s.feature, s.pnValue)
		}
	case "pnx":
		for _, s := range settings {
			c.SetFeature(s.feature, s.pnxValue)
		}
	default:
		return errors.New("unsupported standard '%s'. Supported: 'pn', 'pnx'", stdName)
	}

	c.StdName = stdName
	return nil
}

// ApplyFeatures applies a comma or space separated list such as
// "comments,no-blocks".
func (c *Config) ApplyFeatures(list string) error {
	for _, name := range splitList(list) {
		if err := c.applyFlag(name, false); err != nil {
			return err
		}
	}
	return nil
}

// ApplyWarnings is ApplyFeatures for warnings; "all" and "no-all" toggle every warning.
func (c *Config) ApplyWarnings(list string) error {
	for _, name := range splitList(list) {
		if err := c.applyFlag(name, true); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) applyFlag(flag string, isWarning bool) error {
	name := strings.TrimLeft(flag, "-")
	if isWarning {
		name = strings.TrimPrefix(name, "W")
	} else {
		name = strings.TrimPrefix(name, "F")
	}

	enable := true
	if rest, ok := strings.CutPrefix(name, "no-"); ok {
		name, enable = rest, false
	}

	if isWarning && name == "all" {
		for i := Warning(0); i < WarnCount; i++ {
			c.SetWarning(i, enable)
		}
		return nil
	}

	if isWarning {
		w, ok := c.WarningMap[name]
		if !ok {
			return errors.New("unknown warning '%s'", name)
		}
		c.SetWarning(w, enable)
		return nil
	}

	f, ok := c.FeatureMap[name]
	if !ok {
		return errors.New("unknown feature '%s'", name)
	}
	c.SetFeature(f, enable)
	return nil
}

func splitList(list string) []string {
	return strings.FieldsFunc(list, func(r rune) bool { return r == ',' || r == ' ' })
}
