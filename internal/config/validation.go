package config

import (
	"errors"
	"fmt"
	"strings"

	"csvrows/internal/transform"

	"github.com/Knetic/govaluate"
)

var (
	knownLogLevels        = []string{"none", "error", "warn", "warning", "info", "debug"}
	knownDestinationTypes = []string{DestinationTypeJSON, DestinationTypeYAML, DestinationTypeXLSX, DestinationTypePostgres}
	knownLoaderModes      = []string{"", LoaderModeSQL}
	knownDedupStrategies  = []string{DedupStrategyFirst, DedupStrategyLast, DedupStrategyMin, DedupStrategyMax}
)

// isValidEnumValue reports whether value is in allowedValues, ignoring case.
func isValidEnumValue(value string, allowedValues []string) bool {
	lowerValue := strings.ToLower(value)
	for _, allowed := range allowedValues {
		if lowerValue == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

// ValidateConfig checks the whole configuration and reports every problem found at once.
func ValidateConfig(cfg *Config) error {
	var allErrors []string

	if !isValidEnumValue(cfg.Logging.Level, knownLogLevels) {
		allErrors = append(allErrors, fmt.Sprintf("- Config.Logging.Level: invalid log level '%s', must be one of %v", cfg.Logging.Level, knownLogLevels))
	}

	if strings.TrimSpace(cfg.Source.File) == "" {
		allErrors = append(allErrors, "- Config.Source.File: is required")
	}

	if cfg.Filter != "" {
		if _, err := govaluate.NewEvaluableExpression(cfg.Filter); err != nil {
			allErrors = append(allErrors, fmt.Sprintf("- Config.Filter: invalid expression '%s': %v", cfg.Filter, err))
		}
	}

	targets := make(map[string]bool, len(cfg.Mappings))
	for i := range cfg.Mappings {
		prefix := fmt.Sprintf("Config.Mappings[%d]", i)
		allErrors = append(allErrors, validateMappingRule(prefix, &cfg.Mappings[i])...)
		targets[cfg.Mappings[i].Target] = true
	}

	if cfg.Dedup != nil {
		allErrors = append(allErrors, validateDedupConfig("Config.Dedup", cfg.Dedup, targets)...)
	}

	allErrors = append(allErrors, validateDestinationConfig("Config.Destination", &cfg.Destination)...)

	if len(allErrors) > 0 {
		return errors.New("configuration validation failed:\n" + strings.Join(allErrors, "\n"))
	}
	return nil
}

func validateMappingRule(prefix string, rule *MappingRule) []string {
	var errs []string
	if strings.TrimSpace(rule.Source) == "" {
		errs = append(errs, fmt.Sprintf("- %s.Source: is required", prefix))
	}
	if strings.TrimSpace(rule.Target) == "" {
		errs = append(errs, fmt.Sprintf("- %s.Target: is required", prefix))
	}
	if rule.Transform == "" {
		return errs
	}
	if !transform.Exists(rule.Transform) {
		errs = append(errs, fmt.Sprintf("- %s.Transform: unknown transform '%s', must be one of %v", prefix, rule.Transform, transform.Names()))
		return errs
	}
	for _, msg := range transform.CheckParams(rule.Transform, rule.Params) {
		errs = append(errs, fmt.Sprintf("- %s.Params.%s", prefix, msg))
	}
	return errs
}

// validateDedupConfig checks dedup keys and strategy; with mappings, keys and the
// strategy field must be mapping targets.
func validateDedupConfig(prefix string, cfg *DedupConfig, mappingTargets map[string]bool) []string {
	var errs []string
	if len(cfg.Keys) == 0 {
		errs = append(errs, fmt.Sprintf("- %s.Keys: at least one key is required", prefix))
	}
	for i, key := range cfg.Keys {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("- %s.Keys[%d]: must not be empty", prefix, i))
			continue
		}
		if len(mappingTargets) > 0 && !mappingTargets[key] {
			errs = append(errs, fmt.Sprintf("- %s.Keys[%d]: '%s' is not a mapping target", prefix, i, key))
		}
	}
	if cfg.Strategy != "" && !isValidEnumValue(cfg.Strategy, knownDedupStrategies) {
		errs = append(errs, fmt.Sprintf("- %s.Strategy: invalid strategy '%s', must be one of %v", prefix, cfg.Strategy, knownDedupStrategies))
		return errs
	}
	if strings.EqualFold(cfg.Strategy, DedupStrategyMin) || strings.EqualFold(cfg.Strategy, DedupStrategyMax) {
		switch {
		case strings.TrimSpace(cfg.StrategyField) == "":
			errs = append(errs, fmt.Sprintf("- %s.StrategyField: is required when strategy is '%s'", prefix, cfg.Strategy))
		case len(mappingTargets) > 0 && !mappingTargets[cfg.StrategyField]:
			errs = append(errs, fmt.Sprintf("- %s.StrategyField: '%s' is not a mapping target", prefix, cfg.StrategyField))
		}
	}
	return errs
}

func validateDestinationConfig(prefix string, cfg *DestinationConfig) []string {
	var errs []string
	if !isValidEnumValue(cfg.Type, knownDestinationTypes) {
		errs = append(errs, fmt.Sprintf("- %s.Type: invalid type '%s', must be one of %v", prefix, cfg.Type, knownDestinationTypes))
		return errs
	}

	if strings.EqualFold(cfg.Type, DestinationTypePostgres) {
		if strings.TrimSpace(cfg.TargetTable) == "" {
			errs = append(errs, fmt.Sprintf("- %s.TargetTable: is required for type '%s'", prefix, cfg.Type))
		}
		if cfg.Loader != nil {
			errs = append(errs, validateLoaderConfig(prefix+".Loader", cfg.Loader)...)
		}
	} else {
		if strings.TrimSpace(cfg.File) == "" {
			errs = append(errs, fmt.Sprintf("- %s.File: is required for type '%s'", prefix, cfg.Type))
		}
		if cfg.Loader != nil {
			errs = append(errs, fmt.Sprintf("- %s.Loader: only applies to type '%s'", prefix, DestinationTypePostgres))
		}
	}

	if strings.EqualFold(cfg.Type, DestinationTypeXLSX) && len(cfg.SheetName) > 31 {
		errs = append(errs, fmt.Sprintf("- %s.SheetName: '%s' exceeds 31 characters", prefix, cfg.SheetName))
	}
	return errs
}

func validateLoaderConfig(prefix string, cfg *LoaderConfig) []string {
	var errs []string
	if !isValidEnumValue(cfg.Mode, knownLoaderModes) {
		errs = append(errs, fmt.Sprintf("- %s.Mode: invalid mode '%s', must be empty or '%s'", prefix, cfg.Mode, LoaderModeSQL))
		return errs
	}
	if strings.EqualFold(cfg.Mode, LoaderModeSQL) {
		if strings.TrimSpace(cfg.Command) == "" {
			errs = append(errs, fmt.Sprintf("- %s.Command: is required when mode is '%s'", prefix, LoaderModeSQL))
		}
	} else if len(cfg.Preload) > 0 || len(cfg.Postload) > 0 || cfg.Command != "" {
		errs = append(errs, fmt.Sprintf("- %s: command, preload and postload require mode '%s'", prefix, LoaderModeSQL))
	}
	return errs
}
