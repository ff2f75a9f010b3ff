package utils

import (
	"fmt"
	"reflect"

	"github.com/Fantom-foundation/contract-runtime/logger"
	"github.com/urfave/cli/v2"
)

// createConfigFromFlags returns Config instance with user specified values or the default ones
func createConfigFromFlags(ctx *cli.Context) (*Config, map[string]bool, error) {
	cfg := &Config{
		AppName:     ctx.App.HelpName,
		CommandName: ctx.Command.Name,
	}

	// string of this map has to exactly match the name of the field in Config struct
	cfgFlags := map[string]interface{}{
		"BlocksFile":              BlocksFileFlag,
		"ChainName":               ChainNameFlag,
		"Era":                     EraFlag,
		"EraSeigniorage":          EraSeigniorageFlag,
		"GenesisFile":             GenesisFileFlag,
		"LogLevel":                logger.LogLevelFlag,
		"MetricsAddr":             MetricsAddrFlag,
		"ProgressReportFrequency": ProgressReportFrequencyFlag,
		"PublicKey":               PublicKeyFlag,
		"StateDbCacheSize":        StateDbCacheSizeFlag,
		"StateDbImpl":             StateDbImplementationFlag,
		"StateDbPath":             StateDbPathFlag,
		"StateRoot":               StateRootFlag,
		"TrackProgress":           TrackProgressFlag,
		"ValidatorSlots":          ValidatorSlotsFlag,
	}

	cfgValue := reflect.ValueOf(cfg).Elem()

	specifiedFlags := make(map[string]bool)

	for cfgName, flag := range cfgFlags {
		value, isSpecified, flagName := getFlagValue(ctx, flag)
		if isSpecified {
			specifiedFlags[flagName] = true
		}

		field := cfgValue.FieldByName(cfgName)
		if !field.IsValid() {
			return nil, nil, fmt.Errorf("field %s is not valid", flagName)
		}
		if !field.CanSet() {
			return nil, nil, fmt.Errorf("field %s cannot be set", flagName)
		}

		field.Set(reflect.ValueOf(value))
	}

	return cfg, specifiedFlags, nil
}

// getFlagValue returns value specified by user if flag is present in cli context, otherwise return default flag value
func getFlagValue(ctx *cli.Context, flag interface{}) (interface{}, bool, string) {
	for _, cmdFlag := range ctx.Command.Flags {
		name := cmdFlag.Names()[0]
		switch f := flag.(type) {
		case cli.IntFlag:
			if name == f.Name {
				return ctx.Int(f.Name), true, f.Name
			}
		case cli.Uint64Flag:
			if name == f.Name {
				return ctx.Uint64(f.Name), true, f.Name
			}
		case cli.StringFlag:
			if name == f.Name {
				return ctx.String(f.Name), true, f.Name
			}
		case cli.PathFlag:
			if name == f.Name {
				return ctx.Path(f.Name), true, f.Name
			}
		case cli.BoolFlag:
			if name == f.Name {
				return ctx.Bool(f.Name), true, f.Name
			}
		}
	}

	// If flag not found, return the default value of the flag and false
	switch f := flag.(type) {
	case cli.IntFlag:
		return f.Value, false, f.Name
	case cli.Uint64Flag:
		return f.Value, false, f.Name
	case cli.StringFlag:
		return f.Value, false, f.Name
	case cli.PathFlag:
		return f.Value, false, f.Name
	case cli.BoolFlag:
		return f.Value, false, f.Name
	}
	return nil, false, ""
}
