package main

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"sealscan/internal/issue"
	"sealscan/internal/module"
	"sealscan/internal/scanner"
)

// errIssuesFound makes the process exit with status 1 without printing.
var errIssuesFound = errors.New("issues found")

var analyzeCommand = &cobra.Command{
	Use:   "analyze [model...]",
	Short: "analyze program models",
	Long:  `Analyze program models (YAML or JSON) written by a front end. Exits with status 1 when issues are found.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return analyzeExec(cmd.Context(), cmd.OutOrStdout(), append(append([]string(nil), ModelFiles...), args...))
	},
}

var (
	ModelFiles []string
)

func init() {
	flags := analyzeCommand.Flags()
	flags.StringArrayVar(&ModelFiles, "file", nil, "model file or directory (can be repeated)")
	flags.StringArray(enableFlagName, nil, "run only these categories (can be repeated)")
	bindFlagToConfig(flags.Lookup(enableFlagName), enableConfigKey)
	flags.StringArray(disableFlagName, nil, "skip these categories (can be repeated)")
	bindFlagToConfig(flags.Lookup(disableFlagName), disableConfigKey)
	flags.Int(parallelFlagName, defaultParallel, "functions analyzed concurrently, 0 for one per CPU")
	bindFlagToConfig(flags.Lookup(parallelFlagName), parallelConfigKey)
	flags.String(formatFlagName, defaultFormat, "output format: text, table or yaml")
	bindFlagToConfig(flags.Lookup(formatFlagName), formatConfigKey)
}

func analyzeExec(ctx context.Context, w io.Writer, files []string) error {
	if len(files) == 0 {
		return errors.New("no model given, use --file")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	loader := scanner.NewLoader()
	if err := loader.LoadFromModels(files); err != nil {
		return errors.Wrap(err, "LoadFromModels")
	}
	moduleManager, err := newModuleManager(viper.GetStringSlice(enableConfigKey), viper.GetStringSlice(disableConfigKey))
	if err != nil {
		return err
	}
	analyzer := scanner.NewAnalyzer(moduleManager, loader, viper.GetInt(parallelConfigKey))
	issues, err := analyzer.Run(ctx)
	if err != nil {
		return err
	}
	if err := writeIssues(w, issues, viper.GetString(formatConfigKey)); err != nil {
		return err
	}
	if len(issues) > 0 {
		return errIssuesFound
	}
	return nil
}

func newModuleManager(enable, disable []string) (*module.ModuleManager, error) {
	moduleManager := module.DefaultModuleManager()
	if len(enable) > 0 {
		if err := moduleManager.Only(enable...); err != nil {
			return nil, errors.Wrap(err, "enable")
		}
	}
	if err := moduleManager.Disable(disable...); err != nil {
		return nil, errors.Wrap(err, "disable")
	}
	for _, dm := range moduleManager.Modules() {
		log.Debugf("category %s enabled", dm.GetCategoryData().ID)
	}
	return moduleManager, nil
}

func writeIssues(w io.Writer, issues []*issue.Issue, format string) error {
	switch format {
	case "", "text":
		for _, is := range issues {
			fmt.Fprintln(w, is)
		}
		fmt.Fprintf(w, "%d issues found\n", len(issues))
	case "table":
		issue.WriteTable(w, issues)
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(issues); err != nil {
			return errors.Wrap(err, "Encode")
		}
		return encoder.Close()
	default:
		return errors.Errorf("unknown format %q", format)
	}
	return nil
}
