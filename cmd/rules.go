package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"sealscan/internal/issue"
	"sealscan/internal/module"
)

var rulesCommand = &cobra.Command{
	Use:   "rules",
	Short: "list the categories and their rules",
	Long:  ``,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return printRules(cmd.OutOrStdout(), RulesFormat)
	},
}

var (
	RulesFormat string
)

func init() {
	rulesCommand.Flags().StringVar(&RulesFormat, formatFlagName, defaultFormat, "output format: text or yaml")
}

type ruleDoc struct {
	ID          string          `yaml:"id"`
	Title       string          `yaml:"title"`
	Severity    issue.Severity  `yaml:"severity"`
	Coverage    module.Coverage `yaml:"coverage"`
	Description string          `yaml:"description"`
	Sinks       []string        `yaml:"sinks,omitempty"`
	Guards      []string        `yaml:"guards,omitempty"`
	Exemptions  []string        `yaml:"exemptions,omitempty"`
}

func ruleDocs() []ruleDoc {
	var docs []ruleDoc
	for _, dm := range module.DefaultModuleManager().All() {
		data, rule := dm.GetCategoryData(), dm.GetRule()
		doc := ruleDoc{
			ID:          data.ID,
			Title:       data.Title,
			Severity:    data.Severity,
			Coverage:    rule.Coverage,
			Description: data.Description,
		}
		for _, p := range rule.Sinks {
			doc.Sinks = append(doc.Sinks, p.String())
		}
		for _, p := range rule.Guards {
			doc.Guards = append(doc.Guards, p.String())
		}
		for _, p := range rule.Exemptions {
			doc.Exemptions = append(doc.Exemptions, p.String())
		}
		docs = append(docs, doc)
	}
	return docs
}

func printRules(w io.Writer, format string) error {
	docs := ruleDocs()
	switch format {
	case "", "text":
		for _, doc := range docs {
			fmt.Fprintf(w, "\033[36m%-36s\033[0m %s (%s)\n", doc.ID, doc.Title, doc.Coverage)
			for _, s := range doc.Sinks {
				fmt.Fprintf(w, "    sink    %s\n", s)
			}
			for _, g := range doc.Guards {
				fmt.Fprintf(w, "    guard   %s\n", g)
			}
			for _, e := range doc.Exemptions {
				fmt.Fprintf(w, "    exempt  %s\n", e)
			}
		}
	case "yaml":
		encoder := yaml.NewEncoder(w)
		encoder.SetIndent(2)
		if err := encoder.Encode(docs); err != nil {
			return errors.Wrap(err, "Encode")
		}
		return encoder.Close()
	default:
		return errors.Errorf("unknown format %q", format)
	}
	return nil
}
