package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"

	"github.com/danielolaszy/triage/internal/mapping"
	"github.com/danielolaszy/triage/pkg/models"
)

var mappingsCmd = &cobra.Command{
	Use:   "mappings",
	Short: "Manage label to agent mappings",
	Long: `Manage the label mappings that route labeled issues to agents.

Built-in mappings cover common labels such as 'bug' or 'documentation'.
Custom mappings are loaded from a JSON or YAML file with --mappings and
override the built-in mapping for the same label.`,
}

var mappingsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the mappings in force",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cmd, cfg, nil)
		if err != nil {
			return err
		}
		customOnly, _ := cmd.Flags().GetBool("custom")
		return listMappings(cmd.OutOrStdout(), service.Registry(), customOnly)
	},
}

var mappingsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export mappings as JSON",
	Long: `Export the custom mappings (or, with --all, every mapping in force) as a JSON
array that 'mappings import' and --mappings accept.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cmd, cfg, nil)
		if err != nil {
			return err
		}
		all, _ := cmd.Flags().GetBool("all")
		data, err := exportMappings(service.Registry(), all)
		if err != nil {
			return err
		}
		output, _ := cmd.Flags().GetString("output")
		return writeOutput(cmd.OutOrStdout(), output, data)
	},
}

var mappingsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import mappings and write them back as normalized JSON",
	Long: `Import a JSON or YAML mapping file. Every entry is checked against the mapping
schema; valid entries are kept and invalid ones reported. The accepted set is
written as JSON to --output (or stdout) ready for --mappings.

Example:
  triage mappings import team-routes.yaml -o mappings.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cmd, cfg, nil)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read mappings file: %w", err)
		}
		output, _ := cmd.Flags().GetString("output")
		return runImport(cmd.OutOrStdout(), cmd.ErrOrStderr(), service.Registry(), args[0], data, output)
	},
}

var mappingsValidateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Check a mapping file against the agent directory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		service, err := newService(cmd, cfg, nil)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read mappings file: %w", err)
		}
		mappings, err := decodeMappings(args[0], data)
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		result := service.Registry().Validate(ctx, mappings, service.AgentDir(""))
		return reportValidation(cmd.OutOrStdout(), args[0], len(mappings), result)
	},
}

func init() {
	rootCmd.AddCommand(mappingsCmd)
	mappingsCmd.AddCommand(mappingsListCmd, mappingsExportCmd, mappingsImportCmd, mappingsValidateCmd)

	mappingsListCmd.Flags().Bool("custom", false, "Only list custom mappings")
	mappingsExportCmd.Flags().Bool("all", false, "Include built-in mappings")
	mappingsExportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	mappingsImportCmd.Flags().StringP("output", "o", "", "Write the accepted mappings to a file instead of stdout")
}

func listMappings(w io.Writer, registry *mapping.Registry, customOnly bool) error {
	custom := make(map[string]bool)
	for _, m := range registry.CustomMappings() {
		custom[strings.ToLower(m.Label)] = true
	}

	mappings := registry.EffectiveMappings()
	if customOnly {
		mappings = registry.CustomMappings()
	}
	if len(mappings) == 0 {
		fmt.Fprintln(w, "No mappings.")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LABEL\tAGENTS\tPRIORITY\tSOURCE")
	for _, m := range mappings {
		source := "built-in"
		if custom[strings.ToLower(m.Label)] {
			source = "custom"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", m.Label, strings.Join(m.Agents, ", "), m.Priority, source)
	}
	return tw.Flush()
}

func exportMappings(registry *mapping.Registry, all bool) ([]byte, error) {
	if !all {
		return registry.Export()
	}
	data, err := json.MarshalIndent(registry.EffectiveMappings(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling mappings: %w", err)
	}
	return data, nil
}

func runImport(w, errW io.Writer, registry *mapping.Registry, file string, data []byte, output string) error {
	result := importMappings(registry, file, data)
	if !result.Success {
		return fmt.Errorf("failed to import %s: %s", file, result.Error)
	}

	for _, e := range result.Errors {
		fmt.Fprintf(errW, "rejected %s\n", e)
	}
	fmt.Fprintf(errW, "Imported %d mappings, rejected %d\n", result.Imported, result.Rejected)

	exported, err := registry.Export()
	if err != nil {
		return err
	}
	return writeOutput(w, output, exported)
}

// decodeMappings reads a mapping file without applying the import schema so
// that validate can report every problem at once.
func decodeMappings(file string, data []byte) ([]models.LabelMapping, error) {
	var mappings []models.LabelMapping
	var err error
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &mappings)
	default:
		err = json.Unmarshal(data, &mappings)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", file, err)
	}
	return mappings, nil
}

func reportValidation(w io.Writer, file string, count int, result mapping.ValidationResult) error {
	if result.Valid {
		fmt.Fprintf(w, "%s: %d mappings are valid\n", file, count)
		return nil
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "- %s\n", e)
	}
	return fmt.Errorf("%s: %d problems found", file, len(result.Errors))
}

func writeOutput(w io.Writer, output string, data []byte) error {
	if output == "" {
		_, err := fmt.Fprintln(w, string(data))
		return err
	}
	if err := os.WriteFile(output, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", output, err)
	}
	return nil
}
