package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/halcyondocs/docmerge/pkg/docmerge"
	"github.com/halcyondocs/docmerge/pkg/docmerge/dom"
)

var (
	mergeOut   string
	mergeTypes string
)

var mergeCmd = &cobra.Command{
	Use:   "merge <document.json> <data.yaml>",
	Short: "Merge a data file into a document template",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return RunMerge(cmd.OutOrStdout(), cmd.ErrOrStderr(), args[0], args[1], mergeOut, mergeTypes)
	},
}

func init() {
	mergeCmd.Flags().StringVarP(&mergeOut, "out", "o", "", "output file (default stdout)")
	mergeCmd.Flags().StringVarP(&mergeTypes, "types", "t", "", "YAML file mapping field paths to formats")
	rootCmd.AddCommand(mergeCmd)
}

// mergeData is the on-disk shape of a data file. A file without any of
// the three sections is treated as a bare record.
type mergeData struct {
	Record  map[string]interface{} `yaml:"record"`
	System  map[string]interface{} `yaml:"system"`
	Sources map[string]interface{} `yaml:"sources"`
}

func RunMerge(w, ew io.Writer, docPath, dataPath, outPath, typesPath string) error {
	cfg, err := engineConfig()
	if err != nil {
		return err
	}
	docmerge.SetGlobalConfig(cfg)

	doc, err := readDocumentFile(docPath)
	if err != nil {
		return err
	}

	ctx, err := readDataFile(dataPath)
	if err != nil {
		return err
	}

	opts := []docmerge.Option{docmerge.WithConfig(cfg)}
	if typesPath != "" {
		types, err := readTypesFile(typesPath)
		if err != nil {
			return err
		}
		opts = append(opts, docmerge.WithTypes(types))
	}
	engine := docmerge.NewWithOptions(opts...)

	result, err := engine.Merge(doc, ctx)
	if err != nil {
		return fmt.Errorf("merging %s: %w", docPath, err)
	}
	for _, warning := range result.Warnings {
		fmt.Fprintln(ew, "warning:", warning.String())
	}

	out := w
	if outPath != "" {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("creating output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := dom.WriteDocument(out, doc); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func readDocumentFile(path string) (*dom.Node, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening document: %w", err)
	}
	defer f.Close()

	doc, err := dom.ReadDocument(f)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", path, err)
	}
	return doc, nil
}

func readDataFile(path string) (docmerge.Context, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening data file: %w", err)
	}

	var data mergeData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing data file %s: %w", path, err)
	}

	if data.Record == nil && data.System == nil && data.Sources == nil {
		var record map[string]interface{}
		if err := yaml.Unmarshal(raw, &record); err != nil {
			return nil, fmt.Errorf("parsing data file %s: %w", path, err)
		}
		return docmerge.NewContext(record, nil, nil), nil
	}

	return docmerge.NewContext(data.Record, data.System, data.Sources), nil
}

func readTypesFile(path string) (docmerge.TypeTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening types file: %w", err)
	}

	var types docmerge.TypeTable
	if err := yaml.Unmarshal(raw, &types); err != nil {
		return nil, fmt.Errorf("parsing types file %s: %w", path, err)
	}
	return types, nil
}
