// Command mddc compiles diagnostic description YAML files into the MDD
// binary container format.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/rs/zerolog"

	"github.com/diagkit/mddc/core/container"
	"github.com/diagkit/mddc/core/document"
	"github.com/diagkit/mddc/core/errors"
	"github.com/diagkit/mddc/core/transform"
	"github.com/diagkit/mddc/core/validate"
	"github.com/diagkit/mddc/internal/config"
	"github.com/diagkit/mddc/internal/logging"
)

const version = "1.0.0"

var logger zerolog.Logger

// CLI defines the command-line interface for mddc.
var CLI struct {
	// Global flags
	Config   string `help:"Path to mddc.toml config file" type:"path"`
	LogLevel string `name:"log-level" help:"Log level (debug, info, warn, error)"`

	Compile  CompileCmd  `cmd:"" help:"Compile a YAML diagnostic description to an MDD file"`
	Validate ValidateCmd `cmd:"" help:"Validate a YAML diagnostic description"`
	Inspect  InspectCmd  `cmd:"" help:"Display the structure of an MDD file"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// CompileCmd compiles a YAML diagnostic description into an MDD container.
type CompileCmd struct {
	Input       string `arg:"" help:"Input YAML/JSON file" type:"existingfile"`
	Out         string `short:"o" help:"Output MDD file path (defaults to input with .mdd extension)" type:"path"`
	Compression string `short:"c" help:"Chunk compression: none, gzip, or xz (defaults to the config value)"`
	Audience    string `short:"a" help:"Only include items visible to this audience (development, production, aftermarket, oem, or a custom name)"`
	Strict      bool   `help:"Treat validation warnings as errors"`
	Force       bool   `short:"f" help:"Overwrite the output file if it exists"`
	DryRun      bool   `name:"dry-run" help:"Run the full pipeline without writing the output file"`
}

func (c *CompileCmd) Run(cfg config.Config) error {
	compression := c.Compression
	if compression == "" {
		compression = cfg.Compression
	}
	strict := c.Strict || cfg.Strict

	out := c.Out
	if out == "" {
		out = replaceExt(c.Input, ".mdd")
	}
	if !c.Force && !c.DryRun {
		if _, err := os.Stat(out); err == nil {
			return fmt.Errorf("output file already exists: %s (use --force to overwrite)", out)
		}
	}

	doc, err := loadDocument(c.Input)
	if err != nil {
		return err
	}
	logger.Debug().Str("ecu", doc.Ecu.ID).Str("schema", doc.Schema).Msg("document loaded")

	if err := runValidation(doc, strict); err != nil {
		return err
	}

	if c.Audience != "" {
		filter := document.NewAudienceFilter(c.Audience, doc.Audience)
		var removed document.FilterSummary
		doc, removed = filter.Apply(doc)
		logger.Info().
			Str("audience", c.Audience).
			Int("dids", removed.DIDs).
			Int("routines", removed.Routines).
			Int("dtcs", removed.DTCs).
			Int("services", removed.Services).
			Int("types", removed.Types).
			Msg("audience filter applied")
	}

	db, err := transform.Transform(doc)
	if err != nil {
		return fmt.Errorf("transform failed: %w", err)
	}
	logger.Debug().
		Int("dops", len(db.DOPNames())).
		Int("services", len(db.ServiceNames())).
		Msg("transformed")

	writer, err := container.NewWriter(compression)
	if err != nil {
		return err
	}

	if c.DryRun {
		content, err := writer.WriteBytes(db)
		if err != nil {
			return fmt.Errorf("serialization failed: %w", err)
		}
		fmt.Printf("Would write %d bytes to %s\n", len(content), out)
		return nil
	}

	n, err := writer.Write(db, out)
	if err != nil {
		return fmt.Errorf("write failed: %w", err)
	}
	fmt.Printf("Wrote %d bytes to %s\n", n, out)
	return nil
}

// ValidateCmd validates a YAML diagnostic description and reports findings.
type ValidateCmd struct {
	Input   string `arg:"" help:"Input YAML/JSON file" type:"existingfile"`
	Strict  bool   `help:"Treat warnings as errors"`
	Summary bool   `short:"s" help:"Print a summary of the document contents"`
	Quiet   bool   `short:"q" help:"Only report problems"`
}

func (c *ValidateCmd) Run(cfg config.Config) error {
	strict := c.Strict || cfg.Strict

	doc, err := loadDocument(c.Input)
	if err != nil {
		return err
	}

	result := validate.Validate(doc)
	printIssues(result)
	if err := result.Err(strict); err != nil {
		return err
	}

	if !c.Quiet {
		if len(result.Warnings()) > 0 {
			fmt.Printf("%s is valid with %d warning(s)\n", c.Input, len(result.Warnings()))
		} else {
			fmt.Printf("%s is valid\n", c.Input)
		}
	}
	if c.Summary {
		printSummary(doc)
	}
	return nil
}

// InspectCmd prints the structure of a compiled MDD file.
type InspectCmd struct {
	Input string `arg:"" help:"MDD file to inspect" type:"existingfile"`
}

func (c *InspectCmd) Run() error {
	data, err := os.ReadFile(c.Input)
	if err != nil {
		return fmt.Errorf("read %s: %w", c.Input, err)
	}
	s, err := container.ReadStructure(data)
	if err != nil {
		return err
	}

	fmt.Printf("File: %s (%d bytes)\n", c.Input, len(data))
	fmt.Printf("Format Version: %d\n", s.FormatVersion())
	fmt.Printf("ECU Name: %s\n", s.EcuName())
	fmt.Printf("Revision: %s\n", s.Revision())
	for _, e := range s.Metadata() {
		fmt.Printf("Metadata: %s = %s\n", e.Key, e.Value)
	}

	fmt.Printf("Chunks: %d\n", s.ChunkCount())
	for i := 0; i < s.ChunkCount(); i++ {
		info, err := s.Chunk(i)
		if err != nil {
			return err
		}
		fmt.Printf("  %d. %s kind=%d compression=%s payload=%d bytes uncompressed=%d bytes\n",
			i, info.Name, info.Kind, info.Compression, info.PayloadLength, info.UncompressedSize)
	}

	if sigs := s.Signatures(); len(sigs) > 0 {
		fmt.Printf("Signatures: %d\n", len(sigs))
		for _, sig := range sigs {
			fmt.Printf("  chunk %d %s %x\n", sig.ChunkIndex, sig.Algorithm, sig.Digest)
		}
	}
	return nil
}

// VersionCmd prints the compiler version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("mddc version %s\n", version)
	return nil
}

// loadDocument loads a document and turns schema failures into readable
// multi-line CLI errors.
func loadDocument(path string) (*document.Document, error) {
	doc, err := document.Load(path)
	if err != nil {
		var schemaErr *errors.SchemaError
		if errors.As(err, &schemaErr) {
			fmt.Fprintf(os.Stderr, "Schema validation failed for %s:\n%s\n", path, schemaErr.Detail())
			return nil, fmt.Errorf("%d schema error(s)", len(schemaErr.Fields))
		}
		return nil, err
	}
	return doc, nil
}

// runValidation runs semantic validation, prints every finding, and returns
// the abort error if any.
func runValidation(doc *document.Document, strict bool) error {
	result := validate.Validate(doc)
	printIssues(result)
	return result.Err(strict)
}

func printIssues(result *validate.Result) {
	for _, issue := range result.Issues {
		fmt.Fprintln(os.Stderr, issue.String())
		if issue.Suggestion != "" {
			fmt.Fprintf(os.Stderr, "  hint: %s\n", issue.Suggestion)
		}
	}
}

func printSummary(doc *document.Document) {
	fmt.Println()
	fmt.Println("Document Summary")
	fmt.Println("----------------")
	fmt.Printf("  Author:      %s\n", doc.Meta.Author)
	fmt.Printf("  Revision:    %s\n", doc.Meta.Revision)
	if doc.Meta.Description != "" {
		desc := doc.Meta.Description
		if len(desc) > 60 {
			desc = desc[:60] + "..."
		}
		fmt.Printf("  Description: %s\n", desc)
	}
	fmt.Printf("  ECU ID:      %s\n", doc.Ecu.ID)
	if doc.Ecu.Name != "" {
		fmt.Printf("  ECU Name:    %s\n", doc.Ecu.Name)
	}
	fmt.Printf("  Sessions:    %d\n", len(doc.Sessions))
	if len(doc.DIDs) > 0 {
		fmt.Printf("  DIDs:        %d\n", len(doc.DIDs))
	}
	if len(doc.Routines) > 0 {
		fmt.Printf("  Routines:    %d\n", len(doc.Routines))
	}
	if len(doc.DTCs) > 0 {
		fmt.Printf("  DTCs:        %d\n", len(doc.DTCs))
	}
	if len(doc.Types) > 0 {
		fmt.Printf("  Types:       %d\n", len(doc.Types))
	}
}

func replaceExt(path, ext string) string {
	if i := strings.LastIndex(path, "."); i > strings.LastIndexAny(path, "/\\") {
		return path[:i] + ext
	}
	return path + ext
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("mddc"),
		kong.Description("Diagnostic description compiler - YAML to MDD binary format"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	cfg, err := config.Load(CLI.Config)
	ctx.FatalIfErrorf(err)

	level := CLI.LogLevel
	if level == "" {
		level = cfg.LogLevel
	}
	logger = logging.Default(level)

	err = ctx.Run(cfg)
	ctx.FatalIfErrorf(err)
}
