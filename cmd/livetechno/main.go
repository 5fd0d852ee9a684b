// Package main is the entry point for the livetechno CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/livetechno/livetechno/pkg/api"
	"github.com/livetechno/livetechno/pkg/config"
	"github.com/livetechno/livetechno/pkg/converter"
	"github.com/livetechno/livetechno/pkg/converter/devices"
	"github.com/livetechno/livetechno/pkg/schema"
	"github.com/livetechno/livetechno/pkg/studio"
	"github.com/livetechno/livetechno/pkg/tui"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	configFile  string
	outputFile  string
	projectFile string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "livetechno",
	Short: "Export LiveTechno projects as multitrack MIDI files",
	Long: `livetechno turns LiveTechno studio projects (machines and step patterns)
into format 1 Standard MIDI Files, one track per machine.

Examples:
  livetechno export project.json -o project.mid
  livetechno validate project.json
  livetechno inspect project.mid
  livetechno generate "rolling acid bassline" -o pattern.json
  livetechno tui
  livetechno serve --port 8787`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
}

var exportCmd = &cobra.Command{
	Use:   "export <project.json>",
	Short: "Export a project as a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

var validateCmd = &cobra.Command{
	Use:   "validate <project.json>",
	Short: "Validate a project against the schema and exporter rules",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

var machinesCmd = &cobra.Command{
	Use:   "machines [name]",
	Short: "List supported machines or show one machine's controllers",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMachines,
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.mid>",
	Short: "Summarize the tracks of a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Compose a pattern with an OpenAI model",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runGenerate,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "Config file (default ./livetechno.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "data", "Directory for the saved project and activity log")
	rootCmd.PersistentFlags().String("overlap", "keep", "Overlapping notes of one pitch: keep or truncate")

	// export command
	exportCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	// generate command
	generateCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Write the pattern JSON to a file")
	generateCmd.Flags().StringVarP(&projectFile, "project", "p", "", "Project JSON used as context")
	generateCmd.Flags().String("openai-model", "", "OpenAI model")
	generateCmd.Flags().String("openai-base-url", "", "OpenAI-compatible API base URL")

	// serve command
	serveCmd.Flags().String("host", "127.0.0.1", "Listen host")
	serveCmd.Flags().IntP("port", "p", 8787, "Server port")
	serveCmd.Flags().String("openai-model", "", "OpenAI model")
	serveCmd.Flags().String("openai-base-url", "", "OpenAI-compatible API base URL")
	serveCmd.Flags().String("static-dir", "", "Serve the studio front end from this directory")

	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(machinesCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	return config.Load(configFile, cmd.Flags())
}

func exportOptions(cfg config.Config) (converter.Options, error) {
	overlap, err := converter.ParseOverlapPolicy(cfg.Overlap)
	if err != nil {
		return converter.Options{}, err
	}
	return converter.Options{Overlap: overlap}, nil
}

func readProject(path string) (*converter.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return schema.DecodeProject(data)
}

func runExport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}

	input := args[0]
	output := outputFile
	if output == "" {
		output = filepath.Join(filepath.Dir(input), converter.OutputName(input))
	}

	project, err := readProject(input)
	if err != nil {
		return err
	}
	if err := converter.NewMIDIConverter(opts).WriteMIDIFile(project, output); err != nil {
		return err
	}

	fmt.Printf("Exported %s -> %s (%d tracks)\n", input, output, len(project.Machines)+1)
	return nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}

	project, err := readProject(args[0])
	if err != nil {
		return err
	}
	// The exporter checks what the schema cannot, e.g. steps past the MIDI time range
	if _, err := converter.Export(project, opts); err != nil {
		return err
	}

	fmt.Printf("%s is valid: %d machines, %d patterns\n", args[0], len(project.Machines), len(project.Patterns))
	return nil
}

func runMachines(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		d, ok := devices.Lookup(args[0])
		if !ok {
			return fmt.Errorf("unknown machine %q", args[0])
		}
		fmt.Printf("%s (%s, %s)\n", d.Label, d.ID, d.Category)
		fmt.Printf("  default channel %d, first instance %s\n", d.DefaultChannel, d.NewInstance(1).InstanceID)
		for _, p := range d.Parameters {
			fmt.Printf("  %-10s CC %d\n", p, d.Controllers()[p])
		}
		return nil
	}

	for _, d := range devices.Catalog() {
		params := make([]string, 0, len(d.Parameters))
		for _, p := range d.Parameters {
			params = append(params, fmt.Sprintf("%s=CC%d", p, converter.ControllerFor(p)))
		}
		fmt.Printf("%-16s %-22s ch %-2d %s\n", d.ID, d.Label, d.DefaultChannel, strings.Join(params, " "))
	}
	return nil
}

func runInspect(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	summary, err := converter.Inspect(data)
	if err != nil {
		return err
	}

	fmt.Printf("%s: format %d, %d tracks, %d PPQ, %.2f BPM\n",
		args[0], summary.Format, len(summary.Tracks), summary.PPQ, summary.BPM)
	for i, track := range summary.Tracks {
		fmt.Printf("  %2d %-28s %5d events %4d notes  channels %v  end %d\n",
			i, track.Name, track.Events, track.Notes, track.Channels, track.LastTick)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	svc, activity, err := studio.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = activity.Close() }()

	var project *converter.Project
	if projectFile != "" {
		if project, err = readProject(projectFile); err != nil {
			return err
		}
	}

	pattern, err := svc.Generate(context.Background(), strings.Join(args, " "), project)
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(pattern, "", "  ")
	if err != nil {
		return err
	}
	if outputFile == "" {
		fmt.Println(string(data))
		return nil
	}
	if err := os.WriteFile(outputFile, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Pattern %q for %s -> %s\n", pattern.Name, pattern.TargetMachine, outputFile)
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	opts, err := exportOptions(cfg)
	if err != nil {
		return err
	}
	return tui.Run(opts)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	fmt.Printf("Starting API server on %s...\n", cfg.Addr())
	fmt.Printf("Swagger docs available at http://%s/swagger/index.html\n", cfg.Addr())
	return api.StartServer(cfg)
}
