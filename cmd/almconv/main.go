package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/dyuri/almconv/internal/config"
	"github.com/dyuri/almconv/internal/img"
	"github.com/dyuri/almconv/internal/model"
	"github.com/dyuri/almconv/internal/watch"
	"github.com/dyuri/almconv/pkg/almconv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// settings loaded by the root command before any subcommand runs
var cfg = config.Default()

var log = logrus.StandardLogger()

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "almconv",
	Short: "Inspect and convert Allods 2 map files",
	Long: `almconv is a tool for working with Allods 2 (.alm) map files.

It can decode maps to JSON and encode them back, validate their structure,
list the unit kinds defined in the game's data.bin, extract maps from game
disc images and re-check maps as an editor saves them.

Settings are read from almconv.ini in the working directory:

  [data]
  dir = /games/allods2/data

  [log]
  level = info`,
	SilenceUsage:      true,
	PersistentPreRunE: loadSettings,
}

func init() {
	rootCmd.PersistentFlags().String("config", config.DefaultFile, "Settings file")
	rootCmd.PersistentFlags().String("data-dir", "", "Game data directory (holds world/ and locale/)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Log section-level detail")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "Log warnings and errors only")

	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(bin2jsonCmd)
	rootCmd.AddCommand(json2binCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(kindsCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadSettings(cmd *cobra.Command, args []string) error {
	path, _ := cmd.Flags().GetString("config")
	verbose, _ := cmd.Flags().GetBool("verbose")
	quiet, _ := cmd.Flags().GetBool("quiet")

	loaded, err := config.Load(path)
	if err != nil {
		return err
	}
	cfg = loaded

	log.SetOutput(os.Stderr)
	log.SetLevel(cfg.LogLevel)
	switch {
	case verbose:
		log.SetLevel(logrus.DebugLevel)
	case quiet:
		log.SetLevel(logrus.WarnLevel)
	}
	return nil
}

// engineData loads the lookup tables for the install that maps belong to
func engineData(cmd *cobra.Command, maps []string) (*model.EngineData, error) {
	flag, _ := cmd.Flags().GetString("data-dir")
	dir, err := config.ResolveDataDir(flag, cfg, maps)
	if err != nil {
		return nil, err
	}
	log.WithField("dir", dir).Debug("loading engine data")
	return almconv.LoadEngineData(dir, almconv.WithLogger(log))
}

// info command
var infoCmd = &cobra.Command{
	Use:   "info <map.alm>",
	Short: "Display map information",
	Long: `Display the header, section layout and record counts of a map.

With --units the placed units are listed by name, which needs the game
data directory (see --data-dir).`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("dump", false, "Dump the whole decoded model")
	infoCmd.Flags().Bool("units", false, "List placed units by kind name")
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	dump, _ := cmd.Flags().GetBool("dump")
	units, _ := cmd.Flags().GetBool("units")

	stat, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("stat input file: %w", err)
	}

	m, err := almconv.DecodeMapFile(inputPath, almconv.WithLogger(log))
	if err != nil {
		return err
	}

	if dump {
		spew.Fdump(os.Stdout, m)
		return nil
	}
	if jsonOutput {
		return outputInfoJSON(inputPath, m, stat.Size())
	}

	outputInfoText(inputPath, m, stat.Size())
	if units {
		data, err := engineData(cmd, args)
		if err != nil {
			return err
		}
		outputUnits(m, data)
	}
	return nil
}

func outputInfoText(path string, m *model.Map, fileSize int64) {
	fmt.Printf("Map File: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	fmt.Println("Header:")
	fmt.Printf("  Name:               %s\n", m.Info.MapName)
	fmt.Printf("  Author:             %s\n", m.Info.AuthorName)
	fmt.Printf("  Size:               %dx%d\n", m.Info.Width, m.Info.Height)
	fmt.Printf("  Level:              %d\n", m.Info.MapLevel)
	fmt.Printf("  Recommended:        %d players\n", m.Info.RecommendedPlayers)
	fmt.Println()

	fmt.Println("Sections:")
	for _, s := range m.File.Sections {
		fmt.Printf("  %2d  seven_or_five=%d alm_size=%d\n", s.ID, s.SevenOrFive, s.AlmSize)
	}
	fmt.Println()

	fmt.Println("Records:")
	for _, c := range recordCounts(m) {
		fmt.Printf("  %-19s %d\n", c.name+":", c.n)
	}
	fmt.Println()

	fmt.Printf("File Size:            %s (%d bytes)\n", formatBytes(fileSize), fileSize)
}

func outputUnits(m *model.Map, data *model.EngineData) {
	fmt.Println()
	fmt.Println("Units:")
	for _, u := range m.Units {
		fmt.Printf("  (%d,%d) player %d  %s  hp %d/%d",
			u.X, u.Y, u.PlayerID, data.UnitName(u.ServerID), u.HP, u.MaxHP)
		if bag, ok := m.Bag(u.BagID); ok {
			names := make([]string, len(bag.Items))
			for i, item := range bag.Items {
				names[i] = data.ItemName(uint32(item.ItemID))
			}
			fmt.Printf("  bag: %d gold [%s]", bag.Gold, strings.Join(names, ", "))
		}
		fmt.Println()
	}
}

type recordCount struct {
	name string
	n    int
}

func recordCounts(m *model.Map) []recordCount {
	return []recordCount{
		{"Players", len(m.Players)},
		{"Buildings", len(m.Buildings)},
		{"Units", len(m.Units)},
		{"Instances", len(m.Instances)},
		{"Checks", len(m.Checks)},
		{"Triggers", len(m.Triggers)},
		{"Bags", len(m.Bags)},
		{"Effects", len(m.Effects)},
		{"Groups", len(m.Groups)},
		{"Inns", len(m.Inns)},
		{"Shops", len(m.Shops)},
		{"Signs", len(m.Signs)},
		{"Music", len(m.Music)},
	}
}

func outputInfoJSON(path string, m *model.Map, fileSize int64) error {
	counts := make(map[string]int)
	for _, c := range recordCounts(m) {
		counts[strings.ToLower(c.name)] = c.n
	}
	info := map[string]interface{}{
		"file":     path,
		"size":     fileSize,
		"info":     m.Info,
		"sections": m.File.Sections,
		"counts":   counts,
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// bin2json command
var bin2jsonCmd = &cobra.Command{
	Use:   "bin2json <map.alm>",
	Short: "Convert a binary map to JSON",
	Long: `Convert a binary .alm map to a JSON document.

The document can be edited and converted back with json2bin. An unedited
document converts back to the original file byte for byte.`,
	Args: cobra.ExactArgs(1),
	RunE: runBin2JSON,
}

func init() {
	bin2jsonCmd.Flags().StringP("output", "o", "", "Output file (default: stdout)")
}

func runBin2JSON(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	m, err := almconv.DecodeMapFile(inputPath, almconv.WithLogger(log))
	if err != nil {
		return err
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if err := almconv.ExportJSON(out, m); err != nil {
		return err
	}

	if outputPath != "" {
		fmt.Fprintf(os.Stderr, "Converted %s -> %s\n", inputPath, outputPath)
	}
	return nil
}

// json2bin command
var json2binCmd = &cobra.Command{
	Use:   "json2bin <map.json>",
	Short: "Convert a JSON document to a binary map",
	Long: `Convert a JSON document written by bin2json back to a binary .alm map.

Record counts in the header are recomputed from the document's lists.`,
	Args: cobra.ExactArgs(1),
	RunE: runJSON2Bin,
}

func init() {
	json2binCmd.Flags().StringP("output", "o", "", "Output file (required)")
	json2binCmd.MarkFlagRequired("output")
}

func runJSON2Bin(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	m, err := almconv.ImportJSON(f)
	if err != nil {
		return fmt.Errorf("%s: %w", inputPath, err)
	}

	if err := almconv.WriteMapFile(outputPath, m, almconv.WithLogger(log)); err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "Converted %s -> %s\n", inputPath, outputPath)
	return nil
}

// validate command
var validateCmd = &cobra.Command{
	Use:   "validate <map.alm>...",
	Short: "Validate map structure",
	Long: `Validate the structure of one or more maps.

Each map is decoded, checked for inconsistencies and re-encoded; a map that
does not re-encode to the same bytes is reported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().Bool("strict", false, "Fail on warnings")
}

func runValidate(cmd *cobra.Command, args []string) error {
	strict, _ := cmd.Flags().GetBool("strict")

	failed := 0
	for _, path := range args {
		if !validateFile(path, strict) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("validation failed for %d of %d map(s)", failed, len(args))
	}
	return nil
}

// validateFile prints the report for one map and tells whether it passed
func validateFile(path string, strict bool) bool {
	fmt.Printf("Validating: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Printf("  ✗ %v\n\n", err)
		return false
	}
	m, err := almconv.DecodeMap(data, almconv.WithLogger(log))
	if err != nil {
		fmt.Printf("  ✗ %v\n\n", err)
		return false
	}

	var errorsFound, warnings []string
	for _, v := range almconv.Validate(m) {
		msg := v.Field + ": " + v.Message
		if v.Level == "error" {
			errorsFound = append(errorsFound, msg)
		} else {
			warnings = append(warnings, msg)
		}
	}
	if len(errorsFound) == 0 {
		again, err := almconv.EncodeMap(m, almconv.WithLogger(log))
		switch {
		case err != nil:
			errorsFound = append(errorsFound, "re-encode: "+err.Error())
		case !bytes.Equal(data, again):
			errorsFound = append(errorsFound, fmt.Sprintf("re-encoded map differs from the file (%d vs %d bytes)", len(again), len(data)))
		}
	}

	if len(errorsFound) == 0 && len(warnings) == 0 {
		fmt.Println("✓ Valid map - no issues found")
		fmt.Println()
		return true
	}
	if len(errorsFound) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(errorsFound))
		for _, e := range errorsFound {
			fmt.Printf("  ✗ %s\n", e)
		}
	}
	if len(warnings) > 0 {
		fmt.Printf("\nWarnings (%d):\n", len(warnings))
		for _, w := range warnings {
			fmt.Printf("  ⚠ %s\n", w)
		}
	}
	fmt.Println()
	return len(errorsFound) == 0 && !(strict && len(warnings) > 0)
}

// kinds command
var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List unit kinds defined in data.bin",
	Long: `List the unit kinds recovered from the game's world/data/data.bin,
ordered by server id.

Kinds whose item list was split by the recoverer's heuristic are marked
with '?'.`,
	Args: cobra.NoArgs,
	RunE: runKinds,
}

func init() {
	kindsCmd.Flags().Bool("json", false, "Output as JSON")
	kindsCmd.Flags().Bool("ambiguous", false, "Show only kinds with an ambiguous item list")
}

func runKinds(cmd *cobra.Command, args []string) error {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	ambiguousOnly, _ := cmd.Flags().GetBool("ambiguous")

	data, err := engineData(cmd, nil)
	if err != nil {
		return err
	}

	kinds := make([]*model.UnitKind, 0, len(data.UnitKinds))
	for _, k := range data.UnitKinds {
		if ambiguousOnly && !k.Ambiguous {
			continue
		}
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].ServerID < kinds[j].ServerID })

	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(kinds)
	}

	for _, k := range kinds {
		mark := " "
		if k.Ambiguous {
			mark = "?"
		}
		fmt.Printf("%5d %s %-7s %-24s %s\n", k.ServerID, mark, k.Shape, k.Name, strings.Join(k.Items, ", "))
	}
	fmt.Fprintf(os.Stderr, "%d unit kind(s)\n", len(kinds))
	return nil
}

// extract command
var extractCmd = &cobra.Command{
	Use:   "extract <image.iso>",
	Short: "Extract maps from a game disc image",
	Long: `Extract .alm maps from an ISO 9660 game disc image.

The directory layout of the image is kept below the output directory.`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	extractCmd.Flags().StringP("output", "o", ".", "Output directory")
	extractCmd.Flags().BoolP("list", "l", false, "List maps without extracting")
}

func runExtract(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	outputPath, _ := cmd.Flags().GetString("output")
	list, _ := cmd.Flags().GetBool("list")

	if list {
		maps, err := img.ListMaps(inputPath)
		if err != nil {
			return err
		}
		fmt.Printf("Found %d map(s) in %s:\n", len(maps), filepath.Base(inputPath))
		for _, p := range maps {
			fmt.Printf("  - %s\n", p)
		}
		return nil
	}

	extracted, err := img.ExtractMaps(inputPath, outputPath)
	if err != nil {
		return err
	}

	fmt.Printf("Extracted %d map(s) to %s:\n", len(extracted), outputPath)
	for _, file := range extracted {
		stat, err := os.Stat(file)
		if err != nil {
			fmt.Printf("  - %s (error reading: %v)\n", file, err)
			continue
		}
		fmt.Printf("  - %s (%s)\n", file, formatBytes(stat.Size()))
	}
	return nil
}

// watch command
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-check maps as they are saved",
	Long: `Watch a directory and decode every .alm map written into it.

Each saved map is decoded and validated once writes have settled. Problems
are logged; the command runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().Duration("settle", watch.DefaultSettle, "Quiet time before a saved map is read")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]
	settle, _ := cmd.Flags().GetDuration("settle")

	w := watch.New(dir, checkMap, watch.WithSettle(settle), watch.WithLogger(log))
	if err := w.Start(); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	defer w.Stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	return nil
}

// checkMap is the watch handler: it logs the outcome of decoding path
func checkMap(path string) {
	start := time.Now()
	entry := log.WithField("map", path)

	m, err := almconv.DecodeMapFile(path, almconv.WithLogger(log))
	if err != nil {
		fields := logrus.Fields{}
		var e *almconv.Error
		if errors.As(err, &e) {
			fields["offset"] = e.Offset
			fields["section"] = e.Section
		}
		entry.WithFields(fields).WithError(err).Error("map does not decode")
		return
	}

	issues := almconv.Validate(m)
	for _, v := range issues {
		if v.Level == "error" {
			entry.WithField("field", v.Field).Error(v.Message)
		} else {
			entry.WithField("field", v.Field).Warn(v.Message)
		}
	}
	entry.WithFields(logrus.Fields{
		"name":     m.Info.MapName,
		"units":    len(m.Units),
		"issues":   len(issues),
		"duration": time.Since(start),
	}).Info("map checked")
}

// version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("almconv version %s\n", version)
		fmt.Printf("commit: %s\n", commit)
		fmt.Printf("built: %s\n", date)
	},
}
