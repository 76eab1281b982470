// meshforge converts Ragnarok Online models and maps into glTF scenes.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/meshforge/internal/config"
	"github.com/Faultbox/meshforge/internal/convert"
	"github.com/Faultbox/meshforge/internal/logger"
	"github.com/Faultbox/meshforge/pkg/formats"
	"github.com/Faultbox/meshforge/pkg/grf"
)

func main() {
	config.ParseFlags()
	args := config.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	command, rest := args[0], args[1:]
	switch command {
	case "convert", "c":
		os.Exit(cmdConvert(cfg, rest))
	case "info":
		os.Exit(cmdInfo(cfg, rest))
	case "list", "ls":
		os.Exit(cmdList(rest))
	case "config":
		os.Exit(cmdConfig(cfg, rest))
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshforge - Ragnarok Online model and map to glTF converter

Usage:
  meshforge [flags] <command> [args]

Commands:
  convert <file>...          Convert .rsm models, .rsw maps or .yaml manifests
  info <file>                Show model or map information
  list <file.grf> [pattern]  List models and maps in an archive
  config save [path]         Write the effective config

Flags:
  -config <path>   Config file
  -format glb|gltf Output format
  -out <dir>       Output directory
  -grf <a,b>       GRF archives to read from
  -data <a,b>      Extracted data directories
  -two-sided       Emit back faces for every face
  -debug           Enable debug logging

Examples:
  meshforge convert prontera.rsw
  meshforge -format gltf convert "inside/chair.rsm"
  meshforge -grf data.grf list data.grf prontera`)
}

func cmdConvert(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge convert <file>...")
		return 1
	}

	p := convert.New(cfg)
	defer p.Close()

	failed := 0
	for _, name := range args {
		rep, err := p.Convert(name)
		if err != nil {
			logger.Error("conversion failed", zap.String("input", name), zap.Error(err))
			failed++
			continue
		}
		fmt.Printf("%s -> %s (%d meshes, %d nodes", name, rep.Output, rep.Result.Meshes, rep.Result.Nodes)
		if rep.World.Skipped > 0 {
			fmt.Printf(", %d placements skipped", rep.World.Skipped)
		}
		fmt.Println(")")
	}
	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n%d of %d conversions failed\n", failed, len(args))
		return 1
	}
	return 0
}

func cmdInfo(cfg *config.Config, args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge info <file>")
		return 1
	}

	p := convert.New(cfg)
	defer p.Close()

	name := args[0]
	data, err := p.ReadFile(name)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".rsm", ".rsm2":
		rsm, err := formats.ParseRSM(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		printModel(name, rsm)
	case ".rsw":
		rsw, err := formats.ParseRSW(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		printWorld(name, rsw)
	default:
		fmt.Fprintf(os.Stderr, "Unsupported file type: %s\n", name)
		return 1
	}
	return 0
}

func printModel(name string, m *formats.RSM) {
	fmt.Printf("Model:    %s\n", name)
	fmt.Printf("Version:  %s\n", m.Version)
	fmt.Printf("Shading:  %s\n", m.Shading)
	fmt.Printf("Nodes:    %d\n", len(m.Nodes))
	fmt.Printf("Vertices: %d\n", m.VertexCount())
	fmt.Printf("Faces:    %d\n", m.FaceCount())
	if m.HasAnimation() {
		fmt.Printf("Animated: %d frames\n", m.AnimLength)
	}
	fmt.Println()
	fmt.Println("Textures:")
	for i, tex := range m.Textures {
		fmt.Printf("  %3d %s\n", i, tex)
	}
	fmt.Println()
	fmt.Println("Nodes:")
	for i := range m.Nodes {
		n := &m.Nodes[i]
		parent := n.Parent
		if m.IsTopLevel(n) {
			parent = "-"
		}
		fmt.Printf("  %-24s parent=%-24s verts=%-5d faces=%-5d keys=%d/%d/%d\n",
			n.Name, parent, len(n.Vertices), len(n.Faces), len(n.PosKeys), len(n.RotKeys), len(n.ScaleKeys))
	}
}

func printWorld(name string, w *formats.RSW) {
	fmt.Printf("Map:        %s\n", name)
	fmt.Printf("Version:    %s\n", w.Version)
	fmt.Printf("Ground:     %s\n", w.GndFile)
	fmt.Printf("Placements: %d\n", len(w.Placements))

	var skipped []formats.ObjectType
	for t := range w.Skipped {
		skipped = append(skipped, t)
	}
	sort.Slice(skipped, func(i, j int) bool { return skipped[i] < skipped[j] })
	for _, t := range skipped {
		fmt.Printf("  %-8s skipped %d\n", t, w.Skipped[t])
	}

	fmt.Println()
	fmt.Println("Models:")
	counts := make(map[string]int)
	for _, pl := range w.Placements {
		counts[pl.ModelName]++
	}
	for _, model := range w.ModelNames() {
		fmt.Printf("  %5d %s\n", counts[model], model)
	}
}

func cmdList(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: meshforge list <file.grf> [pattern]")
		return 1
	}

	archive, err := grf.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer archive.Close()

	pattern := ""
	if len(args) > 1 {
		pattern = strings.ToLower(args[1])
	}

	count := 0
	for _, f := range archive.List() {
		switch filepath.Ext(f) {
		case ".rsm", ".rsm2", ".rsw":
		default:
			continue
		}
		if pattern != "" && !strings.Contains(f, pattern) {
			continue
		}
		fmt.Println(f)
		count++
	}
	fmt.Fprintf(os.Stderr, "\n(%d files)\n", count)
	return 0
}

func cmdConfig(cfg *config.Config, args []string) int {
	if len(args) < 1 || args[0] != "save" {
		fmt.Fprintln(os.Stderr, "Usage: meshforge config save [path]")
		return 1
	}

	var err error
	if len(args) > 1 {
		err = cfg.SaveTo(args[1])
	} else {
		err = cfg.Save()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
