package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/zenworld/internal/bsp"
	"github.com/samcharles93/zenworld/internal/logger"
	"github.com/samcharles93/zenworld/internal/vobs"
	"github.com/samcharles93/zenworld/internal/world"
	"github.com/samcharles93/zenworld/pkg/zen"
)

type inspectSummary struct {
	File     string `json:"file"`
	Size     uint64 `json:"size"`
	Revision string `json:"revision"`

	BspMode      string `json:"bsp_mode,omitempty"`
	BspNodes     int    `json:"bsp_nodes"`
	LeafPolygons int    `json:"leaf_polygons"`

	MeshName string `json:"mesh_name,omitempty"`
	Vertices int    `json:"vertices"`
	Polygons int    `json:"polygons"`

	Vobs      int `json:"vobs"`
	Waypoints int `json:"waypoints"`
	WayEdges  int `json:"way_edges"`
}

func inspectCmd() *cli.Command {
	var (
		filePath string
		asJSON   bool
		revision string
		showVobs bool
	)

	return &cli.Command{
		Name:  "inspect",
		Usage: "Inspect the contents of a world archive",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to world archive (.zen)",
				Destination: &filePath,
				Required:    true,
			},
			&cli.BoolFlag{Name: "json", Usage: "emit machine readable JSON", Destination: &asJSON},
			&cli.StringFlag{
				Name:        "revision",
				Usage:       "force encoding revision (gothic1, gothic2) instead of probing",
				Destination: &revision,
			},
			&cli.BoolFlag{Name: "vobs", Usage: "list the flattened vob tree", Destination: &showVobs},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			log := logger.FromContext(ctx)

			stat, err := os.Stat(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: stat archive %q: %v", filePath, err), 1)
			}
			if stat.IsDir() {
				return cli.Exit("error: zenworld inspect expects a file, not a directory", 1)
			}

			buf, err := zen.Open(filePath)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: open archive: %v", err), 1)
			}
			defer func() { _ = buf.Close() }()

			w, err := parseWorld(buf.Buffer, revision, log)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: parse world: %v", err), 1)
			}

			s := summarizeWorld(filePath, uint64(stat.Size()), w)
			if asJSON {
				out, err := json.MarshalIndent(s, "", "  ")
				if err != nil {
					return err
				}
				fmt.Println(string(out))
				return nil
			}

			fmt.Printf("World Inspect: %s\n", filePath)
			fmt.Printf("File: %s (%s)\n", filepath.Base(filePath), formatBytes(s.Size))
			row("revision", s.Revision)

			section("Geometry")
			if w.BspTree == nil {
				fmt.Println("(no geometry section)")
			} else {
				row("bsp_mode", s.BspMode)
				rowInt("bsp_nodes", s.BspNodes)
				rowInt("leaf_polygons", s.LeafPolygons)
				row("mesh_name", s.MeshName)
				rowInt("vertices", s.Vertices)
				rowInt("polygons", s.Polygons)
			}

			section("Scene")
			rowInt("vobs", s.Vobs)
			rowInt("waypoints", s.Waypoints)
			rowInt("way_edges", s.WayEdges)

			if showVobs {
				section("Vob Tree")
				for _, v := range w.Vobs {
					printVob(v, 0)
				}
			}
			return nil
		},
	}
}

func parseWorld(buf *zen.Buffer, revision string, log logger.Logger) (*world.World, error) {
	p := world.NewParser(log)
	switch revision {
	case "":
		return p.Parse(buf)
	case "gothic1":
		return p.ParseRevision(buf, zen.RevisionGothic1)
	case "gothic2":
		return p.ParseRevision(buf, zen.RevisionGothic2)
	default:
		return nil, fmt.Errorf("unknown revision %q (want gothic1 or gothic2)", revision)
	}
}

func summarizeWorld(path string, size uint64, w *world.World) inspectSummary {
	s := inspectSummary{
		File:     filepath.Base(path),
		Size:     size,
		Revision: w.Revision.String(),
		Vobs:     countVobs(w.Vobs),
	}
	if w.BspTree != nil {
		s.BspNodes = len(w.BspTree.Nodes)
		s.LeafPolygons = len(w.BspTree.LeafPolygons)
		if w.BspTree.Mode == bsp.ModeOutdoor {
			s.BspMode = "outdoor"
		} else {
			s.BspMode = "indoor"
		}
	}
	if w.Mesh != nil {
		s.MeshName = w.Mesh.Name
		s.Vertices = len(w.Mesh.Vertices)
		s.Polygons = len(w.Mesh.Polygons)
	}
	if w.WayNet != nil {
		s.Waypoints = len(w.WayNet.Waypoints)
		s.WayEdges = len(w.WayNet.Edges)
	}
	return s
}

func countVobs(list []*vobs.Vob) int {
	n := 0
	for _, v := range list {
		n += 1 + countVobs(v.Children)
	}
	return n
}

func printVob(v *vobs.Vob, depth int) {
	name := v.Name
	if name == "" {
		name = "-"
	}
	fmt.Printf("%s%s  class=%s pos=(%g %g %g)\n",
		strings.Repeat("  ", depth), name, v.ClassName,
		v.Position.X, v.Position.Y, v.Position.Z)
	for _, c := range v.Children {
		printVob(c, depth+1)
	}
}

func section(title string) {
	line := strings.Repeat("-", len(title)+8)
	fmt.Printf("\n%s\n--- %s ---\n%s\n", line, title, line)
}

func row(label, value string) {
	if value == "" {
		return
	}
	fmt.Printf("%-16s %s\n", label+":", value)
}

func rowInt(label string, v int) {
	row(label, fmt.Sprintf("%d", v))
}

func formatBytes(b uint64) string {
	const (
		kb = 1024
		mb = 1024 * kb
		gb = 1024 * mb
	)
	switch {
	case b >= gb:
		return fmt.Sprintf("%.2f GiB", float64(b)/float64(gb))
	case b >= mb:
		return fmt.Sprintf("%.2f MiB", float64(b)/float64(mb))
	case b >= kb:
		return fmt.Sprintf("%.2f KiB", float64(b)/float64(kb))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
