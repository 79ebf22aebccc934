// Package render draws the topology with its active-flow overlay as a
// Graphviz DOT document.
package render

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	log "github.com/sirupsen/logrus"

	"controller/flowtable"
	"controller/topology"
)

// PathFunc resolves the current path of a flow; nil means unreachable.
type PathFunc func(src, dst string) []string

type edge struct{ u, v string }

func normalize(u, v string) edge {
	if u < v {
		return edge{u, v}
	}
	return edge{v, u}
}

// WriteDOT writes an undirected DOT graph: every link labelled with its
// weight, and links carried by active flows highlighted dashed red with a
// utilization count (how many active flows cross the link).
func WriteDOT(w io.Writer, snap topology.Snapshot, flows []flowtable.Flow, pathOf PathFunc) error {
	util := make(map[edge]int)
	for _, flow := range flows {
		path := pathOf(flow.Src, flow.Dst)
		for i := 0; i+1 < len(path); i++ {
			util[normalize(path[i], path[i+1])]++
		}
	}

	if _, err := fmt.Fprintln(w, "graph topology {"); err != nil {
		return err
	}
	fmt.Fprintln(w, "  node [style=filled, fillcolor=lightblue];")
	for _, node := range snap.Nodes() {
		fmt.Fprintf(w, "  %q;\n", node)
	}
	for _, u := range snap.Nodes() {
		for v, weight := range snap.Neighbors(u) {
			if u >= v { // each undirected link once
				continue
			}
			if count, active := util[normalize(u, v)]; active {
				fmt.Fprintf(w, "  %q -- %q [label=\"%d util=%d\", color=red, style=dashed, penwidth=2];\n",
					u, v, weight, count)
			} else {
				fmt.Fprintf(w, "  %q -- %q [label=\"%d\"];\n", u, v, weight)
			}
		}
	}
	_, err := fmt.Fprintln(w, "}")
	return err
}

// SaveDOT writes the DOT document to dir as topology_<unix>.dot and returns
// the file path.
func SaveDOT(dir string, snap topology.Snapshot, flows []flowtable.Flow, pathOf PathFunc) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output dir %s: %w", dir, err)
	}
	filename := filepath.Join(dir, fmt.Sprintf("topology_%d.dot", time.Now().Unix()))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", filename, err)
	}
	defer file.Close()

	if err := WriteDOT(file, snap, flows, pathOf); err != nil {
		return "", err
	}
	log.Infof("Visualization saved to %s", filename)
	return filename, nil
}
