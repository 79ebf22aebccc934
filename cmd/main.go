package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/BurntSushi/toml"
	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"controller/api"
	ctl "controller/controller"
	"controller/flowtable"
	"controller/render"
	"controller/topology"
)

// Config struct to hold configuration from toml file
type ControllerConfig struct {
	API           APIConfig           `toml:"api"`
	Synthesizer   SynthesizerConfig   `toml:"synthesizer"`
	Visualization VisualizationConfig `toml:"visualization"`
	Topology      TopologyConfig      `toml:"topology"`
	Flows         FlowsConfig         `toml:"flows"`
}

type APIConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

type SynthesizerConfig struct {
	OrderPolicy string `toml:"order_policy"`
	PoolSize    int    `toml:"pool_size"`
}

type VisualizationConfig struct {
	OutputDir string `toml:"output_dir"`
}

type TopologyConfig struct {
	Nodes []string     `toml:"nodes"`
	Links []LinkConfig `toml:"links"`
}

type LinkConfig struct {
	U      string `toml:"u"`
	V      string `toml:"v"`
	Weight int    `toml:"weight"`
}

type FlowsConfig struct {
	Critical []FlowConfig `toml:"critical"`
}

type FlowConfig struct {
	Src string `toml:"src"`
	Dst string `toml:"dst"`
}

// defaultConfig seeds the demo topology: four switches in a diamond with a
// costly direct edge, and a host attached to each side.
func defaultConfig() *ControllerConfig {
	return &ControllerConfig{
		API:           APIConfig{ListenAddr: ":8090"},
		Synthesizer:   SynthesizerConfig{OrderPolicy: "lexicographic", PoolSize: 100},
		Visualization: VisualizationConfig{OutputDir: "."},
		Topology: TopologyConfig{
			Nodes: []string{"H1", "H2"},
			Links: []LinkConfig{
				{U: "S1", V: "S2", Weight: 1},
				{U: "S1", V: "S3", Weight: 1},
				{U: "S2", V: "S4", Weight: 1},
				{U: "S3", V: "S4", Weight: 1},
				{U: "S1", V: "S4", Weight: 5},
				{U: "H1", V: "S1", Weight: 1},
				{U: "H2", V: "S2", Weight: 1},
			},
		},
		Flows: FlowsConfig{
			Critical: []FlowConfig{{Src: "H2", Dst: "S4"}},
		},
	}
}

func loadConfig(path string) *ControllerConfig {
	var config ControllerConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		log.Warnf("Failed to load config file %s: %v, using built-in defaults", path, err)
		return defaultConfig()
	}
	if config.API.ListenAddr == "" {
		log.Warningf("API listen_addr not specified in config, using default :8090")
		config.API.ListenAddr = ":8090"
	}
	if config.Synthesizer.PoolSize <= 0 {
		config.Synthesizer.PoolSize = 100
	}
	if config.Visualization.OutputDir == "" {
		config.Visualization.OutputDir = "."
	}
	return &config
}

// log init
func init() {
	logDir := "./logs"
	os.MkdirAll(logDir, 0755)

	// Configure log rotation with lumberjack
	fileLogger := &lumberjack.Logger{
		Filename:   logDir + "/controller.log",
		MaxSize:    100,  // MB
		MaxBackups: 7,    // Keep 7 old log files
		MaxAge:     30,   // Days
		Compress:   true, // Compress old log files
	}

	// Output to both file and stdout
	multiWriter := io.MultiWriter(os.Stdout, fileLogger)
	log.SetOutput(multiWriter)

	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})

	log.SetLevel(log.InfoLevel)

	log.Infof("Logging initialized: file=%s/controller.log, stdout=enabled", logDir)
}

const helpText = `Commands:
  add_node <node>
  remove_node <node>
  add_link <u> <v> <weight>
  remove_link <u> <v>
  inject_flow <src> <dst>
  mark_critical <src> <dst>
  simulate_failure <u> <v>
  show_flows
  query <src> <dst>
  visualize
  help
  exit`

func main() {
	cfg := loadConfig("controller_config.toml")

	topo := topology.NewGraph()
	for _, node := range cfg.Topology.Nodes {
		topo.AddNode(node)
	}
	for _, link := range cfg.Topology.Links {
		topo.AddLink(link.U, link.V, link.Weight)
	}
	log.Infof("Seed topology loaded: %d nodes, %d links", topo.NodeCount(), topo.LinkCount())

	pool, err := flowtable.NewPool(cfg.Synthesizer.PoolSize)
	if err != nil {
		log.Warnf("Continuing without synthesis pool: %v", err)
		pool = nil
	}

	synth := flowtable.NewSynthesizer(flowtable.OrderPolicy(cfg.Synthesizer.OrderPolicy), pool)

	critical := make([]flowtable.Flow, 0, len(cfg.Flows.Critical))
	for _, flow := range cfg.Flows.Critical {
		critical = append(critical, flowtable.Flow{Src: flow.Src, Dst: flow.Dst})
	}
	c := ctl.New(topo, synth, critical...)
	log.Infof("controller init success")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go api.RunServer(ctx, c, cfg.API.ListenAddr)

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go commandLoop(c, cfg.Visualization.OutputDir, done)

	fmt.Println(helpText)
	select {
	case <-signalChan:
		log.Infof("received signal, shutting down")
	case <-done:
		log.Infof("command loop finished, shutting down")
	}
}

// commandLoop reads operator commands from stdin and dispatches them to the
// controller. Malformed commands never reach the core.
func commandLoop(c *ctl.Controller, vizDir string, done chan<- struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("sdn> ")
		if !scanner.Scan() {
			return
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		op, args := fields[0], fields[1:]
		switch {
		case op == "add_node" && len(args) == 1:
			c.AddNode(args[0])
			fmt.Println("Node added")
		case op == "remove_node" && len(args) == 1:
			c.RemoveNode(args[0])
			fmt.Println("Node removed")
		case op == "add_link" && len(args) == 3:
			weight, err := strconv.Atoi(args[2])
			if err != nil || weight < 0 {
				fmt.Println("weight must be a non-negative integer")
				continue
			}
			c.AddLink(args[0], args[1], weight)
			fmt.Println("Link added")
		case op == "remove_link" && len(args) == 2:
			c.RemoveLinkAndReconfigure(args[0], args[1])
		case op == "simulate_failure" && len(args) == 2:
			c.RemoveLinkAndReconfigure(args[0], args[1])
		case op == "inject_flow" && len(args) == 2:
			c.InjectFlow(args[0], args[1])
			fmt.Println("Flow injected")
		case op == "mark_critical" && len(args) == 2:
			c.MarkCritical(args[0], args[1])
			fmt.Println("Flow marked critical")
		case op == "show_flows":
			showFlowTables(c)
		case op == "query" && len(args) == 2:
			path := c.ComputePath(args[0], args[1])
			if path == nil {
				fmt.Println("Path: unreachable")
			} else {
				fmt.Printf("Path: %v\n", path)
			}
		case op == "visualize":
			filename, err := render.SaveDOT(vizDir, c.Snapshot(), c.ActiveFlows(), c.ComputePath)
			if err != nil {
				log.Errorf("visualize failed: %v", err)
				continue
			}
			fmt.Printf("Visualization saved to %s\n", filename)
		case op == "help":
			fmt.Println(helpText)
		case op == "exit" || op == "quit":
			return
		default:
			fmt.Println("Unknown command, type help")
		}
	}
}

func showFlowTables(c *ctl.Controller) {
	table := c.FlowTable()
	for _, sw := range c.Nodes() {
		fmt.Printf("Switch %s flow table:\n", sw)
		for _, entry := range table[sw] {
			line := fmt.Sprintf("  dst=%s | next_hops=%v | prio=%s", entry.MatchDst, entry.Action, entry.Priority)
			if entry.Backup != nil {
				line += fmt.Sprintf(" | backup=%v", entry.Backup)
			}
			fmt.Println(line)
		}
		fmt.Println()
	}
}
