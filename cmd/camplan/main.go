package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/logging"
)

// BuildDate can be set at build time via ldflags
var (
	Version   = "0.0.1"
	BuildDate = "unknown"
)

const usage = `usage: camplan [-config dir] <command> [args]

commands:
  export  <project> [file]          write the project as JSON
  import  <project> <file>          replace the project with a JSON export
  geojson <project> [file]          write cameras and fields of view as GeoJSON
  replay  <project> <events.jsonl>  apply recorded input events and print the cameras
  vocab   <project> [list file]     print the vocabulary, or replace a list
                                    (statuses or analyses) from a text file
  version                           print the version
`

// drainTimeout bounds how long queued writes may take to reach the backend
// before the process exits.
const drainTimeout = 30 * time.Second

func main() {
	configDir := flag.String("config", ".", "directory containing "+config.FileName)
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configDir, flag.Args(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "camplan: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, configDir string, args []string, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("no command given\n%s", usage)
	}

	cmd := strings.ToLower(args[0])
	if cmd == "version" {
		fmt.Fprintf(stdout, "camplan %s (%s)\n", Version, BuildDate)
		return nil
	}

	logs := logging.NewSlogManager()
	loadErr := config.Load(configDir)
	logs.Setup(os.Stderr, config.GetString("logLevel"), nil)
	if loadErr != nil {
		logs.Logger().Warn("Failed to load config, using defaults!", "error", loadErr)
	}

	var (
		handler func(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error
		minArgs int
	)
	switch cmd {
	case "export":
		handler, minArgs = exportProject, 1
	case "import":
		handler, minArgs = importProject, 2
	case "geojson":
		handler, minArgs = exportGeoJSON, 1
	case "replay":
		handler, minArgs = replayEvents, 2
	case "vocab":
		handler, minArgs = editVocabulary, 1
	default:
		return fmt.Errorf("unknown command %q\n%s", args[0], usage)
	}
	if len(args)-1 < minArgs {
		return fmt.Errorf("%s: missing arguments\n%s", cmd, usage)
	}

	ws, err := openWorkspace(ctx, args[1], logs)
	if err != nil {
		return err
	}

	cmdErr := handler(ctx, ws, args[2:], stdout)

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := ws.Close(drainCtx); err != nil {
		ws.logger.Error("Failed to close workspace", "error", err)
		if cmdErr == nil {
			cmdErr = err
		}
	}
	return cmdErr
}
