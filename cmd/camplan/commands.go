package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/sitesurvey/camplan/internal/config"
	"github.com/sitesurvey/camplan/internal/geo"
	"github.com/sitesurvey/camplan/internal/session"
	"github.com/sitesurvey/camplan/internal/viewport"
	"github.com/sitesurvey/camplan/pkg/core"
)

// replayCanvas is the canvas size until the recording sends a resize.
var replayCanvas = viewport.Size{W: 1280, H: 800}

// writeOutput writes v as indented JSON to the file named by args[0], or to
// stdout when no file is given.
func writeOutput(args []string, stdout io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	data = append(data, '\n')

	if len(args) == 0 || args[0] == "-" {
		_, err = stdout.Write(data)
		return err
	}
	if err := os.WriteFile(args[0], data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", args[0], err)
	}
	return nil
}

func exportProject(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error {
	data := ws.store.Export()
	ws.logger.Info("Exporting project", "cameras", len(data.Cameras))
	return writeOutput(args, stdout, data)
}

func importProject(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error {
	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	var data core.ProjectData
	if err := json.Unmarshal(raw, &data); err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}

	ws.store.Import(data)
	fmt.Fprintf(stdout, "imported %d cameras into %s\n", len(data.Cameras), ws.store.Project().ID)
	return nil
}

func exportGeoJSON(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error {
	georef, ok, err := config.GetGeoreference()
	if err != nil {
		return err
	}
	var proj *geo.Projector
	if ok {
		if proj, err = geo.NewProjector(georef); err != nil {
			return fmt.Errorf("georeference: %w", err)
		}
	} else {
		ws.logger.Warn("No georeference configured, writing scene coordinates")
	}

	cams := ws.store.Cameras()
	fc, err := geo.FeatureCollection(cams, proj)
	if err != nil {
		return err
	}
	area, err := geo.CoverageArea(cams)
	if err != nil {
		return fmt.Errorf("coverage: %w", err)
	}
	coverage := fmt.Sprintf("%.1f px²", area)
	if ok {
		coverage = fmt.Sprintf("%.1f m²", georef.GroundArea(area))
	}
	ws.logger.Info("Exporting GeoJSON", "cameras", len(cams), "coverage", coverage)

	if err := writeOutput(args, stdout, fc); err != nil {
		return err
	}
	// stdout carries the document itself when no file is given
	if len(args) > 0 && args[0] != "-" {
		fmt.Fprintf(stdout, "wrote %d features to %s, coverage %s\n", len(fc), args[0], coverage)
	}
	return nil
}

func replayEvents(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open %s: %w", args[0], err)
	}
	defer f.Close()

	sc := config.GetSessionConfig()
	policy, err := session.ParsePolicy(sc.BackgroundClick)
	if err != nil {
		return err
	}
	sess := session.New(ws.store, viewport.New(replayCanvas), session.Options{
		ClickThreshold: sc.ClickThreshold,
		HitSlop:        sc.HitSlop,
		Policy:         policy,
		Logger:         ws.logger,
	})

	n, err := sess.Replay(f)
	if err != nil {
		return fmt.Errorf("replay %s: %w", args[0], err)
	}

	frame := sess.Frame()
	ws.logger.Info("Replay finished", "events", n, "cameras", len(frame.Markers), "scale", frame.Scale)
	return writeOutput(nil, stdout, ws.store.Export().Cameras)
}

// editVocabulary prints both vocabulary lists, one item per line, or replaces
// one of them with the lines of a text file.
func editVocabulary(ctx context.Context, ws *workspace, args []string, stdout io.Writer) error {
	v := ws.store.Vocabulary()
	if len(args) == 0 {
		fmt.Fprintf(stdout, "# statuses\n%s\n# analyses\n%s\n", core.JoinLines(v.Statuses), core.JoinLines(v.AnalysisTypes))
		return nil
	}
	if len(args) < 2 {
		return fmt.Errorf("vocab: missing file for %s", args[0])
	}

	raw, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}
	items := core.SplitLines(string(raw))
	switch args[0] {
	case "statuses":
		ws.store.SetStatuses(items)
	case "analyses":
		ws.store.SetAnalysisTypes(items)
	default:
		return fmt.Errorf("vocab: unknown list %q", args[0])
	}
	fmt.Fprintf(stdout, "%s: %d items\n", args[0], len(items))
	return nil
}
