package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/san-kum/helixwave/internal/config"
	"github.com/san-kum/helixwave/internal/experiment"
	"github.com/san-kum/helixwave/internal/viz"
)

var presetDescriptions = map[string]string{
	"sweet-spot":   "ring, beta in {0, 0.03, 1}",
	"decay":        "linear, heavily damped",
	"chaos":        "strong nonlinearity, m=5",
	"driven-point": "point source on a weak pulse",
	"pulsed":       "periodic pulsed source",
	"noise":        "random field, 9-point periodic",
}

func runLive(cmd *cobra.Command, args []string) error {
	if replayID != "" {
		return replayRun(replayID)
	}
	if pick {
		items := make([]viz.PickerItem, 0, len(config.Presets))
		for _, name := range config.ListPresets() {
			items = append(items, viz.PickerItem{Name: name, Desc: presetDescriptions[name]})
		}
		name, err := viz.Pick("select a preset", items)
		if err != nil {
			return err
		}
		if name == "" {
			return nil
		}
		preset = name
	}

	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	exp := experiment.New(cfg.Config)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}

	title := fmt.Sprintf("%dx%d  %s", cfg.Grid.NX, cfg.Grid.NY, cfg.Params)
	if preset != "" {
		title = preset + "  " + title
	}
	prog := viz.NewProgram(viz.NewPlayer(title, nil, true))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		opts := cfg.RunOptions()
		opts.Sink = viz.StreamSink{Send: prog.Send}
		opts.SkipTrajectory = true
		_, runErr := exp.Run(ctx, opts)
		prog.Send(viz.DoneMsg{Err: runErr})
	}()

	_, err = prog.Run()
	return err
}

func replayRun(prefix string) error {
	id, isSweep, err := resolveID(prefix)
	if err != nil {
		return err
	}
	if isSweep {
		return fmt.Errorf("%s is a sweep; replay takes a run", shortID(id))
	}
	store, _ := openStore()
	meta, err := store.Load(id)
	if err != nil {
		return err
	}
	tr, err := store.LoadTrajectory(id)
	if err != nil {
		return err
	}
	if tr.Len() == 0 {
		return fmt.Errorf("run %s has no recorded snapshots", shortID(id))
	}
	title := fmt.Sprintf("replay %s  %dx%d  %s", shortID(id), meta.NX, meta.NY, meta.Config.Params)
	_, err = viz.NewProgram(viz.NewPlayer(title, tr.Snapshots, false)).Run()
	return err
}
