// Copyright 2022 CFC4N <cfc4n.cs@gmail.com>. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gojue/tphook/internal/builder"
	"github.com/gojue/tphook/internal/config"
	"github.com/gojue/tphook/internal/domain"
	"github.com/gojue/tphook/internal/factory"
	"github.com/gojue/tphook/internal/host/tracefs"
	"github.com/gojue/tphook/internal/lifecycle"
	"github.com/gojue/tphook/internal/logger"
	"github.com/gojue/tphook/internal/status"
)

var attachCmd = &cobra.Command{
	Use:   "attach [point[=schema]...]",
	Short: "attach probes and stream decoded events until interrupted",
	Long: `Attach one probe per point. A point is a bare event name such as
sched_switch or a qualified group:event. The schema decoding its records
defaults to the one named after the event, or raw.

Points that cannot be found or attached are reported and skipped; the
remaining probes keep running. SIGINT or SIGTERM detaches everything.`,
	RunE: attachCommandFunc,
}

func newAttachFlagSet() *pflag.FlagSet {
	fs := pflag.NewFlagSet("attach", pflag.ContinueOnError)
	fs.IntP("workers", "w", config.DefaultWorkers, "callback goroutines per probe")
	fs.Int("buffer-pages", config.DefaultPerCPUBufferPages, "perf ring pages per CPU, a power of two")
	fs.StringP("listen", "l", "", "serve probe status over HTTP on this address")
	fs.StringP("event-output", "o", "", "write events as JSON lines to stdout, tcp://host:port or a file instead of the log")
	fs.Int("event-file-size", 100, "rotate an event output file after this many megabytes")
	fs.Int("event-file-backups", 5, "rotated event output files to keep, 0 keeps all")
	return fs
}

func init() {
	attachCmd.Flags().AddFlagSet(newAttachFlagSet())
	rootCmd.AddCommand(attachCmd)
}

// buildAttachConfig layers flags that were set explicitly and positional
// probes over the config file, if any.
func buildAttachConfig(gConf GlobalFlags, flags *pflag.FlagSet, args []string) (*config.Config, error) {
	base := config.NewConfig()
	if gConf.ConfigFile != "" {
		var err error
		if base, err = config.LoadFile(gConf.ConfigFile); err != nil {
			return nil, err
		}
	}

	b := builder.FromConfig(base)
	if gConf.Debug {
		b.WithDebug(true)
	}
	if gConf.JSONLog {
		b.WithJSONLog(true)
	}
	if gConf.Tracefs != "" {
		b.WithTracefsRoot(gConf.Tracefs)
	}

	if flags.Changed("workers") {
		n, _ := flags.GetInt("workers")
		b.WithWorkers(n)
	}
	if flags.Changed("buffer-pages") {
		n, _ := flags.GetInt("buffer-pages")
		b.WithPerCPUBufferPages(n)
	}
	if flags.Changed("listen") {
		addr, _ := flags.GetString("listen")
		b.WithListen(addr)
	}

	ef := base.EventOutput
	if flags.Changed("event-output") {
		ef.Addr, _ = flags.GetString("event-output")
	}
	if ef.MaxSizeMB == 0 || flags.Changed("event-file-size") {
		ef.MaxSizeMB, _ = flags.GetInt("event-file-size")
	}
	if ef.MaxBackups == 0 || flags.Changed("event-file-backups") {
		ef.MaxBackups, _ = flags.GetInt("event-file-backups")
	}
	b.WithEventOutput(ef.Addr, ef.MaxSizeMB, ef.MaxBackups)

	for _, arg := range args {
		pc, err := config.ParseProbeArg(arg)
		if err != nil {
			return nil, err
		}
		b.WithProbe(pc.Point, pc.Schema)
	}

	cfg, err := b.Build()
	if err != nil {
		return nil, err
	}
	if len(cfg.Probes) == 0 {
		return nil, fmt.Errorf("no probes given, name points as arguments or in --config")
	}
	return cfg, nil
}

func attachCommandFunc(command *cobra.Command, args []string) error {
	gConf, err := getGlobalConf(command)
	if err != nil {
		return err
	}
	cfg, err := buildAttachConfig(gConf, command.Flags(), args)
	if err != nil {
		return err
	}

	log := newLogger(cfg.Debug, cfg.LogJSON)
	log.Debug().RawJSON("config", cfg.Bytes()).Msg("Effective configuration")

	if err := detectEnv(log); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runAttach(ctx, cfg, log)
}

func runAttach(ctx context.Context, cfg *config.Config, log *logger.Logger) error {
	fs, err := openTracefs(cfg.TracefsRoot)
	if err != nil {
		return err
	}
	host, err := tracefs.NewHost(fs, tracefs.Options{
		Workers:      cfg.Workers,
		PerCPUBuffer: cfg.PerCPUBufferBytes(),
		Logger:       log,
	})
	if err != nil {
		return err
	}
	defer host.Close()

	dispatcher, err := newEventDispatcher(log, cfg.EventOutput)
	if err != nil {
		return err
	}
	defer dispatcher.Close()

	sink := func(point string, event domain.Event) {
		if err := dispatcher.Dispatch(point, event); err != nil {
			log.Debug().Err(err).Str("point", point).Msg("Event dispatch failed")
		}
	}

	ctrl := lifecycle.NewController(host, log)
	for _, p := range cfg.Probes {
		reg, err := factory.CreateProbe(p.Schema, p.Point, sink, log)
		if err != nil {
			return err
		}
		if err := ctrl.Register(reg); err != nil {
			return err
		}
	}

	if err := ctrl.Start(ctx); err != nil {
		_ = ctrl.Stop()
		return err
	}

	if cfg.Listen != "" {
		srv := status.NewServer(cfg.Listen, ctrl, log)
		go func() {
			if err := srv.Run(ctx); err != nil {
				log.Error().Err(err).Msg("Status server stopped")
			}
		}()
	}

	log.Info().Str("session", ctrl.Session()).Msg("Probes running, press Ctrl+C to stop")
	<-ctx.Done()

	for _, st := range ctrl.Status() {
		log.Info().
			Str("probe", st.Name).
			Str("outcome", string(st.Outcome)).
			Uint64("invoked", st.Stats.Invoked).
			Uint64("dropped", st.Stats.Dropped).
			Msg("Probe summary")
	}

	err = ctrl.Stop()
	log.Info().Uint64("lost_samples", host.Lost()).Msg("Shutdown complete")
	return err
}
