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
	"os"

	"github.com/spf13/cobra"
)

const (
	cliName        = "tphook"
	cliDescription = "attach typed callbacks to kernel tracepoints via eBPF."
)

var (
	// GitVersion is set at build time with -ldflags "-X".
	GitVersion = "v0.0.0_unknown"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   cliName,
	Short: cliDescription,
	Long: `tphook locates kernel tracepoints in the tracefs event registry,
attaches an eBPF program to each one, decodes the records into typed
events and hands them to callbacks. On SIGINT or SIGTERM every probe is
detached and no callback runs after shutdown completes.

Examples:
  tphook list sched
  tphook describe sched:sched_switch
  tphook attach sched_switch raw_syscalls:sys_enter=raw
  tphook attach --config /etc/tphook.yaml
`,
	Version:       GitVersion,
	SilenceUsage:  true,
	SilenceErrors: false,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.EnablePrefixMatching = true
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().Bool("json-log", false, "write logs as JSON lines")
	rootCmd.PersistentFlags().String("tracefs", "", "tracefs mount point (auto-detected when empty)")
	rootCmd.PersistentFlags().StringP("config", "c", "", "YAML or JSON config file")
}
