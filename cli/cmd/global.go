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

	"github.com/gojue/tphook/internal/host/tracefs"
	"github.com/gojue/tphook/internal/logger"
)

// GlobalFlags are the persistent flags shared by every subcommand.
type GlobalFlags struct {
	Debug      bool
	JSONLog    bool
	Tracefs    string
	ConfigFile string
}

func getGlobalConf(command *cobra.Command) (conf GlobalFlags, err error) {
	conf.Debug, err = command.Flags().GetBool("debug")
	if err != nil {
		return
	}

	conf.JSONLog, err = command.Flags().GetBool("json-log")
	if err != nil {
		return
	}

	conf.Tracefs, err = command.Flags().GetString("tracefs")
	if err != nil {
		return
	}

	conf.ConfigFile, err = command.Flags().GetString("config")
	return
}

func newLogger(debug, jsonLog bool) *logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Out:   os.Stderr,
		Debug: debug,
		JSON:  jsonLog,
	})
}

func openTracefs(root string) (*tracefs.FS, error) {
	if root != "" {
		return tracefs.Open(root)
	}
	return tracefs.Discover()
}
