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
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gojue/tphook/internal/factory"
	"github.com/gojue/tphook/internal/host/tracefs"
	"github.com/gojue/tphook/internal/locator"
)

var describeCmd = &cobra.Command{
	Use:   "describe <point>",
	Short: "show the record layout of a tracepoint",
	Long: `Locate a tracepoint by bare event name or group:event and print the
fields of its record, along with the schema attach would decode it with.`,
	Args: cobra.ExactArgs(1),
	RunE: describeCommandFunc,
}

func init() {
	rootCmd.AddCommand(describeCmd)
}

func describeCommandFunc(command *cobra.Command, args []string) error {
	gConf, err := getGlobalConf(command)
	if err != nil {
		return err
	}
	log := newLogger(gConf.Debug, gConf.JSONLog)

	fs, err := openTracefs(gConf.Tracefs)
	if err != nil {
		return err
	}

	desc, found, err := locator.New(fs, log).Locate(args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("tracepoint %s not found", args[0])
	}

	point, err := tracefs.ParsePoint(desc.String())
	if err != nil {
		return err
	}
	format, err := fs.ReadFormat(point)
	if err != nil {
		return err
	}

	out := command.OutOrStdout()
	fmt.Fprintf(out, "point:  %s\n", point)
	fmt.Fprintf(out, "id:     %d\n", format.ID)
	fmt.Fprintf(out, "schema: %s\n", factory.SchemaFor(point.String()))
	fmt.Fprintf(out, "size:   %d\n\n", format.RecordSize())

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "OFFSET\tSIZE\tSIGNED\tTYPE\tNAME")
	for _, f := range format.Fields {
		fmt.Fprintf(tw, "%d\t%d\t%t\t%s\t%s\n", f.Offset, f.Size, f.Signed, f.Type, f.Name)
	}
	return tw.Flush()
}
