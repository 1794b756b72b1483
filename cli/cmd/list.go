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
	"strings"

	"github.com/spf13/cobra"

	"github.com/gojue/tphook/internal/domain"
)

var listGroup string

var listCmd = &cobra.Command{
	Use:   "list [filter]",
	Short: "list tracepoints in the tracefs registry",
	Long: `Print every group:event the kernel registry offers, in registry order.
An optional filter keeps entries containing it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommandFunc,
}

func init() {
	listCmd.Flags().StringVarP(&listGroup, "group", "g", "", "only list this group")
	rootCmd.AddCommand(listCmd)
}

func listCommandFunc(command *cobra.Command, args []string) error {
	gConf, err := getGlobalConf(command)
	if err != nil {
		return err
	}

	fs, err := openTracefs(gConf.Tracefs)
	if err != nil {
		return err
	}

	filter := ""
	if len(args) > 0 {
		filter = args[0]
	}

	out := command.OutOrStdout()
	count := 0
	err = fs.ForEachPoint(func(desc domain.Descriptor, name string) {
		qualified := desc.String()
		if listGroup != "" && !strings.HasPrefix(qualified, listGroup+":") {
			return
		}
		if filter != "" && !strings.Contains(qualified, filter) {
			return
		}
		count++
		fmt.Fprintln(out, qualified)
	})
	if err != nil {
		return err
	}

	if count == 0 {
		return fmt.Errorf("no tracepoint matches")
	}
	return nil
}
