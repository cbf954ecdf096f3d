/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package main

import (
	"fmt"

	"github.com/samber/do/v2"
	"github.com/spf13/cobra"

	"scenebuilder/internal/ui"
	"scenebuilder/internal/version"
)

func newRootCmd(i do.Injector) *cobra.Command {
	root := &cobra.Command{
		Use:     "scenebuilder [project]",
		Short:   "SexLab Scene Builder",
		Long:    "Editor for SexLab scene packages. Without a command the desktop UI is started.",
		Version: version.String(),
		Args:    cobra.MaximumNArgs(1),
		RunE:    runUI(i),

		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.AddCommand(
		&cobra.Command{
			Use:   "ui [project]",
			Short: "Start the desktop UI (build with -tags fyne)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runUI(i),
		},
		&cobra.Command{
			Use:   "convert <in> <out>",
			Short: "Rewrite a project file, including legacy ones, in the current format",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				n, err := convertProject(args[0], args[1])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Converted %d scenes to %s\n", n, args[1])
				return nil
			},
		},
		newBuildCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Show version",
			Args:  cobra.NoArgs,
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintln(cmd.OutOrStdout(), "SexLab Scene Builder")
				fmt.Fprintln(cmd.OutOrStdout(), version.String())
			},
		},
	)
	return root
}

func newBuildCmd() *cobra.Command {
	var sheet string
	cmd := &cobra.Command{
		Use:   "build <project> <out-dir>",
		Short: "Write the runtime build of a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := buildProject(args[0], args[1], sheet)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Built", out)
			if sheet != "" {
				fmt.Fprintln(cmd.OutOrStdout(), "Scene sheet", sheet)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "also write a PDF scene sheet to this path")
	return cmd
}

func runUI(i do.Injector) func(*cobra.Command, []string) error {
	return func(_ *cobra.Command, args []string) error {
		var project string
		if len(args) > 0 {
			project = args[0]
		}
		return ui.Run(do.MustInvoke[appFactory](i), project)
	}
}
