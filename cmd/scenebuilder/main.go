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
	"log/slog"
	"os"

	"github.com/samber/do/v2"

	"scenebuilder/internal/crash"
	"scenebuilder/internal/document"
)

func main() {
	os.Exit(run(newInjector(), os.Args[1:]))
}

// run executes the command line and returns the process exit code. A panic is turned
// into a crash report and a snapshot of the open project by crash.Recover.
func run(injector *do.RootScope, args []string) int {
	defer shutdown(injector)
	l := do.MustInvoke[*slog.Logger](injector)
	defer crash.Recover(do.MustInvoke[*document.Store](injector))

	cmd := newRootCmd(injector)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		l.Error("command failed", slog.Any("err", err))
		cmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
