/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

// Package crash turns a panic into a crash report and a snapshot of the open
// package, then terminates the process.
package crash

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"scenebuilder/internal/domain"
	applog "scenebuilder/internal/log"
	"scenebuilder/internal/storage"
	"scenebuilder/internal/version"
)

// ExitCode is the process status after a handled panic.
const ExitCode = 2

var exitFn = os.Exit

// Snapshotter yields the open package and its file path for a crash dump.
type Snapshotter interface {
	CrashSnapshot() (string, domain.Package, error)
}

// Uploader receives the rendered report, e.g. the telemetry client.
type Uploader interface {
	UploadCrash(report []byte) error
}

var (
	uploadMu sync.Mutex
	uploader Uploader
)

// SetUploader installs u for subsequent crashes; nil disables uploads.
func SetUploader(u Uploader) {
	uploadMu.Lock()
	uploader = u
	uploadMu.Unlock()
}

// Recover handles a panic in the calling goroutine.
//
//	defer crash.Recover(store)
func Recover(s Snapshotter) {
	if r := recover(); r != nil {
		Handle(r, debug.Stack(), s)
	}
}

// Handle processes a panic value already recovered by the caller, e.g. a worker.
func Handle(panicVal any, stack []byte, s Snapshotter) {
	l := applog.WithComponent("crash")
	l.Error("panic recovered", slog.Any("panic", panicVal), slog.String("stack", string(stack)))

	rep := Report{
		At:      time.Now(),
		Version: version.String(),
		Panic:   fmt.Sprint(panicVal),
		Stack:   string(stack),
	}
	var projectPath string
	if s != nil {
		path, pkg, err := s.CrashSnapshot()
		projectPath = path
		switch {
		case err != nil:
			l.Error("crash snapshot unavailable", slog.Any("err", err))
		default:
			if out, err := storage.AutosaveCrashSnapshot(path, pkg); err != nil {
				l.Error("crash snapshot failed", slog.Any("err", err))
			} else {
				rep.Snapshot = filepath.Base(out)
				l.Info("crash snapshot written", slog.String("path", out))
			}
		}
	}
	if projectPath != "" {
		rep.Project = filepath.Base(projectPath)
	}

	reportPath, err := rep.WriteTo(reportDir(projectPath))
	if err != nil {
		l.Error("crash report not written", slog.Any("err", err))
	}
	upload(l, rep.Bytes())

	fmt.Fprintf(os.Stderr, "%s crashed (%s, %s/%s).\n", applog.AppName, rep.Version, runtime.GOOS, runtime.GOARCH)
	if reportPath != "" {
		fmt.Fprintf(os.Stderr, "Crash report: %s\n", reportPath)
	}
	exitFn(ExitCode)
}

func upload(l *slog.Logger, b []byte) {
	uploadMu.Lock()
	u := uploader
	uploadMu.Unlock()
	if u == nil {
		return
	}
	if err := u.UploadCrash(b); err != nil {
		l.Warn("crash upload failed", slog.Any("err", err))
	}
}

// reportDir is the backups folder next to the project, or the temp dir for
// untitled projects.
func reportDir(projectPath string) string {
	if projectPath == "" {
		return os.TempDir()
	}
	return filepath.Join(filepath.Dir(projectPath), storage.BackupsDirName)
}

// Report is the plain-text crash report. Project and Snapshot hold base names
// only so reports can be shared without leaking directory layout.
type Report struct {
	At       time.Time
	Version  string
	Project  string
	Snapshot string
	Panic    string
	Stack    string
}

// Bytes renders the report.
func (r Report) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString("SexLab Scene Builder Crash Report\n")
	fmt.Fprintf(&b, "Timestamp: %s\n", r.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "Version: %s\n", r.Version)
	fmt.Fprintf(&b, "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	if r.Project != "" {
		fmt.Fprintf(&b, "Project: %s\n", r.Project)
	}
	if r.Snapshot != "" {
		fmt.Fprintf(&b, "Snapshot: %s\n", r.Snapshot)
	}
	fmt.Fprintf(&b, "\nPanic: %s\n\nStack:\n%s\n", r.Panic, r.Stack)
	return b.Bytes()
}

// WriteTo stores the report as crash-<timestamp>.log in dir and returns its path.
func (r Report) WriteTo(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, "crash-"+r.At.Format("20060102-150405")+".log")
	if err := os.WriteFile(path, r.Bytes(), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
