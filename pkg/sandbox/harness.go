// Copyright 2026 Teradata
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sandbox

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/driftbench/driftbench/pkg/tasks"
)

// Resource limits applied inside the harness before the submission runs.
const (
	cpuLimitSeconds   = 2
	addressSpaceBytes = 512 * 1024 * 1024
	alarmSeconds      = 5
)

// harnessSource renders the Python runner for one evaluation. The
// submission lives in a sibling file so its syntax errors cannot corrupt
// the harness; test-case literals are embedded as JSON strings, which are
// valid Python string literals for the ASCII content the catalogue emits.
func harnessSource(submissionPath, workDir, symbol string, cases []tasks.TestCase) string {
	var caseRows strings.Builder
	for _, tc := range cases {
		in, _ := json.Marshal(tc.Input)
		want, _ := json.Marshal(tc.Expected)
		caseRows.WriteString(fmt.Sprintf("    (%s, %s),\n", in, want))
	}
	pathLit, _ := json.Marshal(submissionPath)
	dirLit, _ := json.Marshal(workDir)
	symLit, _ := json.Marshal(symbol)

	return fmt.Sprintf(`import ast
import builtins
import json
import os
import resource
import signal
import sys

SUBMISSION = %s
WORKDIR = %s
SYMBOL = %s
CASES = [
%s]

resource.setrlimit(resource.RLIMIT_CPU, (%d, %d))
resource.setrlimit(resource.RLIMIT_AS, (%d, %d))
signal.alarm(%d)


def done(obj):
    sys.stdout.write(json.dumps(obj) + "\n")
    sys.stdout.flush()
    sys.exit(0)


BANNED = {
    "subprocess", "socket", "urllib", "requests", "http",
    "ftplib", "smtplib", "shutil", "pathlib",
}


class OsProxy:
    urandom = staticmethod(os.urandom)
    name = os.name
    path = os.path
    sep = os.sep
    linesep = os.linesep

    def __getattr__(self, attr):
        raise AttributeError("os." + attr + " is not available in the sandbox")


_os_proxy = OsProxy()
_real_import = builtins.__import__


def guarded_import(name, *args, **kwargs):
    root = name.split(".")[0]
    if root in BANNED:
        raise ImportError("import blocked: " + root)
    if root == "os":
        return _os_proxy
    return _real_import(name, *args, **kwargs)


_real_open = builtins.open


def guarded_open(file, mode="r", *args, **kwargs):
    if any(flag in mode for flag in "wax+"):
        raise PermissionError("write access denied")
    path = str(file)
    if path.startswith("/") and not path.startswith(WORKDIR):
        raise PermissionError("path outside sandbox: " + path)
    return _real_open(file, mode, *args, **kwargs)


with open(SUBMISSION) as f:
    source = f.read()

builtins.__import__ = guarded_import
builtins.open = guarded_open

namespace = {}
try:
    exec(compile(source, "submission", "exec"), namespace)
except BaseException as exc:
    done({"ok": False, "stage": "compile", "error": str(exc)[:200]})

fn = namespace.get(SYMBOL)
if not callable(fn):
    done({"ok": False, "stage": "symbol", "error": "missing " + SYMBOL})

passed = 0
for raw_input, raw_expected in CASES:
    try:
        args = ast.literal_eval(raw_input)
        expected = ast.literal_eval(raw_expected)
        if fn(*args) == expected:
            passed += 1
    except BaseException:
        pass

done({"ok": True, "passed": passed, "total": len(CASES)})
`, pathLit, dirLit, symLit, caseRows.String(),
		cpuLimitSeconds, cpuLimitSeconds,
		addressSpaceBytes, addressSpaceBytes,
		alarmSeconds)
}
