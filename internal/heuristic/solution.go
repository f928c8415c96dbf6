package heuristic

import (
	"fmt"
	"regexp"
	"strings"

	"pipewise/internal/types"
)

var (
	reModuleName   = regexp.MustCompile(`No module named '([^']+)'`)
	reDeniedPath   = regexp.MustCompile(`Permission denied:?\s*'([^']+)'`)
	reMissingPath  = regexp.MustCompile(`No such file or directory:?\s*'([^']+)'`)
	reQuotedTarget = regexp.MustCompile(`'([^']+)'`)
)

// ParseSolutionText extracts a Solution plus prevention advice from prose
// shaped by the solution prompt's SOLUTION / COMMANDS / EXPLANATION /
// PREVENTION sections. Unsectioned text lands wholesale in Steps.
func ParseSolutionText(text string) (types.Solution, string) {
	var steps, explanation, prevention strings.Builder
	var commands []string

	section := ""
	for _, line := range strings.Split(text, "\n") {
		upper := strings.ToUpper(strings.TrimSpace(line))
		switch {
		case strings.HasPrefix(upper, "SOLUTION"):
			section = "solution"
			continue
		case strings.HasPrefix(upper, "COMMANDS") || strings.HasPrefix(upper, "COMMAND:"):
			section = "commands"
			continue
		case strings.HasPrefix(upper, "EXPLANATION"):
			section = "explanation"
			continue
		case strings.HasPrefix(upper, "PREVENTION"):
			section = "prevention"
			continue
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		switch section {
		case "solution":
			steps.WriteString(line + "\n")
		case "commands":
			cmd := strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-* "))
			cmd = strings.Trim(cmd, "`")
			if cmd != "" {
				commands = append(commands, cmd)
			}
		case "explanation":
			explanation.WriteString(line + "\n")
		case "prevention":
			prevention.WriteString(line + "\n")
		}
	}

	sol := types.Solution{
		Steps:       strings.TrimSpace(steps.String()),
		Commands:    commands,
		Explanation: strings.TrimSpace(explanation.String()),
	}
	if sol.Steps == "" {
		sol.Steps = strings.TrimSpace(text)
	}
	return sol, strings.TrimSpace(prevention.String())
}

// FallbackSolution builds a playbook solution from the error class and the
// raw log, with no model involvement. Commands are always non-empty.
func FallbackSolution(errType types.ErrorType, errorLog string) (types.Solution, string) {
	switch errType {
	case types.ErrPermission:
		path := firstMatch(reDeniedPath, errorLog)
		if path == "" {
			path = firstMatch(reQuotedTarget, errorLog)
		}
		if path == "" {
			path = "/opt/airflow/data"
		}
		dir := parentDir(path)
		return types.Solution{
			Steps: "1. Identify the file the task cannot access.\n" +
				"2. Grant the pipeline user read access to it.\n" +
				"3. Re-run the failed task.",
			Commands: []string{
				fmt.Sprintf("ls -l %s", path),
				fmt.Sprintf("sudo chown -R airflow:airflow %s", dir),
				fmt.Sprintf("sudo chmod 644 %s", path),
			},
			Explanation: "The task process lacks filesystem permission on " + path + "; fixing ownership and mode lets the open call succeed.",
		}, "Provision data directories with the pipeline service account as owner before deploying DAGs."
	case types.ErrModuleNotFound, types.ErrImport:
		module := firstMatch(reModuleName, errorLog)
		if module == "" {
			module = "the-missing-package"
		}
		return types.Solution{
			Steps: "1. Install the missing package in the environment the task runs in.\n" +
				"2. Restart the workers so they pick up the new package.\n" +
				"3. Re-run the failed task.",
			Commands: []string{
				fmt.Sprintf("pip install %s", module),
				fmt.Sprintf("python -c \"import %s\"", module),
			},
			Explanation: "The import fails because " + module + " is not installed where the task executes.",
		}, "Pin task dependencies in requirements.txt and install them in the worker image build."
	case types.ErrConnection:
		return types.Solution{
			Steps: "1. Check that the target service is up and reachable from the worker.\n" +
				"2. Verify host, port, and credentials in the connection settings.\n" +
				"3. Re-run the failed task.",
			Commands: []string{
				"ping -c 3 <service-host>",
				"curl -v telnet://<service-host>:<port>",
				"systemctl status <service>",
			},
			Explanation: "The task could not open a network connection; the endpoint is down, unreachable, or misconfigured.",
		}, "Add a connectivity healthcheck upstream of tasks that depend on external services."
	case types.ErrFileNotFound:
		path := firstMatch(reMissingPath, errorLog)
		if path == "" {
			path = firstMatch(reQuotedTarget, errorLog)
		}
		if path == "" {
			path = "<expected-path>"
		}
		return types.Solution{
			Steps: "1. Confirm the expected input file exists at the path the task reads.\n" +
				"2. Create the directory or fix the producing task.\n" +
				"3. Re-run the failed task.",
			Commands: []string{
				fmt.Sprintf("ls -l %s", parentDir(path)),
				fmt.Sprintf("mkdir -p %s", parentDir(path)),
			},
			Explanation: "The task reads " + path + " but nothing produced it before the task ran.",
		}, "Declare upstream tasks (or sensors) for every file a task consumes."
	case types.ErrSyntax:
		return types.Solution{
			Steps: "1. Compile the DAG file locally to locate the offending line.\n" +
				"2. Fix the syntax and redeploy.",
			Commands: []string{
				"python -m py_compile <dag-file>.py",
			},
			Explanation: "The DAG file fails to parse, so no task in it can run.",
		}, "Lint and compile DAG files in CI before deploying them."
	default:
		return types.Solution{
			Steps: "1. Inspect the full task log for the first failing line.\n" +
				"2. Reproduce the task in isolation to narrow the fault.",
			Commands: []string{
				"airflow tasks test <dag-id> <task-id> <logical-date>",
			},
			Explanation: "The log did not match a known failure class; manual inspection is required.",
		}, "Review code before deployment."
	}
}

// FallbackRootCause produces a short root-cause statement without a model.
func FallbackRootCause(c types.Classification) string {
	where := c.Component
	if where == "" {
		where = "the failing task"
	}
	switch c.ErrorType {
	case types.ErrUnknown:
		return "Unable to determine a root cause from the log; no known exception class matched."
	default:
		cause := string(c.ErrorType) + " raised in " + where
		if c.Matched != "" {
			cause += " (" + c.Matched + ")"
		}
		return cause
	}
}

func firstMatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func parentDir(path string) string {
	if i := strings.LastIndex(path, "/"); i > 0 {
		return path[:i]
	}
	return path
}
