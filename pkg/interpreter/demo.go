package interpreter

import (
	"context"
	"strings"

	"github.com/avollmer/agentcore-showcase/pkg/transport"
)

// Demo fixtures written into the sandbox by the file-management demo.
const (
	demoCSVPath = "data/sales.csv"
	demoCSV     = `region,units,revenue
north,120,2400.50
south,95,1805.00
east,143,2860.75
west,88,1672.25
`

	demoScriptPath = "analyze.py"
	demoScript     = `import csv

total_units = 0
total_revenue = 0.0
with open("data/sales.csv") as f:
    for row in csv.DictReader(f):
        total_units += int(row["units"])
        total_revenue += float(row["revenue"])

print(f"total units: {total_units}")
print(f"total revenue: {total_revenue:.2f}")
`
)

// FileDemo walks through the sandbox file operations: write two files,
// list them, run the analysis script, and clean up. Progress and command
// output are streamed line by line.
func (s *Service) FileDemo(ctx context.Context, stream transport.LineStream, sessionID string) error {
	ciSessionID, err := s.ensureSession(ctx, sessionID, "python")
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}

	if err := stream.WriteLine(ctx, "Writing sales data and analysis script into the sandbox..."); err != nil {
		return err
	}
	files := []File{
		{Path: demoCSVPath, Text: demoCSV},
		{Path: demoScriptPath, Text: demoScript},
	}
	if _, err := s.runner.WriteFiles(ctx, ciSessionID, files); err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := stream.WriteLine(ctx, "Wrote data/sales.csv and analyze.py"); err != nil {
		return err
	}

	if err := stream.WriteLine(ctx, "Listing sandbox files..."); err != nil {
		return err
	}
	listing, err := s.runner.ListFiles(ctx, ciSessionID, "")
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := streamOutput(ctx, stream, listing.Output); err != nil {
		return err
	}

	if err := stream.WriteLine(ctx, "Running analyze.py..."); err != nil {
		return err
	}
	result, err := s.runner.Execute(ctx, ciSessionID, demoScript, "python")
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}
	if err := streamOutput(ctx, stream, result.Output); err != nil {
		return err
	}

	if err := stream.WriteLine(ctx, "Removing demo files..."); err != nil {
		return err
	}
	if _, err := s.runner.RemoveFiles(ctx, ciSessionID, []string{demoCSVPath, demoScriptPath}); err != nil {
		return stream.Fail(ctx, err.Error())
	}
	s.touch(ctx, sessionID)

	return stream.WriteDone(ctx, map[string]any{
		"session_id": sessionID,
		"is_error":   result.IsError,
	})
}

// shellDemoCommands are the commands the shell demo runs in order.
var shellDemoCommands = []string{
	"pwd",
	"ls -la",
	"python3 --version",
	"pip list --format=freeze | head -n 10",
	"df -h /",
}

// ShellDemo runs a fixed sequence of shell commands in the sandbox,
// streaming each command and its output.
func (s *Service) ShellDemo(ctx context.Context, stream transport.LineStream, sessionID string) error {
	ciSessionID, err := s.ensureSession(ctx, sessionID, "python")
	if err != nil {
		return stream.Fail(ctx, err.Error())
	}

	for _, cmd := range shellDemoCommands {
		if err := stream.WriteLine(ctx, "$ "+cmd); err != nil {
			return err
		}
		result, err := s.runner.ExecuteCommand(ctx, ciSessionID, cmd)
		if err != nil {
			return stream.Fail(ctx, err.Error())
		}
		if err := streamOutput(ctx, stream, result.Output); err != nil {
			return err
		}
	}
	s.touch(ctx, sessionID)

	return stream.WriteDone(ctx, map[string]any{
		"session_id": sessionID,
		"commands":   len(shellDemoCommands),
	})
}

// streamOutput writes multi-line command output as individual lines.
func streamOutput(ctx context.Context, stream transport.LineStream, output string) error {
	for _, line := range strings.Split(strings.TrimRight(output, "\n"), "\n") {
		if err := stream.WriteLine(ctx, line); err != nil {
			return err
		}
	}
	return nil
}
