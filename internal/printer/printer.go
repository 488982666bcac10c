// Package printer renders runs and run workspaces for the non interactive commands.
package printer

import (
	"github.com/slok/runview/internal/model"
	"github.com/slok/runview/internal/workspace"
)

// Printer knows how to print run information in different formats.
type Printer interface {
	PrintRuns(runs []model.Run) error
	PrintRun(run model.Run) error
	PrintStatus(v workspace.View) error
	PrintNodes(v workspace.View) error
	PrintArtifacts(v workspace.View) error
	PrintMessage(msg string) error
}
