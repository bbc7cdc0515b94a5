package orchestrator

import (
	"context"
	"fmt"
	"text/tabwriter"

	"go.uber.org/zap"
)

// suggestProjects prints every known project so the user can pick a valid id
func (r *Runner) suggestProjects(ctx context.Context) {
	projects, err := r.client.FetchProjects(ctx, r.opts.PageSize)
	if err != nil {
		r.logger.Warn("Failed to list projects", zap.Int("listed", len(projects)), zap.Error(err))
	}

	if len(projects) == 0 {
		fmt.Fprintf(r.out, "Project %q was not found and no projects could be listed.\n", r.opts.ProjectID)
		return
	}

	fmt.Fprintf(r.out, "Project %q was not found. Available projects:\n\n", r.opts.ProjectID)
	tw := tabwriter.NewWriter(r.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PROJECT ID\tNAME")
	for _, p := range projects {
		fmt.Fprintf(tw, "%s\t%s\n", p.ProjectID, p.ProjectName)
	}
	if err := tw.Flush(); err != nil {
		r.logger.Warn("Failed to print project list", zap.Error(err))
	}
}
