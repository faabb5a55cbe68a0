package workflows

import (
	"go.temporal.io/sdk/workflow"

	"docflow/internal/activities"
)

// ProjectGraphRebuildWorkflow recomputes the similarity graph for a project,
// independent of any single document's ingestion.
func ProjectGraphRebuildWorkflow(ctx workflow.Context, input ProjectGraphRebuildInput) (activities.BuildGraphOutput, error) {
	ctx = workflow.WithActivityOptions(ctx, defaultActivityOptions())
	var a *activities.Activities

	var out activities.BuildGraphOutput
	err := workflow.ExecuteActivity(ctx, a.BuildGraphActivity, activities.BuildGraphInput{
		ProjectID: input.ProjectID,
	}).Get(ctx, &out)
	return out, err
}
