package worker

import (
	"github.com/spec-kit/triage-service/internal/config"
	"github.com/spec-kit/triage-service/internal/events"
	"github.com/spec-kit/triage-service/internal/workflow"
)

// Workflows bundles the handlers registered on the event bus.
type Workflows struct {
	TicketCreate   *workflow.TicketCreateWorkflow
	CommentAnalyze *workflow.CommentAnalyzeWorkflow
	UserSignup     *workflow.UserSignupWorkflow
}

// RegisterWorkflows subscribes each triage workflow with its configured
// redelivery budget. One handler per event type.
func RegisterWorkflows(bus events.Bus, runner *workflow.Runner, cfg config.WorkflowConfig, wf Workflows) {
	bus.Subscribe(events.EventTicketCreated,
		runner.Handler(workflow.TicketCreateName, cfg.TicketCreateRetries, wf.TicketCreate.Run))
	bus.Subscribe(events.EventCommentAnalyze,
		runner.Handler(workflow.CommentAnalyzeName, cfg.CommentAnalyzeRetries, wf.CommentAnalyze.Run))
	bus.Subscribe(events.EventUserSignup,
		runner.Handler(workflow.UserSignupName, cfg.UserSignupRetries, wf.UserSignup.Run))
}
