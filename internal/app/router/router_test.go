package router_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/adapters/docenc"
	"github.com/PabloGalante/staffdesk/internal/adapters/storage/memory"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/app/toolcall"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

const projectID domain.ProjectID = "proj-rebrand"

func newRouter(t *testing.T) (*router.Router, *memory.Workspace) {
	t.Helper()
	ws := memory.NewWorkspace(domain.WorkspaceSeed{
		Employees: []domain.Employee{{ID: "emp-pm", Name: "Ines", Role: "Project Manager"}},
		Projects: []domain.Project{{
			ID:   projectID,
			Name: "Rebrand",
			Phases: []domain.Phase{{
				ID: "ph-research", Name: "Research",
				StartDate: time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC),
				EndDate:   time.Date(2024, 12, 20, 0, 0, 0, 0, time.UTC),
			}},
		}},
	})
	return router.NewForWorkspace(ws, docenc.New()), ws
}

var target = router.Target{EmployeeID: "emp-pm", ProjectID: projectID}

func pmAction(op string, data string) *domain.TriggeredAction {
	return &domain.TriggeredAction{
		ID:      domain.NewActionID(),
		Kind:    domain.ActionProjectManagement,
		Payload: json.RawMessage(`{"operation":"` + op + `","data":` + data + `}`),
		State:   domain.ActionPending,
	}
}

func phases(t *testing.T, ws *memory.Workspace) []domain.Phase {
	t.Helper()
	p, err := ws.Project(context.Background(), projectID)
	require.NoError(t, err)
	return p.Phases
}

func TestApproveAddPhase(t *testing.T) {
	r, ws := newRouter(t)

	out, err := r.Approve(context.Background(), target,
		pmAction("add_phase", `{"name":"Design","startDate":"2025-01-01","endDate":"2025-02-01"}`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCommitted, out.State)
	require.NotNil(t, out.Message)
	assert.True(t, out.Message.System)
	assert.Contains(t, out.Message.Text, "Design")

	got := phases(t, ws)
	require.Len(t, got, 2)
	assert.Equal(t, "Design", got[1].Name)
}

func TestApproveAddPhaseMissingEndDate(t *testing.T) {
	r, ws := newRouter(t)

	out, err := r.Approve(context.Background(), target,
		pmAction("add_phase", `{"name":"Design","startDate":"2025-01-01"}`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionRejected, out.State)
	require.NotNil(t, out.Message)
	assert.Contains(t, out.Message.Text, "endDate")
	assert.Len(t, phases(t, ws), 1)
}

func TestApproveUpdateUnknownPhase(t *testing.T) {
	r, ws := newRouter(t)

	out, err := r.Approve(context.Background(), target,
		pmAction("update_phase", `{"phaseId":"does-not-exist","updates":{"name":"Renamed"}}`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionRejected, out.State)
	assert.Contains(t, out.Message.Text, "does-not-exist")
	assert.Equal(t, "Research", phases(t, ws)[0].Name)
}

func TestApproveDeletePhase(t *testing.T) {
	r, ws := newRouter(t)

	out, err := r.Approve(context.Background(), target, pmAction("delete_phase", `{"phaseId":"ph-research"}`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCommitted, out.State)
	assert.Contains(t, out.Message.Text, "Research")
	assert.Empty(t, phases(t, ws))
}

func TestApproveAddMultiplePhasesCountsApplied(t *testing.T) {
	r, ws := newRouter(t)

	out, err := r.Approve(context.Background(), target, pmAction("add_multiple_phases", `[
		{"name":"Design","startDate":"2025-01-01","endDate":"2025-02-01"},
		{"name":"Build","endDate":"2025-03-01"},
		{"name":"Launch","startDate":"2025-03-02","endDate":"2025-03-10"}
	]`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCommitted, out.State)
	assert.Contains(t, out.Message.Text, "2")
	assert.Len(t, phases(t, ws), 3)
}

func TestApproveBudgetAndExpense(t *testing.T) {
	r, ws := newRouter(t)
	ctx := context.Background()

	out, err := r.Approve(ctx, target, pmAction("set_budget", `{"total":"a lot"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRejected, out.State)

	out, err = r.Approve(ctx, target, pmAction("set_budget", `{"total":25000}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCommitted, out.State)

	out, err = r.Approve(ctx, target, pmAction("add_expense", `{"amount":300,"description":"Fonts"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCommitted, out.State)

	p, err := ws.Project(ctx, projectID)
	require.NoError(t, err)
	assert.InDelta(t, 25000, p.Budget.Total, 0.001)
	require.Len(t, p.Budget.Expenses, 1)
	assert.Equal(t, toolcall.DefaultExpenseCategory, p.Budget.Expenses[0].Category)
	assert.False(t, p.Budget.Expenses[0].Date.IsZero())
}

func TestApproveUnknownOperation(t *testing.T) {
	r, _ := newRouter(t)

	out, err := r.Approve(context.Background(), target, pmAction("archive_project", `{}`))
	require.NoError(t, err)

	assert.Equal(t, domain.ActionRejected, out.State)
	assert.Contains(t, out.Message.Text, "archive_project")
}

func TestApproveIsOneShot(t *testing.T) {
	r, ws := newRouter(t)
	action := pmAction("add_phase", `{"name":"Design","startDate":"2025-01-01","endDate":"2025-02-01"}`)

	_, err := r.Approve(context.Background(), target, action)
	require.NoError(t, err)

	_, err = r.Approve(context.Background(), target, action)
	assert.ErrorIs(t, err, domain.ErrActionResolved)
	assert.Len(t, phases(t, ws), 2)
}

func TestApproveReleaseKeepsStoredStateAuthoritative(t *testing.T) {
	r, ws := newRouter(t)
	action := pmAction("add_phase", `{"name":"Design","startDate":"2025-01-01","endDate":"2025-02-01"}`)

	out, err := r.Approve(context.Background(), target, action)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Claims())

	action.State = out.State
	r.Release(action.ID)
	assert.Zero(t, r.Claims())

	_, err = r.Approve(context.Background(), target, action)
	assert.ErrorIs(t, err, domain.ErrActionResolved)
	assert.Len(t, phases(t, ws), 2)
	assert.Zero(t, r.Claims())
}

func TestApproveCalendarEvent(t *testing.T) {
	r, ws := newRouter(t)
	ctx := context.Background()

	out, err := r.Approve(ctx, target, &domain.TriggeredAction{
		ID:      domain.NewActionID(),
		Kind:    domain.ActionCalendarEvent,
		Payload: json.RawMessage(`{"title":"Kickoff","start":"2025-01-06T10:00:00Z","attendees":["Ines"]}`),
		State:   domain.ActionPending,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCommitted, out.State)
	assert.Contains(t, out.Message.Text, "Kickoff")

	events, err := ws.CalendarEvents(ctx)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Kickoff", events[0].Title)
	assert.Equal(t, time.Hour, events[0].End.Sub(events[0].Start))
	assert.Equal(t, []string{"Ines"}, events[0].Attendees)
}

func taskAction(payload string) *domain.TriggeredAction {
	return &domain.TriggeredAction{
		ID:      domain.NewActionID(),
		Kind:    domain.ActionTask,
		Payload: json.RawMessage(payload),
		State:   domain.ActionPending,
	}
}

func TestApproveTaskWithAssignee(t *testing.T) {
	r, ws := newRouter(t)
	ctx := context.Background()

	out, err := r.Approve(ctx, target, taskAction(`{"title":"Draft moodboard","assigneeId":"emp-pm","dueDate":"2025-01-10"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCommitted, out.State)
	assert.Contains(t, out.Message.Text, "Draft moodboard")
	assert.Contains(t, out.Message.Text, "Ines")

	tasks, err := ws.Tasks(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, domain.EmployeeID("emp-pm"), tasks[0].AssigneeID)
	assert.Equal(t, projectID, tasks[0].ProjectID)
	assert.Equal(t, "medium", tasks[0].Priority)
}

func TestApproveTaskUnknownAssigneeRefused(t *testing.T) {
	r, ws := newRouter(t)
	ctx := context.Background()

	out, err := r.Approve(ctx, target, taskAction(`{"title":"Draft moodboard","assigneeId":"emp-ghost"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRejected, out.State)
	assert.Contains(t, out.Message.Text, "emp-ghost")

	tasks, err := ws.Tasks(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestApproveRequiresDataMutation(t *testing.T) {
	r, _ := newRouter(t)

	_, err := r.Approve(context.Background(), target, &domain.TriggeredAction{
		ID: "a1", Kind: domain.ActionChart, State: domain.ActionPreview,
	})
	assert.ErrorIs(t, err, router.ErrNotApprovable)
}

func TestProposeMarksInvalidMutationRejected(t *testing.T) {
	r, _ := newRouter(t)
	ex := toolcall.Extract(`{"action":"project_management","payload":{"operation":"add_phase","data":{"name":"Design"}},"text":"Adding it."}`)

	p, err := r.Propose(context.Background(), target, ex)
	require.NoError(t, err)

	require.NotNil(t, p.Reply.Action)
	assert.Equal(t, domain.ActionRejected, p.Reply.Action.State)
	assert.NotEmpty(t, p.Reply.Action.Reason)
	assert.Equal(t, "Adding it.", p.Reply.Text)
	assert.Nil(t, p.Payload)
	require.Len(t, p.Notices, 1)
	assert.True(t, p.Notices[0].System)
	assert.Contains(t, p.Notices[0].Text, "Nothing was changed")
	assert.Contains(t, p.Notices[0].Text, "endDate")
}

func TestProposeInvalidCanvasHasNoNotice(t *testing.T) {
	r, _ := newRouter(t)
	ex := toolcall.Extract(`{"action":"chart","payload":{"title":"Burn"},"text":"Charting."}`)

	p, err := r.Propose(context.Background(), target, ex)
	require.NoError(t, err)

	require.NotNil(t, p.Reply.Action)
	assert.Equal(t, domain.ActionRejected, p.Reply.Action.State)
	assert.Empty(t, p.Notices)
}

func TestProposeRejectsKindOutsideEmployeeTools(t *testing.T) {
	r, ws := newRouter(t)
	writer := router.Target{EmployeeID: "emp-pm", ProjectID: projectID, Tools: []domain.ActionKind{domain.ActionWord}}
	ex := toolcall.Extract(`{"action":"project_management","payload":{"operation":"set_budget","data":{"total":9000}},"text":"Budget set."}`)

	p, err := r.Propose(context.Background(), writer, ex)
	require.NoError(t, err)
	require.NotNil(t, p.Reply.Action)
	assert.Equal(t, domain.ActionRejected, p.Reply.Action.State)
	assert.Contains(t, p.Reply.Action.Reason, "project_management")
	assert.Nil(t, p.Payload)
	require.Len(t, p.Notices, 1)

	out, err := r.Approve(context.Background(), writer, pmAction("set_budget", `{"total":9000}`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionRejected, out.State)
	require.NotNil(t, out.Message)
	assert.Contains(t, out.Message.Text, "Nothing was changed")

	proj, err := ws.Project(context.Background(), projectID)
	require.NoError(t, err)
	assert.Zero(t, proj.Budget.Total)
}

func TestProposeAllowsKindInEmployeeTools(t *testing.T) {
	r, _ := newRouter(t)
	writer := router.Target{EmployeeID: "emp-pm", ProjectID: projectID, Tools: []domain.ActionKind{domain.ActionWord}}
	ex := toolcall.Extract(`{"action":"word","payload":{"title":"Brief","content":"Hello"},"text":"Drafted."}`)

	p, err := r.Propose(context.Background(), writer, ex)
	require.NoError(t, err)
	require.NotNil(t, p.Reply.Action)
	assert.Equal(t, domain.ActionPending, p.Reply.Action.State)
}

func TestProposeImageIsPending(t *testing.T) {
	r, _ := newRouter(t)
	ex := toolcall.Extract(`{"action":"image","payload":{"prompt":"a fox logo"},"text":"On it."}`)

	p, err := r.Propose(context.Background(), target, ex)
	require.NoError(t, err)

	assert.True(t, p.Reply.HasPendingImage())
}

func TestProposeDocumentAutoPersists(t *testing.T) {
	r, ws := newRouter(t)
	ex := toolcall.Extract(`{"action":"document","payload":{"fileName":"notes.md","mimeType":"text/markdown","content":"# Notes"},"text":"Saved the notes."}`)

	p, err := r.Propose(context.Background(), target, ex)
	require.NoError(t, err)

	assert.Equal(t, domain.ActionCommitted, p.Reply.Action.State)
	require.Len(t, p.Notices, 1)
	assert.Contains(t, p.Notices[0].Text, "notes.md")

	proj, err := ws.Project(context.Background(), projectID)
	require.NoError(t, err)
	require.Len(t, proj.Files, 1)
	assert.Equal(t, "text/markdown", proj.Files[0].MIMEType)
	assert.Equal(t, "Generated", proj.Files[0].Folder)
}

func TestProposeDocumentDroppedOutsideProject(t *testing.T) {
	r, _ := newRouter(t)
	ex := toolcall.Extract(`{"action":"document","payload":{"fileName":"notes.md","content":"# Notes"},"text":"Here."}`)

	p, err := r.Propose(context.Background(), router.Target{EmployeeID: "emp-pm"}, ex)
	require.NoError(t, err)

	assert.Nil(t, p.Reply.Action)
	assert.Empty(t, p.Notices)
	assert.Equal(t, "Here.", p.Reply.Text)
}

func TestSaveAndDownloadDocument(t *testing.T) {
	r, ws := newRouter(t)
	ctx := context.Background()
	action := &domain.TriggeredAction{
		ID:      domain.NewActionID(),
		Kind:    domain.ActionWord,
		Payload: json.RawMessage(`{"fileName":"brief.docx","title":"Brief","content":"Hello"}`),
		State:   domain.ActionPending,
	}

	file, err := r.Download(ctx, action)
	require.NoError(t, err)
	assert.Equal(t, "brief.md", file.FileName)
	docs, _ := ws.GeneratedDocuments(ctx)
	assert.Empty(t, docs)

	out, saved, err := r.Save(ctx, target, action)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSaved, out.State)
	assert.Contains(t, out.Message.Text, "brief.md")
	assert.Equal(t, file.Data, saved.Data)

	docs, _ = ws.GeneratedDocuments(ctx)
	require.Len(t, docs, 1)
	assert.Equal(t, domain.EmployeeID("emp-pm"), docs[0].AuthorID)

	_, _, err = r.Save(ctx, target, action)
	assert.ErrorIs(t, err, domain.ErrActionResolved)
}
