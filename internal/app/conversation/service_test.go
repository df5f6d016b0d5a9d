package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/adapters/docenc"
	"github.com/PabloGalante/staffdesk/internal/adapters/llm"
	"github.com/PabloGalante/staffdesk/internal/adapters/storage/memory"
	"github.com/PabloGalante/staffdesk/internal/app/conversation"
	"github.com/PabloGalante/staffdesk/internal/app/router"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

const projectID domain.ProjectID = "proj-web"

type fixture struct {
	svc   *conversation.Service
	mock  *llm.MockLLM
	ws    *memory.Workspace
	store *memory.ConversationStore
}

func newFixture(t *testing.T, opts conversation.Options) *fixture {
	t.Helper()
	ws := memory.NewWorkspace(domain.WorkspaceSeed{
		Company: domain.CompanyProfile{Name: "Northwind"},
		Employees: []domain.Employee{
			{ID: "emp-ana", Name: "Ana", Role: "Project Manager", Morale: 50},
			{ID: "emp-bruno", Name: "Bruno", Role: "Accountant", Morale: 98},
			{ID: "emp-dana", Name: "Dana", Role: "Copywriter", Tools: []domain.ActionKind{domain.ActionWord}},
		},
		Projects: []domain.Project{{ID: projectID, Name: "Website"}},
	})
	mock := llm.NewMockLLM()
	store := memory.NewConversationStore()
	svc := conversation.NewService(mock, store, ws, router.NewForWorkspace(ws, docenc.New()), opts)
	return &fixture{svc: svc, mock: mock, ws: ws, store: store}
}

func (f *fixture) replies(texts ...string) {
	var n atomic.Int32
	f.mock.Reply = func(context.Context, []*domain.Message, string) (string, error) {
		i := int(n.Add(1)) - 1
		if i >= len(texts) {
			return "ok", nil
		}
		return texts[i], nil
	}
}

var (
	general = domain.ConversationKey{EmployeeID: "emp-ana", ContextID: domain.GeneralContext}
	project = domain.ConversationKey{EmployeeID: "emp-ana", ContextID: domain.ProjectContext(projectID)}
)

func send(t *testing.T, f *fixture, key domain.ConversationKey, text string) *conversation.Turn {
	t.Helper()
	turn, err := f.svc.SendMessage(context.Background(), conversation.SendMessageInput{Key: key, Text: text})
	require.NoError(t, err)
	return turn
}

func TestOpenSeedsFreshConversationOnce(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies("Hi! How can I help?")
	ctx := context.Background()

	conv, err := f.svc.Open(ctx, general)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, "Hello.", conv.Messages[0].Text)
	assert.Equal(t, domain.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "Hi! How can I help?", conv.Messages[1].Text)

	again, err := f.svc.Open(ctx, general)
	require.NoError(t, err)
	assert.Len(t, again.Messages, 2)
	assert.Len(t, f.mock.Calls(), 1)
}

func TestOpenEmptyContextMeansGeneral(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	ctx := context.Background()

	_, err := f.svc.Open(ctx, domain.ConversationKey{EmployeeID: "emp-ana"})
	require.NoError(t, err)
	_, err = f.svc.Open(ctx, general)
	require.NoError(t, err)
	assert.Len(t, f.mock.Calls(), 1)
}

func TestOpenConcurrentSeedsOnce(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	release := make(chan struct{})
	f.mock.Reply = func(context.Context, []*domain.Message, string) (string, error) {
		<-release
		return "Hi!", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Open(context.Background(), general)
			assert.NoError(t, err)
		}()
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	msgs, err := f.store.GetMessages(context.Background(), general)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
	assert.Len(t, f.mock.Calls(), 1)
}

func TestOpenSeedFailureAllowsRetry(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	fail := true
	f.mock.Reply = func(context.Context, []*domain.Message, string) (string, error) {
		if fail {
			return "", &domain.ServiceError{Op: "chat", Message: "the model is overloaded"}
		}
		return "Hi!", nil
	}
	ctx := context.Background()

	conv, err := f.svc.Open(ctx, general)
	require.NoError(t, err)
	assert.Empty(t, conv.Messages)
	require.NotNil(t, conv.Notice)
	assert.Contains(t, conv.Notice.Text, "the model is overloaded")

	fail = false
	conv, err = f.svc.Open(ctx, general)
	require.NoError(t, err)
	assert.Len(t, conv.Messages, 2)
}

func TestOpenUnknownEmployee(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	_, err := f.svc.Open(context.Background(), domain.ConversationKey{EmployeeID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestConversationsAreIndependent(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	send(t, f, general, "general question")
	send(t, f, project, "project question")

	ctx := context.Background()
	g, err := f.store.GetMessages(ctx, general)
	require.NoError(t, err)
	p, err := f.store.GetMessages(ctx, project)
	require.NoError(t, err)

	require.Len(t, g, 2)
	require.Len(t, p, 2)
	assert.Equal(t, "general question", g[0].Text)
	assert.Equal(t, "project question", p[0].Text)
}

func TestSendMessagePlainReply(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies("Sure, here is an idea.")

	turn := send(t, f, general, "Any ideas?")
	assert.Equal(t, "Any ideas?", turn.UserMessage.Text)
	require.Len(t, turn.Replies, 1)
	assert.Equal(t, "Sure, here is an idea.", turn.Replies[0].Text)
	assert.Nil(t, turn.Replies[0].Action)
}

func TestSendMessageGatewayFailureApologizes(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.mock.Reply = func(context.Context, []*domain.Message, string) (string, error) {
		return "", &domain.ServiceError{Op: "chat", Message: "quota exceeded"}
	}

	turn := send(t, f, general, "hello?")
	require.Len(t, turn.Replies, 1)
	assert.Contains(t, turn.Replies[0].Text, "quota exceeded")

	msgs, err := f.store.GetMessages(context.Background(), general)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)
}

func TestSendMessageHistoryWindow(t *testing.T) {
	f := newFixture(t, conversation.Options{HistoryLimit: 3})
	for i := 0; i < 4; i++ {
		send(t, f, general, "turn")
	}
	calls := f.mock.Calls()
	require.Len(t, calls, 4)
	assert.Len(t, calls[3].History, 3)

	msgs, err := f.store.GetMessages(context.Background(), general)
	require.NoError(t, err)
	assert.Len(t, msgs, 8)
}

const addDesign = "Adding it now.\n```json\n" +
	`{"action":"project_management","payload":{"operation":"add_phase","data":{"name":"Design","startDate":"2025-01-01","endDate":"2025-02-01"}},"text":"Adding a Design phase."}` +
	"\n```"

func TestApproveAppliesOnce(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(addDesign)
	ctx := context.Background()

	turn := send(t, f, project, "Add a design phase")
	require.Len(t, turn.Replies, 1)
	proposal := turn.Replies[0]
	require.NotNil(t, proposal.Action)
	assert.Equal(t, domain.ActionPending, proposal.Action.State)

	review, err := f.svc.Approve(ctx, project, proposal.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionCommitted, review.Message.Action.State)
	require.NotNil(t, review.Notice)
	assert.Contains(t, review.Notice.Text, "Design")

	_, err = f.svc.Approve(ctx, project, proposal.ID)
	assert.ErrorIs(t, err, domain.ErrActionResolved)

	p, err := f.ws.Project(ctx, projectID)
	require.NoError(t, err)
	assert.Len(t, p.Phases, 1)

	msgs, err := f.store.GetMessages(ctx, project)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.True(t, msgs[2].System)
}

func TestSendMessageInvalidChangeExplainsNothingChanged(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies("Adding it.\n```json\n" +
		`{"action":"project_management","payload":{"operation":"add_phase","data":{"name":"Design","startDate":"2025-01-01"}},"text":"Adding a Design phase."}` +
		"\n```")
	ctx := context.Background()

	turn := send(t, f, project, "Add a design phase")
	require.Len(t, turn.Replies, 2)
	assert.Equal(t, domain.ActionRejected, turn.Replies[0].Action.State)
	assert.False(t, turn.Replies[0].System)
	assert.True(t, turn.Replies[1].System)
	assert.Contains(t, turn.Replies[1].Text, "endDate")

	_, err := f.svc.Approve(ctx, project, turn.Replies[0].ID)
	assert.ErrorIs(t, err, domain.ErrActionResolved)

	p, err := f.ws.Project(ctx, projectID)
	require.NoError(t, err)
	assert.Empty(t, p.Phases)
}

func TestSendMessageKindOutsideToolsIsRejected(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies("Done.\n```json\n" +
		`{"action":"project_management","payload":{"operation":"set_budget","data":{"total":9000}},"text":"Setting the budget."}` +
		"\n```")
	ctx := context.Background()
	key := domain.ConversationKey{EmployeeID: "emp-dana", ContextID: domain.ProjectContext(projectID)}

	turn := send(t, f, key, "Set the budget to 9000")
	require.Len(t, turn.Replies, 2)
	assert.Equal(t, domain.ActionRejected, turn.Replies[0].Action.State)
	assert.True(t, turn.Replies[1].System)

	_, err := f.svc.Approve(ctx, key, turn.Replies[0].ID)
	assert.ErrorIs(t, err, domain.ErrActionResolved)

	p, err := f.ws.Project(ctx, projectID)
	require.NoError(t, err)
	assert.Zero(t, p.Budget.Total)
}

func TestApproveReleasesClaimOnceSettled(t *testing.T) {
	ws := memory.NewWorkspace(domain.WorkspaceSeed{
		Employees: []domain.Employee{{ID: "emp-ana", Name: "Ana", Role: "Project Manager"}},
		Projects:  []domain.Project{{ID: projectID, Name: "Website"}},
	})
	rt := router.NewForWorkspace(ws, docenc.New())
	mock := llm.NewMockLLM()
	mock.Reply = func(context.Context, []*domain.Message, string) (string, error) { return addDesign, nil }
	svc := conversation.NewService(mock, memory.NewConversationStore(), ws, rt, conversation.Options{})
	ctx := context.Background()

	turn, err := svc.SendMessage(ctx, conversation.SendMessageInput{Key: project, Text: "Add a design phase"})
	require.NoError(t, err)

	_, err = svc.Approve(ctx, project, turn.Replies[0].ID)
	require.NoError(t, err)
	assert.Zero(t, rt.Claims())

	_, err = svc.Approve(ctx, project, turn.Replies[0].ID)
	assert.ErrorIs(t, err, domain.ErrActionResolved)
}

func TestApproveMessageWithoutAction(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	turn := send(t, f, project, "hi")
	_, err := f.svc.Approve(context.Background(), project, turn.Replies[0].ID)
	assert.ErrorIs(t, err, domain.ErrNoAction)
}

func collaborate(colleague string) string {
	return "Let me check with finance.\n```json\n" +
		`{"action":"collaborate","payload":{"colleagueId":"` + colleague + `","question":"What is the Q3 budget?"},"text":"Asking Bruno."}` +
		"\n```"
}

const finalWithTask = "Bruno says 40k.\n```json\n" +
	`{"action":"task","payload":{"title":"Review Q3 budget","assigneeId":"emp-bruno"},"text":"Creating a review task."}` +
	"\n```"

func TestCollaborationMakesTwoMoreCalls(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(collaborate("emp-bruno"), "About 40k.", finalWithTask)

	turn := send(t, f, general, "Plan Q3")

	calls := f.mock.Calls()
	require.Len(t, calls, 3)
	assert.Contains(t, calls[1].Instruction, "You are Bruno")
	require.Len(t, calls[1].History, 1)
	assert.Equal(t, "What is the Q3 budget?", calls[1].History[0].Text)
	assert.Contains(t, calls[2].Instruction, "You are Ana")
	last := calls[2].History[len(calls[2].History)-1]
	assert.Contains(t, last.Text, "About 40k.")

	require.Len(t, turn.Replies, 2)
	assert.Equal(t, "Asking Bruno.", turn.Replies[0].Text)
	assert.Nil(t, turn.Replies[0].Action)

	final := turn.Replies[1]
	assert.Equal(t, "Creating a review task.", final.Text)
	require.NotNil(t, final.Action)
	assert.Equal(t, domain.ActionTask, final.Action.Kind)
	assert.Equal(t, domain.ActionPending, final.Action.State)
}

func TestCollaborationIsNotRecursive(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(collaborate("emp-bruno"), "Ask someone else.", collaborate("emp-bruno"))

	turn := send(t, f, general, "Plan Q3")
	assert.Len(t, f.mock.Calls(), 3)
	final := turn.Replies[len(turn.Replies)-1]
	assert.Nil(t, final.Action)
}

func TestCollaborationUnknownColleague(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(collaborate("emp-ghost"))

	turn := send(t, f, general, "Plan Q3")
	assert.Len(t, f.mock.Calls(), 1)
	require.Len(t, turn.Replies, 1)
	assert.True(t, turn.Replies[0].System)
	assert.Contains(t, turn.Replies[0].Text, "emp-ghost")
}

func TestCollaborationColleagueFailure(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	var n atomic.Int32
	f.mock.Reply = func(context.Context, []*domain.Message, string) (string, error) {
		if n.Add(1) == 1 {
			return collaborate("emp-bruno"), nil
		}
		return "", errors.New("boom")
	}

	turn := send(t, f, general, "Plan Q3")
	require.Len(t, turn.Replies, 2)
	assert.True(t, strings.HasPrefix(turn.Replies[1].Text, "Sorry"))
}

func TestImageFilledImmediately(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(`Here you go. {"action":"image","payload":{"prompt":"a lighthouse"},"text":"Drawing."}`)

	turn := send(t, f, general, "Draw a lighthouse")
	require.Len(t, turn.Replies, 1)
	msg := turn.Replies[0]
	require.NotNil(t, msg.Image)
	assert.Equal(t, domain.ImageReady, msg.Image.Status)
	assert.Equal(t, domain.ActionCommitted, msg.Action.State)
	assert.Equal(t, []string{"a lighthouse"}, f.mock.ImagePrompts())
}

const wordDoc = "Draft below.\n```json\n" +
	`{"action":"word","payload":{"fileName":"plan","title":"Plan","content":"Hello"},"text":"Drafted."}` +
	"\n```"

func TestSaveAndDownload(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	f.replies(wordDoc)
	ctx := context.Background()

	turn := send(t, f, project, "Write a plan")
	id := turn.Replies[0].ID

	file, err := f.svc.Download(ctx, project, id)
	require.NoError(t, err)
	assert.Equal(t, "plan.md", file.FileName)
	docs, err := f.ws.GeneratedDocuments(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)

	review, err := f.svc.Save(ctx, project, id)
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSaved, review.Message.Action.State)
	require.NotNil(t, review.File)

	docs, err = f.ws.GeneratedDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, projectID, docs[0].ProjectID)

	_, err = f.svc.Save(ctx, project, id)
	assert.ErrorIs(t, err, domain.ErrActionResolved)
}

func TestPraiseRaisesMoraleOnce(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	ctx := context.Background()
	turn := send(t, f, general, "thanks")
	id := turn.Replies[0].ID

	msg, err := f.svc.Praise(ctx, general, id, true)
	require.NoError(t, err)
	assert.True(t, msg.Praised)
	_, err = f.svc.Praise(ctx, general, id, true)
	require.NoError(t, err)

	emp, err := f.ws.Employee(ctx, "emp-ana")
	require.NoError(t, err)
	assert.Equal(t, 55, emp.Morale)

	msg, err = f.svc.Praise(ctx, general, id, false)
	require.NoError(t, err)
	assert.False(t, msg.Praised)
	emp, err = f.ws.Employee(ctx, "emp-ana")
	require.NoError(t, err)
	assert.Equal(t, 55, emp.Morale)

	_, err = f.svc.Praise(ctx, general, turn.UserMessage.ID, true)
	assert.ErrorIs(t, err, domain.ErrInvalid)
}

func TestPraiseCapsMorale(t *testing.T) {
	f := newFixture(t, conversation.Options{})
	ctx := context.Background()
	key := domain.ConversationKey{EmployeeID: "emp-bruno"}
	turn := send(t, f, key, "great work")

	_, err := f.svc.Praise(ctx, key, turn.Replies[0].ID, true)
	require.NoError(t, err)
	emp, err := f.ws.Employee(ctx, "emp-bruno")
	require.NoError(t, err)
	assert.Equal(t, 100, emp.Morale)
}
