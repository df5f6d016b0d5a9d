package instruction

import (
	"fmt"
	"strings"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// toolContract is the exact shape the extractor accepts.
const toolContract = "## Tools\n" +
	"Most replies are plain conversation. When the user asks for something one of the tools below " +
	"produces, reply with exactly one fenced json block and nothing else:\n" +
	"```json\n" +
	`{"action": "<tool name>", "payload": { ... }, "text": "<what you say to the user>"}` + "\n" +
	"```\n" +
	"All three fields are required. Dates use YYYY-MM-DD (or YYYY-MM-DDTHH:MM for times). " +
	"Numbers are plain JSON numbers, never strings. Changes to data are shown to the user for approval first."

var toolDocs = map[domain.ActionKind]string{
	domain.ActionWord:  `word: a Word document. payload {"fileName", "title", "sections": [{"heading", "body"}]} or {"fileName", "title", "content"}`,
	domain.ActionSlide: `slide: a slide deck. payload {"fileName", "title", "slides": [{"title", "bullets": [..], "notes"}]}`,
	domain.ActionSheet: `sheet: a spreadsheet. payload {"fileName", "title", "columns": [..], "rows": [[..]]}`,
	domain.ActionDocument: `document: a text file saved straight into the current project's files. ` +
		`payload {"fileName", "mimeType", "content"}`,
	domain.ActionDiagram: `diagram: a Mermaid diagram. payload {"title", "mermaid"}`,
	domain.ActionBoard:   `board: a kanban board. payload {"title", "columns": [{"name", "cards": [..]}]}`,
	domain.ActionCode:    `code: a code snippet. payload {"language", "fileName", "code"}`,
	domain.ActionChart:   `chart: a chart. payload {"title", "type": "bar|line|pie", "labels": [..], "datasets": [{"label", "data": [numbers]}]}`,
	domain.ActionCalendarEvent: `calendar_event: schedule an event. ` +
		`payload {"title", "start", "end", "description", "attendees": [..]}`,
	domain.ActionTask: `task: create a task. payload {"title", "description", "assigneeId", "dueDate", "priority": "low|medium|high"}`,
	domain.ActionProjectManagement: "project_management: change the project plan. payload {\"operation\", \"projectId\", \"data\"} where operation is one of:\n" +
		`  - add_phase, data {"name", "startDate", "endDate"}` + "\n" +
		`  - add_multiple_phases, data [{"name", "startDate", "endDate"}, ..]` + "\n" +
		`  - update_phase, data {"phaseId", "updates": {"name", "startDate", "endDate", "progress"}}` + "\n" +
		`  - delete_phase, data {"phaseId"}` + "\n" +
		`  - set_budget, data {"total"}` + "\n" +
		`  - add_expense, data {"amount", "description", "category", "date"}`,
	domain.ActionCollaborate: `collaborate: ask one colleague a question before answering. payload {"colleagueId", "question"}`,
	domain.ActionImage:       `image: generate an image. payload {"prompt"}`,
}

func toolSection(emp *domain.Employee, roster []domain.Employee) string {
	var b strings.Builder
	b.WriteString(toolContract)

	available := emp.AvailableTools()
	if len(available) == 0 {
		b.WriteString("\nNo tools are enabled for you; always answer in plain text.")
		return b.String()
	}

	b.WriteString("\nAvailable tools:\n")
	for _, k := range available {
		fmt.Fprintf(&b, "- %s\n", toolDocs[k])
		if k == domain.ActionCollaborate {
			for _, c := range colleagues(emp, roster) {
				fmt.Fprintf(&b, "  colleague %s: %s, %s\n", c.ID, c.Name, c.Role)
			}
		}
	}
	return b.String()
}
