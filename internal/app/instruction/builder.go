// Package instruction assembles the system instruction an employee's model
// session runs under. Build is pure; Resolve gathers its inputs.
package instruction

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

// Scope holds the context fragments available for one conversation.
type Scope struct {
	ContextID domain.ContextID
	Project   *domain.Project
	Minutes   []*domain.MeetingMinutes
	Roster    []domain.Employee
	Files     []domain.File

	// Company-wide summaries. Only rendered for assistant employees.
	AllProjects []domain.Project
	AllTasks    []domain.Task
	Clients     []domain.Client

	Brainstorm *BrainstormScope
}

type BrainstormScope struct {
	Topic        string
	Participants []domain.Employee
}

// Build layers the instruction in a fixed order: persona, morale tone, company
// profile, document analysis note, role-scoped data, files manifest, tool usage.
// Empty fragments are omitted. Tool usage is always present.
func Build(emp *domain.Employee, company domain.CompanyProfile, scope Scope) string {
	sections := []string{
		personaSection(emp, company),
		moraleSection(emp),
		companySection(company),
		documentAnalysisNote,
		dataSection(emp, scope),
		filesSection(scope.Files),
		toolSection(emp, scope.Roster),
	}

	var b strings.Builder
	for _, s := range sections {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(s)
	}
	return b.String()
}

func personaSection(emp *domain.Employee, company domain.CompanyProfile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, the %s", emp.Name, emp.Role)
	if company.Name != "" {
		fmt.Fprintf(&b, " at %s", company.Name)
	}
	b.WriteString(". Stay in character and answer as this employee would.")
	if p := strings.TrimSpace(emp.Persona); p != "" {
		b.WriteString("\n")
		b.WriteString(p)
	}
	if traits := describeTraits(emp.Traits); traits != "" {
		b.WriteString("\nCommunication style: ")
		b.WriteString(traits)
		b.WriteString(".")
	}
	return b.String()
}

func describeTraits(t domain.Traits) string {
	var parts []string
	add := func(v int, low, high string) {
		switch {
		case v >= 70:
			parts = append(parts, high)
		case v > 0 && v <= 30:
			parts = append(parts, low)
		}
	}
	add(t.Formality, "casual", "formal")
	add(t.Creativity, "conventional", "inventive")
	add(t.Verbosity, "brief", "thorough")
	add(t.Humor, "serious", "playful")
	return strings.Join(parts, ", ")
}

var moraleTone = map[domain.MoraleBand]string{
	domain.MoraleLow: "Your morale is low at the moment. You still do your job well, " +
		"but your tone is flatter and more reserved than usual.",
	domain.MoraleHigh: "Your morale is high. You are upbeat and eager to go the extra mile.",
}

func moraleSection(emp *domain.Employee) string {
	return moraleTone[emp.MoraleBand()]
}

func companySection(c domain.CompanyProfile) string {
	if c.Name == "" && c.Description == "" {
		return ""
	}
	var b strings.Builder
	b.WriteString("## Company profile\n")
	writeField(&b, "Name", c.Name)
	writeField(&b, "Industry", c.Industry)
	writeField(&b, "Description", c.Description)
	writeField(&b, "Mission", c.Mission)
	writeField(&b, "Currency", c.Currency)
	return b.String()
}

const documentAnalysisNote = "## Documents\n" +
	"The user may attach files (PDFs, spreadsheets, images, text). When a file is attached, " +
	"read it carefully and ground your answer in its contents."

func dataSection(emp *domain.Employee, scope Scope) string {
	var b strings.Builder

	if bs := scope.Brainstorm; bs != nil {
		b.WriteString("## Brainstorm meeting\n")
		writeField(&b, "Topic", bs.Topic)
		names := make([]string, 0, len(bs.Participants))
		for _, p := range bs.Participants {
			if p.ID != emp.ID {
				names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.Role))
			}
		}
		writeField(&b, "Other participants", strings.Join(names, ", "))
		b.WriteString("Give your own perspective in a few sentences and build on what colleagues said.\n\n")
	}

	if p := scope.Project; p != nil {
		writeProject(&b, p)
	}

	if len(scope.Minutes) > 0 {
		b.WriteString("## Meeting minutes\n")
		for _, m := range scope.Minutes {
			fmt.Fprintf(&b, "### %s (%s)\n%s\n", m.Title, m.CreatedAt.Format("2006-01-02"), strings.TrimSpace(m.Content))
		}
		b.WriteString("\n")
	}

	if roster := colleagues(emp, scope.Roster); len(roster) > 0 {
		b.WriteString("## Team\n")
		for _, e := range roster {
			fmt.Fprintf(&b, "- %s: %s (id %s)\n", e.Name, e.Role, e.ID)
		}
		b.WriteString("\n")
	}

	if emp.Assistant {
		writeCompanyWide(&b, scope)
	}

	return b.String()
}

func writeProject(b *strings.Builder, p *domain.Project) {
	fmt.Fprintf(b, "## Current project: %s (id %s)\n", p.Name, p.ID)
	writeField(b, "Description", p.Description)
	writeField(b, "Status", p.Status)
	if len(p.Phases) > 0 {
		b.WriteString("Phases:\n")
		for _, ph := range p.Phases {
			fmt.Fprintf(b, "- %s (id %s): %s to %s, %d%% done\n",
				ph.Name, ph.ID, ph.StartDate.Format("2006-01-02"), ph.EndDate.Format("2006-01-02"), ph.Progress)
		}
	}
	if p.Budget.Total > 0 || len(p.Budget.Expenses) > 0 {
		fmt.Fprintf(b, "Budget: %.2f total, %.2f spent across %d expenses\n",
			p.Budget.Total, p.Budget.Spent(), len(p.Budget.Expenses))
	}
	b.WriteString("\n")
}

func writeCompanyWide(b *strings.Builder, scope Scope) {
	if len(scope.AllProjects) > 0 {
		b.WriteString("## All projects\n")
		for _, p := range scope.AllProjects {
			fmt.Fprintf(b, "- %s (id %s): %d phases, budget %.2f\n", p.Name, p.ID, len(p.Phases), p.Budget.Total)
		}
		b.WriteString("\n")
	}
	if len(scope.AllTasks) > 0 {
		b.WriteString("## Open tasks\n")
		for _, t := range scope.AllTasks {
			line := fmt.Sprintf("- %s [%s]", t.Title, t.Status)
			if t.AssigneeID != "" {
				line += " assigned to " + string(t.AssigneeID)
			}
			if t.DueDate != nil {
				line += ", due " + t.DueDate.Format("2006-01-02")
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}
	if len(scope.Clients) > 0 {
		b.WriteString("## Clients\n")
		for _, c := range scope.Clients {
			fmt.Fprintf(b, "- %s", c.Name)
			if c.Notes != "" {
				fmt.Fprintf(b, ": %s", c.Notes)
			}
			b.WriteString("\n")
		}
	}
}

const maxExcerpt = 1500

func filesSection(files []domain.File) string {
	if len(files) == 0 {
		return ""
	}
	sorted := append([]domain.File(nil), files...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var b strings.Builder
	b.WriteString("## Files available\n")
	for _, f := range sorted {
		name := f.Name
		if f.Folder != "" {
			name = f.Folder + "/" + f.Name
		}
		fmt.Fprintf(&b, "- %s (%s, %d bytes)\n", name, f.MIMEType, len(f.Content))
		if strings.HasPrefix(f.MIMEType, "text/") && f.Content != "" {
			excerpt := f.Content
			if len(excerpt) > maxExcerpt {
				cut := maxExcerpt
				for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
					cut--
				}
				excerpt = excerpt[:cut] + "..."
			}
			fmt.Fprintf(&b, "  ```\n%s\n  ```\n", excerpt)
		}
	}
	return b.String()
}

func colleagues(emp *domain.Employee, roster []domain.Employee) []domain.Employee {
	out := make([]domain.Employee, 0, len(roster))
	for _, e := range roster {
		if e.ID != emp.ID {
			out = append(out, e)
		}
	}
	return out
}

func writeField(b *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, value)
}
