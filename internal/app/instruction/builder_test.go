package instruction_test

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/staffdesk/internal/app/instruction"
	"github.com/PabloGalante/staffdesk/internal/domain"
)

var company = domain.CompanyProfile{
	Name:        "Northwind Studio",
	Industry:    "Design",
	Description: "A small branding agency.",
}

func designer() *domain.Employee {
	return &domain.Employee{
		ID:      "emp-designer",
		Name:    "Mara",
		Role:    "Lead Designer",
		Persona: "You care about typography.",
		Morale:  60,
	}
}

func TestBuildSectionOrder(t *testing.T) {
	emp := designer()
	emp.Morale = 10
	scope := instruction.Scope{
		Project: &domain.Project{ID: "p1", Name: "Rebrand", Phases: []domain.Phase{{
			ID: "ph1", Name: "Design", StartDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		}}},
		Files: []domain.File{{Name: "brief.txt", MIMEType: "text/plain", Content: "Make it bold."}},
	}

	out := instruction.Build(emp, company, scope)

	order := []string{
		"You are Mara, the Lead Designer at Northwind Studio",
		"Your morale is low",
		"## Company profile",
		"## Documents",
		"## Current project: Rebrand",
		"## Files available",
		"## Tools",
	}
	last := -1
	for _, marker := range order {
		idx := strings.Index(out, marker)
		require.GreaterOrEqual(t, idx, 0, "missing %q", marker)
		assert.Greater(t, idx, last, "%q out of order", marker)
		last = idx
	}
	assert.Contains(t, out, "Make it bold.")
}

func TestBuildOmitsEmptySections(t *testing.T) {
	out := instruction.Build(designer(), domain.CompanyProfile{}, instruction.Scope{})

	assert.NotContains(t, out, "## Company profile")
	assert.NotContains(t, out, "## Files available")
	assert.NotContains(t, out, "## Current project")
	assert.NotContains(t, out, "morale")
	assert.NotContains(t, out, "\n\n\n")
	assert.Contains(t, out, "## Tools")
}

func TestBuildAlwaysCarriesToolContract(t *testing.T) {
	emp := designer()
	emp.Tools = []domain.ActionKind{}

	out := instruction.Build(emp, company, instruction.Scope{})
	assert.Contains(t, out, `"action"`)
	assert.Contains(t, out, `"payload"`)
	assert.Contains(t, out, `"text"`)

	emp.Tools = []domain.ActionKind{domain.ActionTask}
	out = instruction.Build(emp, company, instruction.Scope{})
	assert.Contains(t, out, "task: create a task")
	assert.NotContains(t, out, "calendar_event:")
}

func TestBuildCompanyWideDataOnlyForAssistant(t *testing.T) {
	scope := instruction.Scope{
		AllProjects: []domain.Project{{ID: "p9", Name: "Secret Launch"}},
		Clients:     []domain.Client{{Name: "Acme"}},
	}

	regular := instruction.Build(designer(), company, scope)
	assert.NotContains(t, regular, "Secret Launch")
	assert.NotContains(t, regular, "Acme")

	assistant := designer()
	assistant.Assistant = true
	out := instruction.Build(assistant, company, scope)
	assert.Contains(t, out, "Secret Launch")
	assert.Contains(t, out, "Acme")
}

func TestBuildListsColleaguesForCollaboration(t *testing.T) {
	emp := designer()
	scope := instruction.Scope{Roster: []domain.Employee{
		*emp,
		{ID: "emp-cfo", Name: "Theo", Role: "CFO"},
	}}

	out := instruction.Build(emp, company, scope)
	assert.Contains(t, out, "colleague emp-cfo: Theo, CFO")
	assert.NotContains(t, out, "colleague emp-designer")
}

func TestBuildIsDeterministic(t *testing.T) {
	scope := instruction.Scope{Files: []domain.File{
		{Name: "b.md", MIMEType: "text/markdown"},
		{Name: "a.md", MIMEType: "text/markdown"},
	}}
	first := instruction.Build(designer(), company, scope)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, instruction.Build(designer(), company, scope))
	}
	assert.Less(t, strings.Index(first, "a.md"), strings.Index(first, "b.md"))
}

func TestBuildFileExcerptKeepsRunesWhole(t *testing.T) {
	content := "a" + strings.Repeat("é", 1000)
	scope := instruction.Scope{Files: []domain.File{{Name: "notes.txt", MIMEType: "text/plain", Content: content}}}

	out := instruction.Build(designer(), company, scope)
	require.True(t, utf8.ValidString(out))
	assert.Contains(t, out, "é...")
	assert.NotContains(t, out, content)
}
