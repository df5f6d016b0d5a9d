package toolcall

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/PabloGalante/staffdesk/internal/domain"
)

type ProjectOp string

const (
	OpAddPhase          ProjectOp = "add_phase"
	OpAddMultiplePhases ProjectOp = "add_multiple_phases"
	OpUpdatePhase       ProjectOp = "update_phase"
	OpDeletePhase       ProjectOp = "delete_phase"
	OpSetBudget         ProjectOp = "set_budget"
	OpAddExpense        ProjectOp = "add_expense"
)

// DefaultExpenseCategory is used when add_expense names no category.
const DefaultExpenseCategory = "Uncategorized"

// ProjectOperation is one project-management sub-action.
type ProjectOperation interface {
	Op() ProjectOp
}

type PhaseSpec struct {
	Name  string
	Start time.Time
	End   time.Time
}

type AddPhaseOp struct{ Phase PhaseSpec }

// AddPhasesOp holds the well-formed entries of an add_multiple_phases list.
type AddPhasesOp struct {
	Phases  []PhaseSpec
	Skipped int
}

type UpdatePhaseOp struct {
	PhaseID domain.PhaseID
	Update  domain.PhaseUpdate
}

type DeletePhaseOp struct{ PhaseID domain.PhaseID }

type SetBudgetOp struct{ Total float64 }

type AddExpenseOp struct {
	Amount      float64
	Description string
	Category    string
	// Date is nil when the model gave none; the handler stamps the current time.
	Date *time.Time
}

func (AddPhaseOp) Op() ProjectOp    { return OpAddPhase }
func (AddPhasesOp) Op() ProjectOp   { return OpAddMultiplePhases }
func (UpdatePhaseOp) Op() ProjectOp { return OpUpdatePhase }
func (DeletePhaseOp) Op() ProjectOp { return OpDeletePhase }
func (SetBudgetOp) Op() ProjectOp   { return OpSetBudget }
func (AddExpenseOp) Op() ProjectOp  { return OpAddExpense }

const pm = domain.ActionProjectManagement

func decodeProjectManagement(raw json.RawMessage) (Payload, error) {
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, reject(pm, "payload is not an object")
	}

	op := ProjectOp(strings.ToLower(str(body, "operation", "subAction", "action")))
	if op == "" {
		return nil, reject(pm, "no project management action was named")
	}

	// Sub-action fields live under "data"; a flat payload is accepted too.
	data, hasData := body["data"]
	if !hasData {
		data = body
	}

	out := ProjectManagementPayload{ProjectID: domain.ProjectID(str(body, "projectId", "project_id"))}

	var err error
	switch op {
	case OpAddPhase:
		var spec PhaseSpec
		spec, err = phaseSpec(asMap(data))
		if err == nil {
			out.Op = AddPhaseOp{Phase: spec}
		}
	case OpAddMultiplePhases:
		out.Op, err = addPhases(data)
	case OpUpdatePhase:
		out.Op, err = updatePhase(asMap(data))
	case OpDeletePhase:
		id := str(asMap(data), "phaseId", "phase_id", "id")
		if id == "" {
			err = reject(pm, "delete_phase needs a phaseId")
		} else {
			out.Op = DeletePhaseOp{PhaseID: domain.PhaseID(id)}
		}
	case OpSetBudget:
		total, ok := num(asMap(data), "total", "budget", "amount")
		if !ok {
			err = reject(pm, "set_budget needs a numeric total")
		} else {
			out.Op = SetBudgetOp{Total: total}
		}
	case OpAddExpense:
		out.Op, err = addExpense(asMap(data))
	default:
		err = reject(pm, "unrecognized project management action %q", string(op))
	}
	if err != nil {
		return nil, err
	}
	return out, nil
}

func phaseSpec(m map[string]any) (PhaseSpec, error) {
	name := str(m, "name", "title")
	startRaw := str(m, "startDate", "start_date", "start")
	endRaw := str(m, "endDate", "end_date", "end")

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if startRaw == "" {
		missing = append(missing, "startDate")
	}
	if endRaw == "" {
		missing = append(missing, "endDate")
	}
	if len(missing) > 0 {
		return PhaseSpec{}, reject(pm, "a phase needs a name, startDate and endDate (missing %s)", strings.Join(missing, ", "))
	}

	start, ok := ParseDate(startRaw)
	if !ok {
		return PhaseSpec{}, reject(pm, "phase %q has an unreadable startDate %q", name, startRaw)
	}
	end, ok := ParseDate(endRaw)
	if !ok {
		return PhaseSpec{}, reject(pm, "phase %q has an unreadable endDate %q", name, endRaw)
	}
	if end.Before(start) {
		return PhaseSpec{}, reject(pm, "phase %q ends before it starts", name)
	}
	return PhaseSpec{Name: name, Start: start, End: end}, nil
}

func addPhases(data any) (ProjectOperation, error) {
	list, ok := data.([]any)
	if !ok {
		list, ok = asMap(data)["phases"].([]any)
	}
	if !ok {
		return nil, reject(pm, "add_multiple_phases needs a list of phases")
	}

	var out AddPhasesOp
	for _, item := range list {
		spec, err := phaseSpec(asMap(item))
		if err != nil {
			out.Skipped++
			continue
		}
		out.Phases = append(out.Phases, spec)
	}
	if len(out.Phases) == 0 {
		return nil, reject(pm, "none of the %d proposed phases had a name, startDate and endDate", len(list))
	}
	return out, nil
}

func updatePhase(m map[string]any) (ProjectOperation, error) {
	id := str(m, "phaseId", "phase_id", "id")
	if id == "" {
		return nil, reject(pm, "update_phase needs a phaseId")
	}

	updates := asMap(m["updates"])
	if updates == nil {
		return nil, reject(pm, "update_phase for %q carries no updates", id)
	}

	var upd domain.PhaseUpdate
	if name := str(updates, "name", "title"); name != "" {
		upd.Name = &name
	}
	if raw := str(updates, "startDate", "start_date", "start"); raw != "" {
		t, ok := ParseDate(raw)
		if !ok {
			return nil, reject(pm, "update_phase for %q has an unreadable startDate %q", id, raw)
		}
		upd.StartDate = &t
	}
	if raw := str(updates, "endDate", "end_date", "end"); raw != "" {
		t, ok := ParseDate(raw)
		if !ok {
			return nil, reject(pm, "update_phase for %q has an unreadable endDate %q", id, raw)
		}
		upd.EndDate = &t
	}
	if p, ok := num(updates, "progress"); ok {
		progress := int(p)
		upd.Progress = &progress
	}
	if upd == (domain.PhaseUpdate{}) {
		return nil, reject(pm, "update_phase for %q changes nothing", id)
	}
	return UpdatePhaseOp{PhaseID: domain.PhaseID(id), Update: upd}, nil
}

func addExpense(m map[string]any) (ProjectOperation, error) {
	amount, ok := num(m, "amount")
	if !ok || amount <= 0 {
		return nil, reject(pm, "add_expense needs a positive numeric amount")
	}
	desc := str(m, "description")
	if desc == "" {
		return nil, reject(pm, "add_expense needs a description")
	}

	out := AddExpenseOp{
		Amount:      amount,
		Description: desc,
		Category:    str(m, "category"),
	}
	if out.Category == "" {
		out.Category = DefaultExpenseCategory
	}
	if t, ok := ParseDate(str(m, "date")); ok {
		out.Date = &t
	}
	return out, nil
}

// --- loose JSON helpers --- //

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

// str returns the first non-empty string value among keys.
func str(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	return ""
}

// num accepts JSON numbers only; numeric strings are not coerced.
func num(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			return f, true
		}
	}
	return 0, false
}

// Describe renders an operation for confirmations and logs.
func Describe(op ProjectOperation) string {
	switch o := op.(type) {
	case AddPhaseOp:
		return fmt.Sprintf("add phase %q", o.Phase.Name)
	case AddPhasesOp:
		return fmt.Sprintf("add %d phases", len(o.Phases))
	case UpdatePhaseOp:
		return fmt.Sprintf("update phase %q", o.PhaseID)
	case DeletePhaseOp:
		return fmt.Sprintf("delete phase %q", o.PhaseID)
	case SetBudgetOp:
		return fmt.Sprintf("set budget to %.2f", o.Total)
	case AddExpenseOp:
		return fmt.Sprintf("add expense %q of %.2f", o.Description, o.Amount)
	default:
		return "unknown operation"
	}
}
