package domain

import "encoding/json"

// ActionKind is the closed set of tool calls a model may emit.
type ActionKind string

const (
	// document family, saved on an explicit gesture
	ActionWord  ActionKind = "word"
	ActionSlide ActionKind = "slide"
	ActionSheet ActionKind = "sheet"

	// canvas family, preview only
	ActionDocument ActionKind = "document"
	ActionDiagram  ActionKind = "diagram"
	ActionBoard    ActionKind = "board"
	ActionCode     ActionKind = "code"
	ActionChart    ActionKind = "chart"

	// data mutation family, applied on approval
	ActionCalendarEvent     ActionKind = "calendar_event"
	ActionTask              ActionKind = "task"
	ActionProjectManagement ActionKind = "project_management"

	ActionCollaborate ActionKind = "collaborate"
	ActionImage       ActionKind = "image"
)

// AllActionKinds lists every kind in the order tool instructions present them.
var AllActionKinds = []ActionKind{
	ActionWord, ActionSlide, ActionSheet,
	ActionDocument, ActionDiagram, ActionBoard, ActionCode, ActionChart,
	ActionCalendarEvent, ActionTask, ActionProjectManagement,
	ActionCollaborate, ActionImage,
}

func (k ActionKind) Valid() bool {
	for _, known := range AllActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// ActionClass groups kinds by how the router treats them.
type ActionClass string

const (
	ClassDocument      ActionClass = "document"
	ClassCanvas        ActionClass = "canvas"
	ClassDataMutation  ActionClass = "data_mutation"
	ClassCollaboration ActionClass = "collaboration"
	ClassImage         ActionClass = "image"
)

func (k ActionKind) Class() ActionClass {
	switch k {
	case ActionWord, ActionSlide, ActionSheet:
		return ClassDocument
	case ActionCalendarEvent, ActionTask, ActionProjectManagement:
		return ClassDataMutation
	case ActionCollaborate:
		return ClassCollaboration
	case ActionImage:
		return ClassImage
	default:
		return ClassCanvas
	}
}

// ActionState tracks a proposed action through review.
type ActionState string

const (
	ActionPending   ActionState = "pending"
	ActionCommitted ActionState = "committed"
	ActionSaved     ActionState = "saved"
	ActionRejected  ActionState = "rejected"
	ActionFailed    ActionState = "failed"
	// ActionPreview is used for canvas output, which has nothing to approve.
	ActionPreview ActionState = "preview"
)

func (s ActionState) Terminal() bool {
	return s != ActionPending
}

// TriggeredAction is the tool call recorded on the message that proposed it.
type TriggeredAction struct {
	ID      ActionID        `json:"id"`
	Kind    ActionKind      `json:"kind"`
	Payload json.RawMessage `json:"payload"`
	Text    string          `json:"text"`
	State   ActionState     `json:"state"`
	// Reason explains a rejection at preview time or a failed application.
	Reason string `json:"reason,omitempty"`
}
