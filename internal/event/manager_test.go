package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDispatchOrderAndRunID(t *testing.T) {
	m := NewManager("run-1")
	var got []string
	m.Subscribe(TypeDocumentWritten, func(e Event) bool {
		got = append(got, "first:"+e.RunID)
		return false
	})
	m.Subscribe(TypeDocumentWritten, func(e Event) bool {
		got = append(got, "second:"+e.Data.(DocumentWrittenData).FilePath)
		return false
	})
	m.Subscribe(TypeDocumentUnchanged, func(Event) bool {
		got = append(got, "unexpected")
		return false
	})

	m.Dispatch(TypeDocumentWritten, DocumentWrittenData{FilePath: "a.js"})
	assert.Equal(t, []string{"first:run-1", "second:a.js"}, got)
}

func TestHandlerCanStopDelivery(t *testing.T) {
	m := NewManager("")
	calls := 0
	m.Subscribe(TypeRunFinished, func(Event) bool { calls++; return true })
	m.Subscribe(TypeRunFinished, func(Event) bool { calls++; return false })

	m.Dispatch(TypeRunFinished, RunFinishedData{})
	assert.Equal(t, 1, calls)

	// No subscribers is fine.
	m.Dispatch(TypeStageApplied, StageAppliedData{})
}

func TestTypeString(t *testing.T) {
	assert.Equal(t, "StageApplied", TypeStageApplied.String())
	assert.Equal(t, "Unknown", Type(99).String())
}
