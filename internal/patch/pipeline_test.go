package patch

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const page = `import React from "react";

const LATEX_STORE = {
  D0: "a",
  D1: { nested: "b" },
};

export default function Page() {
  return <div className="lab">old</div>;
}
`

func TestPipelineChainsStages(t *testing.T) {
	p := NewPipeline(
		Stage{Name: "store", Patch: Patch{
			Marker:      "const LATEX_STORE =",
			Anchor:      AnchorBefore,
			Strategy:    BraceBalance{Open: '{', Close: '}', Terminator: ';'},
			Replacement: "const LATEX_STORE = {\n  D0: \"new\",\n  D1: \"newer\",\n  D2: \"newest\",\n};",
		}},
		Stage{Name: "helper", Patch: Patch{
			Marker:      "export default function",
			Anchor:      AnchorBefore,
			Strategy:    Insert{},
			Replacement: "const Copy = () => null;\n\n",
		}},
		Stage{Name: "body", Patch: Patch{
			Marker:      `<div className="lab">`,
			Strategy:    LiteralEnd{Marker: "</div>", Exclusive: true},
			Replacement: "new",
		}},
	)

	out, applied, err := p.Run(NewDocument(page))
	require.NoError(t, err)

	want := `import React from "react";

const LATEX_STORE = {
  D0: "new",
  D1: "newer",
  D2: "newest",
};

const Copy = () => null;

export default function Page() {
  return <div className="lab">new</div>;
}
`
	if diff := cmp.Diff(want, out.String()); diff != "" {
		t.Fatalf("pipeline output mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, applied, 3)
	for i, a := range applied {
		assert.Equal(t, i, a.Index)
		if i > 0 {
			assert.True(t, applied[i-1].After.Equal(a.Before), "stage %d must start from stage %d output", i, i-1)
		}
		assert.Equal(t, a.Before.Len()-a.Region.Len()+a.ReplacementLen, a.After.Len())
	}
	assert.Equal(t, "store", applied[0].Stage)
	assert.True(t, applied[2].After.Equal(out))
	assert.Equal(t, NewDocument(page).Hash(), applied[0].Before.Hash())
	assert.Equal(t, out.Hash(), applied[2].After.Hash())
	assert.NotEqual(t, applied[0].Before.Hash(), applied[0].After.Hash())
}

func TestPipelineIsAtomic(t *testing.T) {
	original := NewDocument("AAA{X{Y}Z}BBB")
	p := NewPipeline(
		Stage{Name: "first", Patch: Patch{Marker: "AAA", Strategy: Braces(), Replacement: "<<R>>"}},
		Stage{Name: "second", Patch: Patch{Marker: "{X{Y}Z}", Strategy: Insert{}, Replacement: "!"}},
	)

	out, applied, err := p.Run(original)
	require.Error(t, err)
	assert.Nil(t, applied)
	assert.True(t, out.Equal(original), "failed pipeline must hand back the original document")

	var pe *Error
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, KindMarkerNotFound, pe.Kind)
	assert.Equal(t, "second", pe.Stage)
	assert.Equal(t, 1, pe.Index)
	assert.Contains(t, err.Error(), `stage "second" #1`)
	assert.Equal(t, KindMarkerNotFound, KindOf(err))
}

func TestPipelineEmpty(t *testing.T) {
	d := NewDocument("unchanged")
	out, applied, err := NewPipeline().Run(d)
	require.NoError(t, err)
	assert.Empty(t, applied)
	assert.True(t, out.Equal(d))
}

func TestPipelineReresolvesAgainstCurrentDocument(t *testing.T) {
	// The second stage's marker only exists after the first stage ran.
	p := NewPipeline(
		Stage{Name: "add", Patch: Patch{Marker: "<body>", Strategy: Insert{}, Replacement: "<slot/>"}},
		Stage{Name: "fill", Patch: Patch{Marker: "<slot/>", Anchor: AnchorBefore, Strategy: LiteralEnd{Marker: "</body>", Exclusive: true}, Replacement: "filled"}},
	)
	out, _, err := p.Run(NewDocument("<body></body>"))
	require.NoError(t, err)
	assert.Equal(t, "<body>filled</body>", out.String())
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("invalid byte 0xff")
	err := EncodingError("utf-8", cause)

	assert.ErrorIs(t, err, ErrEncoding)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, KindEncoding, KindOf(err))
	assert.Equal(t, "EncodingError", KindEncoding.String())
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, KindMarkerAmbiguous, KindOf(ErrMarkerAmbiguous))
}

func TestParseOptions(t *testing.T) {
	occ, err := ParseOccurrence("First")
	require.NoError(t, err)
	assert.Equal(t, First, occ)
	occ, err = ParseOccurrence("")
	require.NoError(t, err)
	assert.Equal(t, Strict, occ)
	_, err = ParseOccurrence("all")
	assert.Error(t, err)

	a, err := ParseAnchor("before")
	require.NoError(t, err)
	assert.Equal(t, AnchorBefore, a)
	_, err = ParseAnchor("inside")
	assert.Error(t, err)
}
