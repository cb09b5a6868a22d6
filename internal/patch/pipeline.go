package patch

import "errors"

// Stage is a named Patch inside a Pipeline.
type Stage struct {
	Name  string
	Patch Patch
}

// Applied records one successful stage.
type Applied struct {
	Stage  string
	Index  int
	Region Region // span in Before that was replaced
	// ReplacementLen is the byte length of the text now at Region.Start in After.
	ReplacementLen int
	Before         Document
	After          Document
}

// Pipeline applies stages in order, each against the previous stage's output.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds a pipeline from stages.
func NewPipeline(stages ...Stage) *Pipeline {
	s := make([]Stage, len(stages))
	copy(s, stages)
	return &Pipeline{stages: s}
}

// Stages returns a copy of the configured stages.
func (p *Pipeline) Stages() []Stage {
	s := make([]Stage, len(p.stages))
	copy(s, p.stages)
	return s
}

// Run applies every stage. It is all-or-nothing: on the first failure it
// returns doc itself, no Applied records, and an error naming the stage.
func (p *Pipeline) Run(doc Document) (Document, []Applied, error) {
	current := doc
	applied := make([]Applied, 0, len(p.stages))
	for i, st := range p.stages {
		next, region, err := Apply(current, st.Patch)
		if err != nil {
			return doc, nil, labelStage(err, st.Name, i)
		}
		applied = append(applied, Applied{
			Stage:          st.Name,
			Index:          i,
			Region:         region,
			ReplacementLen: len(st.Patch.Replacement),
			Before:         current,
			After:          next,
		})
		current = next
	}
	return current, applied, nil
}

func labelStage(err error, name string, index int) error {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.withStage(name, index)
	}
	return err
}
