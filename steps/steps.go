// Package steps records the narrated trace of a calculation.
//
// A Builder is owned by exactly one top-level call. Steps are appended in
// the order a person would write the solution and are never reordered or
// edited afterwards.
package steps

// Step is one inference in a trace.
type Step struct {
	Title   string `json:"title"`
	Content string `json:"content"`
	Result  string `json:"result,omitempty"`
	Final   bool   `json:"final,omitempty"`
	Error   bool   `json:"error,omitempty"`
}

// Builder accumulates steps for a single calculation.
type Builder struct {
	steps []Step
}

func NewBuilder() *Builder { return &Builder{} }

// Add appends an explanatory step with no result.
func (b *Builder) Add(title, content string) {
	b.steps = append(b.steps, Step{Title: title, Content: content})
}

// Result appends a step that produced an intermediate expression.
func (b *Builder) Result(title, content, result string) {
	b.steps = append(b.steps, Step{Title: title, Content: content, Result: result})
}

// Final appends the concluding step. Callers return right after.
func (b *Builder) Final(title, content, result string) {
	b.steps = append(b.steps, Step{Title: title, Content: content, Result: result, Final: true})
}

// Fail appends an error step. Like Final it ends the trace.
func (b *Builder) Fail(title, content string) {
	b.steps = append(b.steps, Step{Title: title, Content: content, Error: true})
}

func (b *Builder) Len() int { return len(b.steps) }

// Steps returns a copy of the trace.
func (b *Builder) Steps() []Step {
	out := make([]Step, len(b.steps))
	copy(out, b.steps)
	return out
}

// Finished reports whether the trace ends in a final or error step.
func (b *Builder) Finished() bool {
	if len(b.steps) == 0 {
		return false
	}
	last := b.steps[len(b.steps)-1]
	return last.Final != last.Error
}

// Clone returns an independent copy of steps.
func Clone(in []Step) []Step {
	if in == nil {
		return nil
	}
	out := make([]Step, len(in))
	copy(out, in)
	return out
}
