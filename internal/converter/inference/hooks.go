package inference

// Hooks lets callers observe or steer the heuristics. Every field is
// optional; a nil field keeps the default behaviour.
type Hooks struct {
	// OnCreate runs after a shape and its vertex are created.
	OnCreate func(s *Shape, src *SourceShape)
	// OnReassignToParent runs when a text shape is folded into an ancestor.
	OnReassignToParent func(parent *Shape, src *SourceShape)
	// OnAssignText runs when a textbox donates its label, before it is removed.
	OnAssignText func(from, to *Shape)
	// UseRealConnections decides whether explicit connections become edges.
	UseRealConnections func() bool
	// AllowTextInference vetoes a textbox/candidate pairing.
	AllowTextInference func(textbox, candidate *Shape) bool
	// TextInferenceDistance bounds how far a textbox may be from its recipient.
	TextInferenceDistance func(textbox *Shape) float64
	// OnClone1D runs for every fragment produced by a split.
	OnClone1D func(original, clone *Shape)
}

// policy binds hooks to the configured defaults.
type policy struct {
	hooks Hooks
	cfg   Config
}

func (p policy) onCreate(s *Shape, src *SourceShape) {
	if p.hooks.OnCreate != nil {
		p.hooks.OnCreate(s, src)
	}
}

func (p policy) onReassignToParent(parent *Shape, src *SourceShape) {
	if p.hooks.OnReassignToParent != nil {
		p.hooks.OnReassignToParent(parent, src)
	}
}

func (p policy) onAssignText(from, to *Shape) {
	if p.hooks.OnAssignText != nil {
		p.hooks.OnAssignText(from, to)
	}
}

func (p policy) useRealConnections() bool {
	if p.hooks.UseRealConnections != nil {
		return p.hooks.UseRealConnections()
	}
	return p.cfg.UseRealConnections
}

func (p policy) allowTextInference(textbox, candidate *Shape) bool {
	if p.hooks.AllowTextInference != nil {
		return p.hooks.AllowTextInference(textbox, candidate)
	}
	return true
}

func (p policy) textInferenceDistance(textbox *Shape) float64 {
	if p.hooks.TextInferenceDistance != nil {
		return p.hooks.TextInferenceDistance(textbox)
	}
	return p.cfg.TextInferenceDistance
}

func (p policy) onClone1D(original, clone *Shape) {
	if p.hooks.OnClone1D != nil {
		p.hooks.OnClone1D(original, clone)
	}
}
