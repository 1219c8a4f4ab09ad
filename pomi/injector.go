package pomi

import "strings"

// InjectionResult carries the rewritten instructions plus context
// additions, and which canaries were actually injected.
type InjectionResult struct {
	Instructions string
	ContextExtra map[string]any
	Injected     []Canary
}

// Injector splices canary prompts into challenge instructions.
type Injector struct {
	catalog *Catalog
}

// NewInjector builds an Injector over the given catalog.
func NewInjector(catalog *Catalog) *Injector {
	return &Injector{catalog: catalog}
}

// Inject selects count canaries and returns rewritten instructions with
// their prompts spliced in: prefix canaries go before the main
// instructions as a short pre-task; inline, suffix, and embedded canaries
// are grouped together as post-task "side tasks", matching the order the
// reference implementation uses.
func (in *Injector) Inject(instructions string, count int, exclude []string) InjectionResult {
	if count <= 0 {
		return InjectionResult{Instructions: instructions}
	}

	var opts *SelectOptions
	if len(exclude) > 0 {
		opts = &SelectOptions{Exclude: exclude}
	}
	selected := in.catalog.Select(count, opts)
	if len(selected) == 0 {
		return InjectionResult{Instructions: instructions}
	}

	var prefixCanaries, sideTaskCanaries []Canary
	for _, c := range selected {
		if c.InjectionMethod == InjectionPrefix {
			prefixCanaries = append(prefixCanaries, c)
		}
	}
	for _, method := range []InjectionMethod{InjectionInline, InjectionSuffix, InjectionEmbedded} {
		for _, c := range selected {
			if c.InjectionMethod == method {
				sideTaskCanaries = append(sideTaskCanaries, c)
			}
		}
	}

	if len(prefixCanaries) > 0 {
		var b strings.Builder
		b.WriteString("Before starting, answer these briefly (include in canary_responses):\n")
		b.WriteString(listCanaries(prefixCanaries))
		b.WriteString("\n\n")
		b.WriteString(instructions)
		instructions = b.String()
	}

	if len(sideTaskCanaries) > 0 {
		var b strings.Builder
		b.WriteString(instructions)
		b.WriteString("\n\nAlso, complete these side tasks (include answers in canary_responses field):\n")
		b.WriteString(listCanaries(sideTaskCanaries))
		instructions = b.String()
	}

	ids := make([]string, len(selected))
	for i, c := range selected {
		ids[i] = c.ID
	}

	return InjectionResult{
		Instructions: instructions,
		ContextExtra: map[string]any{"canary_ids": ids},
		Injected:     selected,
	}
}

func listCanaries(canaries []Canary) string {
	lines := make([]string, len(canaries))
	for i, c := range canaries {
		lines[i] = "- " + c.ID + ": " + c.Prompt
	}
	return strings.Join(lines, "\n")
}
