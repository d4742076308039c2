package main

import (
	"fmt"
	"strings"

	"github.com/spetersoncode/strand/chain"
)

// buildSummarize returns a two-step pipeline that distills raw text: pull
// the key facts out first, then compress them.
func buildSummarize() (*chain.Spec, error) {
	return chain.NewLinear("summarize", []chain.StepSpec{
		{
			Name:        "extract",
			Description: "Pull the key facts out of the text",
			Template:    "Extract the key facts from the following text as a bullet list:\n\n{{.input}}",
		},
		{
			Name:        "summarize",
			Description: "Compress the facts into a short summary",
			Template:    "Write a two-sentence summary of these facts:\n\n{{.input}}",
			Validate: func(out string) error {
				if len(strings.TrimSpace(out)) < 20 {
					return fmt.Errorf("summary too short")
				}
				return nil
			},
		},
	}, chain.WithDescription("Extract the key facts from text and summarize them"))
}

// buildTriage returns a conditional router. The classify step labels the
// request and repeats it, so downstream steps see both the label and the
// original text in their input.
func buildTriage() (*chain.Spec, error) {
	return chain.NewConditional("triage", []chain.StepSpec{
		{
			Name:        "classify",
			Description: "Label the request",
			Template: "Classify the following request. Reply with exactly one word on the " +
				"first line - urgent, question, or other - then repeat the request verbatim:\n\n{{.input}}",
			Branches: []chain.Branch{
				{When: chain.Contains("urgent"), To: "escalate"},
				{When: chain.Contains("question"), To: "answer"},
				{When: chain.Otherwise(), To: "acknowledge"},
			},
		},
		{
			Name:        "escalate",
			Description: "Draft an escalation notice",
			Template:    "Draft a short escalation notice for the urgent request below. The first line is its triage label.\n\n{{.input}}",
		},
		{
			Name:        "answer",
			Description: "Answer the question",
			Template:    "Answer the question below concisely. The first line is its triage label.\n\n{{.input}}",
		},
		{
			Name:        "acknowledge",
			Description: "Acknowledge receipt",
			Template:    "Write a brief acknowledgement for the request below. The first line is its triage label.\n\n{{.input}}",
		},
	}, chain.WithDescription("Route a request to the right response style"))
}

// buildDigest returns a deterministic fan-out chain: three perspectives on
// the same text, merged by an aggregation step. Deterministic marking lets
// a runner cache serve repeat inputs.
func buildDigest() (*chain.Spec, error) {
	steps := []chain.StepSpec{
		{
			Name:     "facts",
			Template: "List the three most important facts in:\n\n{{.input}}",
		},
		{
			Name:     "risks",
			Template: "List the main risks or caveats in:\n\n{{.input}}",
		},
		{
			Name:     "actions",
			Template: "List the follow-up actions implied by:\n\n{{.input}}",
		},
	}
	aggregate := chain.StepSpec{
		Name:     "digest",
		Template: "Merge these three perspectives into one short digest:\n\n{{.input}}",
	}
	return chain.NewParallel("digest", steps, aggregate,
		chain.WithDescription("Fan out three perspectives on a text and merge them"),
		chain.Deterministic(),
	)
}
