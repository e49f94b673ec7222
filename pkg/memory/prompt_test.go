package memory_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/store"
)

var _ = Describe("BuildPrompt", func() {
	It("renders only the trailing user line when all tiers are empty", func() {
		prompt := memory.BuildPrompt("hi", nil, nil, nil)
		Expect(prompt).To(Equal("\nUser: hi\nAssistant:"))
	})

	It("renders the long-term section before the conversation", func() {
		longTerm := "Lifetime context: Alice likes blue.\n"
		window := []store.Message{
			{Role: store.RoleUser, Content: "hello"},
			{Role: store.RoleAssistant, Content: "hi!"},
		}

		prompt := memory.BuildPrompt("how are you?", window, &longTerm, nil)
		Expect(prompt).To(Equal(
			"=== Long-term Memory ===\n" +
				"Lifetime context: Alice likes blue.\n\n" +
				"=== Recent Conversation ===\n" +
				"user: hello\n" +
				"assistant: hi!\n" +
				"\nUser: how are you?\nAssistant:"))
	})

	It("joins recalled facts with commas on one line", func() {
		facts := []string{"likes blue", "works at sea"}

		prompt := memory.BuildPrompt("hi", nil, nil, facts)
		Expect(prompt).To(Equal(
			"=== Relevant Facts === likes blue, works at sea\n" +
				"\nUser: hi\nAssistant:"))
	})

	It("keeps the trailing user line last with every tier populated", func() {
		longTerm := "Session context: greetings so far.\n"
		window := []store.Message{{Role: store.RoleUser, Content: "hello"}}
		facts := []string{"a recalled fact"}

		prompt := memory.BuildPrompt("bye", window, &longTerm, facts)
		Expect(prompt).To(HaveSuffix("\nUser: bye\nAssistant:"))
		Expect(prompt).To(ContainSubstring("=== Long-term Memory ==="))
		Expect(prompt).To(ContainSubstring("=== Recent Conversation ==="))
		Expect(prompt).To(ContainSubstring("=== Relevant Facts ==="))
	})
})

var _ = Describe("ParseFacts", func() {
	It("splits lines and strips bullet decoration", func() {
		raw := "- Alice likes blue\n• Alice works at sea\nplain fact"
		Expect(memory.ParseFacts(raw, 3)).To(Equal([]string{
			"Alice likes blue",
			"Alice works at sea",
			"plain fact",
		}))
	})

	It("skips empty and whitespace-only lines", func() {
		raw := "\n  \nfirst fact\n\n- \nsecond fact\n"
		Expect(memory.ParseFacts(raw, 5)).To(Equal([]string{
			"first fact",
			"second fact",
		}))
	})

	It("caps the result at max", func() {
		raw := "one\ntwo\nthree\nfour"
		Expect(memory.ParseFacts(raw, 2)).To(Equal([]string{"one", "two"}))
	})

	It("returns nil for empty output", func() {
		Expect(memory.ParseFacts("", 3)).To(BeNil())
	})
})
