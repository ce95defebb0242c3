package fuzzy_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arborhq/arbor/pkg/fuzzy"
)

var _ = Describe("Ratio", func() {
	It("returns 100 for identical strings", func() {
		Expect(fuzzy.Ratio("hello world", "hello world")).To(Equal(100.0))
	})

	It("returns 0 when either string is empty", func() {
		Expect(fuzzy.Ratio("", "hello")).To(Equal(0.0))
		Expect(fuzzy.Ratio("hello", "")).To(Equal(0.0))
		Expect(fuzzy.Ratio("", "")).To(Equal(0.0))
	})

	It("scores near-identical strings high", func() {
		Expect(fuzzy.Ratio("the quick brown fox", "the quick brown fix")).To(BeNumerically(">", 85))
	})

	It("scores unrelated strings low", func() {
		Expect(fuzzy.Ratio("alpha beta gamma", "zzzz qqqq xxxx")).To(BeNumerically("<", 40))
	})
})

var _ = Describe("Matcher", func() {
	var matcher *fuzzy.Matcher

	BeforeEach(func() {
		matcher = fuzzy.NewMatcher(0)
	})

	It("falls back to the default threshold", func() {
		Expect(matcher.Threshold()).To(Equal(80.0))
	})

	Describe("BestMatch", func() {
		It("returns false for empty inputs", func() {
			_, ok := matcher.BestMatch("", "source text")
			Expect(ok).To(BeFalse())
			_, ok = matcher.BestMatch("target", "")
			Expect(ok).To(BeFalse())
		})

		It("finds an exact substring with a perfect score", func() {
			match, ok := matcher.BestMatch("hello world", "say hello world and more")
			Expect(ok).To(BeTrue())
			Expect(match.Score).To(Equal(100.0))
			Expect(match.Start).To(Equal(4))
			Expect(match.End).To(Equal(15))
		})

		It("extends an exact match over trailing punctuation", func() {
			source := "say hello world. and more"
			match, ok := matcher.BestMatch("hello world", source)
			Expect(ok).To(BeTrue())
			Expect(source[match.Start:match.End]).To(Equal("hello world."))
		})

		It("matches case-insensitively", func() {
			match, ok := matcher.BestMatch("Hello World", "well hello world indeed")
			Expect(ok).To(BeTrue())
			Expect(match.Score).To(Equal(100.0))
			Expect(match.Start).To(Equal(5))
		})

		It("short-circuits on nearly identical whole strings", func() {
			match, ok := matcher.BestMatch(
				"the quick brown fox jumps",
				"the quick brown fox jump",
			)
			Expect(ok).To(BeTrue())
			Expect(match.Start).To(Equal(0))
			Expect(match.End).To(Equal(len("the quick brown fox jump")))
			Expect(match.Score).To(BeNumerically(">=", 88))
		})

		It("reconstructs a word subsequence across filler words", func() {
			source := "intro alpha beta uh gamma um delta epsilon outro"
			match, ok := matcher.BestMatch("alpha beta gamma delta epsilon", source)
			Expect(ok).To(BeTrue())
			Expect(match.Score).To(BeNumerically(">=", 80))
			Expect(source[match.Start:match.End]).To(Equal("alpha beta uh gamma um delta epsilon"))
		})

		It("aligns a window despite transcription typos", func() {
			source := "greetings hello wrld how are you today"
			match, ok := matcher.BestMatch("hello world how are you", source)
			Expect(ok).To(BeTrue())
			Expect(match.Score).To(BeNumerically(">=", 80))
			Expect(match.Start).To(Equal(10))
		})

		It("reports a weak score for unrelated text", func() {
			match, ok := matcher.BestMatch("quantum entanglement basics", "grocery list milk eggs bread")
			Expect(ok).To(BeTrue())
			Expect(match.Score).To(BeNumerically("<", 80))
		})
	})

	Describe("RemoveMatch", func() {
		It("removes an exact occurrence and rejoins cleanly", func() {
			remainder, ok := matcher.RemoveMatch("say hello world and more", "hello world")
			Expect(ok).To(BeTrue())
			Expect(remainder).To(Equal("say and more"))
		})

		It("removes trailing punctuation with the match", func() {
			remainder, ok := matcher.RemoveMatch("say hello world. and more", "hello world")
			Expect(ok).To(BeTrue())
			Expect(remainder).To(Equal("say and more"))
		})

		It("removes a gapped word subsequence", func() {
			remainder, ok := matcher.RemoveMatch(
				"intro alpha beta uh gamma um delta epsilon outro",
				"alpha beta gamma delta epsilon",
			)
			Expect(ok).To(BeTrue())
			Expect(remainder).To(Equal("intro outro"))
		})

		It("handles a match at the start of the source", func() {
			remainder, ok := matcher.RemoveMatch("hello world and more", "hello world")
			Expect(ok).To(BeTrue())
			Expect(remainder).To(Equal("and more"))
		})

		It("handles a match at the end of the source", func() {
			remainder, ok := matcher.RemoveMatch("say hello world", "hello world")
			Expect(ok).To(BeTrue())
			Expect(remainder).To(Equal("say"))
		})

		It("leaves the source untouched below the threshold", func() {
			source := "grocery list milk eggs bread"
			remainder, ok := matcher.RemoveMatch(source, "quantum entanglement basics")
			Expect(ok).To(BeFalse())
			Expect(remainder).To(Equal(source))
		})

		It("never leaves double spaces behind", func() {
			remainder, ok := matcher.RemoveMatch("a  b hello world  c", "hello world")
			Expect(ok).To(BeTrue())
			Expect(remainder).NotTo(ContainSubstring("  "))
		})
	})
})
