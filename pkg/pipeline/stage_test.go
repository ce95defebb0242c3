package pipeline_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/arborhq/arbor/pkg/pipeline"
)

var _ = Describe("ChunkStage", func() {
	var stage *pipeline.ChunkStage

	BeforeEach(func() {
		stage = pipeline.NewChunkStage()
	})

	It("turns a chunk into a single root create", func() {
		decision, err := stage.Decide(context.Background(), pipeline.DecisionInput{
			Text: "the garden needs watering before the weekend heat arrives.",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Edits).To(HaveLen(1))

		create, ok := decision.Edits[0].(pipeline.CreateEdit)
		Expect(ok).To(BeTrue())
		Expect(create.ParentID).To(BeNil())
		Expect(create.Title).To(Equal("the garden needs watering before the"))
		Expect(create.Content).To(HavePrefix("the garden needs watering"))
	})

	It("returns no edits for blank input", func() {
		decision, err := stage.Decide(context.Background(), pipeline.DecisionInput{Text: "   "})
		Expect(err).NotTo(HaveOccurred())
		Expect(decision.Edits).To(BeEmpty())
	})
})
