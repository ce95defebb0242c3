package search

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("tfidfRank", func() {
	docs := []document{
		{id: 1, text: "alpha beta gamma"},
		{id: 2, text: "delta epsilon"},
	}

	It("ranks the document sharing terms with the query", func() {
		ranked := tfidfRank(docs, "alpha beta", 0.01)
		Expect(ranked).To(HaveLen(1))
		Expect(ranked[0].ID).To(Equal(uint64(1)))
		Expect(ranked[0].Score).To(BeNumerically(">", 0.01))
		Expect(ranked[0].Score).To(BeNumerically("<=", 1))
	})

	It("returns nothing for a query of stopwords", func() {
		Expect(tfidfRank(docs, "the and of", 0.01)).To(BeEmpty())
	})

	It("returns nothing with no documents", func() {
		Expect(tfidfRank(nil, "alpha", 0.01)).To(BeEmpty())
	})

	It("counts bigrams so phrase matches outrank scattered terms", func() {
		phraseDocs := []document{
			{id: 1, text: "voice tree notes"},
			{id: 2, text: "voice recorder and tree surgeon"},
		}
		ranked := tfidfRank(phraseDocs, "voice tree", 0.01)
		Expect(len(ranked)).To(BeNumerically(">=", 2))
		Expect(ranked[0].ID).To(Equal(uint64(1)))
	})
})

var _ = Describe("bm25Rank", func() {
	docs := []document{
		{id: 1, text: "alpha beta gamma"},
		{id: 2, text: "delta epsilon zeta"},
	}

	It("ranks only documents containing query tokens", func() {
		ranked := bm25Rank(docs, "alpha", 0.1)
		Expect(ranked).To(HaveLen(1))
		Expect(ranked[0].ID).To(Equal(uint64(1)))
	})

	It("prefers the document with the rarer term", func() {
		corpus := []document{
			{id: 1, text: "common common rare"},
			{id: 2, text: "common common common"},
			{id: 3, text: "other words here"},
		}
		ranked := bm25Rank(corpus, "rare", 0.1)
		Expect(ranked).To(HaveLen(1))
		Expect(ranked[0].ID).To(Equal(uint64(1)))
	})

	It("returns nothing with no documents", func() {
		Expect(bm25Rank(nil, "alpha", 0.1)).To(BeEmpty())
	})

	It("keeps a document scoring exactly at the cutoff", func() {
		ranked := bm25Rank(docs, "alpha", 0.001)
		Expect(ranked).To(HaveLen(1))

		cutoff := ranked[0].Score
		ranked = bm25Rank(docs, "alpha", cutoff)
		Expect(ranked).To(HaveLen(1))
		Expect(ranked[0].ID).To(Equal(uint64(1)))
	})
})

var _ = Describe("fuseRanks", func() {
	It("promotes ids present in both lists", func() {
		fused := fuseRanks([][]uint64{{1, 2}, {2, 3}}, rrfK)
		Expect(fused).To(Equal([]uint64{2, 1, 3}))
	})

	It("breaks score ties on the lower id", func() {
		fused := fuseRanks([][]uint64{{7}, {5}}, rrfK)
		Expect(fused).To(Equal([]uint64{5, 7}))
	})

	It("returns nothing for empty lists", func() {
		Expect(fuseRanks([][]uint64{nil, nil}, rrfK)).To(BeEmpty())
	})
})
