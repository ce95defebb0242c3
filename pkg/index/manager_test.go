package index_test

import (
	"context"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/index"
	"github.com/arborhq/arbor/pkg/tree"
	testutils "github.com/arborhq/arbor/pkg/utils/test"
	"github.com/arborhq/arbor/pkg/vector"
)

var _ = Describe("Manager", func() {
	var (
		ctx      context.Context
		store    *tree.Store
		driver   *testutils.MockVectorDriver
		embedder *testutils.MockEmbedder
		manager  *index.Manager
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = tree.NewStore(zap.NewNop())
		driver = testutils.NewMockVectorDriver()
		embedder = testutils.NewMockEmbedder()
		manager = index.NewManager(index.Config{BatchSize: 3}, store, driver, embedder, zap.NewNop())
	})

	Describe("Document", func() {
		It("weights title over summary over content", func() {
			node := tree.Node{Title: "Title", Summary: "Summary", Content: "Content"}
			doc := index.Document(node)
			Expect(strings.Count(doc, "Title")).To(Equal(3))
			Expect(strings.Count(doc, "Summary")).To(Equal(2))
			Expect(strings.Count(doc, "Content")).To(Equal(1))
		})

		It("caps the content slice", func() {
			node := tree.Node{Title: "T", Content: strings.Repeat("x", 2000)}
			doc := index.Document(node)
			Expect(len(doc)).To(BeNumerically("<", 600))
		})
	})

	Describe("QueueUpdate", func() {
		It("does not flush below the batch size", func() {
			id := store.Create("One", "c", "s", nil, "")
			manager.QueueUpdate(ctx, id)
			Expect(manager.Pending()).To(Equal(1))
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("auto-flushes at the batch size", func() {
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			c := store.Create("C", "c", "s", nil, "")

			manager.QueueUpdate(ctx, a, b)
			Expect(driver.UpsertCalls).To(Equal(0))
			manager.QueueUpdate(ctx, c)

			Expect(driver.UpsertCalls).To(Equal(1))
			Expect(manager.Pending()).To(Equal(0))
			Expect(driver.Docs).To(HaveLen(3))
		})

		It("deduplicates queued ids", func() {
			id := store.Create("One", "c", "s", nil, "")
			manager.QueueUpdate(ctx, id)
			manager.QueueUpdate(ctx, id)
			Expect(manager.Pending()).To(Equal(1))
		})

		It("survives a failing provider without surfacing an error", func() {
			driver.FailNext = vector.ErrConnection
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			c := store.Create("C", "c", "s", nil, "")
			manager.QueueUpdate(ctx, a, b, c)
			Expect(manager.Pending()).To(Equal(0))
		})
	})

	Describe("Flush", func() {
		It("skips nodes removed after queueing", func() {
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			manager.QueueUpdate(ctx, a, b)
			Expect(store.Remove(b)).To(BeTrue())

			Expect(manager.Flush(ctx)).To(Succeed())
			Expect(driver.Docs).To(HaveKey(a))
			Expect(driver.Docs).NotTo(HaveKey(b))
		})

		It("is a no-op with nothing pending", func() {
			Expect(manager.Flush(ctx)).To(Succeed())
			Expect(driver.UpsertCalls).To(Equal(0))
		})

		It("returns the embedder failure", func() {
			id := store.Create("A", "c", "s", nil, "")
			manager.QueueUpdate(ctx, id)
			embedder.FailAll = true
			Expect(manager.Flush(ctx)).NotTo(Succeed())
		})
	})

	Describe("Delete", func() {
		It("removes documents and drops pending entries", func() {
			id := store.Create("A", "c", "s", nil, "")
			manager.QueueUpdate(ctx, id)
			Expect(manager.Flush(ctx)).To(Succeed())

			manager.QueueUpdate(ctx, id)
			Expect(manager.Delete(ctx, id)).To(Succeed())
			Expect(manager.Pending()).To(Equal(0))
			Expect(driver.Docs).To(BeEmpty())
		})
	})

	Describe("SyncAll", func() {
		It("indexes every node in the source", func() {
			store.Create("A", "c", "s", nil, "")
			store.Create("B", "c", "s", nil, "")
			Expect(manager.SyncAll(ctx)).To(Succeed())
			Expect(driver.Docs).To(HaveLen(2))
		})
	})

	Describe("Search", func() {
		It("flushes pending updates before querying", func() {
			id := store.Create("A", "c", "s", nil, "")
			manager.QueueUpdate(ctx, id)
			driver.Results = []vector.Match{{ID: id, Score: 0.9}}

			matches, err := manager.Search(ctx, "query", 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.UpsertCalls).To(Equal(1))
			Expect(matches).To(Equal([]index.Match{{ID: id, Score: 0.9}}))
		})

		It("propagates query failures", func() {
			driver.FailNext = vector.ErrConnection
			_, err := manager.Search(ctx, "query", 5)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("ReconcileStale", func() {
		It("deletes stored documents whose nodes are gone", func() {
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			Expect(manager.SyncAll(ctx)).To(Succeed())

			Expect(store.Remove(b)).To(BeTrue())
			Expect(manager.ReconcileStale(ctx)).To(Succeed())

			Expect(driver.Docs).To(HaveKey(a))
			Expect(driver.Docs).NotTo(HaveKey(b))
		})

		It("is a no-op when the store matches the forest", func() {
			store.Create("A", "c", "s", nil, "")
			Expect(manager.SyncAll(ctx)).To(Succeed())
			Expect(manager.ReconcileStale(ctx)).To(Succeed())
			Expect(driver.DeleteCalls).To(Equal(0))
		})
	})
})
