package tree_test

import (
	"errors"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/tree"
)

var _ = Describe("Store", func() {
	var store *tree.Store

	BeforeEach(func() {
		store = tree.NewStore(zap.NewNop())
	})

	Describe("Create", func() {
		It("issues monotonic ids starting at 1", func() {
			first := store.Create("First", "content", "summary", nil, "")
			second := store.Create("Second", "content", "summary", nil, "")
			Expect(first).To(Equal(uint64(1)))
			Expect(second).To(Equal(uint64(2)))
		})

		It("links parent and child both ways", func() {
			parent := store.Create("Parent", "p", "s", nil, "")
			child := store.Create("Child", "c", "s", &parent, "elaborates on")

			p, err := store.Get(parent)
			Expect(err).NotTo(HaveOccurred())
			Expect(p.Children).To(Equal([]uint64{child}))

			c, err := store.Get(child)
			Expect(err).NotTo(HaveOccurred())
			Expect(*c.ParentID).To(Equal(parent))
			Expect(c.Relationships).To(HaveKeyWithValue(parent, "elaborates on"))
		})

		It("creates a root when the parent is missing", func() {
			ghost := uint64(999)
			id := store.Create("Orphan", "c", "s", &ghost, "relates to")

			n, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.ParentID).To(BeNil())
		})

		It("derives a summary when none is given", func() {
			id := store.Create("Titled", "This sentence is the whole content. More follows.", "", nil, "")
			n, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Summary).To(Equal("This sentence is the whole content."))
		})

		It("assigns a slug filename once", func() {
			id := store.Create("Voice Trees & Graphs!", "c", "s", nil, "")
			n, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Filename).To(Equal("1_voice_trees_graphs.md"))
			_ = id
		})
	})

	Describe("AppendContent", func() {
		It("joins with a newline and bumps the append count", func() {
			id := store.Create("Node", "first line", "keep me", nil, "")
			Expect(store.AppendContent(id, "second line")).To(Succeed())

			n, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Content).To(Equal("first line\nsecond line"))
			Expect(n.AppendCount).To(Equal(uint32(1)))
			Expect(n.Summary).To(Equal("keep me"))
		})

		It("returns NotFoundError for a missing node", func() {
			err := store.AppendContent(42, "text")
			var nf *tree.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
			Expect(nf.ID).To(Equal(uint64(42)))
		})
	})

	Describe("ReplaceContent", func() {
		It("replaces content and summary together", func() {
			id := store.Create("Node", "old", "old summary", nil, "")
			Expect(store.ReplaceContent(id, "new content", "new summary")).To(Succeed())

			n, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n.Content).To(Equal("new content"))
			Expect(n.Summary).To(Equal("new summary"))
		})

		It("returns NotFoundError for a missing node", func() {
			err := store.ReplaceContent(42, "c", "s")
			var nf *tree.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})
	})

	Describe("Remove", func() {
		It("returns false for a missing node", func() {
			Expect(store.Remove(42)).To(BeFalse())
		})

		It("detaches from the parent and promotes children to roots", func() {
			root := store.Create("Root", "c", "s", nil, "")
			mid := store.Create("Mid", "c", "s", &root, "part of")
			leaf := store.Create("Leaf", "c", "s", &mid, "part of")

			Expect(store.Remove(mid)).To(BeTrue())

			r, err := store.Get(root)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.Children).To(BeEmpty())

			l, err := store.Get(leaf)
			Expect(err).NotTo(HaveOccurred())
			Expect(l.ParentID).To(BeNil())
			Expect(l.Relationships).NotTo(HaveKey(mid))
		})

		It("never reuses a removed id", func() {
			id := store.Create("Gone", "c", "s", nil, "")
			Expect(store.Remove(id)).To(BeTrue())
			next := store.Create("Next", "c", "s", nil, "")
			Expect(next).To(BeNumerically(">", id))
		})
	})

	Describe("FindByName", func() {
		BeforeEach(func() {
			store.Create("Voice Trees", "c", "s", nil, "")
			store.Create("Graph Theory", "c", "s", nil, "")
		})

		It("matches exactly ignoring case", func() {
			id, ok := store.FindByName("voice trees", false)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(uint64(1)))
		})

		It("matches fuzzily above the cutoff", func() {
			id, ok := store.FindByName("Voice Tree", true)
			Expect(ok).To(BeTrue())
			Expect(id).To(Equal(uint64(1)))
		})

		It("rejects weak fuzzy matches", func() {
			_, ok := store.FindByName("Completely Unrelated", true)
			Expect(ok).To(BeFalse())
		})

		It("does not fuzzy match when disabled", func() {
			_, ok := store.FindByName("Voice Tree", false)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("IDForFilename", func() {
		It("finds a node by its artifact filename", func() {
			id := store.Create("Garden Notes", "c", "s", nil, "")
			node, err := store.Get(id)
			Expect(err).NotTo(HaveOccurred())

			found, ok := store.IDForFilename(node.Filename)
			Expect(ok).To(BeTrue())
			Expect(found).To(Equal(id))
		})

		It("reports a miss for an unknown filename", func() {
			_, ok := store.IDForFilename("999_unknown.md")
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Recent", func() {
		It("orders by modification time, newest first", func() {
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			c := store.Create("C", "c", "s", nil, "")

			time.Sleep(5 * time.Millisecond)
			Expect(store.AppendContent(a, "touched")).To(Succeed())

			recent := store.Recent(2)
			Expect(recent).To(HaveLen(2))
			Expect(recent[0]).To(Equal(a))
			Expect(recent[1]).To(Equal(c))
			_ = b
		})
	})

	Describe("Neighbors", func() {
		It("returns NotFoundError for a missing node", func() {
			_, err := store.Neighbors(42, 0)
			var nf *tree.NotFoundError
			Expect(errors.As(err, &nf)).To(BeTrue())
		})

		It("lists the parent and children with oriented labels", func() {
			root := store.Create("Root", "c", "root summary", nil, "")
			mid := store.Create("Mid", "c", "s", &root, "expands on")
			leaf := store.Create("Leaf", "c", "leaf summary", &mid, "example of")

			neighbors, err := store.Neighbors(mid, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(2))

			Expect(neighbors[0].ID).To(Equal(root))
			Expect(neighbors[0].IsParent).To(BeTrue())
			Expect(neighbors[0].Summary).To(Equal("root summary"))
			Expect(neighbors[0].Relationship).To(Equal("expands on"))

			Expect(neighbors[1].ID).To(Equal(leaf))
			Expect(neighbors[1].IsParent).To(BeFalse())
			Expect(neighbors[1].Summary).To(Equal("leaf summary"))
			Expect(neighbors[1].Relationship).To(Equal("example of"))
		})

		It("caps the number of children", func() {
			root := store.Create("Root", "c", "s", nil, "")
			for range 5 {
				store.Create("Child", "c", "s", &root, "part of")
			}
			neighbors, err := store.Neighbors(root, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(neighbors).To(HaveLen(3))
		})
	})

	Describe("ByBranchingFactor", func() {
		It("orders by child count, ties by lower id", func() {
			a := store.Create("A", "c", "s", nil, "")
			b := store.Create("B", "c", "s", nil, "")
			store.Create("A1", "c", "s", &a, "")
			store.Create("A2", "c", "s", &a, "")
			store.Create("B1", "c", "s", &b, "")

			ids := store.ByBranchingFactor(2)
			Expect(ids).To(Equal([]uint64{a, b}))
		})
	})

	Describe("Restore", func() {
		It("preserves ids and advances the counter", func() {
			pid := uint64(3)
			store.Restore([]tree.Node{
				{ID: 3, Title: "Restored root", Filename: "3_restored_root.md"},
				{ID: 7, Title: "Restored child", ParentID: &pid, Filename: "7_restored_child.md"},
			})

			n, err := store.Get(7)
			Expect(err).NotTo(HaveOccurred())
			Expect(*n.ParentID).To(Equal(uint64(3)))

			next := store.Create("Fresh", "c", "s", nil, "")
			Expect(next).To(Equal(uint64(8)))
		})
	})

	Describe("Get", func() {
		It("returns copies that cannot mutate the store", func() {
			root := store.Create("Root", "c", "s", nil, "")
			store.Create("Child", "c", "s", &root, "")

			n, err := store.Get(root)
			Expect(err).NotTo(HaveOccurred())
			n.Children[0] = 999
			n.Title = "mutated"

			fresh, err := store.Get(root)
			Expect(err).NotTo(HaveOccurred())
			Expect(fresh.Children[0]).NotTo(Equal(uint64(999)))
			Expect(fresh.Title).To(Equal("Root"))
		})
	})
})
