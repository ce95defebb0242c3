package sqlitevec_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/arborhq/arbor/pkg/vector"
	"github.com/arborhq/arbor/pkg/vector/sqlitevec"
)

var _ = Describe("SQLiteVecDriver", func() {
	var logger *zap.Logger

	BeforeEach(func() {
		logger = zap.NewNop()
	})

	Describe("NewSQLiteVecDriver", func() {
		It("should return an error when DBPath is empty", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{DBPath: ""}, logger)
			Expect(err).To(HaveOccurred())
			Expect(err.Error()).To(ContainSubstring("database path is required"))
		})

		It("should create a driver with an in-memory database", func() {
			driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver).NotTo(BeNil())
			Expect(driver.Close()).To(Succeed())
		})

		It("should error when dimension not specified", func() {
			_, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath: ":memory:",
			}, logger)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Interface compliance", func() {
		It("should implement vector.Driver interface", func() {
			var _ vector.Driver = (*sqlitevec.SQLiteVecDriver)(nil)
		})
	})

	Describe("Upsert", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty docs", func() {
			err := driver.Upsert(context.Background(), []vector.Document{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should store a single document", func() {
			docs := []vector.Document{
				{ID: 1, Text: "node one", Embedding: []float32{0.1, 0.2, 0.3, 0.4}},
			}

			err := driver.Upsert(context.Background(), docs)
			Expect(err).NotTo(HaveOccurred())

			ids, err := driver.ListIDs(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]uint64{1}))
		})

		It("should store multiple documents", func() {
			docs := []vector.Document{
				{ID: 1, Text: "one", Embedding: []float32{0.1, 0.1, 0.1, 0.1}},
				{ID: 2, Text: "two", Embedding: []float32{0.2, 0.2, 0.2, 0.2}},
				{ID: 3, Text: "three", Embedding: []float32{0.3, 0.3, 0.3, 0.3}},
			}

			err := driver.Upsert(context.Background(), docs)
			Expect(err).NotTo(HaveOccurred())

			ids, err := driver.ListIDs(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]uint64{1, 2, 3}))
		})

		It("should replace an existing document", func() {
			err := driver.Upsert(context.Background(), []vector.Document{
				{ID: 1, Text: "original", Embedding: []float32{0.1, 0.1, 0.1, 0.1}},
			})
			Expect(err).NotTo(HaveOccurred())

			err = driver.Upsert(context.Background(), []vector.Document{
				{ID: 1, Text: "updated", Embedding: []float32{0.9, 0.9, 0.9, 0.9}},
			})
			Expect(err).NotTo(HaveOccurred())

			ids, err := driver.ListIDs(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]uint64{1}))

			// The replaced embedding should now be the closest to [0.9 ...]
			results, err := driver.Query(context.Background(), []float32{0.9, 0.9, 0.9, 0.9}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].ID).To(Equal(uint64(1)))
			Expect(results[0].Score).To(BeNumerically("~", 1.0, 0.001))
		})
	})

	Describe("Query", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			// Insert test data
			docs := []vector.Document{
				{ID: 1, Text: "one", Embedding: []float32{0.1, 0.1, 0.1, 0.1}},
				{ID: 2, Text: "two", Embedding: []float32{0.2, 0.2, 0.2, 0.2}},
				{ID: 3, Text: "three", Embedding: []float32{0.3, 0.3, 0.3, 0.3}},
				{ID: 4, Text: "four", Embedding: []float32{0.4, 0.4, 0.4, 0.4}},
				{ID: 5, Text: "five", Embedding: []float32{0.5, 0.5, 0.5, 0.5}},
			}
			err = driver.Upsert(context.Background(), docs)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should return the closest documents", func() {
			queryVec := []float32{0.3, 0.3, 0.3, 0.3}
			results, err := driver.Query(context.Background(), queryVec, 3)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(3))

			// The closest document to [0.3, 0.3, 0.3, 0.3] should be id 3
			Expect(results[0].ID).To(Equal(uint64(3)))
		})

		It("should respect topK limit", func() {
			queryVec := []float32{0.3, 0.3, 0.3, 0.3}
			results, err := driver.Query(context.Background(), queryVec, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
		})

		It("should default topK to 10 when zero or negative", func() {
			queryVec := []float32{0.3, 0.3, 0.3, 0.3}
			results, err := driver.Query(context.Background(), queryVec, 0)
			Expect(err).NotTo(HaveOccurred())
			// We only have 5 documents, so we should get 5 back
			Expect(results).To(HaveLen(5))
		})

		It("should return similarity scores in descending order", func() {
			queryVec := []float32{0.3, 0.3, 0.3, 0.3}
			results, err := driver.Query(context.Background(), queryVec, 5)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(5))

			// Scores should be in descending order (closest first = highest score)
			for i := 1; i < len(results); i++ {
				Expect(results[i-1].Score).To(BeNumerically(">=", results[i].Score))
			}
		})
	})

	Describe("Delete", func() {
		var driver *sqlitevec.SQLiteVecDriver

		BeforeEach(func() {
			var err error
			driver, err = sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())

			docs := []vector.Document{
				{ID: 1, Text: "one", Embedding: []float32{0.1, 0.1, 0.1, 0.1}},
				{ID: 2, Text: "two", Embedding: []float32{0.2, 0.2, 0.2, 0.2}},
				{ID: 3, Text: "three", Embedding: []float32{0.3, 0.3, 0.3, 0.3}},
			}
			err = driver.Upsert(context.Background(), docs)
			Expect(err).NotTo(HaveOccurred())
		})

		AfterEach(func() {
			Expect(driver.Close()).To(Succeed())
		})

		It("should do nothing when given empty IDs", func() {
			err := driver.Delete(context.Background(), []uint64{})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should delete a single document", func() {
			err := driver.Delete(context.Background(), []uint64{1})
			Expect(err).NotTo(HaveOccurred())

			ids, err := driver.ListIDs(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]uint64{2, 3}))
		})

		It("should delete multiple documents", func() {
			err := driver.Delete(context.Background(), []uint64{1, 2})
			Expect(err).NotTo(HaveOccurred())

			ids, err := driver.ListIDs(context.Background())
			Expect(err).NotTo(HaveOccurred())
			Expect(ids).To(Equal([]uint64{3}))
		})

		It("should not error when deleting non-existent IDs", func() {
			err := driver.Delete(context.Background(), []uint64{42})
			Expect(err).NotTo(HaveOccurred())
		})

		It("should remove documents from query results after deletion", func() {
			err := driver.Delete(context.Background(), []uint64{3})
			Expect(err).NotTo(HaveOccurred())

			queryVec := []float32{0.3, 0.3, 0.3, 0.3}
			results, err := driver.Query(context.Background(), queryVec, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))

			for _, result := range results {
				Expect(result.ID).NotTo(Equal(uint64(3)))
			}
		})
	})

	Describe("Close", func() {
		It("should close the database connection", func() {
			driver, err := sqlitevec.NewSQLiteVecDriver(sqlitevec.Config{
				DBPath:     ":memory:",
				Dimensions: 4,
			}, logger)
			Expect(err).NotTo(HaveOccurred())
			Expect(driver.Close()).To(Succeed())
		})
	})
})
