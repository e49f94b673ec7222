package sqlitevec_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/vector"
	"github.com/engramlabs/engram/pkg/vector/sqlitevec"
)

func TestSQLiteVec(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLiteVec Driver Suite")
}

var _ = Describe("Driver", func() {
	var (
		ctx    context.Context
		driver *sqlitevec.Driver
	)

	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		driver, err = sqlitevec.New(sqlitevec.Config{DBPath: ":memory:", Dimensions: 3}, discard)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(driver.Close()).To(Succeed())
	})

	It("requires a database path and dimensions", func() {
		_, err := sqlitevec.New(sqlitevec.Config{Dimensions: 3}, discard)
		Expect(err).To(HaveOccurred())

		_, err = sqlitevec.New(sqlitevec.Config{DBPath: ":memory:"}, discard)
		Expect(err).To(HaveOccurred())
	})

	It("returns the nearest documents first", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "likes blue", Embedding: []float32{1, 0, 0}},
			{ID: "ep-2", UserID: "alice", Content: "works at sea", Embedding: []float32{0, 1, 0}},
		})).To(Succeed())

		results, err := driver.Query(ctx, "alice", []float32{0.9, 0.1, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
		Expect(results[0].ID).To(Equal("ep-1"))
		Expect(results[0].Content).To(Equal("likes blue"))
		Expect(results[0].Score).To(BeNumerically(">", results[1].Score))
	})

	It("scopes queries to the user", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "alice fact", Embedding: []float32{1, 0, 0}},
			{ID: "ep-2", UserID: "bob", Content: "bob fact", Embedding: []float32{1, 0, 0}},
		})).To(Succeed())

		results, err := driver.Query(ctx, "bob", []float32{1, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("ep-2"))
	})

	It("caps results at topK", func() {
		docs := []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "a", Embedding: []float32{1, 0, 0}},
			{ID: "ep-2", UserID: "alice", Content: "b", Embedding: []float32{0, 1, 0}},
			{ID: "ep-3", UserID: "alice", Content: "c", Embedding: []float32{0, 0, 1}},
		}
		Expect(driver.Add(ctx, docs)).To(Succeed())

		results, err := driver.Query(ctx, "alice", []float32{1, 1, 1}, 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(2))
	})

	It("updates a document re-added with the same ID", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "old fact", Embedding: []float32{1, 0, 0}},
		})).To(Succeed())
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "new fact", Embedding: []float32{0, 1, 0}},
		})).To(Succeed())

		results, err := driver.Query(ctx, "alice", []float32{0, 1, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].Content).To(Equal("new fact"))
	})

	It("deletes documents by ID", func() {
		Expect(driver.Add(ctx, []vector.Document{
			{ID: "ep-1", UserID: "alice", Content: "a", Embedding: []float32{1, 0, 0}},
			{ID: "ep-2", UserID: "alice", Content: "b", Embedding: []float32{0, 1, 0}},
		})).To(Succeed())

		Expect(driver.Delete(ctx, []string{"ep-1"})).To(Succeed())

		results, err := driver.Query(ctx, "alice", []float32{1, 0, 0}, 5)
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(1))
		Expect(results[0].ID).To(Equal("ep-2"))
	})

	It("tolerates empty batches", func() {
		Expect(driver.Add(ctx, nil)).To(Succeed())
		Expect(driver.Delete(ctx, nil)).To(Succeed())
	})
})
