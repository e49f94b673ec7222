package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/store"
	"github.com/engramlabs/engram/pkg/store/sqlite"
)

func TestSQLite(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "SQLite Store Suite")
}

var _ = Describe("Store", func() {
	var (
		ctx context.Context
		st  *sqlite.Store
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		st, err = sqlite.New(":memory:")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(st.Close()).To(Succeed())
	})

	It("creates the schema on a fresh database file", func() {
		dir := GinkgoT().TempDir()
		fileStore, err := sqlite.New(filepath.Join(dir, "engram.db"))
		Expect(err).NotTo(HaveOccurred())
		defer fileStore.Close()

		Expect(fileStore.Ping(ctx)).To(Succeed())
	})

	Describe("messages", func() {
		It("round-trips a message with generated ID and timestamp", func() {
			id, err := st.InsertMessage(ctx, store.Message{
				UserID:    "alice",
				SessionID: "default",
				Role:      store.RoleUser,
				Content:   "hello",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(id).NotTo(BeEmpty())

			msgs, err := st.RecentMessages(ctx, "alice", "default", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(1))
			Expect(msgs[0].ID).To(Equal(id))
			Expect(msgs[0].Role).To(Equal(store.RoleUser))
			Expect(msgs[0].Content).To(Equal("hello"))
			Expect(msgs[0].CreatedAt).NotTo(BeZero())
		})

		It("orders messages newest first with insertion-order tiebreak", func() {
			ts := time.Now().UTC().Truncate(time.Second)
			for _, content := range []string{"one", "two", "three"} {
				_, err := st.InsertMessage(ctx, store.Message{
					UserID:    "alice",
					SessionID: "default",
					Role:      store.RoleUser,
					Content:   content,
					CreatedAt: ts,
				})
				Expect(err).NotTo(HaveOccurred())
			}

			msgs, err := st.RecentMessages(ctx, "alice", "default", 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].Content).To(Equal("three"))
			Expect(msgs[1].Content).To(Equal("two"))
		})

		It("counts only user-role messages in the session", func() {
			for _, m := range []store.Message{
				{UserID: "alice", SessionID: "default", Role: store.RoleUser, Content: "q1"},
				{UserID: "alice", SessionID: "default", Role: store.RoleAssistant, Content: "a1"},
				{UserID: "alice", SessionID: "other", Role: store.RoleUser, Content: "q2"},
			} {
				_, err := st.InsertMessage(ctx, m)
				Expect(err).NotTo(HaveOccurred())
			}

			count, err := st.CountUserMessages(ctx, "alice", "default")
			Expect(err).NotTo(HaveOccurred())
			Expect(count).To(Equal(1))
		})
	})

	Describe("summaries", func() {
		It("distinguishes session and lifetime scope filters", func() {
			sessionID := "default"
			_, err := st.InsertSummary(ctx, store.Summary{
				UserID:    "alice",
				SessionID: &sessionID,
				Scope:     store.ScopeSession,
				Text:      "session summary",
			})
			Expect(err).NotTo(HaveOccurred())
			_, err = st.InsertSummary(ctx, store.Summary{
				UserID: "alice",
				Scope:  store.ScopeUser,
				Text:   "lifetime summary",
			})
			Expect(err).NotTo(HaveOccurred())

			sum, err := st.LatestSummary(ctx, "alice", &sessionID, store.ScopeSession)
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Text).To(Equal("session summary"))
			Expect(sum.SessionID).NotTo(BeNil())

			sum, err = st.LatestSummary(ctx, "alice", nil, store.ScopeUser)
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Text).To(Equal("lifetime summary"))
			Expect(sum.SessionID).To(BeNil())
		})

		It("returns ErrNotFound when no summary matches", func() {
			_, err := st.LatestSummary(ctx, "nobody", nil, store.ScopeUser)
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("picks the newest summary for a filter", func() {
			sessionID := "default"
			base := time.Now().UTC().Add(-time.Hour)
			for i, text := range []string{"older", "newer"} {
				_, err := st.InsertSummary(ctx, store.Summary{
					UserID:    "alice",
					SessionID: &sessionID,
					Scope:     store.ScopeSession,
					Text:      text,
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			sum, err := st.LatestSummary(ctx, "alice", &sessionID, store.ScopeSession)
			Expect(err).NotTo(HaveOccurred())
			Expect(sum.Text).To(Equal("newer"))
		})
	})

	Describe("episodes", func() {
		It("defaults importance and orders newest first", func() {
			base := time.Now().UTC().Add(-time.Hour)
			for i, fact := range []string{"fact one", "fact two"} {
				_, err := st.InsertEpisode(ctx, store.Episode{
					UserID:    "alice",
					SessionID: "default",
					Fact:      fact,
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			eps, err := st.RecentEpisodes(ctx, "alice", 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(eps).To(HaveLen(2))
			Expect(eps[0].Fact).To(Equal("fact two"))
			Expect(eps[0].Importance).To(Equal(0.5))
		})
	})

	Describe("DailyMessageCounts", func() {
		It("groups counts by day, newest day first", func() {
			today := time.Now().UTC()
			yesterday := today.Add(-24 * time.Hour)
			for _, ts := range []time.Time{today, today, yesterday} {
				_, err := st.InsertMessage(ctx, store.Message{
					UserID:    "alice",
					SessionID: "default",
					Role:      store.RoleUser,
					Content:   "hi",
					CreatedAt: ts,
				})
				Expect(err).NotTo(HaveOccurred())
			}

			counts, err := st.DailyMessageCounts(ctx, "alice", 14)
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(HaveLen(2))
			Expect(counts[0].Day).To(Equal(today.Format("2006-01-02")))
			Expect(counts[0].Count).To(Equal(2))
		})
	})
})
