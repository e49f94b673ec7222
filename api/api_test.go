package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/eventstream/nop"
	"github.com/engramlabs/engram/pkg/logger"
	"github.com/engramlabs/engram/pkg/memory"
	"github.com/engramlabs/engram/pkg/memory/recency"
	"github.com/engramlabs/engram/pkg/store"
	"github.com/engramlabs/engram/pkg/store/inmemory"
)

func TestAPI(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "API Suite")
}

// scriptedGenerator returns canned replies in order, cycling on exhaustion.
type scriptedGenerator struct {
	replies []string
	calls   int
}

func (g *scriptedGenerator) Generate(_ context.Context, _, _ string) (string, error) {
	reply := g.replies[g.calls%len(g.replies)]
	g.calls++
	return reply, nil
}

var _ = Describe("Server", func() {
	var (
		st     *inmemory.Store
		server *Server
		ctx    context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		st = inmemory.New()

		gen := &scriptedGenerator{replies: []string{"Blue is a nice color!"}}
		composer, err := memory.NewComposer(st, gen, recency.New(st), nop.NewPublisher(), logger.New(logger.WithWriter(io.Discard)), memory.Options{})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{ListenAddr: ":0"}, st, composer, logger.New(logger.WithWriter(io.Discard)))
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("GET /health", func() {
		It("reports ok when the store is reachable", func() {
			req, _ := http.NewRequest(http.MethodGet, "/health", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var body map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&body)).To(Succeed())
			Expect(body["ok"]).To(BeTrue())
		})
	})

	Describe("POST /api/chat", func() {
		It("returns 400 when user_id is missing", func() {
			req, _ := http.NewRequest(http.MethodPost, "/api/chat",
				strings.NewReader(`{"message":"hi"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 when message is missing", func() {
			req, _ := http.NewRequest(http.MethodPost, "/api/chat",
				strings.NewReader(`{"user_id":"alice"}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("returns 400 for a malformed body", func() {
			req, _ := http.NewRequest(http.MethodPost, "/api/chat",
				strings.NewReader(`{{{`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})

		It("runs a full turn and returns the composed result", func() {
			req, _ := http.NewRequest(http.MethodPost, "/api/chat",
				strings.NewReader(`{"user_id":"alice","message":"My favorite color is blue."}`))
			req.Header.Set("Content-Type", "application/json")

			resp, err := server.app.Test(req, 5000)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result memory.TurnResult
			Expect(json.NewDecoder(resp.Body).Decode(&result)).To(Succeed())
			Expect(result.Reply).To(Equal("Blue is a nice color!"))
			Expect(result.ShortTermCount).To(BeNumerically(">=", 1))

			// Both sides of the turn are persisted.
			msgs, err := st.RecentMessages(ctx, "alice", memory.DefaultSessionID, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
		})
	})

	Describe("GET /api/memory/:user_id", func() {
		BeforeEach(func() {
			base := time.Now().UTC().Add(-time.Hour)
			for i, content := range []string{"one", "two", "three"} {
				role := store.RoleUser
				if i%2 == 1 {
					role = store.RoleAssistant
				}
				_, err := st.InsertMessage(ctx, store.Message{
					UserID:    "alice",
					SessionID: memory.DefaultSessionID,
					Role:      role,
					Content:   content,
					CreatedAt: base.Add(time.Duration(i) * time.Minute),
				})
				Expect(err).NotTo(HaveOccurred())
			}

			_, err := st.InsertEpisode(ctx, store.Episode{
				UserID:     "alice",
				SessionID:  memory.DefaultSessionID,
				Fact:       "Alice's favorite color is blue.",
				Importance: 0.5,
			})
			Expect(err).NotTo(HaveOccurred())

			sessionID := memory.DefaultSessionID
			_, err = st.InsertSummary(ctx, store.Summary{
				UserID:    "alice",
				SessionID: &sessionID,
				Scope:     store.ScopeSession,
				Text:      "Alice talked about colors.",
			})
			Expect(err).NotTo(HaveOccurred())
		})

		It("returns the overview in chronological message order", func() {
			req, _ := http.NewRequest(http.MethodGet, "/api/memory/alice", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var overview MemoryResponse
			Expect(json.NewDecoder(resp.Body).Decode(&overview)).To(Succeed())

			Expect(overview.UserID).To(Equal("alice"))
			Expect(overview.LastMessages).To(HaveLen(3))
			Expect(overview.LastMessages[0].Content).To(Equal("one"))
			Expect(overview.LastMessages[2].Content).To(Equal("three"))
			Expect(overview.SessionSummary).NotTo(BeNil())
			Expect(*overview.SessionSummary).To(Equal("Alice talked about colors."))
			Expect(overview.LifetimeSummary).To(BeNil())
			Expect(overview.LastEpisodes).To(HaveLen(1))
			Expect(overview.LastEpisodes[0].Fact).To(Equal("Alice's favorite color is blue."))
		})

		It("returns empty collections for an unknown user", func() {
			req, _ := http.NewRequest(http.MethodGet, "/api/memory/nobody", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var overview MemoryResponse
			Expect(json.NewDecoder(resp.Body).Decode(&overview)).To(Succeed())
			Expect(overview.LastMessages).To(BeEmpty())
			Expect(overview.SessionSummary).To(BeNil())
			Expect(overview.LifetimeSummary).To(BeNil())
			Expect(overview.LastEpisodes).To(BeEmpty())
		})
	})

	Describe("GET /api/aggregate/:user_id", func() {
		It("returns daily counts and recent summaries", func() {
			_, err := st.InsertMessage(ctx, store.Message{
				UserID:    "alice",
				SessionID: memory.DefaultSessionID,
				Role:      store.RoleUser,
				Content:   "hello",
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = st.InsertSummary(ctx, store.Summary{
				UserID: "alice",
				Scope:  store.ScopeUser,
				Text:   "Alice is friendly.",
			})
			Expect(err).NotTo(HaveOccurred())

			req, _ := http.NewRequest(http.MethodGet, "/api/aggregate/alice", nil)
			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var agg AggregateResponse
			Expect(json.NewDecoder(resp.Body).Decode(&agg)).To(Succeed())
			Expect(agg.DailyMessageCounts).To(HaveLen(1))
			Expect(agg.DailyMessageCounts[0].Count).To(Equal(1))
			Expect(agg.RecentSummaries).To(HaveLen(1))
			Expect(agg.RecentSummaries[0].Scope).To(Equal(store.ScopeUser))
			Expect(agg.RecentSummaries[0].Text).To(Equal("Alice is friendly."))
		})
	})
})
