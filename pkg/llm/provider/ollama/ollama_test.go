package ollama_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/llm"
	"github.com/engramlabs/engram/pkg/llm/provider"
	"github.com/engramlabs/engram/pkg/llm/provider/ollama"
)

func TestOllama(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Ollama Provider Suite")
}

var _ = Describe("Generator", func() {
	var (
		ctx      context.Context
		server   *httptest.Server
		requests []llm.ChatRequest
		respond  func(w http.ResponseWriter)
	)

	BeforeEach(func() {
		ctx = context.Background()
		requests = nil
		respond = func(w http.ResponseWriter) {
			json.NewEncoder(w).Encode(llm.ChatResponse{
				Message: llm.Message{Role: "assistant", Content: "  hello there  \n"},
				Done:    true,
			})
		}
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/chat"))

			var req llm.ChatRequest
			Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
			requests = append(requests, req)
			respond(w)
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	newGenerator := func() *ollama.Generator {
		return ollama.New(ollama.Config{BaseURL: server.URL, Model: "test-model"})
	}

	It("returns the trimmed assistant content", func() {
		reply, err := newGenerator().Generate(ctx, "hi", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(reply).To(Equal("hello there"))
	})

	It("sends a non-streaming request for the configured model", func() {
		_, err := newGenerator().Generate(ctx, "hi", "")
		Expect(err).NotTo(HaveOccurred())

		Expect(requests).To(HaveLen(1))
		Expect(requests[0].Model).To(Equal("test-model"))
		Expect(requests[0].Stream).To(BeFalse())
	})

	It("prepends a system message only when one is given", func() {
		gen := newGenerator()

		_, err := gen.Generate(ctx, "hi", "be terse")
		Expect(err).NotTo(HaveOccurred())
		Expect(requests[0].Messages).To(HaveLen(2))
		Expect(requests[0].Messages[0]).To(Equal(llm.Message{Role: "system", Content: "be terse"}))
		Expect(requests[0].Messages[1]).To(Equal(llm.Message{Role: "user", Content: "hi"}))

		_, err = gen.Generate(ctx, "hi", "   ")
		Expect(err).NotTo(HaveOccurred())
		Expect(requests[1].Messages).To(HaveLen(1))
		Expect(requests[1].Messages[0].Role).To(Equal("user"))
	})

	It("surfaces non-200 responses as a provider error with status", func() {
		respond = func(w http.ResponseWriter) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("model not loaded"))
		}

		_, err := newGenerator().Generate(ctx, "hi", "")
		Expect(err).To(HaveOccurred())

		var provErr *provider.Error
		Expect(errors.As(err, &provErr)).To(BeTrue())
		Expect(provErr.Provider).To(Equal("ollama"))
		Expect(provErr.Status).To(Equal(http.StatusInternalServerError))
		Expect(provErr.Error()).To(ContainSubstring("model not loaded"))
	})

	It("surfaces connection failures as a provider error without status", func() {
		gen := ollama.New(ollama.Config{BaseURL: "http://127.0.0.1:1", Model: "test-model"})

		_, err := gen.Generate(ctx, "hi", "")
		Expect(err).To(HaveOccurred())

		var provErr *provider.Error
		Expect(errors.As(err, &provErr)).To(BeTrue())
		Expect(provErr.Status).To(BeZero())
	})

	It("surfaces malformed response bodies as a provider error", func() {
		respond = func(w http.ResponseWriter) {
			w.Write([]byte("not json"))
		}

		_, err := newGenerator().Generate(ctx, "hi", "")
		Expect(err).To(HaveOccurred())

		var provErr *provider.Error
		Expect(errors.As(err, &provErr)).To(BeTrue())
	})
})
