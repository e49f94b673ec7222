package logger_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/logger"
)

func TestLogger(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Logger Suite")
}

var _ = Describe("New", func() {
	It("logs at Info level by default", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf))

		log.Debug("hidden")
		log.Info("visible")

		Expect(buf.String()).NotTo(ContainSubstring("hidden"))
		Expect(buf.String()).To(ContainSubstring("visible"))
	})

	It("enables Debug level with WithDebug", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithDebug(true))

		log.Debug("now visible")

		Expect(buf.String()).To(ContainSubstring("now visible"))
	})

	It("emits structured JSON with WithJSON", func() {
		var buf bytes.Buffer
		log := logger.New(logger.WithWriter(&buf), logger.WithJSON(true))

		log.Info("turn completed", "user_id", "alice")

		var record map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &record)).To(Succeed())
		Expect(record["msg"]).To(Equal("turn completed"))
		Expect(record["user_id"]).To(Equal("alice"))
	})

	It("writes to every writer with WithWriters", func() {
		var a, b bytes.Buffer
		log := logger.New(logger.WithWriters(&a, &b))

		log.Info("fan out")

		Expect(a.String()).To(ContainSubstring("fan out"))
		Expect(b.String()).To(ContainSubstring("fan out"))
	})
})

var _ = Describe("Multi", func() {
	It("dispatches records to all loggers' handlers", func() {
		var text, jsonBuf bytes.Buffer
		log := logger.Multi(
			logger.New(logger.WithWriter(&text)),
			logger.New(logger.WithWriter(&jsonBuf), logger.WithJSON(true)),
		)

		log.Info("both places")

		Expect(text.String()).To(ContainSubstring("both places"))
		Expect(jsonBuf.String()).To(ContainSubstring("both places"))
	})

	It("respects each handler's level independently", func() {
		var quiet, verbose bytes.Buffer
		log := logger.Multi(
			logger.New(logger.WithWriter(&quiet)),
			logger.New(logger.WithWriter(&verbose), logger.WithDebug(true)),
		)

		log.Debug("debug only")

		Expect(quiet.String()).NotTo(ContainSubstring("debug only"))
		Expect(verbose.String()).To(ContainSubstring("debug only"))
	})

	It("carries attrs added with With", func() {
		var buf bytes.Buffer
		log := logger.Multi(logger.New(logger.WithWriter(&buf), logger.WithJSON(true)))

		log.With(slog.String("session_id", "default")).Info("tagged")

		Expect(buf.String()).To(ContainSubstring("session_id"))
		Expect(buf.String()).To(ContainSubstring("default"))
	})
})
