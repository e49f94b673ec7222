package nop_test

import (
	"context"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/eventstream"
	"github.com/engramlabs/engram/pkg/eventstream/nop"
)

func TestNop(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Nop Publisher Suite")
}

var _ = Describe("Publisher", func() {
	It("accepts any turn event", func() {
		p := nop.NewPublisher()
		err := p.PublishTurn(context.Background(), &eventstream.TurnCompletedEvent{
			SchemaVersion: eventstream.SchemaVersionV1,
			EventType:     eventstream.EventTypeTurnCompleted,
			UserID:        "alice",
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("rejects a nil event", func() {
		p := nop.NewPublisher()
		Expect(p.PublishTurn(context.Background(), nil)).To(MatchError(eventstream.ErrNilTurnEvent))
	})

	It("closes without error", func() {
		Expect(nop.NewPublisher().Close()).To(Succeed())
	})
})
