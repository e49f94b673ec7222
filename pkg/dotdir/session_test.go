package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/engramlabs/engram/pkg/dotdir"
)

var _ = Describe("dotdir.Manager session", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadSessionState", func() {
		It("returns nil when no session file exists", func() {
			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid session state", func() {
			data := `{"user_id":"alice","session_id":"morning-run"}`
			err := os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte(data), 0o600)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.UserID).To(Equal("alice"))
			Expect(state.SessionID).To(Equal("morning-run"))
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "session.json"), []byte("not json"), 0o600)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadSessionState(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SaveSession", func() {
		It("persists session state to disk", func() {
			state := &dotdir.SessionState{UserID: "alice", SessionID: "default"}

			err := m.SaveSession(state, tmpDir)
			Expect(err).NotTo(HaveOccurred())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(Equal(state))
		})

		It("returns error for nil state", func() {
			err := m.SaveSession(nil, tmpDir)
			Expect(err).To(HaveOccurred())
		})

		It("overwrites existing session state", func() {
			first := &dotdir.SessionState{UserID: "alice", SessionID: "one"}
			second := &dotdir.SessionState{UserID: "alice", SessionID: "two"}

			Expect(m.SaveSession(first, tmpDir)).To(Succeed())
			Expect(m.SaveSession(second, tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.SessionID).To(Equal("two"))
		})
	})

	Describe("ClearSession", func() {
		It("removes the session file", func() {
			state := &dotdir.SessionState{UserID: "alice", SessionID: "default"}
			Expect(m.SaveSession(state, tmpDir)).To(Succeed())

			Expect(m.ClearSession(tmpDir)).To(Succeed())

			loaded, err := m.LoadSessionState(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded).To(BeNil())
		})

		It("succeeds when no session file exists", func() {
			Expect(m.ClearSession(tmpDir)).To(Succeed())
		})
	})
})
