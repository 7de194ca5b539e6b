package pipeline

import (
	"path/filepath"
	"time"

	ginkgo "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = ginkgo.Describe("BoltJournal", func() {
	var journal *BoltJournal

	ginkgo.BeforeEach(func() {
		var err error
		journal, err = NewBoltJournal(filepath.Join(ginkgo.GinkgoT().TempDir(), "journal.db"))
		Expect(err).NotTo(HaveOccurred())
	})

	ginkgo.AfterEach(func() {
		if journal != nil {
			journal.Close()
		}
	})

	ginkgo.Describe("SaveEntry and ListEntries", func() {
		ginkgo.BeforeEach(func() {
			base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			entries := []*Entry{
				{ID: "1", Username: "alice", Profile: "groceries", Stage: StagePersisted, RecordCount: 2, CreatedAt: base},
				{ID: "2", Username: "bob", Profile: "travel", Stage: StageFailed, FailedAt: StageStructuring, Error: "rate limited", CreatedAt: base.Add(time.Minute)},
				{ID: "3", Username: "alice", Profile: "groceries", Stage: StageNothingToSave, CreatedAt: base.Add(2 * time.Minute)},
			}
			for _, e := range entries {
				Expect(journal.SaveEntry(e)).To(Succeed())
			}
		})

		ginkgo.It("should list a user's entries oldest first", func() {
			got, err := journal.ListEntries("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(2))
			Expect(got[0].ID).To(Equal("1"))
			Expect(got[1].ID).To(Equal("3"))
		})

		ginkgo.It("should not mix entries between users", func() {
			got, err := journal.ListEntries("bob")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].Error).To(Equal("rate limited"))
		})

		ginkgo.It("should return an empty list for an unknown user", func() {
			got, err := journal.ListEntries("nobody")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(BeEmpty())
		})
	})

	ginkgo.Describe("SaveEntry round-trip", func() {
		ginkgo.It("should preserve all entry fields", func() {
			entry := &Entry{
				ID:          "abc",
				Username:    "alice",
				Profile:     "groceries",
				Filename:    "receipt.jpg",
				Stage:       StageFailed,
				FailedAt:    StageBudgetChecked,
				RecordCount: 0,
				TokenCount:  130000,
				Error:       "token count exceeds the model's maximum context length",
				CreatedAt:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
			}
			Expect(journal.SaveEntry(entry)).To(Succeed())

			got, err := journal.ListEntries("alice")
			Expect(err).NotTo(HaveOccurred())
			Expect(got).To(HaveLen(1))
			Expect(got[0].ID).To(Equal("abc"))
			Expect(got[0].Filename).To(Equal("receipt.jpg"))
			Expect(got[0].Stage).To(Equal(StageFailed))
			Expect(got[0].FailedAt).To(Equal(StageBudgetChecked))
			Expect(got[0].TokenCount).To(Equal(130000))
			Expect(got[0].Error).To(Equal(entry.Error))
			Expect(got[0].CreatedAt).To(BeTemporally("==", entry.CreatedAt))
		})
	})
})
