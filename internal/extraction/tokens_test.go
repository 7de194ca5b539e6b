package extraction

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("TokenGuard", func() {
	Describe("Count", func() {
		When("the model encoding is unknown", func() {
			It("should fail open with a count of 0", func() {
				guard := NewTokenGuard("definitely-not-a-model", 100)
				Expect(guard.Count([]string{"some text", "more text"})).To(Equal(0))
			})
		})

		It("should equal the sum of per-message counts", func() {
			guard := NewTokenGuard("gpt-4o-mini", DefaultTokenBudget)
			a := "Extract Store Name, Item Purchase, Price lines."
			b := "MILK 3.50\nBREAD 2.00"
			Expect(guard.Count([]string{a, b})).To(Equal(guard.Count([]string{a}) + guard.Count([]string{b})))
		})
	})

	Describe("Within", func() {
		When("estimation fails open", func() {
			It("should let the caller proceed", func() {
				guard := NewTokenGuard("definitely-not-a-model", 1)
				count, ok := guard.Within([]string{"a very long message"})
				Expect(count).To(Equal(0))
				Expect(ok).To(BeTrue())
			})
		})
	})

	Describe("NewTokenGuard", func() {
		When("the budget is not set", func() {
			It("should fall back to the default ceiling", func() {
				guard := NewTokenGuard("gpt-4o-mini", 0)
				Expect(guard.budget).To(Equal(DefaultTokenBudget))
			})
		})
	})
})
