package extraction

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/tansell/receipt-ledger/internal/profile"
)

func TestExtraction(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Extraction Suite")
}

var _ = Describe("ParseRecords", func() {
	var (
		text    string
		records []profile.Record
		err     error
	)

	JustBeforeEach(func() {
		records, err = ParseRecords(text)
	})

	When("parsing a well-formed response", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nItem Purchase: Milk\nPrice: $3.50\nItem Purchase: Bread\nPrice: $2.00"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should return one record per item/price pair, in source order", func() {
			Expect(records).To(Equal([]profile.Record{
				{StoreName: "ACME", ItemName: "Milk", Price: "$3.50"},
				{StoreName: "ACME", ItemName: "Bread", Price: "$2.00"},
			}))
		})
	})

	When("the response has no Store Name line", func() {
		BeforeEach(func() {
			text = "Item Purchase: Milk\nPrice: $3.50"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should leave the store name empty", func() {
			Expect(records).To(HaveLen(1))
			Expect(records[0].StoreName).To(Equal(""))
		})
	})

	When("an item has no adjacent price line", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nItem Purchase: Milk\nPrice: $3.50\nItem Purchase: Mystery\nItem Purchase: Bread\nPrice: $2.00"
		})

		It("should not return an error", func() {
			Expect(err).NotTo(HaveOccurred())
		})

		It("should silently drop the unpaired item and keep the rest", func() {
			Expect(records).To(Equal([]profile.Record{
				{StoreName: "ACME", ItemName: "Milk", Price: "$3.50"},
				{StoreName: "ACME", ItemName: "Bread", Price: "$2.00"},
			}))
		})
	})

	When("the last line is an item with nothing after it", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nItem Purchase: Milk"
		})

		It("should produce no records and no error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	When("a Store Name line is missing its separator", func() {
		BeforeEach(func() {
			text = "Store Name ACME\nItem Purchase: Milk\nPrice: $3.50"
		})

		It("should abort the whole response with a FormatError", func() {
			var formatErr *FormatError
			Expect(err).To(HaveOccurred())
			Expect(err).To(BeAssignableToTypeOf(formatErr))
			Expect(records).To(BeNil())
		})
	})

	When("an Item Purchase line is missing its separator", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nItem Purchase: Milk\nPrice: $3.50\nItem Purchase Bread\nPrice: $2.00"
		})

		It("should abort the whole response, dropping the earlier well-formed pair", func() {
			var formatErr *FormatError
			Expect(err).To(BeAssignableToTypeOf(formatErr))
			Expect(records).To(BeNil())
		})
	})

	When("a matched Price line is missing its separator", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nItem Purchase: Milk\nPrice $3.50"
		})

		It("should abort the whole response with a FormatError", func() {
			var formatErr *FormatError
			Expect(err).To(BeAssignableToTypeOf(formatErr))
		})
	})

	When("the response has no labels at all", func() {
		BeforeEach(func() {
			text = "thanks for shopping\nhave a nice day"
		})

		It("should return zero records without error", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	When("a Price line appears without a preceding item", func() {
		BeforeEach(func() {
			text = "Store Name: ACME\nPrice: $9.99"
		})

		It("should ignore the orphan price", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(BeEmpty())
		})
	})

	When("values carry extra whitespace and nested colons", func() {
		BeforeEach(func() {
			text = "Store Name:   ACME : East\nItem Purchase:  Milk 2%  \nPrice:  $3.50 "
		})

		It("should trim values and split on the first separator only", func() {
			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(Equal([]profile.Record{
				{StoreName: "ACME : East", ItemName: "Milk 2%", Price: "$3.50"},
			}))
		})
	})
})
