package profile

import (
	"bytes"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/xuri/excelize/v2"
)

var _ = Describe("ExportXLSX", func() {
	var store *TableStore

	BeforeEach(func() {
		var err error
		store, err = NewTableStore(GinkgoT().TempDir())
		Expect(err).NotTo(HaveOccurred())
	})

	When("the table has records", func() {
		var records []Record

		BeforeEach(func() {
			records = []Record{
				{StoreName: "ACME", ItemName: "Milk", Price: "$3.50"},
				{StoreName: "ACME", ItemName: "Bread", Price: "$2.00"},
			}
			Expect(store.AppendRecords("alice", "groceries", records)).To(Succeed())
		})

		It("should round-trip the rows in append order", func() {
			data, err := store.ExportXLSX("alice", "groceries")
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			rows, err := f.GetRows(f.GetSheetName(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([][]string{
				{"Store Name", "Item Purchased", "Price"},
				{"ACME", "Milk", "$3.50"},
				{"ACME", "Bread", "$2.00"},
			}))
		})
	})

	When("the table is empty", func() {
		It("should export just the header row", func() {
			data, err := store.ExportXLSX("alice", "empty")
			Expect(err).NotTo(HaveOccurred())

			f, err := excelize.OpenReader(bytes.NewReader(data))
			Expect(err).NotTo(HaveOccurred())
			defer f.Close()

			rows, err := f.GetRows(f.GetSheetName(0))
			Expect(err).NotTo(HaveOccurred())
			Expect(rows).To(Equal([][]string{
				{"Store Name", "Item Purchased", "Price"},
			}))
		})
	})
})
