package extraction

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func encodeTestImage(format string) []byte {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	var buf bytes.Buffer
	switch format {
	case "png":
		Expect(png.Encode(&buf, img)).To(Succeed())
	case "jpeg":
		Expect(jpeg.Encode(&buf, img, nil)).To(Succeed())
	}
	return buf.Bytes()
}

var _ = Describe("NormalizeUpload", func() {
	When("the upload is already PNG", func() {
		It("should pass the bytes through unchanged", func() {
			data := encodeTestImage("png")
			out, err := NormalizeUpload(data, "image/png")
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(Equal(data))
		})
	})

	When("the upload is JPEG", func() {
		It("should convert it to PNG", func() {
			out, err := NormalizeUpload(encodeTestImage("jpeg"), "image/jpeg")
			Expect(err).NotTo(HaveOccurred())
			_, err = png.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the content type is missing", func() {
		It("should still decode a JPEG body", func() {
			out, err := NormalizeUpload(encodeTestImage("jpeg"), "")
			Expect(err).NotTo(HaveOccurred())
			_, err = png.Decode(bytes.NewReader(out))
			Expect(err).NotTo(HaveOccurred())
		})
	})

	When("the bytes are not an image", func() {
		It("should return a decode error", func() {
			_, err := NormalizeUpload([]byte("not an image"), "image/jpeg")
			Expect(err).To(HaveOccurred())
		})
	})
})
