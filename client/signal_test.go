package client_test

import (
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/meshlink/client"
)

var _ = Describe("ClassifySignal", func() {
	It("splits the loss range into three equal bands", func() {
		Expect(client.LowLossThreshold).To(Equal(byte(46)))
		Expect(client.HighLossThreshold).To(Equal(byte(69)))
	})

	It("is high at or below the low threshold", func() {
		Expect(client.ClassifySignal(0)).To(Equal(client.SignalHigh))
		Expect(client.ClassifySignal(client.MinSignalLoss)).To(Equal(client.SignalHigh))
		Expect(client.ClassifySignal(client.LowLossThreshold)).To(Equal(client.SignalHigh))
	})

	It("is medium strictly between the thresholds", func() {
		Expect(client.ClassifySignal(client.LowLossThreshold + 1)).To(Equal(client.SignalMedium))
		Expect(client.ClassifySignal(client.HighLossThreshold - 1)).To(Equal(client.SignalMedium))
	})

	It("is low at or above the high threshold", func() {
		Expect(client.ClassifySignal(client.HighLossThreshold)).To(Equal(client.SignalLow))
		Expect(client.ClassifySignal(client.MaxSignalLoss)).To(Equal(client.SignalLow))
		Expect(client.ClassifySignal(0xFF)).To(Equal(client.SignalLow))
	})
})
