package storage_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/luma/meshlink/storage"
)

var _ = Describe("storage / Directory", func() {
	var (
		store *storage.InmemoryStore
		dir   *storage.Directory
		ctx   context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = storage.NewInmemoryStore()
		dir = storage.NewDirectory(store)
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("is empty to begin with", func() {
		Expect(dir.Nodes(ctx)).To(MatchJSON(`{}`))

		_, err := dir.Node(ctx, "0013A20040000001")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("keeps the latest record for every node", func() {
		Expect(dir.PutNode(ctx, "0013A20040000001", map[string]string{"identifier": "old"})).To(Succeed())
		Expect(dir.PutNode(ctx, "0013A20040000001", map[string]string{"identifier": "kitchen"})).To(Succeed())
		Expect(dir.PutNode(ctx, "0000000000001234", map[string]string{"identifier": "hall"})).To(Succeed())

		Expect(dir.Node(ctx, "0013A20040000001")).To(MatchJSON(`{"identifier":"kitchen"}`))
		Expect(dir.Nodes(ctx)).To(MatchJSON(`{
			"0x0013A20040000001": {"identifier": "kitchen"},
			"0x0000000000001234": {"identifier": "hall"}
		}`))
	})

	It("counts received data per source", func() {
		first := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
		second := first.Add(time.Minute)

		Expect(dir.RecordData(ctx, "1001", 5, first)).To(Succeed())
		Expect(dir.RecordData(ctx, "1001", 7, second)).To(Succeed())

		Expect(dir.Traffic(ctx, "1001")).To(MatchJSON(`{
			"packets": 2,
			"bytes": 12,
			"lastSeen": "2024-03-01T10:01:00Z"
		}`))

		_, err := dir.Traffic(ctx, "1002")
		Expect(err).To(MatchError(storage.ErrNotFound))
	})

	It("notifies store listeners of node updates", func() {
		updates := store.ListenToUpdates()

		Expect(dir.PutNode(ctx, "0013A20040000001", map[string]string{"identifier": "kitchen"})).To(Succeed())

		var update *storage.Update
		Eventually(updates).Should(Receive(&update))
		Expect(string(update.Key)).To(Equal("nodes.0x0013A20040000001"))
		Expect(update.Value).To(MatchJSON(`{"identifier":"kitchen"}`))
	})
})
