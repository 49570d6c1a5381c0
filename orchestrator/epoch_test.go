/*
 * Copyright (c) 2018-2020, NVIDIA CORPORATION. All rights reserved.
 */
package orchestrator

import (
	"context"
	"os"
	"testing"

	"github.com/ConnectedSystemsLab/StarCDN-Simulator/cluster"
	"github.com/ConnectedSystemsLab/StarCDN-Simulator/satellite"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

func TestOrchestrator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "orchestrator epoch barrier suite")
}

func writeTempTrace(lines ...string) (string, error) {
	f, err := os.CreateTemp("", "starcdn-trace-*.txt")
	if err != nil {
		return "", err
	}
	defer f.Close()
	for _, l := range lines {
		if _, err := f.WriteString(l + "\n"); err != nil {
			return "", err
		}
	}
	return f.Name(), nil
}

// boots two satellite.Server instances in-process (no exec), wires them
// directly into an Orchestrator's REQS connection map, and drives tick()
// as the barrier that §5 requires: no epoch t+1 starts before every
// satellite has ACKed epoch t.
var _ = Describe("epoch barrier", func() {
	var (
		o       *Orchestrator
		trace1  string
		trace2  string
		server1 *satellite.Server
		server2 *satellite.Server
	)

	BeforeEach(func() {
		var err error
		trace1, err = writeTempTrace("2024-01-01 00:00:10 [Requests Records]: user1, [10, 20], [[obj-1, 100]]")
		Expect(err).NotTo(HaveOccurred())
		trace2, err = writeTempTrace("2024-01-01 00:00:10 [Requests Records]: user2, [10, 20], [[obj-2, 200]]")
		Expect(err).NotTo(HaveOccurred())

		topo := cluster.NewTopology("test-uuid")
		topo.Add(&cluster.Satellite{ID: 1, Neighbors: [4]int{cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor}, Trace: trace1})
		topo.Add(&cluster.Satellite{ID: 2, Neighbors: [4]int{cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor, cluster.NoNeighbor}, Trace: trace2})

		node1 := satellite.NewNode(1)
		server1 = satellite.NewServer(node1, "", 0)
		addr1, err := server1.Listen()
		Expect(err).NotTo(HaveOccurred())
		topo.Get(1).Addr = addr1

		node2 := satellite.NewNode(2)
		server2 = satellite.NewServer(node2, "", 0)
		addr2, err := server2.Listen()
		Expect(err).NotTo(HaveOccurred())
		topo.Get(2).Addr = addr2

		go server1.Serve()
		go server2.Serve()

		o = New(Options{PoolSize: 2, CacheCapBytes: 10000})
		o.topo = topo

		Expect(o.configure(1)).To(Succeed())
		Expect(o.configure(2)).To(Succeed())
		Expect(o.openReqsChannel(1)).To(Succeed())
		Expect(o.openReqsChannel(2)).To(Succeed())
	})

	AfterEach(func() {
		o.KillAll()
		os.Remove(trace1)
		os.Remove(trace2)
	})

	It("waits for every satellite to ACK before the tick returns", func() {
		err := o.tick(context.Background(), 15)
		Expect(err).NotTo(HaveOccurred())
	})

	It("tolerates one unreachable satellite without aborting the epoch", func() {
		o.mu.Lock()
		o.conns[2].Close()
		o.mu.Unlock()

		err := o.tick(context.Background(), 15)
		Expect(err).NotTo(HaveOccurred())
	})
})
