package sim

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-gost/blackhole/observer/stats"
	"github.com/go-gost/blackhole/routing"
	"github.com/go-gost/blackhole/trust"
)

type NodeSummary struct {
	ID        routing.NodeID `json:"node"`
	Forwarded uint64         `json:"forwarded"`
	Dropped   uint64         `json:"dropped"`
}

// Summary is the end-of-run report of a simulation.
type Summary struct {
	Nodes    int           `json:"nodes"`
	Duration time.Duration `json:"duration"`
	Sent     uint64        `json:"sent"`
	Received uint64        `json:"received"`
	Lost     uint64        `json:"lost"`
	// LossRatio and DeliveryRatio are percentages of the sent packets.
	LossRatio     float64 `json:"lossRatio"`
	DeliveryRatio float64 `json:"deliveryRatio"`
	// Throughput is the received payload rate in kbps.
	Throughput float64 `json:"throughput"`
	// Delay is the mean end-to-end delay in seconds, -1 when nothing arrived.
	Delay      float64       `json:"delay"`
	Protocols  []NodeSummary `json:"protocols,omitempty"`
	TrustScore []trust.Entry `json:"trust,omitempty"`
}

func NewSummary(network *Network, duration time.Duration, packetSize int, agg *Aggregator) *Summary {
	totals := network.Totals()
	s := &Summary{
		Nodes:    network.Size(),
		Duration: duration,
		Sent:     totals.Sent,
		Received: totals.Received,
		Delay:    -1,
	}
	if totals.Sent > totals.Received {
		s.Lost = totals.Sent - totals.Received
	}
	if s.Sent > 0 {
		s.LossRatio = float64(s.Lost) / float64(s.Sent) * 100
		s.DeliveryRatio = float64(s.Received) / float64(s.Sent) * 100
	}
	if secs := duration.Seconds(); secs > 0 {
		s.Throughput = float64(s.Received) * float64(packetSize) * 8 / (secs * 1000)
	}
	if s.Received > 0 {
		s.Delay = totals.Delay.Seconds() / float64(s.Received)
	}

	for _, node := range network.Nodes() {
		st := node.Stats()
		if st == nil {
			continue
		}
		s.Protocols = append(s.Protocols, NodeSummary{
			ID:        node.ID(),
			Forwarded: st.Get(stats.KindForwarded),
			Dropped:   st.Get(stats.KindDropped),
		})
	}
	if agg != nil {
		s.TrustScore = agg.Scores()
	}
	return s
}

func (s *Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder

	fmt.Fprintln(&b, "-------- Simulation Results --------")
	fmt.Fprintf(&b, "Total Nodes: %d\n", s.Nodes)
	fmt.Fprintf(&b, "Simulation Time: %g seconds\n", s.Duration.Seconds())
	fmt.Fprintf(&b, "Sent Packets: %d\n", s.Sent)
	fmt.Fprintf(&b, "Received Packets: %d\n", s.Received)
	fmt.Fprintf(&b, "Lost Packets: %d\n", s.Lost)
	fmt.Fprintf(&b, "Packet Loss Ratio: %.6g%%\n", s.LossRatio)
	fmt.Fprintf(&b, "Packet Delivery Ratio: %.6g%%\n", s.DeliveryRatio)
	fmt.Fprintf(&b, "Average Throughput: %.6g Kbps\n", s.Throughput)
	fmt.Fprintf(&b, "Average End-to-End Delay: %.6g seconds\n", s.Delay)

	for _, p := range s.Protocols {
		fmt.Fprintf(&b, "Node %d: forwarded %d, dropped %d\n", p.ID, p.Forwarded, p.Dropped)
	}
	if len(s.TrustScore) > 0 {
		fmt.Fprintln(&b, "Global Trust Scores:")
		for _, e := range s.TrustScore {
			fmt.Fprintf(&b, "  Node %d: %.6g\n", e.ID, e.Score)
		}
	}

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
