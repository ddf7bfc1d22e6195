package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	commsserver "github.com/nats-io/nats-server/v2/server"
	comms "github.com/nats-io/nats.go"

	"github.com/morezero/wallet-dapp/pkg/output"
)

const integrationPrefix = "events:comms_publisher_integration_test"

// startTestServer starts an in-process NATS server on a random port.
func startTestServer(t *testing.T) (*comms.Conn, func()) {
	t.Helper()

	opts := &commsserver.Options{
		Host:   "127.0.0.1",
		Port:   -1,
		NoLog:  true,
		NoSigs: true,
	}

	ns, err := commsserver.NewServer(opts)
	if err != nil {
		t.Fatalf("%s - failed to create server: %v", integrationPrefix, err)
	}

	go ns.Start()
	if !ns.ReadyForConnections(10 * time.Second) {
		t.Fatalf("%s - server failed to start", integrationPrefix)
	}

	nc, err := comms.Connect(ns.ClientURL(), comms.Timeout(5*time.Second))
	if err != nil {
		ns.Shutdown()
		t.Fatalf("%s - failed to connect: %v", integrationPrefix, err)
	}

	cleanup := func() {
		nc.Close()
		ns.Shutdown()
		ns.WaitForShutdown()
	}

	return nc, cleanup
}

func withdrawEvent() *OutputsEvent {
	return &OutputsEvent{
		InputID:   "input-7",
		Operation: "ether_withdraw",
		Status:    "accept",
		Outputs: output.Encode(output.Set{
			output.Notice{Payload: `{"type":"ether_withdraw"}`},
			output.Voucher{Destination: common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"), Payload: []byte{0xab}},
		}),
		Timestamp: "2026-01-01T00:00:00Z",
	}
}

func TestCommsPublisher_PerKindSubjects(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	received := make(chan OutputEvent, 2)
	sub, err := nc.Subscribe("dapp.wallet.output.*", func(msg *comms.Msg) {
		var event OutputEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			t.Errorf("%s - failed to unmarshal: %v", integrationPrefix, err)
			return
		}
		received <- event
	})
	if err != nil {
		t.Fatalf("%s - failed to subscribe: %v", integrationPrefix, err)
	}
	defer sub.Unsubscribe()

	if err := NewCommsPublisher(nc, nil).PublishOutputs(context.Background(), withdrawEvent()); err != nil {
		t.Fatalf("%s - PublishOutputs failed: %v", integrationPrefix, err)
	}
	nc.Flush()

	wantKinds := []output.Kind{output.KindNotice, output.KindVoucher}
	for i, want := range wantKinds {
		select {
		case got := <-received:
			if got.Output.Kind != want || got.Index != i || got.InputID != "input-7" {
				t.Errorf("%s - event %d = %+v, want kind %s", integrationPrefix, i, got, want)
			}
		case <-time.After(5 * time.Second):
			t.Fatalf("%s - timeout waiting for %s output", integrationPrefix, want)
		}
	}
}

func TestCommsPublisher_BatchSubject(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	received := make(chan *OutputsEvent, 1)
	sub, err := nc.Subscribe("dapp.wallet.outputs", func(msg *comms.Msg) {
		var event OutputsEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			return
		}
		received <- &event
	})
	if err != nil {
		t.Fatalf("%s - failed to subscribe: %v", integrationPrefix, err)
	}
	defer sub.Unsubscribe()

	if err := NewCommsPublisher(nc, nil).PublishOutputs(context.Background(), withdrawEvent()); err != nil {
		t.Fatalf("%s - PublishOutputs failed: %v", integrationPrefix, err)
	}
	nc.Flush()

	select {
	case got := <-received:
		if got.Operation != "ether_withdraw" || len(got.Outputs) != 2 {
			t.Errorf("%s - got %+v", integrationPrefix, got)
		}
		if got.Outputs[1].Destination != "0x5FbDB2315678afecb367f032d93F642f64180aa3" || got.Outputs[1].Payload != "0xab" {
			t.Errorf("%s - voucher = %+v", integrationPrefix, got.Outputs[1])
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("%s - timeout waiting for batch event", integrationPrefix)
	}
}

func TestCommsPublisher_NamespaceAndCustomSubject(t *testing.T) {
	nc, cleanup := startTestServer(t)
	defer cleanup()

	batch := make(chan struct{}, 1)
	single := make(chan struct{}, 2)
	sub1, err := nc.Subscribe("staging.custom.outputs", func(*comms.Msg) { batch <- struct{}{} })
	if err != nil {
		t.Fatalf("%s - subscribe batch failed: %v", integrationPrefix, err)
	}
	defer sub1.Unsubscribe()
	sub2, err := nc.Subscribe("staging.dapp.wallet.output.>", func(*comms.Msg) { single <- struct{}{} })
	if err != nil {
		t.Fatalf("%s - subscribe single failed: %v", integrationPrefix, err)
	}
	defer sub2.Unsubscribe()

	publisher := NewCommsPublisher(nc, &CommsPublisherOpts{OutputsSubject: "custom.outputs", Namespace: "staging"})
	if err := publisher.PublishOutputs(context.Background(), withdrawEvent()); err != nil {
		t.Fatalf("%s - PublishOutputs failed: %v", integrationPrefix, err)
	}
	nc.Flush()

	for _, ch := range []struct {
		name string
		ch   chan struct{}
	}{
		{"batch", batch},
		{"single", single},
	} {
		select {
		case <-ch.ch:
		case <-time.After(5 * time.Second):
			t.Errorf("%s - timeout waiting for %s event", integrationPrefix, ch.name)
		}
	}
}

func TestNewCommsPublisher_Defaults(t *testing.T) {
	p := NewCommsPublisher(nil, nil)
	if p.outputsSubject != "dapp.wallet.outputs" {
		t.Errorf("%s - outputsSubject = %q", integrationPrefix, p.outputsSubject)
	}
	p = NewCommsPublisher(nil, &CommsPublisherOpts{})
	if p.outputsSubject != "dapp.wallet.outputs" {
		t.Errorf("%s - outputsSubject with empty opts = %q", integrationPrefix, p.outputsSubject)
	}
}
