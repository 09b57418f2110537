package sink

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/go-zeromq/zmq4"
)

// DefaultPublishBatchRows is the number of rows carried by one published message.
const DefaultPublishBatchRows = 64 * 1024

// endOfDataset is sent after the last batch. An IPC stream never starts with it.
var endOfDataset = []byte("EOD")

// Common errors for streaming
var (
	ErrPublisherClosed = errors.New("publisher is closed")
	ErrSendFailed      = errors.New("failed to send batch")
)

// Publisher streams record slices as Arrow IPC messages over a ZeroMQ PUSH socket.
// Every message is one IPC stream; an end marker follows the last batch.
type Publisher struct {
	endpoint  string
	batchRows int64
	codec     *IPCCodec

	socket zmq4.Socket
	mu     sync.Mutex
	closed bool
}

// NewPublisher connects a PUSH socket to endpoint, e.g. "tcp://127.0.0.1:5555".
func NewPublisher(ctx context.Context, endpoint string, batchRows int64) (*Publisher, error) {
	if batchRows <= 0 {
		batchRows = DefaultPublishBatchRows
	}

	socket := zmq4.NewPush(ctx)
	if err := socket.Dial(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", endpoint, err)
	}

	return &Publisher{
		endpoint:  endpoint,
		batchRows: batchRows,
		codec:     NewIPCCodec(),
		socket:    socket,
	}, nil
}

// PublishStats describes one published dataset.
type PublishStats struct {
	Messages int
	Rows     int64
	Bytes    int64
}

// Publish sends record in slices of at most batchRows rows, then the end marker.
func (p *Publisher) Publish(ctx context.Context, record arrow.Record) (PublishStats, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var stats PublishStats
	if p.closed {
		return stats, ErrPublisherClosed
	}

	total := record.NumRows()
	for offset := int64(0); offset < total; offset += p.batchRows {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		end := offset + p.batchRows
		if end > total {
			end = total
		}

		slice := record.NewSlice(offset, end)
		payload, err := p.codec.Encode(slice)
		slice.Release()
		if err != nil {
			return stats, fmt.Errorf("failed to encode rows %d-%d: %w", offset, end, err)
		}

		if err := p.socket.Send(zmq4.NewMsg(payload)); err != nil {
			return stats, fmt.Errorf("%w: %v", ErrSendFailed, err)
		}

		stats.Messages++
		stats.Rows += end - offset
		stats.Bytes += int64(len(payload))
	}

	if err := p.socket.Send(zmq4.NewMsg(endOfDataset)); err != nil {
		return stats, fmt.Errorf("%w: end marker: %v", ErrSendFailed, err)
	}

	return stats, nil
}

// Close closes the socket. Further publishes fail.
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	return p.socket.Close()
}

// Receiver collects published datasets from a ZeroMQ PULL socket.
type Receiver struct {
	socket zmq4.Socket
	codec  *IPCCodec
}

// NewReceiver binds a PULL socket on endpoint. Use port 0 to pick a free port.
func NewReceiver(ctx context.Context, endpoint string) (*Receiver, error) {
	socket := zmq4.NewPull(ctx)
	if err := socket.Listen(endpoint); err != nil {
		_ = socket.Close()
		return nil, fmt.Errorf("failed to bind %s: %w", endpoint, err)
	}

	return &Receiver{
		socket: socket,
		codec:  NewIPCCodec(),
	}, nil
}

// Endpoint returns the bound address in tcp://host:port form.
func (r *Receiver) Endpoint() string {
	return "tcp://" + r.socket.Addr().String()
}

// Collect receives messages until the end marker and returns the records in
// arrival order. The caller releases the returned records.
func (r *Receiver) Collect() ([]arrow.Record, error) {
	var records []arrow.Record
	release := func() {
		for _, rec := range records {
			rec.Release()
		}
	}

	for {
		msg, err := r.socket.Recv()
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to receive: %w", err)
		}

		payload := msg.Bytes()
		if bytes.Equal(payload, endOfDataset) {
			return records, nil
		}

		batch, err := r.codec.Decode(payload)
		if err != nil {
			release()
			return nil, fmt.Errorf("failed to decode batch: %w", err)
		}
		records = append(records, batch...)
	}
}

// Close closes the socket.
func (r *Receiver) Close() error {
	return r.socket.Close()
}
