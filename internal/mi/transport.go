package mi

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"

	"github.com/marmos91/nvmemid/internal/logger"
	"github.com/marmos91/nvmemid/internal/subsystem"
)

// maxFrameSize bounds the length of a single inbound message; responses
// are not checked against it.
const maxFrameSize = 4096

// Serve accepts connections on ln and dispatches every framed message
// received on them against sub. sub is owned exclusively by this
// goroutine for as long as Serve runs, matching the single
// reference-holder concurrency model: connections are served one at a
// time, never concurrently, so no interior locking is needed around sub.
func Serve(ctx context.Context, ln net.Listener, sub *subsystem.Subsystem) error {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
			}
			return fmt.Errorf("mi: accept: %w", err)
		}

		if err := serveConn(ctx, conn, sub); err != nil {
			logger.WarnCtx(ctx, "connection closed with error", "error", err)
		}
		if err := conn.Close(); err != nil {
			logger.WarnCtx(ctx, "error closing connection", "error", err)
		}
	}
}

// serveConn reads length-prefixed frames from conn, dispatches each
// one, and writes the length-prefixed response back. The 4-byte
// little-endian length prefix is this transport's own local framing;
// it is not part of the NVMe-MI wire message itself.
func serveConn(ctx context.Context, conn net.Conn, sub *subsystem.Subsystem) error {
	var lenBuf [4]byte
	for {
		if _, err := io.ReadFull(conn, lenBuf[:]); err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read length prefix: %w", err)
		}

		n := binary.LittleEndian.Uint32(lenBuf[:])
		if n == 0 || n > maxFrameSize {
			return fmt.Errorf("invalid frame length %d", n)
		}

		raw := make([]byte, n)
		if _, err := io.ReadFull(conn, raw); err != nil {
			return fmt.Errorf("read frame body: %w", err)
		}

		resp, err := Dispatch(ctx, sub, raw)
		if err != nil {
			return fmt.Errorf("dispatch: %w", err)
		}
		if resp == nil {
			// ICV mismatch: drop silently, no response sent.
			continue
		}

		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(resp)))
		if _, err := conn.Write(lenBuf[:]); err != nil {
			return fmt.Errorf("write length prefix: %w", err)
		}
		if _, err := conn.Write(resp); err != nil {
			return fmt.Errorf("write frame body: %w", err)
		}
	}
}
