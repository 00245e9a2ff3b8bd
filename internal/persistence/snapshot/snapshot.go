package snapshot

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"portsim/internal/sim/rng"
	"portsim/internal/sim/world"
)

// Version is the only payload layout this build reads and writes.
const Version = 1

var ErrUnsupportedVersion = errors.New("unsupported save version")

// Payload is the serialized save. Gold and other unbounded amounts travel as
// decimal strings; everything else is plain JSON.
type Payload struct {
	Version int          `json:"version"`
	Client  Client       `json:"client"`
	Rng     rng.State    `json:"rng"`
	State   *world.State `json:"state"`
}

// Client carries host-side bookkeeping. The simulation never reads it.
// JournalSeq is the last journal entry folded into the state.
type Client struct {
	WallClockMs int64  `json:"wall_clock_ms"`
	JournalSeq  uint64 `json:"journal_seq"`
}

// Header is the first line of a save file, readable without decoding the
// payload.
type Header struct {
	Version  int    `json:"version"`
	SimNowMs int64  `json:"sim_now_ms"`
	Digest   string `json:"digest"`
}

func Encode(s *world.State, c Client) ([]byte, error) {
	if s == nil {
		return nil, fmt.Errorf("encode: nil state")
	}
	return json.Marshal(Payload{
		Version: Version,
		Client:  c,
		Rng:     s.Rng,
		State:   s,
	})
}

// Decode validates raw against the payload schema, restores the RNG into the
// state and, when e is non-nil, runs the invariant checker on the result.
func Decode(raw []byte, e *world.Engine) (Payload, error) {
	var probe struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Payload{}, fmt.Errorf("decode: %w", err)
	}
	if probe.Version != Version {
		return Payload{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, probe.Version)
	}
	if err := Validate(raw); err != nil {
		return Payload{}, err
	}
	var p Payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Payload{}, fmt.Errorf("decode: %w", err)
	}
	if p.State == nil {
		return Payload{}, fmt.Errorf("decode: missing state")
	}
	p.State.Rng = p.Rng
	p.State.Normalize()
	if e != nil {
		if err := e.Check(nil, p.State, world.CheckContext{}); err != nil {
			return Payload{}, fmt.Errorf("decode: %w", err)
		}
	}
	return p, nil
}

type codec int

const (
	codecPlain codec = iota
	codecZstd
	codecLZ4
)

func codecFor(path string) codec {
	switch {
	case strings.HasSuffix(path, ".zst"):
		return codecZstd
	case strings.HasSuffix(path, ".lz4"):
		return codecLZ4
	default:
		return codecPlain
	}
}

// WriteFile stores s at path: a JSON header line, then the payload. The
// extension picks the compression (.zst, .lz4, or none). The file is written
// beside path and renamed into place.
func WriteFile(path string, s *world.State, c Client) (Header, error) {
	body, err := Encode(s, c)
	if err != nil {
		return Header{}, err
	}
	h := Header{Version: Version, SimNowMs: s.SimNowMs, Digest: world.Digest(s)}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Header{}, err
	}
	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return Header{}, err
	}
	if err := writeBody(f, codecFor(path), h, body); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return Header{}, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return Header{}, err
	}
	if err := os.Rename(tmp, path); err != nil {
		return Header{}, err
	}
	return h, nil
}

func writeBody(f io.Writer, c codec, h Header, body []byte) error {
	var w io.WriteCloser
	switch c {
	case codecZstd:
		enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			return err
		}
		w = enc
	case codecLZ4:
		w = lz4.NewWriter(f)
	default:
		w = nopCloser{f}
	}
	bw := bufio.NewWriterSize(w, 256*1024)
	hb, _ := json.Marshal(h)
	if _, err := bw.Write(hb); err != nil {
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		return err
	}
	if _, err := bw.Write(body); err != nil {
		return err
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return w.Close()
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// ReadFile returns the header and the raw payload stored at path.
func ReadFile(path string) (Header, []byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return Header{}, nil, err
	}
	defer f.Close()

	var r io.Reader
	switch codecFor(path) {
	case codecZstd:
		dec, err := zstd.NewReader(f)
		if err != nil {
			return Header{}, nil, err
		}
		defer dec.Close()
		r = dec
	case codecLZ4:
		r = lz4.NewReader(f)
	default:
		r = f
	}

	br := bufio.NewReaderSize(r, 256*1024)
	line, err := br.ReadBytes('\n')
	if err != nil {
		return Header{}, nil, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(bytes.TrimSpace(line), &h); err != nil {
		return Header{}, nil, fmt.Errorf("parse header: %w", err)
	}
	body, err := io.ReadAll(br)
	if err != nil {
		return Header{}, nil, fmt.Errorf("read payload: %w", err)
	}
	return h, body, nil
}

// LoadFile reads and decodes the save at path and checks the decoded state
// against the digest recorded in the header.
func LoadFile(path string, e *world.Engine) (Header, Payload, error) {
	h, body, err := ReadFile(path)
	if err != nil {
		return Header{}, Payload{}, err
	}
	if h.Version != Version {
		return h, Payload{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	p, err := Decode(body, e)
	if err != nil {
		return h, Payload{}, err
	}
	if got := world.Digest(p.State); got != h.Digest {
		return h, Payload{}, fmt.Errorf("load %s: digest mismatch: header %s, state %s", path, h.Digest, got)
	}
	return h, p, nil
}
