package graph

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"io"
	"math"
	"os"
	"unsafe"

	"ev_router/pkg/station"
)

const (
	magicBytes   = "EVROUTER"
	version      = uint32(1)
	maxNodes     = 1_000_000
	maxEdges     = 200_000_000
	maxNameBytes = 64 << 20
)

// ErrCorruptCache is returned when a cache file fails validation.
var ErrCorruptCache = errors.New("corrupt network cache")

// fileHeader is the binary header.
type fileHeader struct {
	Magic      [8]byte
	Version    uint32
	NumNodes   uint32
	NumEdges   uint32
	NameBytes  uint32
	MaxRangeKm float64
}

// Cache is a prebuilt station network: the validated station table and the
// range graph built from it.
type Cache struct {
	Network    *station.Network
	Graph      *Graph
	MaxRangeKm float64
}

// WriteBinary serializes the network and its graph to path.
// The file is written to a temp path and renamed into place.
func WriteBinary(path string, net *station.Network, g *Graph, maxRangeKm float64) error {
	if uint32(net.Len()) != g.NumNodes {
		return fmt.Errorf("network has %d stations, graph has %d nodes", net.Len(), g.NumNodes)
	}

	tmpPath := path + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		f.Close()
		os.Remove(tmpPath) // clean up on error
	}()

	crcWriter := crc32Writer{w: f, hash: crc32.NewIEEE()}
	w := &crcWriter

	// Station columns.
	stations := net.Stations()
	lat := make([]float64, len(stations))
	lon := make([]float64, len(stations))
	rate := make([]float64, len(stations))
	nameOff := make([]uint32, len(stations)+1)
	var names []byte
	for i, s := range stations {
		lat[i], lon[i], rate[i] = s.Lat, s.Lon, s.Rate
		nameOff[i] = uint32(len(names))
		names = append(names, s.Name...)
	}
	nameOff[len(stations)] = uint32(len(names))

	// Write header.
	hdr := fileHeader{
		Version:    version,
		NumNodes:   g.NumNodes,
		NumEdges:   g.NumEdges,
		NameBytes:  uint32(len(names)),
		MaxRangeKm: maxRangeKm,
	}
	copy(hdr.Magic[:], magicBytes)
	if err := binary.Write(w, binary.LittleEndian, &hdr); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	if err := writeFloat64Slice(w, lat); err != nil {
		return fmt.Errorf("write Lat: %w", err)
	}
	if err := writeFloat64Slice(w, lon); err != nil {
		return fmt.Errorf("write Lon: %w", err)
	}
	if err := writeFloat64Slice(w, rate); err != nil {
		return fmt.Errorf("write Rate: %w", err)
	}
	if err := writeUint32Slice(w, nameOff); err != nil {
		return fmt.Errorf("write name offsets: %w", err)
	}
	if _, err := w.Write(names); err != nil {
		return fmt.Errorf("write names: %w", err)
	}

	// Graph.
	if err := writeUint32Slice(w, g.FirstOut); err != nil {
		return fmt.Errorf("write FirstOut: %w", err)
	}
	if err := writeUint32Slice(w, g.Head); err != nil {
		return fmt.Errorf("write Head: %w", err)
	}
	if err := writeFloat64Slice(w, g.Dist); err != nil {
		return fmt.Errorf("write Dist: %w", err)
	}

	// Write CRC32 trailer.
	checksum := crcWriter.hash.Sum32()
	if err := binary.Write(f, binary.LittleEndian, checksum); err != nil {
		return fmt.Errorf("write CRC32: %w", err)
	}

	if err := f.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	// Atomic rename.
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// ReadBinary loads a cache written by WriteBinary, verifying its checksum,
// its CSR structure and the station table.
func ReadBinary(path string) (*Cache, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	crcReader := crc32Reader{r: f, hash: crc32.NewIEEE()}
	r := &crcReader

	// Read and validate header.
	var hdr fileHeader
	if err := binary.Read(r, binary.LittleEndian, &hdr); err != nil {
		return nil, fmt.Errorf("%w: read header: %v", ErrCorruptCache, err)
	}
	if string(hdr.Magic[:]) != magicBytes {
		return nil, fmt.Errorf("%w: invalid magic bytes: %q", ErrCorruptCache, hdr.Magic)
	}
	if hdr.Version != version {
		return nil, fmt.Errorf("%w: unsupported version: %d", ErrCorruptCache, hdr.Version)
	}
	if hdr.NumNodes > maxNodes {
		return nil, fmt.Errorf("%w: NumNodes %d exceeds limit %d", ErrCorruptCache, hdr.NumNodes, maxNodes)
	}
	if hdr.NumEdges > maxEdges {
		return nil, fmt.Errorf("%w: edge count exceeds limit %d", ErrCorruptCache, maxEdges)
	}
	if hdr.NameBytes > maxNameBytes {
		return nil, fmt.Errorf("%w: name table exceeds limit %d", ErrCorruptCache, maxNameBytes)
	}
	if !(hdr.MaxRangeKm > 0) || math.IsInf(hdr.MaxRangeKm, 0) {
		return nil, fmt.Errorf("%w: max range %v", ErrCorruptCache, hdr.MaxRangeKm)
	}

	n := int(hdr.NumNodes)
	lat, err := readFloat64Slice(r, n)
	if err != nil {
		return nil, fmt.Errorf("%w: read Lat: %v", ErrCorruptCache, err)
	}
	lon, err := readFloat64Slice(r, n)
	if err != nil {
		return nil, fmt.Errorf("%w: read Lon: %v", ErrCorruptCache, err)
	}
	rate, err := readFloat64Slice(r, n)
	if err != nil {
		return nil, fmt.Errorf("%w: read Rate: %v", ErrCorruptCache, err)
	}
	nameOff, err := readUint32Slice(r, n+1)
	if err != nil {
		return nil, fmt.Errorf("%w: read name offsets: %v", ErrCorruptCache, err)
	}
	names := make([]byte, hdr.NameBytes)
	if _, err := io.ReadFull(r, names); err != nil {
		return nil, fmt.Errorf("%w: read names: %v", ErrCorruptCache, err)
	}

	g := &Graph{NumNodes: hdr.NumNodes, NumEdges: hdr.NumEdges}
	if g.FirstOut, err = readUint32Slice(r, n+1); err != nil {
		return nil, fmt.Errorf("%w: read FirstOut: %v", ErrCorruptCache, err)
	}
	if g.Head, err = readUint32Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("%w: read Head: %v", ErrCorruptCache, err)
	}
	if g.Dist, err = readFloat64Slice(r, int(hdr.NumEdges)); err != nil {
		return nil, fmt.Errorf("%w: read Dist: %v", ErrCorruptCache, err)
	}

	// Read and validate CRC32.
	expectedCRC := crcReader.hash.Sum32()
	var storedCRC uint32
	if err := binary.Read(f, binary.LittleEndian, &storedCRC); err != nil {
		return nil, fmt.Errorf("%w: read CRC32: %v", ErrCorruptCache, err)
	}
	if storedCRC != expectedCRC {
		return nil, fmt.Errorf("%w: CRC32 mismatch: stored=%08x computed=%08x", ErrCorruptCache, storedCRC, expectedCRC)
	}

	if err := validateCSR(g.FirstOut, g.Head, hdr.NumNodes); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptCache, err)
	}

	stations := make([]station.Station, n)
	for i := range stations {
		lo, hi := nameOff[i], nameOff[i+1]
		if lo > hi || hi > hdr.NameBytes {
			return nil, fmt.Errorf("%w: bad name offsets for node %d", ErrCorruptCache, i)
		}
		stations[i] = station.Station{
			Name: string(names[lo:hi]),
			Lat:  lat[i],
			Lon:  lon[i],
			Rate: rate[i],
		}
	}
	net, err := station.NewNetwork(stations)
	if err != nil {
		return nil, err
	}

	return &Cache{Network: net, Graph: g, MaxRangeKm: hdr.MaxRangeKm}, nil
}

// validateCSR checks CSR invariants.
func validateCSR(firstOut, head []uint32, numNodes uint32) error {
	if uint32(len(firstOut)) != numNodes+1 {
		return fmt.Errorf("FirstOut length %d != NumNodes+1 %d", len(firstOut), numNodes+1)
	}
	if firstOut[0] != 0 {
		return fmt.Errorf("FirstOut[0]=%d, want 0", firstOut[0])
	}
	numEdges := firstOut[numNodes]
	if uint32(len(head)) != numEdges {
		return fmt.Errorf("Head length %d != FirstOut[NumNodes] %d", len(head), numEdges)
	}
	for i := uint32(1); i <= numNodes; i++ {
		if firstOut[i] < firstOut[i-1] {
			return fmt.Errorf("FirstOut not monotonic at %d: %d < %d", i, firstOut[i], firstOut[i-1])
		}
	}
	for i, h := range head {
		if h >= numNodes {
			return fmt.Errorf("Head[%d]=%d >= NumNodes=%d", i, h, numNodes)
		}
	}
	return nil
}

// Zero-copy I/O helpers using unsafe.Slice.

func writeUint32Slice(w io.Writer, s []uint32) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*4)
	_, err := w.Write(b)
	return err
}

func writeFloat64Slice(w io.Writer, s []float64) error {
	if len(s) == 0 {
		return nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), len(s)*8)
	_, err := w.Write(b)
	return err
}

func readUint32Slice(r io.Reader, n int) ([]uint32, error) {
	s := make([]uint32, n)
	if n == 0 {
		return s, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*4)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

func readFloat64Slice(r io.Reader, n int) ([]float64, error) {
	s := make([]float64, n)
	if n == 0 {
		return s, nil
	}
	b := unsafe.Slice((*byte)(unsafe.Pointer(&s[0])), n*8)
	if _, err := io.ReadFull(r, b); err != nil {
		return nil, err
	}
	return s, nil
}

// CRC32 wrapping writers/readers.

type crc32Writer struct {
	w    io.Writer
	hash crc32Hash
}

type crc32Hash interface {
	Write([]byte) (int, error)
	Sum32() uint32
}

func (cw *crc32Writer) Write(p []byte) (int, error) {
	cw.hash.Write(p)
	return cw.w.Write(p)
}

type crc32Reader struct {
	r    io.Reader
	hash crc32Hash
}

func (cr *crc32Reader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	if n > 0 {
		cr.hash.Write(p[:n])
	}
	return n, err
}
