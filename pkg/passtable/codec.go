package passtable

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/DangerousVegetable/passtool/pkg/passcrypt"
	bin "github.com/saylorsolutions/binmap"
	"go.uber.org/zap"
)

const (
	magicBytes        uint16 = 0x5054
	magicBytesInverse uint16 = 0x5450
	// FormatVersion is the version of the binary format written by Save.
	FormatVersion uint16 = 1
	// MaxFieldLen limits the length of any single field, and the number of entries or apps, when loading.
	MaxFieldLen = 16 << 20
)

type header struct {
	version  uint16
	revision uint64
	count    uint32
}

func (h *header) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&h.version),
		bin.Int(&h.revision),
		bin.Int(&h.count),
	)
}

func (e *Entry) mapper() bin.Mapper {
	return bin.MapSequence(
		stringField(&e.name),
		bin.Byte((*uint8)(&e.scheme)),
		bytesField((*[]byte)(&e.salt)),
		bytesField((*[]byte)(&e.ciphertext)),
		stringField(&e.meta.Description),
		stringsField(&e.meta.Apps),
	)
}

// Save writes the whole Table to w.
func (t *Table) Save(w io.Writer) error {
	data, err := t.MarshalBinary()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write password table: %w", err)
	}
	return nil
}

func (t *Table) MarshalBinary() ([]byte, error) {
	var (
		buf    bytes.Buffer
		endian = binary.BigEndian
		magic  = magicBytes
	)
	if len(t.entries) > MaxFieldLen {
		return nil, fmt.Errorf("%w: too many entries to encode", ErrFormat)
	}
	h := header{
		version:  FormatVersion,
		revision: t.revision,
		count:    uint32(len(t.entries)),
	}
	if err := bin.Int(&magic).Write(&buf, endian); err != nil {
		return nil, err
	}
	if err := h.mapper().Write(&buf, endian); err != nil {
		return nil, err
	}
	for _, name := range t.SortedNames() {
		if err := t.entries[name].mapper().Write(&buf, endian); err != nil {
			return nil, fmt.Errorf("failed to encode password '%s': %w", name, err)
		}
	}
	return buf.Bytes(), nil
}

// Load reads a Table written by Save. The options are applied as they are by New.
func Load(r io.Reader, opts ...Option) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read password table: %w", err)
	}
	t := New(opts...)
	if err := t.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	t.log.Debug("Loaded password table", zap.Int("entries", len(t.entries)), zap.Uint64("revision", t.revision))
	return t, nil
}

// UnmarshalBinary replaces the contents of the Table with the encoded entries.
// Input written in either byte order is accepted.
func (t *Table) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	h, endian, err := readHeader(r)
	if err != nil {
		return err
	}
	if uint64(h.count) > MaxFieldLen {
		return fmt.Errorf("%w: entry count %d is too large", ErrFormat, h.count)
	}
	entries := make(map[string]*Entry, min(int(h.count), 1024))
	for i := uint32(0); i < h.count; i++ {
		e := new(Entry)
		if err := e.mapper().Read(r, endian); err != nil {
			return formatError(fmt.Sprintf("entry %d", i), err)
		}
		if e.scheme > passcrypt.SchemeArgon2id {
			return fmt.Errorf("%w: password '%s' uses unknown %s", ErrFormat, e.name, e.scheme)
		}
		if _, ok := entries[e.name]; ok {
			return fmt.Errorf("%w: duplicate password name '%s'", ErrFormat, e.name)
		}
		entries[e.name] = e
	}
	if r.Len() != 0 {
		return fmt.Errorf("%w: %d unexpected trailing bytes", ErrFormat, r.Len())
	}
	t.entries = entries
	t.revision = h.revision
	return nil
}

func readHeader(r io.Reader) (header, binary.ByteOrder, error) {
	var (
		h      header
		magic  uint16
		endian binary.ByteOrder = binary.BigEndian
	)
	if err := bin.Int(&magic).Read(r, endian); err != nil {
		return h, nil, errNotTable
	}
	switch magic {
	case magicBytes:
	case magicBytesInverse:
		endian = binary.LittleEndian
	default:
		return h, nil, errNotTable
	}
	if err := h.mapper().Read(r, endian); err != nil {
		return h, nil, formatError("header", err)
	}
	if h.version != FormatVersion {
		return h, nil, fmt.Errorf("%w: %w %d", ErrFormat, ErrUnsupportedVersion, h.version)
	}
	return h, endian, nil
}

func formatError(field string, err error) error {
	if errors.Is(err, ErrFormat) {
		return err
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s is truncated", ErrFormat, field)
	}
	return fmt.Errorf("%w: %s: %v", ErrFormat, field, err)
}

var (
	_ bin.Mapper = bytesMapper{}
	_ bin.Mapper = stringMapper{}
	_ bin.Mapper = stringsMapper{}
)

// bytesMapper maps a uint32 length prefixed byte slice. Lengths over MaxFieldLen are rejected before allocating.
type bytesMapper struct {
	target *[]byte
}

func bytesField(target *[]byte) bin.Mapper {
	return bytesMapper{target: target}
}

func (m bytesMapper) Read(r io.Reader, endian binary.ByteOrder) error {
	n, err := readLen(r, endian)
	if err != nil {
		return err
	}
	if n == 0 {
		*m.target = nil
		return nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return err
	}
	*m.target = buf
	return nil
}

func (m bytesMapper) Write(w io.Writer, endian binary.ByteOrder) error {
	if err := writeLen(w, endian, len(*m.target)); err != nil {
		return err
	}
	_, err := w.Write(*m.target)
	return err
}

type stringMapper struct {
	target *string
}

func stringField(target *string) bin.Mapper {
	return stringMapper{target: target}
}

func (m stringMapper) Read(r io.Reader, endian binary.ByteOrder) error {
	var buf []byte
	if err := bytesField(&buf).Read(r, endian); err != nil {
		return err
	}
	*m.target = string(buf)
	return nil
}

func (m stringMapper) Write(w io.Writer, endian binary.ByteOrder) error {
	buf := []byte(*m.target)
	return bytesField(&buf).Write(w, endian)
}

// stringsMapper maps a uint32 count followed by that many strings.
type stringsMapper struct {
	target *[]string
}

func stringsField(target *[]string) bin.Mapper {
	return stringsMapper{target: target}
}

func (m stringsMapper) Read(r io.Reader, endian binary.ByteOrder) error {
	n, err := readLen(r, endian)
	if err != nil {
		return err
	}
	if n == 0 {
		*m.target = nil
		return nil
	}
	out := make([]string, 0, min(n, 1024))
	for i := 0; i < n; i++ {
		var s string
		if err := stringField(&s).Read(r, endian); err != nil {
			return err
		}
		out = append(out, s)
	}
	*m.target = out
	return nil
}

func (m stringsMapper) Write(w io.Writer, endian binary.ByteOrder) error {
	if err := writeLen(w, endian, len(*m.target)); err != nil {
		return err
	}
	for i := range *m.target {
		if err := stringField(&(*m.target)[i]).Write(w, endian); err != nil {
			return err
		}
	}
	return nil
}

func readLen(r io.Reader, endian binary.ByteOrder) (int, error) {
	var n uint32
	if err := bin.Int(&n).Read(r, endian); err != nil {
		return 0, err
	}
	if n > MaxFieldLen {
		return 0, fmt.Errorf("%w: length %d exceeds the limit of %d", ErrFormat, n, MaxFieldLen)
	}
	return int(n), nil
}

func writeLen(w io.Writer, endian binary.ByteOrder, length int) error {
	if length > MaxFieldLen {
		return fmt.Errorf("%w: length %d exceeds the limit of %d", ErrFormat, length, MaxFieldLen)
	}
	n := uint32(length)
	return bin.Int(&n).Write(w, endian)
}
