package passcrypt

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"fmt"

	bin "github.com/saylorsolutions/binmap"
	"golang.org/x/crypto/argon2"
)

const (
	DefaultArgon2Time    uint32 = 1
	DefaultArgon2Memory  uint32 = 64 * 1024
	DefaultArgon2Threads uint8  = 4
	Argon2SaltSize              = 16

	maxArgon2Memory  uint32 = 1024 * 1024
	maxArgon2Time    uint32 = 64
	maxArgon2Threads uint8  = 16
)

var _ Deriver = (*Argon2Deriver)(nil)

// Argon2Deriver derives a Key and Nonce with Argon2id and a random Salt.
// Like ScryptDeriver, the tuning values travel at the front of the Salt.
type Argon2Deriver struct {
	time    uint32
	memory  uint32
	threads uint8
}

type argon2Params struct {
	time    uint64
	memory  uint64
	threads uint8
}

func (p *argon2Params) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&p.time),
		bin.Int(&p.memory),
		bin.Byte(&p.threads),
	)
}

type Argon2Opt = func(*Argon2Deriver) error

// SetArgon2Time sets the number of passes over memory.
func SetArgon2Time(passes uint32) Argon2Opt {
	return func(d *Argon2Deriver) error {
		if passes < 1 || passes > maxArgon2Time {
			return fmt.Errorf("time must be between 1 and %d", maxArgon2Time)
		}
		d.time = passes
		return nil
	}
}

// SetArgon2Memory sets the memory cost in KiB, up to 1 GiB.
func SetArgon2Memory(kib uint32) Argon2Opt {
	return func(d *Argon2Deriver) error {
		if kib < 8 || kib > maxArgon2Memory {
			return fmt.Errorf("memory must be between 8 and %d KiB", maxArgon2Memory)
		}
		d.memory = kib
		return nil
	}
}

// SetArgon2Threads sets the degree of parallelism, up to 16.
func SetArgon2Threads(threads uint8) Argon2Opt {
	return func(d *Argon2Deriver) error {
		if threads < 1 || threads > maxArgon2Threads {
			return fmt.Errorf("threads must be between 1 and %d", maxArgon2Threads)
		}
		d.threads = threads
		return nil
	}
}

// NewArgon2Deriver creates a new Argon2Deriver using the options provided as zero or more Argon2Opt.
func NewArgon2Deriver(opts ...Argon2Opt) (*Argon2Deriver, error) {
	d := &Argon2Deriver{
		time:    DefaultArgon2Time,
		memory:  DefaultArgon2Memory,
		threads: DefaultArgon2Threads,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Argon2Deriver) Scheme() Scheme {
	return SchemeArgon2id
}

func (d *Argon2Deriver) NewSalt() (Salt, error) {
	var buf bytes.Buffer
	params := argon2Params{time: uint64(d.time), memory: uint64(d.memory), threads: d.threads}
	if err := params.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}
	random := make([]byte, Argon2SaltSize)
	if _, err := rand.Read(random); err != nil {
		return nil, err
	}
	buf.Write(random)
	return buf.Bytes(), nil
}

func (d *Argon2Deriver) Derive(pass Passphrase, salt Salt) (Key, Nonce, error) {
	var params argon2Params
	r := bytes.NewReader(salt)
	if err := params.mapper().Read(r, binary.BigEndian); err != nil {
		return nil, nil, fmt.Errorf("%w: salt is too short to contain argon2 parameters", ErrInvalidSalt)
	}
	if r.Len() != Argon2SaltSize {
		return nil, nil, fmt.Errorf("%w: expected %d random bytes, got %d", ErrInvalidSalt, Argon2SaltSize, r.Len())
	}
	if params.time > uint64(maxArgon2Time) || params.memory > uint64(maxArgon2Memory) {
		return nil, nil, fmt.Errorf("%w: argon2 parameters out of range", ErrInvalidSalt)
	}
	var stored Argon2Deriver
	for _, opt := range []Argon2Opt{
		SetArgon2Time(uint32(params.time)),
		SetArgon2Memory(uint32(params.memory)),
		SetArgon2Threads(params.threads),
	} {
		if err := opt(&stored); err != nil {
			return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSalt, err)
		}
	}
	random := salt[len(salt)-Argon2SaltSize:]
	material := argon2.IDKey(pass, random, stored.time, stored.memory, stored.threads, KeySize+NonceSize)
	key, nonce := splitMaterial(material)
	return key, nonce, nil
}
