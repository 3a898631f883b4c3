package passcrypt

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"

	bin "github.com/saylorsolutions/binmap"
	"golang.org/x/crypto/scrypt"
)

const (
	DefaultLargeIterations       uint64 = 1 << 20
	DefaultInteractiveIterations uint64 = 1 << 15
	DefaultRelBlockSize          uint8  = 8
	DefaultCpuCost               uint8  = 1
	ScryptSaltSize                      = 32

	maxScryptIterations uint64 = 1 << 24
	maxScryptCPUCost    uint8  = 16
	// maxScryptMemory bounds 128*N*r, the memory scrypt needs for a salt read from a file.
	maxScryptMemory uint64 = 1 << 30
)

var _ Deriver = (*ScryptDeriver)(nil)

// ScryptDeriver derives a Key and Nonce with scrypt and a random Salt.
// The tuning values are written at the front of each Salt, so payloads stay readable after the defaults change.
type ScryptDeriver struct {
	iterations        uint64
	relativeBlockSize uint8
	cpuCost           uint8
}

func (d *ScryptDeriver) mapper() bin.Mapper {
	return bin.MapSequence(
		bin.Int(&d.iterations),
		bin.Byte(&d.relativeBlockSize),
		bin.Byte(&d.cpuCost),
	)
}

type ScryptOpt = func(*ScryptDeriver) error

// SetLongDelayIterations sets a higher iteration count.
// This is much more resistant to password cracking, but every read of a payload pays for it.
func SetLongDelayIterations() ScryptOpt {
	return func(d *ScryptDeriver) error {
		d.iterations = DefaultLargeIterations
		return nil
	}
}

// SetShortDelayIterations sets a lower iteration count, and is the default.
// This balances speed with password cracking resistance, since a payload is derived each time it's read.
func SetShortDelayIterations() ScryptOpt {
	return func(d *ScryptDeriver) error {
		d.iterations = DefaultInteractiveIterations
		return nil
	}
}

// SetIterations allows the caller to customize the iteration count.
// Only use this option if you know what you're doing.
func SetIterations(iterations uint64) ScryptOpt {
	return func(d *ScryptDeriver) error {
		if iterations <= 1 {
			return errors.New("iterations cannot be <= 1")
		}
		if iterations&(iterations-1) != 0 {
			return errors.New("iterations must be a power of 2")
		}
		if iterations > maxScryptIterations {
			return fmt.Errorf("iterations cannot be > %d", maxScryptIterations)
		}
		d.iterations = iterations
		return nil
	}
}

// SetCPUCost sets the parallelism factor from the default of 1, up to 16.
// Only use this option if you know what you're doing.
func SetCPUCost(cost uint8) ScryptOpt {
	return func(d *ScryptDeriver) error {
		if cost < DefaultCpuCost || cost > maxScryptCPUCost {
			return fmt.Errorf("cpu cost must be between 1 and %d", maxScryptCPUCost)
		}
		d.cpuCost = cost
		return nil
	}
}

// SetRelativeBlockSize sets the relative block size.
// Only use this option if you know what you're doing.
func SetRelativeBlockSize(size uint8) ScryptOpt {
	return func(d *ScryptDeriver) error {
		if size < DefaultRelBlockSize {
			return errors.New("relative block size must be at least 8")
		}
		d.relativeBlockSize = size
		return nil
	}
}

// NewScryptDeriver creates a new ScryptDeriver using the options provided as zero or more ScryptOpt.
// By default, it uses DefaultInteractiveIterations.
func NewScryptDeriver(opts ...ScryptOpt) (*ScryptDeriver, error) {
	d := &ScryptDeriver{
		iterations:        DefaultInteractiveIterations,
		relativeBlockSize: DefaultRelBlockSize,
		cpuCost:           DefaultCpuCost,
	}
	for _, opt := range opts {
		if err := opt(d); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *ScryptDeriver) Scheme() Scheme {
	return SchemeScrypt
}

// NewSalt writes this deriver's tuning values followed by ScryptSaltSize random bytes.
func (d *ScryptDeriver) NewSalt() (Salt, error) {
	var buf bytes.Buffer
	if err := d.mapper().Write(&buf, binary.BigEndian); err != nil {
		return nil, err
	}
	random := make([]byte, ScryptSaltSize)
	if _, err := rand.Read(random); err != nil {
		return nil, err
	}
	buf.Write(random)
	return buf.Bytes(), nil
}

// Derive uses the tuning values stored in the salt, not the ones this deriver was created with.
func (d *ScryptDeriver) Derive(pass Passphrase, salt Salt) (Key, Nonce, error) {
	var params ScryptDeriver
	r := bytes.NewReader(salt)
	if err := params.mapper().Read(r, binary.BigEndian); err != nil {
		return nil, nil, fmt.Errorf("%w: salt is too short to contain scrypt parameters", ErrInvalidSalt)
	}
	if r.Len() != ScryptSaltSize {
		return nil, nil, fmt.Errorf("%w: expected %d random bytes, got %d", ErrInvalidSalt, ScryptSaltSize, r.Len())
	}
	if err := params.validate(); err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInvalidSalt, err)
	}
	random := salt[len(salt)-ScryptSaltSize:]
	material, err := scrypt.Key(pass, random, int(params.iterations), int(params.relativeBlockSize), int(params.cpuCost), KeySize+NonceSize)
	if err != nil {
		return nil, nil, err
	}
	key, nonce := splitMaterial(material)
	return key, nonce, nil
}

func (d *ScryptDeriver) validate() error {
	for _, opt := range []ScryptOpt{
		SetIterations(d.iterations),
		SetRelativeBlockSize(d.relativeBlockSize),
		SetCPUCost(d.cpuCost),
	} {
		if err := opt(d); err != nil {
			return err
		}
	}
	if 128*d.iterations*uint64(d.relativeBlockSize) > maxScryptMemory {
		return fmt.Errorf("iterations and block size need more than %d bytes of memory", maxScryptMemory)
	}
	return nil
}
