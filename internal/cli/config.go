package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/ocrbench/pkg/errors"
)

// =============================================================================
// Config File
// =============================================================================

// fileConfig is the layout of an ocrbench.toml file:
//
//	[run]
//	solver = "./solver"
//	args = ["--seed", "1"]
//	time_limit = "300s"
//	memory_limit = "8GiB"
//	jobs = 4
//
// Every key mirrors the run flag of the same name with dashes replaced by
// underscores.
type fileConfig struct {
	Run runFileConfig `toml:"run"`
}

type runFileConfig struct {
	Solver        string   `toml:"solver"`
	Args          []string `toml:"args"`
	TimeLimit     duration `toml:"time_limit"`
	MemoryLimit   ByteSize `toml:"memory_limit"`
	MemoryPolicy  string   `toml:"memory_policy"`
	Grace         duration `toml:"grace"`
	Jobs          int      `toml:"jobs"`
	Ext           string   `toml:"ext"`
	Output        string   `toml:"output"`
	Format        string   `toml:"format"`
	Strategy      string   `toml:"strategy"`
	Reference     string   `toml:"reference"`
	Counter       string   `toml:"counter"`
	LowerBound    bool     `toml:"lower_bound"`
	KeepSolutions string   `toml:"keep_solutions"`
	NoCache       bool     `toml:"no_cache"`
	Dedupe        bool     `toml:"dedupe"`
}

// duration decodes TOML strings such as "300s" or "1m30s".
type duration struct {
	time.Duration
}

func (d *duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// loadConfig reads a config file. Unknown keys are an error so a typo does
// not silently fall back to a default.
func loadConfig(path string) (*fileConfig, error) {
	var cfg fileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, errors.New(errors.ErrCodeInvalidConfig, "config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return &cfg, nil
}

// =============================================================================
// Byte Sizes
// =============================================================================

// ByteSize is a memory amount. It parses plain byte counts and values with a
// unit: KB, MB, GB and TB are powers of 1000, KiB, MiB, GiB and TiB (and the
// bare K, M, G, T) powers of 1024. Zero means no limit.
type ByteSize uint64

var byteUnits = map[string]uint64{
	"":    1,
	"b":   1,
	"kb":  1e3,
	"mb":  1e6,
	"gb":  1e9,
	"tb":  1e12,
	"k":   1 << 10,
	"kib": 1 << 10,
	"m":   1 << 20,
	"mib": 1 << 20,
	"g":   1 << 30,
	"gib": 1 << 30,
	"t":   1 << 40,
	"tib": 1 << 40,
}

// ParseByteSize parses a size such as "8GiB", "512MB", "1.5G" or "1048576".
func ParseByteSize(s string) (ByteSize, error) {
	s = strings.TrimSpace(s)
	i := strings.IndexFunc(s, func(r rune) bool { return (r < '0' || r > '9') && r != '.' })
	num, unit := s, ""
	if i >= 0 {
		num, unit = s[:i], strings.TrimSpace(s[i:])
	}
	if num == "" {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid size %q", s)
	}
	mult, ok := byteUnits[strings.ToLower(unit)]
	if !ok {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid size %q: unknown unit %q", s, unit)
	}
	if n, err := strconv.ParseUint(num, 10, 64); err == nil {
		if n > math.MaxUint64/mult {
			return 0, errors.New(errors.ErrCodeInvalidConfig, "size %q overflows", s)
		}
		return ByteSize(n * mult), nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil || f < 0 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "invalid size %q", s)
	}
	v := f * float64(mult)
	if v >= math.MaxUint64 {
		return 0, errors.New(errors.ErrCodeInvalidConfig, "size %q overflows", s)
	}
	return ByteSize(v), nil
}

// String prints the size with the largest binary unit that divides it.
func (b ByteSize) String() string {
	for _, u := range []struct {
		name string
		size uint64
	}{{"TiB", 1 << 40}, {"GiB", 1 << 30}, {"MiB", 1 << 20}, {"KiB", 1 << 10}} {
		if uint64(b) >= u.size && uint64(b)%u.size == 0 {
			return fmt.Sprintf("%d%s", uint64(b)/u.size, u.name)
		}
	}
	return strconv.FormatUint(uint64(b), 10)
}

// Set implements the flag value interface.
func (b *ByteSize) Set(s string) error {
	v, err := ParseByteSize(s)
	if err != nil {
		return err
	}
	*b = v
	return nil
}

// Type implements the flag value interface.
func (b *ByteSize) Type() string { return "size" }

// UnmarshalText lets TOML strings decode into a ByteSize.
func (b *ByteSize) UnmarshalText(text []byte) error {
	return b.Set(string(text))
}
