package service

import (
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/jonboulle/clockwork"
	"github.com/zhejian/link-shortener/internal/model"
)

// Base36 character set for token generation
const base36Chars = "0123456789abcdefghijklmnopqrstuvwxyz"

const (
	DefaultAliasDomain = "short.link"
	DefaultTokenLength = 6
)

// RandSource is the randomness consumed by Generator.
// *rand.Rand from math/rand/v2 satisfies it.
type RandSource interface {
	IntN(n int) int
}

type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// Generator derives aliases from original URLs.
// Tokens are drawn at random and are not checked for uniqueness.
type Generator struct {
	domain      string
	tokenLength int
	clock       clockwork.Clock

	mu  sync.Mutex
	src RandSource
}

// GeneratorOption customises a Generator
type GeneratorOption func(*Generator)

// WithRandSource pins the random source, mostly for reproducible tests.
func WithRandSource(src RandSource) GeneratorOption {
	return func(g *Generator) { g.src = src }
}

// WithClock sets the clock used to stamp conversions
func WithClock(clock clockwork.Clock) GeneratorOption {
	return func(g *Generator) { g.clock = clock }
}

// NewGenerator creates a generator producing "<domain>/<token>" aliases
func NewGenerator(domain string, tokenLength int, opts ...GeneratorOption) *Generator {
	if domain == "" {
		domain = DefaultAliasDomain
	}
	if tokenLength <= 0 {
		tokenLength = DefaultTokenLength
	}
	g := &Generator{
		domain:      strings.TrimSuffix(domain, "/"),
		tokenLength: tokenLength,
		clock:       clockwork.NewRealClock(),
		src:         globalRand{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Domain returns the fixed alias prefix
func (g *Generator) Domain() string {
	return g.domain
}

// Generate pairs original with a freshly drawn alias.
func (g *Generator) Generate(original string) model.Conversion {
	return model.Conversion{
		Original:  original,
		Alias:     g.domain + "/" + g.Token(),
		CreatedAt: g.clock.Now(),
	}
}

// Token draws one random token of the configured length
func (g *Generator) Token() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	var b strings.Builder
	b.Grow(g.tokenLength)
	for i := 0; i < g.tokenLength; i++ {
		b.WriteByte(base36Chars[g.src.IntN(len(base36Chars))])
	}
	return b.String()
}
