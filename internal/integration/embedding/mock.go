package embedding

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"unicode"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

const (
	mockModel     = "mock-bag-of-words"
	mockDimension = 512
)

// MockConnector is an offline embedder: every distinct token gets its own slot,
// so texts sharing words land close to each other. Slots are never reassigned,
// which keeps vectors stable for the lifetime of the connector.
type MockConnector struct {
	logger *zap.Logger

	mu    sync.Mutex
	slots map[string]int
}

func NewMockConnector(logger *zap.Logger) *MockConnector {
	return &MockConnector{
		logger: logger,
		slots:  make(map[string]int),
	}
}

func (m *MockConnector) Model() string {
	return mockModel
}

func (m *MockConnector) Dimension() int {
	return mockDimension
}

func (m *MockConnector) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	ctxzap.Debug(ctx, "[MOCK] embedding texts", zap.Int("count", len(texts)))

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = m.embedOne(text)
	}
	return vectors, nil
}

func (m *MockConnector) embedOne(text string) []float32 {
	vec := make([]float32, mockDimension)

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	m.mu.Lock()
	for _, tok := range tokens {
		vec[m.slot(tok)]++
	}
	m.mu.Unlock()

	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum > 0 {
		inv := float32(1 / math.Sqrt(sum))
		for i := range vec {
			vec[i] *= inv
		}
	}
	return vec
}

// slot must be called with mu held
func (m *MockConnector) slot(token string) int {
	if s, ok := m.slots[token]; ok {
		return s
	}

	s := len(m.slots)
	if s >= mockDimension {
		h := fnv.New32a()
		h.Write([]byte(token))
		s = int(h.Sum32() % mockDimension)
	}
	m.slots[token] = s
	return s
}
