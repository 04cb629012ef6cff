package position

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bobmcallan/tradebook/internal/interfaces"
	"github.com/bobmcallan/tradebook/internal/models"
)

var (
	_ interfaces.OrderSource = (*SliceSource)(nil)
	_ interfaces.OrderSource = (*JSONLSource)(nil)
)

// SliceSource serves orders from memory.
type SliceSource struct {
	orders []models.Order
	next   int
}

// NewSliceSource returns a source yielding orders in order.
func NewSliceSource(orders ...models.Order) *SliceSource {
	return &SliceSource{orders: orders}
}

func (s *SliceSource) Next(ctx context.Context) (*models.Order, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.next >= len(s.orders) {
		return nil, io.EOF
	}
	o := s.orders[s.next]
	s.next++
	return &o, nil
}

// DecodeError is a line of an order stream that could not be parsed.
// The stream remains readable after it.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// JSONLSource reads one JSON order per line. Blank lines and lines starting
// with # are skipped. Side and status are matched case-insensitively.
type JSONLSource struct {
	scanner *bufio.Scanner
	line    int
}

// NewJSONLSource reads orders from r.
func NewJSONLSource(r io.Reader) *JSONLSource {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return &JSONLSource{scanner: scanner}
}

func (s *JSONLSource) Next(ctx context.Context) (*models.Order, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !s.scanner.Scan() {
			if err := s.scanner.Err(); err != nil {
				return nil, fmt.Errorf("failed to read orders: %w", err)
			}
			return nil, io.EOF
		}
		s.line++

		text := strings.TrimSpace(s.scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		var order models.Order
		if err := json.Unmarshal([]byte(text), &order); err != nil {
			return nil, &DecodeError{Line: s.line, Err: err}
		}
		order.Normalize()
		return &order, nil
	}
}
