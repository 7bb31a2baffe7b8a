package numeric

import (
	stdErrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reglet-dev/wasm-marshal/domain/errors"
)

type refusingAllocator struct{}

func (refusingAllocator) AllocFloat64s(int) ([]float64, error) {
	return nil, stdErrors.New("out of memory")
}

type countingAllocator struct{ calls int }

func (c *countingAllocator) AllocFloat64s(n int) ([]float64, error) {
	c.calls++
	return make([]float64, n), nil
}

func TestAdd(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		n    int
		want []float64
	}{
		{name: "four elements", a: []float64{1, 2, 3, 4}, b: []float64{5, 6, 7, 8}, n: 4, want: []float64{6, 8, 10, 12}},
		{name: "negative and fractional", a: []float64{-1.5, 0.25}, b: []float64{1.5, 0.5}, n: 2, want: []float64{0, 0.75}},
		{name: "prefix only", a: []float64{1, 2, 3}, b: []float64{1, 1, 1}, n: 2, want: []float64{2, 3}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b, tt.n)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			out := make([]float64, tt.n)
			require.NoError(t, AddInto(tt.a, tt.b, out, tt.n))
			assert.Equal(t, got, out, "AddInto must match Add")
		})
	}
}

func TestAdd_Empty(t *testing.T) {
	got, err := Add(nil, nil, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestAddInto_ZeroIsNoop(t *testing.T) {
	out := []float64{42}
	require.NoError(t, AddInto(nil, nil, out, 0))
	assert.Equal(t, []float64{42}, out)
}

func TestAdd_LengthErrors(t *testing.T) {
	tests := []struct {
		name    string
		a, b    []float64
		n       int
		wantArg string
	}{
		{name: "negative count", a: nil, b: nil, n: -1, wantArg: ""},
		{name: "short a", a: []float64{1}, b: []float64{1, 2}, n: 2, wantArg: "a"},
		{name: "short b", a: []float64{1, 2}, b: []float64{1}, n: 2, wantArg: "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Add(tt.a, tt.b, tt.n)
			var lenErr *errors.LengthError
			require.ErrorAs(t, err, &lenErr)
			assert.Equal(t, tt.wantArg, lenErr.Argument)
		})
	}
}

func TestAddInto_ShortOutputLeavesBufferUntouched(t *testing.T) {
	out := []float64{9}
	err := AddInto([]float64{1, 2}, []float64{3, 4}, out, 2)

	var lenErr *errors.LengthError
	require.ErrorAs(t, err, &lenErr)
	assert.Equal(t, "out", lenErr.Argument)
	assert.Equal(t, []float64{9}, out)
}

func TestAddWith_AllocationFailure(t *testing.T) {
	got, err := AddWith(refusingAllocator{}, []float64{1}, []float64{2}, 1)

	assert.Nil(t, got)
	var allocErr *errors.AllocationError
	require.ErrorAs(t, err, &allocErr)
	assert.Equal(t, 8, allocErr.Requested)
}

func TestAddWith_LengthCheckedBeforeAllocating(t *testing.T) {
	alloc := &countingAllocator{}
	_, err := AddWith(alloc, []float64{1}, nil, 1)

	assert.Error(t, err)
	assert.Zero(t, alloc.calls)
}
