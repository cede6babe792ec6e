package filter

import (
	"io"
	"testing"

	"github.com/jmgilman/go/directio"
	"github.com/jmgilman/go/directio/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlobFilter_AcceptsPath(t *testing.T) {
	args := directio.NewFilterContext(map[string]string{"date": "2024-01-02", "region": "eu"})

	tests := []struct {
		name    string
		include []string
		exclude []string
		path    string
		want    bool
	}{
		{"no globs", nil, nil, "/data/a.csv", true},
		{"include match", []string{"data/*.csv"}, nil, "/data/a.csv", true},
		{"include miss", []string{"data/*.csv"}, nil, "data/a.txt", false},
		{"star stays in segment", []string{"data/*.csv"}, nil, "data/x/a.csv", false},
		{"super star crosses segments", []string{"data/**.csv"}, nil, "data/x/y/a.csv", true},
		{"any include", []string{"a/*", "b/*"}, nil, "b/1", true},
		{"exclude wins", []string{"data/**"}, []string{"**/_*"}, "data/x/_SUCCESS", false},
		{"exclude only", nil, []string{"**.tmp"}, "data/x.tmp", false},
		{"argument", []string{"sales/${date}/*"}, nil, "sales/2024-01-02/p0", true},
		{"argument mismatch", []string{"sales/${date}/*"}, nil, "sales/2024-01-03/p0", false},
		{"two arguments", []string{"${region}/${date}-*"}, nil, "eu/2024-01-02-x", true},
		{"alternatives", []string{"{eu,us}/*"}, nil, "us/a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewGlobFilter(tt.include, tt.exclude)
			require.NoError(t, f.Initialize(args))
			assert.Equal(t, tt.want, f.AcceptsPath(tt.path))
			assert.True(t, f.AcceptsData("any record"))
		})
	}
}

func TestGlobFilter_InitializeErrors(t *testing.T) {
	args := directio.NewFilterContext(map[string]string{"date": "2024"})

	tests := []struct {
		name    string
		include []string
		wantMsg string
	}{
		{"undefined argument", []string{"${missing}/*"}, "missing"},
		{"unterminated argument", []string{"${date"}, "unterminated"},
		{"invalid glob", []string{"[a"}, "invalid glob"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewGlobFilter(tt.include, nil).Initialize(args)
			require.Error(t, err)
			assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestRecordFunc(t *testing.T) {
	positive := RecordFunc(func(r any) bool { return r.(int) > 0 })
	require.NoError(t, positive.Initialize(directio.NewFilterContext(nil)))
	assert.True(t, positive.AcceptsPath("anything"))
	assert.True(t, positive.AcceptsData(1))
	assert.False(t, positive.AcceptsData(-1))
}

type sliceInput struct {
	records []any
}

func (s *sliceInput) Read() (any, error) {
	if len(s.records) == 0 {
		return nil, io.EOF
	}
	r := s.records[0]
	s.records = s.records[1:]
	return r, nil
}

func (s *sliceInput) Close() error { return nil }

func TestAll(t *testing.T) {
	even := RecordFunc(func(r any) bool { return r.(int)%2 == 0 })
	small := RecordFunc(func(r any) bool { return r.(int) < 6 })
	paths := NewGlobFilter([]string{"keep/**"}, nil)

	f := All(paths, even, small)
	require.NoError(t, f.Initialize(directio.NewFilterContext(nil)))
	assert.True(t, f.AcceptsPath("keep/a"))
	assert.False(t, f.AcceptsPath("drop/a"))

	records, err := directio.ReadAll(directio.NewFilteredInput(&sliceInput{records: []any{1, 2, 3, 4, 5, 6, 7, 8}}, f))
	require.NoError(t, err)
	assert.Equal(t, []any{2, 4}, records)
}

func TestAll_InitializeError(t *testing.T) {
	f := All(RecordFunc(func(any) bool { return true }), NewGlobFilter([]string{"${x}"}, nil))
	assert.Error(t, f.Initialize(directio.NewFilterContext(nil)))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("daily", func() directio.DataFilter {
		return NewGlobFilter([]string{"${date}/*"}, nil)
	}))
	require.NoError(t, r.Register("all", func() directio.DataFilter { return directio.AcceptAll{} }))
	assert.Equal(t, []string{"all", "daily"}, r.IDs())

	err := r.Register("all", func() directio.DataFilter { return directio.AcceptAll{} })
	assert.Equal(t, errors.CodeAlreadyExists, errors.GetCode(err))
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(r.Register("", nil)))

	f, err := r.New("daily", directio.NewFilterContext(map[string]string{"date": "d1"}))
	require.NoError(t, err)
	assert.True(t, f.AcceptsPath("d1/a"))
	assert.False(t, f.AcceptsPath("d2/a"))

	_, err = r.New("daily", directio.NewFilterContext(nil))
	assert.Equal(t, errors.CodeInvalidConfig, errors.GetCode(err))

	_, err = r.New("unknown", directio.NewFilterContext(nil))
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestRegistry_ForInput(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("all", func() directio.DataFilter { return directio.AcceptAll{} }))
	fctx := directio.NewFilterContext(nil)

	f, err := r.ForInput(directio.InputDescription{}, fctx)
	require.NoError(t, err)
	assert.Nil(t, f)

	f, err = r.ForInput(directio.InputDescription{Filter: "all"}, fctx)
	require.NoError(t, err)
	assert.NotNil(t, f)
}
