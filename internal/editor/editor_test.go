package editor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type countingSaver struct {
	calls int
	err   error
	last  Restaurant
}

func (s *countingSaver) Save(_ context.Context, r Restaurant) error {
	s.calls++
	s.last = r
	return s.err
}

func validRestaurant() Restaurant {
	return Restaurant{
		ID:   gofakeit.UUID(),
		Name: gofakeit.Company(),
		Address: Address{
			Line1:   gofakeit.Street(),
			City:    gofakeit.City(),
			Country: gofakeit.Country(),
		},
	}
}

func TestFormatAddress(t *testing.T) {
	cases := []struct {
		name string
		in   Address
		want string
	}{
		{
			name: "all parts",
			in:   Address{Line1: "1 Main St", Line2: "Suite 2", City: "Springfield", State: "IL", PostalCode: "62701", Country: "USA"},
			want: "1 Main St, Suite 2, Springfield, IL, 62701, USA",
		},
		{
			name: "blank parts skipped",
			in:   Address{Line1: "1 Main St", Line2: "  ", City: "Pune", Country: "India"},
			want: "1 Main St, Pune, India",
		},
		{name: "city and country only", in: Address{City: "Oslo", Country: "Norway"}, want: "Oslo, Norway"},
		{name: "empty", in: Address{}, want: ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatAddress(tc.in))
		})
	}
}

func TestValidate(t *testing.T) {
	errs := Validate(Restaurant{Address: Address{Line2: "Unit 4", State: "CA"}})
	assert.Len(t, errs, 4)
	for _, f := range []Field{FieldName, FieldLine1, FieldCity, FieldCountry} {
		assert.Contains(t, errs, f)
	}
	assert.Equal(t, "Restaurant name is required", errs[FieldName])

	assert.Empty(t, Validate(validRestaurant()))
}

func TestSubmit_ValidationFailureNeverSaves(t *testing.T) {
	saver := &countingSaver{}
	f := NewForm(Restaurant{ID: "r-1"}, saver, nil)
	require.NoError(t, f.SetName("Trattoria"))

	err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrValidation)
	assert.Zero(t, saver.calls)
	assert.NotContains(t, f.Errors(), FieldName)
	assert.Contains(t, f.Errors(), FieldCity)
	assert.False(t, f.Saving())
}

func TestSubmit_SaveFailureShowsGenericMessage(t *testing.T) {
	saver := &countingSaver{err: errors.New("upstream 503")}
	f := NewForm(validRestaurant(), saver, nil)

	err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.Equal(t, SaveFailedMessage, f.Message())
	assert.Equal(t, 1, saver.calls)
	assert.False(t, f.Saving())
	assert.Empty(t, f.Errors())
}

func TestSubmit_Success(t *testing.T) {
	saver := &countingSaver{}
	r := validRestaurant()
	f := NewForm(r, saver, nil)
	require.NoError(t, f.SetCuisine("Thai"))

	require.NoError(t, f.Submit(context.Background()))

	assert.Equal(t, SavedMessage, f.Message())
	assert.Equal(t, "Thai", saver.last.Cuisine)
	assert.Equal(t, r.ID, saver.last.ID)
}

func TestSetClearsFieldError(t *testing.T) {
	f := NewForm(Restaurant{}, &countingSaver{}, nil)
	assert.False(t, f.Validate())
	require.Contains(t, f.Errors(), FieldCity)

	require.NoError(t, f.Set(FieldCity, "Lyon"))
	assert.NotContains(t, f.Errors(), FieldCity)

	f.SetAddress(Address{Line1: "2 Rue", Country: "France"})
	assert.NotContains(t, f.Errors(), FieldLine1)
	assert.Equal(t, "", f.Restaurant().Address.City)
}

func TestSetUnknownField(t *testing.T) {
	f := NewForm(Restaurant{}, &countingSaver{}, nil)
	assert.ErrorIs(t, f.Set(Field("menu"), "x"), ErrUnknownField)
}

func TestApplyKeepsID(t *testing.T) {
	f := NewForm(Restaurant{ID: "r-1"}, &countingSaver{}, nil)
	in := validRestaurant()
	f.Apply(in)

	got := f.Restaurant()
	assert.Equal(t, "r-1", got.ID)
	assert.Equal(t, in.Name, got.Name)
}

func TestBack(t *testing.T) {
	called := 0
	f := NewForm(validRestaurant(), &countingSaver{}, func() { called++ })
	f.Back()
	assert.Equal(t, 1, called)

	NewForm(Restaurant{}, &countingSaver{}, nil).Back()
}

func TestSimulatedSaver(t *testing.T) {
	s := NewSimulatedSaver(zap.NewNop(), time.Millisecond)
	r := validRestaurant()

	require.NoError(t, s.Save(context.Background(), r))
	got, ok := s.Get(r.ID)
	require.True(t, ok)
	assert.Equal(t, r, got)

	s.Err = errors.New("boom")
	assert.Error(t, s.Save(context.Background(), r))
}

func TestSimulatedSaver_RespectsContext(t *testing.T) {
	s := NewSimulatedSaver(zap.NewNop(), time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewForm(validRestaurant(), s, nil)
	err := f.Submit(ctx)

	assert.ErrorIs(t, err, ErrSaveFailed)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SaveFailedMessage, f.Message())
}
