package metadata

import (
	"errors"
	"testing"

	"github.com/anyswap/substrate-client/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEventArg(t *testing.T) {
	tests := []struct {
		input      string
		want       EventArg
		primitives []string
	}{
		{"u8", Primitive("u8"), []string{"u8"}},
		{"Vec<u8>", Vec(Primitive("u8")), []string{"u8"}},
		{"(u8, bool)", Tuple(Primitive("u8"), Primitive("bool")), []string{"u8", "bool"}},
		{
			"Vec<(u8,Vec<bool>)>",
			Vec(Tuple(Primitive("u8"), Vec(Primitive("bool")))),
			[]string{"u8", "bool"},
		},
		{
			"(AccountId, Vec<Balance>, Hash)",
			Tuple(Primitive("AccountId"), Vec(Primitive("Balance")), Primitive("Hash")),
			[]string{"AccountId", "Balance", "Hash"},
		},
	}
	for _, test := range tests {
		arg, err := ParseEventArg(test.input)
		require.Nil(t, err, test.input)
		assert.Equal(t, test.want, arg, test.input)
		assert.Equal(t, test.primitives, arg.Primitives(), test.input)
	}
}

func TestParseEventArgFallback(t *testing.T) {
	// unrecognised compound forms stay primitive names
	for _, input := range []string{"Option<u8>", "[u8; 32]", "BTreeMap<u8, u8>", "<T as Trait>::Balance"} {
		arg, err := ParseEventArg(input)
		require.Nil(t, err, input)
		assert.Equal(t, Primitive(input), arg)
		assert.Equal(t, []string{input}, arg.Primitives())
	}

	arg, err := ParseEventArg("Vec<Option<u8>>")
	require.Nil(t, err)
	assert.Equal(t, Vec(Primitive("Option<u8>")), arg)
}

func TestParseEventArgErrors(t *testing.T) {
	for _, input := range []string{"Vec<u8", "(u8, bool", "Vec<(u8,bool>", "(Vec<u8, bool)"} {
		_, err := ParseEventArg(input)
		assert.True(t, errors.Is(err, ErrInvalidEventArg), input)
		assert.True(t, errors.Is(err, common.ErrEncoding), input)
	}
}

func TestEventArgString(t *testing.T) {
	arg, err := ParseEventArg("Vec<(u8,Vec<bool>)>")
	require.Nil(t, err)
	assert.Equal(t, "Vec<(u8, Vec<bool>)>", arg.String())
}
