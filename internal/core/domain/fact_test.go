package domain_test

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/ripple/internal/core/domain"
)

func TestFactKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  domain.FactKey
		want string
	}{
		{name: "top level", key: domain.TopLevel("a"), want: "topLevel:a"},
		{name: "nominal", key: domain.Nominal("T"), want: "nominal:T"},
		{name: "dynamic lookup", key: domain.DynamicLookup("d"), want: "dynamicLookup:d"},
		{name: "member", key: domain.Member("T", "m"), want: "member:T.m"},
		{name: "empty member", key: domain.Member("T", ""), want: "member:T."},
		{name: "external", key: domain.External("/foo"), want: "external:/foo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.key.String())
		})
	}
}

func TestFactKey_Equality(t *testing.T) {
	assert.Equal(t, domain.TopLevel("a"), domain.TopLevel("a"))
	assert.NotEqual(t, domain.TopLevel("a"), domain.Nominal("a"))
	assert.NotEqual(t, domain.Member("a", ""), domain.Member("a", "aa"))
	assert.NotEqual(t, domain.Member("a", "b"), domain.Member("b", "a"))
}

func TestFactKey_Compare(t *testing.T) {
	keys := []domain.FactKey{
		domain.Member("b", "x"),
		domain.Nominal("z"),
		domain.TopLevel("b"),
		domain.Member("a", "y"),
		domain.TopLevel("a"),
	}

	slices.SortFunc(keys, domain.FactKey.Compare)

	assert.Equal(t, []domain.FactKey{
		domain.TopLevel("a"),
		domain.TopLevel("b"),
		domain.Nominal("z"),
		domain.Member("a", "y"),
		domain.Member("b", "x"),
	}, keys)
}

func TestDependency_String(t *testing.T) {
	assert.Equal(t, "topLevel:a", domain.Dependency{Key: domain.TopLevel("a"), Cascades: true}.String())
	assert.Equal(t, "topLevel:a (private)", domain.Dependency{Key: domain.TopLevel("a")}.String())
}

func TestLoadResult_String(t *testing.T) {
	assert.Equal(t, "up-to-date", domain.LoadUpToDate.String())
	assert.Equal(t, "needs-nonexistent", domain.LoadNeedsNonexistent.String())
	assert.Equal(t, "had-error", domain.LoadHadError.String())
	assert.Equal(t, "LoadResult(9)", domain.LoadResult(9).String())
}

func TestReason_String(t *testing.T) {
	assert.Equal(t, "interface-changed", domain.ReasonInterfaceChanged.String())
	assert.Equal(t, "dependent", domain.ReasonDependent.String())

	text, err := domain.ReasonExternal.MarshalText()
	assert.NoError(t, err)
	assert.Equal(t, "external", string(text))
}
